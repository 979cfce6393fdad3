package scss

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// compress removes optional white space from expanded CSS. With charset set,
// non-ASCII output starts with a byte order mark.
func compress(css string, charset bool) (string, error) {
	if css == "" {
		return "", nil
	}
	res := api.Transform(css, api.TransformOptions{
		Loader:           api.LoaderCSS,
		MinifyWhitespace: true,
		Charset:          api.CharsetUTF8,
	})
	if len(res.Errors) > 0 {
		msgs := api.FormatMessages(res.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
		return "", fmt.Errorf("compress: %s", strings.TrimSpace(strings.Join(msgs, "")))
	}
	out := strings.TrimSuffix(string(res.Code), "\n")
	if charset && hasNonASCII(out) {
		out = "\uFEFF" + out
	}
	return out, nil
}
