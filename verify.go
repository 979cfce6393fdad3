package scss

import (
	"fmt"
	"io"
	"strings"

	tdparse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Stats counts the parts of a stylesheet.
type Stats struct {
	Rulesets     int
	Declarations int
	AtRules      int
}

// Verify reads generated CSS with an independent CSS grammar parser and
// reports what it found. A grammar error means the compiler produced invalid
// CSS.
func Verify(text string) (Stats, error) {
	var st Stats
	p := css.NewParser(tdparse.NewInput(strings.NewReader(strings.TrimPrefix(text, "\uFEFF"))), false)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); err != nil && err != io.EOF {
				return st, fmt.Errorf("verify: %w", err)
			}
			return st, nil
		case css.BeginRulesetGrammar:
			st.Rulesets++
		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			st.Declarations++
		case css.AtRuleGrammar, css.BeginAtRuleGrammar:
			if !strings.EqualFold(string(data), "@charset") {
				st.AtRules++
			}
		}
	}
}
