package scss

import (
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"
)

func renderDoc(t *testing.T, c *Compiler, src string) string {
	t.Helper()
	doc, err := c.ProcessHTMLChunk(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var b strings.Builder
	if err := RenderHTML(&b, doc); err != nil {
		t.Fatal(err)
	}
	return b.String()
}

func TestHTMLInlineStyle(t *testing.T) {
	c := NewCompiler(zaptest.NewLogger(t))
	out := renderDoc(t, c, `<html><head><style type="text/scss">a { b { c: d; } }</style></head><body></body></html>`)
	if !strings.Contains(out, "<style>\na b {\n  c: d;\n}\n</style>") {
		t.Errorf("compiled style missing in %q", out)
	}
	if strings.Contains(out, "text/scss") {
		t.Errorf("scss style element left in %q", out)
	}
}

func TestHTMLPlainStyleUntouched(t *testing.T) {
	c := NewCompiler(zaptest.NewLogger(t))
	out := renderDoc(t, c, `<html><head><style>a { $x: 1; }</style></head><body></body></html>`)
	if !strings.Contains(out, "<style>a { $x: 1; }</style>") {
		t.Errorf("plain style changed: %q", out)
	}
}

func TestHTMLLinkedStyle(t *testing.T) {
	c := NewCompiler(zaptest.NewLogger(t))
	c.ReadFile = memFiles(map[string]string{"site.scss": `$c: red; a { color: $c; }`})
	out := renderDoc(t, c, `<html><head><link rel="stylesheet" href="site.scss" media="print"></head><body></body></html>`)
	if !strings.Contains(out, "<style media=\"print\">\na {\n  color: red;\n}\n</style>") {
		t.Errorf("linked style missing in %q", out)
	}
	if strings.Contains(out, "<link") {
		t.Errorf("link left in %q", out)
	}
}

func TestHTMLInlineCache(t *testing.T) {
	c := NewCompiler(zaptest.NewLogger(t))
	block := `<style type="text/scss">a { b: c; }</style>`
	renderDoc(t, c, `<html><head>`+block+block+`</head><body></body></html>`)
	if n := c.inlineCache().Len(); n != 1 {
		t.Errorf("got %d cache entries, want 1", n)
	}
	c.Style = Compressed
	renderDoc(t, c, `<html><head>`+block+`</head><body></body></html>`)
	if n := c.inlineCache().Len(); n != 2 {
		t.Errorf("got %d cache entries, want 2", n)
	}
}

func TestHTMLErrors(t *testing.T) {
	c := NewCompiler(zaptest.NewLogger(t))
	_, err := c.ProcessHTMLChunk(`<html><head>
<style type="text/scss">a { b: $x; }</style>
<style type="text/scss">a { b: c; }</style>
<style type="text/scss">@error "bad";</style>
</head><body></body></html>`)
	if err == nil {
		t.Fatal("expected an error")
	}
	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), err)
	}
	if !IsKind(errs[0], ErrUndefined) || !IsKind(errs[1], ErrUser) {
		t.Errorf("unexpected errors %v", errs)
	}
	if !strings.HasPrefix(errs[1].Error(), "style element 3:") {
		t.Errorf("got %q", errs[1].Error())
	}
}
