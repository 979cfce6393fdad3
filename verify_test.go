package scss

import (
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestVerify(t *testing.T) {
	st, err := Verify("@charset \"UTF-8\";\na {\n  color: red;\n  --x: 1;\n}\n@media print {\n  b {\n    x: y;\n  }\n}\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := (Stats{Rulesets: 2, Declarations: 3, AtRules: 1}); st != exp {
		t.Errorf("got %+v, want %+v", st, exp)
	}
}

func TestVerifyCompiled(t *testing.T) {
	c := NewCompiler(zaptest.NewLogger(t))
	for _, style := range []OutputStyle{Expanded, Compressed} {
		c.Style = style
		out, err := c.CompileString(`$n: 3; @for $i from 1 through $n { .c-#{$i} { width: $i * 10px; @media print { width: auto; } } }`)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", style, err)
		}
		st, err := Verify(out)
		if err != nil {
			t.Fatalf("%s: %v", style, err)
		}
		if st.Rulesets != 6 || st.Declarations != 6 || st.AtRules != 3 {
			t.Errorf("%s: got %+v", style, st)
		}
	}
}

func TestCompress(t *testing.T) {
	out, err := compress("a {\n  color: red;\n}\n", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "a{color:red}" {
		t.Errorf("got %q", out)
	}
	if out, _ = compress("", true); out != "" {
		t.Errorf("got %q, want empty output", out)
	}
	out, err = compress("a {\n  content: \"ü\";\n}\n", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "\uFEFF") {
		t.Errorf("got %q, want a byte order mark", out)
	}
}
