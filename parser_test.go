package scss

import (
	"testing"
)

func TestNestedAtrule(t *testing.T) {
	str := `
	@page {
		size: a5;
		@bottom-right-corner {
			border: 4pt solid green;
			border-bottom-color: rebeccapurple;
		}

		/* @top-left-corner {
			border: 1pt solid green;
			border-bottom-color: rebeccapurple;
		} */

	@top-right-corner {
			border: 3pt solid green;
			border-bottom-color: rebeccapurple;
		}

		@bottom-left-corner {
			border: 2pt solid green;
			border-bottom-color: rebeccapurple;
		}

	}`
	nodes, err := parse(str)
	if err != nil {
		t.Fatal(err)
	}
	page, ok := nodes[0].(*atRuleNode)
	if !ok || page.name != "page" || !page.hasBody {
		t.Fatalf("want @page rule, got %#v", nodes[0])
	}
	count := 0
	for _, n := range page.body {
		if _, ok := n.(*atRuleNode); ok {
			count++
		}
	}
	if count != 3 {
		t.Errorf("want 3 child @ rules, got %d", count)
	}
}

func TestFontFace(t *testing.T) {
	str := `@font-face {
		font-family: "Trickster";
		src:
		  local("Trickster"),
		  url("trickster-COLRv1.otf") format("opentype") tech(color-COLRv1),
		  url("trickster-outline.otf") format("opentype"),
		  url("trickster-outline.woff") format("woff");
	  }`
	nodes, err := parse(str)
	if err != nil {
		t.Fatal(err)
	}
	ff := nodes[0].(*atRuleNode)
	if got, want := len(ff.body), 2; got != want {
		t.Fatalf("len(body) = %d, want %d", got, want)
	}
	src, ok := ff.body[1].(*declNode)
	if !ok || src.name.String() != "src" {
		t.Fatalf("want src declaration, got %#v", ff.body[1])
	}
	if got, want := len(splitTopLevel(src.value, ",")), 4; got != want {
		t.Errorf("src has %d sources, want %d", got, want)
	}
}

func TestParseStatements(t *testing.T) {
	str := `
	// line comment with a } brace
	$a: 1px !default;
	$b: red !global !default;
	/* loud */
	a {
		color: $b; // trailing
		--custom: 1px  2px;
		&:hover { color: blue }
	}
	@if $a == 1px { x { y: z } } @else if $a { } @else { }
	`
	nodes, err := parse(str)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 5 {
		t.Fatalf("got %d statements, want 5", len(nodes))
	}
	a := nodes[0].(*varNode)
	if a.name != "a" || !a.guarded || a.global || a.value.String() != "1px" {
		t.Errorf("$a = %#v", a)
	}
	b := nodes[1].(*varNode)
	if !b.guarded || !b.global || b.value.String() != "red" {
		t.Errorf("$b = %#v", b)
	}
	if c := nodes[2].(*commentNode); c.text != "/* loud */" && c.text != " loud " {
		t.Errorf("comment = %q", c.text)
	}
	r := nodes[3].(*ruleNode)
	if r.selector.String() != "a" || len(r.body) != 3 {
		t.Fatalf("rule = %q with %d children", r.selector.String(), len(r.body))
	}
	if d := r.body[1].(*declNode); !d.custom {
		t.Error("custom property not recognized")
	}
	if len(nodes[4].(*ifNode).clauses) != 3 {
		t.Errorf("@if chain has %d clauses, want 3", len(nodes[4].(*ifNode).clauses))
	}
	if nodes[4].(*ifNode).clauses[2].cond != nil {
		t.Error("@else has a condition")
	}
}

func TestParseErrors(t *testing.T) {
	testdata := []struct {
		src  string
		msg  string
		line int
	}{
		{"a { color: red;", `expected "}".`, 1},
		{"a { }\n}", `unmatched "}".`, 2},
		{"a {\n  color;\n}", `expected "{".`, 2},
		{"a { color: ; }", "Expected expression.", 1},
		{"$x 1;", `expected ":".`, 1},
		{"$x: 1 !loud;", "Invalid flag name.", 1},
		{"@if { }", "Expected expression.", 1},
	}
	for _, tc := range testdata {
		_, err := parse(tc.src)
		if !IsKind(err, ErrSyntax) {
			t.Errorf("parse(%q): got %v, want a syntax error", tc.src, err)
			continue
		}
		e := err.(*Error)
		if e.Message != tc.msg {
			t.Errorf("parse(%q): got %q, want %q", tc.src, e.Message, tc.msg)
		}
		if e.Pos.Line != tc.line {
			t.Errorf("parse(%q): error on line %d, want %d", tc.src, e.Pos.Line, tc.line)
		}
	}
}

func TestBlankLineComments(t *testing.T) {
	testdata := []struct{ in, want string }{
		{"a // b\nc", "a     \nc"},
		{`"//x"`, `"//x"`},
		{"url(http://x)", "url(http://x)"},
		{`url("a") // c`, `url("a")     `},
		{"/* // */ a", "/* // */ a"},
	}
	for _, tc := range testdata {
		if got := blankLineComments(tc.in); got != tc.want {
			t.Errorf("blankLineComments(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	toks, err := tokenize(`@media #id "str" fn(`)
	if err != nil {
		t.Fatal(err)
	}
	var vals []string
	for _, tok := range toks {
		if !isSpace(tok) {
			vals = append(vals, tok.Value)
		}
	}
	want := []string{"media", "id", "str", "fn"}
	if len(vals) != len(want) {
		t.Fatalf("got %q, want %q", vals, want)
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, vals[i], want[i])
		}
	}
	if got := toks.String(); got != `@media #id "str" fn(` {
		t.Errorf("String() = %q", got)
	}
}
