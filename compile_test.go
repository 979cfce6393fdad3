package scss

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// memFiles serves source files from a map, keys use forward slashes.
func memFiles(files map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		if s, ok := files[filepath.ToSlash(path)]; ok {
			return []byte(s), nil
		}
		return nil, fs.ErrNotExist
	}
}

func compileString(t *testing.T, src string) (string, error) {
	t.Helper()
	c := NewCompiler(zaptest.NewLogger(t, zaptest.Level(zapcore.DebugLevel)))
	return c.CompileString(src)
}

func TestCompile(t *testing.T) {
	testdata := []struct {
		name string
		src  string
		exp  string
	}{
		{"nested", `a { b { color: red; } }`, "a b {\n  color: red;\n}\n"},
		{"roundtrip", "a {\n  color: red;\n}\n\nb {\n  color: blue;\n}\n", "a {\n  color: red;\n}\n\nb {\n  color: blue;\n}\n"},
		{"parent value", `a { b { color: &; } }`, "a b {\n  color: a b;\n}\n"},
		{"parent suffix", `.btn { &-primary { x: y; } &:hover { x: z; } }`, ".btn-primary {\n  x: y;\n}\n.btn:hover {\n  x: z;\n}\n"},
		{"selector list", `a, b { c, d { x: y; } }`, "a c, a d, b c, b d {\n  x: y;\n}\n"},
		{"variable", `$w: 10px; a { width: $w * 2; }`, "a {\n  width: 20px;\n}\n"},
		{"default", `$c: red; $c: blue !default; $d: green !default; a { x: $c; y: $d; }`, "a {\n  x: red;\n  y: green;\n}\n"},
		{"global", `$c: red; a { $c: blue !global; x: $c; } b { x: $c; }`, "a {\n  x: blue;\n}\n\nb {\n  x: blue;\n}\n"},
		{"local shadow", `$c: red; a { $c: blue; x: $c; } b { x: $c; }`, "a {\n  x: blue;\n}\n\nb {\n  x: red;\n}\n"},
		{"literal slash", `a { font: 12px/30px sans-serif; }`, "a {\n  font: 12px/30px sans-serif;\n}\n"},
		{"variable division", `$a: 10px; a { width: $a/2; }`, "a {\n  width: 5px;\n}\n"},
		{"parens division", `a { width: (10px/2); }`, "a {\n  width: 5px;\n}\n"},
		{"space list", `a { margin: 1px -2px; }`, "a {\n  margin: 1px -2px;\n}\n"},
		{"conversion", `a { width: 1in + 1px; }`, "a {\n  width: 1.0104166667in;\n}\n"},
		{"null", `a { x: null; y: z; }`, "a {\n  y: z;\n}\n"},
		{"calc", `$w: 10px; a { width: calc(100% - #{$w}); }`, "a {\n  width: calc(100% - 10px);\n}\n"},
		{"plain function", `a { x: rgba(0, 0, 0, 0.5); }`, "a {\n  x: rgba(0, 0, 0, 0.5);\n}\n"},
		{"interpolated property", `$p: margin; a { #{$p}-top: 1px; }`, "a {\n  margin-top: 1px;\n}\n"},
		{"placeholder", `%p { color: red; } a { color: blue; }`, "a {\n  color: blue;\n}\n"},
		{"comment", "/* c */\na { b: c; }", "/* c */\na {\n  b: c;\n}\n"},
		{"line comment", "// x\na { b: c; }", "a {\n  b: c;\n}\n"},
		{"media bubbling", `a { color: red; @media print { color: black; } }`, "a {\n  color: red;\n}\n@media print {\n  a {\n    color: black;\n  }\n}\n"},
		{"keyframes", `@keyframes spin { from { top: 0; } to { top: 10px; } }`, "@keyframes spin {\n  from {\n    top: 0;\n  }\n  to {\n    top: 10px;\n  }\n}\n"},
		{"at-root", `a { color: red; @at-root b { color: blue; } }`, "a {\n  color: red;\n}\nb {\n  color: blue;\n}\n"},
		{"imports hoisted", `a { b: c; } @import "x.css"; @import url(foo.css);`, "@import \"x.css\";\n@import url(foo.css);\na {\n  b: c;\n}\n"},
		{"charset", `a { content: "ü"; }`, "@charset \"UTF-8\";\na {\n  content: \"ü\";\n}\n"},
		{"if", `$x: 2; a { @if $x == 1 { b: one; } @else if $x == 2 { b: two; } @else { b: other; } }`, "a {\n  b: two;\n}\n"},
		{"each map", `$m: (a: 1px, b: 2px); @each $k, $v in $m { .#{$k} { width: $v; } }`, ".a {\n  width: 1px;\n}\n\n.b {\n  width: 2px;\n}\n"},
		{"each list", `a { @each $s in 1px 2px { x: $s; } }`, "a {\n  x: 1px;\n  x: 2px;\n}\n"},
		{"for to", `a { @for $i from 1 to 3 { x: $i; } }`, "a {\n  x: 1;\n  x: 2;\n}\n"},
		{"while", `$i: 3; @while $i > 1 { .w-#{$i} { x: $i; } $i: $i - 1; }`, ".w-3 {\n  x: 3;\n}\n\n.w-2 {\n  x: 2;\n}\n"},
		{"function", `@function double($n) { @return $n * 2; } a { width: double(5px); }`, "a {\n  width: 10px;\n}\n"},
		{"function loop", `@function sum($n) { $s: 0; @for $i from 1 through $n { $s: $s + $i; } @return $s; } a { b: sum(4); }`, "a {\n  b: 10;\n}\n"},
		{"named arguments", `@function f($a, $b) { @return $a - $b; } a { x: f($b: 1, $a: 5); }`, "a {\n  x: 4;\n}\n"},
		{"map spread", `@function f($a, $b) { @return $a - $b; } $args: (b: 1, a: 5); a { x: f($args...); }`, "a {\n  x: 4;\n}\n"},
		{"list spread", `@function f($a, $b) { @return $a - $b; } $l: 5 1; a { x: f($l...); }`, "a {\n  x: 4;\n}\n"},
		{"variadic", `@function count($args...) { @return length($args); } a { x: count(1, 2, 3); }`, "a {\n  x: 3;\n}\n"},
		{"mixin", `@mixin m($c: red) { color: $c; &:hover { color: blue; } } a { @include m; } b { @include m(green); }`,
			"a {\n  color: red;\n}\na:hover {\n  color: blue;\n}\n\nb {\n  color: green;\n}\nb:hover {\n  color: blue;\n}\n"},
		{"content", `@mixin m { @media print { @content; } } a { @include m { color: red; } }`, "@media print {\n  a {\n    color: red;\n  }\n}\n"},
		{"builtins", `a { x: percentage(0.5); y: round(1.5px); z: unit(1px); w: type-of(1px); v: nth(a b c, -1); }`,
			"a {\n  x: 50%;\n  y: 2px;\n  z: \"px\";\n  w: number;\n  v: c;\n}\n"},
		{"map and string builtins", `a { u: map-get((k: v), k); t: str-length("abc"); s: if(true, 1, 2); q: to-upper-case(abc); }`,
			"a {\n  u: v;\n  t: 3;\n  s: 1;\n  q: ABC;\n}\n"},
		{"math module", `@use "sass:math"; a { x: math.div(10px, 4); y: math.$pi; }`, "a {\n  x: 2.5px;\n  y: 3.1415926536;\n}\n"},
		{"star module", `@use "sass:math" as *; a { color: cos(2); }`, "a {\n  color: -0.4161468365;\n}\n"},
		{"percent keyframe", `@keyframes k { 0% { top: 0; } 50% { top: 5px; } }`, "@keyframes k {\n  0% {\n    top: 0;\n  }\n  50% {\n    top: 5px;\n  }\n}\n"},
		{"percent custom property", `a { --x: 10%; }`, "a {\n  --x: 10%;\n}\n"},
		{"percent clamp", `a { width: clamp(10%, 5px, 20%); }`, "a {\n  width: clamp(10%, 5px, 20%);\n}\n"},
		{"percent supports", `@supports (width: 50%) { a { b: c; } }`, "@supports (width: 50%) {\n  a {\n    b: c;\n  }\n}\n"},
		{"named mixin arguments", `@mixin m($a, $b) { x: $a $b; } a { @include m($b: 1, $a: 5); }`, "a {\n  x: 5 1;\n}\n"},
		{"named arguments without space", `@function f($a, $b) { @return $a - $b; } a { x: f($b:1, $a:5); }`, "a {\n  x: 4;\n}\n"},
		{"variadic keywords", `@function g($j, $k) { @return $j - $k; } @function f($a, $args...) { @return g($args...); } a { x: f(1, $k: 2, $j: 3); }`, "a {\n  x: 1;\n}\n"},
	}
	for _, td := range testdata {
		t.Run(td.name, func(t *testing.T) {
			res, err := compileString(t, td.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res != td.exp {
				t.Errorf("got %q, want %q", res, td.exp)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	testdata := []struct {
		name string
		src  string
		kind ErrorKind
		msg  string
	}{
		{"unit mismatch", `a { width: 1px + 1em; }`, ErrUnitMismatch, "Incompatible units em and px."},
		{"undefined variable", `a { b: $nope; }`, ErrUndefined, "Undefined variable."},
		{"top-level declaration", `color: red;`, ErrSyntax, "Declarations may only be used within style rules."},
		{"top-level parent", `& { b: c; }`, ErrSyntax, `Top-level selectors may not contain the parent selector "&".`},
		{"user error", `@error "boom";`, ErrUser, "boom"},
		{"missing return", `@function f() { $a: 1; } a { b: f(); }`, ErrSyntax, "Function finished without @return."},
		{"too many arguments", `@function f($a) { @return $a; } a { b: f(1, 2); }`, ErrArity, "Only 1 argument allowed, but 2 were passed."},
		{"missing argument", `@mixin m($a) { x: $a; } a { @include m; }`, ErrMissingArgument, "Missing argument $a."},
		{"bad spread key", `@function f($a) { @return $a; } $m: (1: 2); a { x: f($m...); }`, ErrInvalidSpread, "1 is not a string in (1: 2)."},
		{"keyword to plain function", `a { x: foo($a: 1); }`, ErrSyntax, "Plain CSS functions don't support keyword arguments."},
		{"use after rule", `a { b: c; } @use "sass:math";`, ErrModule, "@use rules must be written before any other rules."},
		{"duplicate namespace", `@use "sass:math"; @use "sass:math";`, ErrModule, `There's already a module with namespace "math".`},
		{"unknown namespace", `a { x: foo.bar(1); }`, ErrModule, `There is no module with the namespace "foo".`},
		{"missing import", `@import "nope";`, ErrImport, "Can't find stylesheet to import."},
		{"formatting", `a { x: 1px * 1px; }`, ErrFormatting, "1px*px isn't a valid CSS value."},
		{"named spread", `@function f($a) { @return $a; } $l: 1 2; a { x: f($a: $l...); }`, ErrInvalidSpread, `expected ")".`},
	}
	for _, td := range testdata {
		t.Run(td.name, func(t *testing.T) {
			_, err := compileString(t, td.src)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !IsKind(err, td.kind) {
				t.Errorf("got %v, want kind %s", err, td.kind)
			}
			var e *Error
			if errors.As(err, &e) && e.Message != td.msg {
				t.Errorf("got message %q, want %q", e.Message, td.msg)
			}
		})
	}
}

func TestCompileErrorPosition(t *testing.T) {
	_, err := compileString(t, "a {\n  b: $nope;\n}")
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("got %v, want *Error", err)
	}
	if e.Pos.Line != 2 {
		t.Errorf("got line %d, want 2", e.Pos.Line)
	}
}

func TestCompileUserModule(t *testing.T) {
	files := map[string]string{
		"/styles/_lib.scss": `$color: red; $_secret: 1;
@function twice($n) { @return $n * 2; }
@mixin box { border: 1px; }
.lib { color: $color; }`,
		"/styles/main.scss":    `@use "lib"; a { color: lib.$color; width: lib.twice(2px); @include lib.box; }`,
		"/styles/twice.scss":   `@use "lib"; @use "lib" as other; a { x: other.$color; }`,
		"/styles/private.scss": `@use "lib"; a { x: lib.$_secret; }`,
	}
	c := NewCompiler(zaptest.NewLogger(t))
	c.ReadFile = memFiles(files)

	res, err := c.CompileFile("/styles/main.scss")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := ".lib {\n  color: red;\n}\n\na {\n  color: red;\n  width: 4px;\n  border: 1px;\n}\n"; res != exp {
		t.Errorf("got %q, want %q", res, exp)
	}

	res, err = c.CompileFile("/styles/twice.scss")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := strings.Count(res, ".lib"); n != 1 {
		t.Errorf("module css emitted %d times, want once: %q", n, res)
	}

	_, err = c.CompileFile("/styles/private.scss")
	if !IsKind(err, ErrModule) {
		t.Errorf("got %v, want a module error", err)
	}
	var e *Error
	if errors.As(err, &e) && e.File != "/styles/private.scss" {
		t.Errorf("got file %q, want /styles/private.scss", e.File)
	}
}

func TestCompileImport(t *testing.T) {
	files := map[string]string{
		"/s/_vars.scss":      `$c: blue;`,
		"/s/main.scss":       `@import "vars"; a { color: $c; }`,
		"/s/a.scss":          `@import "b";`,
		"/s/b.scss":          `@import "a";`,
		"/s/usetheme.scss":   `@use "theme"; a { x: theme.$t; }`,
		"/lib/theme/_index.scss": `$t: 1px;`,
	}
	c := NewCompiler(zaptest.NewLogger(t))
	c.ReadFile = memFiles(files)
	c.LoadPaths = []string{"/lib"}

	res, err := c.CompileFile("/s/main.scss")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := "a {\n  color: blue;\n}\n"; res != exp {
		t.Errorf("got %q, want %q", res, exp)
	}

	_, err = c.CompileFile("/s/a.scss")
	if !IsKind(err, ErrImport) {
		t.Fatalf("got %v, want an import error", err)
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "This file is already being loaded." {
		t.Errorf("got %q", e.Message)
	}

	res, err = c.CompileFile("/s/usetheme.scss")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := "a {\n  x: 1px;\n}\n"; res != exp {
		t.Errorf("got %q, want %q", res, exp)
	}
	if len(c.dirstack) != 0 {
		t.Errorf("dir stack not empty: %v", c.dirstack)
	}
}

func TestCompileFileFromDisk(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("_base.scss", `body { margin: 0; }`)
	write("site.scss", `@import "base"; a { b: c; }`)

	c := NewCompiler(zaptest.NewLogger(t))
	res, err := c.CompileFile(filepath.Join(dir, "site.scss"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := "body {\n  margin: 0;\n}\n\na {\n  b: c;\n}\n"; res != exp {
		t.Errorf("got %q, want %q", res, exp)
	}
}

func TestCompileFileFinder(t *testing.T) {
	c := NewCompiler(zaptest.NewLogger(t))
	c.ReadFile = memFiles(map[string]string{"/found/x.scss": `a { b: c; }`})
	c.FileFinder = func(name string) (string, error) {
		return "/found/" + filepath.Base(name), nil
	}
	res, err := c.CompileString(`@import "x";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := "a {\n  b: c;\n}\n"; res != exp {
		t.Errorf("got %q, want %q", res, exp)
	}
}

func TestCompileCompressed(t *testing.T) {
	c := NewCompiler(zaptest.NewLogger(t))
	c.Style = Compressed
	res, err := c.CompileString(`a { color: red; } b { color: blue; }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := "a{color:red}b{color:blue}"; res != exp {
		t.Errorf("got %q, want %q", res, exp)
	}

	res, err = c.CompileString(`a { content: "ü"; }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(res, "\uFEFF") {
		t.Errorf("got %q, want a byte order mark", res)
	}
	if strings.Contains(res, "@charset") {
		t.Errorf("got %q, compressed output has no @charset", res)
	}
}

func TestCompileNoCharset(t *testing.T) {
	c := NewCompiler(zaptest.NewLogger(t))
	c.AllowsCharset = false
	res, err := c.CompileString(`a { content: "ü"; }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := "a {\n  content: \"ü\";\n}\n"; res != exp {
		t.Errorf("got %q, want %q", res, exp)
	}
}

func TestCompileCustomFunction(t *testing.T) {
	c := NewCompiler(zaptest.NewLogger(t))
	shout, err := NewBuiltin("shout", "$s", func(s *Scope) (Value, error) {
		v, _ := s.Get("s")
		str, ok := v.(String)
		if !ok {
			return nil, errors.New("not a string")
		}
		return unquoted(strings.ToUpper(str.Text) + "!"), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	c.Functions = []Function{shout}
	res, err := c.CompileString(`a { x: shout(hi); }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp := "a {\n  x: HI!;\n}\n"; res != exp {
		t.Errorf("got %q, want %q", res, exp)
	}
}

func TestCompileMessages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewCompiler(zap.New(core))
	_, err := c.CompileString(`@warn "careful"; @debug "look"; a { @extend .b; x: y; }`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := logs.FilterMessage("careful").FilterLevelExact(zapcore.WarnLevel).Len(); n != 1 {
		t.Errorf("got %d @warn entries, want 1", n)
	}
	if n := logs.FilterMessage("look").FilterLevelExact(zapcore.DebugLevel).Len(); n != 1 {
		t.Errorf("got %d @debug entries, want 1", n)
	}
	if n := logs.FilterMessage("@extend is not supported, rule ignored").Len(); n != 1 {
		t.Errorf("got %d @extend warnings, want 1", n)
	}
	for _, e := range logs.All() {
		if e.LoggerName != "scss" {
			t.Errorf("got logger %q, want scss", e.LoggerName)
		}
	}
}

func TestParseOutputStyle(t *testing.T) {
	for in, exp := range map[string]OutputStyle{"": Expanded, "expanded": Expanded, "Compressed": Compressed} {
		st, err := ParseOutputStyle(in)
		if err != nil || st != exp {
			t.Errorf("ParseOutputStyle(%q) = %v, %v", in, st, err)
		}
	}
	if _, err := ParseOutputStyle("nested"); err == nil {
		t.Error("expected an error for nested")
	}
}
