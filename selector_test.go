package scss

import (
	"reflect"
	"testing"
)

func TestParseSelector(t *testing.T) {
	testdata := []struct {
		in   string
		want []string
	}{
		{"a", []string{"a"}},
		{"a,b", []string{"a", "b"}},
		{"  a\n  b , c>d", []string{"a b", "c > d"}},
		{"a+b~c", []string{"a + b ~ c"}},
		{`a[title="x, y"]`, []string{`a[title="x, y"]`}},
		{":is(a, b) > c", []string{":is(a, b) > c"}},
		{"> a", []string{"> a"}},
		{",", nil},
	}
	for _, tc := range testdata {
		if got := ParseSelector(tc.in).Complex(); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseSelector(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSelectorResolve(t *testing.T) {
	testdata := []struct {
		parent, child, want string
	}{
		{"a", "b", "a b"},
		{"a, b", "c, d", "a c, a d, b c, b d"},
		{"a", "&:hover", "a:hover"},
		{"a b", "& + &", "a b + a b"},
		{"a", "&-suffix", "a-suffix"},
		{"a", `[x="&"]`, `a [x="&"]`},
		{"", "b", "b"},
		{"a", "> b", "a > b"},
	}
	for _, tc := range testdata {
		got := ParseSelector(tc.child).Resolve(ParseSelector(tc.parent)).String()
		if got != tc.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tc.parent, tc.child, got, tc.want)
		}
	}
}

func TestSelectorPlaceholders(t *testing.T) {
	testdata := []struct{ in, want string }{
		{"%p", ""},
		{"a, %p b, c", "a, c"},
		{"a:nth-child(50%)", "a:nth-child(50%)"},
		{`a[x="%"]`, `a[x="%"]`},
	}
	for _, tc := range testdata {
		if got := ParseSelector(tc.in).RemovePlaceholders().String(); got != tc.want {
			t.Errorf("RemovePlaceholders(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSelectorValidate(t *testing.T) {
	if err := ParseSelector("a > b:first-child, .c").Validate(); err != nil {
		t.Errorf("valid selector rejected: %v", err)
	}
	if err := ParseSelector("a[href").Validate(); err == nil {
		t.Error("invalid selector accepted")
	}
}

func TestParseKeyframesSelectors(t *testing.T) {
	got := parseKeyframesSelectors("FROM, 50% ,to")
	want := []KeyframesSelector{"from", "50%", "to"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}
