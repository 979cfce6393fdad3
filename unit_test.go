package scss

import "testing"

func testUnits(t *Table) []Unit {
	px, s, em := Simple(UnitPx), Simple(UnitS), Simple(UnitEm)
	return []Unit{
		NoUnit,
		px,
		s,
		em,
		Simple(UnitPercent),
		Simple(UnitDeg),
		t.ParseUnit("foo"),
		ComplexUnit([]Unit{px}, []Unit{s}),
		ComplexUnit([]Unit{px, em}, nil),
		ComplexUnit(nil, []Unit{s}),
		ComplexUnit([]Unit{px}, []Unit{s, s}),
	}
}

func TestUnitSimplify(t *testing.T) {
	tbl := NewTable()
	for _, u := range testUnits(tbl) {
		if got := u.simplify().simplify(); !got.Equal(u.simplify()) {
			t.Errorf("simplify(simplify(%s)) = %s", tbl.FormatUnit(u), tbl.FormatUnit(got))
		}
	}
	if u := ComplexUnit([]Unit{Simple(UnitPx)}, nil); u.IsComplex() || u.ID() != UnitPx {
		t.Errorf("single numerator not collapsed: %s", tbl.FormatUnit(u))
	}
	if u := ComplexUnit(nil, nil); !u.IsNone() {
		t.Errorf("empty complex unit not collapsed: %s", tbl.FormatUnit(u))
	}
}

func TestUnitIdentity(t *testing.T) {
	tbl := NewTable()
	for _, u := range testUnits(tbl) {
		if got := Mul(u, NoUnit); !got.Equal(u) {
			t.Errorf("Mul(%s, none) = %s", tbl.FormatUnit(u), tbl.FormatUnit(got))
		}
		if got := Mul(NoUnit, u); !got.Equal(u) {
			t.Errorf("Mul(none, %s) = %s", tbl.FormatUnit(u), tbl.FormatUnit(got))
		}
		if got := Div(u, NoUnit); !got.Equal(u) {
			t.Errorf("Div(%s, none) = %s", tbl.FormatUnit(u), tbl.FormatUnit(got))
		}
	}
}

func TestUnitReciprocal(t *testing.T) {
	tbl := NewTable()
	for _, u := range testUnits(tbl) {
		if u.IsNone() || u.IsComplex() {
			continue
		}
		if got := Mul(Div(NoUnit, u), u); !got.IsNone() {
			t.Errorf("Mul(Div(none, %s), %s) = %s", tbl.FormatUnit(u), tbl.FormatUnit(u), tbl.FormatUnit(got))
		}
	}
}

func TestUnitArithmetic(t *testing.T) {
	tbl := NewTable()
	px, s, em := Simple(UnitPx), Simple(UnitS), Simple(UnitEm)
	pxPerS := Div(px, s)
	testdata := []struct {
		name string
		got  Unit
		want string
	}{
		{"px*px", Mul(px, px), "px*px"},
		{"px/s", pxPerS, "px/s"},
		{"px/s*s", Mul(pxPerS, s), "px"},
		{"s*px/s", Mul(s, pxPerS), "px"},
		{"px/s/px", Div(pxPerS, px), "s^-1"},
		{"px/(px/s)", Div(px, pxPerS), "s"},
		{"em/(px/s)", Div(em, pxPerS), "em*s/px"},
		{"px/s*em/s", Mul(pxPerS, Div(em, s)), "px*em/s*s"},
		{"(px/s)/(px/s)", Div(pxPerS, pxPerS), "px*s/s*px"},
		{"px/px", Div(px, px), ""},
		{"1/s/s", Div(Div(NoUnit, s), s), "(s*s)^-1"},
	}
	for _, tc := range testdata {
		if got := tbl.FormatUnit(tc.got); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestUnitComparable(t *testing.T) {
	tbl := NewTable()
	units := testUnits(tbl)
	for _, a := range units {
		if !Comparable(a, a) {
			t.Errorf("%s is not comparable with itself", tbl.FormatUnit(a))
		}
		for _, b := range units {
			if Comparable(a, b) != Comparable(b, a) {
				t.Errorf("Comparable(%s, %s) is not symmetric", tbl.FormatUnit(a), tbl.FormatUnit(b))
			}
		}
	}
	testdata := []struct {
		a, b string
		want bool
	}{
		{"px", "in", true},
		{"PX", "cm", true},
		{"px", "em", false},
		{"em", "rem", false},
		{"vw", "vh", false},
		{"deg", "turn", true},
		{"s", "ms", true},
		{"Hz", "khz", true},
		{"dpi", "dppx", true},
		{"%", "px", false},
		{"foo", "foo", true},
		{"foo", "bar", false},
		{"", "px", true},
		{"em", "", true},
	}
	for _, tc := range testdata {
		if got := Comparable(tbl.ParseUnit(tc.a), tbl.ParseUnit(tc.b)); got != tc.want {
			t.Errorf("Comparable(%q, %q) = %t, want %t", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestParseUnit(t *testing.T) {
	tbl := NewTable()
	testdata := []struct {
		name string
		id   UnitID
		out  string
	}{
		{"px", UnitPx, "px"},
		{"PX", UnitPx, "px"},
		{"khz", UnitKhz, "kHz"},
		{"%", UnitPercent, "%"},
		{"Foo", UnitUnknown, "Foo"},
		{"", UnitNone, ""},
	}
	for _, tc := range testdata {
		u := tbl.ParseUnit(tc.name)
		if u.ID() != tc.id {
			t.Errorf("ParseUnit(%q).ID() = %d, want %d", tc.name, u.ID(), tc.id)
		}
		if got := tbl.FormatUnit(u); got != tc.out {
			t.Errorf("FormatUnit(ParseUnit(%q)) = %q, want %q", tc.name, got, tc.out)
		}
	}
	if a, b := tbl.ParseUnit("foo"), tbl.ParseUnit("foo"); !a.Equal(b) {
		t.Error("unknown units with the same name differ")
	}
}

func TestConvertFactor(t *testing.T) {
	testdata := []struct {
		from, to UnitID
		want     float64
		ok       bool
	}{
		{UnitIn, UnitPx, 96, true},
		{UnitPx, UnitPx, 1, true},
		{UnitTurn, UnitDeg, 360, true},
		{UnitMs, UnitS, 0.001, true},
		{UnitPx, UnitEm, 0, false},
		{UnitEm, UnitRem, 0, false},
	}
	for _, tc := range testdata {
		got, ok := convertFactor(Simple(tc.from), Simple(tc.to))
		if ok != tc.ok || !fuzzyEqual(got, tc.want) {
			t.Errorf("convertFactor(%d, %d) = %v, %t, want %v, %t", tc.from, tc.to, got, ok, tc.want, tc.ok)
		}
	}
}
