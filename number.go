package scss

import "math"

func incompatible(a, b Unit, t *Table) error {
	return newError(ErrUnitMismatch, Pos{}, "Incompatible units %s and %s.", t.FormatUnit(b), t.FormatUnit(a))
}

// coerce returns b's value expressed in a's unit, and the unit of the result
// of an additive operation.
func coerce(a, b Number, t *Table) (float64, Unit, error) {
	switch {
	case a.Unit.IsNone():
		return b.Num, b.Unit, nil
	case b.Unit.IsNone():
		return b.Num, a.Unit, nil
	case a.Unit.Equal(b.Unit):
		return b.Num, a.Unit, nil
	}
	if !Comparable(a.Unit, b.Unit) {
		return 0, NoUnit, incompatible(a.Unit, b.Unit, t)
	}
	f, ok := convertFactor(b.Unit, a.Unit)
	if !ok {
		return 0, NoUnit, incompatible(a.Unit, b.Unit, t)
	}
	return b.Num * f, a.Unit, nil
}

func addNumbers(a, b Number, t *Table) (Number, error) {
	v, u, err := coerce(a, b, t)
	if err != nil {
		return Number{}, err
	}
	return Number{Num: a.Num + v, Unit: u}, nil
}

func subNumbers(a, b Number, t *Table) (Number, error) {
	v, u, err := coerce(a, b, t)
	if err != nil {
		return Number{}, err
	}
	return Number{Num: a.Num - v, Unit: u}, nil
}

func mulNumbers(a, b Number) Number {
	return Number{Num: a.Num * b.Num, Unit: Mul(a.Unit, b.Unit)}
}

func divNumbers(a, b Number) Number {
	bn, bu := b.Num, b.Unit
	if !a.Unit.IsComplex() && !b.Unit.IsComplex() && !a.Unit.IsNone() {
		if f, ok := convertFactor(b.Unit, a.Unit); ok {
			bn, bu = b.Num*f, a.Unit
		}
	}
	return Number{Num: a.Num / bn, Unit: Div(a.Unit, bu)}
}

func modNumbers(a, b Number, t *Table) (Number, error) {
	v, u, err := coerce(a, b, t)
	if err != nil {
		return Number{}, err
	}
	r := math.Mod(a.Num, v)
	if r != 0 && (r < 0) != (v < 0) {
		r += v
	}
	return Number{Num: r, Unit: u}, nil
}

// compareNumbers returns -1, 0 or 1.
func compareNumbers(a, b Number, t *Table) (int, error) {
	v, _, err := coerce(a, b, t)
	if err != nil {
		return 0, err
	}
	switch {
	case fuzzyEqual(a.Num, v):
		return 0, nil
	case a.Num < v:
		return -1, nil
	}
	return 1, nil
}

func (n Number) withoutSlash() Number {
	n.slash = ""
	return n
}

func withoutSlash(v Value) Value {
	if n, ok := v.(Number); ok && n.slash != "" {
		return n.withoutSlash()
	}
	return v
}
