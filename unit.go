package scss

// UnitID enumerates the units known to the compiler.
type UnitID uint8

// Known units. UnitNone is the unit of plain numbers, UnitUnknown carries an
// interned name and UnitComplex is a product/quotient of other units.
const (
	UnitNone UnitID = iota

	// absolute
	UnitPx
	UnitMm
	UnitIn
	UnitCm
	UnitQ
	UnitPt
	UnitPc

	// font relative
	UnitEm
	UnitRem
	UnitLh
	UnitEx
	UnitCh
	UnitCap
	UnitIc
	UnitRlh

	// viewport relative
	UnitVw
	UnitVh
	UnitVmin
	UnitVmax
	UnitVi
	UnitVb

	// angle
	UnitDeg
	UnitGrad
	UnitRad
	UnitTurn

	// time
	UnitS
	UnitMs

	// frequency
	UnitHz
	UnitKhz

	// resolution
	UnitDpi
	UnitDpcm
	UnitDppx

	// other
	UnitFr
	UnitPercent

	UnitUnknown
	UnitComplex
)

// UnitKind groups units for comparability and conversion.
type UnitKind uint8

// Unit kinds.
const (
	KindNone UnitKind = iota
	KindAbsolute
	KindFontRelative
	KindViewportRelative
	KindAngle
	KindTime
	KindFrequency
	KindResolution
	KindOther
)

// Unit is an immutable unit value. The zero value is the empty unit.
type Unit struct {
	id    UnitID
	sym   Symbol
	numer []Unit
	denom []Unit
}

// NoUnit is the unit of plain numbers.
var NoUnit = Unit{}

// Simple returns the unit for one of the predefined unit ids.
func Simple(id UnitID) Unit {
	if id == UnitUnknown || id == UnitComplex {
		invariant("Simple called with %d", id)
	}
	return Unit{id: id}
}

// ComplexUnit builds the quotient of the product of numer and the product of
// denom. The result is simplified.
func ComplexUnit(numer, denom []Unit) Unit {
	return Unit{
		id:    UnitComplex,
		numer: append([]Unit(nil), numer...),
		denom: append([]Unit(nil), denom...),
	}.simplify()
}

// ID returns the unit id.
func (u Unit) ID() UnitID { return u.id }

// IsNone reports whether u is the empty unit.
func (u Unit) IsNone() bool { return u.id == UnitNone }

// IsComplex reports whether u is a compound unit.
func (u Unit) IsComplex() bool { return u.id == UnitComplex }

// Numer returns the numerator units of a complex unit.
func (u Unit) Numer() []Unit { return u.numer }

// Denom returns the denominator units of a complex unit.
func (u Unit) Denom() []Unit { return u.denom }

// Kind returns the unit kind.
func (u Unit) Kind() UnitKind {
	switch u.id {
	case UnitNone:
		return KindNone
	case UnitPx, UnitMm, UnitIn, UnitCm, UnitQ, UnitPt, UnitPc:
		return KindAbsolute
	case UnitEm, UnitRem, UnitLh, UnitEx, UnitCh, UnitCap, UnitIc, UnitRlh:
		return KindFontRelative
	case UnitVw, UnitVh, UnitVmin, UnitVmax, UnitVi, UnitVb:
		return KindViewportRelative
	case UnitDeg, UnitGrad, UnitRad, UnitTurn:
		return KindAngle
	case UnitS, UnitMs:
		return KindTime
	case UnitHz, UnitKhz:
		return KindFrequency
	case UnitDpi, UnitDpcm, UnitDppx:
		return KindResolution
	}
	return KindOther
}

// Equal compares units structurally. Complex units are equal only if their
// numerator and denominator lists match in order.
func (u Unit) Equal(v Unit) bool {
	if u.id != v.id {
		return false
	}
	switch u.id {
	case UnitUnknown:
		return u.sym == v.sym
	case UnitComplex:
		return unitsEqual(u.numer, v.numer) && unitsEqual(u.denom, v.denom)
	}
	return true
}

func unitsEqual(a, b []Unit) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func indexUnit(list []Unit, u Unit) int {
	for i, x := range list {
		if x.Equal(u) {
			return i
		}
	}
	return -1
}

func removeAt(list []Unit, i int) []Unit {
	return append(list[:i:i], list[i+1:]...)
}

func (u Unit) simplify() Unit {
	if u.id != UnitComplex {
		return u
	}
	switch {
	case len(u.numer) == 0 && len(u.denom) == 0:
		return NoUnit
	case len(u.numer) == 1 && len(u.denom) == 0:
		return u.numer[0]
	}
	return u
}

func copyParts(u Unit) (numer, denom []Unit) {
	return append([]Unit(nil), u.numer...), append([]Unit(nil), u.denom...)
}

// Mul returns the unit of the product of two numbers.
func Mul(a, b Unit) Unit {
	if a.IsNone() {
		return b
	}
	if b.IsNone() {
		return a
	}
	var numer, denom []Unit
	switch {
	case a.IsComplex() && b.IsComplex():
		numer = append(append([]Unit(nil), a.numer...), b.numer...)
		denom = append(append([]Unit(nil), a.denom...), b.denom...)
	case a.IsComplex():
		numer, denom = copyParts(a)
		if i := indexUnit(denom, b); i >= 0 {
			denom = removeAt(denom, i)
		} else {
			numer = append(numer, b)
		}
	case b.IsComplex():
		numer, denom = copyParts(b)
		if i := indexUnit(denom, a); i >= 0 {
			denom = removeAt(denom, i)
		} else {
			numer = append([]Unit{a}, numer...)
		}
	default:
		numer = []Unit{a, b}
	}
	return Unit{id: UnitComplex, numer: numer, denom: denom}.simplify()
}

// Div returns the unit of the quotient of two numbers.
func Div(a, b Unit) Unit {
	if b.IsNone() {
		return a
	}
	var numer, denom []Unit
	switch {
	case a.IsComplex() && b.IsComplex():
		numer = append(append([]Unit(nil), a.numer...), b.denom...)
		denom = append(append([]Unit(nil), a.denom...), b.numer...)
	case a.IsComplex():
		numer, denom = copyParts(a)
		if i := indexUnit(numer, b); i >= 0 {
			numer = removeAt(numer, i)
		} else {
			denom = append(denom, b)
		}
	case b.IsComplex():
		// reciprocal of b, then multiply by a
		denom, numer = copyParts(b)
		if !a.IsNone() {
			if i := indexUnit(denom, a); i >= 0 {
				denom = removeAt(denom, i)
			} else {
				numer = append([]Unit{a}, numer...)
			}
		}
	case a.IsNone():
		denom = []Unit{b}
	case a.Equal(b):
		return NoUnit
	default:
		numer, denom = []Unit{a}, []Unit{b}
	}
	return Unit{id: UnitComplex, numer: numer, denom: denom}.simplify()
}

// Comparable reports whether numbers in units a and b can be compared or
// added.
func Comparable(a, b Unit) bool {
	if a.IsNone() || b.IsNone() {
		return true
	}
	switch a.Kind() {
	case KindFontRelative, KindViewportRelative, KindOther:
		return a.Equal(b)
	}
	return a.Kind() == b.Kind()
}

// base factors relative to the first unit of each kind (px, deg, s, Hz, dpi)
var unitFactors = map[UnitID]float64{
	UnitPx: 1,
	UnitIn: 96,
	UnitCm: 96 / 2.54,
	UnitMm: 96 / 25.4,
	UnitQ:  96 / 101.6,
	UnitPt: 4.0 / 3.0,
	UnitPc: 16,

	UnitDeg:  1,
	UnitGrad: 0.9,
	UnitRad:  180 / 3.141592653589793,
	UnitTurn: 360,

	UnitS:  1,
	UnitMs: 0.001,

	UnitHz:  1,
	UnitKhz: 1000,

	UnitDpi:  1,
	UnitDpcm: 2.54,
	UnitDppx: 96,
}

// convertFactor returns the factor that converts a value in unit from into
// unit to. ok is false when no conversion exists.
func convertFactor(from, to Unit) (factor float64, ok bool) {
	if from.Equal(to) {
		return 1, true
	}
	if from.IsComplex() || to.IsComplex() || from.Kind() != to.Kind() {
		return 0, false
	}
	f, okf := unitFactors[from.id]
	t, okt := unitFactors[to.id]
	if !okf || !okt {
		return 0, false
	}
	return f / t, true
}
