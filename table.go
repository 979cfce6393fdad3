package scss

import "strings"

// Symbol is a handle to a string interned in a Table.
type Symbol uint32

var unitNames = []struct {
	id   UnitID
	name string
}{
	{UnitPx, "px"}, {UnitMm, "mm"}, {UnitIn, "in"}, {UnitCm, "cm"}, {UnitQ, "q"},
	{UnitPt, "pt"}, {UnitPc, "pc"},
	{UnitEm, "em"}, {UnitRem, "rem"}, {UnitLh, "lh"}, {UnitEx, "ex"}, {UnitCh, "ch"},
	{UnitCap, "cap"}, {UnitIc, "ic"}, {UnitRlh, "rlh"},
	{UnitVw, "vw"}, {UnitVh, "vh"}, {UnitVmin, "vmin"}, {UnitVmax, "vmax"},
	{UnitVi, "vi"}, {UnitVb, "vb"},
	{UnitDeg, "deg"}, {UnitGrad, "grad"}, {UnitRad, "rad"}, {UnitTurn, "turn"},
	{UnitS, "s"}, {UnitMs, "ms"},
	{UnitHz, "Hz"}, {UnitKhz, "kHz"},
	{UnitDpi, "dpi"}, {UnitDpcm, "dpcm"}, {UnitDppx, "dppx"},
	{UnitFr, "fr"}, {UnitPercent, "%"},
}

// Table is the per-compilation unit vocabulary and string intern table. It is
// not safe for concurrent use.
type Table struct {
	units   map[string]UnitID
	display map[UnitID]string
	strs    []string
	index   map[string]Symbol
}

// NewTable returns a table holding the predefined units.
func NewTable() *Table {
	t := &Table{
		units:   make(map[string]UnitID, len(unitNames)),
		display: make(map[UnitID]string, len(unitNames)),
		index:   make(map[string]Symbol),
	}
	for _, u := range unitNames {
		t.units[strings.ToLower(u.name)] = u.id
		t.display[u.id] = u.name
	}
	return t
}

// Intern returns the symbol for s, adding s to the table when necessary.
func (t *Table) Intern(s string) Symbol {
	if sym, ok := t.index[s]; ok {
		return sym
	}
	sym := Symbol(len(t.strs))
	t.strs = append(t.strs, s)
	t.index[s] = sym
	return sym
}

// Lookup returns the string for sym.
func (t *Table) Lookup(sym Symbol) string {
	if int(sym) >= len(t.strs) {
		return ""
	}
	return t.strs[sym]
}

// ParseUnit maps a unit name to a unit. Known names are matched case
// insensitively, everything else becomes an unknown unit that keeps its
// spelling.
func (t *Table) ParseUnit(name string) Unit {
	if name == "" {
		return NoUnit
	}
	if id, ok := t.units[strings.ToLower(name)]; ok {
		return Unit{id: id}
	}
	return Unit{id: UnitUnknown, sym: t.Intern(name)}
}

// FormatUnit returns the textual form of u as it appears after a number.
func (t *Table) FormatUnit(u Unit) string {
	switch u.id {
	case UnitNone:
		return ""
	case UnitUnknown:
		return t.Lookup(u.sym)
	case UnitComplex:
		return t.formatComplex(u)
	}
	return t.display[u.id]
}

func (t *Table) joinUnits(list []Unit) string {
	parts := make([]string, len(list))
	for i, u := range list {
		parts[i] = t.FormatUnit(u)
	}
	return strings.Join(parts, "*")
}

func (t *Table) formatComplex(u Unit) string {
	switch {
	case len(u.numer) == 0 && len(u.denom) == 1:
		return t.FormatUnit(u.denom[0]) + "^-1"
	case len(u.numer) == 0:
		return "(" + t.joinUnits(u.denom) + ")^-1"
	case len(u.denom) == 0:
		return t.joinUnits(u.numer)
	}
	return t.joinUnits(u.numer) + "/" + t.joinUnits(u.denom)
}
