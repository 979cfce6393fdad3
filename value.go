package scss

import (
	"math"
	"strconv"
	"strings"
)

// Value is the result of evaluating an expression.
type Value interface {
	value()
}

// Null is the null value.
type Null struct{}

// Bool is a boolean value.
type Bool bool

// Number is a number with a unit.
type Number struct {
	Num  float64
	Unit Unit
	// slash keeps the source text of a literal division such as 12px/30px
	slash string
}

// String is a quoted or unquoted string.
type String struct {
	Text   string
	Quoted bool
}

// Separator is the separator of a list.
type Separator uint8

// List separators.
const (
	SepUndecided Separator = iota
	SepSpace
	SepComma
)

// List is a list of values.
type List struct {
	Items     []Value
	Sep       Separator
	Bracketed bool
}

// MapEntry is one key/value pair of a map.
type MapEntry struct {
	Key   Value
	Value Value
}

// Map is an ordered map.
type Map struct {
	Entries []MapEntry
}

// ArgList holds the arguments collected by a variadic parameter.
type ArgList struct {
	Items    []Value
	Keywords []MapEntry
}

// FunctionRef is a first class function.
type FunctionRef struct {
	Fn Function
}

func (Null) value()        {}
func (Bool) value()        {}
func (Number) value()      {}
func (String) value()      {}
func (List) value()        {}
func (Map) value()         {}
func (ArgList) value()     {}
func (FunctionRef) value() {}

var null Value = Null{}

func unquoted(s string) String { return String{Text: s} }

// Get returns the value stored under key.
func (m Map) Get(key Value) (Value, bool) {
	for _, e := range m.Entries {
		if Equal(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// Set returns a copy of m with key set to v.
func (m Map) Set(key, v Value) Map {
	entries := append([]MapEntry(nil), m.Entries...)
	for i, e := range entries {
		if Equal(e.Key, key) {
			entries[i].Value = v
			return Map{Entries: entries}
		}
	}
	return Map{Entries: append(entries, MapEntry{Key: key, Value: v})}
}

func isTruthy(v Value) bool {
	switch t := v.(type) {
	case Null:
		return false
	case Bool:
		return bool(t)
	}
	return true
}

func isNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}

// listItems returns the elements of v when treated as a list.
func listItems(v Value) []Value {
	switch t := v.(type) {
	case List:
		return t.Items
	case ArgList:
		return t.Items
	case Map:
		items := make([]Value, len(t.Entries))
		for i, e := range t.Entries {
			items[i] = List{Items: []Value{e.Key, e.Value}, Sep: SepSpace}
		}
		return items
	}
	return []Value{v}
}

func listSeparator(v Value) Separator {
	switch t := v.(type) {
	case List:
		return t.Sep
	case ArgList, Map:
		return SepComma
	}
	return SepSpace
}

func typeOf(v Value) string {
	switch v.(type) {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case List:
		return "list"
	case Map:
		return "map"
	case ArgList:
		return "arglist"
	case FunctionRef:
		return "function"
	}
	return "unknown"
}

const epsilon = 1e-10

func fuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon || a == b
}

// Equal implements Sass equality. Strings compare by text only, numbers
// compare after unit conversion.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		if !ok {
			return false
		}
		if x.Unit.IsNone() != y.Unit.IsNone() {
			return false
		}
		f, ok := convertFactor(y.Unit, x.Unit)
		if !ok {
			return false
		}
		return fuzzyEqual(x.Num, y.Num*f)
	case String:
		y, ok := b.(String)
		return ok && x.Text == y.Text
	case List:
		y, ok := b.(List)
		if !ok {
			if len(x.Items) == 0 {
				if m, ok := b.(Map); ok {
					return len(m.Entries) == 0
				}
			}
			return false
		}
		return x.Bracketed == y.Bracketed && (x.Sep == y.Sep || len(x.Items) < 2) && valuesEqual(x.Items, y.Items)
	case ArgList:
		y, ok := b.(ArgList)
		return ok && valuesEqual(x.Items, y.Items)
	case Map:
		y, ok := b.(Map)
		if !ok {
			if l, ok := b.(List); ok {
				return len(x.Entries) == 0 && len(l.Items) == 0
			}
			return false
		}
		if len(x.Entries) != len(y.Entries) {
			return false
		}
		for _, e := range x.Entries {
			v, ok := y.Get(e.Key)
			if !ok || !Equal(e.Value, v) {
				return false
			}
		}
		return true
	case FunctionRef:
		y, ok := b.(FunctionRef)
		return ok && x.Fn == y.Fn
	}
	return false
}

func valuesEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// formatNumber prints f with at most ten fractional digits.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'f', 10, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

func quoteString(s string) string {
	q := byte('"')
	if strings.Contains(s, `"`) && !strings.Contains(s, "'") {
		q = '\''
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == rune(q) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\a `)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

func numberCSS(n Number, t *Table) (string, error) {
	if n.slash != "" {
		return n.slash, nil
	}
	if n.Unit.IsComplex() {
		return "", newError(ErrFormatting, Pos{}, "%s isn't a valid CSS value.", inspect(n, t))
	}
	return formatNumber(n.Num) + t.FormatUnit(n.Unit), nil
}

// toCSS converts v to its CSS text.
func toCSS(v Value, t *Table) (string, error) {
	switch x := v.(type) {
	case Null:
		return "", nil
	case Bool:
		if x {
			return "true", nil
		}
		return "false", nil
	case Number:
		return numberCSS(x, t)
	case String:
		if x.Quoted {
			return quoteString(x.Text), nil
		}
		return x.Text, nil
	case List:
		if len(x.Items) == 0 && !x.Bracketed {
			return "", newError(ErrFormatting, Pos{}, "() isn't a valid CSS value.")
		}
		s, err := joinCSS(x.Items, x.Sep, t)
		if err != nil {
			return "", err
		}
		if x.Bracketed {
			return "[" + s + "]", nil
		}
		return s, nil
	case ArgList:
		return joinCSS(x.Items, SepComma, t)
	case Map:
		return "", newError(ErrFormatting, Pos{}, "%s isn't a valid CSS value.", inspect(x, t))
	case FunctionRef:
		return "", newError(ErrFormatting, Pos{}, "%s isn't a valid CSS value.", inspect(x, t))
	}
	invariant("toCSS: unexpected value %T", v)
	return "", nil
}

func joinCSS(items []Value, sep Separator, t *Table) (string, error) {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if isNull(item) {
			continue
		}
		s, err := toCSS(item, t)
		if err != nil {
			return "", err
		}
		if s == "" {
			if l, ok := item.(List); ok && !l.Bracketed {
				continue
			}
		}
		parts = append(parts, s)
	}
	if sep == SepComma {
		return strings.Join(parts, ", "), nil
	}
	return strings.Join(parts, " "), nil
}

// unquotedText is the text of v as used in interpolation.
func unquotedText(v Value, t *Table) (string, error) {
	if s, ok := v.(String); ok {
		return s.Text, nil
	}
	return toCSS(v, t)
}

// inspect returns a representation of v that is valid in source text. It is
// used in error messages and by the inspect() function.
func inspect(v Value, t *Table) string {
	switch x := v.(type) {
	case Null:
		return "null"
	case Number:
		if x.slash != "" {
			return x.slash
		}
		return formatNumber(x.Num) + t.FormatUnit(x.Unit)
	case String:
		if x.Quoted {
			return quoteString(x.Text)
		}
		return x.Text
	case List:
		if len(x.Items) == 0 {
			if x.Bracketed {
				return "[]"
			}
			return "()"
		}
		sep := " "
		if x.Sep == SepComma {
			sep = ", "
		}
		parts := make([]string, len(x.Items))
		for i, item := range x.Items {
			s := inspect(item, t)
			if l, ok := item.(List); ok && len(l.Items) > 1 && !l.Bracketed && (l.Sep == SepComma || x.Sep == SepSpace) {
				s = "(" + s + ")"
			}
			parts[i] = s
		}
		s := strings.Join(parts, sep)
		if x.Bracketed {
			return "[" + s + "]"
		}
		if len(x.Items) == 1 && x.Sep == SepComma {
			return "(" + s + ",)"
		}
		return s
	case ArgList:
		return inspect(List{Items: x.Items, Sep: SepComma}, t)
	case Map:
		parts := make([]string, len(x.Entries))
		for i, e := range x.Entries {
			parts[i] = inspect(e.Key, t) + ": " + inspect(e.Value, t)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case FunctionRef:
		return `get-function("` + x.Fn.Name() + `")`
	}
	s, _ := toCSS(v, t)
	return s
}
