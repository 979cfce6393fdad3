package scss

import (
	"math"
	"strings"
	"unicode/utf8"
)

var (
	// globalFunctions are callable without a namespace.
	globalFunctions map[string]Function
	// moduleFunctions are the members of the sass: modules.
	moduleFunctions map[string][]*builtinFunction
	// moduleVariables are the variables of the sass: modules.
	moduleVariables = map[string]map[string]Value{
		"math": {
			"pi": Number{Num: math.Pi, Unit: NoUnit},
			"e":  Number{Num: math.E, Unit: NoUnit},
		},
	}
)

func init() {
	globals := []*builtinFunction{
		builtin("percentage", "$number", percentage),
		builtin("round", "$number", roundFn(math.Round)),
		builtin("ceil", "$number", roundFn(math.Ceil)),
		builtin("floor", "$number", roundFn(math.Floor)),
		builtin("abs", "$number", roundFn(math.Abs)),
		builtin("min", "$numbers...", minMax("min", -1)),
		builtin("max", "$numbers...", minMax("max", 1)),
		builtin("comparable", "$number1, $number2", comparableFn),
		builtin("unit", "$number", unitFn),
		builtin("unitless", "$number", unitless),
		builtin("if", "$condition, $if-true, $if-false", ifFn),
		builtin("quote", "$string", quote),
		builtin("unquote", "$string", unquote),
		builtin("str-length", "$string", strLength),
		builtin("to-upper-case", "$string", changeCase(strings.ToUpper)),
		builtin("to-lower-case", "$string", changeCase(strings.ToLower)),
		builtin("length", "$list", length),
		builtin("nth", "$list, $n", nth),
		builtin("join", "$list1, $list2, $separator: auto, $bracketed: auto", join),
		builtin("map-get", "$map, $key", mapGet),
		builtin("map-keys", "$map", mapKeys),
		builtin("map-values", "$map", mapValues),
		builtin("map-has-key", "$map, $key", mapHasKey),
		builtin("map-merge", "$map1, $map2", mapMerge),
		builtin("type-of", "$value", typeOfFn),
		builtin("inspect", "$value", inspectFn),
		builtin("call", "$function, $args...", call),
		builtin("get-function", "$name, $css: false, $module: null", getFunction),
		builtin("function-exists", "$name, $module: null", functionExists),
		builtin("variable-exists", "$name", variableExists),
		builtin("global-variable-exists", "$name, $module: null", globalVariableExists),
	}
	globalFunctions = make(map[string]Function, len(globals))
	for _, f := range globals {
		globalFunctions[f.name] = f
	}
	moduleFunctions = map[string][]*builtinFunction{
		"math": {
			builtin("div", "$number1, $number2", mathDiv),
			builtin("percentage", "$number", percentage),
			builtin("round", "$number", roundFn(math.Round)),
			builtin("ceil", "$number", roundFn(math.Ceil)),
			builtin("floor", "$number", roundFn(math.Floor)),
			builtin("abs", "$number", roundFn(math.Abs)),
			builtin("min", "$numbers...", minMax("min", -1)),
			builtin("max", "$numbers...", minMax("max", 1)),
			builtin("clamp", "$min, $number, $max", clampFn),
			builtin("compatible", "$number1, $number2", comparableFn),
			builtin("is-unitless", "$number", unitless),
			builtin("unit", "$number", unitFn),
			builtin("pow", "$base, $exponent", pow),
			builtin("sqrt", "$number", unitlessMath("number", math.Sqrt)),
			builtin("sin", "$number", trig(math.Sin)),
			builtin("cos", "$number", trig(math.Cos)),
			builtin("tan", "$number", trig(math.Tan)),
		},
		"string": {
			builtin("quote", "$string", quote),
			builtin("unquote", "$string", unquote),
			builtin("length", "$string", strLength),
			builtin("to-upper-case", "$string", changeCase(strings.ToUpper)),
			builtin("to-lower-case", "$string", changeCase(strings.ToLower)),
		},
		"list": {
			builtin("length", "$list", length),
			builtin("nth", "$list, $n", nth),
			builtin("join", "$list1, $list2, $separator: auto, $bracketed: auto", join),
		},
		"map": {
			builtin("get", "$map, $key", mapGet),
			builtin("keys", "$map", mapKeys),
			builtin("values", "$map", mapValues),
			builtin("has-key", "$map, $key", mapHasKey),
			builtin("merge", "$map1, $map2", mapMerge),
		},
		"meta": {
			builtin("type-of", "$value", typeOfFn),
			builtin("inspect", "$value", inspectFn),
			builtin("call", "$function, $args...", call),
			builtin("get-function", "$name, $css: false, $module: null", getFunction),
			builtin("function-exists", "$name, $module: null", functionExists),
			builtin("variable-exists", "$name", variableExists),
			builtin("global-variable-exists", "$name, $module: null", globalVariableExists),
		},
	}
}

func arg(s *Scope, name string) Value {
	v, ok := s.Get(name)
	if !ok {
		return null
	}
	return v
}

func argNumber(ev *Evaluator, s *Scope, name string) (Number, error) {
	v := arg(s, name)
	n, ok := v.(Number)
	if !ok {
		return Number{}, newError(ErrType, Pos{}, "$%s: %s is not a number.", name, inspect(v, ev.table))
	}
	return n, nil
}

func argString(ev *Evaluator, s *Scope, name string) (String, error) {
	v := arg(s, name)
	str, ok := v.(String)
	if !ok {
		return String{}, newError(ErrType, Pos{}, "$%s: %s is not a string.", name, inspect(v, ev.table))
	}
	return str, nil
}

func argMap(ev *Evaluator, s *Scope, name string) (Map, error) {
	switch v := arg(s, name).(type) {
	case Map:
		return v, nil
	case List:
		if len(v.Items) == 0 {
			return Map{}, nil
		}
	}
	return Map{}, newError(ErrType, Pos{}, "$%s: %s is not a map.", name, inspect(arg(s, name), ev.table))
}

func argUnitless(ev *Evaluator, s *Scope, name string) (Number, error) {
	n, err := argNumber(ev, s, name)
	if err != nil {
		return n, err
	}
	if !n.Unit.IsNone() {
		return n, newError(ErrType, Pos{}, "$%s: Expected %s to have no units.", name, inspect(n, ev.table))
	}
	return n, nil
}

func percentage(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	n, err := argUnitless(ev, s, "number")
	if err != nil {
		return nil, err
	}
	return Number{Num: n.Num * 100, Unit: Simple(UnitPercent)}, nil
}

func roundFn(f func(float64) float64) func(*Evaluator, *Scope, Pos) (Value, error) {
	return func(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
		n, err := argNumber(ev, s, "number")
		if err != nil {
			return nil, err
		}
		return Number{Num: f(n.Num), Unit: n.Unit}, nil
	}
}

func unitlessMath(name string, f func(float64) float64) func(*Evaluator, *Scope, Pos) (Value, error) {
	return func(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
		n, err := argUnitless(ev, s, name)
		if err != nil {
			return nil, err
		}
		return Number{Num: f(n.Num), Unit: NoUnit}, nil
	}
}

// trig accepts radians as unitless numbers or any angle unit.
func trig(f func(float64) float64) func(*Evaluator, *Scope, Pos) (Value, error) {
	return func(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
		n, err := argNumber(ev, s, "number")
		if err != nil {
			return nil, err
		}
		rad := n.Num
		if !n.Unit.IsNone() {
			factor, ok := convertFactor(n.Unit, Simple(UnitRad))
			if !ok {
				return nil, newError(ErrType, Pos{}, "$number: Expected %s to be an angle.", inspect(n, ev.table))
			}
			rad *= factor
		}
		return Number{Num: f(rad), Unit: NoUnit}, nil
	}
}

func pow(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	base, err := argUnitless(ev, s, "base")
	if err != nil {
		return nil, err
	}
	exp, err := argUnitless(ev, s, "exponent")
	if err != nil {
		return nil, err
	}
	return Number{Num: math.Pow(base.Num, exp.Num), Unit: NoUnit}, nil
}

func mathDiv(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	a, err := argNumber(ev, s, "number1")
	if err != nil {
		return nil, err
	}
	b, err := argNumber(ev, s, "number2")
	if err != nil {
		return nil, err
	}
	return divNumbers(a, b), nil
}

// minMax returns the smallest (want -1) or largest (want 1) number. Values
// that cannot be compared make the call a plain CSS function.
func minMax(name string, want int) func(*Evaluator, *Scope, Pos) (Value, error) {
	return func(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
		items := listItems(arg(s, "numbers"))
		if len(items) == 0 {
			return nil, newError(ErrMissingArgument, Pos{}, "At least one argument must be passed.")
		}
		var best Number
		for i, item := range items {
			n, ok := item.(Number)
			if !ok {
				return plainCall(ev, name, items)
			}
			if i == 0 {
				best = n
				continue
			}
			c, err := compareNumbers(n, best, ev.table)
			if err != nil {
				return plainCall(ev, name, items)
			}
			if c == want {
				best = n
			}
		}
		return best.withoutSlash(), nil
	}
}

func plainCall(ev *Evaluator, name string, items []Value) (Value, error) {
	s, err := joinCSS(items, SepComma, ev.table)
	if err != nil {
		return nil, err
	}
	return unquoted(name + "(" + s + ")"), nil
}

func clampFn(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	lo, err := argNumber(ev, s, "min")
	if err != nil {
		return nil, err
	}
	n, err := argNumber(ev, s, "number")
	if err != nil {
		return nil, err
	}
	hi, err := argNumber(ev, s, "max")
	if err != nil {
		return nil, err
	}
	if c, err := compareNumbers(n, lo, ev.table); err != nil {
		return nil, err
	} else if c < 0 {
		return lo, nil
	}
	if c, err := compareNumbers(n, hi, ev.table); err != nil {
		return nil, err
	} else if c > 0 {
		return hi, nil
	}
	return n, nil
}

func comparableFn(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	a, err := argNumber(ev, s, "number1")
	if err != nil {
		return nil, err
	}
	b, err := argNumber(ev, s, "number2")
	if err != nil {
		return nil, err
	}
	return Bool(Comparable(a.Unit, b.Unit)), nil
}

func unitFn(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	n, err := argNumber(ev, s, "number")
	if err != nil {
		return nil, err
	}
	return String{Text: ev.table.FormatUnit(n.Unit), Quoted: true}, nil
}

func unitless(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	n, err := argNumber(ev, s, "number")
	if err != nil {
		return nil, err
	}
	return Bool(n.Unit.IsNone()), nil
}

func ifFn(_ *Evaluator, s *Scope, _ Pos) (Value, error) {
	if isTruthy(arg(s, "condition")) {
		return arg(s, "if-true"), nil
	}
	return arg(s, "if-false"), nil
}

func quote(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	str, err := argString(ev, s, "string")
	if err != nil {
		return nil, err
	}
	return String{Text: str.Text, Quoted: true}, nil
}

func unquote(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	str, err := argString(ev, s, "string")
	if err != nil {
		return nil, err
	}
	return unquoted(str.Text), nil
}

func strLength(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	str, err := argString(ev, s, "string")
	if err != nil {
		return nil, err
	}
	return Number{Num: float64(utf8.RuneCountInString(str.Text)), Unit: NoUnit}, nil
}

func changeCase(f func(string) string) func(*Evaluator, *Scope, Pos) (Value, error) {
	return func(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
		str, err := argString(ev, s, "string")
		if err != nil {
			return nil, err
		}
		return String{Text: f(str.Text), Quoted: str.Quoted}, nil
	}
}

func length(_ *Evaluator, s *Scope, _ Pos) (Value, error) {
	return Number{Num: float64(len(listItems(arg(s, "list")))), Unit: NoUnit}, nil
}

func nth(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	items := listItems(arg(s, "list"))
	n, err := argNumber(ev, s, "n")
	if err != nil {
		return nil, err
	}
	idx := int(n.Num)
	if float64(idx) != n.Num || idx == 0 || idx > len(items) || -idx > len(items) {
		return nil, newError(ErrType, Pos{}, "$n: Invalid index %s for a list with %d element%s.",
			inspect(n, ev.table), len(items), plural(len(items)))
	}
	if idx < 0 {
		idx = len(items) + idx + 1
	}
	return items[idx-1], nil
}

func join(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	l1, l2 := arg(s, "list1"), arg(s, "list2")
	sep := SepUndecided
	switch v := arg(s, "separator").(type) {
	case String:
		switch v.Text {
		case "auto":
		case "comma":
			sep = SepComma
		case "space":
			sep = SepSpace
		default:
			return nil, newError(ErrType, Pos{}, `$separator: Must be "space", "comma", or "auto".`)
		}
	default:
		return nil, newError(ErrType, Pos{}, "$separator: %s is not a string.", inspect(v, ev.table))
	}
	if sep == SepUndecided {
		sep = listSeparator(l1)
		if len(listItems(l1)) < 2 {
			if l, ok := l1.(List); !ok || l.Sep == SepUndecided {
				sep = listSeparator(l2)
			}
		}
		if sep == SepUndecided {
			sep = SepSpace
		}
	}
	bracketed := false
	if l, ok := l1.(List); ok {
		bracketed = l.Bracketed
	}
	switch v := arg(s, "bracketed").(type) {
	case String:
		if v.Text != "auto" {
			bracketed = true
		}
	default:
		bracketed = isTruthy(v)
	}
	items := append(append([]Value(nil), listItems(l1)...), listItems(l2)...)
	return List{Items: items, Sep: sep, Bracketed: bracketed}, nil
}

func mapGet(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	m, err := argMap(ev, s, "map")
	if err != nil {
		return nil, err
	}
	if v, ok := m.Get(arg(s, "key")); ok {
		return v, nil
	}
	return null, nil
}

func mapKeys(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	m, err := argMap(ev, s, "map")
	if err != nil {
		return nil, err
	}
	keys := make([]Value, len(m.Entries))
	for i, e := range m.Entries {
		keys[i] = e.Key
	}
	return List{Items: keys, Sep: SepComma}, nil
}

func mapValues(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	m, err := argMap(ev, s, "map")
	if err != nil {
		return nil, err
	}
	vals := make([]Value, len(m.Entries))
	for i, e := range m.Entries {
		vals[i] = e.Value
	}
	return List{Items: vals, Sep: SepComma}, nil
}

func mapHasKey(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	m, err := argMap(ev, s, "map")
	if err != nil {
		return nil, err
	}
	_, ok := m.Get(arg(s, "key"))
	return Bool(ok), nil
}

func mapMerge(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	m1, err := argMap(ev, s, "map1")
	if err != nil {
		return nil, err
	}
	m2, err := argMap(ev, s, "map2")
	if err != nil {
		return nil, err
	}
	for _, e := range m2.Entries {
		m1 = m1.Set(e.Key, e.Value)
	}
	return m1, nil
}

func typeOfFn(_ *Evaluator, s *Scope, _ Pos) (Value, error) {
	return unquoted(typeOf(arg(s, "value"))), nil
}

func inspectFn(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	return unquoted(inspect(arg(s, "value"), ev.table)), nil
}

func call(ev *Evaluator, s *Scope, pos Pos) (Value, error) {
	var fn Function
	switch v := arg(s, "function").(type) {
	case FunctionRef:
		fn = v.Fn
	case String:
		f, err := ev.lookupFunction("", v.Text, pos)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, newError(ErrUndefined, pos, "Function not found: %s", v.Text)
		}
		fn = f
	default:
		return nil, newError(ErrType, pos, "$function: %s is not a function reference.", inspect(v, ev.table))
	}
	al, _ := arg(s, "args").(ArgList)
	args := NewCallArgs(pos)
	for _, item := range al.Items {
		args.Add(item)
	}
	for _, kw := range al.Keywords {
		k, _ := kw.Key.(String)
		if err := args.AddNamed(k.Text, kw.Value); err != nil {
			return nil, err
		}
	}
	return fn.Call(ev, args)
}

func moduleArg(ev *Evaluator, s *Scope) (string, error) {
	switch v := arg(s, "module").(type) {
	case Null:
		return "", nil
	case String:
		return v.Text, nil
	default:
		return "", newError(ErrType, Pos{}, "$module: %s is not a string.", inspect(v, ev.table))
	}
}

func getFunction(ev *Evaluator, s *Scope, pos Pos) (Value, error) {
	name, err := argString(ev, s, "name")
	if err != nil {
		return nil, err
	}
	ns, err := moduleArg(ev, s)
	if err != nil {
		return nil, err
	}
	fn, err := ev.lookupFunction(ns, name.Text, pos)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, newError(ErrUndefined, pos, "Function not found: %s", name.Text)
	}
	return FunctionRef{Fn: fn}, nil
}

func functionExists(ev *Evaluator, s *Scope, pos Pos) (Value, error) {
	name, err := argString(ev, s, "name")
	if err != nil {
		return nil, err
	}
	ns, err := moduleArg(ev, s)
	if err != nil {
		return nil, err
	}
	fn, err := ev.lookupFunction(ns, name.Text, pos)
	if err != nil {
		if IsKind(err, ErrUndefined) {
			return Bool(false), nil
		}
		return nil, err
	}
	return Bool(fn != nil), nil
}

func variableExists(ev *Evaluator, s *Scope, _ Pos) (Value, error) {
	name, err := argString(ev, s, "name")
	if err != nil {
		return nil, err
	}
	scope := ev.callerScope
	if scope == nil {
		scope = ev.global
	}
	if _, ok := scope.Get(name.Text); ok {
		return Bool(true), nil
	}
	_, ok := ev.starVariable(name.Text)
	return Bool(ok), nil
}

func globalVariableExists(ev *Evaluator, s *Scope, pos Pos) (Value, error) {
	name, err := argString(ev, s, "name")
	if err != nil {
		return nil, err
	}
	ns, err := moduleArg(ev, s)
	if err != nil {
		return nil, err
	}
	if ns != "" {
		m, err := ev.module(ns, pos)
		if err != nil {
			return nil, err
		}
		if isPrivate(name.Text) {
			return Bool(false), nil
		}
		_, ok := m.vars.Get(name.Text)
		return Bool(ok), nil
	}
	if _, ok := ev.global.Get(name.Text); ok {
		return Bool(true), nil
	}
	_, ok := ev.starVariable(name.Text)
	return Bool(ok), nil
}
