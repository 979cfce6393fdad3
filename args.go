package scss

import "strings"

// FuncArg is one declared parameter of a function or mixin.
type FuncArg struct {
	Name string
	// Default holds the unevaluated default expression.
	Default    tokenstream
	HasDefault bool
	Variadic   bool
}

// FuncArgs is a declared parameter list.
type FuncArgs []FuncArg

func (fa FuncArgs) variadic() bool {
	return len(fa) > 0 && fa[len(fa)-1].Variadic
}

func (fa FuncArgs) String() string {
	parts := make([]string, len(fa))
	for i, a := range fa {
		s := "$" + a.Name
		if a.HasDefault {
			s += ": " + strings.TrimSpace(a.Default.String())
		}
		if a.Variadic {
			s += "..."
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// CallArgs are the actual arguments of a call. Every argument can be taken
// only once.
type CallArgs struct {
	positional []Value
	taken      []bool
	named      map[string]Value
	order      []string
	Pos        Pos
}

// NewCallArgs returns an empty argument list for a call at pos.
func NewCallArgs(pos Pos) *CallArgs {
	return &CallArgs{named: make(map[string]Value), Pos: pos}
}

// Add appends a positional argument.
func (a *CallArgs) Add(v Value) {
	a.positional = append(a.positional, v)
	a.taken = append(a.taken, false)
}

// AddNamed adds a named argument.
func (a *CallArgs) AddNamed(name string, v Value) error {
	name = normalizeName(name)
	if _, dup := a.named[name]; dup {
		return newError(ErrSyntax, a.Pos, "Duplicate argument.")
	}
	a.named[name] = v
	a.order = append(a.order, name)
	return nil
}

// Len returns the number of arguments that have not been taken yet.
func (a *CallArgs) Len() int {
	n := len(a.named)
	for _, t := range a.taken {
		if !t {
			n++
		}
	}
	return n
}

// hasNamed reports whether any named arguments were passed.
func (a *CallArgs) hasNamed() bool { return len(a.named) > 0 }

// take removes and returns the argument at position idx or, failing that,
// the one called name.
func (a *CallArgs) take(idx int, name string) (Value, bool, error) {
	name = normalizeName(name)
	if idx < len(a.positional) && !a.taken[idx] {
		if _, ok := a.named[name]; ok {
			return nil, false, newError(ErrArity, a.Pos, "Argument $%s was passed both by position and by name.", name)
		}
		a.taken[idx] = true
		return a.positional[idx], true, nil
	}
	if v, ok := a.named[name]; ok {
		delete(a.named, name)
		return v, true, nil
	}
	return nil, false, nil
}

// rest removes every remaining argument and returns them as an argument list.
func (a *CallArgs) rest() ArgList {
	var al ArgList
	for i, v := range a.positional {
		if !a.taken[i] {
			a.taken[i] = true
			al.Items = append(al.Items, v)
		}
	}
	for _, name := range a.order {
		if v, ok := a.named[name]; ok {
			al.Keywords = append(al.Keywords, MapEntry{Key: unquoted(name), Value: v})
			delete(a.named, name)
		}
	}
	return al
}

func (a *CallArgs) maxArgs(max int) error {
	n := a.Len()
	if n <= max {
		return nil
	}
	if max == 0 {
		return newError(ErrArity, a.Pos, "No arguments allowed, but %d %s passed.", n, pluralWas(n))
	}
	return newError(ErrArity, a.Pos, "Only %d argument%s allowed, but %d %s passed.", max, plural(max), n, pluralWas(n))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func pluralWas(n int) string {
	if n == 1 {
		return "was"
	}
	return "were"
}

// defaultEvaluator evaluates parameter defaults.
type defaultEvaluator interface {
	evalDefault(toks tokenstream, scope *Scope) (Value, error)
}

// bindArgs binds the actual arguments to the declared parameters and returns
// the call scope. Defaults are evaluated in the call scope as bound so far,
// so they see the closure and all earlier parameters.
func bindArgs(params FuncArgs, args *CallArgs, closure *Scope, ev defaultEvaluator) (*Scope, error) {
	scope := NewScope(closure)
	if len(params) == 0 {
		if err := args.maxArgs(0); err != nil {
			return nil, err
		}
		return scope, nil
	}
	if !params.variadic() {
		if err := args.maxArgs(len(params)); err != nil {
			return nil, err
		}
	}
	for i, p := range params {
		if p.Variadic {
			scope.Set(p.Name, args.rest())
			return scope, nil
		}
		v, ok, err := args.take(i, p.Name)
		if err != nil {
			return nil, err
		}
		if !ok {
			if !p.HasDefault {
				return nil, newError(ErrMissingArgument, args.Pos, "Missing argument $%s.", p.Name)
			}
			if v, err = ev.evalDefault(p.Default, scope); err != nil {
				return nil, err
			}
		}
		scope.Set(p.Name, withoutSlash(v))
	}
	for _, name := range args.order {
		if _, ok := args.named[name]; ok {
			return nil, newError(ErrArity, args.Pos, "No argument named $%s.", name)
		}
	}
	return scope, nil
}
