package scss

import (
	"fmt"
	"strings"
)

// Function is a callable function value. Builtin and user defined functions
// bind their arguments the same way and report the same errors.
type Function interface {
	Name() string
	Call(ev *Evaluator, args *CallArgs) (Value, error)
}

type builtinFunction struct {
	name   string
	params FuncArgs
	fn     func(ev *Evaluator, s *Scope, pos Pos) (Value, error)
}

func (f *builtinFunction) Name() string { return f.name }

func (f *builtinFunction) Call(ev *Evaluator, args *CallArgs) (Value, error) {
	scope, err := bindArgs(f.params, args, nil, ev)
	if err != nil {
		return nil, err
	}
	v, err := f.fn(ev, scope, args.Pos)
	if err != nil {
		return nil, withPos(err, args.Pos)
	}
	return v, nil
}

func (f *builtinFunction) String() string {
	return fmt.Sprintf("Function{name: %s, kind: builtin, params: %s}", f.name, f.params)
}

// parseSignature parses a parameter list such as "$number, $digits: 0".
func parseSignature(sig string) (FuncArgs, error) {
	toks, err := tokenize(sig)
	if err != nil {
		return nil, err
	}
	return parseFuncArgs(toks)
}

func builtin(name, sig string, fn func(ev *Evaluator, s *Scope, pos Pos) (Value, error)) *builtinFunction {
	params, err := parseSignature(sig)
	if err != nil {
		panic(fmt.Sprintf("signature of %s: %v", name, err))
	}
	return &builtinFunction{name: name, params: params, fn: fn}
}

// NewBuiltin creates a native function. signature lists the parameters in
// source form without parentheses, for example "$a, $b: 2". fn reads its
// arguments from the scope.
func NewBuiltin(name, signature string, fn func(args *Scope) (Value, error)) (Function, error) {
	params, err := parseSignature(signature)
	if err != nil {
		return nil, fmt.Errorf("signature of %s: %w", name, err)
	}
	return &builtinFunction{
		name:   name,
		params: params,
		fn: func(_ *Evaluator, s *Scope, _ Pos) (Value, error) {
			return fn(s)
		},
	}, nil
}

type userFunction struct {
	name    string
	params  FuncArgs
	body    []node
	closure *Scope
	pos     Pos
}

func (f *userFunction) Name() string { return f.name }

func (f *userFunction) Call(ev *Evaluator, args *CallArgs) (Value, error) {
	scope, err := bindArgs(f.params, args, f.closure, ev)
	if err != nil {
		return nil, err
	}
	stmts, err := ev.evalNodes(f.body, scope, &context{function: true})
	if err != nil {
		return nil, err
	}
	if n := len(stmts); n > 0 {
		if r, ok := stmts[n-1].(*Return); ok {
			return r.Value, nil
		}
	}
	return nil, newError(ErrSyntax, f.pos, "Function finished without @return.")
}

func (f *userFunction) String() string {
	return fmt.Sprintf("Function{name: %s, kind: user-defined, params: %s}", f.name, f.params)
}

// mixin is a user defined mixin.
type mixin struct {
	name    string
	params  FuncArgs
	body    []node
	closure *Scope
}

func isPrivate(name string) bool {
	return strings.HasPrefix(name, "-") || strings.HasPrefix(name, "_")
}
