package scss

import (
	"path"
	"strings"

	"github.com/speedata/css/scanner"
	"go.uber.org/zap"
)

// module is a loaded stylesheet or a builtin module.
type module struct {
	url       string
	vars      *Scope
	functions map[string]Function
	mixins    map[string]*mixin
}

func (m *module) function(name string) (Function, bool) {
	f, ok := m.functions[normalizeName(name)]
	return f, ok
}

// newBuiltinModule creates the module for sass:name.
func newBuiltinModule(name string) (*module, bool) {
	fns, ok := moduleFunctions[name]
	if !ok {
		return nil, false
	}
	m := &module{
		url:       "sass:" + name,
		vars:      NewScope(nil),
		functions: make(map[string]Function, len(fns)),
		mixins:    map[string]*mixin{},
	}
	for _, f := range fns {
		m.functions[normalizeName(f.name)] = f
	}
	for k, v := range moduleVariables[name] {
		m.vars.Set(k, v)
	}
	return m, true
}

// defaultNamespace derives the namespace of a @use rule without "as".
func defaultNamespace(url string) string {
	if strings.HasPrefix(url, "sass:") {
		return strings.TrimPrefix(url, "sass:")
	}
	base := path.Base(url)
	for _, ext := range []string{".scss", ".css", ".sass"} {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.TrimPrefix(base, "_")
}

func (ev *Evaluator) evalUse(n *atRuleNode, ctx *context) ([]Stmt, error) {
	if ctx.selector != nil || ctx.function || ctx.nested {
		return nil, newError(ErrSyntax, n.pos, "This at-rule is not allowed here.")
	}
	if ev.sawOther {
		return nil, newError(ErrModule, n.pos, "@use rules must be written before any other rules.")
	}
	toks := trimSpace(n.params)
	if len(toks) == 0 || toks[0].Type != scanner.String {
		return nil, newError(ErrSyntax, n.pos, "Expected string.")
	}
	url := toks[0].Value
	ns := defaultNamespace(url)
	rest := trimSpace(toks[1:])
	if len(rest) > 0 {
		if !isIdent(rest[0], "as") {
			return nil, newError(ErrSyntax, tokPos(rest[0]), `expected ";".`)
		}
		rest = trimSpace(rest[1:])
		switch {
		case len(rest) == 1 && isDelim(rest[0], "*"):
			ns = "*"
		case len(rest) == 1 && rest[0].Type == scanner.Ident:
			ns = rest[0].Value
		case len(rest) > 1 && rest[0].Type == scanner.Ident:
			return nil, newError(ErrSyntax, tokPos(rest[1]), `expected ";".`)
		default:
			return nil, newError(ErrSyntax, n.pos, "Expected identifier.")
		}
	}
	mod, stmts, err := ev.loadModule(url, n.pos)
	if err != nil {
		return nil, err
	}
	if ns == "*" {
		ev.starModules = append(ev.starModules, mod)
		return stmts, nil
	}
	key := normalizeName(ns)
	if _, dup := ev.modules[key]; dup {
		return nil, newError(ErrModule, n.pos, "There's already a module with namespace %q.", key)
	}
	ev.modules[key] = mod
	return stmts, nil
}

// loadModule returns the module for url and the CSS it emits. A stylesheet
// is evaluated once per compilation, later uses get no CSS.
func (ev *Evaluator) loadModule(url string, pos Pos) (*module, []Stmt, error) {
	if strings.HasPrefix(url, "sass:") {
		m, ok := newBuiltinModule(strings.TrimPrefix(url, "sass:"))
		if !ok {
			return nil, nil, newError(ErrModule, pos, "Can't find stylesheet to import.")
		}
		return m, nil, nil
	}
	if ev.loader == nil {
		return nil, nil, newError(ErrImport, pos, "Can't find stylesheet to import.")
	}
	src, file, err := ev.loader.load(url, pos)
	if err != nil {
		return nil, nil, err
	}
	defer ev.loader.done(file)
	if m, ok := ev.loaded[file]; ok {
		return m, nil, nil
	}
	nodes, err := parse(src)
	if err != nil {
		return nil, nil, withFile(err, file)
	}
	c := ev.child()
	stmts, err := c.evalRoot(nodes)
	if err != nil {
		return nil, nil, withFile(err, file)
	}
	m := &module{url: url, vars: c.global, functions: c.functions, mixins: c.mixins}
	ev.loaded[file] = m
	ev.log.Debug("loaded module", zap.String("url", url), zap.String("file", file))
	return m, stmts, nil
}

// module returns the module used with namespace ns.
func (ev *Evaluator) module(ns string, pos Pos) (*module, error) {
	m, ok := ev.modules[normalizeName(ns)]
	if !ok {
		return nil, newError(ErrModule, pos, "There is no module with the namespace %q.", ns)
	}
	return m, nil
}

// variable looks up $name, or ns.$name when ns is not empty.
func (ev *Evaluator) variable(ns, name string, scope *Scope, pos Pos) (Value, error) {
	if ns != "" {
		m, err := ev.module(ns, pos)
		if err != nil {
			return nil, err
		}
		if isPrivate(name) {
			return nil, newError(ErrModule, pos, "Private members can't be accessed from outside their modules.")
		}
		if v, ok := m.vars.Get(name); ok {
			return v, nil
		}
		return nil, newError(ErrUndefined, pos, "Undefined variable.")
	}
	if v, ok := scope.Get(name); ok {
		return v, nil
	}
	if v, ok := ev.starVariable(name); ok {
		return v, nil
	}
	return nil, newError(ErrUndefined, pos, "Undefined variable.")
}

func (ev *Evaluator) starVariable(name string) (Value, bool) {
	if isPrivate(name) {
		return nil, false
	}
	for _, m := range ev.starModules {
		if v, ok := m.vars.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// lookupFunction finds a function by name. It returns nil without an error
// for unknown unqualified names, which are plain CSS functions.
func (ev *Evaluator) lookupFunction(ns, name string, pos Pos) (Function, error) {
	if ns != "" {
		m, err := ev.module(ns, pos)
		if err != nil {
			return nil, err
		}
		if isPrivate(name) {
			return nil, newError(ErrModule, pos, "Private members can't be accessed from outside their modules.")
		}
		if f, ok := m.function(name); ok {
			return f, nil
		}
		return nil, newError(ErrUndefined, pos, "Undefined function.")
	}
	key := normalizeName(name)
	if f, ok := ev.functions[key]; ok {
		return f, nil
	}
	if !isPrivate(key) {
		for _, m := range ev.starModules {
			if f, ok := m.function(key); ok {
				return f, nil
			}
		}
	}
	if f, ok := globalFunctions[key]; ok {
		return f, nil
	}
	return nil, nil
}
