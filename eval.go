package scss

import (
	"math"
	"strings"

	"github.com/speedata/css/scanner"
	"go.uber.org/zap"
)

// loader resolves stylesheets for @import and @use.
type loader interface {
	load(url string, pos Pos) (src, path string, err error)
	done(path string)
}

// context describes where a statement is evaluated.
type context struct {
	selector  *Selector // innermost style rule, nil at root
	keyframes bool      // children are keyframe blocks
	declOK    bool      // declarations are allowed
	function  bool      // inside a function body
	nested    bool      // inside a control directive, mixin or at-rule
	content   *contentBlock
}

func (c *context) with(f func(*context)) *context {
	n := *c
	f(&n)
	return &n
}

// contentBlock is the block passed to a mixin with @include.
type contentBlock struct {
	body  []node
	scope *Scope
	outer *contentBlock
}

// Evaluator turns source statements into evaluated statements.
type Evaluator struct {
	table          *Table
	log            *zap.Logger
	global         *Scope
	functions      map[string]Function
	mixins         map[string]*mixin
	modules        map[string]*module
	starModules    []*module
	loader         loader
	loaded         map[string]*module
	sawOther       bool
	checkSelectors bool
	ctx            *context
	callerScope    *Scope
}

func newEvaluator(t *Table, log *zap.Logger, ld loader) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{
		table:     t,
		log:       log,
		global:    NewScope(nil),
		functions: make(map[string]Function),
		mixins:    make(map[string]*mixin),
		modules:   make(map[string]*module),
		loader:    ld,
		loaded:    make(map[string]*module),
		ctx:       &context{},
	}
}

// child returns an evaluator for a separate module that shares the
// compilation wide state.
func (ev *Evaluator) child() *Evaluator {
	c := newEvaluator(ev.table, ev.log, ev.loader)
	c.loaded = ev.loaded
	c.checkSelectors = ev.checkSelectors
	for name, f := range ev.functions {
		if _, ok := f.(*builtinFunction); ok {
			c.functions[name] = f
		}
	}
	return c
}

// register adds a native function visible to the whole stylesheet.
func (ev *Evaluator) register(f Function) {
	ev.functions[normalizeName(f.Name())] = f
}

func (ev *Evaluator) evalDefault(toks tokenstream, scope *Scope) (Value, error) {
	return ev.evalExpr(toks, scope)
}

// evaluate parses and evaluates a complete stylesheet.
func (ev *Evaluator) evaluate(src string) ([]Stmt, error) {
	nodes, err := parse(src)
	if err != nil {
		return nil, err
	}
	stmts, err := ev.evalRoot(nodes)
	if err != nil {
		return nil, err
	}
	if ce := ev.log.Check(zap.DebugLevel, "evaluated stylesheet"); ce != nil {
		ce.Write(zap.Int("statements", len(stmts)), zap.Stringer("tree", stmtTree{stmts, ev.table}))
	}
	return stmts, nil
}

func (ev *Evaluator) evalRoot(nodes []node) ([]Stmt, error) {
	ctx := &context{}
	var out []Stmt
	for _, n := range nodes {
		stmts, err := ev.evalNode(n, ev.global, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
		switch x := n.(type) {
		case *commentNode, *varNode:
		case *atRuleNode:
			switch strings.ToLower(x.name) {
			case "use", "forward", "charset":
			default:
				ev.sawOther = true
			}
		default:
			ev.sawOther = true
		}
	}
	return out, nil
}

func (ev *Evaluator) evalNodes(nodes []node, scope *Scope, ctx *context) ([]Stmt, error) {
	var out []Stmt
	for _, n := range nodes {
		stmts, err := ev.evalNode(n, scope, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
		if ctx.function && len(out) > 0 {
			if _, ok := out[len(out)-1].(*Return); ok {
				return out, nil
			}
		}
	}
	return out, nil
}

func (ev *Evaluator) evalNode(n node, scope *Scope, ctx *context) ([]Stmt, error) {
	prev := ev.ctx
	ev.ctx = ctx
	defer func() { ev.ctx = prev }()

	switch x := n.(type) {
	case *commentNode:
		if ctx.function {
			return nil, nil
		}
		text := strings.TrimSuffix(strings.TrimPrefix(x.text, "/*"), "*/")
		return []Stmt{&Comment{Text: text}}, nil
	case *varNode:
		return nil, ev.evalVariable(x, scope)
	case *declNode:
		return ev.evalDeclaration(x, scope, ctx)
	case *ruleNode:
		return ev.evalRule(x, scope, ctx)
	case *ifNode:
		for _, clause := range x.clauses {
			if clause.cond != nil {
				v, err := ev.evalExpr(clause.cond, scope)
				if err != nil {
					return nil, err
				}
				if !isTruthy(v) {
					continue
				}
			}
			return ev.evalNodes(clause.body, newFlowScope(scope), ctx.with(func(c *context) { c.nested = true }))
		}
		return nil, nil
	case *atRuleNode:
		return ev.evalAtRule(x, scope, ctx)
	}
	invariant("unexpected node %T", n)
	return nil, nil
}

func (ev *Evaluator) evalVariable(n *varNode, scope *Scope) error {
	target := scope
	if n.global {
		target = ev.global
	}
	if n.guarded {
		if v, ok := target.Get(n.name); ok && !isNull(v) {
			return nil
		}
	}
	v, err := ev.evalExpr(n.value, scope)
	if err != nil {
		return err
	}
	v = withoutSlash(v)
	if n.global {
		ev.global.Set(n.name, v)
		return nil
	}
	scope.assign(n.name, v)
	return nil
}

func (ev *Evaluator) evalDeclaration(n *declNode, scope *Scope, ctx *context) ([]Stmt, error) {
	if ctx.function {
		return nil, newError(ErrSyntax, n.pos, "Functions can only contain variable declarations and control directives.")
	}
	if !ctx.declOK {
		return nil, newError(ErrSyntax, n.pos, "Declarations may only be used within style rules.")
	}
	name, err := ev.interpolate(n.name, scope, false)
	if err != nil {
		return nil, err
	}
	if n.custom {
		text, err := ev.interpolate(n.value, scope, false)
		if err != nil {
			return nil, err
		}
		return []Stmt{&Style{Name: name, Value: unquoted(text)}}, nil
	}
	v, err := ev.evalExpr(n.value, scope)
	if err != nil {
		return nil, err
	}
	return []Stmt{&Style{Name: name, Value: v}}, nil
}

func (ev *Evaluator) evalRule(n *ruleNode, scope *Scope, ctx *context) ([]Stmt, error) {
	if ctx.function {
		return nil, newError(ErrSyntax, n.pos, "Functions can only contain variable declarations and control directives.")
	}
	text, err := ev.interpolate(n.selector, scope, false)
	if err != nil {
		return nil, err
	}
	if ctx.keyframes {
		body, err := ev.evalNodes(n.body, NewScope(scope), ctx.with(func(c *context) {
			c.keyframes = false
			c.declOK = true
			c.selector = nil
		}))
		if err != nil {
			return nil, err
		}
		return []Stmt{&KeyframesRuleSet{Selectors: parseKeyframesSelectors(text), Body: body}}, nil
	}
	sel := ParseSelector(text)
	if sel.IsEmpty() {
		return nil, newError(ErrSyntax, n.pos, "Expected selector.")
	}
	if ctx.selector != nil {
		sel = sel.Resolve(*ctx.selector)
	} else if sel.HasParentRef() {
		return nil, newError(ErrSyntax, n.pos, `Top-level selectors may not contain the parent selector "&".`)
	}
	if plain := sel.RemovePlaceholders(); ev.checkSelectors && !plain.IsEmpty() {
		if err := plain.Validate(); err != nil {
			ev.log.Warn("selector not understood by the selector engine",
				zap.String("selector", plain.String()), zap.Stringer("pos", n.pos), zap.Error(err))
		}
	}
	body, err := ev.evalNodes(n.body, NewScope(scope), ctx.with(func(c *context) {
		c.selector = &sel
		c.declOK = true
	}))
	if err != nil {
		return nil, err
	}
	return []Stmt{&RuleSet{Selector: sel, Body: body}}, nil
}

// bubble wraps the declarations of an at-rule body that is nested in a style
// rule into a copy of that rule.
func bubble(sel *Selector, body []Stmt) []Stmt {
	if sel == nil {
		return body
	}
	wrapper := &RuleSet{Selector: *sel}
	out := []Stmt{wrapper}
	for _, s := range body {
		switch s.(type) {
		case *Style, *Comment:
			wrapper.Body = append(wrapper.Body, s)
		default:
			out = append(out, s)
		}
	}
	if len(wrapper.Body) == 0 {
		return out[1:]
	}
	return out
}

func (ev *Evaluator) evalAtRule(n *atRuleNode, scope *Scope, ctx *context) ([]Stmt, error) {
	name := strings.ToLower(n.name)
	if ctx.function {
		switch name {
		case "return", "each", "for", "while", "debug", "warn", "error":
		default:
			return nil, newError(ErrSyntax, n.pos, "This at-rule is not allowed here.")
		}
	}
	switch name {
	case "charset":
		return nil, nil
	case "return":
		if !ctx.function {
			return nil, newError(ErrSyntax, n.pos, "This at-rule is not allowed here.")
		}
		v, err := ev.evalExpr(n.params, scope)
		if err != nil {
			return nil, err
		}
		return []Stmt{&Return{Value: withoutSlash(v)}}, nil
	case "function":
		return nil, ev.defineFunction(n, scope, ctx)
	case "mixin":
		return nil, ev.defineMixin(n, scope, ctx)
	case "include":
		return ev.evalInclude(n, scope, ctx)
	case "content":
		return ev.evalContent(scope, ctx)
	case "each":
		return ev.evalEach(n, scope, ctx)
	case "for":
		return ev.evalFor(n, scope, ctx)
	case "while":
		return ev.evalWhile(n, scope, ctx)
	case "debug", "warn", "error":
		return nil, ev.evalMessage(name, n, scope)
	case "import":
		return ev.evalImport(n, scope, ctx)
	case "use":
		return ev.evalUse(n, ctx)
	case "forward":
		ev.log.Warn("@forward is not supported, rule ignored", zap.Stringer("pos", n.pos))
		return nil, nil
	case "extend":
		if ctx.selector == nil {
			return nil, newError(ErrSyntax, n.pos, "@extend may only be used within style rules.")
		}
		ev.log.Warn("@extend is not supported, rule ignored", zap.Stringer("pos", n.pos),
			zap.String("target", strings.TrimSpace(n.params.String())))
		return nil, nil
	case "at-root":
		return ev.evalAtRoot(n, scope, ctx)
	case "else":
		return nil, newError(ErrSyntax, n.pos, "This at-rule is not allowed here.")
	case "media":
		query, err := ev.interpolate(n.params, scope, true)
		if err != nil {
			return nil, err
		}
		body, err := ev.evalAtRuleBody(n, scope, ctx)
		if err != nil {
			return nil, err
		}
		return []Stmt{&Media{Query: query, Body: body}}, nil
	case "supports":
		params, err := ev.interpolate(n.params, scope, true)
		if err != nil {
			return nil, err
		}
		body, err := ev.evalAtRuleBody(n, scope, ctx)
		if err != nil {
			return nil, err
		}
		return []Stmt{&Supports{Params: params, Body: body}}, nil
	case "keyframes", "-webkit-keyframes", "-moz-keyframes", "-o-keyframes", "-ms-keyframes":
		kfName, err := ev.interpolate(n.params, scope, false)
		if err != nil {
			return nil, err
		}
		body, err := ev.evalNodes(n.body, NewScope(scope), ctx.with(func(c *context) {
			c.keyframes = true
			c.declOK = false
			c.nested = true
		}))
		if err != nil {
			return nil, err
		}
		return []Stmt{&Keyframes{Rule: n.name, Name: kfName, Body: body}}, nil
	}
	params, err := ev.interpolate(n.params, scope, false)
	if err != nil {
		return nil, err
	}
	rule := &UnknownAtRule{Name: n.name, Params: params}
	if n.hasBody {
		body, err := ev.evalNodes(n.body, NewScope(scope), ctx.with(func(c *context) {
			c.declOK = true
			c.nested = true
		}))
		if err != nil {
			return nil, err
		}
		rule.Body = bubble(ctx.selector, body)
	}
	return []Stmt{rule}, nil
}

func (ev *Evaluator) evalAtRuleBody(n *atRuleNode, scope *Scope, ctx *context) ([]Stmt, error) {
	body, err := ev.evalNodes(n.body, NewScope(scope), ctx.with(func(c *context) {
		c.declOK = ctx.selector != nil
		c.nested = true
	}))
	if err != nil {
		return nil, err
	}
	return bubble(ctx.selector, body), nil
}

func (ev *Evaluator) evalAtRoot(n *atRuleNode, scope *Scope, ctx *context) ([]Stmt, error) {
	rootCtx := ctx.with(func(c *context) {
		c.selector = nil
		c.declOK = false
		c.keyframes = false
	})
	nodes := n.body
	if len(n.params) > 0 {
		// @at-root .sel { ... }
		nodes = []node{&ruleNode{selector: n.params, body: n.body, pos: n.pos}}
	}
	body, err := ev.evalNodes(nodes, NewScope(scope), rootCtx)
	if err != nil {
		return nil, err
	}
	if ctx.selector == nil {
		return body, nil
	}
	return []Stmt{&AtRoot{Body: body}}, nil
}

// nameAndArgs splits "name(args)" or "name" at the start of an at-rule.
func nameAndArgs(toks tokenstream, pos Pos) (ns, name string, args tokenstream, rest tokenstream, err error) {
	toks = trimSpace(toks)
	if len(toks) >= 3 && toks[0].Type == scanner.Ident && isDelim(toks[1], ".") {
		ns = toks[0].Value
		toks = toks[2:]
	}
	if len(toks) == 0 {
		return "", "", nil, nil, newError(ErrSyntax, pos, "Expected identifier.")
	}
	switch t := toks[0]; t.Type {
	case scanner.Ident:
		return ns, t.Value, nil, toks[1:], nil
	case scanner.Function:
		end := findClosingParen(toks[1:])
		if end < 0 {
			return "", "", nil, nil, newError(ErrSyntax, tokPos(t), `expected ")".`)
		}
		return ns, t.Value, toks[1 : end+1], toks[end+2:], nil
	}
	return "", "", nil, nil, newError(ErrSyntax, tokPos(toks[0]), "Expected identifier.")
}

func (ev *Evaluator) defineFunction(n *atRuleNode, scope *Scope, ctx *context) error {
	if ctx.selector != nil || ctx.nested {
		return newError(ErrSyntax, n.pos, "Functions may not be declared in control directives or other functions.")
	}
	_, name, argToks, _, err := nameAndArgs(n.params, n.pos)
	if err != nil {
		return err
	}
	if argToks == nil {
		return newError(ErrSyntax, n.pos, `expected "(".`)
	}
	params, err := parseFuncArgs(argToks)
	if err != nil {
		return err
	}
	ev.functions[normalizeName(name)] = &userFunction{name: name, params: params, body: n.body, closure: scope, pos: n.pos}
	return nil
}

func (ev *Evaluator) defineMixin(n *atRuleNode, scope *Scope, ctx *context) error {
	if ctx.selector != nil || ctx.nested {
		return newError(ErrSyntax, n.pos, "Mixins may not be defined within control directives or other mixins.")
	}
	_, name, argToks, _, err := nameAndArgs(n.params, n.pos)
	if err != nil {
		return err
	}
	params, err := parseFuncArgs(argToks)
	if err != nil {
		return err
	}
	ev.mixins[normalizeName(name)] = &mixin{name: name, params: params, body: n.body, closure: scope}
	return nil
}

func (ev *Evaluator) lookupMixin(ns, name string, pos Pos) (*mixin, error) {
	key := normalizeName(name)
	if ns != "" {
		mod, err := ev.module(ns, pos)
		if err != nil {
			return nil, err
		}
		if isPrivate(key) {
			return nil, newError(ErrModule, pos, "Private members can't be accessed from outside their modules.")
		}
		if m, ok := mod.mixins[key]; ok {
			return m, nil
		}
		return nil, newError(ErrUndefined, pos, "Undefined mixin.")
	}
	if m, ok := ev.mixins[key]; ok {
		return m, nil
	}
	for _, mod := range ev.starModules {
		if m, ok := mod.mixins[key]; ok && !isPrivate(key) {
			return m, nil
		}
	}
	return nil, newError(ErrUndefined, pos, "Undefined mixin.")
}

func (ev *Evaluator) evalInclude(n *atRuleNode, scope *Scope, ctx *context) ([]Stmt, error) {
	ns, name, argToks, _, err := nameAndArgs(n.params, n.pos)
	if err != nil {
		return nil, err
	}
	m, err := ev.lookupMixin(ns, name, n.pos)
	if err != nil {
		return nil, err
	}
	args := NewCallArgs(n.pos)
	if argToks != nil {
		closing := &scanner.Token{Type: scanner.Delim, Value: ")"}
		p := &exprParser{ev: ev, scope: scope, toks: append(argToks[:len(argToks):len(argToks)], closing)}
		if args, err = p.parseArgList(n.pos); err != nil {
			return nil, err
		}
	}
	callScope, err := bindArgs(m.params, args, m.closure, ev)
	if err != nil {
		return nil, err
	}
	var cb *contentBlock
	if n.hasBody {
		cb = &contentBlock{body: n.body, scope: scope, outer: ctx.content}
	}
	return ev.evalNodes(m.body, callScope, ctx.with(func(c *context) {
		c.content = cb
		c.nested = true
	}))
}

func (ev *Evaluator) evalContent(scope *Scope, ctx *context) ([]Stmt, error) {
	cb := ctx.content
	if cb == nil {
		return nil, nil
	}
	return ev.evalNodes(cb.body, NewScope(cb.scope), ctx.with(func(c *context) {
		c.content = cb.outer
	}))
}

// loopVars reads "$a, $b" and returns the names.
func loopVars(toks tokenstream, pos Pos) ([]string, error) {
	var names []string
	for _, part := range splitTopLevel(toks, ",") {
		part = trimSpace(part)
		if len(part) != 2 || !isDelim(part[0], "$") || part[1].Type != scanner.Ident {
			return nil, newError(ErrSyntax, pos, "Expected variable.")
		}
		names = append(names, part[1].Value)
	}
	return names, nil
}

// findKeyword returns the index of the top level identifier kw.
func findKeyword(toks tokenstream, kw string) int {
	depth := 0
	for i, t := range toks {
		switch {
		case t.Type == scanner.Function || isDelim(t, "(") || isDelim(t, "["):
			depth++
		case isDelim(t, ")") || isDelim(t, "]"):
			depth--
		case depth == 0 && isIdent(t, kw):
			return i
		}
	}
	return -1
}

func (ev *Evaluator) evalEach(n *atRuleNode, scope *Scope, ctx *context) ([]Stmt, error) {
	in := findKeyword(n.params, "in")
	if in < 0 {
		return nil, newError(ErrSyntax, n.pos, `Expected "in".`)
	}
	names, err := loopVars(n.params[:in], n.pos)
	if err != nil {
		return nil, err
	}
	list, err := ev.evalExpr(n.params[in+1:], scope)
	if err != nil {
		return nil, err
	}
	inner := ctx.with(func(c *context) { c.nested = true })
	var out []Stmt
	for _, item := range listItems(list) {
		s := newFlowScope(scope)
		if len(names) == 1 {
			s.Set(names[0], item)
		} else {
			parts := listItems(item)
			for i, name := range names {
				if i < len(parts) {
					s.Set(name, parts[i])
				} else {
					s.Set(name, null)
				}
			}
		}
		stmts, err := ev.evalNodes(n.body, s, inner)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
		if returned(out, ctx) {
			break
		}
	}
	return out, nil
}

func returned(out []Stmt, ctx *context) bool {
	if !ctx.function || len(out) == 0 {
		return false
	}
	_, ok := out[len(out)-1].(*Return)
	return ok
}

func (ev *Evaluator) loopBound(toks tokenstream, scope *Scope, pos Pos) (Number, error) {
	v, err := ev.evalExpr(toks, scope)
	if err != nil {
		return Number{}, err
	}
	num, ok := v.(Number)
	if !ok {
		return Number{}, newError(ErrType, pos, "%s is not a number.", inspect(v, ev.table))
	}
	if num.Num != math.Trunc(num.Num) {
		return Number{}, newError(ErrType, pos, "%s is not an int.", inspect(v, ev.table))
	}
	return num.withoutSlash(), nil
}

func (ev *Evaluator) evalFor(n *atRuleNode, scope *Scope, ctx *context) ([]Stmt, error) {
	from := findKeyword(n.params, "from")
	if from < 0 {
		return nil, newError(ErrSyntax, n.pos, `Expected "from".`)
	}
	names, err := loopVars(n.params[:from], n.pos)
	if err != nil || len(names) != 1 {
		return nil, newError(ErrSyntax, n.pos, "Expected variable.")
	}
	rest := n.params[from+1:]
	inclusive := true
	to := findKeyword(rest, "through")
	if to < 0 {
		inclusive = false
		if to = findKeyword(rest, "to"); to < 0 {
			return nil, newError(ErrSyntax, n.pos, `Expected "to" or "through".`)
		}
	}
	start, err := ev.loopBound(rest[:to], scope, n.pos)
	if err != nil {
		return nil, err
	}
	end, err := ev.loopBound(rest[to+1:], scope, n.pos)
	if err != nil {
		return nil, err
	}
	if !end.Unit.IsNone() && !start.Unit.IsNone() && !Comparable(start.Unit, end.Unit) {
		return nil, incompatible(start.Unit, end.Unit, ev.table)
	}
	step := 1
	if start.Num > end.Num {
		step = -1
	}
	last := int(end.Num)
	if !inclusive {
		last -= step
	}
	inner := ctx.with(func(c *context) { c.nested = true })
	var out []Stmt
	for i := int(start.Num); step*(last-i) >= 0; i += step {
		s := newFlowScope(scope)
		s.Set(names[0], Number{Num: float64(i), Unit: start.Unit})
		stmts, err := ev.evalNodes(n.body, s, inner)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
		if returned(out, ctx) {
			break
		}
	}
	return out, nil
}

func (ev *Evaluator) evalWhile(n *atRuleNode, scope *Scope, ctx *context) ([]Stmt, error) {
	inner := ctx.with(func(c *context) { c.nested = true })
	var out []Stmt
	for {
		v, err := ev.evalExpr(n.params, scope)
		if err != nil {
			return nil, err
		}
		if !isTruthy(v) {
			return out, nil
		}
		stmts, err := ev.evalNodes(n.body, newFlowScope(scope), inner)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
		if returned(out, ctx) {
			return out, nil
		}
	}
}

func (ev *Evaluator) evalMessage(kind string, n *atRuleNode, scope *Scope) error {
	v, err := ev.evalExpr(n.params, scope)
	if err != nil {
		return err
	}
	msg, err := unquotedText(v, ev.table)
	if err != nil {
		msg = inspect(v, ev.table)
	}
	switch kind {
	case "debug":
		ev.log.Debug(msg, zap.Stringer("pos", n.pos))
	case "warn":
		ev.log.Warn(msg, zap.Stringer("pos", n.pos))
	default:
		return newError(ErrUser, n.pos, "%s", msg)
	}
	return nil
}

func isPlainCSSImport(url string) bool {
	return (len(url) >= 5 && strings.HasSuffix(url, ".css")) ||
		strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "//")
}

func (ev *Evaluator) evalImport(n *atRuleNode, scope *Scope, ctx *context) ([]Stmt, error) {
	var out []Stmt
	for _, part := range splitTopLevel(n.params, ",") {
		part = trimSpace(part)
		if len(part) == 0 || (part[0].Type != scanner.String && part[0].Type != scanner.URI) {
			return nil, newError(ErrSyntax, n.pos, "Expected string.")
		}
		url := part[0].Value
		if part[0].Type == scanner.URI || len(part) > 1 || isPlainCSSImport(url) {
			text, err := ev.interpolate(part, scope, false)
			if err != nil {
				return nil, err
			}
			out = append(out, &Import{URL: text})
			continue
		}
		stmts, err := ev.importFile(url, n.pos, scope, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

func (ev *Evaluator) importFile(url string, pos Pos, scope *Scope, ctx *context) ([]Stmt, error) {
	if ev.loader == nil {
		return nil, newError(ErrImport, pos, "Can't find stylesheet to import.")
	}
	src, path, err := ev.loader.load(url, pos)
	if err != nil {
		return nil, err
	}
	defer ev.loader.done(path)
	nodes, err := parse(src)
	if err != nil {
		return nil, withFile(err, path)
	}
	stmts, err := ev.evalNodes(nodes, scope, ctx)
	if err != nil {
		return nil, withFile(err, path)
	}
	return stmts, nil
}

// interpolate renders tokens as text, evaluating #{} and, if vars is set,
// $variables. White space runs collapse to a single space.
func (ev *Evaluator) interpolate(toks tokenstream, scope *Scope, vars bool) (string, error) {
	var b strings.Builder
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch {
		case isInterpolation(toks, i):
			end := i + 2 + findClosingBrace(toks[i+2:])
			v, err := ev.evalExpr(toks[i+2:end-1], scope)
			if err != nil {
				return "", err
			}
			s, err := unquotedText(v, ev.table)
			if err != nil {
				return "", withPos(err, tokPos(t))
			}
			b.WriteString(s)
			i = end - 1
		case vars && isDelim(t, "$") && i+1 < len(toks) && toks[i+1].Type == scanner.Ident:
			v, err := ev.variable("", toks[i+1].Value, scope, tokPos(t))
			if err != nil {
				return "", err
			}
			s, err := unquotedText(v, ev.table)
			if err != nil {
				return "", withPos(err, tokPos(t))
			}
			b.WriteString(s)
			i++
		case t.Type == scanner.S:
			b.WriteByte(' ')
		case t.Type == scanner.Comment:
		case t.Type == scanner.URI:
			s, err := ev.interpolateString(tokenText(t), scope)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		default:
			b.WriteString(tokenText(t))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// interpolateString evaluates #{} sequences inside a single token's text.
func (ev *Evaluator) interpolateString(s string, scope *Scope) (string, error) {
	var b strings.Builder
	for {
		i := strings.Index(s, "#{")
		if i < 0 {
			b.WriteString(s)
			return b.String(), nil
		}
		j := strings.Index(s[i:], "}")
		if j < 0 {
			b.WriteString(s)
			return b.String(), nil
		}
		toks, err := tokenize(s[i+2 : i+j])
		if err != nil {
			return "", err
		}
		v, err := ev.evalExpr(toks, scope)
		if err != nil {
			return "", err
		}
		text, err := unquotedText(v, ev.table)
		if err != nil {
			return "", err
		}
		b.WriteString(s[:i])
		b.WriteString(text)
		s = s[i+j+1:]
	}
}
