package scss

import (
	"strconv"
	"strings"

	"github.com/speedata/css/scanner"
)

// exprParser evaluates an expression while parsing it.
type exprParser struct {
	ev    *Evaluator
	scope *Scope
	toks  tokenstream
	pos   int
	// parens counts enclosing parentheses and argument lists, where a slash
	// always divides.
	parens int
	// literal is set when the last operand was a number written in the
	// source, which makes a following slash keep its text form.
	literal bool
}

// evalExpr evaluates a complete expression.
func (ev *Evaluator) evalExpr(toks tokenstream, scope *Scope) (Value, error) {
	p := &exprParser{ev: ev, scope: scope, toks: toks}
	p.skipSpace()
	if p.eof() {
		return nil, newError(ErrSyntax, tokPos(p.last()), "Expected expression.")
	}
	v, err := p.parseCommaList()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, newError(ErrSyntax, tokPos(p.peek()), `expected ";".`)
	}
	return v, nil
}

func (p *exprParser) eof() bool { return p.pos >= len(p.toks) }

func (p *exprParser) at(i int) *scanner.Token {
	if i < 0 || i >= len(p.toks) {
		return nil
	}
	return p.toks[i]
}

func (p *exprParser) peek() *scanner.Token { return p.at(p.pos) }

func (p *exprParser) last() *scanner.Token { return p.at(len(p.toks) - 1) }

// skipSpace skips white space and comments and reports whether there were any.
func (p *exprParser) skipSpace() bool {
	start := p.pos
	for !p.eof() && isSpace(p.toks[p.pos]) {
		p.pos++
	}
	return p.pos > start
}

func (p *exprParser) errPos() Pos {
	if t := p.peek(); t != nil {
		return tokPos(t)
	}
	return tokPos(p.last())
}

func (p *exprParser) atSpread() bool {
	return isDelim(p.at(p.pos), ".") && isDelim(p.at(p.pos+1), ".") && isDelim(p.at(p.pos+2), ".")
}

// atListEnd reports whether the next token closes the current list.
func (p *exprParser) atListEnd() bool {
	t := p.peek()
	return t == nil || isDelim(t, ")") || isDelim(t, "]") || isDelim(t, "}") || p.atSpread()
}

func (p *exprParser) parseCommaList() (Value, error) {
	first, err := p.parseSpaceList()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !isDelim(p.peek(), ",") {
		return first, nil
	}
	items := []Value{first}
	for isDelim(p.peek(), ",") {
		p.pos++
		p.skipSpace()
		if p.atListEnd() {
			break
		}
		v, err := p.parseSpaceList()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
	}
	p.literal = false
	return List{Items: items, Sep: SepComma}, nil
}

// canStartValue reports whether t can begin another element of a space
// separated list.
func (p *exprParser) canStartValue() bool {
	t := p.peek()
	if t == nil {
		return false
	}
	switch t.Type {
	case scanner.Number, scanner.Percentage, scanner.Dimension, scanner.String,
		scanner.Hash, scanner.Function, scanner.URI, scanner.UnicodeRange,
		scanner.Local, scanner.Format, scanner.Tech:
		return true
	case scanner.Ident:
		return !isIdent(t, "and") && !isIdent(t, "or")
	case scanner.Delim:
		switch t.Value {
		case "$", "(", "[", "-", "+", "&":
			return true
		case "#":
			return isInterpolation(p.toks, p.pos)
		case "!":
			return isIdent(p.at(p.pos+1), "important")
		}
	}
	return false
}

func (p *exprParser) parseSpaceList() (Value, error) {
	first, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	var items []Value
	for {
		save := p.pos
		p.skipSpace()
		if !p.canStartValue() {
			p.pos = save
			break
		}
		v, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if len(items) == 0 {
		return first, nil
	}
	p.literal = false
	return List{Items: append([]Value{first}, items...), Sep: SepSpace}, nil
}

func (p *exprParser) parseOr() (Value, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		save := p.pos
		p.skipSpace()
		if !isIdent(p.peek(), "or") {
			p.pos = save
			return lhs, nil
		}
		p.pos++
		p.skipSpace()
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if !isTruthy(lhs) {
			lhs = rhs
		}
		p.literal = false
	}
}

func (p *exprParser) parseAnd() (Value, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for {
		save := p.pos
		p.skipSpace()
		if !isIdent(p.peek(), "and") {
			p.pos = save
			return lhs, nil
		}
		p.pos++
		p.skipSpace()
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		if isTruthy(lhs) {
			lhs = rhs
		}
		p.literal = false
	}
}

func (p *exprParser) parseEquality() (Value, error) {
	lhs, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		save := p.pos
		p.skipSpace()
		var negate bool
		switch t := p.peek(); {
		case isDelim(t, "=") && isDelim(p.at(p.pos+1), "="):
		case isDelim(t, "!") && isDelim(p.at(p.pos+1), "="):
			negate = true
		default:
			p.pos = save
			return lhs, nil
		}
		p.pos += 2
		p.skipSpace()
		rhs, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		lhs = Bool(Equal(lhs, rhs) != negate)
		p.literal = false
	}
}

func (p *exprParser) parseRelational() (Value, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		save := p.pos
		p.skipSpace()
		t := p.peek()
		if !isDelim(t, "<") && !isDelim(t, ">") {
			p.pos = save
			return lhs, nil
		}
		op := t.Value
		p.pos++
		if isDelim(p.peek(), "=") {
			op += "="
			p.pos++
		}
		p.skipSpace()
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		a, aok := lhs.(Number)
		b, bok := rhs.(Number)
		if !aok || !bok {
			return nil, newError(ErrType, tokPos(t), `Undefined operation "%s %s %s".`,
				inspect(lhs, p.ev.table), op, inspect(rhs, p.ev.table))
		}
		c, err := compareNumbers(a, b, p.ev.table)
		if err != nil {
			return nil, withPos(err, tokPos(t))
		}
		switch op {
		case "<":
			lhs = Bool(c < 0)
		case "<=":
			lhs = Bool(c <= 0)
		case ">":
			lhs = Bool(c > 0)
		default:
			lhs = Bool(c >= 0)
		}
		p.literal = false
	}
}

func (p *exprParser) parseAdditive() (Value, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		save := p.pos
		sp := p.skipSpace()
		t := p.peek()
		if !isDelim(t, "+") && !isDelim(t, "-") {
			p.pos = save
			return lhs, nil
		}
		// "a -b" is a list of two values, "a - b" and "a-b" subtract.
		if next := p.at(p.pos + 1); sp && next != nil && !isSpace(next) {
			p.pos = save
			return lhs, nil
		}
		p.pos++
		p.skipSpace()
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		if t.Value == "+" {
			lhs, err = p.add(lhs, rhs)
		} else {
			lhs, err = p.subtract(lhs, rhs)
		}
		if err != nil {
			return nil, withPos(err, tokPos(t))
		}
		p.literal = false
	}
}

func (p *exprParser) parseMultiplicative() (Value, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	lhsLit := p.literal
	for {
		save := p.pos
		p.skipSpace()
		t := p.peek()
		if !isDelim(t, "*") && !isDelim(t, "/") && !isDelim(t, "%") {
			p.pos = save
			break
		}
		p.pos++
		p.skipSpace()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		rhsLit := p.literal
		switch t.Value {
		case "*":
			lhs, err = p.multiply(lhs, rhs)
			lhsLit = false
		case "%":
			lhs, err = p.modulo(lhs, rhs)
			lhsLit = false
		default:
			keep := lhsLit && rhsLit && p.parens == 0
			lhs, err = p.divide(lhs, rhs, keep)
			lhsLit = keep
		}
		if err != nil {
			return nil, withPos(err, tokPos(t))
		}
	}
	p.literal = lhsLit
	return lhs, nil
}

func (p *exprParser) parseUnary() (Value, error) {
	t := p.peek()
	switch {
	case isIdent(t, "not"):
		p.pos++
		p.skipSpace()
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		p.literal = false
		return Bool(!isTruthy(v)), nil
	case isDelim(t, "-"), isDelim(t, "+"):
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if n, ok := v.(Number); ok {
			if t.Value == "-" {
				n.Num = -n.Num
				if n.slash != "" {
					n.slash = "-" + n.slash
				}
			}
			return n, nil
		}
		p.literal = false
		s, err := toCSS(v, p.ev.table)
		if err != nil {
			return nil, withPos(err, tokPos(t))
		}
		return unquoted(t.Value + s), nil
	}
	p.literal = false
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (Value, error) {
	t := p.peek()
	if t == nil {
		return nil, newError(ErrSyntax, p.errPos(), "Expected expression.")
	}
	switch t.Type {
	case scanner.Number, scanner.Percentage, scanner.Dimension:
		p.pos++
		n, err := p.ev.parseNumber(t)
		if err != nil {
			return nil, err
		}
		if p.adjacentInterpolation() {
			return p.concatAdjacent(tokenText(t))
		}
		p.literal = true
		return n, nil
	case scanner.String:
		p.pos++
		return String{Text: t.Value, Quoted: true}, nil
	case scanner.Hash:
		p.pos++
		return p.concatAdjacent("#" + t.Value)
	case scanner.URI:
		p.pos++
		s, err := p.ev.interpolateString(tokenText(t), p.scope)
		if err != nil {
			return nil, err
		}
		return unquoted(s), nil
	case scanner.UnicodeRange, scanner.Local, scanner.Format, scanner.Tech:
		p.pos++
		return unquoted(tokenText(t)), nil
	case scanner.Function:
		return p.parseFunctionCall("")
	case scanner.Ident:
		return p.parseIdent()
	}
	switch {
	case isDelim(t, "$"):
		name := p.at(p.pos + 1)
		if name == nil || name.Type != scanner.Ident {
			return nil, newError(ErrSyntax, tokPos(t), "Expected identifier.")
		}
		p.pos += 2
		return p.ev.variable("", name.Value, p.scope, tokPos(t))
	case isDelim(t, "("):
		return p.parseParens()
	case isDelim(t, "["):
		return p.parseBrackets()
	case isDelim(t, "&"):
		p.pos++
		if sel := p.ev.ctx.selector; sel != nil {
			return unquoted(sel.String()), nil
		}
		return null, nil
	case isInterpolation(p.toks, p.pos):
		return p.concatAdjacent("")
	case isDelim(t, "!") && isIdent(p.at(p.pos+1), "important"):
		p.pos += 2
		return unquoted("!important"), nil
	}
	return nil, newError(ErrSyntax, tokPos(t), "Expected expression.")
}

func (p *exprParser) adjacentInterpolation() bool {
	return isInterpolation(p.toks, p.pos)
}

// concatAdjacent reads interpolations and identifiers that directly follow
// prefix and returns the joined text as an unquoted string.
func (p *exprParser) concatAdjacent(prefix string) (Value, error) {
	var b strings.Builder
	b.WriteString(prefix)
	for !p.eof() {
		t := p.peek()
		switch {
		case isInterpolation(p.toks, p.pos):
			end := p.pos + 2 + findClosingBrace(p.toks[p.pos+2:])
			v, err := p.ev.evalExpr(p.toks[p.pos+2:end-1], p.scope)
			if err != nil {
				return nil, err
			}
			s, err := unquotedText(v, p.ev.table)
			if err != nil {
				return nil, withPos(err, tokPos(t))
			}
			b.WriteString(s)
			p.pos = end
		case b.Len() > 0 && (t.Type == scanner.Ident || t.Type == scanner.Number ||
			t.Type == scanner.Dimension || t.Type == scanner.Percentage):
			b.WriteString(t.Value)
			p.pos++
		case b.Len() > 0 && isDelim(t, "-") && !isSpace(p.at(p.pos+1)) && p.at(p.pos+1) != nil:
			b.WriteString("-")
			p.pos++
		default:
			return unquoted(b.String()), nil
		}
	}
	return unquoted(b.String()), nil
}

func (p *exprParser) parseIdent() (Value, error) {
	t := p.peek()
	// ns.function() or ns.$variable
	if isDelim(p.at(p.pos+1), ".") {
		if next := p.at(p.pos + 2); next != nil {
			if next.Type == scanner.Function {
				p.pos += 2
				return p.parseFunctionCall(t.Value)
			}
			if isDelim(next, "$") && p.at(p.pos+3) != nil && p.at(p.pos+3).Type == scanner.Ident {
				name := p.at(p.pos + 3).Value
				p.pos += 4
				return p.ev.variable(t.Value, name, p.scope, tokPos(t))
			}
		}
	}
	p.pos++
	switch strings.ToLower(t.Value) {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "null":
		return null, nil
	}
	if p.adjacentInterpolation() {
		return p.concatAdjacent(t.Value)
	}
	return unquoted(t.Value), nil
}

func (p *exprParser) parseParens() (Value, error) {
	open := p.peek()
	p.pos++
	p.skipSpace()
	if isDelim(p.peek(), ")") {
		p.pos++
		return List{}, nil
	}
	p.parens++
	defer func() { p.parens-- }()
	first, err := p.parseSpaceList()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if isDelim(p.peek(), ":") {
		return p.parseMap(first, open)
	}
	v := first
	if isDelim(p.peek(), ",") {
		items := []Value{first}
		for isDelim(p.peek(), ",") {
			p.pos++
			p.skipSpace()
			if isDelim(p.peek(), ")") {
				break
			}
			item, err := p.parseSpaceList()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			p.skipSpace()
		}
		v = List{Items: items, Sep: SepComma}
	}
	if !isDelim(p.peek(), ")") {
		return nil, newError(ErrSyntax, p.errPos(), `expected ")".`)
	}
	p.pos++
	p.literal = false
	return v, nil
}

func (p *exprParser) parseMap(firstKey Value, open *scanner.Token) (Value, error) {
	var m Map
	key := firstKey
	for {
		p.pos++ // :
		p.skipSpace()
		v, err := p.parseSpaceList()
		if err != nil {
			return nil, err
		}
		if _, dup := m.Get(key); dup {
			return nil, newError(ErrSyntax, tokPos(open), "Duplicate key.")
		}
		m.Entries = append(m.Entries, MapEntry{Key: withoutSlash(key), Value: withoutSlash(v)})
		p.skipSpace()
		if isDelim(p.peek(), ",") {
			p.pos++
			p.skipSpace()
		}
		if isDelim(p.peek(), ")") {
			p.pos++
			p.literal = false
			return m, nil
		}
		if key, err = p.parseSpaceList(); err != nil {
			return nil, err
		}
		p.skipSpace()
		if !isDelim(p.peek(), ":") {
			return nil, newError(ErrSyntax, p.errPos(), `expected ":".`)
		}
	}
}

func (p *exprParser) parseBrackets() (Value, error) {
	p.pos++
	p.skipSpace()
	if isDelim(p.peek(), "]") {
		p.pos++
		return List{Bracketed: true}, nil
	}
	p.parens++
	v, err := p.parseCommaList()
	p.parens--
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !isDelim(p.peek(), "]") {
		return nil, newError(ErrSyntax, p.errPos(), `expected "]".`)
	}
	p.pos++
	p.literal = false
	if l, ok := v.(List); ok && !l.Bracketed && len(l.Items) > 0 {
		l.Bracketed = true
		return l, nil
	}
	return List{Items: []Value{v}, Sep: SepSpace, Bracketed: true}, nil
}

// rawFunctions take their arguments as plain CSS text.
var rawFunctions = map[string]bool{
	"calc":       true,
	"var":        true,
	"env":        true,
	"element":    true,
	"expression": true,
	"url":        true,
	"clamp":      true,
}

func (p *exprParser) parseFunctionCall(ns string) (Value, error) {
	t := p.peek()
	p.pos++
	name, pos := t.Value, tokPos(t)
	if ns == "" && rawFunctions[strings.ToLower(name)] {
		end := findClosingParen(p.toks[p.pos:])
		if end < 0 {
			return nil, newError(ErrSyntax, pos, `expected ")".`)
		}
		inner := p.toks[p.pos : p.pos+end]
		p.pos += end + 1
		s, err := p.ev.interpolate(inner, p.scope, true)
		if err != nil {
			return nil, err
		}
		return unquoted(name + "(" + s + ")"), nil
	}
	args, err := p.parseArgList(pos)
	if err != nil {
		return nil, err
	}
	fn, err := p.ev.lookupFunction(ns, name, pos)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		prev := p.ev.callerScope
		p.ev.callerScope = p.scope
		v, err := fn.Call(p.ev, args)
		p.ev.callerScope = prev
		if err != nil {
			return nil, withPos(err, pos)
		}
		return v, nil
	}
	if args.hasNamed() {
		return nil, newError(ErrSyntax, pos, "Plain CSS functions don't support keyword arguments.")
	}
	s, err := joinCSS(args.positional, SepComma, p.ev.table)
	if err != nil {
		return nil, withPos(err, pos)
	}
	return unquoted(name + "(" + s + ")"), nil
}

func (p *exprParser) add(lhs, rhs Value) (Value, error) {
	t := p.ev.table
	if a, ok := lhs.(Number); ok {
		if b, ok := rhs.(Number); ok {
			return addNumbers(a.withoutSlash(), b.withoutSlash(), t)
		}
	}
	if _, ok := lhs.(Map); ok {
		return nil, p.undefined(lhs, "+", rhs)
	}
	if _, ok := rhs.(Map); ok {
		return nil, p.undefined(lhs, "+", rhs)
	}
	if s, ok := lhs.(String); ok {
		r, err := unquotedText(rhs, t)
		if err != nil {
			return nil, err
		}
		return String{Text: s.Text + r, Quoted: s.Quoted}, nil
	}
	l, err := toCSS(lhs, t)
	if err != nil {
		return nil, err
	}
	if s, ok := rhs.(String); ok {
		return String{Text: l + s.Text, Quoted: s.Quoted}, nil
	}
	r, err := toCSS(rhs, t)
	if err != nil {
		return nil, err
	}
	return unquoted(l + r), nil
}

func (p *exprParser) subtract(lhs, rhs Value) (Value, error) {
	t := p.ev.table
	if a, ok := lhs.(Number); ok {
		if b, ok := rhs.(Number); ok {
			return subNumbers(a.withoutSlash(), b.withoutSlash(), t)
		}
	}
	return p.joinOperands(lhs, "-", rhs)
}

func (p *exprParser) multiply(lhs, rhs Value) (Value, error) {
	a, aok := lhs.(Number)
	b, bok := rhs.(Number)
	if !aok || !bok {
		return nil, p.undefined(lhs, "*", rhs)
	}
	return mulNumbers(a.withoutSlash(), b.withoutSlash()), nil
}

func (p *exprParser) modulo(lhs, rhs Value) (Value, error) {
	a, aok := lhs.(Number)
	b, bok := rhs.(Number)
	if !aok || !bok {
		return nil, p.undefined(lhs, "%", rhs)
	}
	return modNumbers(a.withoutSlash(), b.withoutSlash(), p.ev.table)
}

// divide divides numbers. keepSlash records the source form so that
// "font: 12px/30px" prints unchanged.
func (p *exprParser) divide(lhs, rhs Value, keepSlash bool) (Value, error) {
	a, aok := lhs.(Number)
	b, bok := rhs.(Number)
	if !aok || !bok {
		return p.joinOperands(lhs, "/", rhs)
	}
	res := divNumbers(a.withoutSlash(), b.withoutSlash())
	if keepSlash {
		res.slash = inspect(a, p.ev.table) + "/" + inspect(b, p.ev.table)
	}
	return res, nil
}

func (p *exprParser) joinOperands(lhs Value, op string, rhs Value) (Value, error) {
	if _, ok := lhs.(Map); ok {
		return nil, p.undefined(lhs, op, rhs)
	}
	if _, ok := rhs.(Map); ok {
		return nil, p.undefined(lhs, op, rhs)
	}
	l, err := toCSS(lhs, p.ev.table)
	if err != nil {
		return nil, err
	}
	r, err := toCSS(rhs, p.ev.table)
	if err != nil {
		return nil, err
	}
	return unquoted(l + op + r), nil
}

func (p *exprParser) undefined(lhs Value, op string, rhs Value) error {
	return newError(ErrType, Pos{}, `Undefined operation "%s %s %s".`,
		inspect(lhs, p.ev.table), op, inspect(rhs, p.ev.table))
}

// parseNumber converts a number, percentage or dimension token.
func (ev *Evaluator) parseNumber(t *scanner.Token) (Number, error) {
	text, unit := t.Value, ""
	switch t.Type {
	case scanner.Percentage:
		text, unit = strings.TrimSuffix(t.Value, "%"), "%"
	case scanner.Dimension:
		i := numberPrefix(t.Value)
		text, unit = t.Value[:i], t.Value[i:]
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Number{}, newError(ErrSyntax, tokPos(t), "Expected number.")
	}
	n := Number{Num: f, Unit: NoUnit}
	if unit != "" {
		n.Unit = ev.table.ParseUnit(unit)
	}
	return n, nil
}

// numberPrefix returns the length of the numeric part of a dimension.
func numberPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i+1 < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if s[j] == '+' || s[j] == '-' {
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			i = j
		}
	}
	return i
}
