package scss

import (
	"strings"

	"github.com/speedata/css/scanner"
)

// node is a statement of the source stylesheet.
type node interface {
	position() Pos
}

type ruleNode struct {
	selector tokenstream
	body     []node
	pos      Pos
}

type declNode struct {
	name   tokenstream
	value  tokenstream
	custom bool
	pos    Pos
}

type varNode struct {
	name    string
	value   tokenstream
	global  bool
	guarded bool
	pos     Pos
}

type commentNode struct {
	text string
	pos  Pos
}

type atRuleNode struct {
	name    string
	params  tokenstream
	body    []node
	hasBody bool
	pos     Pos
}

type ifClause struct {
	cond tokenstream // nil for the final @else
	body []node
}

type ifNode struct {
	clauses []ifClause
	pos     Pos
}

func (n *ruleNode) position() Pos    { return n.pos }
func (n *declNode) position() Pos    { return n.pos }
func (n *varNode) position() Pos     { return n.pos }
func (n *commentNode) position() Pos { return n.pos }
func (n *atRuleNode) position() Pos  { return n.pos }
func (n *ifNode) position() Pos      { return n.pos }

type parser struct {
	toks tokenstream
	pos  int
}

// parse turns source text into a list of statements.
func parse(src string) ([]node, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseStatements(false)
}

func (p *parser) eof() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() *scanner.Token {
	if p.eof() {
		return nil
	}
	return p.toks[p.pos]
}

func (p *parser) lastPos() Pos {
	if len(p.toks) == 0 {
		return Pos{Line: 1, Column: 1}
	}
	return tokPos(p.toks[len(p.toks)-1])
}

func (p *parser) skipWhitespace() {
	for !p.eof() && p.toks[p.pos].Type == scanner.S {
		p.pos++
	}
}

func (p *parser) skipSpaceAndComments() {
	for !p.eof() && isSpace(p.toks[p.pos]) {
		p.pos++
	}
}

// parseStatements reads statements up to the closing brace of the current
// block (which it consumes) or to the end of input at top level.
func (p *parser) parseStatements(inBlock bool) ([]node, error) {
	var nodes []node
	for {
		p.skipWhitespace()
		t := p.peek()
		switch {
		case t == nil:
			if inBlock {
				return nil, newError(ErrSyntax, p.lastPos(), `expected "}".`)
			}
			return nodes, nil
		case t.Type == scanner.Comment:
			p.pos++
			nodes = append(nodes, &commentNode{text: t.Value, pos: tokPos(t)})
		case isDelim(t, "}"):
			if !inBlock {
				return nil, newError(ErrSyntax, tokPos(t), `unmatched "}".`)
			}
			p.pos++
			return nodes, nil
		case isDelim(t, ";"):
			p.pos++
		case t.Type == scanner.AtKeyword:
			n, err := p.parseAtRule()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case isDelim(t, "$") && p.pos+1 < len(p.toks) && p.toks[p.pos+1].Type == scanner.Ident:
			n, err := p.parseVariable()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		default:
			n, err := p.parseRuleOrDeclaration()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
	}
}

// readStatement returns the tokens up to the next top level stop token and
// the stop token itself (nil at end of input). The stop token is not
// consumed.
func (p *parser) readStatement(stops ...string) (tokenstream, *scanner.Token) {
	rest := p.toks[p.pos:]
	i := readUntil(rest, stops...)
	p.pos += i
	if i == len(rest) {
		return rest, nil
	}
	return rest[:i], rest[i]
}

func (p *parser) parseBody() ([]node, error) {
	p.pos++ // {
	return p.parseStatements(true)
}

func (p *parser) parseAtRule() (node, error) {
	start := p.peek()
	p.pos++
	name := start.Value
	if strings.EqualFold(name, "if") {
		return p.parseIf(start)
	}
	params, stop := p.readStatement(";", "{", "}")
	n := &atRuleNode{name: name, params: trimSpace(params), pos: tokPos(start)}
	switch {
	case isDelim(stop, ";"):
		p.pos++
	case isDelim(stop, "{"):
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		n.body = body
		n.hasBody = true
	}
	return n, nil
}

func (p *parser) parseIf(start *scanner.Token) (node, error) {
	n := &ifNode{pos: tokPos(start)}
	cond, stop := p.readStatement("{", ";", "}")
	cond = trimSpace(cond)
	if len(cond) == 0 {
		return nil, newError(ErrSyntax, tokPos(start), "Expected expression.")
	}
	isElse := false
	for {
		if !isDelim(stop, "{") {
			return nil, newError(ErrSyntax, tokPos(start), `expected "{".`)
		}
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		clause := ifClause{body: body}
		if !isElse {
			clause.cond = cond
		}
		n.clauses = append(n.clauses, clause)
		if isElse {
			return n, nil
		}
		save := p.pos
		p.skipSpaceAndComments()
		t := p.peek()
		if t == nil || t.Type != scanner.AtKeyword || !strings.EqualFold(t.Value, "else") {
			p.pos = save
			return n, nil
		}
		p.pos++
		p.skipWhitespace()
		if isIdent(p.peek(), "if") {
			p.pos++
			cond, stop = p.readStatement("{", ";", "}")
			cond = trimSpace(cond)
			if len(cond) == 0 {
				return nil, newError(ErrSyntax, tokPos(t), "Expected expression.")
			}
		} else {
			isElse = true
			stop = p.peek()
		}
	}
}

func (p *parser) parseVariable() (node, error) {
	start := p.peek()
	p.pos++
	name := p.peek().Value
	p.pos++
	p.skipWhitespace()
	if !isDelim(p.peek(), ":") {
		return nil, newError(ErrSyntax, tokPos(start), `expected ":".`)
	}
	p.pos++
	value, stop := p.readStatement(";", "}")
	if isDelim(stop, ";") {
		p.pos++
	}
	n := &varNode{name: name, pos: tokPos(start)}
	value = trimSpace(value)
flags:
	for len(value) >= 2 {
		last, bang := value[len(value)-1], value[len(value)-2]
		if !isDelim(bang, "!") || last.Type != scanner.Ident {
			break
		}
		switch strings.ToLower(last.Value) {
		case "default":
			n.guarded = true
		case "global":
			n.global = true
		case "important":
			break flags
		default:
			return nil, newError(ErrSyntax, tokPos(bang), "Invalid flag name.")
		}
		value = trimSpace(value[:len(value)-2])
	}
	if len(value) == 0 {
		return nil, newError(ErrSyntax, tokPos(start), "Expected expression.")
	}
	n.value = value
	return n, nil
}

func (p *parser) parseRuleOrDeclaration() (node, error) {
	start := p.peek()
	toks, stop := p.readStatement("{", ";", "}")
	if isDelim(stop, "{") {
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		return &ruleNode{selector: trimSpace(toks), body: body, pos: tokPos(start)}, nil
	}
	if isDelim(stop, ";") {
		p.pos++
	}
	colon := readUntil(toks, ":")
	if colon == len(toks) {
		return nil, newError(ErrSyntax, tokPos(start), `expected "{".`)
	}
	name := trimSpace(toks[:colon])
	value := trimSpace(toks[colon+1:])
	if len(name) == 0 {
		return nil, newError(ErrSyntax, tokPos(start), "Expected identifier.")
	}
	custom := strings.HasPrefix(name.String(), "--")
	if len(value) == 0 && !custom {
		return nil, newError(ErrSyntax, tokPos(toks[colon]), "Expected expression.")
	}
	return &declNode{name: name, value: value, custom: custom, pos: tokPos(start)}, nil
}

// parseFuncArgs reads a declared parameter list. toks is the content between
// the parentheses.
func parseFuncArgs(toks tokenstream) (FuncArgs, error) {
	var args FuncArgs
	seen := make(map[string]bool)
	i := 0
	skip := func() {
		for i < len(toks) && isSpace(toks[i]) {
			i++
		}
	}
	for {
		skip()
		if i == len(toks) {
			return args, nil
		}
		t := toks[i]
		if !isDelim(t, "$") || i+1 == len(toks) || toks[i+1].Type != scanner.Ident {
			return nil, newError(ErrSyntax, tokPos(t), `expected ")".`)
		}
		arg := FuncArg{Name: toks[i+1].Value}
		if seen[normalizeName(arg.Name)] {
			return nil, newError(ErrSyntax, tokPos(t), "Duplicate argument.")
		}
		seen[normalizeName(arg.Name)] = true
		i += 2
		skip()
		switch {
		case i < len(toks) && isDelim(toks[i], ":"):
			i++
			end := i + readUntil(toks[i:], ",")
			arg.Default = defaultTokens(toks[i:end])
			arg.HasDefault = true
			if len(arg.Default) == 0 {
				return nil, newError(ErrSyntax, tokPos(toks[i-1]), "Expected expression.")
			}
			i = end
		case i+2 < len(toks) && isDelim(toks[i], ".") && isDelim(toks[i+1], ".") && isDelim(toks[i+2], "."):
			arg.Variadic = true
			i += 3
			skip()
			if i != len(toks) {
				return nil, newError(ErrSyntax, tokPos(toks[i]), `expected ")".`)
			}
		}
		args = append(args, arg)
		skip()
		if i == len(toks) {
			return args, nil
		}
		if !isDelim(toks[i], ",") {
			return nil, newError(ErrSyntax, tokPos(toks[i]), `expected ")".`)
		}
		i++
	}
}

// defaultTokens keeps the tokens of a default value without comments and
// surrounding white space. Strings are single tokens, so delimiters inside
// them never end the value.
func defaultTokens(toks tokenstream) tokenstream {
	var ret tokenstream
	for _, t := range trimSpace(toks) {
		if t.Type == scanner.Comment {
			continue
		}
		ret = append(ret, t)
	}
	return ret
}
