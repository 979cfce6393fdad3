package scss

import (
	"github.com/speedata/css/scanner"
)

// parseArgList reads the arguments of a call up to and including the closing
// parenthesis. The opening parenthesis has been consumed already.
func (p *exprParser) parseArgList(pos Pos) (*CallArgs, error) {
	args := NewCallArgs(pos)
	p.parens++
	defer func() { p.parens-- }()
	for {
		p.skipSpace()
		t := p.peek()
		if t == nil {
			return nil, newError(ErrSyntax, p.errPos(), `expected ")".`)
		}
		if isDelim(t, ")") {
			p.pos++
			return args, nil
		}
		name := p.argName()
		if name == "" && args.hasNamed() {
			return nil, newError(ErrSyntax, tokPos(t), "Positional arguments must come before keyword arguments.")
		}
		v, err := p.parseSpaceList()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		switch {
		case p.atSpread():
			if name != "" {
				return nil, newError(ErrInvalidSpread, tokPos(p.peek()), `expected ")".`)
			}
			p.pos += 3
			if err := p.spread(args, v, tokPos(t)); err != nil {
				return nil, err
			}
		case isDelim(p.peek(), "."):
			return nil, newError(ErrInvalidSpread, tokPos(p.peek()), `expected "...".`)
		case isDelim(p.peek(), "="):
			// legacy filter syntax: alpha(opacity=50)
			p.pos++
			p.skipSpace()
			rhs, err := p.parseSpaceList()
			if err != nil {
				return nil, err
			}
			v, err = p.joinOperands(v, "=", rhs)
			if err != nil {
				return nil, withPos(err, tokPos(t))
			}
			fallthrough
		default:
			if name == "" {
				args.Add(v)
			} else if err := args.AddNamed(name, v); err != nil {
				return nil, withPos(err, tokPos(t))
			}
		}
		p.skipSpace()
		t = p.peek()
		switch {
		case isDelim(t, ","):
			p.pos++
		case isDelim(t, ")"):
			p.pos++
			return args, nil
		default:
			return nil, newError(ErrSyntax, p.errPos(), `expected ")".`)
		}
	}
}

// argName consumes "$name:" and returns name, or returns "" and leaves the
// cursor alone.
func (p *exprParser) argName() string {
	if !isDelim(p.peek(), "$") {
		return ""
	}
	ident := p.at(p.pos + 1)
	if ident == nil || ident.Type != scanner.Ident {
		return ""
	}
	save := p.pos
	p.pos += 2
	p.skipSpace()
	if isDelim(p.peek(), ":") {
		p.pos++
		p.skipSpace()
		return ident.Value
	}
	p.pos = save
	return ""
}

// spread expands v into args: lists and argument lists positionally, maps by
// name.
func (p *exprParser) spread(args *CallArgs, v Value, pos Pos) error {
	switch x := v.(type) {
	case ArgList:
		for _, item := range x.Items {
			args.Add(item)
		}
		for _, kw := range x.Keywords {
			s, _ := kw.Key.(String)
			if err := args.AddNamed(s.Text, kw.Value); err != nil {
				return withPos(err, pos)
			}
		}
	case List:
		for _, item := range x.Items {
			args.Add(item)
		}
	case Map:
		for _, e := range x.Entries {
			s, ok := e.Key.(String)
			if !ok {
				return newError(ErrInvalidSpread, pos, "%s is not a string in %s.",
					inspect(e.Key, p.ev.table), inspect(x, p.ev.table))
			}
			if err := args.AddNamed(s.Text, e.Value); err != nil {
				return withPos(err, pos)
			}
		}
	default:
		args.Add(v)
	}
	return nil
}
