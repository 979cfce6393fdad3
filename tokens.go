package scss

import (
	"strings"

	"github.com/speedata/css/scanner"
)

// tokenstream is a list of CSS tokens
type tokenstream []*scanner.Token

// blankLineComments replaces // comments with spaces so that the CSS scanner
// never sees them. Line breaks are kept, so token positions stay intact.
func blankLineComments(src string) string {
	b := []byte(src)
	var quote byte
	inURL := false
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote || c == '\n' {
				quote = 0
			}
		case inURL:
			if c == ')' {
				inURL = false
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(b) && b[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return string(b)
			}
			i += end + 3
		case c == '/' && i+1 < len(b) && b[i+1] == '/':
			for i < len(b) && b[i] != '\n' {
				b[i] = ' '
				i++
			}
		case (c == 'u' || c == 'U') && i+4 <= len(b) && strings.EqualFold(src[i:i+4], "url("):
			j := i + 4
			for j < len(b) && (b[j] == ' ' || b[j] == '\t') {
				j++
			}
			if j < len(b) && b[j] != '"' && b[j] != '\'' {
				inURL = true
			}
			i += 3
		}
	}
	return string(b)
}

// tokenize splits src into CSS tokens and normalizes the token values.
func tokenize(src string) (tokenstream, error) {
	s := scanner.New(blankLineComments(src))
	var toks tokenstream
	for {
		tok := s.Next()
		switch tok.Type {
		case scanner.EOF:
			return toks, nil
		case scanner.Error:
			return nil, newError(ErrSyntax, Pos{Line: tok.Line, Column: tok.Column}, "%s", tok.Value)
		case scanner.Hash:
			tok.Value = strings.TrimPrefix(tok.Value, "#")
		case scanner.AtKeyword:
			tok.Value = strings.TrimPrefix(tok.Value, "@")
		case scanner.Function:
			tok.Value = strings.TrimSuffix(tok.Value, "(")
		case scanner.String:
			tok.Value = unquoteToken(tok.Value)
		}
		toks = append(toks, tok)
	}
}

// unquoteToken strips the quotes of a string token and resolves escapes.
func unquoteToken(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			if s[i] == '\n' {
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func tokPos(t *scanner.Token) Pos {
	if t == nil {
		return Pos{}
	}
	return Pos{Line: t.Line, Column: t.Column}
}

func isDelim(t *scanner.Token, v string) bool {
	return t != nil && t.Type == scanner.Delim && t.Value == v
}

func isIdent(t *scanner.Token, v string) bool {
	return t != nil && t.Type == scanner.Ident && strings.EqualFold(t.Value, v)
}

func isSpace(t *scanner.Token) bool {
	return t != nil && (t.Type == scanner.S || t.Type == scanner.Comment)
}

// tokenText returns the source form of a single token.
func tokenText(t *scanner.Token) string {
	switch t.Type {
	case scanner.Hash:
		return "#" + t.Value
	case scanner.AtKeyword:
		return "@" + t.Value
	case scanner.Function:
		return t.Value + "("
	case scanner.Percentage:
		if strings.HasSuffix(t.Value, "%") {
			return t.Value
		}
		return t.Value + "%"
	case scanner.String:
		return quoteString(t.Value)
	case scanner.URI:
		if strings.HasPrefix(strings.ToLower(t.Value), "url(") {
			return t.Value
		}
		return "url(" + t.Value + ")"
	case scanner.Local:
		return `local("` + strings.Trim(t.Value, `"'`) + `")`
	case scanner.Format:
		return `format("` + strings.Trim(t.Value, `"'`) + `")`
	case scanner.Tech:
		return "tech(" + t.Value + ")"
	}
	return t.Value
}

// trimSpace removes leading and trailing white space and comments.
func trimSpace(toks tokenstream) tokenstream {
	i := 0
	for i < len(toks) && isSpace(toks[i]) {
		i++
	}
	j := len(toks)
	for j > i && isSpace(toks[j-1]) {
		j--
	}
	return toks[i:j]
}

// isInterpolation reports whether toks[i] starts a #{ sequence.
func isInterpolation(toks tokenstream, i int) bool {
	return i+1 < len(toks) && isDelim(toks[i], "#") && isDelim(toks[i+1], "{")
}

// findClosingBrace returns the position after the "}" that closes a block
// whose "{" has already been consumed.
func findClosingBrace(toks tokenstream) int {
	level := 1
	for i, t := range toks {
		if t.Type == scanner.Delim {
			switch t.Value {
			case "{":
				level++
			case "}":
				level--
				if level == 0 {
					return i + 1
				}
			}
		}
	}
	return len(toks)
}

// findClosingParen returns the index of the ")" matching an opening paren
// (or function token) that has already been consumed, or -1.
func findClosingParen(toks tokenstream) int {
	level := 1
	for i, t := range toks {
		switch {
		case t.Type == scanner.Function || isDelim(t, "("):
			level++
		case isDelim(t, ")"):
			level--
			if level == 0 {
				return i
			}
		}
	}
	return -1
}

// readUntil scans toks for the first delimiter in stops that is not nested in
// parentheses, brackets or interpolation. It returns the index of that token
// or len(toks).
func readUntil(toks tokenstream, stops ...string) int {
	var parens, interp int
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Type == scanner.Function {
			parens++
			continue
		}
		if t.Type != scanner.Delim {
			continue
		}
		if isInterpolation(toks, i) {
			interp++
			i++
			continue
		}
		switch t.Value {
		case "(", "[":
			parens++
			continue
		case ")", "]":
			if parens > 0 {
				parens--
				continue
			}
		case "{":
			if interp > 0 {
				interp++
				continue
			}
		case "}":
			if interp > 0 {
				interp--
				continue
			}
		}
		if parens > 0 || interp > 0 {
			continue
		}
		for _, s := range stops {
			if t.Value == s {
				return i
			}
		}
	}
	return len(toks)
}

// splitTopLevel splits toks at top level occurrences of sep.
func splitTopLevel(toks tokenstream, sep string) []tokenstream {
	var ret []tokenstream
	for {
		i := readUntil(toks, sep)
		ret = append(ret, toks[:i])
		if i == len(toks) {
			return ret
		}
		toks = toks[i+1:]
	}
}

// mustTokenize is used for short internal sources such as builtin
// signatures.
func mustTokenize(src string) tokenstream {
	toks, err := tokenize(src)
	if err != nil {
		panic(err)
	}
	return toks
}
