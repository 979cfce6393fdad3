package scss

import (
	"strings"

	"github.com/andybalholm/cascadia"
)

// Selector is a selector list. Each entry is a complex selector in
// normalized form.
type Selector struct {
	complex []string
}

// ParseSelector splits a selector list at top level commas and normalizes
// white space and combinators.
func ParseSelector(text string) Selector {
	var sel Selector
	for _, part := range splitSelector(text, ',') {
		if c := normalizeComplex(part); c != "" {
			sel.complex = append(sel.complex, c)
		}
	}
	return sel
}

// IsEmpty reports whether the list has no selectors.
func (s Selector) IsEmpty() bool { return len(s.complex) == 0 }

// Complex returns the complex selectors of the list.
func (s Selector) Complex() []string { return s.complex }

func (s Selector) String() string { return strings.Join(s.complex, ", ") }

// splitSelector splits text at sep outside of strings, parentheses and
// brackets.
func splitSelector(text string, sep byte) []string {
	var parts []string
	var quote byte
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, text[start:i])
			start = i + 1
		}
	}
	return append(parts, text[start:])
}

func isCombinator(c byte) bool { return c == '>' || c == '+' || c == '~' }

// normalizeComplex collapses white space and puts exactly one space around
// combinators at the top level.
func normalizeComplex(text string) string {
	var b strings.Builder
	var quote byte
	depth := 0
	pendingSpace := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(text) {
				i++
				b.WriteByte(text[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			if depth == 0 {
				pendingSpace = b.Len() > 0
				continue
			}
		case depth == 0 && isCombinator(c):
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte(c)
			pendingSpace = true
			continue
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteByte(c)
	}
	return strings.TrimSpace(b.String())
}

// hasParentRef reports whether c contains & outside of strings.
func hasParentRef(c string) bool {
	var quote byte
	for i := 0; i < len(c); i++ {
		switch {
		case quote != 0:
			if c[i] == '\\' {
				i++
			} else if c[i] == quote {
				quote = 0
			}
		case c[i] == '"' || c[i] == '\'':
			quote = c[i]
		case c[i] == '&':
			return true
		}
	}
	return false
}

func replaceParentRef(c, parent string) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(c); i++ {
		ch := c[i]
		switch {
		case quote != 0:
			if ch == '\\' && i+1 < len(c) {
				b.WriteByte(ch)
				i++
				ch = c[i]
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '&':
			b.WriteString(parent)
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// HasParentRef reports whether any selector of the list uses &.
func (s Selector) HasParentRef() bool {
	for _, c := range s.complex {
		if hasParentRef(c) {
			return true
		}
	}
	return false
}

// Resolve nests s inside parent. Selectors that contain & have it replaced by
// the parent selector, all others become descendants of the parent.
func (s Selector) Resolve(parent Selector) Selector {
	if parent.IsEmpty() {
		return s
	}
	var ret Selector
	for _, p := range parent.complex {
		for _, c := range s.complex {
			if hasParentRef(c) {
				ret.complex = append(ret.complex, replaceParentRef(c, p))
			} else {
				ret.complex = append(ret.complex, p+" "+c)
			}
		}
	}
	return ret
}

// isPlaceholder reports whether a complex selector contains a %placeholder.
func isPlaceholder(c string) bool {
	var quote byte
	depth := 0
	for i := 0; i < len(c); i++ {
		switch ch := c[i]; {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '[' || ch == '(':
			depth++
		case ch == ']' || ch == ')':
			depth--
		case ch == '%' && depth == 0:
			return true
		}
	}
	return false
}

// RemovePlaceholders drops every complex selector that contains a
// placeholder.
func (s Selector) RemovePlaceholders() Selector {
	var ret Selector
	for _, c := range s.complex {
		if !isPlaceholder(c) {
			ret.complex = append(ret.complex, c)
		}
	}
	return ret
}

// Validate checks the selector list with a CSS selector engine. Selectors
// with pseudo classes unknown to the engine are reported too, so the result
// is advisory.
func (s Selector) Validate() error {
	_, err := cascadia.ParseGroup(s.String())
	return err
}

func parseKeyframesSelectors(text string) []KeyframesSelector {
	var ret []KeyframesSelector
	for _, part := range splitSelector(text, ',') {
		part = strings.TrimSpace(part)
		switch lower := strings.ToLower(part); lower {
		case "":
			continue
		case "from", "to":
			part = lower
		}
		ret = append(ret, KeyframesSelector(part))
	}
	return ret
}
