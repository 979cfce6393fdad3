package scss

import (
	"fmt"
	"strings"
)

// toplevel is one block of flat CSS.
type toplevel interface {
	toplevel()
}

type ruleSetBlock struct {
	selector Selector
	entries  []blockEntry
}

type keyframesRuleSetBlock struct {
	selectors []KeyframesSelector
	entries   []blockEntry
}

type commentBlock struct{ text string }

type unknownAtRuleBlock struct {
	name, params string
	body         []Stmt
}

type keyframesBlock struct {
	rule, name string
	body       []Stmt
}

type mediaBlock struct {
	query string
	body  []Stmt
}

type supportsBlock struct {
	params string
	body   []Stmt
}

type styleBlock struct{ style *Style }

type importBlock struct{ url string }

// newlineBlock asks for a blank line before the next written block.
type newlineBlock struct{}

func (*ruleSetBlock) toplevel()          {}
func (*keyframesRuleSetBlock) toplevel() {}
func (*commentBlock) toplevel()          {}
func (*unknownAtRuleBlock) toplevel()    {}
func (*keyframesBlock) toplevel()        {}
func (*mediaBlock) toplevel()            {}
func (*supportsBlock) toplevel()         {}
func (*styleBlock) toplevel()            {}
func (*importBlock) toplevel()           {}
func (newlineBlock) toplevel()           {}

// blockEntry is a line inside a rule: a declaration or a comment.
type blockEntry interface {
	entryText(t *Table) (string, error)
}

type styleEntry struct{ style *Style }

type commentEntry string

func (e styleEntry) entryText(t *Table) (string, error) { return e.style.CSS(t) }

func (e commentEntry) entryText(*Table) (string, error) { return "/*" + string(e) + "*/", nil }

// Css is the flat form of a statement tree.
type Css struct {
	blocks        []toplevel
	plainImports  []toplevel
	inAtRule      bool
	allowsCharset bool
	table         *Table
}

func newCss(inAtRule, allowsCharset bool, t *Table) *Css {
	return &Css{inAtRule: inAtRule, allowsCharset: allowsCharset, table: t}
}

// Render flattens stmts and serializes them as expanded CSS.
func Render(stmts []Stmt, t *Table, allowsCharset bool) (string, error) {
	css := newCss(false, allowsCharset, t)
	if err := css.flatten(stmts); err != nil {
		return "", err
	}
	return css.render()
}

func pushEntry(block toplevel, e blockEntry) {
	switch b := block.(type) {
	case *ruleSetBlock:
		b.entries = append(b.entries, e)
	case *keyframesRuleSetBlock:
		b.entries = append(b.entries, e)
	default:
		invariant("entry pushed into %T", block)
	}
}

func pushStyle(block toplevel, s *Style) {
	if isNull(s.Value) {
		return
	}
	pushEntry(block, styleEntry{s})
}

func (c *Css) flattenStmt(stmt Stmt) ([]toplevel, error) {
	switch s := stmt.(type) {
	case *RuleSet:
		if len(s.Body) == 0 {
			return nil, nil
		}
		sel := s.Selector.RemovePlaceholders()
		if sel.IsEmpty() {
			return nil, nil
		}
		head := &ruleSetBlock{selector: sel}
		vals := []toplevel{head}
		for _, child := range s.Body {
			switch r := child.(type) {
			case *RuleSet:
				sub, err := c.flattenStmt(r)
				if err != nil {
					return nil, err
				}
				vals = append(vals, sub...)
			case *Style:
				pushStyle(head, r)
			case *Comment:
				pushEntry(head, commentEntry(r.Text))
			case *Media:
				vals = append(vals, &mediaBlock{query: r.Query, body: r.Body})
			case *Supports:
				vals = append(vals, &supportsBlock{params: r.Params, body: r.Body})
			case *UnknownAtRule:
				vals = append(vals, &unknownAtRuleBlock{name: r.Name, params: r.Params, body: r.Body})
			case *Keyframes:
				vals = append(vals, &keyframesBlock{rule: r.Rule, name: r.Name, body: r.Body})
			case *AtRoot:
				for _, inner := range r.Body {
					sub, err := c.flattenStmt(inner)
					if err != nil {
						return nil, err
					}
					vals = append(vals, sub...)
				}
			case *Import:
				c.plainImports = append(c.plainImports, &importBlock{url: r.URL})
			case *Return:
				invariant("@return inside a style rule")
			case *KeyframesRuleSet:
				invariant("keyframe block inside a style rule")
			default:
				invariant("unexpected statement %T in a style rule", child)
			}
		}
		return vals, nil
	case *KeyframesRuleSet:
		if len(s.Body) == 0 {
			return nil, nil
		}
		head := &keyframesRuleSetBlock{selectors: s.Selectors}
		vals := []toplevel{head}
		for _, child := range s.Body {
			switch r := child.(type) {
			case *Style:
				pushStyle(head, r)
			case *Comment:
				pushEntry(head, commentEntry(r.Text))
			case *KeyframesRuleSet:
				sub, err := c.flattenStmt(r)
				if err != nil {
					return nil, err
				}
				vals = append(vals, sub...)
			default:
				invariant("unexpected statement %T in a keyframe block", child)
			}
		}
		return vals, nil
	case *Comment:
		return []toplevel{&commentBlock{text: s.Text}}, nil
	case *Import:
		c.plainImports = append(c.plainImports, &importBlock{url: s.URL})
		return nil, nil
	case *Style:
		return []toplevel{&styleBlock{style: s}}, nil
	case *Media:
		return []toplevel{&mediaBlock{query: s.Query, body: s.Body}}, nil
	case *Supports:
		return []toplevel{&supportsBlock{params: s.Params, body: s.Body}}, nil
	case *UnknownAtRule:
		return []toplevel{&unknownAtRuleBlock{name: s.Name, params: s.Params, body: s.Body}}, nil
	case *Keyframes:
		return []toplevel{&keyframesBlock{rule: s.Rule, name: s.Name, body: s.Body}}, nil
	case *AtRoot:
		var vals []toplevel
		for _, inner := range s.Body {
			sub, err := c.flattenStmt(inner)
			if err != nil {
				return nil, err
			}
			vals = append(vals, sub...)
		}
		return vals, nil
	case *Return:
		invariant("@return outside of a function")
	}
	invariant("unexpected statement %T", stmt)
	return nil, nil
}

func commentOnly(vals []toplevel) bool {
	for _, v := range vals {
		if _, ok := v.(*commentBlock); !ok {
			return false
		}
	}
	return true
}

// flatten appends the blocks for stmts. Groups of blocks produced by
// consecutive statements are separated by newline markers unless the previous
// group only held comments.
func (c *Css) flatten(stmts []Stmt) error {
	isFirst := true
	prevCommentOnly := false
	for _, stmt := range stmts {
		vals, err := c.flattenStmt(stmt)
		if err != nil {
			return err
		}
		if len(vals) == 0 {
			continue
		}
		if isFirst {
			isFirst = false
		} else if !prevCommentOnly {
			c.blocks = append(c.blocks, newlineBlock{})
		}
		prevCommentOnly = commentOnly(vals)
		c.blocks = append(c.blocks, vals...)
	}
	if len(c.plainImports) > 0 {
		c.blocks = append(c.plainImports, c.blocks...)
		c.plainImports = nil
	}
	return nil
}

func hasNonASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return true
		}
	}
	return false
}

// render serializes and drains the blocks.
func (c *Css) render() (string, error) {
	var b strings.Builder
	if err := c.write(&b, 0); err != nil {
		return "", err
	}
	out := b.String()
	if c.allowsCharset && hasNonASCII(out) {
		return "@charset \"UTF-8\";\n" + out, nil
	}
	return out, nil
}

// renderNested writes body as the content of an at-rule.
func (c *Css) renderNested(b *strings.Builder, body []Stmt, nesting int) error {
	inner := newCss(true, c.allowsCharset, c.table)
	if err := inner.flatten(body); err != nil {
		return err
	}
	return inner.write(b, nesting+1)
}

func (c *Css) writeEntries(b *strings.Builder, pad string, entries []blockEntry) error {
	for _, e := range entries {
		s, err := e.entryText(c.table)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%s  %s\n", pad, s)
	}
	return nil
}

func (c *Css) write(b *strings.Builder, nesting int) error {
	pad := strings.Repeat("  ", nesting)
	hasWritten := false
	pending := false
	emitNewline := func() {
		if pending && !c.inAtRule {
			b.WriteByte('\n')
		}
		pending = false
	}
	blocks := c.blocks
	c.blocks = nil
	for _, block := range blocks {
		switch blk := block.(type) {
		case *ruleSetBlock:
			if len(blk.entries) == 0 {
				continue
			}
			hasWritten = true
			emitNewline()
			fmt.Fprintf(b, "%s%s {\n", pad, blk.selector)
			if err := c.writeEntries(b, pad, blk.entries); err != nil {
				return err
			}
			fmt.Fprintf(b, "%s}\n", pad)
		case *keyframesRuleSetBlock:
			if len(blk.entries) == 0 {
				continue
			}
			hasWritten = true
			emitNewline()
			sels := make([]string, len(blk.selectors))
			for i, s := range blk.selectors {
				sels[i] = string(s)
			}
			fmt.Fprintf(b, "%s%s {\n", pad, strings.Join(sels, ", "))
			if err := c.writeEntries(b, pad, blk.entries); err != nil {
				return err
			}
			fmt.Fprintf(b, "%s}\n", pad)
		case *commentBlock:
			hasWritten = true
			emitNewline()
			fmt.Fprintf(b, "%s/*%s*/\n", pad, blk.text)
		case *importBlock:
			hasWritten = true
			emitNewline()
			fmt.Fprintf(b, "%s@import %s;\n", pad, blk.url)
		case *unknownAtRuleBlock:
			hasWritten = true
			emitNewline()
			b.WriteString(pad + "@" + blk.name)
			if blk.params != "" {
				b.WriteString(" " + blk.params)
			}
			if len(blk.body) == 0 {
				b.WriteString(";\n")
				continue
			}
			b.WriteString(" {\n")
			if err := c.renderNested(b, blk.body, nesting); err != nil {
				return err
			}
			fmt.Fprintf(b, "%s}\n", pad)
		case *keyframesBlock:
			hasWritten = true
			emitNewline()
			b.WriteString(pad + "@" + blk.rule)
			if blk.name != "" {
				b.WriteString(" " + blk.name)
			}
			if len(blk.body) == 0 {
				b.WriteString(" {}\n")
				continue
			}
			b.WriteString(" {\n")
			if err := c.renderNested(b, blk.body, nesting); err != nil {
				return err
			}
			fmt.Fprintf(b, "%s}\n", pad)
		case *supportsBlock:
			hasWritten = true
			emitNewline()
			b.WriteString(pad + "@supports")
			if blk.params != "" {
				b.WriteString(" " + blk.params)
			}
			if len(blk.body) == 0 {
				b.WriteString(";\n")
				continue
			}
			b.WriteString(" {\n")
			if err := c.renderNested(b, blk.body, nesting); err != nil {
				return err
			}
			fmt.Fprintf(b, "%s}\n", pad)
		case *mediaBlock:
			if len(blk.body) == 0 {
				continue
			}
			hasWritten = true
			emitNewline()
			fmt.Fprintf(b, "%s@media %s {\n", pad, blk.query)
			if err := c.renderNested(b, blk.body, nesting); err != nil {
				return err
			}
			fmt.Fprintf(b, "%s}\n", pad)
		case *styleBlock:
			if isNull(blk.style.Value) {
				continue
			}
			s, err := blk.style.CSS(c.table)
			if err != nil {
				return err
			}
			hasWritten = true
			emitNewline()
			fmt.Fprintf(b, "%s%s\n", pad, s)
		case newlineBlock:
			if hasWritten {
				pending = true
			}
		default:
			invariant("unexpected block %T", block)
		}
	}
	return nil
}
