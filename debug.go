package scss

import (
	"fmt"
	"strings"
)

func indent(s string) string {
	ret := []string{}
	for _, line := range strings.Split(s, "\n") {
		ret = append(ret, "    "+line)
	}
	return strings.Join(ret, "\n")
}

// stmtTree prints an evaluated statement tree for debug logging.
type stmtTree struct {
	stmts []Stmt
	table *Table
}

func (st stmtTree) String() string {
	ret := []string{}
	for _, s := range st.stmts {
		ret = append(ret, st.dump(s))
	}
	return strings.Join(ret, "\n")
}

func (st stmtTree) block(head string, body []Stmt) string {
	ret := []string{head + " {"}
	for _, s := range body {
		ret = append(ret, indent(st.dump(s)))
	}
	ret = append(ret, "}")
	return strings.Join(ret, "\n")
}

func (st stmtTree) dump(s Stmt) string {
	switch x := s.(type) {
	case *RuleSet:
		return st.block(x.Selector.String(), x.Body)
	case *Style:
		return x.Name + ": " + inspect(x.Value, st.table) + ";"
	case *Comment:
		return "/*" + x.Text + "*/"
	case *Import:
		return "@import " + x.URL + ";"
	case *Media:
		return st.block("@media "+x.Query, x.Body)
	case *Supports:
		return st.block("@supports "+x.Params, x.Body)
	case *UnknownAtRule:
		return st.block("@"+x.Name+" "+x.Params, x.Body)
	case *Keyframes:
		return st.block("@"+x.Rule+" "+x.Name, x.Body)
	case *KeyframesRuleSet:
		sels := make([]string, len(x.Selectors))
		for i, k := range x.Selectors {
			sels[i] = string(k)
		}
		return st.block(strings.Join(sels, ", "), x.Body)
	case *AtRoot:
		return st.block("@at-root", x.Body)
	case *Return:
		return "@return " + inspect(x.Value, st.table) + ";"
	}
	return fmt.Sprintf("%T", s)
}

func (t tokenstream) String() string {
	ret := []string{}
	for _, tok := range t {
		ret = append(ret, tokenText(tok))
	}
	return strings.Join(ret, "")
}
