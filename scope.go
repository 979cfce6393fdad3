package scss

import "strings"

// normalizeName makes underscores and hyphens interchangeable in identifiers.
func normalizeName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// Scope maps variable names to values and is chained to a parent scope.
type Scope struct {
	vars   map[string]Value
	parent *Scope
	// flow scopes belong to control directives; assignments inside them
	// update variables of the enclosing scope.
	flow bool
}

// NewScope returns an empty scope whose lookups fall through to parent.
func NewScope(parent *Scope) *Scope {
	return &Scope{vars: make(map[string]Value), parent: parent}
}

func newFlowScope(parent *Scope) *Scope {
	s := NewScope(parent)
	s.flow = true
	return s
}

// Get looks name up in s and its ancestors.
func (s *Scope) Get(name string) (Value, bool) {
	name = normalizeName(name)
	for c := s; c != nil; c = c.parent {
		if v, ok := c.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set binds name in s itself.
func (s *Scope) Set(name string, v Value) {
	s.vars[normalizeName(name)] = v
}

// assign implements a plain "$name: value" declaration.
func (s *Scope) assign(name string, v Value) {
	name = normalizeName(name)
	c := s
	for {
		if _, ok := c.vars[name]; ok {
			c.vars[name] = v
			return
		}
		if !c.flow || c.parent == nil {
			break
		}
		c = c.parent
	}
	if c.parent == nil {
		c.vars[name] = v
		return
	}
	s.vars[name] = v
}

func (s *Scope) root() *Scope {
	c := s
	for c.parent != nil {
		c = c.parent
	}
	return c
}

func (s *Scope) names() []string {
	ret := make([]string, 0, len(s.vars))
	for k := range s.vars {
		ret = append(ret, k)
	}
	return ret
}
