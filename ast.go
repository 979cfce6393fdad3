package scss

// Stmt is an evaluated statement. A tree of statements is the input of
// Render.
type Stmt interface {
	stmt()
}

// RuleSet is a style rule. Nested rule sets carry their fully resolved
// selector.
type RuleSet struct {
	Selector Selector
	Body     []Stmt
}

// Style is a declaration. A Style with a Null value produces no output.
type Style struct {
	Name  string
	Value Value
}

// Comment is a loud comment. Text is the part between /* and */.
type Comment struct {
	Text string
}

// Import is a plain CSS @import. URL is the text after the keyword, such as
// "foo.css" (with quotes) or url(foo.css) screen.
type Import struct {
	URL string
}

// Media is an @media rule.
type Media struct {
	Query string
	Body  []Stmt
}

// Supports is an @supports rule.
type Supports struct {
	Params string
	Body   []Stmt
}

// UnknownAtRule is any at-rule the compiler passes through unchanged.
type UnknownAtRule struct {
	Name   string
	Params string
	Body   []Stmt
}

// Keyframes is an @keyframes rule. Rule is the at-keyword, which may carry a
// vendor prefix.
type Keyframes struct {
	Rule string
	Name string
	Body []Stmt
}

// KeyframesSelector is one selector of a keyframe block: from, to or a
// percentage.
type KeyframesSelector string

// KeyframesRuleSet is a keyframe block inside @keyframes.
type KeyframesRuleSet struct {
	Selectors []KeyframesSelector
	Body      []Stmt
}

// AtRoot holds statements that are moved out of the enclosing rule.
type AtRoot struct {
	Body []Stmt
}

// Return is the result of @return. It never leaves a function body.
type Return struct {
	Value Value
}

func (*RuleSet) stmt()          {}
func (*Style) stmt()            {}
func (*Comment) stmt()          {}
func (*Import) stmt()           {}
func (*Media) stmt()            {}
func (*Supports) stmt()         {}
func (*UnknownAtRule) stmt()    {}
func (*Keyframes) stmt()        {}
func (*KeyframesRuleSet) stmt() {}
func (*AtRoot) stmt()           {}
func (*Return) stmt()           {}

// CSS returns the declaration text, for example "color: red;".
func (s *Style) CSS(t *Table) (string, error) {
	v, err := toCSS(s.Value, t)
	if err != nil {
		return "", err
	}
	return s.Name + ": " + v + ";", nil
}
