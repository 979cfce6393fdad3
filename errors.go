package scss

import (
	"errors"
	"fmt"
)

// ErrorKind classifies compilation errors.
type ErrorKind int

const (
	// ErrSyntax is a malformed source construct.
	ErrSyntax ErrorKind = iota
	// ErrArity means too many arguments, or arguments that match no
	// parameter.
	ErrArity
	// ErrMissingArgument means a required parameter got no value.
	ErrMissingArgument
	// ErrInvalidSpread is a bad "..." argument.
	ErrInvalidSpread
	// ErrUnitMismatch is arithmetic or comparison between incompatible
	// units.
	ErrUnitMismatch
	// ErrFormatting is a value that has no CSS representation.
	ErrFormatting
	// ErrUndefined is an unknown variable, function or mixin.
	ErrUndefined
	// ErrType is a value of the wrong type passed to a builtin.
	ErrType
	// ErrUser is raised by @error.
	ErrUser
	// ErrImport is a stylesheet that cannot be loaded.
	ErrImport
	// ErrModule is a module system violation.
	ErrModule
)

var kindNames = map[ErrorKind]string{
	ErrSyntax:          "syntax",
	ErrArity:           "arity",
	ErrMissingArgument: "missing argument",
	ErrInvalidSpread:   "invalid spread",
	ErrUnitMismatch:    "unit mismatch",
	ErrFormatting:      "formatting",
	ErrUndefined:       "undefined",
	ErrType:            "type",
	ErrUser:            "user",
	ErrImport:          "import",
	ErrModule:          "module",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Pos is a position in the source text. Line and Column start at 1, the zero
// value means unknown.
type Pos struct {
	Line   int
	Column int
}

// IsValid reports whether the position is known.
func (p Pos) IsValid() bool { return p.Line > 0 }

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }

// Error is a user facing compilation error.
type Error struct {
	Kind    ErrorKind
	Message string
	Pos     Pos
	File    string
}

func (e *Error) Error() string {
	switch {
	case e.File != "" && e.Pos.IsValid():
		return fmt.Sprintf("%s:%s: Error: %s", e.File, e.Pos, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: Error: %s", e.File, e.Message)
	case e.Pos.IsValid():
		return fmt.Sprintf("%s: Error: %s", e.Pos, e.Message)
	}
	return "Error: " + e.Message
}

func newError(kind ErrorKind, pos Pos, format string, a ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...), Pos: pos}
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// withPos fills in the position of err if it is an *Error without one.
func withPos(err error, pos Pos) error {
	var e *Error
	if errors.As(err, &e) && !e.Pos.IsValid() {
		e.Pos = pos
	}
	return err
}

// withFile records the file name on errors that have none yet.
func withFile(err error, file string) error {
	var e *Error
	if errors.As(err, &e) && e.File == "" {
		e.File = file
	}
	return err
}

// InternalError signals a broken invariant between the evaluator and the
// output stages. It is raised with panic and never turned into a diagnostic.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return "internal error: " + e.Message }

func invariant(format string, a ...any) {
	panic(&InternalError{Message: fmt.Sprintf(format, a...)})
}
