package interp

import (
	"fmt"

	"github.com/yelongll/rust/pkg/compiler"
)

// ErrorKind classifies a runtime failure.
type ErrorKind int

const (
	UndefinedVariable ErrorKind = iota
	UndefinedFunction
	NotCallable
	ArityMismatch
	TypeMismatch
	NotAnArray
	BadIndex
	IndexOutOfRange
	DivisionByZero
	NotIterable
	ControlOutsideLoop
	StackOverflow
	Interrupted
)

// RuntimeError aborts a running program. Only the fields relevant to Kind
// are set.
type RuntimeError struct {
	Kind     ErrorKind
	Name     string // variable, function or keyword involved
	Op       string // operator or array operation
	Left     string // operand type names
	Right    string
	Index    float64
	Length   int
	Expected int
	Got      int
}

func (e *RuntimeError) Error() string {
	switch e.Kind {
	case UndefinedVariable:
		return "undefined variable: " + e.Name
	case UndefinedFunction:
		return "undefined function: " + e.Name
	case NotCallable:
		return e.Name + " is not a function"
	case ArityMismatch:
		return fmt.Sprintf("%s expects %d arguments, got %d", e.Name, e.Expected, e.Got)
	case TypeMismatch:
		return fmt.Sprintf("type mismatch: cannot apply '%s' to %s and %s", e.Op, e.Left, e.Right)
	case NotAnArray:
		return fmt.Sprintf("%s requires an array, got %s", e.Op, e.Left)
	case BadIndex:
		return fmt.Sprintf("%s requires a numeric index, got %s", e.Op, e.Right)
	case IndexOutOfRange:
		return fmt.Sprintf("index out of range: index %s, length %d", compiler.FormatNumber(e.Index), e.Length)
	case DivisionByZero:
		return "division by zero"
	case NotIterable:
		return "can only iterate over a string, got " + e.Left
	case ControlOutsideLoop:
		return e.Name + " outside loop"
	case StackOverflow:
		return fmt.Sprintf("stack overflow: call depth exceeds %d", e.Expected)
	case Interrupted:
		return "interrupted"
	}
	return "runtime error"
}

// Is matches any RuntimeError of the same kind, so that
// errors.Is(err, ErrDivisionByZero) works on errors with populated fields.
func (e *RuntimeError) Is(target error) bool {
	t, ok := target.(*RuntimeError)
	return ok && t.Kind == e.Kind
}

var (
	ErrUndefinedVariable  = &RuntimeError{Kind: UndefinedVariable}
	ErrUndefinedFunction  = &RuntimeError{Kind: UndefinedFunction}
	ErrNotCallable        = &RuntimeError{Kind: NotCallable}
	ErrArityMismatch      = &RuntimeError{Kind: ArityMismatch}
	ErrTypeMismatch       = &RuntimeError{Kind: TypeMismatch}
	ErrNotAnArray         = &RuntimeError{Kind: NotAnArray}
	ErrBadIndex           = &RuntimeError{Kind: BadIndex}
	ErrIndexOutOfRange    = &RuntimeError{Kind: IndexOutOfRange}
	ErrDivisionByZero     = &RuntimeError{Kind: DivisionByZero}
	ErrNotIterable        = &RuntimeError{Kind: NotIterable}
	ErrControlOutsideLoop = &RuntimeError{Kind: ControlOutsideLoop}
	ErrStackOverflow      = &RuntimeError{Kind: StackOverflow}
	ErrInterrupted        = &RuntimeError{Kind: Interrupted}
)

func typeMismatch(op string, a, b Value) error {
	return &RuntimeError{Kind: TypeMismatch, Op: op, Left: a.TypeName(), Right: b.TypeName()}
}
