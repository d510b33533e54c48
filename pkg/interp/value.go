package interp

import "github.com/yelongll/rust/pkg/compiler"

// Value is any runtime value of the language.
type Value interface {
	TypeName() string
}

type Number float64

type String string

type Bool bool

// Array is an immutable sequence. Operations that "change" an array build a
// new one; the receiver is never modified.
type Array []Value

// Null is the absence of a value.
type Null struct{}

// Function is a user-defined function together with the environment it was
// declared in.
type Function struct {
	Name   string
	Params []string
	Body   []compiler.Stmt
	Scope  envID
}

// Builtin is a function provided by the interpreter.
type Builtin struct {
	Name  string
	Arity int
	Fn    func(in *Interpreter, args []Value) (Value, error)
}

func (Number) TypeName() string    { return "number" }
func (String) TypeName() string    { return "string" }
func (Bool) TypeName() string      { return "boolean" }
func (Array) TypeName() string     { return "array" }
func (Null) TypeName() string      { return "null" }
func (*Function) TypeName() string { return "function" }
func (*Builtin) TypeName() string  { return "builtin" }

var null = Null{}

// Truthy reports how v behaves as a condition. Arrays, functions and
// builtins are always true, even when empty.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case Number:
		return v != 0
	case String:
		return v != ""
	case Null:
		return false
	}
	return true
}

// Equal compares two values. Only numbers, strings, booleans and null of the
// same type can be equal; everything else compares unequal.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Number:
		b, ok := b.(Number)
		return ok && a == b
	case String:
		b, ok := b.(String)
		return ok && a == b
	case Bool:
		b, ok := b.(Bool)
		return ok && a == b
	case Null:
		_, ok := b.(Null)
		return ok
	}
	return false
}
