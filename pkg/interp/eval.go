package interp

import (
	"fmt"
	"log/slog"

	"github.com/yelongll/rust/pkg/compiler"
)

func (in *Interpreter) eval(e compiler.Expr, env envID) (Value, error) {
	switch n := e.(type) {
	case *compiler.NumberLiteral:
		return Number(n.Value), nil
	case *compiler.StringLiteral:
		return String(n.Value), nil
	case *compiler.BoolLiteral:
		return Bool(n.Value), nil

	case *compiler.VarRef:
		v, ok := in.arena.lookup(env, n.Name)
		if !ok {
			return nil, &RuntimeError{Kind: UndefinedVariable, Name: n.Name}
		}
		return v, nil

	case *compiler.AssignExpr:
		v, err := in.eval(n.Value, env)
		if err != nil {
			return nil, err
		}
		if !in.arena.assign(env, n.Name, v) {
			return nil, &RuntimeError{Kind: UndefinedVariable, Name: n.Name}
		}
		return v, nil

	case *compiler.BinaryExpr:
		// Both operands are always evaluated, logical operators included.
		left, err := in.eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := in.eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		return binary(n.Op, left, right)

	case *compiler.UnaryExpr:
		v, err := in.eval(n.Operand, env)
		if err != nil {
			return nil, err
		}
		return Bool(!Truthy(v)), nil

	case *compiler.CallExpr:
		return in.call(n, env)

	case *compiler.ArrayLiteral:
		arr := make(Array, 0, len(n.Elements))
		for _, el := range n.Elements {
			v, err := in.eval(el, env)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil

	case *compiler.IndexExpr:
		arr, err := in.eval(n.Array, env)
		if err != nil {
			return nil, err
		}
		idx, err := in.eval(n.Index, env)
		if err != nil {
			return nil, err
		}
		return index(arr, idx)

	case *compiler.LengthExpr:
		v, err := in.eval(n.Array, env)
		if err != nil {
			return nil, err
		}
		return length(v)

	case *compiler.AppendExpr:
		arr, err := in.eval(n.Array, env)
		if err != nil {
			return nil, err
		}
		el, err := in.eval(n.Element, env)
		if err != nil {
			return nil, err
		}
		return appendTo(arr, el)

	case *compiler.RemoveAtExpr:
		arr, err := in.eval(n.Array, env)
		if err != nil {
			return nil, err
		}
		idx, err := in.eval(n.Index, env)
		if err != nil {
			return nil, err
		}
		return removeAt(arr, idx)
	}
	return nil, fmt.Errorf("interp: unknown expression %T", e)
}

// call resolves the callee and checks its arity before evaluating any
// argument. Arguments are evaluated left to right in the caller's
// environment.
func (in *Interpreter) call(n *compiler.CallExpr, env envID) (Value, error) {
	callee, ok := in.arena.lookup(env, n.Name)
	if !ok {
		return nil, &RuntimeError{Kind: UndefinedFunction, Name: n.Name}
	}

	var arity int
	switch fn := callee.(type) {
	case *Function:
		arity = len(fn.Params)
	case *Builtin:
		arity = fn.Arity
	default:
		return nil, &RuntimeError{Kind: NotCallable, Name: n.Name}
	}
	if len(n.Args) != arity {
		return nil, &RuntimeError{Kind: ArityMismatch, Name: n.Name, Expected: arity, Got: len(n.Args)}
	}

	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := in.eval(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if err := in.checkInterrupt(); err != nil {
		return nil, err
	}
	if b, ok := callee.(*Builtin); ok {
		return b.Fn(in, args)
	}
	return in.invoke(callee.(*Function), args)
}

func (in *Interpreter) invoke(fn *Function, args []Value) (Value, error) {
	if in.depth >= in.MaxDepth {
		return nil, &RuntimeError{Kind: StackOverflow, Name: fn.Name, Expected: in.MaxDepth}
	}
	in.depth++
	defer func() { in.depth-- }()

	callEnv := in.arena.alloc(fn.Scope)
	defer in.arena.release(callEnv)
	for i, p := range fn.Params {
		in.arena.define(callEnv, p, args[i])
	}

	in.Logger.Debug("call function",
		slog.String("function", fn.Name),
		slog.Int("argument-count", len(args)),
		slog.Int("depth", in.depth))

	out, err := in.execBlock(fn.Body, callEnv)
	if err != nil {
		return nil, err
	}
	switch out.kind {
	case returnOut:
		return out.value, nil
	case breakOut:
		return nil, &RuntimeError{Kind: ControlOutsideLoop, Name: "break"}
	case continueOut:
		return nil, &RuntimeError{Kind: ControlOutsideLoop, Name: "continue"}
	}
	return null, nil
}
