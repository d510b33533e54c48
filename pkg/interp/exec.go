package interp

import (
	"fmt"

	"github.com/yelongll/rust/pkg/compiler"
)

type outcomeKind int

const (
	completed outcomeKind = iota
	breakOut
	continueOut
	returnOut
)

// outcome is how a statement finished. value is set for returnOut.
type outcome struct {
	kind  outcomeKind
	value Value
}

var done = outcome{kind: completed}

// execBlock runs stmts in order and stops at the first outcome other than
// completed, handing it to the enclosing construct.
func (in *Interpreter) execBlock(stmts []compiler.Stmt, env envID) (outcome, error) {
	for _, s := range stmts {
		out, err := in.exec(s, env)
		if err != nil || out.kind != completed {
			return out, err
		}
	}
	return done, nil
}

// loopBody runs one pass of a loop body. stop reports that the loop must
// end, with the outcome to pass on (completed for a plain break).
func (in *Interpreter) loopBody(stmts []compiler.Stmt, env envID) (stop bool, out outcome, err error) {
	if err := in.checkInterrupt(); err != nil {
		return true, done, err
	}
	out, err = in.execBlock(stmts, env)
	if err != nil {
		return true, done, err
	}
	switch out.kind {
	case breakOut:
		return true, done, nil
	case returnOut:
		return true, out, nil
	}
	return false, done, nil
}

func (in *Interpreter) exec(s compiler.Stmt, env envID) (outcome, error) {
	switch n := s.(type) {
	case *compiler.ExprStmt:
		_, err := in.eval(n.Expr, env)
		return done, err

	case *compiler.VarDecl:
		var v Value = null
		if n.Init != nil {
			var err error
			if v, err = in.eval(n.Init, env); err != nil {
				return done, err
			}
		}
		in.arena.define(env, n.Name, v)
		return done, nil

	case *compiler.FuncDecl:
		in.arena.capture(env)
		in.arena.define(env, n.Name, &Function{Name: n.Name, Params: n.Params, Body: n.Body, Scope: env})
		return done, nil

	case *compiler.IfStmt:
		cond, err := in.eval(n.Cond, env)
		if err != nil {
			return done, err
		}
		if Truthy(cond) {
			return in.execBlock(n.Then, env)
		}
		return in.execBlock(n.Else, env)

	case *compiler.LoopStmt:
		for {
			if n.Cond != nil {
				cond, err := in.eval(n.Cond, env)
				if err != nil {
					return done, err
				}
				if !Truthy(cond) {
					return done, nil
				}
			}
			if stop, out, err := in.loopBody(n.Body, env); stop {
				return out, err
			}
		}

	case *compiler.WhileStmt:
		// The condition is evaluated once before the check and once more
		// on every pass, so it runs twice per iteration.
		cond, err := in.eval(n.Cond, env)
		if err != nil {
			return done, err
		}
		for Truthy(cond) {
			if cond, err = in.eval(n.Cond, env); err != nil {
				return done, err
			}
			if stop, out, err := in.loopBody(n.Body, env); stop {
				return out, err
			}
		}
		return done, nil

	case *compiler.ForEachStmt:
		iterable, err := in.eval(n.Iterable, env)
		if err != nil {
			return done, err
		}
		s, ok := iterable.(String)
		if !ok {
			return done, &RuntimeError{Kind: NotIterable, Left: iterable.TypeName()}
		}
		for _, r := range string(s) {
			in.arena.define(env, n.Var, String(r))
			if stop, out, err := in.loopBody(n.Body, env); stop {
				return out, err
			}
		}
		return done, nil

	case *compiler.ReturnStmt:
		var v Value = null
		if n.Value != nil {
			var err error
			if v, err = in.eval(n.Value, env); err != nil {
				return done, err
			}
		}
		return outcome{kind: returnOut, value: v}, nil

	case *compiler.BreakStmt:
		return outcome{kind: breakOut}, nil

	case *compiler.ContinueStmt:
		return outcome{kind: continueOut}, nil
	}
	return done, fmt.Errorf("interp: unknown statement %T", s)
}
