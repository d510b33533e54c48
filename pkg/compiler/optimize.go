package compiler

import "github.com/edwingeng/deque"

// reachableFunctions returns the names of user functions that can be called,
// starting from calls made at program level.
func reachableFunctions(stmts []Stmt, funcs map[string]*FuncDecl) map[string]bool {
	reachable := make(map[string]bool)
	worklist := deque.NewDeque()

	addReachable := func(name string) {
		if !reachable[name] {
			reachable[name] = true
			worklist.PushBack(name)
		}
	}

	roots := make(map[string]bool)
	for _, s := range stmts {
		findCallsStmt(s, roots)
	}
	for call := range roots {
		addReachable(call)
	}

	for !worklist.Empty() {
		curr := worklist.PopFront().(string)

		decl, exists := funcs[curr]
		if !exists {
			// builtin or undefined; nothing to follow
			continue
		}

		calls := make(map[string]bool)
		for _, s := range decl.Body {
			findCallsStmt(s, calls)
		}
		for call := range calls {
			addReachable(call)
		}
	}
	return reachable
}

// findCallsExpr recursively extracts function call names from an expression.
func findCallsExpr(e Expr, calls map[string]bool) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *CallExpr:
		calls[n.Name] = true
		for _, arg := range n.Args {
			findCallsExpr(arg, calls)
		}
	case *BinaryExpr:
		findCallsExpr(n.Left, calls)
		findCallsExpr(n.Right, calls)
	case *UnaryExpr:
		findCallsExpr(n.Operand, calls)
	case *AssignExpr:
		findCallsExpr(n.Value, calls)
	case *ArrayLiteral:
		for _, el := range n.Elements {
			findCallsExpr(el, calls)
		}
	case *IndexExpr:
		findCallsExpr(n.Array, calls)
		findCallsExpr(n.Index, calls)
	case *LengthExpr:
		findCallsExpr(n.Array, calls)
	case *AppendExpr:
		findCallsExpr(n.Array, calls)
		findCallsExpr(n.Element, calls)
	case *RemoveAtExpr:
		findCallsExpr(n.Array, calls)
		findCallsExpr(n.Index, calls)
	}
}

// findCallsStmt recursively extracts call names from a statement. Function
// bodies are skipped; they are followed through the worklist instead.
func findCallsStmt(s Stmt, calls map[string]bool) {
	switch n := s.(type) {
	case *ExprStmt:
		findCallsExpr(n.Expr, calls)
	case *VarDecl:
		findCallsExpr(n.Init, calls)
	case *ReturnStmt:
		findCallsExpr(n.Value, calls)
	case *IfStmt:
		findCallsExpr(n.Cond, calls)
		findCallsBlock(n.Then, calls)
		findCallsBlock(n.Else, calls)
	case *LoopStmt:
		findCallsExpr(n.Cond, calls)
		findCallsBlock(n.Body, calls)
	case *WhileStmt:
		findCallsExpr(n.Cond, calls)
		findCallsBlock(n.Body, calls)
	case *ForEachStmt:
		findCallsExpr(n.Iterable, calls)
		findCallsBlock(n.Body, calls)
	}
}

func findCallsBlock(stmts []Stmt, calls map[string]bool) {
	for _, s := range stmts {
		findCallsStmt(s, calls)
	}
}

// foldConstant evaluates operations whose operands are all literals.
// Anything that could fail at run time (division by zero, type mismatches)
// is left alone so the failure still happens when the program runs.
func foldConstant(e Expr) Expr {
	switch n := e.(type) {
	case *BinaryExpr:
		left := foldConstant(n.Left)
		right := foldConstant(n.Right)
		if folded := foldBinary(n.Op, left, right); folded != nil {
			return folded
		}
		if left != n.Left || right != n.Right {
			return &BinaryExpr{Op: n.Op, Left: left, Right: right}
		}
		return n
	case *UnaryExpr:
		operand := foldConstant(n.Operand)
		if b, ok := operand.(*BoolLiteral); ok {
			return &BoolLiteral{Value: !b.Value}
		}
		if operand != n.Operand {
			return &UnaryExpr{Op: n.Op, Operand: operand}
		}
		return n
	}
	return e
}

func foldBinary(op string, left, right Expr) Expr {
	ln, lok := left.(*NumberLiteral)
	rn, rok := right.(*NumberLiteral)
	if lok && rok {
		a, b := ln.Value, rn.Value
		switch op {
		case "+":
			return &NumberLiteral{Value: a + b}
		case "-":
			return &NumberLiteral{Value: a - b}
		case "*":
			return &NumberLiteral{Value: a * b}
		case "/":
			if b == 0 {
				return nil
			}
			return &NumberLiteral{Value: a / b}
		case "<":
			return &BoolLiteral{Value: a < b}
		case "<=":
			return &BoolLiteral{Value: a <= b}
		case ">":
			return &BoolLiteral{Value: a > b}
		case ">=":
			return &BoolLiteral{Value: a >= b}
		case "==":
			return &BoolLiteral{Value: a == b}
		case "!=":
			return &BoolLiteral{Value: a != b}
		}
		return nil
	}
	if op != "+" {
		return nil
	}
	ls, lok := literalText(left)
	rs, rok := literalText(right)
	_, lstr := left.(*StringLiteral)
	_, rstr := right.(*StringLiteral)
	if lok && rok && (lstr || rstr) {
		return &StringLiteral{Value: ls + rs}
	}
	return nil
}

// literalText renders a literal the way string concatenation does.
func literalText(e Expr) (string, bool) {
	switch n := e.(type) {
	case *StringLiteral:
		return n.Value, true
	case *NumberLiteral:
		return FormatNumber(n.Value), true
	case *BoolLiteral:
		if n.Value {
			return "true", true
		}
		return "false", true
	}
	return "", false
}
