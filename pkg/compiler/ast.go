package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

//  Expression nodes

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	String() string
}

// NumberLiteral is a numeric constant.
//
//	让 x = 3.5
//	       ^^^  NumberLiteral{Value: 3.5}
type NumberLiteral struct {
	Value float64
}

func (*NumberLiteral) exprNode() {}
func (n *NumberLiteral) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// StringLiteral is a string constant "..." with escapes already decoded.
type StringLiteral struct {
	Value string
}

func (*StringLiteral) exprNode()        {}
func (s *StringLiteral) String() string { return strconv.Quote(s.Value) }

// BoolLiteral is 真 or 假.
type BoolLiteral struct {
	Value bool
}

func (*BoolLiteral) exprNode() {}
func (b *BoolLiteral) String() string {
	if b.Value {
		return "真"
	}
	return "假"
}

// VarRef is a read of a named variable.
//
//	打印(x)
//	     ^  VarRef{Name: "x"}
type VarRef struct {
	Name string
}

func (*VarRef) exprNode()        {}
func (v *VarRef) String() string { return v.Name }

// BinaryExpr represents a binary operation: Left Op Right.
// Op is the operator symbol; 且 and 或 are stored as "&&" and "||".
//
//	x + 1
//	^ ^ ^
//	| | |
//	| | Right
//	| Op
//	Left
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// UnaryExpr is a prefix operation. The only unary operator is "!";
// negation is parsed as 0 - operand.
type UnaryExpr struct {
	Op      string
	Operand Expr
}

func (*UnaryExpr) exprNode() {}
func (u *UnaryExpr) String() string {
	return fmt.Sprintf("(%s%s)", u.Op, u.Operand)
}

// CallExpr is a call of a named function.
//
//	f(1, x)
//	^ ^^^^  CallExpr{Name: "f", Args: [1, x]}
type CallExpr struct {
	Name string
	Args []Expr
}

func (*CallExpr) exprNode() {}
func (c *CallExpr) String() string {
	return fmt.Sprintf("%s(%s)", c.Name, joinExprs(c.Args))
}

// AssignExpr stores Value into the existing binding Name and yields Value.
type AssignExpr struct {
	Name  string
	Value Expr
}

func (*AssignExpr) exprNode() {}
func (a *AssignExpr) String() string {
	return fmt.Sprintf("(%s = %s)", a.Name, a.Value)
}

// ArrayLiteral is [e, e, ...].
type ArrayLiteral struct {
	Elements []Expr
}

func (*ArrayLiteral) exprNode() {}
func (a *ArrayLiteral) String() string {
	return "[" + joinExprs(a.Elements) + "]"
}

// IndexExpr reads one element.
//
//	a[i]
//	^ ^  IndexExpr{Array: a, Index: i}
type IndexExpr struct {
	Array Expr
	Index Expr
}

func (*IndexExpr) exprNode() {}
func (i *IndexExpr) String() string {
	return fmt.Sprintf("%s[%s]", i.Array, i.Index)
}

// LengthExpr is a.长度().
type LengthExpr struct {
	Array Expr
}

func (*LengthExpr) exprNode() {}
func (l *LengthExpr) String() string {
	return fmt.Sprintf("%s.长度()", l.Array)
}

// AppendExpr is a.添加(e); it yields a new array.
type AppendExpr struct {
	Array   Expr
	Element Expr
}

func (*AppendExpr) exprNode() {}
func (a *AppendExpr) String() string {
	return fmt.Sprintf("%s.添加(%s)", a.Array, a.Element)
}

// RemoveAtExpr is a.删除(i); it yields a new array.
type RemoveAtExpr struct {
	Array Expr
	Index Expr
}

func (*RemoveAtExpr) exprNode() {}
func (r *RemoveAtExpr) String() string {
	return fmt.Sprintf("%s.删除(%s)", r.Array, r.Index)
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

//  Statement nodes

// Stmt is implemented by every statement node.
type Stmt interface {
	stmtNode()
	String() string
}

// ExprStmt evaluates an expression for its effect.
type ExprStmt struct {
	Expr Expr
}

func (*ExprStmt) stmtNode()        {}
func (s *ExprStmt) String() string { return fmt.Sprintf("ExprStmt(%s)", s.Expr) }

// VarDecl binds Name in the current environment. Init is nil when absent.
// IsConst is recorded for 常量 but not enforced.
//
//	让 x = 1      VarDecl{Name: "x", Init: 1}
//	常量 y = 2    VarDecl{Name: "y", Init: 2, IsConst: true}
type VarDecl struct {
	Name    string
	Init    Expr
	IsConst bool
}

func (*VarDecl) stmtNode() {}
func (v *VarDecl) String() string {
	kind := "Var"
	if v.IsConst {
		kind = "Const"
	}
	if v.Init == nil {
		return fmt.Sprintf("%s(%s)", kind, v.Name)
	}
	return fmt.Sprintf("%s(%s = %s)", kind, v.Name, v.Init)
}

// FuncDecl declares a function in the current environment.
type FuncDecl struct {
	Name   string
	Params []string
	Body   []Stmt
}

func (*FuncDecl) stmtNode() {}
func (f *FuncDecl) String() string {
	return fmt.Sprintf("Func(%s(%s) %s)", f.Name, strings.Join(f.Params, ", "), blockString(f.Body))
}

// IfStmt always has both branches; an absent else is an empty list.
// 否则 如果 is a nested IfStmt as the only statement of Else.
type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (*IfStmt) stmtNode() {}
func (s *IfStmt) String() string {
	return fmt.Sprintf("If(%s %s else %s)", s.Cond, blockString(s.Then), blockString(s.Else))
}

// LoopStmt is 循环 with an optional condition. Cond is nil for an
// infinite loop.
type LoopStmt struct {
	Cond Expr
	Body []Stmt
}

func (*LoopStmt) stmtNode() {}
func (s *LoopStmt) String() string {
	if s.Cond == nil {
		return fmt.Sprintf("Loop(%s)", blockString(s.Body))
	}
	return fmt.Sprintf("Loop(%s %s)", s.Cond, blockString(s.Body))
}

// WhileStmt is 当. Its condition is evaluated once before the loop and once
// more at the top of every pass, before the body runs.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
}

func (*WhileStmt) stmtNode() {}
func (s *WhileStmt) String() string {
	return fmt.Sprintf("While(%s %s)", s.Cond, blockString(s.Body))
}

// ForEachStmt is 对于 Var 在 Iterable { Body }.
type ForEachStmt struct {
	Var      string
	Iterable Expr
	Body     []Stmt
}

func (*ForEachStmt) stmtNode() {}
func (s *ForEachStmt) String() string {
	return fmt.Sprintf("For(%s in %s %s)", s.Var, s.Iterable, blockString(s.Body))
}

// ReturnStmt; Value is nil for a bare 返回.
type ReturnStmt struct {
	Value Expr
}

func (*ReturnStmt) stmtNode() {}
func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "Return"
	}
	return fmt.Sprintf("Return(%s)", s.Value)
}

type BreakStmt struct{}

func (*BreakStmt) stmtNode()      {}
func (*BreakStmt) String() string { return "Break" }

type ContinueStmt struct{}

func (*ContinueStmt) stmtNode()      {}
func (*ContinueStmt) String() string { return "Continue" }

func blockString(stmts []Stmt) string {
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = s.String()
	}
	return "{" + strings.Join(parts, "; ") + "}"
}

// Program is the ordered list of top-level statements.
type Program struct {
	Stmts []Stmt
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, s := range p.Stmts {
		sb.WriteString(s.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
