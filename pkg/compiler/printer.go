package compiler

import (
	"strconv"
	"strings"
)

const indentUnit = "    "

// Format renders prog as canonical source text. Parsing the result yields a
// program that formats to the same text.
func Format(prog *Program) string {
	var sb strings.Builder
	writeBlock(&sb, prog.Stmts, 0)
	return sb.String()
}

// writeBlock writes one statement per line. A ";" is appended to a line
// when the next statement would otherwise be read as a continuation of it.
func writeBlock(sb *strings.Builder, stmts []Stmt, depth int) {
	for i, s := range stmts {
		text := formatStmt(s, depth)
		if i+1 < len(stmts) && needsSeparator(s, stmts[i+1]) {
			text += ";"
		}
		sb.WriteString(strings.Repeat(indentUnit, depth))
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
}

func needsSeparator(cur, next Stmt) bool {
	if r, ok := cur.(*ReturnStmt); ok && r.Value == nil {
		return true
	}
	es, ok := next.(*ExprStmt)
	if !ok {
		return false
	}
	first := formatExpr(es.Expr, true)
	return strings.HasPrefix(first, "(") || strings.HasPrefix(first, "[")
}

func formatBody(stmts []Stmt, depth int) string {
	if len(stmts) == 0 {
		return "{\n" + strings.Repeat(indentUnit, depth) + "}"
	}
	var sb strings.Builder
	sb.WriteString("{\n")
	writeBlock(&sb, stmts, depth+1)
	sb.WriteString(strings.Repeat(indentUnit, depth))
	sb.WriteString("}")
	return sb.String()
}

func formatStmt(s Stmt, depth int) string {
	switch s := s.(type) {
	case *ExprStmt:
		return formatExpr(s.Expr, true)
	case *VarDecl:
		kw := "让"
		if s.IsConst {
			kw = "常量"
		}
		if s.Init == nil {
			return kw + " " + s.Name
		}
		return kw + " " + s.Name + " = " + formatExpr(s.Init, true)
	case *FuncDecl:
		return "函数 " + s.Name + "(" + strings.Join(s.Params, ", ") + ") " + formatBody(s.Body, depth)
	case *IfStmt:
		return formatIf(s, depth)
	case *LoopStmt:
		if s.Cond == nil {
			return "循环 " + formatBody(s.Body, depth)
		}
		return "循环 " + formatExpr(s.Cond, true) + " " + formatBody(s.Body, depth)
	case *WhileStmt:
		return "当 " + formatExpr(s.Cond, true) + " " + formatBody(s.Body, depth)
	case *ForEachStmt:
		return "对于 " + s.Var + " 在 " + formatExpr(s.Iterable, true) + " " + formatBody(s.Body, depth)
	case *ReturnStmt:
		if s.Value == nil {
			return "返回"
		}
		return "返回 " + formatExpr(s.Value, true)
	case *BreakStmt:
		return "跳出"
	case *ContinueStmt:
		return "继续"
	}
	return ""
}

func formatIf(s *IfStmt, depth int) string {
	text := "如果 " + formatExpr(s.Cond, true) + " " + formatBody(s.Then, depth)
	if len(s.Else) == 0 {
		return text
	}
	if nested, ok := s.Else[0].(*IfStmt); ok && len(s.Else) == 1 {
		return text + " 否则 " + formatIf(nested, depth)
	}
	return text + " 否则 " + formatBody(s.Else, depth)
}

// formatExpr renders e. Assignment is parenthesised unless it is the whole
// expression (top).
func formatExpr(e Expr, top bool) string {
	switch e := e.(type) {
	case *NumberLiteral:
		return strconv.FormatFloat(e.Value, 'f', -1, 64)
	case *StringLiteral:
		return quoteSource(e.Value)
	case *BoolLiteral:
		return e.String()
	case *VarRef:
		return e.Name
	case *BinaryExpr:
		return "(" + formatExpr(e.Left, false) + " " + sourceOp(e.Op) + " " + formatExpr(e.Right, false) + ")"
	case *UnaryExpr:
		return "!" + formatExpr(e.Operand, false)
	case *CallExpr:
		return e.Name + "(" + formatList(e.Args) + ")"
	case *AssignExpr:
		text := e.Name + " = " + formatExpr(e.Value, false)
		if top {
			return text
		}
		return "(" + text + ")"
	case *ArrayLiteral:
		return "[" + formatList(e.Elements) + "]"
	case *IndexExpr:
		return formatReceiver(e.Array) + "[" + formatExpr(e.Index, true) + "]"
	case *LengthExpr:
		return formatReceiver(e.Array) + ".长度()"
	case *AppendExpr:
		return formatReceiver(e.Array) + ".添加(" + formatExpr(e.Element, true) + ")"
	case *RemoveAtExpr:
		return formatReceiver(e.Array) + ".删除(" + formatExpr(e.Index, true) + ")"
	}
	return ""
}

// formatReceiver renders the left side of a postfix method call, adding
// parentheses where the postfix would otherwise bind to a sub-expression.
func formatReceiver(e Expr) string {
	switch e.(type) {
	case *VarRef, *CallExpr, *IndexExpr, *ArrayLiteral, *StringLiteral, *BoolLiteral,
		*LengthExpr, *AppendExpr, *RemoveAtExpr, *BinaryExpr:
		return formatExpr(e, false)
	}
	return "(" + formatExpr(e, true) + ")"
}

func formatList(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = formatExpr(e, true)
	}
	return strings.Join(parts, ", ")
}

func sourceOp(op string) string {
	switch op {
	case "&&":
		return "且"
	case "||":
		return "或"
	}
	return op
}

// quoteSource renders s as a string literal the lexer reads back unchanged.
func quoteSource(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
