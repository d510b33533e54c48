package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CodeGen walks an AST and emits one C99 translation unit.
//
// Every language value is a tagged Value. Expressions lower to C expressions;
// where evaluation order matters, operands are stored into temporaries with
// the comma operator so that evaluation is left to right as in the
// interpreter.
type CodeGen struct {
	syms      *SymbolTable
	out       strings.Builder // body of the function being generated
	indent    int
	temps     int // temporaries used by the current statement
	maxTemps  int // temporaries the current function must declare
	nextLabel int
	loopDepth int
}

func newCodeGen(syms *SymbolTable) *CodeGen {
	return &CodeGen{syms: syms}
}

func (cg *CodeGen) newLabel(prefix string) string {
	l := fmt.Sprintf("%s%d", prefix, cg.nextLabel)
	cg.nextLabel++
	return l
}

func (cg *CodeGen) newTemp() string {
	t := fmt.Sprintf("t%d", cg.temps)
	cg.temps++
	if cg.temps > cg.maxTemps {
		cg.maxTemps = cg.temps
	}
	return t
}

func (cg *CodeGen) line(format string, args ...any) {
	cg.out.WriteString(strings.Repeat("    ", cg.indent))
	fmt.Fprintf(&cg.out, format+"\n", args...)
}

// cString renders s as a C string literal. Everything outside printable
// ASCII is written as an octal escape so the output is plain ASCII.
func cString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '?':
			sb.WriteString(`\?`)
		case c >= 0x20 && c < 0x7f:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "\\%03o", c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// cNumber renders v as a C double constant.
func cNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NAN"
	case math.IsInf(v, 1):
		return "HUGE_VAL"
	case math.IsInf(v, -1):
		return "(-HUGE_VAL)"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	if v < 0 || (v == 0 && math.Signbit(v)) {
		s = "(" + s + ")"
	}
	return s
}

// isLiteral reports whether evaluating e can have no effect and cannot fail,
// so its position in the evaluation order does not matter.
func isLiteral(e Expr) bool {
	switch e.(type) {
	case *NumberLiteral, *StringLiteral, *BoolLiteral:
		return true
	}
	return false
}

// sequenced emits fn(args...) with the arguments evaluated left to right.
// Temporaries are only introduced when two or more operands could have
// observable effects.
func (cg *CodeGen) sequenced(fn string, args []Expr) (string, error) {
	impure := 0
	for _, a := range args {
		if !isLiteral(a) {
			impure++
		}
	}
	parts := make([]string, len(args))
	if impure <= 1 {
		for i, a := range args {
			code, err := cg.genExpr(a)
			if err != nil {
				return "", err
			}
			parts[i] = code
		}
		return fn + "(" + strings.Join(parts, ", ") + ")", nil
	}
	var seq []string
	for i, a := range args {
		code, err := cg.genExpr(a)
		if err != nil {
			return "", err
		}
		if isLiteral(a) {
			parts[i] = code
			continue
		}
		t := cg.newTemp()
		seq = append(seq, t+" = "+code)
		parts[i] = t
	}
	seq = append(seq, fn+"("+strings.Join(parts, ", ")+")")
	return "(" + strings.Join(seq, ", ") + ")", nil
}

var binaryHelpers = map[string]string{
	"+":  "rt_add",
	"-":  "rt_sub",
	"*":  "rt_mul",
	"/":  "rt_div",
	"<":  "rt_lt",
	"<=": "rt_le",
	">":  "rt_gt",
	">=": "rt_ge",
	"==": "rt_eq",
	"!=": "rt_ne",
	"&&": "rt_and",
	"||": "rt_or",
}

func (cg *CodeGen) genExpr(e Expr) (string, error) {
	e = foldConstant(e)
	switch n := e.(type) {
	case *NumberLiteral:
		return "rt_number(" + cNumber(n.Value) + ")", nil
	case *StringLiteral:
		return "rt_string(" + cString(n.Value) + ")", nil
	case *BoolLiteral:
		return fmt.Sprintf("rt_bool(%t)", n.Value), nil
	case *VarRef:
		return cg.genRead(n.Name)
	case *BinaryExpr:
		fn, ok := binaryHelpers[n.Op]
		if !ok {
			return "", &UnsupportedError{Construct: "operator", Name: n.Op}
		}
		return cg.sequenced(fn, []Expr{n.Left, n.Right})
	case *UnaryExpr:
		if n.Op != "!" {
			return "", &UnsupportedError{Construct: "operator", Name: n.Op}
		}
		operand, err := cg.genExpr(n.Operand)
		if err != nil {
			return "", err
		}
		return "rt_not(" + operand + ")", nil
	case *CallExpr:
		return cg.genCall(n)
	case *AssignExpr:
		return cg.genAssign(n)
	case *ArrayLiteral:
		if len(n.Elements) == 0 {
			return "rt_array_new(0)", nil
		}
		t := cg.newTemp()
		seq := []string{fmt.Sprintf("%s = rt_array_new(%d)", t, len(n.Elements))}
		for _, el := range n.Elements {
			code, err := cg.genExpr(el)
			if err != nil {
				return "", err
			}
			seq = append(seq, fmt.Sprintf("rt_array_push(&%s, %s)", t, code))
		}
		seq = append(seq, t)
		return "(" + strings.Join(seq, ", ") + ")", nil
	case *IndexExpr:
		return cg.sequenced("rt_index", []Expr{n.Array, n.Index})
	case *LengthExpr:
		arr, err := cg.genExpr(n.Array)
		if err != nil {
			return "", err
		}
		return "rt_length(" + arr + ")", nil
	case *AppendExpr:
		return cg.sequenced("rt_append", []Expr{n.Array, n.Element})
	case *RemoveAtExpr:
		return cg.sequenced("rt_remove_at", []Expr{n.Array, n.Index})
	}
	return "", fmt.Errorf("codegen: unknown expression %T", e)
}

// genRead lowers a variable read. Inside a function the lookup order is
// parameters and locals, then globals, mirroring the environment chain.
func (cg *CodeGen) genRead(name string) (string, error) {
	if sym, ok := cg.syms.Local(name); ok {
		if sym.Kind == SymParam {
			return sym.CName, nil
		}
		if g, ok := cg.syms.Global(name); ok {
			return fmt.Sprintf("rt_read_or(%s, %s, %s)", sym.CName, g.CName, cString(name)), nil
		}
		return fmt.Sprintf("rt_read(%s, %s)", sym.CName, cString(name)), nil
	}
	if g, ok := cg.syms.Global(name); ok {
		return fmt.Sprintf("rt_read(%s, %s)", g.CName, cString(name)), nil
	}
	if _, ok := cg.syms.Function(name); ok {
		return "", &UnsupportedError{Construct: "function used as a value", Name: name}
	}
	if _, ok := cg.syms.Builtin(name); ok {
		return "", &UnsupportedError{Construct: "function used as a value", Name: name}
	}
	return fmt.Sprintf("rt_undefined_variable(%s)", cString(name)), nil
}

// genAssign lowers name = value. Only the innermost scope is searched.
func (cg *CodeGen) genAssign(n *AssignExpr) (string, error) {
	value, err := cg.genExpr(n.Value)
	if err != nil {
		return "", err
	}
	if cg.syms.InFunction() {
		if sym, ok := cg.syms.Local(n.Name); ok {
			return fmt.Sprintf("rt_assign(&%s, %s, %s)", sym.CName, value, cString(n.Name)), nil
		}
	} else {
		if g, ok := cg.syms.Global(n.Name); ok {
			return fmt.Sprintf("rt_assign(&%s, %s, %s)", g.CName, value, cString(n.Name)), nil
		}
		if _, ok := cg.syms.Function(n.Name); ok {
			return "", &UnsupportedError{Construct: "assignment to a function name", Name: n.Name}
		}
		if _, ok := cg.syms.Builtin(n.Name); ok {
			return "", &UnsupportedError{Construct: "assignment to a builtin", Name: n.Name}
		}
	}
	return fmt.Sprintf("((void)(%s), rt_undefined_variable(%s))", value, cString(n.Name)), nil
}

// genCall lowers a call. The callee is resolved and its arity checked before
// any argument is evaluated.
func (cg *CodeGen) genCall(n *CallExpr) (string, error) {
	name := cString(n.Name)
	sym, ok := cg.syms.Local(n.Name)
	if ok && sym.Kind == SymParam {
		return fmt.Sprintf("rt_not_callable(%s, %s)", sym.CName, name), nil
	}
	outer, err := cg.genOuterCall(n, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return outer, nil
	}
	// Until the local is defined the name resolves outside the function.
	return fmt.Sprintf("(%s.kind != VAL_UNDEF ? rt_not_callable(%s, %s) : %s)", sym.CName, sym.CName, name, outer), nil
}

// genOuterCall lowers a call to a global, function or builtin name.
func (cg *CodeGen) genOuterCall(n *CallExpr, name string) (string, error) {
	if g, ok := cg.syms.Global(n.Name); ok {
		return fmt.Sprintf("rt_not_callable(%s, %s)", g.CName, name), nil
	}
	if fn, ok := cg.syms.Function(n.Name); ok {
		guard := fmt.Sprintf("rt_require_function(%s, %s)", fn.Flag, name)
		if len(n.Args) != fn.Arity {
			return fmt.Sprintf("(%s, rt_arity_error(%s, %d, %d))", guard, name, fn.Arity, len(n.Args)), nil
		}
		callCode, err := cg.sequenced(fn.CName, n.Args)
		if err != nil {
			return "", err
		}
		return "(" + guard + ", " + callCode + ")", nil
	}
	if b, ok := cg.syms.Builtin(n.Name); ok {
		if len(n.Args) != b.Arity {
			return fmt.Sprintf("rt_arity_error(%s, %d, %d)", name, b.Arity, len(n.Args)), nil
		}
		return cg.sequenced(b.CName, n.Args)
	}
	return fmt.Sprintf("rt_undefined_function(%s)", name), nil
}

// slotFor returns the C variable that a declaration of name writes to.
func (cg *CodeGen) slotFor(name string) string {
	if sym, ok := cg.syms.Local(name); ok {
		return sym.CName
	}
	g, _ := cg.syms.Global(name)
	return g.CName
}

func (cg *CodeGen) genBlock(stmts []Stmt) error {
	cg.indent++
	defer func() { cg.indent-- }()
	for _, s := range stmts {
		if err := cg.genStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (cg *CodeGen) genLoopBody(stmts []Stmt) error {
	cg.loopDepth++
	defer func() { cg.loopDepth-- }()
	return cg.genBlock(stmts)
}

func (cg *CodeGen) genStmt(s Stmt) error {
	cg.temps = 0
	switch n := s.(type) {
	case *ExprStmt:
		code, err := cg.genExpr(n.Expr)
		if err != nil {
			return err
		}
		cg.line("(void)%s;", code)

	case *VarDecl:
		init := "rt_null()"
		if n.Init != nil {
			code, err := cg.genExpr(n.Init)
			if err != nil {
				return err
			}
			init = code
		}
		cg.line("%s = %s;", cg.slotFor(n.Name), init)

	case *FuncDecl:
		if cg.syms.InFunction() {
			return &UnsupportedError{Construct: "nested function declaration", Name: n.Name}
		}
		fn, _ := cg.syms.Function(n.Name)
		cg.line("%s = true;", fn.Flag)

	case *IfStmt:
		cond, err := cg.genExpr(n.Cond)
		if err != nil {
			return err
		}
		cg.line("if (rt_truthy(%s)) {", cond)
		if err := cg.genBlock(n.Then); err != nil {
			return err
		}
		if len(n.Else) > 0 {
			cg.line("} else {")
			if err := cg.genBlock(n.Else); err != nil {
				return err
			}
		}
		cg.line("}")

	case *LoopStmt:
		if n.Cond == nil {
			cg.line("for (;;) {")
		} else {
			cond, err := cg.genExpr(n.Cond)
			if err != nil {
				return err
			}
			cg.line("while (rt_truthy(%s)) {", cond)
		}
		if err := cg.genLoopBody(n.Body); err != nil {
			return err
		}
		cg.line("}")

	case *WhileStmt:
		// The condition is evaluated before the loop and again at the top
		// of every pass; the body runs on the earlier value.
		w := cg.newLabel("w")
		first, err := cg.genExpr(n.Cond)
		if err != nil {
			return err
		}
		cg.line("{")
		cg.indent++
		cg.line("Value %s = %s;", w, first)
		cg.line("while (rt_truthy(%s)) {", w)
		cg.indent++
		cg.temps = 0
		again, err := cg.genExpr(n.Cond)
		if err != nil {
			return err
		}
		cg.line("%s = %s;", w, again)
		cg.indent--
		if err := cg.genLoopBody(n.Body); err != nil {
			return err
		}
		cg.line("}")
		cg.indent--
		cg.line("}")

	case *ForEachStmt:
		label := cg.newLabel("")
		str, pos := "s"+label, "i"+label
		iterable, err := cg.genExpr(n.Iterable)
		if err != nil {
			return err
		}
		cg.line("{")
		cg.indent++
		cg.line("Value %s = rt_require_string(%s);", str, iterable)
		cg.line("size_t %s = 0;", pos)
		cg.line("while (%s.as.string[%s] != '\\0') {", str, pos)
		cg.indent++
		cg.line("%s = rt_next_char(%s, &%s);", cg.slotFor(n.Var), str, pos)
		cg.indent--
		if err := cg.genLoopBody(n.Body); err != nil {
			return err
		}
		cg.line("}")
		cg.indent--
		cg.line("}")

	case *ReturnStmt:
		value := "rt_null()"
		if n.Value != nil {
			code, err := cg.genExpr(n.Value)
			if err != nil {
				return err
			}
			value = code
		}
		if cg.syms.InFunction() {
			cg.line("return %s;", value)
			return nil
		}
		// return at program level ends the program
		if n.Value != nil {
			cg.line("(void)%s;", value)
		}
		cg.line("return 0;")

	case *BreakStmt:
		if cg.loopDepth > 0 {
			cg.line("break;")
		} else {
			cg.line("rt_control_error(\"break\");")
		}

	case *ContinueStmt:
		if cg.loopDepth > 0 {
			cg.line("continue;")
		} else {
			cg.line("rt_control_error(\"continue\");")
		}

	default:
		return fmt.Errorf("codegen: unknown statement %T", s)
	}
	return nil
}

// declare registers every program-level variable and function, and collects
// the function declarations in source order.
func (cg *CodeGen) declare(stmts []Stmt, funcs *[]*FuncDecl) error {
	for _, s := range stmts {
		switch n := s.(type) {
		case *VarDecl:
			if _, err := cg.syms.DefineGlobal(n.Name); err != nil {
				return err
			}
		case *ForEachStmt:
			if _, err := cg.syms.DefineGlobal(n.Var); err != nil {
				return err
			}
			if err := cg.declare(n.Body, funcs); err != nil {
				return err
			}
		case *FuncDecl:
			if _, err := cg.syms.DefineFunction(n.Name, len(n.Params)); err != nil {
				return err
			}
			*funcs = append(*funcs, n)
		case *IfStmt:
			if err := cg.declare(n.Then, funcs); err != nil {
				return err
			}
			if err := cg.declare(n.Else, funcs); err != nil {
				return err
			}
		case *LoopStmt:
			if err := cg.declare(n.Body, funcs); err != nil {
				return err
			}
		case *WhileStmt:
			if err := cg.declare(n.Body, funcs); err != nil {
				return err
			}
		}
	}
	return nil
}

// declareLocals registers the variables of a function body. The language
// has no block scope, so nested blocks share the function's scope.
func (cg *CodeGen) declareLocals(stmts []Stmt) error {
	for _, s := range stmts {
		switch n := s.(type) {
		case *VarDecl:
			cg.syms.DefineLocal(n.Name)
		case *ForEachStmt:
			cg.syms.DefineLocal(n.Var)
			if err := cg.declareLocals(n.Body); err != nil {
				return err
			}
		case *FuncDecl:
			return &UnsupportedError{Construct: "nested function declaration", Name: n.Name}
		case *IfStmt:
			if err := cg.declareLocals(n.Then); err != nil {
				return err
			}
			if err := cg.declareLocals(n.Else); err != nil {
				return err
			}
		case *LoopStmt:
			if err := cg.declareLocals(n.Body); err != nil {
				return err
			}
		case *WhileStmt:
			if err := cg.declareLocals(n.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

// genFunction returns the C prototype and definition of one language function.
func (cg *CodeGen) genFunction(decl *FuncDecl) (string, string, error) {
	fn, _ := cg.syms.Function(decl.Name)
	cg.syms.EnterFunction(decl.Name)
	defer cg.syms.ExitFunction()

	cg.out.Reset()
	cg.maxTemps = 0
	cg.indent = 0
	if err := cg.genBlock(decl.Body); err != nil {
		return "", "", err
	}
	body := cg.out.String()
	// The body lives in its own C function; fn.CName wraps it with the
	// call depth bookkeeping so every return path is covered.
	bodyName := "fb_" + strings.TrimPrefix(fn.CName, "fn_")
	sig := cg.signature(fn.CName, decl)

	var sb strings.Builder
	sb.WriteString(cg.signature(bodyName, decl))
	sb.WriteString(" {\n")
	for _, local := range cg.syms.Locals() {
		fmt.Fprintf(&sb, "    Value %s = rt_undef();\n", local.CName)
	}
	writeTemps(&sb, cg.maxTemps)
	sb.WriteString(body)
	sb.WriteString("    return rt_null();\n}\n\n")

	args := make([]string, len(decl.Params))
	for i, p := range decl.Params {
		sym, _ := cg.syms.Local(p)
		args[i] = sym.CName
	}
	sb.WriteString(sig)
	sb.WriteString(" {\n    rt_enter();\n")
	fmt.Fprintf(&sb, "    Value r = %s(%s);\n", bodyName, strings.Join(args, ", "))
	sb.WriteString("    rt_depth--;\n    return r;\n}\n")
	return sig + ";\n", sb.String(), nil
}

func (cg *CodeGen) signature(cname string, decl *FuncDecl) string {
	if len(decl.Params) == 0 {
		return fmt.Sprintf("static Value %s(void)", cname)
	}
	params := make([]string, len(decl.Params))
	for i, p := range decl.Params {
		sym, _ := cg.syms.Local(p)
		params[i] = "Value " + sym.CName
	}
	return fmt.Sprintf("static Value %s(%s)", cname, strings.Join(params, ", "))
}

func writeTemps(sb *strings.Builder, n int) {
	if n == 0 {
		return
	}
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("t%d", i)
	}
	fmt.Fprintf(sb, "    Value %s;\n", strings.Join(names, ", "))
}

// Generate lowers prog into a complete C source file.
func Generate(prog *Program, syms *SymbolTable) (string, error) {
	cg := newCodeGen(syms)

	// 1. PRE-PASS: program-level names and function scopes
	var funcs []*FuncDecl
	if err := cg.declare(prog.Stmts, &funcs); err != nil {
		return "", err
	}
	byName := make(map[string]*FuncDecl, len(funcs))
	for _, f := range funcs {
		byName[f.Name] = f
		syms.EnterFunction(f.Name)
		for _, p := range f.Params {
			syms.DefineParam(p)
		}
		err := cg.declareLocals(f.Body)
		syms.ExitFunction()
		if err != nil {
			return "", err
		}
	}

	// 2. Function bodies; functions no call can reach are not emitted.
	reachable := reachableFunctions(prog.Stmts, byName)
	var prototypes, definitions strings.Builder
	for _, f := range funcs {
		if !reachable[f.Name] {
			continue
		}
		proto, def, err := cg.genFunction(f)
		if err != nil {
			return "", err
		}
		prototypes.WriteString(proto)
		definitions.WriteString("\n" + def)
	}

	// 3. Program-level statements become main.
	cg.out.Reset()
	cg.maxTemps = 0
	cg.indent = 0
	if err := cg.genBlock(prog.Stmts); err != nil {
		return "", err
	}
	mainBody := cg.out.String()

	var sb strings.Builder
	sb.WriteString("/* Generated by cnlang. Do not edit. */\n")
	sb.WriteString(runtimeC)
	sb.WriteString("\n/* program */\n")
	for _, g := range syms.Globals() {
		fmt.Fprintf(&sb, "static Value %s; /* %s */\n", g.CName, commentSafe(g.Name))
	}
	for _, fn := range syms.Functions() {
		fmt.Fprintf(&sb, "static bool %s; /* %s declared */\n", fn.Flag, commentSafe(fn.Name))
	}
	sb.WriteString(prototypes.String())
	sb.WriteString(definitions.String())
	sb.WriteString("\nint main(void) {\n")
	writeTemps(&sb, cg.maxTemps)
	sb.WriteString(mainBody)
	sb.WriteString("    return 0;\n}\n")
	return sb.String(), nil
}

// commentSafe keeps a name from closing the C comment it is quoted in.
func commentSafe(name string) string {
	return strings.ReplaceAll(name, "*/", "* /")
}
