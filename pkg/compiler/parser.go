package compiler

import (
	"strings"
)

// Parser consumes the flat token slice produced by the Lexer and builds an AST.
//
// Grammar:
//
//	program        = statement* EOF
//	statement      = ";" | varDecl | funcDecl | if | loop | while | forEach
//	               | "返回" expression? | "跳出" | "继续" | expression
//	varDecl        = ("让" | "变量" | "常量") IDENTIFIER ("=" expression)?
//	funcDecl       = "函数" IDENTIFIER "(" (IDENTIFIER ("," IDENTIFIER)*)? ")" block
//	if             = "如果" expression block ("否则" (if | block))?
//	loop           = "循环" expression? block
//	while          = "当" expression block
//	forEach        = "对于" IDENTIFIER "在" expression block
//	block          = "{" statement* "}"
//	expression     = assignment
//	assignment     = logical ("=" assignment)?
//	logical        = equality (("且" | "或") equality)*
//	equality       = relational (("==" | "!=") relational)*
//	relational     = additive ((">" | ">=" | "<" | "<=") additive)*
//	additive       = multiplicative (("+" | "-") multiplicative)*
//	multiplicative = unary (("*" | "/") unary)*
//	unary          = ("-" | "!" | "非") unary | postfix
//	postfix        = primary ("." method "(" expression? ")")*
//	primary        = NUMBER | STRING | "真" | "假" | "(" expression ")"
//	               | "[" (expression ("," expression)*)? "]"
//	               | IDENTIFIER ("(" args ")" | "[" expression "]")?
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n")}
}

// Parse builds a Program from tokens. rawSource is only used to quote the
// offending line in syntax errors.
func Parse(tokens []Token, rawSource string) (*Program, error) {
	return NewParser(tokens, rawSource).ParseProgram()
}

// ParseSource lexes and parses src in one step.
func ParseSource(src string) (*Program, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, src)
}

// errorAt builds a SyntaxError for tok, quoting its source line.
func (p *Parser) errorAt(tok Token, expected string) error {
	snippet := ""
	lineIdx := tok.Line - 1 // Lines are 1-based
	if lineIdx >= 0 && lineIdx < len(p.sourceLines) {
		snippet = strings.TrimSpace(p.sourceLines[lineIdx])
	}
	return &SyntaxError{Expected: expected, Got: tok, Snippet: snippet}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return p.eof()
	}
	return p.tokens[p.pos]
}

func (p *Parser) eof() Token {
	if n := len(p.tokens); n > 0 {
		last := p.tokens[n-1]
		return Token{Type: EOF, Line: last.Line, Col: last.Col}
	}
	return Token{Type: EOF, Line: 1, Col: 1}
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) check(tt TokenType) bool {
	return p.peek().Type == tt
}

// expect consumes the current token if it matches tt, otherwise returns an
// error naming what was expected.
func (p *Parser) expect(tt TokenType, what string) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.errorAt(tok, what)
	}
	return p.advance(), nil
}

// ParseProgram parses statements until EOF.
func (p *Parser) ParseProgram() (*Program, error) {
	prog := &Program{}
	for {
		for p.check(SEMICOLON) {
			p.advance()
		}
		if p.check(EOF) {
			return prog, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
}

// parseBlock parses "{" statement* "}".
func (p *Parser) parseBlock() ([]Stmt, error) {
	if _, err := p.expect(LBRACE, "'{'"); err != nil {
		return nil, err
	}
	stmts := []Stmt{}
	for {
		for p.check(SEMICOLON) {
			p.advance()
		}
		if p.check(RBRACE) {
			p.advance()
			return stmts, nil
		}
		if p.check(EOF) {
			return nil, p.errorAt(p.peek(), "'}'")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

func (p *Parser) parseStatement() (Stmt, error) {
	switch p.peek().Type {
	case LET, VAR, CONST:
		return p.parseVarDecl()
	case FUNCTION:
		return p.parseFuncDecl()
	case IF:
		return p.parseIf()
	case LOOP:
		return p.parseLoop()
	case WHILE:
		return p.parseWhile()
	case FOR:
		return p.parseForEach()
	case RETURN:
		p.advance()
		switch p.peek().Type {
		case SEMICOLON, RBRACE, EOF:
			return &ReturnStmt{}, nil
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ReturnStmt{Value: value}, nil
	case BREAK:
		p.advance()
		return &BreakStmt{}, nil
	case CONTINUE:
		p.advance()
		return &ContinueStmt{}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{Expr: expr}, nil
}

func (p *Parser) parseVarDecl() (Stmt, error) {
	kw := p.advance()
	name, err := p.expect(IDENTIFIER, "variable name")
	if err != nil {
		return nil, err
	}
	decl := &VarDecl{Name: name.Lexeme, IsConst: kw.Type == CONST}
	if p.check(ASSIGN) {
		p.advance()
		decl.Init, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	return decl, nil
}

func (p *Parser) parseFuncDecl() (Stmt, error) {
	p.advance() // 函数
	name, err := p.expect(IDENTIFIER, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN, "'(' after function name"); err != nil {
		return nil, err
	}
	params := []string{}
	if !p.check(RPAREN) {
		for {
			param, err := p.expect(IDENTIFIER, "parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, param.Lexeme)
			if !p.check(COMMA) {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(RPAREN, "')' after parameters"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FuncDecl{Name: name.Lexeme, Params: params, Body: body}, nil
}

func (p *Parser) parseIf() (*IfStmt, error) {
	p.advance() // 如果
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &IfStmt{Cond: cond, Then: then, Else: []Stmt{}}
	if !p.check(ELSE) {
		return stmt, nil
	}
	p.advance()
	if p.check(IF) {
		nested, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		stmt.Else = []Stmt{nested}
		return stmt, nil
	}
	stmt.Else, err = p.parseBlock()
	if err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseLoop() (Stmt, error) {
	p.advance() // 循环
	stmt := &LoopStmt{}
	if !p.check(LBRACE) {
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Cond = cond
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	p.advance() // 当
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body}, nil
}

func (p *Parser) parseForEach() (Stmt, error) {
	p.advance() // 对于
	name, err := p.expect(IDENTIFIER, "loop variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(IN, "'在'"); err != nil {
		return nil, err
	}
	iterable, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ForEachStmt{Var: name.Lexeme, Iterable: iterable, Body: body}, nil
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseAssignment()
}

// parseAssignment handles = (right-associative, target must be a variable).
func (p *Parser) parseAssignment() (Expr, error) {
	left, err := p.parseLogical()
	if err != nil {
		return nil, err
	}
	if !p.check(ASSIGN) {
		return left, nil
	}
	eq := p.peek()
	target, ok := left.(*VarRef)
	if !ok {
		return nil, p.errorAt(eq, "variable name on the left of '='")
	}
	p.advance()
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &AssignExpr{Name: target.Name, Value: value}, nil
}

// binaryOps maps operator tokens to the symbol stored in BinaryExpr.
var binaryOps = map[TokenType]string{
	AND:           "&&",
	OR:            "||",
	EQUALS:        "==",
	NOT_EQ:        "!=",
	LESS:          "<",
	LESS_EQUAL:    "<=",
	GREATER:       ">",
	GREATER_EQUAL: ">=",
	PLUS:          "+",
	MINUS:         "-",
	STAR:          "*",
	SLASH:         "/",
}

// parseBinaryLevel parses one left-associative precedence level.
func (p *Parser) parseBinaryLevel(next func() (Expr, error), ops ...TokenType) (Expr, error) {
	expr, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tt := p.peek().Type
		matched := false
		for _, op := range ops {
			if tt == op {
				matched = true
				break
			}
		}
		if !matched {
			return expr, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: binaryOps[tt], Left: expr, Right: right}
	}
}

// parseLogical handles 且 / 或
func (p *Parser) parseLogical() (Expr, error) {
	return p.parseBinaryLevel(p.parseEquality, AND, OR)
}

// parseEquality handles == / !=
func (p *Parser) parseEquality() (Expr, error) {
	return p.parseBinaryLevel(p.parseRelational, EQUALS, NOT_EQ)
}

// parseRelational handles > >= < <=
func (p *Parser) parseRelational() (Expr, error) {
	return p.parseBinaryLevel(p.parseAdditive, GREATER, GREATER_EQUAL, LESS, LESS_EQUAL)
}

// parseAdditive handles + / -
func (p *Parser) parseAdditive() (Expr, error) {
	return p.parseBinaryLevel(p.parseMultiplicative, PLUS, MINUS)
}

// parseMultiplicative handles * and /
func (p *Parser) parseMultiplicative() (Expr, error) {
	return p.parseBinaryLevel(p.parseUnary, STAR, SLASH)
}

// parseUnary handles prefix - and !. Negation becomes 0 - operand.
func (p *Parser) parseUnary() (Expr, error) {
	switch p.peek().Type {
	case MINUS:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: "-", Left: &NumberLiteral{Value: 0}, Right: operand}, nil
	case NOT:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "!", Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix folds .长度() / .添加(e) / .删除(i) into array nodes.
func (p *Parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.check(DOT) {
		p.advance()
		method, err := p.expect(IDENTIFIER, "method name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(LPAREN, "'(' after method name"); err != nil {
			return nil, err
		}
		switch method.Lexeme {
		case "长度", "length":
			expr = &LengthExpr{Array: expr}
		case "添加", "append":
			elem, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			expr = &AppendExpr{Array: expr, Element: elem}
		case "删除", "removeAt":
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			expr = &RemoveAtExpr{Array: expr, Index: idx}
		default:
			return nil, p.errorAt(method, "array method 长度, 添加 or 删除")
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case NUMBER:
		p.advance()
		return &NumberLiteral{Value: tok.Number}, nil
	case STRING:
		p.advance()
		return &StringLiteral{Value: tok.Lexeme}, nil
	case TRUE, FALSE:
		p.advance()
		return &BoolLiteral{Value: tok.Type == TRUE}, nil
	case LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	case LBRACKET:
		p.advance()
		elems, err := p.parseList(RBRACKET, "']'")
		if err != nil {
			return nil, err
		}
		return &ArrayLiteral{Elements: elems}, nil
	case IDENTIFIER:
		p.advance()
		switch p.peek().Type {
		case LPAREN:
			p.advance()
			args, err := p.parseList(RPAREN, "')'")
			if err != nil {
				return nil, err
			}
			return &CallExpr{Name: tok.Lexeme, Args: args}, nil
		case LBRACKET:
			p.advance()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(RBRACKET, "']'"); err != nil {
				return nil, err
			}
			return &IndexExpr{Array: &VarRef{Name: tok.Lexeme}, Index: idx}, nil
		}
		return &VarRef{Name: tok.Lexeme}, nil
	}
	return nil, p.errorAt(tok, "expression")
}

// parseList parses comma-separated expressions up to and including the
// closing token. The opening token must already be consumed.
func (p *Parser) parseList(closing TokenType, what string) ([]Expr, error) {
	list := []Expr{}
	if p.check(closing) {
		p.advance()
		return list, nil
	}
	for {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if !p.check(COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(closing, what); err != nil {
		return nil, err
	}
	return list, nil
}
