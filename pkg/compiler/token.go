package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // variable / function name
	NUMBER     // 64-bit float literal
	STRING     // string literal "..."
	TRUE       // 真
	FALSE      // 假

	// Keywords
	IF       // 如果
	ELSE     // 否则
	LOOP     // 循环
	WHILE    // 当
	FOR      // 对于
	IN       // 在
	FUNCTION // 函数
	RETURN   // 返回
	LET      // 让
	CONST    // 常量
	VAR      // 变量
	BREAK    // 跳出
	CONTINUE // 继续
	AND      // 且
	OR       // 或
	NOT      // 非 or !

	// Paired delimiters
	LBRACE   // {
	RBRACE   // }
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]

	// Punctuation
	DOT       // .
	SEMICOLON // ;
	COMMA     // ,
	COLON     // :

	// Arithmetic operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /

	// Assignment / comparison
	ASSIGN        // =
	EQUALS        // ==
	NOT_EQ        // !=
	LESS          // <
	LESS_EQUAL    // <=
	GREATER       // >
	GREATER_EQUAL // >=
)

var tokenNames = [...]string{
	EOF:           "EOF",
	IDENTIFIER:    "IDENTIFIER",
	NUMBER:        "NUMBER",
	STRING:        "STRING",
	TRUE:          "TRUE",
	FALSE:         "FALSE",
	IF:            "IF",
	ELSE:          "ELSE",
	LOOP:          "LOOP",
	WHILE:         "WHILE",
	FOR:           "FOR",
	IN:            "IN",
	FUNCTION:      "FUNCTION",
	RETURN:        "RETURN",
	LET:           "LET",
	CONST:         "CONST",
	VAR:           "VAR",
	BREAK:         "BREAK",
	CONTINUE:      "CONTINUE",
	AND:           "AND",
	OR:            "OR",
	NOT:           "NOT",
	LBRACE:        "{",
	RBRACE:        "}",
	LPAREN:        "(",
	RPAREN:        ")",
	LBRACKET:      "[",
	RBRACKET:      "]",
	DOT:           ".",
	SEMICOLON:     ";",
	COMMA:         ",",
	COLON:         ":",
	PLUS:          "+",
	MINUS:         "-",
	STAR:          "*",
	SLASH:         "/",
	ASSIGN:        "=",
	EQUALS:        "==",
	NOT_EQ:        "!=",
	LESS:          "<",
	LESS_EQUAL:    "<=",
	GREATER:       ">",
	GREATER_EQUAL: ">=",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is a single lexical unit produced by the Lexer.
//
// Lexeme holds the source spelling, except for STRING tokens where it holds
// the decoded text with escapes already applied. Number carries the parsed
// value of a NUMBER token.
type Token struct {
	Type   TokenType
	Lexeme string
	Number float64
	Line   int
	Col    int
}

func (t Token) String() string {
	switch t.Type {
	case NUMBER:
		return fmt.Sprintf("%d:%d %s %s", t.Line, t.Col, t.Type, t.Lexeme)
	case STRING:
		return fmt.Sprintf("%d:%d %s %q", t.Line, t.Col, t.Type, t.Lexeme)
	case IDENTIFIER:
		return fmt.Sprintf("%d:%d %s %s", t.Line, t.Col, t.Type, t.Lexeme)
	}
	return fmt.Sprintf("%d:%d %s", t.Line, t.Col, t.Type)
}
