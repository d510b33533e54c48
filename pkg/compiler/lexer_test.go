package compiler

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "Empty",
			input: "",
			expected: []Token{
				{Type: EOF, Line: 1, Col: 1},
			},
		},
		{
			name:  "Operators",
			input: "+ - == != <= >= ! = < >",
			expected: []Token{
				{Type: PLUS, Lexeme: "+", Line: 1, Col: 1},
				{Type: MINUS, Lexeme: "-", Line: 1, Col: 3},
				{Type: EQUALS, Lexeme: "==", Line: 1, Col: 5},
				{Type: NOT_EQ, Lexeme: "!=", Line: 1, Col: 8},
				{Type: LESS_EQUAL, Lexeme: "<=", Line: 1, Col: 11},
				{Type: GREATER_EQUAL, Lexeme: ">=", Line: 1, Col: 14},
				{Type: NOT, Lexeme: "!", Line: 1, Col: 17},
				{Type: ASSIGN, Lexeme: "=", Line: 1, Col: 19},
				{Type: LESS, Lexeme: "<", Line: 1, Col: 21},
				{Type: GREATER, Lexeme: ">", Line: 1, Col: 23},
				{Type: EOF, Line: 1, Col: 24},
			},
		},
		{
			name:  "Delimiters",
			input: "(){}[],;:.",
			expected: []Token{
				{Type: LPAREN, Lexeme: "(", Line: 1, Col: 1},
				{Type: RPAREN, Lexeme: ")", Line: 1, Col: 2},
				{Type: LBRACE, Lexeme: "{", Line: 1, Col: 3},
				{Type: RBRACE, Lexeme: "}", Line: 1, Col: 4},
				{Type: LBRACKET, Lexeme: "[", Line: 1, Col: 5},
				{Type: RBRACKET, Lexeme: "]", Line: 1, Col: 6},
				{Type: COMMA, Lexeme: ",", Line: 1, Col: 7},
				{Type: SEMICOLON, Lexeme: ";", Line: 1, Col: 8},
				{Type: COLON, Lexeme: ":", Line: 1, Col: 9},
				{Type: DOT, Lexeme: ".", Line: 1, Col: 10},
				{Type: EOF, Line: 1, Col: 11},
			},
		},
		{
			name:  "Declaration",
			input: "让 x = 3.5",
			expected: []Token{
				{Type: LET, Lexeme: "让", Line: 1, Col: 1},
				{Type: IDENTIFIER, Lexeme: "x", Line: 1, Col: 3},
				{Type: ASSIGN, Lexeme: "=", Line: 1, Col: 5},
				{Type: NUMBER, Lexeme: "3.5", Number: 3.5, Line: 1, Col: 7},
				{Type: EOF, Line: 1, Col: 10},
			},
		},
		{
			name:  "Keywords and booleans",
			input: "如果 否则 循环 当 对于 在 函数 返回 常量 变量 跳出 继续 且 或 非 真 假",
			expected: []Token{
				{Type: IF, Lexeme: "如果", Line: 1, Col: 1},
				{Type: ELSE, Lexeme: "否则", Line: 1, Col: 4},
				{Type: LOOP, Lexeme: "循环", Line: 1, Col: 7},
				{Type: WHILE, Lexeme: "当", Line: 1, Col: 10},
				{Type: FOR, Lexeme: "对于", Line: 1, Col: 12},
				{Type: IN, Lexeme: "在", Line: 1, Col: 15},
				{Type: FUNCTION, Lexeme: "函数", Line: 1, Col: 17},
				{Type: RETURN, Lexeme: "返回", Line: 1, Col: 20},
				{Type: CONST, Lexeme: "常量", Line: 1, Col: 23},
				{Type: VAR, Lexeme: "变量", Line: 1, Col: 26},
				{Type: BREAK, Lexeme: "跳出", Line: 1, Col: 29},
				{Type: CONTINUE, Lexeme: "继续", Line: 1, Col: 32},
				{Type: AND, Lexeme: "且", Line: 1, Col: 35},
				{Type: OR, Lexeme: "或", Line: 1, Col: 37},
				{Type: NOT, Lexeme: "非", Line: 1, Col: 39},
				{Type: TRUE, Lexeme: "真", Line: 1, Col: 41},
				{Type: FALSE, Lexeme: "假", Line: 1, Col: 43},
				{Type: EOF, Line: 1, Col: 44},
			},
		},
		{
			name:  "Identifiers",
			input: "计数器 total_2 名字1",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "计数器", Line: 1, Col: 1},
				{Type: IDENTIFIER, Lexeme: "total_2", Line: 1, Col: 5},
				{Type: IDENTIFIER, Lexeme: "名字1", Line: 1, Col: 13},
				{Type: EOF, Line: 1, Col: 16},
			},
		},
		{
			name:  "Strings and escapes",
			input: `"a\n\t\"b\\" "\q"`,
			expected: []Token{
				{Type: STRING, Lexeme: "a\n\t\"b\\", Line: 1, Col: 1},
				{Type: STRING, Lexeme: "q", Line: 1, Col: 14},
				{Type: EOF, Line: 1, Col: 18},
			},
		},
		{
			name:  "Comments and lines",
			input: "x // note\n  y",
			expected: []Token{
				{Type: IDENTIFIER, Lexeme: "x", Line: 1, Col: 1},
				{Type: IDENTIFIER, Lexeme: "y", Line: 2, Col: 3},
				{Type: EOF, Line: 2, Col: 4},
			},
		},
		{
			name:  "Number followed by method",
			input: "10.长度",
			expected: []Token{
				{Type: NUMBER, Lexeme: "10.", Number: 10, Line: 1, Col: 1},
				{Type: IDENTIFIER, Lexeme: "长度", Line: 1, Col: 4},
				{Type: EOF, Line: 1, Col: 6},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Lex() mismatch\n got: %v\nwant: %v", got, tt.expected)
			}
		})
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  LexErrorKind
		line  int
		col   int
	}{
		{"Unknown character", "让 x = 1 @", UnknownCharacter, 1, 9},
		{"Unknown on second line", "x\n  %", UnknownCharacter, 2, 3},
		{"Unterminated string", `打印("abc`, UnterminatedString, 1, 4},
		{"Trailing backslash", `"abc\`, UnterminatedString, 1, 1},
		{"Number overflow", strings.Repeat("9", 400), MalformedNumber, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Lex(tt.input)
			var le *LexError
			if !errors.As(err, &le) {
				t.Fatalf("Lex() error = %v, want *LexError", err)
			}
			if le.Kind != tt.kind || le.Line != tt.line || le.Col != tt.col {
				t.Errorf("got kind=%d at %d:%d, want kind=%d at %d:%d", le.Kind, le.Line, le.Col, tt.kind, tt.line, tt.col)
			}
		})
	}
}

func TestLexNormalizesIdentifiers(t *testing.T) {
	decomposed := "cafe\u0301"
	composed := "caf\u00e9"
	a, err := Lex(decomposed)
	if err != nil {
		t.Fatalf("Lex(decomposed) error = %v", err)
	}
	b, err := Lex(composed)
	if err != nil {
		t.Fatalf("Lex(composed) error = %v", err)
	}
	if a[0].Lexeme != b[0].Lexeme {
		t.Errorf("lexemes differ: %q vs %q", a[0].Lexeme, b[0].Lexeme)
	}
}

func TestWordTable(t *testing.T) {
	for _, r := range wordRanges {
		if !isWordStart(r.Lo) || !isWordStart(r.Hi) {
			t.Errorf("range %s [%U, %U] not covered", r.Name, r.Lo, r.Hi)
		}
	}
	for _, r := range []rune{'@', '1', '_', ' ', '+'} {
		if isWordStart(r) {
			t.Errorf("isWordStart(%q) = true", r)
		}
	}
	if !isWordPart('_') || !isWordPart('7') {
		t.Error("digits and underscore must continue identifiers")
	}
}
