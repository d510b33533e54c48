package compiler

import (
	"strconv"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"如果": IF,
	"否则": ELSE,
	"循环": LOOP,
	"当":  WHILE,
	"对于": FOR,
	"在":  IN,
	"函数": FUNCTION,
	"返回": RETURN,
	"让":  LET,
	"常量": CONST,
	"变量": VAR,
	"跳出": BREAK,
	"继续": CONTINUE,
	"且":  AND,
	"或":  OR,
	"非":  NOT,
	"真":  TRUE,
	"假":  FALSE,
}

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // 1-based column of the next rune
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1, col: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	if l.pos+1 >= len(l.src) {
		return 0
	}
	return l.src[l.pos+1]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLineComment discards everything from the current position to end-of-line.
// The opening "//" must already have been consumed.
func (l *Lexer) skipLineComment() {
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
}

// scanIdent collects a full identifier or keyword token.
// The first character must still be at l.peek().
func (l *Lexer) scanIdent() Token {
	line, col := l.line, l.col
	start := l.pos
	for !l.atEnd() && isWordPart(l.peek()) {
		l.advance()
	}
	lexeme := norm.NFC.String(string(l.src[start:l.pos]))
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Line: line, Col: col}
}

// scanNumber collects digits with at most one decimal point.
func (l *Lexer) scanNumber() (Token, error) {
	line, col := l.line, l.col
	start := l.pos
	seenDot := false
	for !l.atEnd() {
		r := l.peek()
		if r >= '0' && r <= '9' {
			l.advance()
			continue
		}
		if r == '.' && !seenDot {
			seenDot = true
			l.advance()
			continue
		}
		break
	}
	text := string(l.src[start:l.pos])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, &LexError{Kind: MalformedNumber, Text: text, Line: line, Col: col}
	}
	return Token{Type: NUMBER, Lexeme: text, Number: v, Line: line, Col: col}, nil
}

// scanString collects a string literal and decodes its escapes.
// The opening quote must still be at l.peek().
func (l *Lexer) scanString() (Token, error) {
	line, col := l.line, l.col
	l.advance() // opening "
	var out []rune
	for {
		if l.atEnd() {
			return Token{}, &LexError{Kind: UnterminatedString, Line: line, Col: col}
		}
		r := l.advance()
		if r == '"' {
			break
		}
		if r != '\\' {
			out = append(out, r)
			continue
		}
		if l.atEnd() {
			return Token{}, &LexError{Kind: UnterminatedString, Line: line, Col: col}
		}
		switch esc := l.advance(); esc {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		default:
			out = append(out, esc)
		}
	}
	return Token{Type: STRING, Lexeme: string(out), Line: line, Col: col}, nil
}

// nextToken scans and returns the next token, skipping whitespace and comments.
func (l *Lexer) nextToken() (Token, error) {
	for {
		l.skipWhitespace()
		if l.peek() == '/' && l.peek2() == '/' {
			l.advance()
			l.advance()
			l.skipLineComment()
			continue
		}
		break
	}

	if l.atEnd() {
		return Token{Type: EOF, Line: l.line, Col: l.col}, nil
	}

	r := l.peek()
	switch {
	case r >= '0' && r <= '9':
		return l.scanNumber()
	case isWordStart(r):
		return l.scanIdent(), nil
	case r == '"':
		return l.scanString()
	}

	line, col := l.line, l.col
	tok := func(tt TokenType, lexeme string) (Token, error) {
		return Token{Type: tt, Lexeme: lexeme, Line: line, Col: col}, nil
	}

	l.advance()
	switch r {
	case '+':
		return tok(PLUS, "+")
	case '-':
		return tok(MINUS, "-")
	case '*':
		return tok(STAR, "*")
	case '/':
		return tok(SLASH, "/")
	case '(':
		return tok(LPAREN, "(")
	case ')':
		return tok(RPAREN, ")")
	case '{':
		return tok(LBRACE, "{")
	case '}':
		return tok(RBRACE, "}")
	case '[':
		return tok(LBRACKET, "[")
	case ']':
		return tok(RBRACKET, "]")
	case ',':
		return tok(COMMA, ",")
	case ';':
		return tok(SEMICOLON, ";")
	case ':':
		return tok(COLON, ":")
	case '.':
		return tok(DOT, ".")
	case '=':
		if l.peek() == '=' {
			l.advance()
			return tok(EQUALS, "==")
		}
		return tok(ASSIGN, "=")
	case '!':
		if l.peek() == '=' {
			l.advance()
			return tok(NOT_EQ, "!=")
		}
		return tok(NOT, "!")
	case '<':
		if l.peek() == '=' {
			l.advance()
			return tok(LESS_EQUAL, "<=")
		}
		return tok(LESS, "<")
	case '>':
		if l.peek() == '=' {
			l.advance()
			return tok(GREATER_EQUAL, ">=")
		}
		return tok(GREATER, ">")
	}

	return Token{}, &LexError{Kind: UnknownCharacter, Char: r, Line: line, Col: col}
}

// Lex tokenizes src and returns every token, always ending with EOF.
// The first lexical error aborts the scan.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
