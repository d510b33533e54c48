package compiler

import (
	"errors"
	"fmt"
)

// LexErrorKind classifies a tokenization failure.
type LexErrorKind int

const (
	UnknownCharacter LexErrorKind = iota
	UnterminatedString
	MalformedNumber
)

// LexError reports the first character the lexer could not accept.
type LexError struct {
	Kind LexErrorKind
	Char rune   // offending character, for UnknownCharacter
	Text string // offending literal text, for MalformedNumber
	Line int
	Col  int
}

func (e *LexError) Error() string {
	switch e.Kind {
	case UnterminatedString:
		return fmt.Sprintf("line %d, column %d: unterminated string", e.Line, e.Col)
	case MalformedNumber:
		return fmt.Sprintf("line %d, column %d: malformed number %q", e.Line, e.Col, e.Text)
	}
	return fmt.Sprintf("line %d, column %d: unexpected character %q", e.Line, e.Col, e.Char)
}

// SyntaxError reports the first token the parser could not accept.
type SyntaxError struct {
	Expected string
	Got      Token
	Snippet  string
}

func (e *SyntaxError) Error() string {
	got := e.Got.Type.String()
	switch e.Got.Type {
	case IDENTIFIER, NUMBER:
		got = fmt.Sprintf("%s %s", e.Got.Type, e.Got.Lexeme)
	case STRING:
		got = fmt.Sprintf("%s %q", e.Got.Type, e.Got.Lexeme)
	case EOF:
		got = "end of input"
	}
	msg := fmt.Sprintf("line %d, column %d: expected %s, got %s", e.Got.Line, e.Got.Col, e.Expected, got)
	if e.Snippet != "" {
		msg += "\n  |> " + e.Snippet
	}
	return msg
}

// IsIncomplete reports whether err means the input stopped in the middle of
// a construct, so that more lines could complete it.
func IsIncomplete(err error) bool {
	var se *SyntaxError
	if errors.As(err, &se) {
		return se.Got.Type == EOF
	}
	var le *LexError
	if errors.As(err, &le) {
		return le.Kind == UnterminatedString
	}
	return false
}

// UnsupportedError is returned by the C generator for programs it cannot
// translate with the interpreter's meaning intact.
type UnsupportedError struct {
	Construct string
	Name      string
}

func (e *UnsupportedError) Error() string {
	if e.Name == "" {
		return "unsupported in compiled code: " + e.Construct
	}
	return fmt.Sprintf("unsupported in compiled code: %s (%s)", e.Construct, e.Name)
}
