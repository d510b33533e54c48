package compiler

import "fmt"

// Compile runs the whole front end and returns the generated C source.
// Errors keep their concrete type (LexError, SyntaxError, UnsupportedError)
// behind the stage prefix.
func Compile(src string) (string, error) {
	tokens, err := Lex(src)
	if err != nil {
		return "", fmt.Errorf("lex error: %w", err)
	}

	prog, err := Parse(tokens, src)
	if err != nil {
		return "", fmt.Errorf("parse error: %w", err)
	}

	csrc, err := Generate(prog, NewSymbolTable())
	if err != nil {
		return "", fmt.Errorf("codegen error: %w", err)
	}
	return csrc, nil
}
