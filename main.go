// Command rust prints every stage of the cnlang pipeline for one source
// file: the source, its tokens, the canonical AST, the generated C and the
// symbol table.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/yelongll/rust/pkg/compiler"
)

const testSource = `让 x = 10
让 y = 20
函数 加(a, b) { 返回 a + b }
打印(加(x, y))
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = string(data)
	}
	if err := dump(os.Stdout, src); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dump(w io.Writer, src string) error {
	fmt.Fprintf(w, "Source:\n%s\n", src)

	tokens, err := compiler.Lex(src)
	if err != nil {
		return fmt.Errorf("lex error: %w", err)
	}
	fmt.Fprintf(w, "Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Fprintln(w, " ", tok)
	}
	fmt.Fprintln(w)

	prog, err := compiler.Parse(tokens, src)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	fmt.Fprintln(w, "AST")
	fmt.Fprint(w, compiler.Format(prog))
	fmt.Fprintln(w)

	syms := compiler.NewSymbolTable()
	csrc, err := compiler.Generate(prog, syms)
	if err != nil {
		return fmt.Errorf("codegen error: %w", err)
	}
	fmt.Fprintln(w, "Generated C")
	fmt.Fprint(w, csrc)
	fmt.Fprintln(w)
	fmt.Fprint(w, syms)
	return nil
}
