// Package interp executes a parsed cnlang program directly.
//
// Values live in environments owned by an arena. Each call gets a fresh
// environment whose parent is the environment the function was declared
// in, so name resolution is lexical. Assignment only ever writes to the
// innermost environment.
package interp

import (
	"bufio"
	"io"
	"log/slog"
	"os"

	"github.com/tevino/abool/v2"

	"github.com/yelongll/rust/pkg/compiler"
)

// DefaultMaxDepth bounds nested calls so runaway recursion fails cleanly.
const DefaultMaxDepth = compiler.DefaultMaxCallDepth

// Interpreter runs programs. Globals persist across calls to Run on the same
// Interpreter. It is not safe for concurrent use, except for Interrupt.
type Interpreter struct {
	Output   io.Writer
	Input    io.Reader
	MaxDepth int
	Logger   *slog.Logger

	arena       *arena
	globals     envID
	depth       int
	reader      *bufio.Reader
	readerFrom  io.Reader
	interrupted *abool.AtomicBool
}

// New returns an interpreter wired to standard output and standard input.
func New() *Interpreter {
	logger := slog.New(slog.DiscardHandler)
	in := &Interpreter{
		Output:      os.Stdout,
		Input:       os.Stdin,
		MaxDepth:    DefaultMaxDepth,
		Logger:      logger,
		interrupted: abool.NewBool(false),
	}
	in.arena = newArena(logger)
	in.globals = in.arena.alloc(noParent)
	in.arena.capture(in.globals)
	for _, b := range builtins {
		in.arena.define(in.globals, b.Name, b)
	}
	return in
}

// SetLogger replaces the debug logger of the interpreter and its arena.
func (in *Interpreter) SetLogger(logger *slog.Logger) {
	in.Logger = logger
	in.arena.logger = logger
}

// Interrupt asks the running program to stop. The program fails with
// ErrInterrupted at the next loop iteration or call.
func (in *Interpreter) Interrupt() {
	in.interrupted.Set()
}

// Run executes prog and returns the value of its last statement when that
// statement is an expression, and null otherwise.
func (in *Interpreter) Run(prog *compiler.Program) (Value, error) {
	in.interrupted.UnSet()
	in.depth = 0

	var last Value = null
	for _, stmt := range prog.Stmts {
		if es, ok := stmt.(*compiler.ExprStmt); ok {
			v, err := in.eval(es.Expr, in.globals)
			if err != nil {
				return nil, err
			}
			last = v
			continue
		}
		last = null
		out, err := in.exec(stmt, in.globals)
		if err != nil {
			return nil, err
		}
		switch out.kind {
		case breakOut:
			return nil, &RuntimeError{Kind: ControlOutsideLoop, Name: "break"}
		case continueOut:
			return nil, &RuntimeError{Kind: ControlOutsideLoop, Name: "continue"}
		case returnOut:
			return null, nil
		}
	}
	return last, nil
}

// RunSource parses and runs src.
func (in *Interpreter) RunSource(src string) (Value, error) {
	prog, err := compiler.ParseSource(src)
	if err != nil {
		return nil, err
	}
	return in.Run(prog)
}

// Global returns the program-level binding called name.
func (in *Interpreter) Global(name string) (Value, bool) {
	return in.arena.lookup(in.globals, name)
}

func (in *Interpreter) checkInterrupt() error {
	if in.interrupted.IsSet() {
		return ErrInterrupted
	}
	return nil
}

// readLine reads one line of input, without its line ending. ok is false
// at end of input.
func (in *Interpreter) readLine() (line string, ok bool, err error) {
	if in.reader == nil || in.readerFrom != in.Input {
		in.reader = bufio.NewReader(in.Input)
		in.readerFrom = in.Input
	}
	s, err := in.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, err
	}
	if s == "" && err == io.EOF {
		return "", false, nil
	}
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s, true, nil
}
