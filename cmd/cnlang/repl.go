package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/yelongll/rust/pkg/compiler"
	"github.com/yelongll/rust/pkg/interp"
)

const (
	historyFile = ".cnlang_history"
	promptMain  = "cn> "
	promptCont  = "... "
)

const banner = "cnlang interactive session\nCtrl+C cancels input or stops a running program, Ctrl+D exits. Type :quit to exit."

// prompter is the part of liner.State the session reads from.
type prompter interface {
	Prompt(prompt string) (string, error)
}

func (a *app) repl(in *interp.Interpreter) int {
	fmt.Fprintln(a.stdout, banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	// The line editor owns Ctrl+C while prompting; between prompts it
	// arrives as a signal and stops the running program.
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)
	done := make(chan struct{})
	defer close(done)
	go forwardInterrupts(sigc, done, in.Interrupt)

	s := &session{
		in:     in,
		stdout: a.stdout,
		stderr: a.stderr,
		remember: func(code string) {
			ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		},
	}
	s.loop(ln)
	return 0
}

// forwardInterrupts calls interrupt for every signal on sigc until done is
// closed.
func forwardInterrupts(sigc <-chan os.Signal, done <-chan struct{}, interrupt func()) {
	for {
		select {
		case <-sigc:
			interrupt()
		case <-done:
			return
		}
	}
}

type session struct {
	in       *interp.Interpreter
	stdout   io.Writer
	stderr   io.Writer
	remember func(string)
}

func (s *session) loop(p prompter) {
	blue := color.New(color.FgHiBlue).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for {
		code, ok := readByParseProbe(p, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(s.stdout)
			return
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return
			default:
				fmt.Fprintln(s.stdout, "unknown command. Type :quit to exit.")
			}
			continue
		}

		if s.remember != nil {
			s.remember(code)
		}
		prog, err := parse(code)
		if err != nil {
			fmt.Fprintln(s.stderr, red(err.Error()))
			continue
		}
		v, err := s.in.Run(prog)
		if err != nil {
			fmt.Fprintln(s.stderr, red("runtime error: "+err.Error()))
			continue
		}
		if _, isNull := v.(interp.Null); !isNull {
			fmt.Fprintln(s.stdout, blue(interp.Repr(v)))
		}
	}
}

// readByParseProbe keeps prompting until the collected lines parse, or fail
// for a reason other than ending early.
func readByParseProbe(p prompter, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = p.Prompt(prompt)
		} else {
			line, err = p.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C discards the pending input.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		_, perr := compiler.ParseSource(src)
		if perr == nil || !compiler.IsIncomplete(perr) {
			return src, true
		}
	}
}
