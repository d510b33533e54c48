// Command cnlang runs, compiles and formats cnlang programs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/fatih/color"

	"github.com/yelongll/rust/pkg/compiler"
	"github.com/yelongll/rust/pkg/config"
	"github.com/yelongll/rust/pkg/interp"
	"github.com/yelongll/rust/pkg/toolchain"
	"github.com/yelongll/rust/pkg/vfs"
)

const usage = `usage: cnlang [options] [file]

With no options the program is interpreted. With no file an interactive
session starts.

options:
  -k KIND    compile to KIND: c, exe, shared or object
  -o PATH    output path; implies -k exe unless -k or -F is given
  -C PATH    configuration file (default cnlang.yaml)
  -i         start an interactive session after running file
  -F         print the canonical formatting of file
  -n         do not use the build cache
  -v         verbose logging
  -h         show this help
`

type options struct {
	kind        toolchain.Kind
	compile     bool
	output      string
	configPath  string
	interactive bool
	format      bool
	noCache     bool
	verbose     bool
	file        string
}

func parseOptions(args []string) (*options, error) {
	opts, optind, err := getopt.Getopts(args, "k:o:C:iFnvh")
	if err != nil {
		return nil, err
	}
	o := &options{configPath: config.DefaultPath, kind: toolchain.KindExecutable}
	kindSet := false
	for _, opt := range opts {
		switch opt.Option {
		case 'k':
			k, err := toolchain.ParseKind(opt.Value)
			if err != nil {
				return nil, err
			}
			o.kind = k
			kindSet = true
		case 'o':
			o.output = opt.Value
		case 'C':
			o.configPath = opt.Value
		case 'i':
			o.interactive = true
		case 'F':
			o.format = true
		case 'n':
			o.noCache = true
		case 'v':
			o.verbose = true
		case 'h':
			return nil, errHelp
		}
	}
	rest := args[optind:]
	switch len(rest) {
	case 0:
	case 1:
		o.file = rest[0]
	default:
		return nil, fmt.Errorf("expected at most one file, got %d", len(rest))
	}
	if kindSet && o.format {
		return nil, errors.New("-F cannot be combined with -k")
	}
	o.compile = kindSet || (o.output != "" && !o.format)
	if (o.compile || o.format) && o.file == "" {
		return nil, errors.New("a source file is required")
	}
	return o, nil
}

var errHelp = errors.New("help requested")

// cacheMaxAge is how long an unused cache entry is kept.
const cacheMaxAge = 30 * 24 * time.Hour

// app carries what every mode needs.
type app struct {
	opts   *options
	cfg    *config.Config
	disk   vfs.Disk
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (a *app) fail(format string, args ...any) int {
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintln(a.stderr, red(fmt.Sprintf(format, args...)))
	return 1
}

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args)
	if errors.Is(err, errHelp) {
		fmt.Fprint(stdout, usage)
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "cnlang: %v\n\n%s", err, usage)
		return 2
	}

	disk := vfs.OSDisk{}
	cfg, err := config.Load(disk, opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "cnlang: %v\n", err)
		return 1
	}
	cfg.ApplyEnv(os.Getenv)
	if !cfg.Log.Color {
		color.NoColor = true
	}

	level := cfg.SlogLevel()
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if opts.verbose {
		if data, err := cfg.Marshal(); err == nil {
			logger.Debug("configuration", "path", opts.configPath, "config", string(data))
		}
	}

	a := &app{
		opts:   opts,
		cfg:    cfg,
		disk:   disk,
		logger: logger,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	switch {
	case opts.format:
		return a.formatFile()
	case opts.compile:
		return a.compileFile()
	case opts.file == "":
		return a.repl(a.newInterpreter())
	}

	in := a.newInterpreter()
	if code := a.runFile(in); code != 0 || !opts.interactive {
		return code
	}
	return a.repl(in)
}

func (a *app) readSource() (string, error) {
	data, err := a.disk.ReadFile(a.opts.file)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func parse(src string) (*compiler.Program, error) {
	tokens, err := compiler.Lex(src)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	prog, err := compiler.Parse(tokens, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return prog, nil
}

func (a *app) newInterpreter() *interp.Interpreter {
	in := interp.New()
	in.Input = a.stdin
	in.Output = a.stdout
	in.MaxDepth = a.cfg.Interpreter.MaxCallDepth
	in.SetLogger(a.logger)
	return in
}

func (a *app) runFile(in *interp.Interpreter) int {
	src, err := a.readSource()
	if err != nil {
		return a.fail("%v", err)
	}
	prog, err := parse(src)
	if err != nil {
		return a.fail("%v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)
	done := make(chan struct{})
	defer close(done)
	go forwardInterrupts(sigc, done, in.Interrupt)

	if _, err := in.Run(prog); err != nil {
		return a.fail("runtime error: %v", err)
	}
	return 0
}

func (a *app) formatFile() int {
	src, err := a.readSource()
	if err != nil {
		return a.fail("%v", err)
	}
	prog, err := parse(src)
	if err != nil {
		return a.fail("%v", err)
	}
	out := compiler.Format(prog)
	if a.opts.output == "" {
		fmt.Fprint(a.stdout, out)
		return 0
	}
	if err := a.disk.WriteFile(a.opts.output, []byte(out), 0644); err != nil {
		return a.fail("%v", err)
	}
	return 0
}

func (a *app) compileFile() int {
	src, err := a.readSource()
	if err != nil {
		return a.fail("%v", err)
	}
	csrc, err := compiler.Compile(src)
	if err != nil {
		return a.fail("%v", err)
	}

	kind := a.opts.kind
	output := a.opts.output
	if output == "" {
		output = toolchain.DefaultOutput(a.opts.file, kind, runtime.GOOS)
	}

	b := &toolchain.Builder{
		CC:     a.cfg.CC,
		CFlags: a.cflags(),
		Disk:   a.disk,
		Logger: a.logger,
	}
	if kind != toolchain.KindC && a.cfg.Cache.Enabled && !a.opts.noCache {
		cache, closeCache, err := a.openCache()
		if err != nil {
			a.logger.Warn("build cache unavailable", "err", err)
		} else {
			defer closeCache()
			b.Cache = cache
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := b.Build(ctx, csrc, kind, output); err != nil {
		var te *toolchain.ToolError
		if errors.As(err, &te) {
			return a.fail("toolchain error: %v", te)
		}
		return a.fail("%v", err)
	}
	a.logger.Info("built", "kind", kind, "output", output)
	return 0
}

// cflags carries the configured call depth limit into compiled programs.
func (a *app) cflags() []string {
	flags := append([]string(nil), a.cfg.CFlags...)
	if d := a.cfg.Interpreter.MaxCallDepth; d != compiler.DefaultMaxCallDepth {
		flags = append(flags, fmt.Sprintf("-DRT_MAX_DEPTH=%d", d))
	}
	return flags
}

func (a *app) openCache() (*toolchain.Cache, func(), error) {
	dir := a.cfg.Cache.Path
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, err
	}
	log, err := toolchain.OpenBuildLog(filepath.Join(dir, "builds.db"))
	if err != nil {
		return nil, nil, err
	}
	cache := &toolchain.Cache{Dir: dir, Disk: a.disk, Log: log, Logger: a.logger}
	if n, err := cache.Prune(time.Now().Add(-cacheMaxAge)); err != nil {
		a.logger.Warn("prune build cache", "err", err)
	} else if n > 0 {
		a.logger.Debug("pruned build cache", "entries", n)
	}
	return cache, func() { log.Close() }, nil
}
