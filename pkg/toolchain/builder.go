package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/yelongll/rust/pkg/vfs"
)

// ToolError reports a failed compiler invocation together with everything
// it printed.
type ToolError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Builder drives the host C compiler.
type Builder struct {
	CC     string
	CFlags []string
	// Disk receives artifacts of KindC and is used by the cache. The
	// compiler itself always writes to the host file system.
	Disk   vfs.Disk
	Cache  *Cache
	Logger *slog.Logger
	// TempDir holds the intermediate .c file; empty means os.TempDir.
	TempDir string
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

func (b *Builder) cc() string {
	if b.CC == "" {
		return "cc"
	}
	return b.CC
}

// Args is the compiler command line for building src into output.
func (b *Builder) Args(kind Kind, src, output string) []string {
	args := append([]string(nil), b.CFlags...)
	args = append(args, kind.compileFlags()...)
	args = append(args, src, "-o", output)
	return append(args, kind.linkFlags()...)
}

// Build writes the artifact of the given kind for the C translation unit
// source to output.
func (b *Builder) Build(ctx context.Context, source string, kind Kind, output string) error {
	if kind == KindC {
		return b.Disk.WriteFile(output, []byte(source), 0644)
	}

	var key string
	if b.Cache != nil {
		key = CacheKey(b.cc(), b.CFlags, kind, source)
		hit, err := b.Cache.Fetch(key, kind, output)
		if err != nil {
			b.logger().Warn("cache lookup failed", "err", err)
		}
		if hit {
			return nil
		}
	}

	if err := b.compile(ctx, source, kind, output); err != nil {
		return err
	}

	if b.Cache != nil {
		if err := b.Cache.Store(key, kind, b.cc(), len(source), output); err != nil {
			b.logger().Warn("cache store failed", "err", err)
		}
	}
	return nil
}

func (b *Builder) compile(ctx context.Context, source string, kind Kind, output string) error {
	tmp, err := os.CreateTemp(b.TempDir, "cnlang-*.c")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(source); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	args := b.Args(kind, tmp.Name(), output)
	b.logger().Debug("run compiler", "cc", b.cc(), "args", args)
	cmd := exec.CommandContext(ctx, b.cc(), args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return &ToolError{Tool: b.cc(), Args: args, Output: string(out), Err: err}
	}
	return nil
}
