package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/yelongll/rust/pkg/config"
	"github.com/yelongll/rust/pkg/interp"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// cnlang runs the command with a config path that does not exist, so the
// defaults apply.
func cnlang(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	argv := append([]string{"cnlang", "-C", filepath.Join(t.TempDir(), "none.yaml")}, args...)
	code = run(argv, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prog.cn")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunFile(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		stdin    string
		expected string
	}{
		{"Arithmetic", `让 x = 3 + 4 打印("值: " + x)`, "", "值: 7\n"},
		{"Input", `让 名字 = 输入() 打印("你好, " + 名字)`, "世界\n", "你好, 世界\n"},
		{"Input at end", `打印(输入())`, "", "空\n"},
		{"Recursion", "函数 f(n) { 如果 n < 2 { 返回 n } 返回 f(n - 1) + f(n - 2) } 打印(f(15))", "", "610\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := cnlang(t, tt.stdin, writeSource(t, tt.src))
			if code != 0 {
				t.Fatalf("exit code = %d, stderr = %q", code, stderr)
			}
			if stdout != tt.expected {
				t.Errorf("stdout = %q, want %q", stdout, tt.expected)
			}
		})
	}
}

func TestRunFileErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		expected string
	}{
		{"Runtime", "打印(1)\n打印(1 / 0)", "runtime error: division by zero"},
		{"Syntax", "让 = 1", "parse error:"},
		{"Lex", "让 x = 1 @", "lex error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := cnlang(t, "", writeSource(t, tt.src))
			if code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if !strings.Contains(stderr, tt.expected) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.expected)
			}
		})
	}
}

func TestFormatFlag(t *testing.T) {
	code, stdout, stderr := cnlang(t, "", "-F", writeSource(t, "让 x=1+2;打印( x )"))
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if want := "让 x = (1 + 2)\n打印(x)\n"; stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestCompileToC(t *testing.T) {
	out := filepath.Join(t.TempDir(), "prog.c")
	code, _, stderr := cnlang(t, "", "-n", "-k", "c", "-o", out, writeSource(t, `打印("hi")`))
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "int main(void)") {
		t.Errorf("generated C lacks main:\n%s", data)
	}
}

func TestCompileUnsupported(t *testing.T) {
	src := "函数 f() { 函数 g() {} } f()"
	code, _, stderr := cnlang(t, "", "-k", "c", "-o", filepath.Join(t.TempDir(), "x.c"), writeSource(t, src))
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "codegen error: unsupported in compiled code") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestCFlagsCarryCallDepth(t *testing.T) {
	cfg := config.Default()
	cfg.CFlags = []string{"-O2"}
	a := &app{cfg: cfg}
	if got := a.cflags(); !reflect.DeepEqual(got, []string{"-O2"}) {
		t.Errorf("cflags() with the default depth = %v", got)
	}

	cfg.Interpreter.MaxCallDepth = 50
	want := []string{"-O2", "-DRT_MAX_DEPTH=50"}
	if got := a.cflags(); !reflect.DeepEqual(got, want) {
		t.Errorf("cflags() = %v, want %v", got, want)
	}
	if len(cfg.CFlags) != 1 {
		t.Errorf("cflags() modified the configuration: %v", cfg.CFlags)
	}
}

func TestUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"Help", []string{"-h"}, 0},
		{"Unknown kind", []string{"-k", "wasm", "a.cn"}, 2},
		{"Format with kind", []string{"-F", "-k", "c", "a.cn"}, 2},
		{"Two files", []string{"a.cn", "b.cn"}, 2},
		{"Compile without file", []string{"-k", "exe"}, 2},
		{"Unknown option", []string{"-z"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := cnlang(t, "", tt.args...)
			if code != tt.code {
				t.Errorf("exit code = %d, want %d", code, tt.code)
			}
			if !strings.Contains(stdout+stderr, "usage: cnlang") {
				t.Error("usage text not printed")
			}
		})
	}
}

func TestParseOptions(t *testing.T) {
	o, err := parseOptions([]string{"cnlang", "-o", "out", "p.cn"})
	if err != nil {
		t.Fatal(err)
	}
	if !o.compile || o.output != "out" || o.file != "p.cn" {
		t.Errorf("options = %+v", o)
	}

	o, err = parseOptions([]string{"cnlang", "-F", "-o", "fmt.cn", "p.cn"})
	if err != nil {
		t.Fatal(err)
	}
	if o.compile || !o.format {
		t.Errorf("-F -o parsed as %+v", o)
	}
}

// lines feeds canned input to the session.
type lines []string

func (l *lines) Prompt(string) (string, error) {
	if len(*l) == 0 {
		return "", io.EOF
	}
	line := (*l)[0]
	*l = (*l)[1:]
	return line, nil
}

func TestReadByParseProbe(t *testing.T) {
	in := &lines{"如果 真 {", "  打印(1)", "}", "x"}
	code, ok := readByParseProbe(in, "> ", ". ")
	if !ok {
		t.Fatal("unexpected end of input")
	}
	if want := "如果 真 {\n  打印(1)\n}"; code != want {
		t.Errorf("code = %q, want %q", code, want)
	}

	code, ok = readByParseProbe(in, "> ", ". ")
	if !ok || code != "x" {
		t.Errorf("second read = %q, %v", code, ok)
	}
	if _, ok := readByParseProbe(in, "> ", ". "); ok {
		t.Error("expected end of input")
	}
}

func TestReadByParseProbeStopsOnHardError(t *testing.T) {
	in := &lines{"让 = {", "never read"}
	code, ok := readByParseProbe(in, "> ", ". ")
	if !ok || code != "让 = {" {
		t.Errorf("got %q, %v", code, ok)
	}
}

func TestSessionLoop(t *testing.T) {
	var out, errOut bytes.Buffer
	var history []string
	in := interp.New()
	in.Output = &out
	s := &session{
		in:       in,
		stdout:   &out,
		stderr:   &errOut,
		remember: func(code string) { history = append(history, code) },
	}

	s.loop(&lines{"让 x = 2", "x * 3", "打印(x)", "[x, \"a\"]", "1 / 0", ":quit", "打印(99)"})

	if want := "6\n2\n[2, \"a\"]\n"; out.String() != want {
		t.Errorf("stdout = %q, want %q", out.String(), want)
	}
	if !strings.Contains(errOut.String(), "runtime error: division by zero") {
		t.Errorf("stderr = %q", errOut.String())
	}
	if len(history) != 5 {
		t.Errorf("history = %q, want 5 entries", history)
	}
}

func TestForwardInterrupts(t *testing.T) {
	sigc := make(chan os.Signal, 1)
	done := make(chan struct{})
	calls := make(chan struct{}, 2)
	exited := make(chan struct{})
	go func() {
		forwardInterrupts(sigc, done, func() { calls <- struct{}{} })
		close(exited)
	}()

	sigc <- os.Interrupt
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("interrupt was not forwarded")
	}

	close(done)
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("forwardInterrupts did not return after done was closed")
	}
}
