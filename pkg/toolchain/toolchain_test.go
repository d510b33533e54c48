package toolchain

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/yelongll/rust/pkg/vfs"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input    string
		expected Kind
		wantErr  bool
	}{
		{"c", KindC, false},
		{"exe", KindExecutable, false},
		{"EXE", KindExecutable, false},
		{"shared", KindShared, false},
		{"dll", KindShared, false},
		{"object", KindObject, false},
		{"o", KindObject, false},
		{"wasm", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.expected {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDefaultOutput(t *testing.T) {
	tests := []struct {
		input    string
		kind     Kind
		goos     string
		expected string
	}{
		{"prog.cn", KindC, "linux", "prog.c"},
		{"prog.cn", KindExecutable, "linux", "prog"},
		{"prog.cn", KindExecutable, "windows", "prog.exe"},
		{"lib/m.cn", KindShared, "linux", "lib/m.so"},
		{"m.cn", KindShared, "windows", "m.dll"},
		{"m.cn", KindShared, "darwin", "m.dylib"},
		{"m.cn", KindObject, "linux", "m.o"},
		{"prog", KindExecutable, "linux", "prog.out"},
	}

	for _, tt := range tests {
		got := DefaultOutput(tt.input, tt.kind, tt.goos)
		if got != tt.expected {
			t.Errorf("DefaultOutput(%q, %v, %s) = %q, want %q", tt.input, tt.kind, tt.goos, got, tt.expected)
		}
	}
}

func TestBuilderArgs(t *testing.T) {
	b := &Builder{CFlags: []string{"-O2", "-std=c99"}}
	tests := []struct {
		kind     Kind
		expected []string
	}{
		{KindExecutable, []string{"-O2", "-std=c99", "in.c", "-o", "out", "-lm"}},
		{KindShared, []string{"-O2", "-std=c99", "-shared", "-fPIC", "in.c", "-o", "out", "-lm"}},
		{KindObject, []string{"-O2", "-std=c99", "-c", "in.c", "-o", "out"}},
	}
	for _, tt := range tests {
		got := b.Args(tt.kind, "in.c", "out")
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Args(%v) = %v, want %v", tt.kind, got, tt.expected)
		}
	}
	if len(b.CFlags) != 2 {
		t.Errorf("Args modified CFlags: %v", b.CFlags)
	}
}

func TestCacheKey(t *testing.T) {
	base := CacheKey("cc", []string{"-O2"}, KindExecutable, "int main(void){return 0;}")
	if !validKey(base) {
		t.Fatalf("CacheKey() = %q is not a hex digest", base)
	}
	if again := CacheKey("cc", []string{"-O2"}, KindExecutable, "int main(void){return 0;}"); again != base {
		t.Errorf("CacheKey not deterministic: %q vs %q", base, again)
	}
	variants := []string{
		CacheKey("gcc", []string{"-O2"}, KindExecutable, "int main(void){return 0;}"),
		CacheKey("cc", []string{"-O0"}, KindExecutable, "int main(void){return 0;}"),
		CacheKey("cc", []string{"-O2"}, KindObject, "int main(void){return 0;}"),
		CacheKey("cc", []string{"-O2"}, KindExecutable, "int main(void){return 1;}"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d has the same key as the base build", i)
		}
	}
}

func openLog(t *testing.T) *BuildLog {
	t.Helper()
	l, err := OpenBuildLog(filepath.Join(t.TempDir(), "build.db"))
	if err != nil {
		t.Fatalf("OpenBuildLog() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestBuildLog(t *testing.T) {
	l := openLog(t)
	key := CacheKey("cc", nil, KindExecutable, "a")

	rec, err := l.Lookup(key)
	if err != nil || rec != nil {
		t.Fatalf("Lookup on empty log = %v, %v", rec, err)
	}

	if err := l.Record(&BuildRecord{CacheKey: key, Kind: "exe", OutputHash: "h1"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	rec, err = l.Lookup(key)
	if err != nil || rec == nil {
		t.Fatalf("Lookup after Record = %v, %v", rec, err)
	}
	if rec.OutputHash != "h1" || rec.LastAccess == 0 {
		t.Errorf("record = %+v", rec)
	}

	if err := l.Forget(key); err != nil {
		t.Fatalf("Forget() error = %v", err)
	}
	if rec, _ := l.Lookup(key); rec != nil {
		t.Errorf("Lookup after Forget = %+v, want nil", rec)
	}
	if n, _ := l.Count(); n != 0 {
		t.Errorf("Count after Forget = %d, want 0", n)
	}

	if err := l.Record(&BuildRecord{CacheKey: key, Kind: "exe", OutputHash: "h2"}); err != nil {
		t.Fatalf("Record() after Forget error = %v", err)
	}
	rec, _ = l.Lookup(key)
	if rec == nil || rec.OutputHash != "h2" {
		t.Errorf("revived record = %+v, want hash h2", rec)
	}
	if n, _ := l.Count(); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestBuildLogStale(t *testing.T) {
	l := openLog(t)
	for _, src := range []string{"a", "b"} {
		if err := l.Record(&BuildRecord{CacheKey: CacheKey("cc", nil, KindObject, src)}); err != nil {
			t.Fatal(err)
		}
	}
	stale, err := l.Stale(time.Now().Add(time.Hour), 10)
	if err != nil {
		t.Fatalf("Stale() error = %v", err)
	}
	if len(stale) != 2 {
		t.Errorf("Stale(future) = %d records, want 2", len(stale))
	}
	stale, _ = l.Stale(time.Now().Add(-time.Hour), 10)
	if len(stale) != 0 {
		t.Errorf("Stale(past) = %d records, want 0", len(stale))
	}
}

func TestCacheFetchAndStore(t *testing.T) {
	disk := vfs.NewMemDisk()
	cache := &Cache{Dir: "cache", Disk: disk, Log: openLog(t)}
	key := CacheKey("cc", nil, KindExecutable, "src")

	if hit, err := cache.Fetch(key, KindExecutable, "out"); hit || err != nil {
		t.Fatalf("Fetch on empty cache = %v, %v", hit, err)
	}

	disk.WriteFile("out", []byte("ELF"), 0755)
	if err := cache.Store(key, KindExecutable, "cc", 3, "out"); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	disk.Remove("out")

	hit, err := cache.Fetch(key, KindExecutable, "out")
	if err != nil || !hit {
		t.Fatalf("Fetch after Store = %v, %v", hit, err)
	}
	data, _ := disk.ReadFile("out")
	if string(data) != "ELF" {
		t.Errorf("fetched %q, want ELF", data)
	}
	if mode := disk.Files["out"].Mode; mode != 0755 {
		t.Errorf("fetched mode = %v, want 0755", mode)
	}

	// A corrupt entry is discarded.
	disk.WriteFile(cache.entryPath(key), []byte("junk"), 0755)
	if hit, err := cache.Fetch(key, KindExecutable, "out2"); hit || err != nil {
		t.Fatalf("Fetch of corrupt entry = %v, %v", hit, err)
	}
	if disk.Exists(cache.entryPath(key)) {
		t.Error("corrupt entry still present")
	}
	if rec, _ := cache.Log.Lookup(key); rec != nil {
		t.Error("corrupt entry still recorded")
	}
}

// stuckDisk refuses to remove files.
type stuckDisk struct {
	*vfs.MemDisk
}

func (stuckDisk) Remove(string) error { return errors.New("read-only") }

func TestCacheLogsFailedRemoval(t *testing.T) {
	disk := stuckDisk{vfs.NewMemDisk()}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cache := &Cache{Dir: "cache", Disk: disk, Log: openLog(t), Logger: logger}
	key := CacheKey("cc", nil, KindObject, "src")
	disk.WriteFile("m.o", []byte("obj"), 0644)
	if err := cache.Store(key, KindObject, "cc", 3, "m.o"); err != nil {
		t.Fatal(err)
	}

	disk.WriteFile(cache.entryPath(key), []byte("junk"), 0644)
	if hit, err := cache.Fetch(key, KindObject, "m2.o"); hit || err != nil {
		t.Fatalf("Fetch of corrupt entry = %v, %v", hit, err)
	}
	if !strings.Contains(logs.String(), "remove corrupt entry") || !strings.Contains(logs.String(), "read-only") {
		t.Errorf("removal failure not logged:\n%s", logs.String())
	}
}

func TestCachePrune(t *testing.T) {
	disk := vfs.NewMemDisk()
	cache := &Cache{Dir: "cache", Disk: disk, Log: openLog(t)}
	key := CacheKey("cc", nil, KindObject, "src")
	disk.WriteFile("m.o", []byte("obj"), 0644)
	if err := cache.Store(key, KindObject, "cc", 3, "m.o"); err != nil {
		t.Fatal(err)
	}

	n, err := cache.Prune(time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("Prune() = %d, %v, want 1", n, err)
	}
	if disk.Exists(cache.entryPath(key)) {
		t.Error("pruned entry still on disk")
	}
}

func TestCacheRejectsBadKey(t *testing.T) {
	cache := &Cache{Dir: "cache", Disk: vfs.NewMemDisk()}
	if _, err := cache.Fetch("../../etc", KindC, "out"); err == nil {
		t.Error("Fetch accepted a non-hex key")
	}
}

func TestBuildC(t *testing.T) {
	disk := vfs.NewMemDisk()
	b := &Builder{Disk: disk}
	if err := b.Build(context.Background(), "int x;\n", KindC, "out.c"); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	data, _ := disk.ReadFile("out.c")
	if string(data) != "int x;\n" {
		t.Errorf("out.c = %q", data)
	}
}

func lookCC(t *testing.T) string {
	t.Helper()
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler on PATH")
	}
	return cc
}

func TestBuildExecutable(t *testing.T) {
	cc := lookCC(t)
	dir := t.TempDir()
	tmp := t.TempDir()
	disk := vfs.OSDisk{}
	b := &Builder{
		CC:      cc,
		Disk:    disk,
		TempDir: tmp,
		Cache:   &Cache{Dir: filepath.Join(dir, "cache"), Disk: disk, Log: openLog(t)},
	}
	out := filepath.Join(dir, "prog")
	src := "#include <stdio.h>\nint main(void){puts(\"hi\");return 0;}\n"

	if err := b.Build(context.Background(), src, KindExecutable, out); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	got, err := exec.Command(out).Output()
	if err != nil || string(got) != "hi\n" {
		t.Fatalf("running artifact = %q, %v", got, err)
	}

	entries, _ := os.ReadDir(tmp)
	if len(entries) != 0 {
		t.Errorf("temporary files left behind: %v", entries)
	}

	// Second build is served from the cache.
	os.Remove(out)
	if err := b.Build(context.Background(), src, KindExecutable, out); err != nil {
		t.Fatalf("cached Build() error = %v", err)
	}
	if got, err := exec.Command(out).Output(); err != nil || string(got) != "hi\n" {
		t.Errorf("running cached artifact = %q, %v", got, err)
	}
}

func TestBuildToolError(t *testing.T) {
	cc := lookCC(t)
	tmp := t.TempDir()
	b := &Builder{CC: cc, Disk: vfs.OSDisk{}, TempDir: tmp}
	err := b.Build(context.Background(), "this is not C", KindObject, filepath.Join(t.TempDir(), "x.o"))

	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("Build() error = %v, want *ToolError", err)
	}
	if te.Output == "" {
		t.Error("ToolError carries no compiler output")
	}
	entries, _ := os.ReadDir(tmp)
	if len(entries) != 0 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}
