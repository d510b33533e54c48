// Package toolchain turns generated C text into artifacts by driving the
// host C compiler. Builds are cached by content hash and recorded in a
// sqlite build log.
package toolchain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind is the artifact a build produces.
type Kind int

const (
	KindC Kind = iota
	KindExecutable
	KindShared
	KindObject
)

var kindNames = map[Kind]string{
	KindC:          "c",
	KindExecutable: "exe",
	KindShared:     "shared",
	KindObject:     "object",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names printed by String plus a few common aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "c", "source":
		return KindC, nil
	case "exe", "executable", "bin":
		return KindExecutable, nil
	case "shared", "so", "dll", "lib":
		return KindShared, nil
	case "object", "obj", "o":
		return KindObject, nil
	}
	return 0, fmt.Errorf("unknown artifact kind %q (want c, exe, shared or object)", s)
}

// DefaultExt is the conventional file extension of k on goos.
func (k Kind) DefaultExt(goos string) string {
	switch k {
	case KindC:
		return ".c"
	case KindObject:
		if goos == "windows" {
			return ".obj"
		}
		return ".o"
	case KindShared:
		switch goos {
		case "windows":
			return ".dll"
		case "darwin":
			return ".dylib"
		}
		return ".so"
	case KindExecutable:
		if goos == "windows" {
			return ".exe"
		}
	}
	return ""
}

// DefaultOutput derives an artifact path from the source path by swapping
// its extension.
func DefaultOutput(input string, k Kind, goos string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	out := base + k.DefaultExt(goos)
	if out == input {
		out = base + ".out"
	}
	return out
}

// compileFlags are the mode flags passed to cc before the source file.
func (k Kind) compileFlags() []string {
	switch k {
	case KindShared:
		return []string{"-shared", "-fPIC"}
	case KindObject:
		return []string{"-c"}
	}
	return nil
}

// linkFlags follow the source file.
func (k Kind) linkFlags() []string {
	switch k {
	case KindExecutable, KindShared:
		return []string{"-lm"}
	}
	return nil
}
