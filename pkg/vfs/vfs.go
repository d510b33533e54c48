// Package vfs is the file system boundary of the toolchain: source files are
// read and artifacts written through a Disk.
package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrQuotaExceeded = errors.New("disk quota exceeded")
)

// Disk reads and writes whole files.
type Disk interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Remove(name string) error
	Exists(name string) bool
}

// OSDisk is the host file system. Relative names are resolved against Root
// when it is set.
type OSDisk struct {
	Root string
}

func (d OSDisk) path(name string) string {
	if d.Root == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.Root, name)
}

func (d OSDisk) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(d.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrFileNotFound)
	}
	return data, err
}

// WriteFile creates missing parent directories.
func (d OSDisk) WriteFile(name string, data []byte, perm fs.FileMode) error {
	p := d.path(name)
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(p, data, perm); err != nil {
		return err
	}
	// os.WriteFile keeps the mode of an existing file
	return os.Chmod(p, perm)
}

func (d OSDisk) Remove(name string) error {
	err := os.Remove(d.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", name, ErrFileNotFound)
	}
	return err
}

func (d OSDisk) Exists(name string) bool {
	_, err := os.Stat(d.path(name))
	return err == nil
}

type FileEntry struct {
	Data     []byte
	Mode     fs.FileMode
	Created  time.Time
	Modified time.Time
}

// MemDisk is an in-memory Disk. A positive MaxBytes limits the total size of
// all files.
type MemDisk struct {
	Mu        sync.RWMutex
	Files     map[string]*FileEntry
	UsedBytes int
	MaxBytes  int
}

func NewMemDisk() *MemDisk {
	return &MemDisk{Files: make(map[string]*FileEntry)}
}

// WriteFile stores a copy of data, replacing any previous content.
func (md *MemDisk) WriteFile(name string, data []byte, perm fs.FileMode) error {
	md.Mu.Lock()
	defer md.Mu.Unlock()

	name = filepath.Clean(name)
	oldSize := 0
	entry, ok := md.Files[name]
	if ok {
		oldSize = len(entry.Data)
	}
	newSize := len(data)
	if md.MaxBytes > 0 && md.UsedBytes-oldSize+newSize > md.MaxBytes {
		return ErrQuotaExceeded
	}

	newData := make([]byte, newSize)
	copy(newData, data)

	if entry == nil {
		entry = &FileEntry{Created: time.Now()}
		md.Files[name] = entry
	}
	entry.Data = newData
	entry.Mode = perm
	entry.Modified = time.Now()
	md.UsedBytes += newSize - oldSize
	return nil
}

func (md *MemDisk) ReadFile(name string) ([]byte, error) {
	md.Mu.RLock()
	defer md.Mu.RUnlock()

	entry, ok := md.Files[filepath.Clean(name)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrFileNotFound)
	}
	out := make([]byte, len(entry.Data))
	copy(out, entry.Data)
	return out, nil
}

func (md *MemDisk) Remove(name string) error {
	md.Mu.Lock()
	defer md.Mu.Unlock()

	name = filepath.Clean(name)
	entry, ok := md.Files[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrFileNotFound)
	}
	md.UsedBytes -= len(entry.Data)
	delete(md.Files, name)
	return nil
}

func (md *MemDisk) Exists(name string) bool {
	md.Mu.RLock()
	defer md.Mu.RUnlock()
	_, ok := md.Files[filepath.Clean(name)]
	return ok
}

// List returns all file names in sorted order.
func (md *MemDisk) List() []string {
	md.Mu.RLock()
	defer md.Mu.RUnlock()

	keys := make([]string, 0, len(md.Files))
	for k := range md.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
