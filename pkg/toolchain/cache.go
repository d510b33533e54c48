package toolchain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/yelongll/rust/pkg/vfs"
	"github.com/zeebo/blake3"
)

// CacheKey identifies a build: the same compiler, flags, kind and C source
// always produce the same artifact.
func CacheKey(cc string, cflags []string, kind Kind, source string) string {
	h := blake3.New()
	fmt.Fprintf(h, "cc %s\n", cc)
	for _, f := range cflags {
		fmt.Fprintf(h, "flag %s\n", f)
	}
	fmt.Fprintf(h, "kind %s\n", kind)
	hf := blake3.New()
	hf.Write([]byte(source))
	fmt.Fprintf(h, "%x  source\n", hf.Sum(nil))
	return hex.EncodeToString(h.Sum(nil))
}

// HashBytes is the hex BLAKE3 digest of data.
func HashBytes(data []byte) string {
	h := blake3.New()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Cache stores artifacts under Dir, one file per key. When Log is set every
// entry is recorded there and verified against its output hash on reuse.
type Cache struct {
	Dir    string
	Disk   vfs.Disk
	Log    *BuildLog
	Logger *slog.Logger
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.Dir, key[:2], key)
}

func (c *Cache) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Fetch copies the artifact for key to output. It reports false when the
// cache has no usable entry.
func (c *Cache) Fetch(key string, kind Kind, output string) (bool, error) {
	if !validKey(key) {
		return false, fmt.Errorf("invalid cache key %q", key)
	}
	var rec *BuildRecord
	if c.Log != nil {
		var err error
		rec, err = c.Log.Lookup(key)
		if err != nil {
			return false, err
		}
		if rec == nil {
			return false, nil
		}
	}

	data, err := c.Disk.ReadFile(c.entryPath(key))
	if errors.Is(err, vfs.ErrFileNotFound) {
		c.logger().Debug("cache entry missing", "key", key)
		return false, c.forget(key)
	}
	if err != nil {
		return false, err
	}
	if rec != nil && HashBytes(data) != rec.OutputHash {
		c.logger().Warn("cache entry corrupt", "key", key, "want", rec.OutputHash)
		if err := c.Disk.Remove(c.entryPath(key)); err != nil {
			c.logger().Debug("remove corrupt entry", "key", key, "err", err)
		}
		return false, c.forget(key)
	}

	if err := c.Disk.WriteFile(output, data, artifactMode(kind)); err != nil {
		return false, err
	}
	if c.Log != nil {
		if err := c.Log.Touch(key); err != nil {
			return true, err
		}
	}
	c.logger().Debug("cache hit", "key", key, "output", output)
	return true, nil
}

// Store copies a freshly built artifact into the cache.
func (c *Cache) Store(key string, kind Kind, cc string, sourceBytes int, output string) error {
	if !validKey(key) {
		return fmt.Errorf("invalid cache key %q", key)
	}
	data, err := c.Disk.ReadFile(output)
	if err != nil {
		return err
	}
	if err := c.Disk.WriteFile(c.entryPath(key), data, artifactMode(kind)); err != nil {
		return err
	}
	c.logger().Debug("cache store", "key", key, "bytes", len(data))
	if c.Log == nil {
		return nil
	}
	return c.Log.Record(&BuildRecord{
		CacheKey:    key,
		Kind:        kind.String(),
		Compiler:    cc,
		Output:      output,
		OutputHash:  HashBytes(data),
		OutputBytes: int64(len(data)),
		SourceBytes: int64(sourceBytes),
	})
}

// Prune drops entries not used since before. It returns the number removed.
func (c *Cache) Prune(before time.Time) (int, error) {
	if c.Log == nil {
		return 0, nil
	}
	stale, err := c.Log.Stale(before, 2000)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, rec := range stale {
		err := c.Disk.Remove(c.entryPath(rec.CacheKey))
		if err != nil && !errors.Is(err, vfs.ErrFileNotFound) {
			c.logger().Warn("prune", "key", rec.CacheKey, "err", err)
			continue
		}
		if err := c.Log.Forget(rec.CacheKey); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (c *Cache) forget(key string) error {
	if c.Log == nil {
		return nil
	}
	return c.Log.Forget(key)
}

func artifactMode(kind Kind) fs.FileMode {
	if kind == KindExecutable {
		return 0755
	}
	return 0644
}

// validKey guards entryPath against keys that are not hex digests.
func validKey(key string) bool {
	return len(key) == 64 && strings.Trim(key, "0123456789abcdef") == ""
}
