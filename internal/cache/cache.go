// Package cache keeps rendered documents on disk so repeated requests for
// the same song view skip layout and PDF generation.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"
)

// Cache stores rendered files under a directory, one file per content key.
type Cache struct {
	dir   string
	ext   string
	group singleflight.Group
}

// New creates a cache at dir for files with extension ext (".pdf").
func New(dir, ext string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, ext: ext}, nil
}

// Key digests v's JSON encoding. Two values with the same encoding share a
// cache entry.
func Key(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:8]), nil
}

// Get returns the path of the cached file for name and key, rendering it
// with render when missing. Concurrent misses for the same file render once.
// hit reports whether the file was already cached.
func (c *Cache) Get(name, key string, render func(w io.Writer) error) (path string, hit bool, err error) {
	path = filepath.Join(c.dir, c.filename(name, key))

	if _, err := os.Stat(path); err == nil {
		return path, true, nil
	}

	_, err, _ = c.group.Do(path, func() (any, error) {
		// A flight that finished just before this one may have written it
		if _, err := os.Stat(path); err == nil {
			return nil, nil
		}
		return nil, c.write(path, render)
	})
	if err != nil {
		return "", false, err
	}
	return path, false, nil
}

// Invalidate removes every cached file of name.
func (c *Cache) Invalidate(name string) error {
	matches, err := filepath.Glob(filepath.Join(c.dir, sanitize(name)+"_*"+c.ext))
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Purge removes every cached file and returns how many were removed.
func (c *Cache) Purge() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), c.ext) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) filename(name, key string) string {
	return fmt.Sprintf("%s_%s%s", sanitize(name), key, c.ext)
}

// write renders into a temp file in the cache directory and renames it into
// place, so readers never see a partial file.
func (c *Cache) write(path string, render func(w io.Writer) error) error {
	tmpFile, err := os.CreateTemp(c.dir, "render_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // no-op after the rename
	}()

	if err := render(tmpFile); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '*', '?', '[', ']', ':', '_':
			return '-'
		}
		return r
	}, name)
}
