package cache

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "renders")

	c, err := New(dir, ".pdf")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.Dir() != dir {
		t.Errorf("expected cache dir %s, got %s", dir, c.Dir())
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("cache directory was not created")
	}
}

func TestKey(t *testing.T) {
	a, err := Key(map[string]any{"key": "1", "shift": 2})
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	b, _ := Key(map[string]any{"shift": 2, "key": "1"})
	c, _ := Key(map[string]any{"key": "1", "shift": 3})

	if a != b {
		t.Errorf("equal values must share a key: %s != %s", a, b)
	}
	if a == c {
		t.Error("different values must not share a key")
	}
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %q", a)
	}

	if _, err := Key(func() {}); err == nil {
		t.Error("expected an error for an unencodable value")
	}
}

func TestGetRendersOnce(t *testing.T) {
	c, _ := New(t.TempDir(), ".pdf")
	var renders int32
	render := func(w io.Writer) error {
		atomic.AddInt32(&renders, 1)
		_, err := io.WriteString(w, "%PDF-1.4")
		return err
	}

	path1, hit, err := c.Get("1-es", "abc", render)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if hit {
		t.Error("first Get must be a miss")
	}

	path2, hit, err := c.Get("1-es", "abc", render)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit || path1 != path2 {
		t.Errorf("second Get must hit the same file: hit=%v %s %s", hit, path1, path2)
	}
	if renders != 1 {
		t.Errorf("expected 1 render, got %d", renders)
	}

	data, _ := os.ReadFile(path1)
	if string(data) != "%PDF-1.4" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestGetConcurrentMisses(t *testing.T) {
	c, _ := New(t.TempDir(), ".pdf")
	var renders int32
	release := make(chan struct{})
	render := func(w io.Writer) error {
		atomic.AddInt32(&renders, 1)
		<-release
		_, err := io.WriteString(w, "data")
		return err
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.Get("song", "k", render); err != nil {
				t.Errorf("Get failed: %v", err)
			}
		}()
	}
	close(release)
	wg.Wait()

	if renders != 1 {
		t.Errorf("expected 1 render, got %d", renders)
	}
	if _, err := os.Stat(filepath.Join(c.Dir(), "song_k.pdf")); err != nil {
		t.Errorf("cached file missing: %v", err)
	}
}

func TestGetRenderFailure(t *testing.T) {
	c, _ := New(t.TempDir(), ".pdf")
	boom := errors.New("layout failed")

	_, _, err := c.Get("song", "k", func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected render error, got %v", err)
	}

	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("failed render must leave no files, found %d", len(entries))
	}
}

func TestInvalidateAndPurge(t *testing.T) {
	c, _ := New(t.TempDir(), ".pdf")
	write := func(w io.Writer) error {
		_, err := io.WriteString(w, "x")
		return err
	}
	_, _, _ = c.Get("1-es", "a", write)
	_, _, _ = c.Get("1-es", "b", write)
	_, _, _ = c.Get("2-es", "a", write)

	if err := c.Invalidate("1-es"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(c.Dir(), "1-es_a.pdf")); !os.IsNotExist(err) {
		t.Error("expected 1-es entries to be removed")
	}
	if _, err := os.Stat(filepath.Join(c.Dir(), "2-es_a.pdf")); err != nil {
		t.Error("other songs must stay cached")
	}

	// Non-cache files are left alone.
	if err := os.WriteFile(filepath.Join(c.Dir(), "notes.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	removed, err := c.Purge()
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 file purged, got %d", removed)
	}
	if _, err := os.Stat(filepath.Join(c.Dir(), "notes.txt")); err != nil {
		t.Error("Purge must only remove cached renders")
	}
}

func TestSanitize(t *testing.T) {
	if got := sanitize("a/b_c*d"); got != "a-b-c-d" {
		t.Errorf("unexpected sanitized name %q", got)
	}
}
