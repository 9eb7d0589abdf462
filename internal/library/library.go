// Package library reads the song corpus: an index.json catalog next to one
// directory of plain-text song files per locale.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mrlokans/cancionero/internal/songparser"
	"github.com/mrlokans/cancionero/internal/utils"
)

// IndexFile is the catalog file name under the library root.
const IndexFile = "index.json"

// IndexEntry is one song of index.json.
type IndexEntry struct {
	Stage string            `json:"stage"`
	Files map[string]string `json:"files"`
}

// SongMeta describes one song in one locale without reading its text.
type SongMeta struct {
	Key    string `json:"key"`
	Locale string `json:"locale"`
	Stage  string `json:"stage"`
	Name   string `json:"name"`
	Title  string `json:"title"`
	Source string `json:"source"`
	Path   string `json:"-"`
}

// Song is a loaded song: its metadata, raw text and parsed lines.
type Song struct {
	SongMeta
	Text     string                    `json:"-"`
	Lines    []songparser.SongLine     `json:"lines"`
	Warnings []songparser.ParseWarning `json:"warnings,omitempty"`
}

type Library struct {
	fs    afero.Fs
	root  string
	index map[string]IndexEntry
}

// Open reads root/index.json from fsys.
func Open(fsys afero.Fs, root string) (*Library, error) {
	data, err := afero.ReadFile(fsys, path.Join(root, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read song index: %w", err)
	}
	index := map[string]IndexEntry{}
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIndex, err)
	}
	return &Library{fs: fsys, root: root, index: index}, nil
}

// OpenDir opens a library on the local filesystem.
func OpenDir(dir string) (*Library, error) {
	return Open(afero.NewOsFs(), dir)
}

// Len is the number of songs in the index.
func (l *Library) Len() int {
	return len(l.index)
}

// Keys returns every song key, numeric keys in numeric order first.
func (l *Library) Keys() []string {
	keys := make([]string, 0, len(l.index))
	for k := range l.index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Locales returns the locales with at least one song, sorted.
func (l *Library) Locales() []string {
	seen := map[string]bool{}
	for _, e := range l.index {
		for locale := range e.Files {
			seen[locale] = true
		}
	}
	out := make([]string, 0, len(seen))
	for locale := range seen {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// fileLocale picks the locale whose file serves locale: the exact locale,
// then its language.
func fileLocale(e IndexEntry, locale string) (string, bool) {
	if _, ok := e.Files[locale]; ok {
		return locale, true
	}
	lang, _, _ := strings.Cut(strings.ReplaceAll(locale, "_", "-"), "-")
	lang = strings.ToLower(lang)
	if _, ok := e.Files[lang]; ok {
		return lang, true
	}
	return "", false
}

// Meta describes song key in locale.
func (l *Library) Meta(key, locale string) (SongMeta, error) {
	e, ok := l.index[key]
	if !ok {
		return SongMeta{}, fmt.Errorf("%w: %s", ErrSongNotFound, key)
	}
	fl, ok := fileLocale(e, locale)
	if !ok {
		return SongMeta{}, fmt.Errorf("%w: song %s, locale %s", ErrLocaleNotAvailable, key, locale)
	}
	name := e.Files[fl]
	title, source := utils.SplitSongFileName(name)
	return SongMeta{
		Key:    key,
		Locale: fl,
		Stage:  e.Stage,
		Name:   name,
		Title:  title,
		Source: source,
		Path:   path.Join(l.root, fl, name+utils.SongFileExtension),
	}, nil
}

// Songs lists the songs available in locale ordered by title using the
// locale's collation, ignoring case and diacritics.
func (l *Library) Songs(locale string) []SongMeta {
	var out []SongMeta
	for _, key := range l.Keys() {
		meta, err := l.Meta(key, locale)
		if err != nil {
			continue
		}
		out = append(out, meta)
	}
	c := collate.New(collationTag(locale), collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Title, out[j].Title) < 0
	})
	return out
}

func collationTag(locale string) language.Tag {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.Und
	}
	return tag
}

// Load reads and parses song key in locale.
func (l *Library) Load(key, locale string) (Song, error) {
	meta, err := l.Meta(key, locale)
	if err != nil {
		return Song{}, err
	}
	return l.load(meta)
}

func (l *Library) load(meta SongMeta) (Song, error) {
	data, err := afero.ReadFile(l.fs, meta.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Song{}, fmt.Errorf("%w: %s", ErrSongNotFound, meta.Path)
		}
		return Song{}, fmt.Errorf("failed to read song %s: %w", meta.Key, err)
	}
	text := string(data)
	lines, warnings := songparser.ParseWithWarnings(text)
	return Song{SongMeta: meta, Text: text, Lines: lines, Warnings: warnings}, nil
}

// LoadAll loads every song of locale in title order, reading files
// concurrently. workers <= 0 means unbounded.
func (l *Library) LoadAll(ctx context.Context, locale string, workers int) ([]Song, error) {
	metas := l.Songs(locale)
	songs := make([]Song, len(metas))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, meta := range metas {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			song, err := l.load(meta)
			if err != nil {
				return err
			}
			songs[i] = song
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return songs, nil
}
