// Package render turns parsed song lines into styled fragments ready for
// layout. Styles come only from the injected Theme.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mrlokans/cancionero/internal/songparser"
)

// Fragment is a run of text painted in one style.
type Fragment struct {
	Text  string  `json:"text"`
	Style StyleID `json:"style"`
}

// RenderLine is a song line ready to be painted: prefix, body and suffix
// fragments painted left to right.
type RenderLine struct {
	Ordinal int                 `json:"ordinal"`
	Kind    songparser.LineKind `json:"kind"`
	Prefix  Fragment            `json:"prefix"`
	Body    Fragment            `json:"body"`
	Suffix  Fragment            `json:"suffix"`
}

// Fragments returns the non-empty fragments in paint order. A blank line
// yields a single empty body fragment so it still takes vertical space.
func (l RenderLine) Fragments() []Fragment {
	out := make([]Fragment, 0, 3)
	for _, f := range []Fragment{l.Prefix, l.Body, l.Suffix} {
		if f.Text != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		out = append(out, l.Body)
	}
	return out
}

// Text joins the fragments.
func (l RenderLine) Text() string {
	return l.Prefix.Text + l.Body.Text + l.Suffix.Text
}

// StyleFor maps a line kind to the style of its body.
func StyleFor(kind songparser.LineKind) (StyleID, error) {
	switch kind {
	case songparser.Normal:
		return StyleNormal, nil
	case songparser.Title:
		return StyleTitle, nil
	case songparser.Source:
		return StyleSource, nil
	case songparser.Notes:
		return StyleNotes, nil
	case songparser.NotesWithMargin:
		return StyleNotesWithMargin, nil
	case songparser.NoteSpecialTitle:
		return StyleNoteSpecialTitle, nil
	case songparser.NoteSpecial:
		return StyleNoteSpecial, nil
	default:
		return "", fmt.Errorf("no style for line kind %v", kind)
	}
}

// Resolve styles one line. Chord lines are transposed by shift first; other
// lines ignore it.
func Resolve(line songparser.SongLine, shift int, theme Theme) (RenderLine, error) {
	if line.Kind.IsChordKind() {
		line = songparser.Apply(line, shift)
	}
	return resolveKind(line, line.Kind, theme)
}

func resolveKind(line songparser.SongLine, kind songparser.LineKind, theme Theme) (RenderLine, error) {
	bodyStyle, err := StyleFor(kind)
	if err != nil {
		return RenderLine{}, err
	}
	if _, err := theme.Style(bodyStyle); err != nil {
		return RenderLine{}, err
	}

	rl := RenderLine{
		Kind: kind,
		Body: Fragment{Text: line.Body, Style: bodyStyle},
	}
	if line.Prefix != "" {
		prefixStyle := StylePrefix
		if kind == songparser.NoteSpecial {
			prefixStyle = StyleNotes
		}
		if _, err := theme.Style(prefixStyle); err != nil {
			return RenderLine{}, err
		}
		rl.Prefix = Fragment{Text: line.Prefix + " ", Style: prefixStyle}
	}
	if line.Suffix != "" {
		if _, err := theme.Style(StylePrefix); err != nil {
			return RenderLine{}, err
		}
		rl.Suffix = Fragment{Text: " " + line.Suffix, Style: StylePrefix}
	}
	return rl, nil
}

// ResolveSong styles a whole song and applies the presentation rules that
// need neighbouring lines:
//   - leading blank lines are dropped;
//   - a chord line right above an indicator line gets the notesWithMargin
//     style so the pair separates from the previous stanza;
//   - indicator prefixes are padded to a common width and, in songs that
//     use indicators, chord lines get a blank prefix of that width so
//     chords stay above the lyric body.
//
// The parsed lines are not modified.
func ResolveSong(lines []songparser.SongLine, shift int, theme Theme) ([]RenderLine, error) {
	start := 0
	for start < len(lines) && lines[start].IsBlank() {
		start++
	}
	lines = lines[start:]

	width := 0
	for _, l := range lines {
		if l.Indicator {
			width = max(width, utf8.RuneCountInString(l.Prefix))
		}
	}

	out := make([]RenderLine, 0, len(lines))
	for i, l := range lines {
		kind := l.Kind
		if kind == songparser.Notes && i+1 < len(lines) && lines[i+1].Indicator {
			kind = songparser.NotesWithMargin
		}
		if kind.IsChordKind() {
			l = songparser.Apply(l, shift)
		}
		rl, err := resolveKind(l, kind, theme)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", start+i+1, err)
		}
		if width > 0 {
			switch {
			case l.Indicator:
				rl.Prefix.Text = padRight(l.Prefix, width+1)
			case kind.IsChordKind():
				rl.Prefix = Fragment{Text: strings.Repeat(" ", width+1), Style: StylePrefix}
			}
		}
		rl.Ordinal = len(out)
		out = append(out, rl)
	}
	return out, nil
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// Resolver resolves songs against a theme validated once at construction.
type Resolver struct {
	theme Theme
}

// NewResolver validates theme and returns a resolver bound to it.
func NewResolver(theme Theme) (*Resolver, error) {
	if err := theme.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{theme: theme}, nil
}

// Theme returns the resolver's theme.
func (r *Resolver) Theme() Theme {
	return r.theme
}

// Song resolves a parsed song.
func (r *Resolver) Song(lines []songparser.SongLine, shift int) ([]RenderLine, error) {
	return ResolveSong(lines, shift, r.theme)
}

// Header resolves the title and source lines of a song.
func (r *Resolver) Header(title, source string) ([]RenderLine, error) {
	t, err := Resolve(songparser.TitleLine(title), 0, r.theme)
	if err != nil {
		return nil, err
	}
	s, err := Resolve(songparser.SourceLine(source), 0, r.theme)
	if err != nil {
		return nil, err
	}
	s.Ordinal = 1
	return []RenderLine{t, s}, nil
}
