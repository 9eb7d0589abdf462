// Package songparser turns the line-oriented markup of song files into
// classified SongLine values.
package songparser

import (
	"regexp"
	"strings"

	"github.com/mrlokans/cancionero/internal/chords"
)

// SongLine is one physical line of a song after classification.
type SongLine struct {
	Raw    string        `json:"raw"`
	Kind   LineKind      `json:"kind"`
	Chords []chords.Span `json:"-"`

	// Prefix holds the marker split off the line: a special note marker
	// ("∗", "[Salmo]") or a singer indicator ("S.", "S. A.").
	Prefix string `json:"prefix,omitempty"`
	Body   string `json:"body"`
	// Suffix holds a trailing repetition hint such as "(bis)".
	Suffix string `json:"suffix,omitempty"`

	// Indicator is set when Prefix is a singer indicator.
	Indicator bool `json:"indicator,omitempty"`
}

// HasChords reports whether the line carries chord spans.
func (l SongLine) HasChords() bool {
	return len(l.Chords) > 0
}

// IsBlank reports whether the line is a spacer.
func (l SongLine) IsBlank() bool {
	return l.Kind == Normal && l.Prefix == "" && l.Suffix == "" && strings.TrimSpace(l.Body) == ""
}

// ParseWarning flags a line that looks like a malformed marker. The line is
// still parsed, as Normal.
type ParseWarning struct {
	Line   int    `json:"line"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

const (
	specialMarker      = "∗"
	boldMarker         = "**"
	twoSingerIndicator = "S. A."
)

var (
	// "S. ", "A. ", "S1. " at the start of a lyric line
	indicatorPattern = regexp.MustCompile(`^([A-Z][0-9]?\.)(?:\s+|$)`)

	// "(bis)", "(tris)", "(x2)", "(2x)" at the end of a lyric line
	repeatPattern = regexp.MustCompile(`(?i)\s*(\((?:bis|tris|x\s?\d+|\d+\s?x)\))\s*$`)
)

// Parse classifies every line of raw. It never fails.
func Parse(raw string) []SongLine {
	lines, _ := ParseWithWarnings(raw)
	return lines
}

// ParseWithWarnings is Parse plus a warning for each line that looks like a
// malformed marker.
func ParseWithWarnings(raw string) ([]SongLine, []ParseWarning) {
	physical := splitLines(raw)
	lines := make([]SongLine, 0, len(physical))
	var warnings []ParseWarning
	for i, text := range physical {
		line := ParseLine(text)
		if reason := malformed(line); reason != "" {
			warnings = append(warnings, ParseWarning{Line: i + 1, Raw: text, Reason: reason})
		}
		lines = append(lines, line)
	}
	return lines, warnings
}

func splitLines(raw string) []string {
	if raw == "" {
		return nil
	}
	raw = strings.TrimSuffix(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	parts := strings.Split(raw, "\n")
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}

// ParseLine classifies a single physical line. The result depends on nothing
// but the line itself.
func ParseLine(raw string) SongLine {
	line := SongLine{Raw: raw, Kind: Normal}
	text := strings.TrimRight(raw, " \t\r")
	trimmed := strings.TrimLeft(text, " \t")

	if trimmed == "" {
		return line
	}

	if spans, ok := chords.ScanLine(text); ok {
		line.Kind = Notes
		line.Chords = spans
		line.Body = text
		return line
	}

	switch {
	case len(trimmed) > 2*len(boldMarker) &&
		strings.HasPrefix(trimmed, boldMarker) && strings.HasSuffix(trimmed, boldMarker):
		line.Kind = NoteSpecialTitle
		line.Body = strings.TrimSpace(trimmed[len(boldMarker) : len(trimmed)-len(boldMarker)])
		return line

	case strings.HasPrefix(trimmed, specialMarker):
		line.Kind = NoteSpecial
		line.Prefix = specialMarker
		line.Body = strings.TrimLeft(trimmed[len(specialMarker):], " \t")
		return line

	case strings.HasPrefix(trimmed, "[") && strings.Contains(trimmed, "]"):
		end := strings.Index(trimmed, "]") + 1
		line.Kind = NoteSpecial
		line.Prefix = trimmed[:end]
		line.Body = strings.TrimLeft(trimmed[end:], " \t")
		return line

	case len(trimmed) >= 2 && strings.HasPrefix(trimmed, "-") && strings.HasSuffix(trimmed, "-"):
		line.Kind = NoteSpecial
		line.Body = strings.TrimSpace(strings.Trim(trimmed, "-"))
		return line
	}

	body := text
	if rest, ok := cutIndicator(trimmed); ok {
		line.Indicator = true
		line.Prefix = strings.TrimSpace(trimmed[:len(trimmed)-len(rest)])
		body = rest
	}
	if m := repeatPattern.FindStringSubmatchIndex(body); m != nil && m[0] > 0 {
		line.Suffix = body[m[2]:m[3]]
		body = body[:m[0]]
	}
	line.Body = body
	return line
}

func cutIndicator(trimmed string) (string, bool) {
	if trimmed == twoSingerIndicator || strings.HasPrefix(trimmed, twoSingerIndicator+" ") {
		return strings.TrimLeft(trimmed[len(twoSingerIndicator):], " \t"), true
	}
	if m := indicatorPattern.FindStringIndex(trimmed); m != nil {
		return trimmed[m[1]:], true
	}
	return "", false
}

func malformed(line SongLine) string {
	if line.Kind != Normal {
		return ""
	}
	trimmed := strings.TrimSpace(line.Raw)
	switch {
	case strings.HasPrefix(trimmed, boldMarker):
		return "unclosed ** title marker"
	case strings.HasPrefix(trimmed, "[") && !strings.Contains(trimmed, "]"):
		return "unclosed [ note marker"
	}
	return ""
}

// TitleLine builds the Title line the document generator places above a
// song. Song files never contain one.
func TitleLine(text string) SongLine {
	return SongLine{Raw: text, Kind: Title, Body: text}
}

// SourceLine builds the Source line placed under a song title.
func SourceLine(text string) SongLine {
	return SongLine{Raw: text, Kind: Source, Body: text}
}
