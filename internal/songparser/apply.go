package songparser

import (
	"strings"

	"github.com/mrlokans/cancionero/internal/chords"
)

// Apply transposes every chord span of line by shift. Text between chords is
// kept byte for byte and the spans of the result are derived from the
// original ones without rescanning the line. Lines without chords and
// shifts that are a multiple of twelve return line unchanged.
func Apply(line SongLine, shift int) SongLine {
	if !line.HasChords() || chords.NormalizeShift(shift) == 0 {
		return line
	}

	var b strings.Builder
	b.Grow(len(line.Raw) + len(line.Chords))
	spans := make([]chords.Span, len(line.Chords))
	prev := 0
	for i, span := range line.Chords {
		b.WriteString(line.Raw[prev:span.Offset])
		c := chords.Transpose(span.Chord, shift)
		text := c.String()
		spans[i] = chords.Span{Offset: b.Len(), Length: len(text), Chord: c}
		b.WriteString(text)
		prev = span.End()
	}
	b.WriteString(line.Raw[prev:])

	out := line
	out.Raw = b.String()
	out.Body = strings.TrimRight(out.Raw, " \t\r")
	out.Chords = spans
	return out
}

// ApplyAll transposes a whole song.
func ApplyAll(lines []SongLine, shift int) []SongLine {
	out := make([]SongLine, len(lines))
	for i, l := range lines {
		out[i] = Apply(l, shift)
	}
	return out
}

// ReferenceLine returns the first chord line of a song, the line a target
// key is measured against. The boolean is false for songs without chords.
func ReferenceLine(lines []SongLine) (SongLine, bool) {
	for _, l := range lines {
		if l.HasChords() {
			return l, true
		}
	}
	return SongLine{}, false
}
