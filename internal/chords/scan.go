package chords

import "unicode"

// Span locates one chord token inside a line. Offset and Length are in bytes.
type Span struct {
	Offset int
	Length int
	Chord  Chord
}

// End is the byte offset just past the token.
func (s Span) End() int {
	return s.Offset + s.Length
}

// ScanLine reports whether every whitespace-separated token of line is a
// chord, returning their spans left to right. Lines with lyric words, or no
// tokens at all, are not chord lines.
func ScanLine(line string) ([]Span, bool) {
	var spans []Span
	start := -1
	flush := func(end int) bool {
		if start < 0 {
			return true
		}
		c, ok := ParseChord(line[start:end])
		if !ok {
			return false
		}
		spans = append(spans, Span{Offset: start, Length: end - start, Chord: c})
		start = -1
		return true
	}
	for i, r := range line {
		if unicode.IsSpace(r) {
			if !flush(i) {
				return nil, false
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if !flush(len(line)) {
		return nil, false
	}
	if len(spans) == 0 {
		return nil, false
	}
	return spans, true
}

// FirstChord returns the first chord of a chord line.
func FirstChord(line string) (Chord, bool) {
	spans, ok := ScanLine(line)
	if !ok {
		return Chord{}, false
	}
	return spans[0].Chord, true
}
