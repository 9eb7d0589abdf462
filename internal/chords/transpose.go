package chords

import (
	"errors"
	"fmt"
)

var (
	// ErrNoChordFound is returned by Diff when the reference line carries no
	// chord. Callers treat it as a zero shift.
	ErrNoChordFound = errors.New("no chord found in reference line")

	// ErrUnknownNote is returned by Diff when the target is not a note.
	ErrUnknownNote = errors.New("unknown target note")
)

// Diff computes the shift that moves the first chord root of referenceLine
// onto targetNote. The target is looked up in the locale's scale first and
// then classified as a note in any notation. The result is in [-11, 11].
func Diff(referenceLine, targetNote, locale string) (int, error) {
	target, ok := ScaleIndex(locale, targetNote)
	if !ok {
		target, ok = NoteIndex(targetNote)
	}
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNote, targetNote)
	}
	first, ok := FirstChord(referenceLine)
	if !ok {
		return 0, ErrNoChordFound
	}
	return int(target) - int(first.Root), nil
}

// Transpose shifts the root and bass of c, keeping the quality verbatim and
// the chord's own spelling.
func Transpose(c Chord, shift int) Chord {
	c.Root = ShiftNote(c.Root, shift)
	if c.HasBass {
		c.Bass = ShiftNote(c.Bass, shift)
	}
	return c
}

// NormalizeShift maps any shift into [0, 11].
func NormalizeShift(shift int) int {
	return int(Note(shift).normalize())
}
