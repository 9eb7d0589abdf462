package songparser

import "fmt"

// LineKind classifies a song line by its leading markers.
type LineKind int

const (
	Normal LineKind = iota
	Title
	Source
	Notes
	NotesWithMargin
	NoteSpecialTitle
	NoteSpecial
)

var kindNames = [...]string{
	Normal:           "normal",
	Title:            "title",
	Source:           "source",
	Notes:            "notes",
	NotesWithMargin:  "notesWithMargin",
	NoteSpecialTitle: "noteSpecialTitle",
	NoteSpecial:      "noteSpecial",
}

// Kinds lists every LineKind.
func Kinds() []LineKind {
	return []LineKind{Normal, Title, Source, Notes, NotesWithMargin, NoteSpecialTitle, NoteSpecial}
}

func (k LineKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("LineKind(%d)", int(k))
	}
	return kindNames[k]
}

func (k LineKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown line kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *LineKind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = LineKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown line kind %q", text)
}

// IsChordKind reports whether lines of this kind carry chord spans.
func (k LineKind) IsChordKind() bool {
	return k == Notes || k == NotesWithMargin
}
