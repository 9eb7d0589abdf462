// Package chords models the twelve pitch classes, the chord-token grammar
// used by song files and the interval arithmetic behind transposition.
package chords

import "strings"

// Note is a pitch class in chromatic order starting at C (Do).
type Note int

// NoteCount is the number of pitch classes in the chromatic scale.
const NoteCount = 12

// Notation is the naming system a chord was written in.
type Notation int

const (
	Letters Notation = iota
	Solfege
	SolfegeAccented
)

func (n Notation) String() string {
	switch n {
	case Letters:
		return "letters"
	case Solfege:
		return "solfege"
	case SolfegeAccented:
		return "solfege-accented"
	default:
		return "unknown"
	}
}

var naturals = map[string]Note{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
	"Do": 0, "Re": 2, "Mi": 4, "Fa": 5, "Sol": 7, "La": 9, "Si": 11,
	"Dó": 0, "Ré": 2, "Fá": 5, "Lá": 9,
}

var accentedRoots = map[string]bool{"Dó": true, "Ré": true, "Fá": true, "Lá": true}

// spelled tables are indexed by Note.
var (
	lettersSharp = [NoteCount]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	lettersFlat  = [NoteCount]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

	solfegeSharp = [NoteCount]string{"Do", "Do#", "Re", "Re#", "Mi", "Fa", "Fa#", "Sol", "Sol#", "La", "La#", "Si"}
	solfegeFlat  = [NoteCount]string{"Do", "Reb", "Re", "Mib", "Mi", "Fa", "Solb", "Sol", "Lab", "La", "Sib", "Si"}

	accentedSharp = [NoteCount]string{"Dó", "Dó#", "Ré", "Ré#", "Mi", "Fá", "Fá#", "Sol", "Sol#", "Lá", "Lá#", "Si"}
	accentedFlat  = [NoteCount]string{"Dó", "Réb", "Ré", "Mib", "Mi", "Fá", "Solb", "Sol", "Láb", "Lá", "Sib", "Si"}
)

// accidental is the alteration written after a root.
type accidental int

const (
	natural accidental = iota
	sharp
	flat
)

func accidentalOf(s string) accidental {
	switch s {
	case "#", "♯":
		return sharp
	case "b", "♭":
		return flat
	default:
		return natural
	}
}

// spelling remembers how a note was written so a shifted note can be
// rewritten the same way.
type spelling struct {
	Notation Notation
	Flat     bool
	Unicode  bool
}

func spellingOf(root, acc string) spelling {
	sp := spelling{Notation: Letters}
	switch {
	case accentedRoots[root]:
		sp.Notation = SolfegeAccented
	case len(root) > 1:
		sp.Notation = Solfege
	}
	sp.Flat = accidentalOf(acc) == flat
	sp.Unicode = acc == "♯" || acc == "♭"
	return sp
}

func (sp spelling) spell(n Note) string {
	var table *[NoteCount]string
	switch sp.Notation {
	case Solfege:
		table = &solfegeSharp
		if sp.Flat {
			table = &solfegeFlat
		}
	case SolfegeAccented:
		table = &accentedSharp
		if sp.Flat {
			table = &accentedFlat
		}
	default:
		table = &lettersSharp
		if sp.Flat {
			table = &lettersFlat
		}
	}
	label := table[n.normalize()]
	if sp.Unicode {
		label = strings.NewReplacer("#", "♯", "b", "♭").Replace(label)
	}
	return label
}

func (n Note) normalize() Note {
	return Note(((int(n) % NoteCount) + NoteCount) % NoteCount)
}

// ShiftNote moves n by shift semitones. The result is always in [0, 11].
func ShiftNote(n Note, shift int) Note {
	return Note(int(n) + shift%NoteCount).normalize()
}

// String spells the note with sharps in letter notation.
func (n Note) String() string {
	return lettersSharp[n.normalize()]
}

// NoteIndex classifies a root spelling such as "F#", "Sib" or "Lá".
// The boolean is false when the token is not a note.
func NoteIndex(token string) (Note, bool) {
	g, err := noteParser.ParseString("", token)
	if err != nil {
		return 0, false
	}
	return g.note(), true
}

func (g *noteGrammar) note() Note {
	n := naturals[g.Root]
	switch accidentalOf(g.Acc) {
	case sharp:
		n++
	case flat:
		n--
	}
	return n.normalize()
}
