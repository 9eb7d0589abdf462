package chords

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Chord is a root note, a verbatim quality suffix and an optional slash bass.
type Chord struct {
	Root    Note
	Quality string
	Bass    Note
	HasBass bool

	rootSpelling spelling
	bassSpelling spelling
}

// Notation reports the naming system the chord root was written in.
func (c Chord) Notation() Notation {
	return c.rootSpelling.Notation
}

// String writes the chord back in the notation and accidental style it was
// parsed from.
func (c Chord) String() string {
	var b strings.Builder
	b.WriteString(c.rootSpelling.spell(c.Root))
	b.WriteString(c.Quality)
	if c.HasBass {
		b.WriteByte('/')
		b.WriteString(c.bassSpelling.spell(c.Bass))
	}
	return b.String()
}

// Chord tokens: a root in letter or solfege notation, an optional accidental,
// any run of quality words, extension digits, parentheses and alterations,
// and an optional "/bass".
//
//nolint:govet // participle grammar tags are not standard struct tags
type chordGrammar struct {
	Root    string       `@Root`
	Acc     string       `@Accidental?`
	Quality string       `@( Quality | Digits | Paren | Accidental )*`
	Bass    *noteGrammar `( Slash @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type noteGrammar struct {
	Root string `@Root`
	Acc  string `@Accidental?`
}

// Rule order matters: solfege roots must be tried before single letters.
var chordLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Root", Pattern: `Sol|Do|Dó|Re|Ré|Mi|Fa|Fá|La|Lá|Si|[A-G]`},
	{Name: "Accidental", Pattern: `[#b♯♭]`},
	{Name: "Quality", Pattern: `maj|Maj|min|dim|aug|sus|add|[mM°º+\-]`},
	{Name: "Digits", Pattern: `[0-9]+`},
	{Name: "Paren", Pattern: `[()]`},
	{Name: "Slash", Pattern: `/`},
})

var (
	chordParser = participle.MustBuild[chordGrammar](participle.Lexer(chordLexer))
	noteParser  = participle.MustBuild[noteGrammar](participle.Lexer(chordLexer))
)

// ParseChord parses a single whitespace-free token. The boolean is false for
// anything that is not a chord, which callers treat as lyric text.
func ParseChord(token string) (Chord, bool) {
	if token == "" {
		return Chord{}, false
	}
	g, err := chordParser.ParseString("", token)
	if err != nil {
		return Chord{}, false
	}
	c := Chord{
		Root:         (&noteGrammar{Root: g.Root, Acc: g.Acc}).note(),
		Quality:      g.Quality,
		rootSpelling: spellingOf(g.Root, g.Acc),
	}
	if g.Bass != nil {
		c.HasBass = true
		c.Bass = g.Bass.note()
		c.bassSpelling = spellingOf(g.Bass.Root, g.Bass.Acc)
	}
	return c, true
}
