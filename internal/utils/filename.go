package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

const maxFilenameBytes = 200

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// FoldDiacritics strips combining marks: "Resucitó" -> "Resucito".
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SanitizeFilename makes a song or songbook title safe to use as a file
// name. Diacritics are folded so generated files have portable names.
func SanitizeFilename(filename string) string {
	filename = FoldDiacritics(filename)

	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = whitespaceChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	// Drop punctuation that only gets in the way on the command line
	filename = strings.Map(func(r rune) rune {
		switch r {
		case '¿', '¡', '#', '∗':
			return -1
		}
		return r
	}, filename)
	filename = strings.TrimSpace(filename)

	// Limit length (most filesystems support 255 bytes, leave room for extension)
	filename = strings.TrimSpace(truncateBytes(filename, maxFilenameBytes))

	if filename == "" {
		filename = "Untitled"
	}

	return filename
}

// SongFileExtension is the extension of song source files.
const SongFileExtension = ".txt"

// SplitSongFileName splits a song file name of the form
// "Title - Source.txt" at the first hyphen. Names without one have an empty
// source.
func SplitSongFileName(name string) (title, source string) {
	name = strings.TrimSuffix(name, SongFileExtension)
	if i := strings.Index(name, "-"); i >= 0 {
		return strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+1:])
	}
	return strings.TrimSpace(name), ""
}
