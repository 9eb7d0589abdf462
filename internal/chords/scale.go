package chords

import "strings"

// DefaultLocale is used when neither a locale nor its language is known.
const DefaultLocale = "en"

var scales = map[string][NoteCount]string{
	"en": lettersSharp,
	"es": {"Do", "Do#", "Re", "Mib", "Mi", "Fa", "Fa#", "Sol", "Sol#", "La", "Sib", "Si"},
	"ca": {"Do", "Do#", "Re", "Mib", "Mi", "Fa", "Fa#", "Sol", "Sol#", "La", "Sib", "Si"},
	"it": {"Do", "Do#", "Re", "Mib", "Mi", "Fa", "Fa#", "Sol", "Sol#", "La", "Sib", "Si"},
	"fr": {"Do", "Do#", "Ré", "Mib", "Mi", "Fa", "Fa#", "Sol", "Sol#", "La", "Sib", "Si"},
	"pt": {"Dó", "Dó#", "Ré", "Mib", "Mi", "Fá", "Fá#", "Sol", "Sol#", "Lá", "Sib", "Si"},
}

// ResolveLocale maps a locale such as "es-AR" to the scale table used for
// it: exact match, then language prefix, then DefaultLocale.
func ResolveLocale(locale string) string {
	if _, ok := scales[locale]; ok {
		return locale
	}
	lang, _, _ := strings.Cut(strings.ReplaceAll(locale, "_", "-"), "-")
	lang = strings.ToLower(lang)
	if _, ok := scales[lang]; ok {
		return lang
	}
	return DefaultLocale
}

// Scale returns the twelve display labels of the locale's naming convention,
// C (Do) first.
func Scale(locale string) []string {
	s := scales[ResolveLocale(locale)]
	return s[:]
}

// Locales lists the locales with a dedicated scale table.
func Locales() []string {
	return []string{"ca", "en", "es", "fr", "it", "pt"}
}

// ScaleIndex finds label in the locale's scale.
func ScaleIndex(locale, label string) (Note, bool) {
	for i, l := range Scale(locale) {
		if l == label {
			return Note(i), true
		}
	}
	return 0, false
}
