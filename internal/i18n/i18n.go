// Package i18n holds the locale strings of generated documents. Tables are
// embedded and looked up by key; a missing key is returned as is.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLocale backs every other table.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

var tables = mustLoad()

func mustLoad() map[string]map[string]string {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		panic(err)
	}
	out := make(map[string]map[string]string, len(entries))
	for _, e := range entries {
		data, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			panic(err)
		}
		table := map[string]string{}
		if err := yaml.Unmarshal(data, &table); err != nil {
			panic(fmt.Sprintf("locale %s: %v", e.Name(), err))
		}
		out[strings.TrimSuffix(e.Name(), ".yaml")] = table
	}
	return out
}

// Strings is a read-only lookup for one locale.
type Strings struct {
	locale string
	table  map[string]string
}

// New returns the strings of locale, falling back to its language and then
// to DefaultLocale.
func New(locale string) *Strings {
	resolved := Resolve(locale)
	return &Strings{locale: resolved, table: tables[resolved]}
}

// Resolve maps a locale such as "pt-BR" to an available table.
func Resolve(locale string) string {
	if _, ok := tables[locale]; ok {
		return locale
	}
	lang, _, _ := strings.Cut(strings.ReplaceAll(locale, "_", "-"), "-")
	lang = strings.ToLower(lang)
	if _, ok := tables[lang]; ok {
		return lang
	}
	return DefaultLocale
}

// Available lists the embedded locales.
func Available() []string {
	out := make([]string, 0, len(tables))
	for l := range tables {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Locale is the resolved locale.
func (s *Strings) Locale() string {
	return s.locale
}

// T translates key.
func (s *Strings) T(key string) string {
	if v, ok := s.table[key]; ok {
		return v
	}
	if v, ok := tables[DefaultLocale][key]; ok {
		return v
	}
	return key
}
