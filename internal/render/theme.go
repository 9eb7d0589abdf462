package render

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/cancionero/internal/utils"
)

// StyleID names a style of the theme.
type StyleID string

const (
	StyleTitle            StyleID = "title"
	StyleSource           StyleID = "source"
	StyleNormal           StyleID = "normal"
	StyleNotes            StyleID = "notes"
	StyleNotesWithMargin  StyleID = "notesWithMargin"
	StyleNoteSpecialTitle StyleID = "noteSpecialTitle"
	StyleNoteSpecial      StyleID = "noteSpecial"
	StylePrefix           StyleID = "prefix"
	StylePageNumber       StyleID = "pageNumber"
)

// RequiredStyles lists every style a theme must define.
var RequiredStyles = []StyleID{
	StyleTitle,
	StyleSource,
	StyleNormal,
	StyleNotes,
	StyleNotesWithMargin,
	StyleNoteSpecialTitle,
	StyleNoteSpecial,
	StylePrefix,
	StylePageNumber,
}

// ErrIncompleteTheme is returned when a theme misses a required style.
var ErrIncompleteTheme = errors.New("incomplete theme")

// Style is the look of one kind of text. Sizes and margins are in device
// units (points for print devices).
type Style struct {
	Color        string  `yaml:"color" json:"color"`
	Size         float64 `yaml:"size" json:"size"`
	Bold         bool    `yaml:"bold" json:"bold,omitempty"`
	Italic       bool    `yaml:"italic" json:"italic,omitempty"`
	MarginTop    float64 `yaml:"margin_top" json:"marginTop,omitempty"`
	MarginBottom float64 `yaml:"margin_bottom" json:"marginBottom,omitempty"`
}

// Theme maps every StyleID to a Style.
type Theme struct {
	Name   string            `yaml:"name" json:"name"`
	Styles map[StyleID]Style `yaml:"styles" json:"styles"`
}

//go:embed themes/default.yaml
var defaultThemeYAML []byte

// DefaultTheme returns the embedded print theme.
func DefaultTheme() Theme {
	theme, err := ParseTheme(defaultThemeYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded theme: %v", err))
	}
	return theme
}

// ParseTheme decodes and validates a YAML theme.
func ParseTheme(data []byte) (Theme, error) {
	var theme Theme
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return Theme{}, fmt.Errorf("failed to decode theme: %w", err)
	}
	if err := theme.Validate(); err != nil {
		return Theme{}, err
	}
	return theme, nil
}

// LoadTheme reads a theme file. An empty path yields the default theme.
func LoadTheme(path string) (Theme, error) {
	if path == "" {
		return DefaultTheme(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("failed to read theme %s: %w", path, err)
	}
	return ParseTheme(data)
}

// Validate checks that every required style is present with a usable
// color and size. All problems are reported at once.
func (t Theme) Validate() error {
	var missing, invalid []string
	for _, id := range RequiredStyles {
		s, ok := t.Styles[id]
		if !ok {
			missing = append(missing, string(id))
			continue
		}
		if !utils.IsHexColor(s.Color) || s.Size <= 0 {
			invalid = append(invalid, string(id))
		}
	}
	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(invalid)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("%w: %s", ErrIncompleteTheme, strings.Join(parts, "; "))
}

// Style looks up a style by ID.
func (t Theme) Style(id StyleID) (Style, error) {
	s, ok := t.Styles[id]
	if !ok {
		return Style{}, fmt.Errorf("%w: missing %s", ErrIncompleteTheme, id)
	}
	return s, nil
}

// MustStyle is Style for themes that already passed Validate.
func (t Theme) MustStyle(id StyleID) Style {
	s, err := t.Style(id)
	if err != nil {
		panic(err)
	}
	return s
}
