// Package scheme defines the color scheme document model shared by the
// source handlers, the merge registry, and the published outputs.
package scheme

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// NightlyVersion marks schemes that have not yet shipped in a release.
// Every candidate produced by a source handler carries it until the
// registry resolves a first-seen release version for the palette.
const NightlyVersion = "nightly builds only"

// Palette is the color document of a scheme. Its canonical JSON
// serialization is the scheme's identity: two palettes describe the
// same scheme exactly when their serializations match.
type Palette struct {
	Foreground     Color `json:"foreground,omitempty" toml:"foreground,omitempty"`
	Background     Color `json:"background,omitempty" toml:"background,omitempty"`
	CursorBg       Color `json:"cursor_bg,omitempty" toml:"cursor_bg,omitempty"`
	CursorBorder   Color `json:"cursor_border,omitempty" toml:"cursor_border,omitempty"`
	CursorFg       Color `json:"cursor_fg,omitempty" toml:"cursor_fg,omitempty"`
	SelectionBg    Color `json:"selection_bg,omitempty" toml:"selection_bg,omitempty"`
	SelectionFg    Color `json:"selection_fg,omitempty" toml:"selection_fg,omitempty"`
	Split          Color `json:"split,omitempty" toml:"split,omitempty"`
	ScrollbarThumb Color `json:"scrollbar_thumb,omitempty" toml:"scrollbar_thumb,omitempty"`
	VisualBell     Color `json:"visual_bell,omitempty" toml:"visual_bell,omitempty"`
	ComposeCursor  Color `json:"compose_cursor,omitempty" toml:"compose_cursor,omitempty"`

	Ansi    []Color `json:"ansi,omitempty" toml:"ansi,omitempty"`
	Brights []Color `json:"brights,omitempty" toml:"brights,omitempty"`

	// Indexed holds colors for palette slots above 15, keyed by the
	// decimal slot number.
	Indexed map[string]Color `json:"indexed,omitempty" toml:"indexed,omitempty"`
}

// Key returns the canonical serialization used for identity matching
// and version lookups.
func (p *Palette) Key() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("serializing palette: %w", err)
	}
	return string(data), nil
}

// Metadata carries the provenance of a scheme. Field names follow the
// published dataset.
type Metadata struct {
	Name           string   `json:"name,omitempty" toml:"name,omitempty"`
	Author         string   `json:"author,omitempty" toml:"author,omitempty"`
	OriginURL      string   `json:"origin_url,omitempty" toml:"origin_url,omitempty"`
	WeztermVersion string   `json:"wezterm_version,omitempty" toml:"wezterm_version,omitempty"`
	Aliases        []string `json:"aliases" toml:"aliases"`
}

// Scheme is one color scheme record: a palette plus its provenance.
// Name mirrors Metadata.Name and is not serialized on its own;
// FileName records the archive path the scheme was parsed from.
type Scheme struct {
	Name     string   `json:"-" toml:"-"`
	FileName string   `json:"-" toml:"-"`
	Colors   Palette  `json:"colors" toml:"colors"`
	Metadata Metadata `json:"metadata" toml:"metadata"`
}

// SetName renames the scheme, keeping the metadata copy in sync.
func (s *Scheme) SetName(name string) {
	s.Name = name
	s.Metadata.Name = name
}

// Prefix returns the index group for a scheme name: the first ASCII
// letter or digit, lowercased. Names without one group under "0".
func Prefix(name string) string {
	for _, r := range name {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z':
			return string(r)
		case r >= 'A' && r <= 'Z':
			return string(unicode.ToLower(r))
		}
	}
	return "0"
}

// Ident returns the anchor identifier for a scheme name: lowercase
// alphanumeric runs joined by hyphens.
func Ident(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "-")
}

// Sort orders schemes the way the published catalog lists them: by
// Prefix, then by case-folded full name. Punctuation is skipped for
// grouping but still breaks ties within a group.
func Sort(schemes []Scheme) {
	slices.SortFunc(schemes, func(a, b Scheme) int {
		if c := strings.Compare(Prefix(a.Name), Prefix(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}
