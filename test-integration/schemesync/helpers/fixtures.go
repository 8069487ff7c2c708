package helpers

import (
	"encoding/json"
	"fmt"

	"github.com/onsi/gomega"
)

// SchemeTOML renders a standalone scheme document. The accent color
// lands in the red slots, so documents sharing an accent carry the
// same palette and documents with different accents never collide.
func SchemeTOML(name, author, accent string) string {
	doc := fmt.Sprintf(`[colors]
foreground = "#c8c8c8"
background = "#141414"
ansi = [
  "#000000",
  %q,
  "#2fbf71",
  "#f0c808",
  "#3f88c5",
  "#a06cd5",
  "#20a4f3",
  "#d3d4d9",
]
brights = [
  "#53565a",
  %q,
  "#5cd48f",
  "#ffe066",
  "#6ba8de",
  "#c49bef",
  "#64c7ff",
  "#fafafa",
]
`, accent, accent)

	if name != "" || author != "" {
		doc += "\n[metadata]\n"
		if name != "" {
			doc += fmt.Sprintf("name = %q\n", name)
		}
		if author != "" {
			doc += fmt.Sprintf("author = %q\n", author)
		}
	}
	return doc
}

// GoghTheme describes one entry of a generated theme list document.
type GoghTheme struct {
	Name   string
	Accent string
}

// GoghDocument renders a theme list in the published wrapper shape.
// Each theme gets a complete sixteen color palette derived from its
// accent.
func GoghDocument(themes ...GoghTheme) []byte {
	entries := make([]map[string]string, 0, len(themes))
	for _, t := range themes {
		entries = append(entries, map[string]string{
			"name":         t.Name,
			"black":        "#000000",
			"red":          t.Accent,
			"green":        "#2fbf71",
			"yellow":       "#f0c808",
			"blue":         "#3f88c5",
			"purple":       "#a06cd5",
			"cyan":         "#20a4f3",
			"white":        "#d3d4d9",
			"brightBlack":  "#53565a",
			"brightRed":    t.Accent,
			"brightGreen":  "#5cd48f",
			"brightYellow": "#ffe066",
			"brightBlue":   "#6ba8de",
			"brightPurple": "#c49bef",
			"brightCyan":   "#64c7ff",
			"brightWhite":  "#fafafa",
			"foreground":   "#c8c8c8",
			"background":   "#141414",
			"cursorColor":  "#c8c8c8",
		})
	}

	data, err := json.Marshal(map[string][]map[string]string{"themes": entries})
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return data
}
