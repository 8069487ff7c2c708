package scheme

import (
	"fmt"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a 24-bit sRGB color held in canonical lowercase "#rrggbb"
// form. Parsing normalizes, so "#FFF" and "#ffffff" compare equal.
type Color string

// ParseColor normalizes a hex color string. It accepts the "#rgb" and
// "#rrggbb" forms, with or without the leading "#", in any case.
func ParseColor(s string) (Color, error) {
	hex := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	if len(hex) != 4 && len(hex) != 7 {
		return "", fmt.Errorf("invalid color %q", s)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return "", fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(c.Hex()), nil
}

// ColorFromRGB builds a Color from float components in [0, 1],
// clamping out-of-range values.
func ColorFromRGB(r, g, b float64) Color {
	c := colorful.Color{R: r, G: g, B: b}.Clamped()
	return Color(c.Hex())
}

// UnmarshalText parses and normalizes a color from any decoded
// document, so every palette that enters the system is canonical.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Color) String() string {
	return string(c)
}
