package scheme

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
)

// FromTOML parses a standalone wezterm color scheme document. The
// scheme name is taken from the metadata table when present; callers
// fall back to the file stem otherwise. Unknown keys are ignored so
// documents written for newer terminals still parse.
func FromTOML(data []byte) (*Scheme, error) {
	var s Scheme
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scheme document: %w", err)
	}
	if err := s.Colors.validate(); err != nil {
		return nil, err
	}
	s.Name = s.Metadata.Name
	return &s, nil
}

// TOML renders the scheme as a standalone wezterm document.
func (s *Scheme) TOML() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return "", fmt.Errorf("encoding scheme document: %w", err)
	}
	return buf.String(), nil
}

func (p *Palette) validate() error {
	if n := len(p.Ansi); n != 0 && n != 8 {
		return fmt.Errorf("colors.ansi has %d entries, want 8", n)
	}
	if n := len(p.Brights); n != 0 && n != 8 {
		return fmt.Errorf("colors.brights has %d entries, want 8", n)
	}
	return nil
}
