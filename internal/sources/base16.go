package sources

import (
	"context"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/smsegal/schemesync/internal/archive"
	"github.com/smsegal/schemesync/internal/config"
	"github.com/smsegal/schemesync/internal/fetch"
	"github.com/smsegal/schemesync/internal/scheme"
)

// base16Handler handles base16 scheme collection repositories. Both
// the current document shape (a system marker and a palette map) and
// the legacy flat shape (a scheme key and top-level base slots) are
// accepted
type base16Handler struct {
	fetcher fetch.Client
}

// NewBase16Handler creates a new base16 collection handler
func NewBase16Handler(fetcher fetch.Client) Handler {
	return &base16Handler{fetcher: fetcher}
}

// Validate validates the base16 source configuration
func (*base16Handler) Validate(src *config.SourceConfig) error {
	if src.GetType() != config.SourceTypeBase16 {
		return fmt.Errorf("invalid source type: expected %s, got %s",
			config.SourceTypeBase16, src.GetType())
	}

	if src.Base16.Repository == "" {
		return fmt.Errorf("repository cannot be empty")
	}

	return nil
}

// FetchSchemes downloads the repository snapshot and converts every
// base16 document in it. YAML files that are not scheme documents,
// such as CI configuration, are skipped without complaint; documents
// that are schemes but malformed are recorded as failures
func (h *base16Handler) FetchSchemes(ctx context.Context, src *config.SourceConfig) (*FetchResult, error) {
	if err := h.Validate(src); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	repo := src.Base16
	url := tarballURL(repo.Repository, repo.GetBranch())
	data, err := h.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	result := &FetchResult{}
	err = archive.Walk(data, func(name string, content []byte) error {
		ext := path.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		s, ok, err := parseBase16(content)
		if err != nil {
			result.Failures = append(result.Failures, ParseFailure{
				Path: url + "/" + name,
				Err:  err,
			})
			return nil
		}
		if !ok {
			return nil
		}

		s.SetName(s.Name + repo.Suffix)
		s.FileName = name
		s.Metadata.OriginURL = repo.Repository
		s.Metadata.WeztermVersion = scheme.NightlyVersion

		result.Schemes = append(result.Schemes, *s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading archive from %s: %w", url, err)
	}

	return result, nil
}

// base16Document is the current collection shape
type base16Document struct {
	System  string            `yaml:"system"`
	Name    string            `yaml:"name"`
	Author  string            `yaml:"author"`
	Palette map[string]string `yaml:"palette"`
}

// parseBase16 converts one YAML document into a scheme. The second
// return is false when the document is not a base16 scheme at all,
// for example a base24 scheme or an unrelated YAML file
func parseBase16(content []byte) (*scheme.Scheme, bool, error) {
	var doc base16Document
	if err := yaml.Unmarshal(content, &doc); err == nil && len(doc.Palette) > 0 {
		if doc.System != "" && doc.System != "base16" {
			return nil, false, nil
		}
		if doc.Name == "" {
			return nil, false, fmt.Errorf("name is required")
		}
		s, err := base16ToScheme(doc.Name, doc.Author, doc.Palette)
		if err != nil {
			return nil, false, err
		}
		return s, true, nil
	}

	// Legacy documents are flat string maps with the base slots at
	// top level
	var raw map[string]string
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, false, nil
	}
	name := raw["scheme"]
	if name == "" {
		return nil, false, nil
	}
	s, err := base16ToScheme(name, raw["author"], raw)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// base16ToScheme projects the sixteen numbered slots onto the terminal
// color model. base05 on base00 is the text-on-background pairing the
// base16 styling guide prescribes; the remaining assignments follow
// the standard terminal template
func base16ToScheme(name, author string, slots map[string]string) (*scheme.Scheme, error) {
	base := make([]scheme.Color, 16)
	for i := range base {
		slot := fmt.Sprintf("base%02X", i)
		value, found := slots[slot]
		if !found {
			return nil, fmt.Errorf("missing palette slot %s", slot)
		}
		color, err := scheme.ParseColor(value)
		if err != nil {
			return nil, fmt.Errorf("palette slot %s: %w", slot, err)
		}
		base[i] = color
	}

	s := &scheme.Scheme{
		Colors: scheme.Palette{
			Foreground:   base[0x5],
			Background:   base[0x0],
			CursorFg:     base[0x0],
			CursorBg:     base[0x5],
			CursorBorder: base[0x5],
			SelectionFg:  base[0x0],
			SelectionBg:  base[0x5],
			Ansi: []scheme.Color{
				base[0x0], base[0x8], base[0xb], base[0xa],
				base[0xd], base[0xe], base[0xc], base[0x5],
			},
			Brights: []scheme.Color{
				base[0x3], base[0x8], base[0xb], base[0xa],
				base[0xd], base[0xe], base[0xc], base[0x7],
			},
		},
		Metadata: scheme.Metadata{
			Author: author,
		},
	}
	s.SetName(name)
	return s, nil
}
