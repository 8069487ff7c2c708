package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/smsegal/schemesync/internal/archive"
	"github.com/smsegal/schemesync/internal/config"
	"github.com/smsegal/schemesync/internal/fetch"
	"github.com/smsegal/schemesync/internal/scheme"
)

// sexyHandler handles terminal.sexy export collections: JSON documents
// with sixteen colors in a single list, published under dist/schemes
type sexyHandler struct {
	fetcher fetch.Client
}

// NewSexyHandler creates a new terminal.sexy collection handler
func NewSexyHandler(fetcher fetch.Client) Handler {
	return &sexyHandler{fetcher: fetcher}
}

// Validate validates the terminal.sexy source configuration
func (*sexyHandler) Validate(src *config.SourceConfig) error {
	if src.GetType() != config.SourceTypeSexy {
		return fmt.Errorf("invalid source type: expected %s, got %s",
			config.SourceTypeSexy, src.GetType())
	}

	if src.Sexy.Repository == "" {
		return fmt.Errorf("repository cannot be empty")
	}

	return nil
}

// FetchSchemes downloads the repository snapshot and converts every
// export under dist/schemes
func (h *sexyHandler) FetchSchemes(ctx context.Context, src *config.SourceConfig) (*FetchResult, error) {
	if err := h.Validate(src); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	repo := src.Sexy
	url := tarballURL(repo.Repository, repo.GetBranch())
	data, err := h.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	result := &FetchResult{}
	err = archive.Walk(data, func(name string, content []byte) error {
		if path.Ext(name) != ".json" || !strings.Contains(name, "/dist/schemes/") {
			return nil
		}

		s, err := parseSexy(content)
		if err != nil {
			result.Failures = append(result.Failures, ParseFailure{
				Path: url + "/" + name,
				Err:  err,
			})
			return nil
		}

		if s.Name == "" {
			s.SetName(fileStem(name))
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

// sexyDocument is one export: the eight normal and eight bright colors
// share a single list
type sexyDocument struct {
	Name       string   `json:"name"`
	Author     string   `json:"author"`
	Color      []string `json:"color"`
	Foreground string   `json:"foreground"`
	Background string   `json:"background"`
}

func parseSexy(content []byte) (*scheme.Scheme, error) {
	var doc sexyDocument
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}
	if len(doc.Color) != 16 {
		return nil, fmt.Errorf("expected 16 colors, got %d", len(doc.Color))
	}

	var parseErr error
	parse := func(field, value string) scheme.Color {
		color, err := scheme.ParseColor(value)
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("%s: %w", field, err)
		}
		return color
	}

	colors := make([]scheme.Color, 16)
	for i, value := range doc.Color {
		colors[i] = parse(fmt.Sprintf("color[%d]", i), value)
	}

	s := &scheme.Scheme{
		Colors: scheme.Palette{
			Foreground: parse("foreground", doc.Foreground),
			Background: parse("background", doc.Background),
			Ansi:       colors[:8],
			Brights:    colors[8:],
		},
		Metadata: scheme.Metadata{
			Author: doc.Author,
		},
	}
	if parseErr != nil {
		return nil, parseErr
	}

	s.SetName(doc.Name)
	return s, nil
}
