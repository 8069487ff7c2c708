package sources

import (
	"context"
	"fmt"
	"path"

	"howett.net/plist"

	"github.com/smsegal/schemesync/internal/archive"
	"github.com/smsegal/schemesync/internal/config"
	"github.com/smsegal/schemesync/internal/fetch"
	"github.com/smsegal/schemesync/internal/scheme"
)

// iterm2Handler handles iTerm2 color preset collection repositories.
// Presets are property list documents of color dictionaries keyed by
// slot name
type iterm2Handler struct {
	fetcher fetch.Client
}

// NewITerm2Handler creates a new iTerm2 collection handler
func NewITerm2Handler(fetcher fetch.Client) Handler {
	return &iterm2Handler{fetcher: fetcher}
}

// Validate validates the iTerm2 source configuration
func (*iterm2Handler) Validate(src *config.SourceConfig) error {
	if src.GetType() != config.SourceTypeITerm2 {
		return fmt.Errorf("invalid source type: expected %s, got %s",
			config.SourceTypeITerm2, src.GetType())
	}

	if src.ITerm2.Repository == "" {
		return fmt.Errorf("repository cannot be empty")
	}

	return nil
}

// FetchSchemes downloads the repository snapshot and converts every
// preset in it. Presets carry no name of their own, so the file name
// names the scheme
func (h *iterm2Handler) FetchSchemes(ctx context.Context, src *config.SourceConfig) (*FetchResult, error) {
	if err := h.Validate(src); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	repo := src.ITerm2
	url := tarballURL(repo.Repository, repo.GetBranch())
	data, err := h.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	result := &FetchResult{}
	err = archive.Walk(data, func(name string, content []byte) error {
		if path.Ext(name) != ".itermcolors" {
			return nil
		}

		s, err := parseITerm2(content)
		if err != nil {
			result.Failures = append(result.Failures, ParseFailure{
				Path: url + "/" + name,
				Err:  err,
			})
			return nil
		}

		s.SetName(fileStem(name) + repo.Suffix)
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

// itermComponent is one color dictionary within a preset. Components
// are fractions in the unit interval
type itermComponent struct {
	Red   float64 `plist:"Red Component"`
	Green float64 `plist:"Green Component"`
	Blue  float64 `plist:"Blue Component"`
}

func (c itermComponent) color() scheme.Color {
	return scheme.ColorFromRGB(c.Red, c.Green, c.Blue)
}

// parseITerm2 converts one preset document into a scheme. The sixteen
// ansi slots are required; the named slots are optional
func parseITerm2(content []byte) (*scheme.Scheme, error) {
	var doc map[string]itermComponent
	if _, err := plist.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parsing preset: %w", err)
	}

	slots := make([]scheme.Color, 16)
	for i := range slots {
		key := fmt.Sprintf("Ansi %d Color", i)
		component, found := doc[key]
		if !found {
			return nil, fmt.Errorf("missing %s", key)
		}
		slots[i] = component.color()
	}

	optional := func(key string) scheme.Color {
		component, found := doc[key]
		if !found {
			return ""
		}
		return component.color()
	}

	cursor := optional("Cursor Color")
	return &scheme.Scheme{
		Colors: scheme.Palette{
			Foreground:   optional("Foreground Color"),
			Background:   optional("Background Color"),
			CursorBg:     cursor,
			CursorBorder: cursor,
			CursorFg:     optional("Cursor Text Color"),
			SelectionBg:  optional("Selection Color"),
			SelectionFg:  optional("Selected Text Color"),
			Ansi:         slots[:8],
			Brights:      slots[8:],
		},
	}, nil
}
