package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/smsegal/schemesync/internal/config"
	"github.com/smsegal/schemesync/internal/fetch"
	"github.com/smsegal/schemesync/internal/scheme"
)

// goghHandler handles the Gogh theme list: a single JSON document
// naming every theme in the collection
type goghHandler struct {
	fetcher fetch.Client
}

// NewGoghHandler creates a new Gogh theme list handler
func NewGoghHandler(fetcher fetch.Client) Handler {
	return &goghHandler{fetcher: fetcher}
}

// Validate validates the Gogh source configuration
func (*goghHandler) Validate(src *config.SourceConfig) error {
	if src.GetType() != config.SourceTypeGogh {
		return fmt.Errorf("invalid source type: expected %s, got %s",
			config.SourceTypeGogh, src.GetType())
	}

	if src.Gogh.URL == "" {
		return fmt.Errorf("url cannot be empty")
	}

	return nil
}

// FetchSchemes downloads the theme list and converts each entry.
// Themes with unparseable colors are recorded as failures and skipped
func (h *goghHandler) FetchSchemes(ctx context.Context, src *config.SourceConfig) (*FetchResult, error) {
	if err := h.Validate(src); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	cfg := src.Gogh
	data, err := h.fetcher.Fetch(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", cfg.URL, err)
	}

	var list goghThemeList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing theme list from %s: %w", cfg.URL, err)
	}

	result := &FetchResult{}
	for _, theme := range list.Themes {
		s, err := theme.toScheme()
		if err != nil {
			result.Failures = append(result.Failures, ParseFailure{
				Path: fmt.Sprintf("%s#%s", cfg.URL, theme.Name),
				Err:  err,
			})
			continue
		}

		s.SetName(s.Name + cfg.Suffix)
		s.Metadata.OriginURL = cfg.GetOrigin()
		s.Metadata.WeztermVersion = scheme.NightlyVersion

		result.Schemes = append(result.Schemes, *s)
	}

	return result, nil
}

// goghThemeList is the published document shape
type goghThemeList struct {
	Themes []goghTheme `json:"themes"`
}

// goghTheme is one entry in the theme list. Gogh calls the magenta
// slot purple
type goghTheme struct {
	Name         string `json:"name"`
	Black        string `json:"black"`
	Red          string `json:"red"`
	Green        string `json:"green"`
	Yellow       string `json:"yellow"`
	Blue         string `json:"blue"`
	Purple       string `json:"purple"`
	Cyan         string `json:"cyan"`
	White        string `json:"white"`
	BrightBlack  string `json:"brightBlack"`
	BrightRed    string `json:"brightRed"`
	BrightGreen  string `json:"brightGreen"`
	BrightYellow string `json:"brightYellow"`
	BrightBlue   string `json:"brightBlue"`
	BrightPurple string `json:"brightPurple"`
	BrightCyan   string `json:"brightCyan"`
	BrightWhite  string `json:"brightWhite"`
	Foreground   string `json:"foreground"`
	Background   string `json:"background"`
	CursorColor  string `json:"cursorColor"`
}

func (t *goghTheme) toScheme() (*scheme.Scheme, error) {
	if t.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	var parseErr error
	parse := func(field, value string) scheme.Color {
		color, err := scheme.ParseColor(value)
		if err != nil && parseErr == nil {
			parseErr = fmt.Errorf("%s: %w", field, err)
		}
		return color
	}

	cursor := parse("cursorColor", t.CursorColor)
	s := &scheme.Scheme{
		Colors: scheme.Palette{
			Foreground:   parse("foreground", t.Foreground),
			Background:   parse("background", t.Background),
			CursorFg:     cursor,
			CursorBg:     cursor,
			CursorBorder: cursor,
			Ansi: []scheme.Color{
				parse("black", t.Black),
				parse("red", t.Red),
				parse("green", t.Green),
				parse("yellow", t.Yellow),
				parse("blue", t.Blue),
				parse("purple", t.Purple),
				parse("cyan", t.Cyan),
				parse("white", t.White),
			},
			Brights: []scheme.Color{
				parse("brightBlack", t.BrightBlack),
				parse("brightRed", t.BrightRed),
				parse("brightGreen", t.BrightGreen),
				parse("brightYellow", t.BrightYellow),
				parse("brightBlue", t.BrightBlue),
				parse("brightPurple", t.BrightPurple),
				parse("brightCyan", t.BrightCyan),
				parse("brightWhite", t.BrightWhite),
			},
		},
	}
	if parseErr != nil {
		return nil, parseErr
	}

	s.SetName(t.Name)
	return s, nil
}
