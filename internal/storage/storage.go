// Package storage publishes the synced catalog: the scheme data file
// consumed by the documentation site, the name-to-document listing
// embedded by downstream builds, and the changelog summary of schemes
// that have not shipped yet.
//
// Output files are rewritten only when their content actually changed,
// so repeated runs against unchanged sources leave clean diffs.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/smsegal/schemesync/internal/scheme"
)

// ListingEntry pairs a scheme name with its full TOML document
type ListingEntry struct {
	Name string `json:"name"`
	TOML string `json:"toml"`
}

// WriteDataFile publishes the catalog as pretty-printed JSON. It
// reports whether the file was rewritten
func WriteDataFile(path string, schemes []scheme.Scheme) (bool, error) {
	data, err := json.MarshalIndent(schemes, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal scheme data: %w", err)
	}
	return writeIfChanged(path, data)
}

// WriteListing publishes the name-to-document listing. It reports
// whether the file was rewritten
func WriteListing(path string, schemes []scheme.Scheme) (bool, error) {
	entries := make([]ListingEntry, 0, len(schemes))
	for i := range schemes {
		doc, err := schemes[i].TOML()
		if err != nil {
			return false, fmt.Errorf("failed to render %s: %w", schemes[i].Name, err)
		}
		entries = append(entries, ListingEntry{Name: schemes[i].Name, TOML: doc})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal listing: %w", err)
	}
	return writeIfChanged(path, data)
}

// ChangelogSummary renders the release note line for schemes still
// marked as nightly-only. It returns the empty string when every
// scheme has shipped
func ChangelogSummary(schemes []scheme.Scheme) string {
	var items []string
	for i := range schemes {
		if schemes[i].Metadata.WeztermVersion != scheme.NightlyVersion {
			continue
		}
		name := schemes[i].Name
		items = append(items, fmt.Sprintf("[%s](colorschemes/%s/index.md#%s)",
			name, scheme.Prefix(name), scheme.Ident(name)))
	}
	if len(items) == 0 {
		return ""
	}
	return "* Color schemes: " + strings.Join(items, ",\n  ")
}

// writeIfChanged writes data to path unless the file already holds
// exactly that content. Writes go through a temporary file and rename
// so a crash never leaves a half-written output behind
func writeIfChanged(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return false, fmt.Errorf("failed to create output directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return false, fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return false, fmt.Errorf("failed to rename output file: %w", err)
	}

	slog.Info("updated output file", "path", path)
	return true, nil
}
