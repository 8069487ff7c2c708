package sources

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/smsegal/schemesync/internal/archive"
	"github.com/smsegal/schemesync/internal/config"
	"github.com/smsegal/schemesync/internal/fetch"
	"github.com/smsegal/schemesync/internal/scheme"
)

// tomlRepoHandler handles repositories that publish schemes as
// standalone TOML documents, one scheme per file
type tomlRepoHandler struct {
	fetcher fetch.Client
}

// NewTOMLRepoHandler creates a new TOML repository handler
func NewTOMLRepoHandler(fetcher fetch.Client) Handler {
	return &tomlRepoHandler{fetcher: fetcher}
}

// Validate validates the TOML repository source configuration
func (*tomlRepoHandler) Validate(src *config.SourceConfig) error {
	if src.GetType() != config.SourceTypeTOMLRepo {
		return fmt.Errorf("invalid source type: expected %s, got %s",
			config.SourceTypeTOMLRepo, src.GetType())
	}

	if src.TOMLRepo.Repository == "" {
		return fmt.Errorf("repository cannot be empty")
	}

	return nil
}

// FetchSchemes downloads the repository snapshot and parses every TOML
// file in it as a scheme document. Files that fail to parse are
// recorded as failures and skipped
func (h *tomlRepoHandler) FetchSchemes(ctx context.Context, src *config.SourceConfig) (*FetchResult, error) {
	if err := h.Validate(src); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	repo := src.TOMLRepo
	url := tarballURL(repo.Repository, repo.GetBranch())
	data, err := h.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	result := &FetchResult{}
	err = archive.Walk(data, func(name string, content []byte) error {
		if path.Ext(name) != ".toml" {
			return nil
		}

		s, err := scheme.FromTOML(content)
		if err != nil {
			result.Failures = append(result.Failures, ParseFailure{
				Path: url + "/" + name,
				Err:  err,
			})
			return nil
		}

		// Schemes aimed at other tools often omit their own name;
		// the file name stands in for it
		schemeName := s.Metadata.Name
		if schemeName == "" {
			schemeName = fileStem(name)
		}
		s.SetName(schemeName + repo.Suffix)
		s.FileName = name

		if s.Metadata.OriginURL == "" {
			s.Metadata.OriginURL = repo.Repository
		}
		s.Metadata.WeztermVersion = scheme.NightlyVersion

		result.Schemes = append(result.Schemes, *s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading archive from %s: %w", url, err)
	}

	return result, nil
}

// tarballURL builds the snapshot download URL for a repository branch.
// Codeberg and GitHub expose different archive endpoints
func tarballURL(repo, branch string) string {
	if strings.HasPrefix(repo, "https://codeberg.org/") {
		return fmt.Sprintf("%s/archive/%s.tar.gz", repo, branch)
	}
	return fmt.Sprintf("%s/tarball/%s", repo, branch)
}

// fileStem returns the base name of an archive entry without its
// extension
func fileStem(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}
