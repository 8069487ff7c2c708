// Package config provides configuration loading for scheme sync runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// SourceTypeTOMLRepo is a repository of standalone scheme documents
	SourceTypeTOMLRepo = "tomlRepo"

	// SourceTypeBase16 is a base16 scheme collection repository
	SourceTypeBase16 = "base16"

	// SourceTypeGogh is the Gogh single-document theme list
	SourceTypeGogh = "gogh"

	// SourceTypeITerm2 is an iTerm2 color preset collection repository
	SourceTypeITerm2 = "iterm2"

	// SourceTypeSexy is a terminal.sexy export collection repository
	SourceTypeSexy = "sexy"
)

// DefaultBranch is used when a repository source does not name one.
const DefaultBranch = "main"

// EnvPrefix namespaces the environment variables read by the CLI.
const EnvPrefix = "SCHEMESYNC"

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure for a sync run
type Config struct {
	// CatalogName identifies this catalog in logs and status output.
	// Defaults to "default" if not specified
	CatalogName string `yaml:"catalogName,omitempty"`

	Cache   CacheConfig    `yaml:"cache,omitempty"`
	Output  OutputConfig   `yaml:"output,omitempty"`
	Sources []SourceConfig `yaml:"sources"`
}

// CacheConfig locates the persistent fetch cache
type CacheConfig struct {
	// Path is the SQLite cache file. Defaults to a well-known name
	// under the system temp directory
	Path string `yaml:"path,omitempty"`
}

// OutputConfig names the published artifacts of a run
type OutputConfig struct {
	// DataFile is the canonical catalog dataset
	DataFile string `yaml:"dataFile,omitempty"`

	// ListingFile pairs each scheme name with its rendered document
	ListingFile string `yaml:"listingFile,omitempty"`

	// StatusFile records the outcome of the most recent run
	StatusFile string `yaml:"statusFile,omitempty"`
}

// SourceConfig defines a single scheme source. Exactly one of the
// type-specific blocks must be set; sources are synced in the order
// they appear, which decides which spelling of a palette owns its name
type SourceConfig struct {
	// Name is the identifier for this source
	Name string `yaml:"name"`

	TOMLRepo *RepoConfig `yaml:"tomlRepo,omitempty"`
	Base16   *RepoConfig `yaml:"base16,omitempty"`
	ITerm2   *RepoConfig `yaml:"iterm2,omitempty"`
	Sexy     *RepoConfig `yaml:"sexy,omitempty"`
	Gogh     *GoghConfig `yaml:"gogh,omitempty"`
}

// RepoConfig defines a source that is downloaded as a repository
// tarball snapshot
type RepoConfig struct {
	// Repository is the HTTPS URL of the hosting repository
	Repository string `yaml:"repository"`

	// Branch is the branch to snapshot. Defaults to DefaultBranch
	Branch string `yaml:"branch,omitempty"`

	// Suffix is appended to every scheme name from this source, e.g.
	// " (base16)", so collections with overlapping names stay distinct
	Suffix string `yaml:"suffix,omitempty"`
}

// GetBranch returns the configured branch or the default
func (r *RepoConfig) GetBranch() string {
	if r.Branch == "" {
		return DefaultBranch
	}
	return r.Branch
}

// GoghConfig defines the Gogh source: one JSON document listing every
// theme
type GoghConfig struct {
	// URL is the location of the theme list document
	URL string `yaml:"url"`

	// Origin is recorded as the schemes' origin URL, usually the
	// project homepage rather than the raw document. Defaults to URL
	Origin string `yaml:"origin,omitempty"`

	// Suffix is appended to every scheme name from this source
	Suffix string `yaml:"suffix,omitempty"`
}

// GetOrigin returns the configured origin or the document URL
func (g *GoghConfig) GetOrigin() string {
	if g.Origin == "" {
		return g.URL
	}
	return g.Origin
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetCatalogName returns the catalog name, using "default" if not specified
func (c *Config) GetCatalogName() string {
	if c.CatalogName == "" {
		return "default"
	}
	return c.CatalogName
}

// GetCachePath returns the cache file location, defaulting to a
// well-known file under the system temp directory so repeated runs
// share their cache without any configuration
func (c *CacheConfig) GetCachePath() string {
	if c.Path == "" {
		return filepath.Join(os.TempDir(), "schemesync-cache.sqlite")
	}
	return c.Path
}

// GetDataFile returns the catalog dataset location
func (o *OutputConfig) GetDataFile() string {
	if o.DataFile == "" {
		return filepath.Join("docs", "colorschemes", "data.json")
	}
	return o.DataFile
}

// GetListingFile returns the scheme listing location
func (o *OutputConfig) GetListingFile() string {
	if o.ListingFile == "" {
		return filepath.Join("docs", "colorschemes", "listing.json")
	}
	return o.ListingFile
}

// GetStatusFile returns the sync status location
func (o *OutputConfig) GetStatusFile() string {
	if o.StatusFile == "" {
		return filepath.Join("docs", "colorschemes", "sync-status.json")
	}
	return o.StatusFile
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}

	sourceNames := make(map[string]bool)
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("source[%d]: name is required", i)
		}

		if sourceNames[src.Name] {
			return fmt.Errorf("source[%d]: duplicate source name '%s'", i, src.Name)
		}
		sourceNames[src.Name] = true

		if err := validateSourceConfig(&src, i); err != nil {
			return err
		}
	}

	return nil
}

// validateSourceConfig validates a single source configuration
func validateSourceConfig(src *SourceConfig, index int) error {
	prefix := fmt.Sprintf("source[%d] (%s)", index, src.Name)

	if err := validateSourceTypeCount(src, prefix); err != nil {
		return err
	}

	return validateSourceSpecificConfig(src, prefix)
}

// validateSourceTypeCount ensures exactly one source type is configured
func validateSourceTypeCount(src *SourceConfig, prefix string) error {
	configCount := 0
	for _, set := range []bool{
		src.TOMLRepo != nil,
		src.Base16 != nil,
		src.ITerm2 != nil,
		src.Sexy != nil,
		src.Gogh != nil,
	} {
		if set {
			configCount++
		}
	}

	if configCount == 0 {
		return fmt.Errorf("%s: one of tomlRepo, base16, iterm2, sexy, or gogh configuration must be specified", prefix)
	}
	if configCount > 1 {
		return fmt.Errorf("%s: only one of tomlRepo, base16, iterm2, sexy, or gogh configuration may be specified", prefix)
	}

	return nil
}

// validateSourceSpecificConfig validates the configuration for each source type
func validateSourceSpecificConfig(src *SourceConfig, prefix string) error {
	for key, repo := range map[string]*RepoConfig{
		"tomlRepo": src.TOMLRepo,
		"base16":   src.Base16,
		"iterm2":   src.ITerm2,
		"sexy":     src.Sexy,
	} {
		if repo == nil {
			continue
		}
		if repo.Repository == "" {
			return fmt.Errorf("%s: %s.repository is required", prefix, key)
		}
	}

	if src.Gogh != nil && src.Gogh.URL == "" {
		return fmt.Errorf("%s: gogh.url is required", prefix)
	}

	return nil
}

// GetType returns the inferred type of the source config based on which field is present
func (s *SourceConfig) GetType() string {
	switch {
	case s.TOMLRepo != nil:
		return SourceTypeTOMLRepo
	case s.Base16 != nil:
		return SourceTypeBase16
	case s.ITerm2 != nil:
		return SourceTypeITerm2
	case s.Sexy != nil:
		return SourceTypeSexy
	case s.Gogh != nil:
		return SourceTypeGogh
	}
	return ""
}
