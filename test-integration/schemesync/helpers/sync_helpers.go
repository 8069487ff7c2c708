package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/onsi/gomega"

	"github.com/smsegal/schemesync/internal/cache"
	"github.com/smsegal/schemesync/internal/config"
	"github.com/smsegal/schemesync/internal/fetch"
	"github.com/smsegal/schemesync/internal/scheme"
	"github.com/smsegal/schemesync/internal/sources"
	"github.com/smsegal/schemesync/internal/status"
	"github.com/smsegal/schemesync/internal/sync"
)

// SourceSpec describes one source entry of a generated config file.
// Repository feeds the tarball source types; URL feeds gogh.
type SourceSpec struct {
	Name       string
	Type       string
	Repository string
	URL        string
	Branch     string
	Suffix     string
}

// WriteConfigYAML writes a sync configuration to dir, routing the
// cache and every output file under dir, and returns the config path.
func WriteConfigYAML(dir, catalogName string, specs []SourceSpec) string {
	configContent := fmt.Sprintf(`catalogName: %s

cache:
  path: %s

output:
  dataFile: %s
  listingFile: %s
  statusFile: %s

sources:
`, catalogName,
		filepath.Join(dir, "cache.sqlite"),
		filepath.Join(dir, "data.json"),
		filepath.Join(dir, "listing.json"),
		filepath.Join(dir, "sync-status.json"))

	for _, spec := range specs {
		configContent += fmt.Sprintf("  - name: %s\n", spec.Name)
		if spec.Type == "gogh" {
			configContent += fmt.Sprintf("    gogh:\n      url: %s\n", spec.URL)
		} else {
			configContent += fmt.Sprintf("    %s:\n      repository: %s\n", spec.Type, spec.Repository)
			if spec.Branch != "" {
				configContent += fmt.Sprintf("      branch: %s\n", spec.Branch)
			}
		}
		if spec.Suffix != "" {
			configContent += fmt.Sprintf("      suffix: %q\n", spec.Suffix)
		}
	}

	configFile := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(configFile, []byte(configContent), 0600)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return configFile
}

// RunSync executes one complete catalog sync, wired the way the CLI
// wires it: config file, sqlite backed fetch cache, handler factory,
// file persisted status.
func RunSync(ctx context.Context, configPath string) (*sync.Result, error) {
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, err
	}

	store, err := cache.Open(cfg.Cache.GetCachePath())
	if err != nil {
		return nil, err
	}
	defer func() {
		gomega.Expect(store.Close()).To(gomega.Succeed())
	}()

	fetcher := fetch.New(store)
	factory := sources.NewHandlerFactory(fetcher)
	persistence := status.NewFilePersistence(cfg.Output.GetStatusFile())

	return sync.NewManager(cfg, factory, persistence).Run(ctx)
}

// LoadCatalog decodes the published data file.
func LoadCatalog(path string) []scheme.Scheme {
	data, err := os.ReadFile(path)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	var schemes []scheme.Scheme
	gomega.Expect(json.Unmarshal(data, &schemes)).To(gomega.Succeed())
	return schemes
}

// LoadStatus reads back the persisted run status.
func LoadStatus(ctx context.Context, path string) *status.SyncStatus {
	st, err := status.NewFilePersistence(path).LoadStatus(ctx)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return st
}
