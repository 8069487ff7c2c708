package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smsegal/schemesync/internal/cache"
	"github.com/smsegal/schemesync/internal/config"
	"github.com/smsegal/schemesync/internal/fetch"
	"github.com/smsegal/schemesync/internal/sources"
	"github.com/smsegal/schemesync/internal/status"
	"github.com/smsegal/schemesync/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch all configured sources and rebuild the catalog",
	Long: `Fetch every configured scheme collection, merge the results into the
published catalog, and rewrite the output files that changed.

The command requires a configuration file (--config) that specifies:
- The scheme sources to aggregate, in merge order
- The output locations for the catalog, listing and status files
- The HTTP response cache location

See examples/ directory for sample configurations.

Sources are merged strictly in configuration order; the first source to
publish a palette owns the scheme's name, and later copies are recorded
as aliases. New schemes are summarized on stdout in changelog form.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	syncCmd.Flags().String("data-file", "", "Override the catalog data file location")
	syncCmd.Flags().String("cache", "", "Override the HTTP cache location")

	err := viper.BindPFlag("config", syncCmd.Flags().Lookup("config"))
	if err != nil {
		slog.Error("Error binding config flag", "error", err)
	}
	err = viper.BindPFlag("data-file", syncCmd.Flags().Lookup("data-file"))
	if err != nil {
		slog.Error("Error binding data-file flag", "error", err)
	}
	err = viper.BindPFlag("cache", syncCmd.Flags().Lookup("cache"))
	if err != nil {
		slog.Error("Error binding cache flag", "error", err)
	}

	if err := syncCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Error marking config flag as required", "error", err)
	}
}

func runSync(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if dataFile := viper.GetString("data-file"); dataFile != "" {
		cfg.Output.DataFile = dataFile
	}
	if cachePath := viper.GetString("cache"); cachePath != "" {
		cfg.Cache.Path = cachePath
	}

	slog.Info("loaded configuration",
		"path", configPath,
		"catalog", cfg.GetCatalogName(),
		"sources", len(cfg.Sources))

	store, err := cache.Open(cfg.Cache.GetCachePath())
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close cache", "error", err)
		}
	}()

	fetcher := fetch.New(store)
	factory := sources.NewHandlerFactory(fetcher)
	persistence := status.NewFilePersistence(cfg.Output.GetStatusFile())

	manager := sync.NewManager(cfg, factory, persistence)
	result, err := manager.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	slog.Info("sync complete",
		"run_id", result.RunID,
		"schemes", result.SchemeCount,
		"new", result.NewCount,
		"changed", result.Changed)

	// The changelog goes to stdout so release tooling can capture it.
	if result.Changelog != "" {
		fmt.Println(result.Changelog)
	}
	return nil
}
