// Package sync orchestrates a complete catalog synchronization run:
// load the published catalog, merge every configured source into it in
// order, publish the updated outputs, and record the run's status.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smsegal/schemesync/internal/config"
	"github.com/smsegal/schemesync/internal/registry"
	"github.com/smsegal/schemesync/internal/sources"
	"github.com/smsegal/schemesync/internal/status"
	"github.com/smsegal/schemesync/internal/storage"
)

// Result contains the result of a successful sync run
type Result struct {
	// RunID identifies the run
	RunID string

	// SchemeCount is the total number of schemes in the catalog
	SchemeCount int

	// NewCount is the number of schemes not yet in any release
	NewCount int

	// Changed reports whether any output file was rewritten
	Changed bool

	// Changelog is the release note summary for new schemes, empty
	// when there are none
	Changelog string
}

// Manager runs catalog synchronization
type Manager interface {
	// Run executes the complete sync operation
	Run(ctx context.Context) (*Result, error)
}

// defaultManager is the default implementation of Manager
type defaultManager struct {
	cfg            *config.Config
	handlerFactory sources.HandlerFactory
	persistence    status.Persistence
	now            func() time.Time
}

var _ Manager = (*defaultManager)(nil)

// NewManager creates a sync manager for the given configuration
func NewManager(cfg *config.Config, factory sources.HandlerFactory, persistence status.Persistence) Manager {
	return &defaultManager{
		cfg:            cfg,
		handlerFactory: factory,
		persistence:    persistence,
		now:            time.Now,
	}
}

// Run executes the complete sync operation. Sources are merged in
// configuration order, so the first source to claim a palette decides
// which spelling owns the name. A source that cannot be fetched aborts
// the run; nothing is published and the failure is recorded in the
// status file
func (m *defaultManager) Run(ctx context.Context) (*Result, error) {
	started := m.now().UTC()
	st := &status.SyncStatus{
		RunID:     uuid.NewString(),
		Phase:     status.SyncPhaseSyncing,
		StartedAt: &started,
	}
	if err := m.persistence.SaveStatus(ctx, st); err != nil {
		return nil, fmt.Errorf("recording run start: %w", err)
	}

	set, err := registry.Load(m.cfg.Output.GetDataFile())
	if err != nil {
		return nil, m.fail(ctx, st, fmt.Errorf("loading existing catalog: %w", err))
	}
	slog.Info("loaded existing catalog", "path", m.cfg.Output.GetDataFile(), "schemes", set.Len())

	for i := range m.cfg.Sources {
		src := &m.cfg.Sources[i]
		if err := m.syncSource(ctx, st, set, src); err != nil {
			return nil, m.fail(ctx, st, err)
		}
	}

	result, err := m.publish(st, set)
	if err != nil {
		return nil, m.fail(ctx, st, err)
	}

	finished := m.now().UTC()
	st.Phase = status.SyncPhaseComplete
	st.FinishedAt = &finished
	st.Message = fmt.Sprintf("synced %d sources", len(m.cfg.Sources))
	if err := m.persistence.SaveStatus(ctx, st); err != nil {
		return nil, fmt.Errorf("recording run completion: %w", err)
	}

	result.RunID = st.RunID
	return result, nil
}

// syncSource fetches one source and merges its candidates into the set
func (m *defaultManager) syncSource(
	ctx context.Context,
	st *status.SyncStatus,
	set *registry.SchemeSet,
	src *config.SourceConfig,
) error {
	handler, err := m.handlerFactory.CreateHandler(src.GetType())
	if err != nil {
		return fmt.Errorf("source %s: %w", src.Name, err)
	}

	if err := handler.Validate(src); err != nil {
		return fmt.Errorf("source %s: validation failed: %w", src.Name, err)
	}

	slog.Info("syncing source", "source", src.Name, "type", src.GetType())
	result, err := handler.FetchSchemes(ctx, src)
	if err != nil {
		return fmt.Errorf("source %s: %w", src.Name, err)
	}

	for _, failure := range result.Failures {
		slog.Error("failed to parse scheme document",
			"source", src.Name,
			"path", failure.Path,
			"error", failure.Err)
	}

	tally, err := set.Accumulate(result.Schemes)
	if err != nil {
		return fmt.Errorf("source %s: merging candidates: %w", src.Name, err)
	}

	st.RecordSource(src.Name, result, tally)
	slog.Info("source synced",
		"source", src.Name,
		"schemes", len(result.Schemes),
		"failures", len(result.Failures),
		"added", tally.Added,
		"updated", tally.Updated,
		"aliased", tally.Aliased)

	return nil
}

// publish finalizes the merged set and writes the catalog outputs
func (m *defaultManager) publish(st *status.SyncStatus, set *registry.SchemeSet) (*Result, error) {
	schemes := set.Finalize()

	dataChanged, err := storage.WriteDataFile(m.cfg.Output.GetDataFile(), schemes)
	if err != nil {
		return nil, fmt.Errorf("publishing catalog: %w", err)
	}

	listingChanged, err := storage.WriteListing(m.cfg.Output.GetListingFile(), schemes)
	if err != nil {
		return nil, fmt.Errorf("publishing listing: %w", err)
	}

	fresh := registry.Nightly(schemes)
	st.SchemeCount = len(schemes)
	st.NewCount = len(fresh)

	return &Result{
		SchemeCount: len(schemes),
		NewCount:    len(fresh),
		Changed:     dataChanged || listingChanged,
		Changelog:   storage.ChangelogSummary(schemes),
	}, nil
}

// fail records the failure in the status file and returns the original
// error. A status write failure is logged rather than masking the
// cause
func (m *defaultManager) fail(ctx context.Context, st *status.SyncStatus, err error) error {
	finished := m.now().UTC()
	st.Phase = status.SyncPhaseFailed
	st.FinishedAt = &finished
	st.Message = err.Error()
	if saveErr := m.persistence.SaveStatus(ctx, st); saveErr != nil {
		slog.Error("failed to record run failure", "error", saveErr)
	}
	return err
}
