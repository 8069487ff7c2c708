package status

import (
	"time"

	"github.com/smsegal/schemesync/internal/registry"
	"github.com/smsegal/schemesync/internal/sources"
)

// SyncPhase represents the current phase of a synchronization run
type SyncPhase string

const (
	// SyncPhaseSyncing means sync is currently in progress
	SyncPhaseSyncing SyncPhase = "Syncing"

	// SyncPhaseComplete means sync completed successfully
	SyncPhaseComplete SyncPhase = "Complete"

	// SyncPhaseFailed means sync failed
	SyncPhaseFailed SyncPhase = "Failed"
)

// SourceStatus records the outcome of one source within a run
type SourceStatus struct {
	// Name is the source's configured identifier
	Name string `json:"name"`

	// Schemes is the number of candidates the source produced
	Schemes int `json:"schemes"`

	// Failures is the number of documents that could not be parsed
	Failures int `json:"failures,omitempty"`

	// Added, Updated and Aliased count what the candidates did to the
	// catalog
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Aliased int `json:"aliased"`
}

// SyncStatus represents the state of the most recent sync run
type SyncStatus struct {
	// RunID uniquely identifies the run that produced this status
	RunID string `json:"runId,omitempty"`

	// Phase represents the current synchronization phase
	Phase SyncPhase `json:"phase"`

	// Message provides additional information about the sync status
	Message string `json:"message,omitempty"`

	// StartedAt is the timestamp the run began
	StartedAt *time.Time `json:"startedAt,omitempty"`

	// FinishedAt is the timestamp the run ended, in either phase
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	// SchemeCount is the total number of schemes in the catalog
	SchemeCount int `json:"schemeCount,omitempty"`

	// NewCount is the number of schemes not yet in any release
	NewCount int `json:"newCount,omitempty"`

	// Sources holds per-source outcomes in configuration order
	Sources []SourceStatus `json:"sources,omitempty"`
}

// RecordSource appends the outcome of one synced source
func (s *SyncStatus) RecordSource(name string, result *sources.FetchResult, tally registry.Tally) {
	s.Sources = append(s.Sources, SourceStatus{
		Name:     name,
		Schemes:  len(result.Schemes),
		Failures: len(result.Failures),
		Added:    tally.Added,
		Updated:  tally.Updated,
		Aliased:  tally.Aliased,
	})
}
