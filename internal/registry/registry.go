// Package registry implements the merge engine that reconciles scheme
// candidates from every source into one canonical, deduplicated
// catalog. Identity is the palette: the first scheme to claim a
// palette owns its name and every later arrival with the same colors
// becomes an alias, no matter which source or spelling it came from.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	"github.com/smsegal/schemesync/internal/scheme"
)

// Outcome describes how Add reconciled a candidate.
type Outcome string

const (
	// OutcomeAdded means the candidate was new and inserted as is.
	OutcomeAdded Outcome = "added"

	// OutcomeUpdated means the candidate superseded an entry with the
	// same name but different colors.
	OutcomeUpdated Outcome = "updated"

	// OutcomeAliased means the candidate's palette already had an
	// owner and only an alias was recorded.
	OutcomeAliased Outcome = "aliased"
)

// Tally counts merge outcomes for one batch of candidates.
type Tally struct {
	Added   int
	Updated int
	Aliased int
}

// SchemeSet is the mutable merge state for one sync run. It is not
// safe for concurrent use: candidates must be merged one at a time, in
// source order, so alias resolution stays deterministic.
type SchemeSet struct {
	byName map[string]*scheme.Scheme

	// paletteOwner maps a canonical palette key to the name that owns
	// it, giving exact-match lookups without scanning. It is kept in
	// lockstep with byName.
	paletteOwner map[string]string

	// Version indexes built from the previous dataset. Read only
	// after load: a palette or name that ever shipped in a release
	// keeps mapping to that release forever.
	versionByPalette map[string]string
	versionByName    map[string]string
}

// New returns an empty scheme set.
func New() *SchemeSet {
	return &SchemeSet{
		byName:           make(map[string]*scheme.Scheme),
		paletteOwner:     make(map[string]string),
		versionByPalette: make(map[string]string),
		versionByName:    make(map[string]string),
	}
}

// Load builds a SchemeSet from the previously published dataset. A
// missing file is a first run and yields an empty set; a file that
// exists but does not parse is corruption and aborts the run.
//
// Placeholder entries that carry a version but no palette stay out of
// the merge state, but their versions are indexed so retired names
// keep resolving to the release that introduced them.
func Load(path string) (*SchemeSet, error) {
	set := New()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading existing catalog: %w", err)
	}

	var entries []scheme.Scheme
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing existing catalog %s: %w", path, err)
	}

	for i := range entries {
		entry := &entries[i]
		version := entry.Metadata.WeztermVersion
		if version == "" {
			continue
		}
		key, err := entry.Colors.Key()
		if err != nil {
			return nil, err
		}
		set.versionByPalette[key] = version
		set.versionByName[entry.Metadata.Name] = version
		for _, alias := range entry.Metadata.Aliases {
			if _, ok := set.versionByName[alias]; !ok {
				set.versionByName[alias] = version
			}
		}
	}

	for i := range entries {
		entry := entries[i]
		if len(entry.Colors.Ansi) == 0 {
			continue
		}
		if entry.Metadata.Name == "" {
			return nil, fmt.Errorf("existing catalog %s: palette entry without a name", path)
		}
		entry.Name = entry.Metadata.Name

		key, err := entry.Colors.Key()
		if err != nil {
			return nil, err
		}
		if _, taken := set.paletteOwner[key]; !taken {
			set.paletteOwner[key] = entry.Name
		}
		set.byName[entry.Name] = &entry
	}

	return set, nil
}

// Len reports the number of named entries in the set.
func (s *SchemeSet) Len() int {
	return len(s.byName)
}

// Add reconciles one candidate into the set.
//
// A candidate whose palette already has an owner is recorded as an
// alias of that owner and changes nothing else, so re-running a sync
// never duplicates entries. Otherwise the candidate's release version
// is resolved from the previous dataset (by palette, then by name,
// then by its aliases). A candidate whose name is already taken by a
// different palette supersedes that entry but inherits its alias
// history.
func (s *SchemeSet) Add(candidate scheme.Scheme) (Outcome, error) {
	key, err := candidate.Colors.Key()
	if err != nil {
		return "", err
	}

	if owner, ok := s.paletteOwner[key]; ok {
		existing := s.byName[owner]
		slog.Debug("adding scheme as alias", "scheme", candidate.Name, "alias_of", existing.Name)
		existing.Metadata.Aliases = append(existing.Metadata.Aliases, candidate.Name)
		return OutcomeAliased, nil
	}

	if version, ok := s.lookupVersion(key, &candidate); ok {
		candidate.Metadata.WeztermVersion = version
	}

	outcome := OutcomeAdded
	if existing, ok := s.byName[candidate.Name]; ok {
		oldKey, err := existing.Colors.Key()
		if err != nil {
			return "", err
		}
		if s.paletteOwner[oldKey] == candidate.Name {
			delete(s.paletteOwner, oldKey)
		}
		candidate.Metadata.Aliases = existing.Metadata.Aliases
		slog.Info("updating scheme", "scheme", candidate.Name)
		outcome = OutcomeUpdated
	} else {
		slog.Info("adding scheme", "scheme", candidate.Name)
	}

	s.byName[candidate.Name] = &candidate
	s.paletteOwner[key] = candidate.Name
	return outcome, nil
}

func (s *SchemeSet) lookupVersion(paletteKey string, candidate *scheme.Scheme) (string, bool) {
	if v, ok := s.versionByPalette[paletteKey]; ok {
		return v, true
	}
	if v, ok := s.versionByName[candidate.Name]; ok {
		return v, true
	}
	for _, alias := range candidate.Metadata.Aliases {
		if v, ok := s.versionByName[alias]; ok {
			return v, true
		}
	}
	return "", false
}

// Accumulate merges candidates in order. Order matters: within a
// batch the first scheme to claim a palette owns its name.
func (s *SchemeSet) Accumulate(candidates []scheme.Scheme) (Tally, error) {
	var tally Tally
	for _, candidate := range candidates {
		outcome, err := s.Add(candidate)
		if err != nil {
			return tally, err
		}
		switch outcome {
		case OutcomeAdded:
			tally.Added++
		case OutcomeUpdated:
			tally.Updated++
		case OutcomeAliased:
			tally.Aliased++
		}
	}
	return tally, nil
}

// Finalize produces the publishable catalog: alias lists are sorted,
// deduplicated and stripped of self references, and entries are
// ordered the way the published listing presents them. The set is not
// mutated.
func (s *SchemeSet) Finalize() []scheme.Scheme {
	all := make([]scheme.Scheme, 0, len(s.byName))
	for _, entry := range s.byName {
		out := *entry

		aliases := append([]string{}, entry.Metadata.Aliases...)
		slices.Sort(aliases)
		aliases = slices.Compact(aliases)
		aliases = slices.DeleteFunc(aliases, func(alias string) bool {
			return alias == out.Name
		})
		out.Metadata.Aliases = aliases

		all = append(all, out)
	}
	scheme.Sort(all)
	return all
}

// Nightly selects the schemes introduced by this run: those whose
// version still carries the unreleased sentinel after finalization.
func Nightly(schemes []scheme.Scheme) []scheme.Scheme {
	var fresh []scheme.Scheme
	for _, s := range schemes {
		if s.Metadata.WeztermVersion == scheme.NightlyVersion {
			fresh = append(fresh, s)
		}
	}
	return fresh
}
