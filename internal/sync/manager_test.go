package sync_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/smsegal/schemesync/internal/config"
	"github.com/smsegal/schemesync/internal/registry"
	"github.com/smsegal/schemesync/internal/scheme"
	"github.com/smsegal/schemesync/internal/sources"
	"github.com/smsegal/schemesync/internal/sources/mocks"
	"github.com/smsegal/schemesync/internal/status"
	"github.com/smsegal/schemesync/internal/sync"
)

func testScheme(name, foreground string) scheme.Scheme {
	s := scheme.Scheme{
		Colors: scheme.Palette{
			Foreground: scheme.Color(foreground),
			Background: "#000000",
			Ansi: []scheme.Color{
				"#000000", "#cc0000", "#4e9a06", "#c4a000",
				"#3465a4", "#75507b", "#06989a", "#d3d7cf",
			},
			Brights: []scheme.Color{
				"#555753", "#ef2929", "#8ae234", "#fce94f",
				"#729fcf", "#ad7fa8", "#34e2e2", "#eeeeec",
			},
		},
		Metadata: scheme.Metadata{
			OriginURL:      "https://example.com/source",
			WeztermVersion: scheme.NightlyVersion,
			Aliases:        []string{},
		},
	}
	s.SetName(name)
	return s
}

// testConfig points every output at a temp directory with two sources
// configured in a deliberate order
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Output: config.OutputConfig{
			DataFile:    filepath.Join(dir, "data.json"),
			ListingFile: filepath.Join(dir, "listing.json"),
			StatusFile:  filepath.Join(dir, "sync-status.json"),
		},
		Sources: []config.SourceConfig{
			{
				Name:     "first",
				TOMLRepo: &config.RepoConfig{Repository: "https://github.com/owner/first"},
			},
			{
				Name: "second",
				Gogh: &config.GoghConfig{URL: "https://example.com/themes.json"},
			},
		},
	}
}

func newManager(cfg *config.Config, factory sources.HandlerFactory) (sync.Manager, status.Persistence) {
	persistence := status.NewFilePersistence(cfg.Output.GetStatusFile())
	return sync.NewManager(cfg, factory, persistence), persistence
}

func TestRunMergesSourcesInOrder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cfg := testConfig(t)

	first := mocks.NewMockHandler(ctrl)
	first.EXPECT().Validate(gomock.Any()).Return(nil)
	first.EXPECT().FetchSchemes(gomock.Any(), gomock.Any()).Return(&sources.FetchResult{
		Schemes: []scheme.Scheme{testScheme("Aurora", "#ffffff")},
	}, nil)

	// The second source carries the same palette under another name,
	// plus a scheme of its own
	second := mocks.NewMockHandler(ctrl)
	second.EXPECT().Validate(gomock.Any()).Return(nil)
	second.EXPECT().FetchSchemes(gomock.Any(), gomock.Any()).Return(&sources.FetchResult{
		Schemes: []scheme.Scheme{
			testScheme("Aurora Again", "#ffffff"),
			testScheme("Borealis", "#aabbcc"),
		},
		Failures: []sources.ParseFailure{
			{Path: "https://example.com/themes.json#Broken", Err: errors.New("red: bad color")},
		},
	}, nil)

	factory := mocks.NewMockHandlerFactory(ctrl)
	gomock.InOrder(
		factory.EXPECT().CreateHandler(config.SourceTypeTOMLRepo).Return(first, nil),
		factory.EXPECT().CreateHandler(config.SourceTypeGogh).Return(second, nil),
	)

	mgr, persistence := newManager(cfg, factory)
	result, err := mgr.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.SchemeCount)
	assert.Equal(t, 2, result.NewCount)
	assert.True(t, result.Changed)
	assert.Contains(t, result.Changelog, "[Aurora](colorschemes/a/index.md#aurora)")
	assert.Contains(t, result.Changelog, "[Borealis](colorschemes/b/index.md#borealis)")

	data, err := os.ReadFile(cfg.Output.GetDataFile())
	require.NoError(t, err)
	var catalog []scheme.Scheme
	require.NoError(t, json.Unmarshal(data, &catalog))
	require.Len(t, catalog, 2)
	assert.Equal(t, "Aurora", catalog[0].Metadata.Name, "the first source to claim a palette owns the name")
	assert.Equal(t, []string{"Aurora Again"}, catalog[0].Metadata.Aliases)
	assert.Equal(t, "Borealis", catalog[1].Metadata.Name)

	st, err := persistence.LoadStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseComplete, st.Phase)
	assert.Equal(t, result.RunID, st.RunID)
	assert.Equal(t, 2, st.SchemeCount)
	assert.Equal(t, 2, st.NewCount)
	require.Len(t, st.Sources, 2)
	assert.Equal(t, status.SourceStatus{Name: "first", Schemes: 1, Added: 1}, st.Sources[0])
	assert.Equal(t, status.SourceStatus{
		Name:     "second",
		Schemes:  2,
		Failures: 1,
		Added:    1,
		Aliased:  1,
	}, st.Sources[1])
	require.NotNil(t, st.StartedAt)
	require.NotNil(t, st.FinishedAt)
}

func TestRunAbortsWhenSourceFetchFails(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cfg := testConfig(t)

	first := mocks.NewMockHandler(ctrl)
	first.EXPECT().Validate(gomock.Any()).Return(nil)
	first.EXPECT().FetchSchemes(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("fetching tarball: HTTP 502"))

	// The second source must never be contacted
	factory := mocks.NewMockHandlerFactory(ctrl)
	factory.EXPECT().CreateHandler(config.SourceTypeTOMLRepo).Return(first, nil)

	mgr, persistence := newManager(cfg, factory)
	_, err := mgr.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source first")
	assert.Contains(t, err.Error(), "HTTP 502")

	st, loadErr := persistence.LoadStatus(context.Background())
	require.NoError(t, loadErr)
	assert.Equal(t, status.SyncPhaseFailed, st.Phase)
	assert.Contains(t, st.Message, "HTTP 502")
	require.NotNil(t, st.FinishedAt)

	_, statErr := os.Stat(cfg.Output.GetDataFile())
	assert.True(t, os.IsNotExist(statErr), "nothing is published on a failed run")
}

func TestRunAbortsOnValidationFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cfg := testConfig(t)

	first := mocks.NewMockHandler(ctrl)
	first.EXPECT().Validate(gomock.Any()).Return(errors.New("repository cannot be empty"))

	factory := mocks.NewMockHandlerFactory(ctrl)
	factory.EXPECT().CreateHandler(config.SourceTypeTOMLRepo).Return(first, nil)

	mgr, persistence := newManager(cfg, factory)
	_, err := mgr.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	st, loadErr := persistence.LoadStatus(context.Background())
	require.NoError(t, loadErr)
	assert.Equal(t, status.SyncPhaseFailed, st.Phase)
}

func TestRunAbortsOnUnknownSourceType(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cfg := testConfig(t)

	factory := mocks.NewMockHandlerFactory(ctrl)
	factory.EXPECT().CreateHandler(config.SourceTypeTOMLRepo).
		Return(nil, errors.New("unsupported source type: tomlRepo"))

	mgr, _ := newManager(cfg, factory)
	_, err := mgr.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported source type")
}

func TestRunKeepsExistingCatalog(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cfg := testConfig(t)
	cfg.Sources = cfg.Sources[:1]

	// Seed the published catalog with a released scheme
	released := testScheme("Veteran", "#123456")
	released.Metadata.WeztermVersion = "20220624-141144-bd1b7c5d"
	seed, err := json.MarshalIndent([]scheme.Scheme{released}, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.Output.GetDataFile(), seed, 0o644))

	// The run re-feeds the same palette under the same name plus one
	// genuinely new scheme
	first := mocks.NewMockHandler(ctrl)
	first.EXPECT().Validate(gomock.Any()).Return(nil)
	first.EXPECT().FetchSchemes(gomock.Any(), gomock.Any()).Return(&sources.FetchResult{
		Schemes: []scheme.Scheme{
			testScheme("Veteran", "#123456"),
			testScheme("Rookie", "#654321"),
		},
	}, nil)

	factory := mocks.NewMockHandlerFactory(ctrl)
	factory.EXPECT().CreateHandler(config.SourceTypeTOMLRepo).Return(first, nil)

	mgr, _ := newManager(cfg, factory)
	result, err := mgr.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.SchemeCount)
	assert.Equal(t, 1, result.NewCount, "only the rookie is new")
	assert.Contains(t, result.Changelog, "Rookie")
	assert.NotContains(t, result.Changelog, "Veteran")

	data, err := os.ReadFile(cfg.Output.GetDataFile())
	require.NoError(t, err)
	var catalog []scheme.Scheme
	require.NoError(t, json.Unmarshal(data, &catalog))
	require.Len(t, catalog, 2)
	assert.Equal(t, "20220624-141144-bd1b7c5d", catalog[1].Metadata.WeztermVersion,
		"re-seen palettes keep their release version")

	// A second identical run publishes nothing new
	second := mocks.NewMockHandler(ctrl)
	second.EXPECT().Validate(gomock.Any()).Return(nil)
	second.EXPECT().FetchSchemes(gomock.Any(), gomock.Any()).Return(&sources.FetchResult{
		Schemes: []scheme.Scheme{
			testScheme("Veteran", "#123456"),
			testScheme("Rookie", "#654321"),
		},
	}, nil)
	factory.EXPECT().CreateHandler(config.SourceTypeTOMLRepo).Return(second, nil)

	mgr2, _ := newManager(cfg, factory)
	result2, err := mgr2.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, result2.Changed, "warm runs leave the outputs untouched")
}

func TestRunRejectsCorruptCatalog(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.Output.GetDataFile(), []byte("{corrupt"), 0o644))

	factory := mocks.NewMockHandlerFactory(ctrl)

	mgr, persistence := newManager(cfg, factory)
	_, err := mgr.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading existing catalog")

	st, loadErr := persistence.LoadStatus(context.Background())
	require.NoError(t, loadErr)
	assert.Equal(t, status.SyncPhaseFailed, st.Phase)
}

func TestNightlySelection(t *testing.T) {
	t.Parallel()

	released := testScheme("Old", "#111111")
	released.Metadata.WeztermVersion = "20210502-130208-bff6815d"
	fresh := registry.Nightly([]scheme.Scheme{
		testScheme("New", "#222222"),
		released,
	})
	require.Len(t, fresh, 1)
	assert.Equal(t, "New", fresh[0].Name)
}
