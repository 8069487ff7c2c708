package integration

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smsegal/schemesync/internal/status"
	"github.com/smsegal/schemesync/test-integration/schemesync/helpers"
)

var _ = Describe("Full Catalog Sync", Label("sync"), func() {
	var (
		tempDir string
		origin  *helpers.OriginServer
	)

	BeforeEach(func() {
		tempDir = createTempDir("sync-test-")
		origin = helpers.NewOriginServer()
	})

	AfterEach(func() {
		origin.Close()
		cleanupTempDir(tempDir)
	})

	Context("aggregating heterogeneous sources", func() {
		It("should merge every source into one deduplicated catalog", func() {
			origin.RegisterTarball("/acme/palettes", "main", map[string]string{
				"palettes-main/colors/aurora.toml": helpers.SchemeTOML("Aurora", "Acme Themes", "#e63946"),
				"palettes-main/colors/boreal.toml": helpers.SchemeTOML("", "Acme Themes", "#06d6a0"),
				"palettes-main/README.md":          "collection notes, not a scheme",
			}, "")
			origin.RegisterDocument("/data/themes.json", helpers.GoghDocument(
				helpers.GoghTheme{Name: "Citrus", Accent: "#f4a261"},
			), "")

			configFile := helpers.WriteConfigYAML(tempDir, "itest", []helpers.SourceSpec{
				{Name: "acme", Type: "tomlRepo", Repository: origin.RepoURL("/acme/palettes"), Branch: "main"},
				{Name: "gogh", Type: "gogh", URL: origin.DocumentURL("/data/themes.json"), Suffix: " (Gogh)"},
			})

			result, err := helpers.RunSync(ctx, configFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.RunID).NotTo(BeEmpty())
			Expect(result.SchemeCount).To(Equal(3))
			Expect(result.NewCount).To(Equal(3))
			Expect(result.Changed).To(BeTrue())

			// Sorted by name, with the nameless document falling back to
			// its file stem and the gogh suffix applied
			catalog := helpers.LoadCatalog(filepath.Join(tempDir, "data.json"))
			Expect(catalog).To(HaveLen(3))
			Expect(catalog[0].Metadata.Name).To(Equal("Aurora"))
			Expect(catalog[1].Metadata.Name).To(Equal("boreal"))
			Expect(catalog[2].Metadata.Name).To(Equal("Citrus (Gogh)"))

			Expect(catalog[0].Metadata.Author).To(Equal("Acme Themes"))
			Expect(catalog[0].Metadata.OriginURL).To(Equal(origin.RepoURL("/acme/palettes")))
			Expect(catalog[2].Metadata.OriginURL).To(Equal(origin.DocumentURL("/data/themes.json")))

			Expect(result.Changelog).To(HavePrefix("* Color schemes: "))
			Expect(result.Changelog).To(ContainSubstring("[Aurora](colorschemes/a/index.md#aurora)"))
			Expect(result.Changelog).To(ContainSubstring("[Citrus (Gogh)](colorschemes/c/index.md#citrus-gogh)"))

			st := helpers.LoadStatus(ctx, filepath.Join(tempDir, "sync-status.json"))
			Expect(st.Phase).To(Equal(status.SyncPhaseComplete))
			Expect(st.RunID).To(Equal(result.RunID))
			Expect(st.Sources).To(HaveLen(2))
			Expect(st.Sources[0].Name).To(Equal("acme"))
			Expect(st.Sources[0].Added).To(Equal(2))
			Expect(st.Sources[1].Name).To(Equal("gogh"))
			Expect(st.Sources[1].Added).To(Equal(1))
		})

		It("should record aliases when a later source republishes a palette", func() {
			origin.RegisterTarball("/acme/palettes", "main", map[string]string{
				"palettes-main/aurora.toml": helpers.SchemeTOML("Aurora", "Acme Themes", "#e63946"),
			}, "")
			origin.RegisterTarball("/mirror/palettes", "main", map[string]string{
				"mirror-main/northern.toml": helpers.SchemeTOML("Northern Lights", "Mirror", "#e63946"),
				"mirror-main/zephyr.toml":   helpers.SchemeTOML("Zephyr", "Mirror", "#118ab2"),
			}, "")

			configFile := helpers.WriteConfigYAML(tempDir, "itest", []helpers.SourceSpec{
				{Name: "acme", Type: "tomlRepo", Repository: origin.RepoURL("/acme/palettes"), Branch: "main"},
				{Name: "mirror", Type: "tomlRepo", Repository: origin.RepoURL("/mirror/palettes"), Branch: "main"},
			})

			result, err := helpers.RunSync(ctx, configFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.SchemeCount).To(Equal(2))

			catalog := helpers.LoadCatalog(filepath.Join(tempDir, "data.json"))
			Expect(catalog).To(HaveLen(2))
			Expect(catalog[0].Metadata.Name).To(Equal("Aurora"))
			Expect(catalog[0].Metadata.Aliases).To(Equal([]string{"Northern Lights"}))
			Expect(catalog[1].Metadata.Name).To(Equal("Zephyr"))

			// The aliased spelling never becomes a scheme of its own
			Expect(result.Changelog).NotTo(ContainSubstring("Northern Lights"))

			st := helpers.LoadStatus(ctx, filepath.Join(tempDir, "sync-status.json"))
			Expect(st.Sources[1].Added).To(Equal(1))
			Expect(st.Sources[1].Aliased).To(Equal(1))
		})

		It("should fail the run and mark the status when a source is missing", func() {
			configFile := helpers.WriteConfigYAML(tempDir, "itest", []helpers.SourceSpec{
				{Name: "ghost", Type: "tomlRepo", Repository: origin.RepoURL("/no/such/repo"), Branch: "main"},
			})

			_, err := helpers.RunSync(ctx, configFile)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("source ghost"))

			st := helpers.LoadStatus(ctx, filepath.Join(tempDir, "sync-status.json"))
			Expect(st.Phase).To(Equal(status.SyncPhaseFailed))
			Expect(st.Message).NotTo(BeEmpty())

			// Nothing is published on a failed run
			_, statErr := os.Stat(filepath.Join(tempDir, "data.json"))
			Expect(os.IsNotExist(statErr)).To(BeTrue())
		})
	})
})
