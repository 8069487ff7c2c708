package integration

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/smsegal/schemesync/internal/status"
	"github.com/smsegal/schemesync/test-integration/schemesync/helpers"
)

var _ = Describe("Fetch Caching", Label("caching"), func() {
	var (
		tempDir string
		origin  *helpers.OriginServer
	)

	BeforeEach(func() {
		tempDir = createTempDir("caching-test-")
		origin = helpers.NewOriginServer()
	})

	AfterEach(func() {
		origin.Close()
		cleanupTempDir(tempDir)
	})

	It("should serve repeated syncs from the persistent cache", func() {
		// No Cache-Control header, so the default lifetime applies
		origin.RegisterTarball("/acme/palettes", "main", map[string]string{
			"palettes-main/aurora.toml": helpers.SchemeTOML("Aurora", "Acme Themes", "#e63946"),
			"palettes-main/zephyr.toml": helpers.SchemeTOML("Zephyr", "Acme Themes", "#118ab2"),
		}, "")

		configFile := helpers.WriteConfigYAML(tempDir, "itest", []helpers.SourceSpec{
			{Name: "acme", Type: "tomlRepo", Repository: origin.RepoURL("/acme/palettes"), Branch: "main"},
		})

		first, err := helpers.RunSync(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Changed).To(BeTrue())
		Expect(origin.TarballHits("/acme/palettes", "main")).To(Equal(1))

		second, err := helpers.RunSync(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Changed).To(BeFalse(), "a warm run rewrites nothing")
		Expect(origin.TarballHits("/acme/palettes", "main")).To(Equal(1),
			"the snapshot is served from the cache within its lifetime")

		st := helpers.LoadStatus(ctx, filepath.Join(tempDir, "sync-status.json"))
		Expect(st.Phase).To(Equal(status.SyncPhaseComplete))
		Expect(st.RunID).To(Equal(second.RunID))
	})

	It("should refetch documents once their advertised lifetime expires", func() {
		origin.RegisterTarball("/acme/palettes", "main", map[string]string{
			"palettes-main/aurora.toml": helpers.SchemeTOML("Aurora", "Acme Themes", "#e63946"),
		}, "max-age=0")

		configFile := helpers.WriteConfigYAML(tempDir, "itest", []helpers.SourceSpec{
			{Name: "acme", Type: "tomlRepo", Repository: origin.RepoURL("/acme/palettes"), Branch: "main"},
		})

		_, err := helpers.RunSync(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())
		_, err = helpers.RunSync(ctx, configFile)
		Expect(err).NotTo(HaveOccurred())

		Expect(origin.TarballHits("/acme/palettes", "main")).To(Equal(2),
			"an expired entry goes back to the network")
	})
})
