package helpers

import (
	"archive/tar"
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/onsi/gomega"
)

// OriginServer stands in for the hosting providers schemes are synced
// from. Payloads are registered per URL path, and every request is
// counted so tests can observe whether a fetch hit the network or was
// served from the cache.
type OriginServer struct {
	server *httptest.Server

	mu           sync.Mutex
	bodies       map[string][]byte
	cacheControl map[string]string
	hits         map[string]int
}

// NewOriginServer starts an origin serving nothing. Payloads are added
// with the Register methods.
func NewOriginServer() *OriginServer {
	o := &OriginServer{
		bodies:       make(map[string][]byte),
		cacheControl: make(map[string]string),
		hits:         make(map[string]int),
	}
	o.server = httptest.NewServer(http.HandlerFunc(o.handle))
	return o
}

func (o *OriginServer) handle(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.hits[r.URL.Path]++

	body, ok := o.bodies[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if cc := o.cacheControl[r.URL.Path]; cc != "" {
		w.Header().Set("Cache-Control", cc)
	}
	_, _ = w.Write(body)
}

// RegisterDocument serves body at path. A non-empty cacheControl is
// sent as the Cache-Control header; empty omits the header so fetches
// fall back to their default lifetime.
func (o *OriginServer) RegisterDocument(path string, body []byte, cacheControl string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bodies[path] = body
	o.cacheControl[path] = cacheControl
}

// RegisterTarball serves a gzipped tarball snapshot of the repository
// at repoPath, published at the URL layout hosting providers use. Map
// keys are archive member paths, values are file contents.
func (o *OriginServer) RegisterTarball(repoPath, branch string, files map[string]string, cacheControl string) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range files {
		err := tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		_, err = tw.Write([]byte(content))
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	}

	gomega.Expect(tw.Close()).To(gomega.Succeed())
	gomega.Expect(gz.Close()).To(gomega.Succeed())

	o.RegisterDocument(repoPath+"/tarball/"+branch, buf.Bytes(), cacheControl)
}

// RepoURL returns the absolute repository URL for repoPath.
func (o *OriginServer) RepoURL(repoPath string) string {
	return o.server.URL + repoPath
}

// DocumentURL returns the absolute URL for a registered document path.
func (o *OriginServer) DocumentURL(path string) string {
	return o.server.URL + path
}

// Hits reports how many requests path has served.
func (o *OriginServer) Hits(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits[path]
}

// TarballHits reports how many times the repository snapshot at
// repoPath was requested.
func (o *OriginServer) TarballHits(repoPath, branch string) int {
	return o.Hits(repoPath + "/tarball/" + branch)
}

// Close shuts the origin down.
func (o *OriginServer) Close() {
	o.server.Close()
}
