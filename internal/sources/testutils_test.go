package sources_test

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned documents and records the URLs requested
type fakeFetcher struct {
	responses map[string][]byte
	requests  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.requests = append(f.requests, url)
	data, found := f.responses[url]
	if !found {
		return nil, fmt.Errorf("no canned response for %s", url)
	}
	return data, nil
}

type archiveEntry struct {
	path string
	data string
}

// buildTarball assembles a gzip compressed tar stream the way
// repository snapshot downloads arrive
func buildTarball(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, e := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: e.path,
			Mode: 0o644,
			Size: int64(len(e.data)),
		}))
		_, err := tw.Write([]byte(e.data))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}
