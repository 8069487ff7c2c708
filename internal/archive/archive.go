// Package archive walks gzip-compressed tarballs in memory. Source
// repositories arrive as single tarball downloads, so this is the only
// archive shape the sync needs.
package archive

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// ErrStopWalk stops a walk early without reporting an error.
var ErrStopWalk = errors.New("stop archive walk")

// WalkFunc receives one regular file per call: its path within the
// archive and its contents.
type WalkFunc func(path string, data []byte) error

// Walk decodes a tar.gz archive and calls fn for every regular file in
// archive order. Entries are decoded one at a time, so only the
// current file is held uncompressed.
func Walk(data []byte, fn WalkFunc) error {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decompressing archive: %w", err)
	}
	defer func() {
		_ = gz.Close()
	}()

	reader := tar.NewReader(gz)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		contents, err := io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("reading archive entry %s: %w", header.Name, err)
		}
		if err := fn(header.Name, contents); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}
	}
}
