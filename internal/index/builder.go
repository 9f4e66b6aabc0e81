// Package index builds the newest-version table from a package index
// archive and answers dependency-compatibility queries over it. A Newest
// table is built once per load and never mutated afterwards; every query
// is a pure read, safe to run concurrently against the same snapshot.
package index

import (
	"archive/tar"
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"

	"github.com/soenkehahn/packdeps/internal/cabal"
	"github.com/soenkehahn/packdeps/internal/models"
	"github.com/soenkehahn/packdeps/internal/platform"
	"github.com/soenkehahn/packdeps/internal/version"
)

// Magic bytes for compression detection
var (
	gzipMagic = []byte{0x1F, 0x8B}
	xzMagic   = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
)

// Load builds a Newest table from a raw index archive: a tar stream,
// optionally gzip- or xz-compressed, whose entries are named
// <package>/<version>/<file>. Entries with malformed paths or versions are
// skipped; a container that cannot be demultiplexed at all fails the whole
// load with no partial result.
func Load(r io.Reader, id platform.Identity) (Newest, error) {
	tr, err := tarReader(r)
	if err != nil {
		return nil, &models.PackDepsError{Type: models.ErrIndexLoad, Err: err}
	}

	newest := make(Newest)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &models.PackDepsError{
				Type: models.ErrIndexLoad,
				Err:  fmt.Errorf("failed to read archive entry: %w", err),
			}
		}

		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		parts := strings.Split(hdr.Name, "/")
		if len(parts) != 3 {
			logrus.Debugf("Skipping entry with unexpected path: %s", hdr.Name)
			continue
		}
		name := parts[0]
		ver, err := version.Parse(parts[1])
		if err != nil {
			logrus.Debugf("Skipping %s: %v", hdr.Name, err)
			continue
		}

		// Only a strictly newer version replaces the stored entry; the
		// first entry seen at a given version wins.
		if cur, ok := newest[name]; ok && version.Compare(cur.Version, ver) >= 0 {
			continue
		}

		payload, err := io.ReadAll(tr)
		if err != nil {
			return nil, &models.PackDepsError{
				Type:    models.ErrIndexLoad,
				Package: name,
				Err:     fmt.Errorf("failed to read archive entry: %w", err),
			}
		}

		di, ok := cabal.LoadDescriptor(payload, id)
		if !ok {
			logrus.Debugf("No descriptor for %s-%s", name, ver)
		}
		newest[name] = &models.PackInfo{
			Version:  ver,
			Desc:     di,
			Modified: hdr.ModTime.Unix(),
		}
	}

	logrus.Debugf("Indexed %d packages", len(newest))
	return newest, nil
}

// tarReader sniffs the stream's compression from its magic bytes.
func tarReader(r io.Reader) (*tar.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return tar.NewReader(gr), nil
	case bytes.HasPrefix(head, xzMagic):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open xz stream: %w", err)
		}
		return tar.NewReader(xr), nil
	default:
		return tar.NewReader(br), nil
	}
}
