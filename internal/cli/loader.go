package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/soenkehahn/packdeps/internal/config"
	"github.com/soenkehahn/packdeps/internal/index"
	"github.com/soenkehahn/packdeps/internal/models"
	"github.com/soenkehahn/packdeps/internal/platform"
	"github.com/soenkehahn/packdeps/internal/store"
)

// indexOptions are the flags every index-consuming command shares.
type indexOptions struct {
	IndexFiles []string
	NoCache    bool
	GHC        string
}

func addIndexFlags(cmd *cobra.Command, opts *indexOptions) {
	cmd.Flags().StringSliceVarP(&opts.IndexFiles, "index", "i", nil,
		"Index archive to load (repeatable; default: discovered via the cabal config)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "Skip the local snapshot cache")
	cmd.Flags().StringVar(&opts.GHC, "ghc", "", "Path to the ghc executable (default: ghc from $PATH)")
}

// resolveIndexFiles returns the index archives to load, either from the
// --index flags or via the cabal configuration.
func resolveIndexFiles(opts *indexOptions) ([]string, error) {
	if len(opts.IndexFiles) > 0 {
		return opts.IndexFiles, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	files := cfg.IndexFiles()
	if len(files) == 0 {
		return nil, &models.PackDepsError{
			Type: models.ErrConfig,
			Err:  fmt.Errorf("no index archives found under %s; run cabal update or pass --index", cfg.CacheDir),
		}
	}
	return files, nil
}

// loadNewest builds (or restores from cache) the Newest table from every
// resolved index archive, merged left to right.
func loadNewest(opts *indexOptions) (index.Newest, platform.Identity, []string, error) {
	id, err := platform.GHCProvider{Path: opts.GHC}.Identity()
	if err != nil {
		// Conditionals on the compiler version are rare; a best-effort
		// answer beats aborting when ghc is not installed.
		logrus.Warnf("Failed to probe ghc, resolving without a compiler version: %v", err)
		id = platform.Host("ghc", nil)
	}
	logrus.Debugf("Resolving against %s", id)

	files, err := resolveIndexFiles(opts)
	if err != nil {
		return nil, platform.Identity{}, nil, err
	}

	fingerprint := fingerprintOf(files, id)

	if !opts.NoCache {
		if n, ok := loadCached(fingerprint); ok {
			logrus.Debugf("Using cached snapshot (%d packages)", len(n))
			return n, id, files, nil
		}
	}

	newest := index.Newest{}
	for _, file := range files {
		logrus.Infof("Loading index %s", file)
		f, err := os.Open(file)
		if err != nil {
			return nil, id, nil, &models.PackDepsError{
				Type: models.ErrFileOp,
				Err:  fmt.Errorf("failed to open index: %w", err),
			}
		}
		n, err := index.Load(f, id)
		f.Close()
		if err != nil {
			return nil, id, nil, err
		}
		newest = index.Merge(newest, n)
	}
	logrus.Infof("Indexed %d packages", len(newest))

	if !opts.NoCache {
		saveCached(fingerprint, newest)
	}
	return newest, id, files, nil
}

// fingerprintOf identifies one (index files, platform) combination; a
// cached snapshot is only reused when it matches exactly.
func fingerprintOf(files []string, id platform.Identity) string {
	parts := make([]string, 0, len(files)+1)
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			parts = append(parts, file)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%d:%d", file, info.ModTime().Unix(), info.Size()))
	}
	parts = append(parts, id.String())
	return strings.Join(parts, "|")
}

func cachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, "packdeps")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "index.db"), nil
}

// Cache failures only cost speed, so they degrade to a warning.
func loadCached(fingerprint string) (index.Newest, bool) {
	path, err := cachePath()
	if err != nil {
		logrus.Warnf("Snapshot cache unavailable: %v", err)
		return nil, false
	}
	s, err := store.New(path)
	if err != nil {
		logrus.Warnf("Failed to open snapshot cache: %v", err)
		return nil, false
	}
	defer s.Close()

	n, ok, err := s.LoadNewest(fingerprint)
	if err != nil {
		logrus.Warnf("Failed to load snapshot cache: %v", err)
		return nil, false
	}
	return n, ok
}

func saveCached(fingerprint string, n index.Newest) {
	path, err := cachePath()
	if err != nil {
		logrus.Warnf("Snapshot cache unavailable: %v", err)
		return
	}
	s, err := store.New(path)
	if err != nil {
		logrus.Warnf("Failed to open snapshot cache: %v", err)
		return
	}
	defer s.Close()

	if err := s.SaveNewest(fingerprint, n); err != nil {
		logrus.Warnf("Failed to save snapshot cache: %v", err)
	}
}
