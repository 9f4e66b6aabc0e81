// Package config locates and reads the local cabal configuration to find
// the cached index archives to load. It contains plumbing only; nothing
// here is consulted during index construction itself.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/soenkehahn/packdeps/internal/models"
)

// Config is the subset of the cabal configuration this tool needs: where
// remote indexes are cached and which remote repositories exist.
type Config struct {
	CacheDir string
	Repos    []string
}

// Locate returns the cabal config path: $CABAL_CONFIG when set, otherwise
// ~/.cabal/config.
func Locate() (string, error) {
	if path := os.Getenv("CABAL_CONFIG"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".cabal", "config"), nil
}

// Load locates, opens and parses the cabal config.
func Load() (*Config, error) {
	path, err := Locate()
	if err != nil {
		return nil, &models.PackDepsError{Type: models.ErrConfig, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &models.PackDepsError{
			Type: models.ErrConfig,
			Err:  fmt.Errorf("failed to open cabal config: %w", err),
		}
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, &models.PackDepsError{Type: models.ErrConfig, Err: err}
	}
	logrus.Debugf("Loaded cabal config from %s: %d repositories", path, len(cfg.Repos))
	return cfg, nil
}

// Parse reads a cabal config. Both styles of repository declaration are
// recognized: "repository <name>" sections and legacy "remote-repo:
// <name>:<url>" fields.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}

		// Section headers and fields both live on their own lines; nested
		// repository fields (url, secure, ...) are irrelevant here.
		if name, ok := strings.CutPrefix(trimmed, "repository "); ok && !strings.Contains(name, ":") {
			cfg.Repos = append(cfg.Repos, strings.TrimSpace(name))
			continue
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "remote-repo-cache":
			cfg.CacheDir = value
		case "remote-repo":
			// Legacy form: <name>:<url>.
			if name, _, ok := strings.Cut(value, ":"); ok {
				cfg.Repos = append(cfg.Repos, strings.TrimSpace(name))
			} else if value != "" {
				cfg.Repos = append(cfg.Repos, value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cabal config: %w", err)
	}

	if cfg.CacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.CacheDir = filepath.Join(home, ".cabal", "packages")
	}

	return cfg, nil
}

// Index archive names, newest layout first.
var indexNames = []string{"01-index.tar", "00-index.tar", "01-index.tar.gz", "00-index.tar.gz"}

// IndexFiles returns the index archives that actually exist under the
// cache, one per repository at most.
func (c *Config) IndexFiles() []string {
	var files []string
	for _, repo := range c.Repos {
		for _, name := range indexNames {
			path := filepath.Join(c.CacheDir, repo, name)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				files = append(files, path)
				break
			}
		}
	}
	return files
}
