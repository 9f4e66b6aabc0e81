package store

import (
	"fmt"

	"github.com/soenkehahn/packdeps/internal/index"
	"github.com/soenkehahn/packdeps/internal/models"
	"github.com/soenkehahn/packdeps/internal/version"
)

// SaveNewest replaces the cached snapshot with n, recording the
// fingerprint it was built from. Ranges are stored in their canonical text
// form and re-parsed on load.
func (s *Store) SaveNewest(fingerprint string, n index.Newest) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM dependencies", "DELETE FROM packages", "DELETE FROM snapshot_meta"} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to clear snapshot: %w", err)
		}
	}

	for name, pi := range n {
		synopsis, haystack := "", ""
		if pi.Desc != nil {
			synopsis = pi.Desc.Synopsis
			haystack = pi.Desc.Haystack
		}
		_, err := tx.Exec(
			"INSERT INTO packages (name, version, modified, has_desc, synopsis, haystack) VALUES (?, ?, ?, ?, ?, ?)",
			name, pi.Version.String(), pi.Modified, pi.Desc != nil, synopsis, haystack,
		)
		if err != nil {
			return fmt.Errorf("failed to insert package %s: %w", name, err)
		}

		if pi.Desc == nil {
			continue
		}
		for i, dep := range pi.Desc.Deps {
			_, err := tx.Exec(
				"INSERT INTO dependencies (package, seq, depends_on, vrange) VALUES (?, ?, ?, ?)",
				name, i, dep.Name, dep.Range.String(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert dependency %s of %s: %w", dep.Name, name, err)
			}
		}
	}

	if _, err := tx.Exec("INSERT INTO snapshot_meta (key, value) VALUES ('fingerprint', ?)", fingerprint); err != nil {
		return fmt.Errorf("failed to record fingerprint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadNewest returns the cached snapshot when its fingerprint matches.
// The second return is false for an empty or stale cache.
func (s *Store) LoadNewest(fingerprint string) (index.Newest, bool, error) {
	var stored string
	err := s.db.QueryRow("SELECT value FROM snapshot_meta WHERE key = 'fingerprint'").Scan(&stored)
	if err != nil || stored != fingerprint {
		return nil, false, nil
	}

	n := make(index.Newest)

	rows, err := s.db.Query("SELECT name, version, modified, has_desc, synopsis, haystack FROM packages")
	if err != nil {
		return nil, false, fmt.Errorf("failed to query packages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, verText, synopsis, haystack string
		var modified int64
		var hasDesc bool
		if err := rows.Scan(&name, &verText, &modified, &hasDesc, &synopsis, &haystack); err != nil {
			return nil, false, fmt.Errorf("failed to scan package: %w", err)
		}

		ver, err := version.Parse(verText)
		if err != nil {
			return nil, false, fmt.Errorf("failed to parse cached version for %s: %w", name, err)
		}

		pi := &models.PackInfo{Version: ver, Modified: modified}
		if hasDesc {
			pi.Desc = &models.DescInfo{
				ID:       models.PackageID{Name: name, Version: ver},
				Deps:     []models.Dependency{},
				Synopsis: synopsis,
				Haystack: haystack,
			}
		}
		n[name] = pi
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read packages: %w", err)
	}

	if err := s.loadDependencies(n); err != nil {
		return nil, false, err
	}
	return n, true, nil
}

func (s *Store) loadDependencies(n index.Newest) error {
	rows, err := s.db.Query("SELECT package, depends_on, vrange FROM dependencies ORDER BY package, seq")
	if err != nil {
		return fmt.Errorf("failed to query dependencies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pkg, target, rangeText string
		if err := rows.Scan(&pkg, &target, &rangeText); err != nil {
			return fmt.Errorf("failed to scan dependency: %w", err)
		}

		pi, ok := n[pkg]
		if !ok || pi.Desc == nil {
			continue
		}
		rng, err := version.ParseRange(rangeText)
		if err != nil {
			return fmt.Errorf("failed to parse cached range for %s: %w", pkg, err)
		}
		pi.Desc.Deps = append(pi.Desc.Deps, models.Dependency{Name: target, Range: rng})
	}
	return rows.Err()
}
