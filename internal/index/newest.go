package index

import (
	"sort"
	"strings"

	"github.com/soenkehahn/packdeps/internal/cabal"
	"github.com/soenkehahn/packdeps/internal/models"
	"github.com/soenkehahn/packdeps/internal/version"
)

// Newest maps each package name to its newest known release. It is built
// once by Load and treated as immutable from then on.
type Newest map[string]*models.PackInfo

// Merge combines two independently built tables. Per package the entry
// with the higher version wins; ties keep the left operand.
func Merge(a, b Newest) Newest {
	out := make(Newest, len(a)+len(b))
	for name, pi := range a {
		out[name] = pi
	}
	for name, pi := range b {
		if cur, ok := out[name]; ok && version.Compare(cur.Version, pi.Version) >= 0 {
			continue
		}
		out[name] = pi
	}
	return out
}

// Lookup returns the descriptor of the named package's newest release.
func (n Newest) Lookup(name string) (*models.DescInfo, bool) {
	pi, ok := n[name]
	if !ok || pi.Desc == nil {
		return nil, false
	}
	return pi.Desc, true
}

// Filter returns the descriptors whose search text contains query,
// case-insensitively, sorted by package name. Packages whose synopsis
// carries the deprecation marker are excluded even when they match.
func (n Newest) Filter(query string) []*models.DescInfo {
	query = strings.ToLower(query)

	var out []*models.DescInfo
	for _, pi := range n {
		if pi.Desc == nil {
			continue
		}
		if strings.Contains(strings.ToLower(pi.Desc.Synopsis), cabal.DeprecationMarker) {
			continue
		}
		if strings.Contains(pi.Desc.Haystack, query) {
			out = append(out, pi.Desc)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.Name < out[j].ID.Name
	})
	return out
}
