package index

import (
	"sort"

	"github.com/soenkehahn/packdeps/internal/models"
)

// CheckDeps determines which of a package's dependencies reject the newest
// available version of their target. Targets absent from the table are
// ignored: absence may mean "not yet indexed" just as well as
// "intentionally external". Pure; n is never modified.
func CheckDeps(n Newest, di *models.DescInfo) models.CheckDepsResult {
	var bad []models.VersionPair
	var deadline int64

	for _, dep := range di.Deps {
		pi, ok := n[dep.Name]
		if !ok {
			continue
		}
		if dep.Range.Satisfies(pi.Version) {
			continue
		}
		bad = append(bad, models.VersionPair{Name: dep.Name, Version: pi.Version.String()})
		if pi.Modified > deadline {
			deadline = pi.Modified
		}
	}

	if len(bad) == 0 {
		return models.CheckDepsResult{AllNewest: true}
	}

	sort.Slice(bad, func(i, j int) bool { return bad[i].Name < bad[j].Name })
	dedup := bad[:1]
	for _, p := range bad[1:] {
		if p != dedup[len(dedup)-1] {
			dedup = append(dedup, p)
		}
	}

	return models.CheckDepsResult{WontAccept: dedup, Deadline: deadline}
}

// Reverses inverts the table: dependency target name to (its own newest
// version, every package relying on it with the required range). Targets
// that are not themselves indexed packages are dropped. Recomputed in full
// on every call, O(total dependency count).
func Reverses(n Newest) map[string]models.RevDeps {
	users := make(map[string][]models.RevDep)
	for name, pi := range n {
		if pi.Desc == nil {
			continue
		}
		for _, dep := range pi.Desc.Deps {
			users[dep.Name] = append(users[dep.Name], models.RevDep{Name: name, Range: dep.Range})
		}
	}

	out := make(map[string]models.RevDeps, len(users))
	for target, us := range users {
		pi, ok := n[target]
		if !ok {
			continue
		}
		out[target] = models.RevDeps{Version: pi.Version, Users: us}
	}
	return out
}

// DeepDeps computes the transitive dependency closure of the given
// descriptors: depth-first over declared dependency edges, each package
// emitted once at its first visit. Targets missing from the table, or
// present without a descriptor, are skipped without blocking traversal.
func DeepDeps(n Newest, dis []*models.DescInfo) []*models.DescInfo {
	visited := make(map[string]bool)
	work := append([]*models.DescInfo(nil), dis...)

	var out []*models.DescInfo
	for len(work) > 0 {
		di := work[0]
		work = work[1:]

		if visited[di.ID.Name] {
			continue
		}
		visited[di.ID.Name] = true
		out = append(out, di)

		// Dependency descriptors go to the front of the work list, before
		// anything queued earlier.
		var next []*models.DescInfo
		for _, dep := range di.Deps {
			if pi, ok := n[dep.Name]; ok && pi.Desc != nil {
				next = append(next, pi.Desc)
			}
		}
		work = append(next, work...)
	}

	return out
}
