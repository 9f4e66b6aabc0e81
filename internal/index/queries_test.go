package index

import (
	"testing"

	"github.com/soenkehahn/packdeps/internal/models"
	"github.com/soenkehahn/packdeps/internal/version"
)

func mustRange(t *testing.T, s string) version.Range {
	t.Helper()
	r, err := version.ParseRange(s)
	if err != nil {
		t.Fatalf("ParseRange(%q) failed: %v", s, err)
	}
	return r
}

func pack(t *testing.T, name, ver string, modified int64, deps ...models.Dependency) *models.PackInfo {
	t.Helper()
	v, err := version.Parse(ver)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", ver, err)
	}
	return &models.PackInfo{
		Version: v,
		Desc: &models.DescInfo{
			ID:       models.PackageID{Name: name, Version: v},
			Deps:     deps,
			Haystack: name,
		},
		Modified: modified,
	}
}

func dep(t *testing.T, name, rng string) models.Dependency {
	t.Helper()
	return models.Dependency{Name: name, Range: mustRange(t, rng)}
}

func TestCheckDeps(t *testing.T) {
	n := Newest{
		"A": pack(t, "A", "2.0", 500),
		"B": pack(t, "B", "1.0", 900),
	}
	c := &models.DescInfo{
		ID:   models.PackageID{Name: "C", Version: version.Version{0, 1}},
		Deps: []models.Dependency{dep(t, "A", "<2.0"), dep(t, "B", ">=1.0")},
	}

	res := CheckDeps(n, c)
	if res.AllNewest {
		t.Fatal("C should not accept A's newest version")
	}
	if len(res.WontAccept) != 1 || res.WontAccept[0] != (models.VersionPair{Name: "A", Version: "2.0"}) {
		t.Errorf("WontAccept = %v, want [{A 2.0}]", res.WontAccept)
	}
	if res.Deadline != 500 {
		t.Errorf("Deadline = %d, want A's timestamp 500", res.Deadline)
	}
}

func TestCheckDepsAllNewest(t *testing.T) {
	n := Newest{"A": pack(t, "A", "2.0", 500)}
	c := &models.DescInfo{
		ID:   models.PackageID{Name: "C"},
		Deps: []models.Dependency{dep(t, "A", ">=2.0")},
	}

	res := CheckDeps(n, c)
	if !res.AllNewest {
		t.Errorf("expected AllNewest, got %v", res)
	}
}

func TestCheckDepsUnknownTargetIgnored(t *testing.T) {
	n := Newest{"A": pack(t, "A", "2.0", 500)}
	c := &models.DescInfo{
		ID:   models.PackageID{Name: "C"},
		Deps: []models.Dependency{dep(t, "A", ">=2.0"), dep(t, "unpublished", "==9.9")},
	}

	res := CheckDeps(n, c)
	if !res.AllNewest {
		t.Errorf("unknown targets must be ignored, got %v", res)
	}
}

func TestCheckDepsDedupAndSort(t *testing.T) {
	n := Newest{
		"zlib": pack(t, "zlib", "0.7", 100),
		"aeson": pack(t, "aeson", "2.2", 300),
	}
	c := &models.DescInfo{
		ID: models.PackageID{Name: "C"},
		Deps: []models.Dependency{
			dep(t, "zlib", "<0.7"),
			dep(t, "aeson", "<2.0"),
			dep(t, "zlib", "<0.6"),
		},
	}

	res := CheckDeps(n, c)
	want := []models.VersionPair{{Name: "aeson", Version: "2.2"}, {Name: "zlib", Version: "0.7"}}
	if len(res.WontAccept) != len(want) {
		t.Fatalf("WontAccept = %v, want %v", res.WontAccept, want)
	}
	for i := range want {
		if res.WontAccept[i] != want[i] {
			t.Errorf("WontAccept = %v, want %v", res.WontAccept, want)
		}
	}
	if res.Deadline != 300 {
		t.Errorf("Deadline = %d, want 300", res.Deadline)
	}
}

func TestReverses(t *testing.T) {
	n := Newest{
		"base": pack(t, "base", "4.19", 10),
		"mtl":  pack(t, "mtl", "2.3", 20, dep(t, "base", ">=4 && <5")),
		"app":  pack(t, "app", "1.0", 30, dep(t, "base", ">=4"), dep(t, "mtl", ">=2"), dep(t, "ghost", "-any")),
	}

	revs := Reverses(n)

	baseRevs, ok := revs["base"]
	if !ok {
		t.Fatal("base missing from reverse index")
	}
	if baseRevs.Version.String() != "4.19" {
		t.Errorf("base version = %s", baseRevs.Version)
	}
	if len(baseRevs.Users) != 2 {
		t.Errorf("base users = %v, want mtl and app", baseRevs.Users)
	}

	if len(revs["mtl"].Users) != 1 || revs["mtl"].Users[0].Name != "app" {
		t.Errorf("mtl users = %v", revs["mtl"].Users)
	}

	// ghost is depended on but not indexed: it must not appear at all.
	if _, ok := revs["ghost"]; ok {
		t.Error("unindexed dependency target must be dropped")
	}

	// app has no reverse dependencies.
	if _, ok := revs["app"]; ok {
		t.Error("app should have no entry")
	}
}

func TestDeepDepsCycle(t *testing.T) {
	n := Newest{
		"A": pack(t, "A", "1.0", 0, dep(t, "B", "-any")),
		"B": pack(t, "B", "1.0", 0, dep(t, "A", "-any")),
	}

	out := DeepDeps(n, []*models.DescInfo{n["A"].Desc})
	if len(out) != 2 {
		t.Fatalf("closure = %v, want [A B]", out)
	}
	if out[0].ID.Name != "A" || out[1].ID.Name != "B" {
		t.Errorf("closure order = [%s %s], want [A B]", out[0].ID.Name, out[1].ID.Name)
	}
}

func TestDeepDepsDepthFirst(t *testing.T) {
	n := Newest{
		"A": pack(t, "A", "1", 0, dep(t, "B", "-any"), dep(t, "D", "-any")),
		"B": pack(t, "B", "1", 0, dep(t, "C", "-any")),
		"C": pack(t, "C", "1", 0),
		"D": pack(t, "D", "1", 0),
	}

	out := DeepDeps(n, []*models.DescInfo{n["A"].Desc})
	var names []string
	for _, di := range out {
		names = append(names, di.ID.Name)
	}

	// B's own dependencies come before A's later ones.
	want := []string{"A", "B", "C", "D"}
	for i := range want {
		if i >= len(names) || names[i] != want[i] {
			t.Fatalf("closure = %v, want %v", names, want)
		}
	}
}

func TestDeepDepsSkipsMissing(t *testing.T) {
	n := Newest{
		"A":      pack(t, "A", "1", 0, dep(t, "ghost", "-any"), dep(t, "broken", "-any")),
		"broken": {Version: version.Version{1}, Modified: 0}, // no descriptor
	}

	out := DeepDeps(n, []*models.DescInfo{n["A"].Desc})
	if len(out) != 1 || out[0].ID.Name != "A" {
		t.Errorf("closure = %v, want just A", out)
	}
}

func TestFilter(t *testing.T) {
	n := Newest{
		"yesod": pack(t, "yesod", "1.6", 0),
		"snap":  pack(t, "snap", "1.0", 0),
	}
	n["yesod"].Desc.Haystack = "michael snoymanyesod"
	n["snap"].Desc.Haystack = "snap team"

	got := n.Filter("SNOYMAN")
	if len(got) != 1 || got[0].ID.Name != "yesod" {
		t.Errorf("Filter = %v, want yesod (matching is case-insensitive)", got)
	}
}

func TestFilterExcludesDeprecated(t *testing.T) {
	n := Newest{"old": pack(t, "old", "1.0", 0)}
	n["old"].Desc.Haystack = "foo"
	n["old"].Desc.Synopsis = "An HTTP client (Deprecated)"

	if got := n.Filter("foo"); len(got) != 0 {
		t.Errorf("Filter = %v, deprecated packages must be excluded", got)
	}
}
