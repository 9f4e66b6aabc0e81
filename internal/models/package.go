package models

import "github.com/soenkehahn/packdeps/internal/version"

// Dependency is one declared requirement on another package. Names are
// case-sensitive opaque identifiers; the same name may be declared more
// than once.
type Dependency struct {
	Name  string
	Range version.Range
}

// PackageID identifies one specific release of a package.
type PackageID struct {
	Name    string
	Version version.Version
}

// DescInfo is the read-only summary of one package release, built from
// successfully parsed and platform-resolved metadata.
type DescInfo struct {
	ID PackageID

	// Deps preserves declaration order and duplicates.
	Deps []Dependency

	// Haystack is the lower-cased concatenation of author, maintainer and
	// package name, with no separators. Substring search runs against it.
	Haystack string

	Synopsis string
}

// PackInfo is the newest known release of one package.
type PackInfo struct {
	Version version.Version

	// Desc is nil when the release's metadata failed to parse or failed to
	// resolve for the target platform.
	Desc *DescInfo

	// Modified is the index entry's modification time in epoch seconds.
	Modified int64
}

// VersionPair names a dependency target together with the rendered text of
// its newest available version.
type VersionPair struct {
	Name    string
	Version string
}

// CheckDepsResult is the outcome of checking one package's dependencies
// against the newest versions of their targets.
type CheckDepsResult struct {
	// AllNewest is true when every known dependency target's newest version
	// is accepted.
	AllNewest bool

	// WontAccept lists the rejected targets with their newest versions,
	// deduplicated and sorted by name.
	WontAccept []VersionPair

	// Deadline is the highest modification time among the offending index
	// entries: the package was outdated no later than this moment.
	Deadline int64
}

// RevDep is one package relying on a dependency target, with the range it
// requires.
type RevDep struct {
	Name  string
	Range version.Range
}

// RevDeps groups every relier of one dependency target together with the
// target's own newest version.
type RevDeps struct {
	Version version.Version
	Users   []RevDep
}
