// Package version implements Cabal-style package versions and version
// ranges: dot-separated integer sequences compared component-wise, and
// range predicates built from comparisons, wildcards, && and ||.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a dot-separated sequence of non-negative integers, e.g. 1.2.0.
// Missing trailing components compare as zero, so 1.0 == 1.0.0.
type Version []int

// Parse parses a version string like "1.2.0"
func Parse(s string) (Version, error) {
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}

	parts := strings.Split(s, ".")
	v := make(Version, len(parts))
	for i, part := range parts {
		if part == "" || !isDigits(part) {
			return nil, fmt.Errorf("invalid version %q", s)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", s, err)
		}
		v[i] = n
	}

	return v, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// String returns the canonical dot-joined form. Parse(v.String()) always
// round-trips to an equal version.
func (v Version) String() string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// Compare returns -1, 0 or 1 ordering a against b. The shorter version is
// padded with zero components, so 1.2 sorts above 1.1.9 and equals 1.2.0.
func Compare(a, b Version) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}

	for i := 0; i < n; i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x < y {
			return -1
		}
		if x > y {
			return 1
		}
	}

	return 0
}
