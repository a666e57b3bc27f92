// Package version implements CogniaLauncher's version total order and
// constraint algebra, ported from the original resolver's version.rs and
// constraint.rs with identical semantics.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a SemVer-shaped (major, minor, patch, prerelease?, build?)
// value with a total order: prerelease versions sort below their
// corresponding release, and among two prerelease versions, the segments
// are compared numerically where both are numeric, lexicographically
// otherwise; a prefix-equal shorter list sorts lower.
type Version struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease string // empty means no prerelease
	Build      string // empty means no build metadata
}

// Parse accepts an optional leading 'v'/'V', then "major.minor.patch"
// with a "-prerelease" and/or "+build" suffix. Missing numeric components
// default to 0.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "v")
	s = strings.TrimPrefix(s, "V")
	if s == "" {
		return Version{}, fmt.Errorf("version: empty string")
	}

	var build string
	if i := strings.Index(s, "+"); i >= 0 {
		build = s[i+1:]
		s = s[:i]
	}

	var prerelease string
	if i := strings.Index(s, "-"); i >= 0 {
		prerelease = s[i+1:]
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) == 0 || parts[0] == "" {
		return Version{}, fmt.Errorf("version: invalid %q", s)
	}

	nums := [3]uint64{}
	for i := 0; i < 3 && i < len(parts); i++ {
		n, err := strconv.ParseUint(parts[i], 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("version: invalid component %q in %q", parts[i], s)
		}
		nums[i] = n
	}

	return Version{
		Major:      nums[0],
		Minor:      nums[1],
		Patch:      nums[2],
		Prerelease: prerelease,
		Build:      build,
	}, nil
}

// MustParse panics on error; intended for constant test fixtures.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders "major.minor.patch[-prerelease][+build]".
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater
// than other. Build metadata never participates in ordering.
func (v Version) Compare(other Version) int {
	if c := compareUint(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareUint(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareUint(v.Patch, other.Patch); c != 0 {
		return c
	}
	return comparePrerelease(v.Prerelease, other.Prerelease)
}

func (v Version) Less(other Version) bool    { return v.Compare(other) < 0 }
func (v Version) Equal(other Version) bool   { return v.Compare(other) == 0 }
func (v Version) Greater(other Version) bool { return v.Compare(other) > 0 }

// IsPrerelease reports whether v carries a prerelease tag.
func (v Version) IsPrerelease() bool { return v.Prerelease != "" }

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// comparePrerelease implements SemVer precedence: no-prerelease sorts
// above any prerelease; otherwise compare dot-separated identifiers in
// order, numeric identifiers compared as numbers and always sorting
// below a non-numeric identifier, equal-length-prefix ties broken by
// fewer fields sorting lower.
func comparePrerelease(a, b string) int {
	if a == "" && b == "" {
		return 0
	}
	if a == "" {
		return 1 // no prerelease > has prerelease
	}
	if b == "" {
		return -1
	}

	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	n := len(aParts)
	if len(bParts) < n {
		n = len(bParts)
	}

	for i := 0; i < n; i++ {
		ap, bp := aParts[i], bParts[i]
		aNum, aIsNum := parseUintOK(ap)
		bNum, bIsNum := parseUintOK(bp)

		switch {
		case aIsNum && bIsNum:
			if c := compareUint(aNum, bNum); c != 0 {
				return c
			}
		case aIsNum && !bIsNum:
			return -1 // numeric identifiers always sort lower
		case !aIsNum && bIsNum:
			return 1
		default:
			if ap != bp {
				if ap < bp {
					return -1
				}
				return 1
			}
		}
	}

	return compareUint(uint64(len(aParts)), uint64(len(bParts)))
}

func parseUintOK(s string) (uint64, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
