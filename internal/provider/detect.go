package provider

import (
	"os"
	"path/filepath"
	"regexp"
)

// VersionFileCheck is one candidate check an EnvironmentProvider performs
// within a single directory: a provider-specific version file (highest
// precedence), a unified .tool-versions entry, or a language manifest
// (lowest precedence). Concrete adapters supply these three lookups;
// WalkForVersion implements the directory-ascent and precedence ordering
// shared by all of them, per spec.md §4.1's version-detection rules and
// the S6 scenario.
type VersionFileCheck struct {
	// VersionFile reads the provider's own per-directory version file
	// (e.g. ".ruby-version"), returning ("", false) if absent.
	VersionFile func(dir string) (string, bool)
	// ToolVersions reads the given tool's entry from a ".tool-versions"
	// file in dir, returning ("", false) if absent or the tool has no
	// entry.
	ToolVersions func(dir string) (string, bool)
	// Manifest reads a language-specific manifest in dir (e.g. Gemfile,
	// package.json#engines, pyproject.toml), returning ("", false) if
	// absent or silent on a version.
	Manifest func(dir string) (string, bool)
}

// WalkForVersion ascends from startPath toward the filesystem root. Within
// each directory it checks, in precedence order, VersionFile >
// ToolVersions > Manifest; the first directory (closest to startPath)
// with any hit wins — the deepest match wins across directories, and the
// highest-precedence check wins within a directory.
func WalkForVersion(startPath string, checks VersionFileCheck) (version string, source VersionSource, sourcePath string, ok bool) {
	dir := startPath
	for {
		if checks.VersionFile != nil {
			if v, found := checks.VersionFile(dir); found {
				return v, SourceLocalFile, filepath.Join(dir), true
			}
		}
		if checks.ToolVersions != nil {
			if v, found := checks.ToolVersions(dir); found {
				return v, SourceLocalFile, filepath.Join(dir, ".tool-versions"), true
			}
		}
		if checks.Manifest != nil {
			if v, found := checks.Manifest(dir); found {
				return v, SourceManifest, filepath.Join(dir), true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", "", false
}

// ReadVersionFile is a small helper for the common case of a version
// file whose entire trimmed contents are the version string.
func ReadVersionFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	s := trimVersionFile(string(data))
	if s == "" {
		return "", false
	}
	return s, true
}

var versionFileTrim = regexp.MustCompile(`\s+`)

func trimVersionFile(s string) string {
	return versionFileTrim.ReplaceAllString(s, "")
}
