package internal

import (
	"path/filepath"
	"strings"
)

// containsToken is the one matching primitive shared by every filter.
// It is a plain case-sensitive substring test, so "py" matches "a.py", "a.pyc" and "mypy.txt".
// Empty tokens never match.
func containsToken(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, needle)
}

func containsAnyToken(haystack string, tokens []string) (string, bool) {
	for _, t := range tokens {
		if containsToken(haystack, t) {
			return t, true
		}
	}
	return "", false
}

// PathFilter decides which directories the walker descends into.
// A directory is pruned when any exclusion token is a substring of its full path,
// compared with forward slashes and a trailing "/" so "/folder/" prunes folder itself.
type PathFilter struct {
	Exclude []string
}

func (f PathFilter) ShouldDescend(path string) bool {
	_, excluded := f.excludedBy(path)
	return !excluded
}

func (f PathFilter) excludedBy(path string) (string, bool) {
	if len(f.Exclude) == 0 {
		return "", false
	}
	return containsAnyToken(strings.TrimSuffix(filepath.ToSlash(path), "/")+"/", f.Exclude)
}

// FileFilter decides which files are scanned, by file name only.
type FileFilter struct {
	Extensions        []string
	ExcludeExtensions []string
	ExcludeFiles      []string
}

// Admit applies, in order: excluded names, excluded extensions, required extensions.
func (f FileFilter) Admit(name string) bool {
	_, ok := f.excludedBy(name)
	return !ok
}

// excludedBy reports why name is rejected: the exclusion token that matched, or ""
// when no required extension matched.
func (f FileFilter) excludedBy(name string) (string, bool) {
	if token, ok := containsAnyToken(name, f.ExcludeFiles); ok {
		return token, true
	}
	if token, ok := containsAnyToken(name, f.ExcludeExtensions); ok {
		return token, true
	}
	if _, ok := containsAnyToken(name, f.Extensions); ok {
		return "", false
	}
	return "", true
}
