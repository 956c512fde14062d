package domain

import "strings"

// LockEntry is one resolution recorded by the external resolver.
// Several selectors ("name@range") may point at the same entry.
type LockEntry struct {
	Name      InternedString
	Version   InternedString
	Resolved  string
	Integrity string

	Dependencies         []Dependency
	OptionalDependencies []Dependency
}

// Lockfile is the parsed lock output of the external resolver.
type Lockfile struct {
	// Version is the lock format version: 1 for the classic yarn format, the metadata version for berry.
	Version int

	entries map[string]*LockEntry
}

// NewLockfile creates an empty Lockfile.
func NewLockfile(version int) *Lockfile {
	return &Lockfile{
		Version: version,
		entries: make(map[string]*LockEntry),
	}
}

// Add registers the entry under each of its selectors.
func (l *Lockfile) Add(selectors []string, entry *LockEntry) {
	for _, s := range selectors {
		l.entries[s] = entry
	}
}

// Lookup returns the entry resolving the given dependency.
func (l *Lockfile) Lookup(dep Dependency) (*LockEntry, bool) {
	e, ok := l.entries[dep.Selector()]
	return e, ok
}

// Len returns the number of selectors in the lock file.
func (l *Lockfile) Len() int {
	return len(l.entries)
}

// SplitSelector splits "name@range" at the version separator, keeping scoped names such as
// "@babel/core@^7.0" intact.
func SplitSelector(selector string) (name, rng string, ok bool) {
	idx := strings.LastIndex(selector, "@")
	if idx <= 0 {
		return "", "", false
	}
	return selector[:idx], selector[idx+1:], true
}
