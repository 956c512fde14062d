package domain

import (
	"cmp"
	"maps"
	"slices"
)

// ResolvedPackage is a package pinned to an exact version.
type ResolvedPackage struct {
	Name    InternedString
	Version InternedString
}

// NewResolvedPackage creates a ResolvedPackage.
func NewResolvedPackage(name, version string) ResolvedPackage {
	return ResolvedPackage{
		Name:    NewInternedString(name),
		Version: NewInternedString(version),
	}
}

// String returns "name@version".
func (p ResolvedPackage) String() string {
	return p.Name.String() + "@" + p.Version.String()
}

func compareResolved(a, b ResolvedPackage) int {
	return cmp.Or(
		cmp.Compare(a.Name.String(), b.Name.String()),
		cmp.Compare(a.Version.String(), b.Version.String()),
	)
}

// DependencyClosure is the resolved form of one declared external dependency.
type DependencyClosure struct {
	Requested Dependency
	Resolved  ResolvedPackage
	Integrity string
	// Transitive holds every package reachable from Resolved, one version per name, sorted by name.
	Transitive []ResolvedPackage
}

// Packages returns the resolved package together with the transitive set, sorted by name.
func (c *DependencyClosure) Packages() []ResolvedPackage {
	pkgs := make([]ResolvedPackage, 0, len(c.Transitive)+1)
	pkgs = append(pkgs, c.Resolved)
	pkgs = append(pkgs, c.Transitive...)
	slices.SortFunc(pkgs, compareResolved)
	return pkgs
}

// ModuleClosure maps each declared external dependency of a module to its closure.
type ModuleClosure struct {
	Module       string
	Dependencies map[string]*DependencyClosure
}

// Sorted returns the dependency closures ordered by dependency name.
func (m *ModuleClosure) Sorted() []*DependencyClosure {
	out := make([]*DependencyClosure, 0, len(m.Dependencies))
	for _, name := range slices.Sorted(maps.Keys(m.Dependencies)) {
		out = append(out, m.Dependencies[name])
	}
	return out
}
