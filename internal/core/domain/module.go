package domain

import "slices"

// Dependency is a declared dependency on a package by name and requested version range.
type Dependency struct {
	Name  string `json:"name"`
	Range string `json:"range"`
}

// Selector returns the lock file key for the dependency, e.g. "lib-x@^1.0".
func (d Dependency) Selector() string {
	return d.Name + "@" + d.Range
}

// ImportedPackage is a locally vendored package that joins the resolution without being a module.
type ImportedPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// Dir is the absolute directory holding the package's package.json.
	Dir string `json:"dir"`
}

// Module is one first-party package participating in a shared resolution.
// Modules are built by the workspace loader and are not mutated during a pass.
type Module struct {
	Name    string
	Version string
	// Dir is the absolute directory holding the module's package.json.
	Dir string

	// External are dependencies resolved from the registry, ordered by name.
	External []Dependency
	// Internal are dependencies on other modules of the same workspace, ordered by name.
	Internal []Dependency
	// Imports are the vendored packages this module consumes, ordered by name then version.
	Imports []ImportedPackage
}

// RootIdentity names the synthetic root manifest.
type RootIdentity struct {
	Name    string
	Version string
}

// ResolverSpec describes how to launch the external resolver.
type ResolverSpec struct {
	Command string
	Args    []string
}

// Argv returns the full command line.
func (r ResolverSpec) Argv() []string {
	return append([]string{r.Command}, r.Args...)
}

// Workspace is the set of modules resolved together against one root manifest.
type Workspace struct {
	// Root is the absolute directory containing the workfile.
	Root     string
	Identity RootIdentity
	// ResolutionDir is the absolute directory the root manifest is written to and the resolver runs in.
	ResolutionDir string
	Resolver      ResolverSpec
	Modules       []*Module
	// Mutators are applied to the root manifest in order before it is written.
	Mutators []ManifestMutator
}

// Module returns the module with the given name.
func (w *Workspace) Module(name string) (*Module, bool) {
	idx := slices.IndexFunc(w.Modules, func(m *Module) bool { return m.Name == name })
	if idx < 0 {
		return nil, false
	}
	return w.Modules[idx], true
}

// ModuleNames returns the names of all modules in workspace order.
func (w *Workspace) ModuleNames() []string {
	names := make([]string, len(w.Modules))
	for i, m := range w.Modules {
		names[i] = m.Name
	}
	return names
}
