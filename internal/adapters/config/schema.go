package config

// Workfile represents the structure of the lockstep.work.yaml configuration file.
type Workfile struct {
	Version       string            `yaml:"version"`
	Workspace     IdentityDTO       `yaml:"workspace"`
	ResolutionDir string            `yaml:"resolutionDir"`
	Resolver      *ResolverDTO      `yaml:"resolver"`
	Modules       []string          `yaml:"modules"`
	Imports       []string          `yaml:"imports"`
	Scripts       map[string]string `yaml:"scripts"`
	Resolutions   map[string]string `yaml:"resolutions"`
	Dependencies  map[string]string `yaml:"dependencies"`
	Extra         map[string]any    `yaml:"extra"`
}

// IdentityDTO names the root manifest.
type IdentityDTO struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// ResolverDTO overrides the external resolver command.
type ResolverDTO struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// PackageJSON is the subset of a package.json the loader reads.
type PackageJSON struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}
