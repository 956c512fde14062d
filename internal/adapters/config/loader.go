// Package config provides the workspace loader for lockstep.
package config

import (
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

var _ ports.WorkspaceLoader = (*Loader)(nil)

// DefaultResolver is used when the workfile does not configure one.
var DefaultResolver = domain.ResolverSpec{
	Command: "yarn",
	Args:    []string{"install", "--non-interactive", "--ignore-engines"},
}

// Loader implements ports.WorkspaceLoader using a YAML workfile and the modules' package.json files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the workfile found from cwd upwards and returns the described workspace.
func (l *Loader) Load(cwd string) (*domain.Workspace, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	var workfile Workfile
	if err := readAndUnmarshalYAML(configPath, &workfile); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	root := filepath.Dir(configPath)
	ws := &domain.Workspace{
		Root:          root,
		Identity:      resolveIdentity(root, workfile.Workspace),
		ResolutionDir: resolvePath(root, cmp.Or(workfile.ResolutionDir, domain.DefaultResolutionDir)),
		Resolver:      resolveResolver(workfile.Resolver),
		Mutators:      buildMutators(&workfile),
	}

	imports, err := l.loadImports(root, workfile.Imports)
	if err != nil {
		return nil, err
	}

	modules, err := l.loadModules(root, workfile.Modules, imports)
	if err != nil {
		return nil, err
	}
	ws.Modules = modules

	return ws, nil
}

// DiscoverRoot walks up from cwd to find the directory containing the workfile.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return "", err
	}
	return filepath.Dir(configPath), nil
}

func findConfiguration(cwd string) (string, error) {
	currentDir, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrConfigNotFound.Error()), "cwd", cwd)
	}
	for {
		workfilePath := filepath.Join(currentDir, domain.WorkFileName)
		if _, err := os.Stat(workfilePath); err == nil {
			return workfilePath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func resolveIdentity(root string, dto IdentityDTO) domain.RootIdentity {
	return domain.RootIdentity{
		Name:    cmp.Or(dto.Name, filepath.Base(root)),
		Version: cmp.Or(dto.Version, domain.DefaultRootVersion),
	}
}

func resolveResolver(dto *ResolverDTO) domain.ResolverSpec {
	if dto == nil || dto.Command == "" {
		return domain.ResolverSpec{
			Command: DefaultResolver.Command,
			Args:    slices.Clone(DefaultResolver.Args),
		}
	}
	return domain.ResolverSpec{Command: dto.Command, Args: dto.Args}
}

func resolvePath(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(root, p))
}

// resolvePackageDirs expands glob patterns to the sorted, deduplicated set of directories holding a
// package.json. Matches without one are skipped with a warning.
func (l *Loader) resolvePackageDirs(root string, patterns []string) ([]string, error) {
	dirs := make(map[string]struct{})

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "glob pattern failed"), "pattern", pattern)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(match, domain.PackageFileName)); err != nil {
				rel, _ := filepath.Rel(root, match)
				l.Logger.Warn(fmt.Sprintf("%s missing in %s, skipping", domain.PackageFileName, rel))
				continue
			}
			dirs[match] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(dirs)), nil
}

func (l *Loader) loadImports(root string, patterns []string) (map[string][]domain.ImportedPackage, error) {
	dirs, err := l.resolvePackageDirs(root, patterns)
	if err != nil {
		return nil, err
	}

	imports := make(map[string][]domain.ImportedPackage)
	for _, dir := range dirs {
		pkg, err := readPackageJSON(dir)
		if err != nil {
			return nil, err
		}
		if pkg.Name == "" {
			return nil, zerr.With(domain.ErrMissingModuleName, "directory", relOrAbs(root, dir))
		}
		imports[pkg.Name] = append(imports[pkg.Name], domain.ImportedPackage{
			Name:    pkg.Name,
			Version: pkg.Version,
			Dir:     dir,
		})
	}
	return imports, nil
}

func (l *Loader) loadModules(
	root string,
	patterns []string,
	imports map[string][]domain.ImportedPackage,
) ([]*domain.Module, error) {
	dirs, err := l.resolvePackageDirs(root, patterns)
	if err != nil {
		return nil, err
	}

	manifests := make([]*PackageJSON, 0, len(dirs))
	moduleDirs := make(map[string]string, len(dirs))
	for _, dir := range dirs {
		pkg, err := readPackageJSON(dir)
		if err != nil {
			return nil, err
		}
		relPath := relOrAbs(root, dir)
		if pkg.Name == "" {
			return nil, zerr.With(domain.ErrMissingModuleName, "directory", relPath)
		}
		if existing, exists := moduleDirs[pkg.Name]; exists {
			err := zerr.With(domain.ErrDuplicateModuleName, "module", pkg.Name)
			err = zerr.With(err, "first_occurrence", existing)
			return nil, zerr.With(err, "duplicate_at", relPath)
		}
		moduleDirs[pkg.Name] = relPath
		manifests = append(manifests, pkg)
	}

	modules := make([]*domain.Module, 0, len(manifests))
	for i, pkg := range manifests {
		modules = append(modules, classify(pkg, dirs[i], moduleDirs, imports))
	}
	return modules, nil
}

// classify splits the declared dependencies of a package into internal, imported and external ones.
func classify(
	pkg *PackageJSON,
	dir string,
	moduleDirs map[string]string,
	imports map[string][]domain.ImportedPackage,
) *domain.Module {
	m := &domain.Module{
		Name:    pkg.Name,
		Version: pkg.Version,
		Dir:     dir,
	}

	for _, dep := range mergeDependencies(pkg) {
		if _, isModule := moduleDirs[dep.Name]; isModule {
			m.Internal = append(m.Internal, dep)
			continue
		}
		if candidates, isImport := imports[dep.Name]; isImport {
			m.Imports = append(m.Imports, pickImport(candidates, dep.Range))
			continue
		}
		m.External = append(m.External, dep)
	}

	slices.SortFunc(m.Imports, func(a, b domain.ImportedPackage) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Version, b.Version))
	})
	return m
}

// mergeDependencies merges the dependency sections of a package.json, sorted by name.
// The first section declaring a name wins.
func mergeDependencies(pkg *PackageJSON) []domain.Dependency {
	seen := make(map[string]struct{})
	var deps []domain.Dependency
	for _, section := range []map[string]string{pkg.Dependencies, pkg.DevDependencies, pkg.OptionalDependencies} {
		for _, name := range slices.Sorted(maps.Keys(section)) {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			deps = append(deps, domain.Dependency{Name: name, Range: section[name]})
		}
	}
	slices.SortFunc(deps, func(a, b domain.Dependency) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return deps
}

// pickImport returns the imported package whose version equals rng, or the highest version otherwise.
func pickImport(candidates []domain.ImportedPackage, rng string) domain.ImportedPackage {
	if idx := slices.IndexFunc(candidates, func(p domain.ImportedPackage) bool {
		return p.Version == rng
	}); idx >= 0 {
		return candidates[idx]
	}
	return slices.MaxFunc(candidates, func(a, b domain.ImportedPackage) int {
		return semver.Compare("v"+a.Version, "v"+b.Version)
	})
}

func readPackageJSON(dir string) (*PackageJSON, error) {
	path := filepath.Join(dir, domain.PackageFileName)
	// #nosec G304 -- path is derived from the workfile globs
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", path)
	}

	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "path", path)
	}
	return &pkg, nil
}

func relOrAbs(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
