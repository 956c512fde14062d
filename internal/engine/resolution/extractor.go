package resolution

import (
	"cmp"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
)

// Extractor reads transitive dependency closures from the resolver's lock file.
type Extractor struct {
	parser ports.LockfileParser
}

// NewExtractor creates a new Extractor.
func NewExtractor(parser ports.LockfileParser) *Extractor {
	return &Extractor{parser: parser}
}

// Extract builds the closure of every external dependency declared by the modules.
func (e *Extractor) Extract(resolutionDir string, modules []*domain.Module) (map[string]*domain.ModuleClosure, error) {
	path := filepath.Join(resolutionDir, domain.LockFileName)
	// #nosec G304 -- path is the resolution directory's lock file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLockFormat.Error()), "path", path)
	}

	lock, err := e.parser.Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	closures := make(map[string]*domain.ModuleClosure, len(modules))
	for _, m := range modules {
		mc := &domain.ModuleClosure{
			Module:       m.Name,
			Dependencies: make(map[string]*domain.DependencyClosure, len(m.External)),
		}
		for _, dep := range m.External {
			dc, err := closureOf(lock, dep)
			if err != nil {
				return nil, zerr.With(err, "module", m.Name)
			}
			mc.Dependencies[dep.Name] = dc
		}
		closures[m.Name] = mc
	}
	return closures, nil
}

// closureOf walks the lock entries reachable from dep depth-first. Packages are visited once per
// name@version; when a name resolves to several versions the last one visited is kept, except for
// the name of dep itself, which always keeps the version dep resolved to.
func closureOf(lock *domain.Lockfile, dep domain.Dependency) (*domain.DependencyClosure, error) {
	root, ok := lock.Lookup(dep)
	if !ok {
		return nil, missingEntry(dep)
	}

	rootPkg := domain.ResolvedPackage{Name: root.Name, Version: root.Version}
	visited := map[domain.ResolvedPackage]struct{}{rootPkg: {}}
	byName := make(map[string]domain.ResolvedPackage)

	var walk func(entry *domain.LockEntry, parent domain.Dependency) error
	walk = func(entry *domain.LockEntry, parent domain.Dependency) error {
		visit := func(edge domain.Dependency, optional bool) error {
			child, ok := lock.Lookup(edge)
			if !ok {
				if optional {
					return nil
				}
				return zerr.With(missingEntry(edge), "required_by", parent.Selector())
			}
			pkg := domain.ResolvedPackage{Name: child.Name, Version: child.Version}
			if _, seen := visited[pkg]; seen {
				return nil
			}
			visited[pkg] = struct{}{}
			byName[pkg.Name.String()] = pkg
			return walk(child, edge)
		}

		for _, edge := range entry.Dependencies {
			if err := visit(edge, false); err != nil {
				return err
			}
		}
		for _, edge := range entry.OptionalDependencies {
			if err := visit(edge, true); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, dep); err != nil {
		return nil, err
	}
	delete(byName, rootPkg.Name.String())

	transitive := slices.Collect(maps.Values(byName))
	slices.SortFunc(transitive, func(a, b domain.ResolvedPackage) int {
		return cmp.Or(
			cmp.Compare(a.Name.String(), b.Name.String()),
			cmp.Compare(a.Version.String(), b.Version.String()),
		)
	})

	return &domain.DependencyClosure{
		Requested:  dep,
		Resolved:   rootPkg,
		Integrity:  root.Integrity,
		Transitive: transitive,
	}, nil
}

func missingEntry(dep domain.Dependency) error {
	err := zerr.With(domain.ErrLockFormat, "reason", "no lock entry")
	return zerr.With(err, "selector", dep.Selector())
}
