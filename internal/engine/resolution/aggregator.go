package resolution

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/lockstep/internal/fsutil"
	"go.trai.ch/zerr"
)

// Aggregator builds the root manifest that makes every module a workspace member.
type Aggregator struct {
	imports ports.ImportedPackageResolver
}

// NewAggregator creates a new Aggregator.
func NewAggregator(imports ports.ImportedPackageResolver) *Aggregator {
	return &Aggregator{imports: imports}
}

// Build returns the root manifest: module paths relative to resolutionDir in module order, followed by
// the selected imported packages, with the mutators applied in order.
// Imported packages are staged below resolutionDir as a side effect.
func (a *Aggregator) Build(
	id domain.RootIdentity,
	resolutionDir string,
	modules []*domain.Module,
	mutators []domain.ManifestMutator,
) (*domain.RootManifest, error) {
	manifest := domain.NewRootManifest(id)

	var imports []domain.ImportedPackage
	for _, m := range modules {
		rel, err := filepath.Rel(resolutionDir, m.Dir)
		if err != nil {
			err = zerr.Wrap(err, domain.ErrManifestWrite.Error())
			return nil, zerr.With(err, "module", m.Name)
		}
		manifest.Workspaces = append(manifest.Workspaces, filepath.ToSlash(rel))
		imports = append(imports, m.Imports...)
	}

	imported, err := a.imports.ResolveImports(resolutionDir, dedupeImports(imports))
	if err != nil {
		return nil, err
	}
	manifest.Workspaces = append(manifest.Workspaces, imported...)

	for _, mutate := range mutators {
		mutate(manifest)
	}

	return manifest, nil
}

// Write serializes the manifest to <resolutionDir>/package.json, replacing any previous one.
func (a *Aggregator) Write(resolutionDir string, manifest *domain.RootManifest) (string, error) {
	data, err := manifest.Encode()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(resolutionDir, domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrManifestWrite.Error()), "path", resolutionDir)
	}

	path := filepath.Join(resolutionDir, domain.PackageFileName)
	if err := fsutil.WriteFileAtomic(path, data, domain.FilePerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrManifestWrite.Error()), "path", path)
	}
	return path, nil
}

// dedupeImports drops repeated (name, version, dir) triples from modules sharing an import.
func dedupeImports(imports []domain.ImportedPackage) []domain.ImportedPackage {
	out := make([]domain.ImportedPackage, 0, len(imports))
	for _, imp := range imports {
		if !slices.Contains(out, imp) {
			out = append(out, imp)
		}
	}
	return out
}
