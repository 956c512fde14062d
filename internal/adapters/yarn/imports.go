package yarn

import (
	"bytes"
	"cmp"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/lockstep/internal/fsutil"
	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

var _ ports.ImportedPackageResolver = (*ImportResolver)(nil)

var dependencySections = []string{"dependencies", "devDependencies", "optionalDependencies", "peerDependencies"}

// ImportResolver selects one version of every imported package and stages it as a workspace member.
type ImportResolver struct{}

// NewImportResolver creates a new ImportResolver.
func NewImportResolver() *ImportResolver {
	return &ImportResolver{}
}

// ResolveImports picks the highest semver of each imported package name and copies it to
// <resolutionDir>/imported/<name>. Dependencies between imported packages are rewritten to the
// selected versions in the copies. The vendored sources are never modified.
func (r *ImportResolver) ResolveImports(resolutionDir string, imports []domain.ImportedPackage) ([]string, error) {
	stagingDir := filepath.Join(resolutionDir, domain.ImportedDirName)
	if err := os.RemoveAll(stagingDir); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrImportResolutionFailed.Error()), "path", stagingDir)
	}
	if len(imports) == 0 {
		return nil, nil
	}

	selected, err := selectVersions(imports)
	if err != nil {
		return nil, err
	}

	versions := make(map[string]string, len(selected))
	for _, pkg := range selected {
		versions[pkg.Name] = pkg.Version
	}

	paths := make([]string, 0, len(selected))
	for _, pkg := range selected {
		target := filepath.Join(stagingDir, filepath.FromSlash(pkg.Name))
		if err := copyTree(pkg.Dir, target); err != nil {
			err = zerr.Wrap(err, domain.ErrImportResolutionFailed.Error())
			return nil, zerr.With(err, "package", pkg.Name)
		}
		if err := pinImportedDependencies(filepath.Join(target, domain.PackageFileName), versions); err != nil {
			return nil, zerr.With(err, "package", pkg.Name)
		}

		rel, err := filepath.Rel(resolutionDir, target)
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrImportResolutionFailed.Error())
		}
		paths = append(paths, filepath.ToSlash(rel))
	}
	return paths, nil
}

// selectVersions returns the highest version per package name, sorted by name.
func selectVersions(imports []domain.ImportedPackage) ([]domain.ImportedPackage, error) {
	best := make(map[string]domain.ImportedPackage)
	for _, pkg := range imports {
		v := canonical(pkg.Version)
		if v == "" {
			err := zerr.With(domain.ErrInvalidImportVersion, "package", pkg.Name)
			return nil, zerr.With(err, "version", pkg.Version)
		}
		cur, ok := best[pkg.Name]
		if !ok || semver.Compare(v, canonical(cur.Version)) > 0 {
			best[pkg.Name] = pkg
		}
	}

	out := make([]domain.ImportedPackage, 0, len(best))
	for _, pkg := range best {
		out = append(out, pkg)
	}
	slices.SortFunc(out, func(a, b domain.ImportedPackage) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out, nil
}

// canonical converts an npm version to the "v"-prefixed form x/mod/semver expects.
// It returns "" for invalid versions.
func canonical(version string) string {
	v := "v" + version
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

func pinImportedDependencies(path string, versions map[string]string) error {
	data, err := os.ReadFile(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", path)
	}

	var manifest map[string]json.RawMessage
	if err := json.Unmarshal(data, &manifest); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "path", path)
	}

	changed := false
	for _, section := range dependencySections {
		raw, ok := manifest[section]
		if !ok {
			continue
		}
		var deps map[string]string
		if err := json.Unmarshal(raw, &deps); err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "path", path)
			return zerr.With(err, "section", section)
		}
		sectionChanged := false
		for name, rng := range deps {
			if v, imported := versions[name]; imported && rng != v {
				deps[name] = v
				sectionChanged = true
			}
		}
		if !sectionChanged {
			continue
		}
		encoded, err := json.Marshal(deps)
		if err != nil {
			return zerr.Wrap(err, domain.ErrImportResolutionFailed.Error())
		}
		manifest[section] = encoded
		changed = true
	}
	if !changed {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return zerr.Wrap(err, domain.ErrImportResolutionFailed.Error())
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrImportResolutionFailed.Error()), "path", path)
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			if d.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return os.MkdirAll(target, domain.DirPerm)
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path) //nolint:gosec // Path is derived from the walk
			if err != nil {
				return err
			}
			return os.WriteFile(target, data, info.Mode().Perm())
		default:
			// Symlinks and special files are not staged.
			return nil
		}
	})
}
