// Package fs computes module fingerprints.
package fs

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Fingerprinter = (*Hasher)(nil)

// Hasher fingerprints module dependency declarations with xxhash.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// Fingerprint hashes the module name and its external, internal and imported declarations.
// Each list is sorted first so declaration order does not matter. Imported packages also
// contribute the content of their package.json, since their own dependencies take part in
// the resolution.
func (h *Hasher) Fingerprint(module *domain.Module) (string, error) {
	if err := validate(module); err != nil {
		return "", err
	}

	hasher := xxhash.New()

	_, _ = hasher.WriteString(module.Name)
	_, _ = hasher.Write([]byte{0})

	hashDependencies(hasher, module.External)
	hashDependencies(hasher, module.Internal)

	imports := slices.Clone(module.Imports)
	slices.SortFunc(imports, func(a, b domain.ImportedPackage) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Version, b.Version))
	})
	for _, imp := range imports {
		_, _ = hasher.WriteString(imp.Name)
		_, _ = hasher.Write([]byte{'@'})
		_, _ = hasher.WriteString(imp.Version)
		_, _ = hasher.Write([]byte{0})

		content, err := h.ComputeFileHash(filepath.Join(imp.Dir, domain.PackageFileName))
		if err != nil {
			err = zerr.Wrap(err, domain.ErrFingerprintFailed.Error())
			err = zerr.With(err, "module", module.Name)
			return "", zerr.With(err, "import", imp.Name)
		}
		if err := binary.Write(hasher, binary.LittleEndian, content); err != nil {
			return "", zerr.Wrap(err, "failed to write hash to digest")
		}
	}
	_, _ = hasher.Write([]byte{0})

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// FingerprintWorkspace hashes the root manifest produced by the workspace mutators on its own,
// without module workspaces, together with the resolver command line.
func (h *Hasher) FingerprintWorkspace(ws *domain.Workspace) (string, error) {
	manifest := domain.NewRootManifest(ws.Identity)
	for _, mutate := range ws.Mutators {
		mutate(manifest)
	}
	data, err := manifest.Encode()
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrFingerprintFailed.Error()), "root", ws.Root)
	}

	hasher := xxhash.New()
	_, _ = hasher.Write(data)
	_, _ = hasher.Write([]byte{0})
	for _, arg := range ws.Resolver.Argv() {
		_, _ = hasher.WriteString(arg)
		_, _ = hasher.Write([]byte{0})
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

func hashDependencies(hasher *xxhash.Digest, deps []domain.Dependency) {
	sorted := slices.Clone(deps)
	slices.SortFunc(sorted, func(a, b domain.Dependency) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Range, b.Range))
	})
	for _, dep := range sorted {
		_, _ = hasher.WriteString(dep.Name)
		_, _ = hasher.Write([]byte{'@'})
		_, _ = hasher.WriteString(dep.Range)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator
}

func validate(module *domain.Module) error {
	if module == nil || module.Name == "" {
		return zerr.With(domain.ErrFingerprintFailed, "reason", "module has no name")
	}
	for _, deps := range [][]domain.Dependency{module.External, module.Internal} {
		for _, dep := range deps {
			if dep.Name == "" {
				err := zerr.With(domain.ErrFingerprintFailed, "module", module.Name)
				return zerr.With(err, "reason", "dependency without a name")
			}
		}
	}
	return nil
}
