package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/adapters/fs"
	"go.trai.ch/lockstep/internal/core/domain"
)

func newModule() *domain.Module {
	return &domain.Module{
		Name: "app",
		Dir:  "/ws/packages/app",
		External: []domain.Dependency{
			{Name: "lib-x", Range: "^1.0"},
			{Name: "lib-y", Range: "~2.0.0"},
		},
		Internal: []domain.Dependency{
			{Name: "lib", Range: "*"},
		},
	}
}

func TestHasher_Fingerprint_Deterministic(t *testing.T) {
	t.Parallel()

	hasher := fs.NewHasher()

	first, err := hasher.Fingerprint(newModule())
	require.NoError(t, err)
	second, err := hasher.Fingerprint(newModule())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 16)
}

func TestHasher_Fingerprint_OrderInsensitive(t *testing.T) {
	t.Parallel()

	hasher := fs.NewHasher()

	reordered := newModule()
	reordered.External[0], reordered.External[1] = reordered.External[1], reordered.External[0]

	want, err := hasher.Fingerprint(newModule())
	require.NoError(t, err)
	got, err := hasher.Fingerprint(reordered)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestHasher_Fingerprint_IgnoresLocation(t *testing.T) {
	t.Parallel()

	hasher := fs.NewHasher()

	moved := newModule()
	moved.Dir = "/elsewhere"
	moved.Version = "9.9.9"

	want, err := hasher.Fingerprint(newModule())
	require.NoError(t, err)
	got, err := hasher.Fingerprint(moved)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestHasher_Fingerprint_Changes(t *testing.T) {
	t.Parallel()

	hasher := fs.NewHasher()
	base, err := hasher.Fingerprint(newModule())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(m *domain.Module)
	}{
		{"range change", func(m *domain.Module) { m.External[0].Range = "^1.1" }},
		{"added dependency", func(m *domain.Module) {
			m.External = append(m.External, domain.Dependency{Name: "lib-z", Range: "1.0.0"})
		}},
		{"removed dependency", func(m *domain.Module) { m.External = m.External[:1] }},
		{"renamed module", func(m *domain.Module) { m.Name = "app2" }},
		{"internal moved to external", func(m *domain.Module) {
			m.External = append(m.External, m.Internal...)
			m.Internal = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newModule()
			tt.mutate(m)

			got, err := hasher.Fingerprint(m)
			require.NoError(t, err)
			assert.NotEqual(t, base, got)
		})
	}
}

func TestHasher_Fingerprint_ImportContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	manifest := filepath.Join(dir, domain.PackageFileName)
	require.NoError(t, os.WriteFile(manifest, []byte(`{"name":"kotlin","version":"1.9.0"}`), domain.FilePerm))

	hasher := fs.NewHasher()
	m := newModule()
	m.Imports = []domain.ImportedPackage{{Name: "kotlin", Version: "1.9.0", Dir: dir}}

	before, err := hasher.Fingerprint(m)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(manifest,
		[]byte(`{"name":"kotlin","version":"1.9.0","dependencies":{"a":"1"}}`), domain.FilePerm))

	after, err := hasher.Fingerprint(m)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestHasher_Fingerprint_MissingImportManifest(t *testing.T) {
	t.Parallel()

	m := newModule()
	m.Imports = []domain.ImportedPackage{{Name: "kotlin", Version: "1.9.0", Dir: t.TempDir()}}

	_, err := fs.NewHasher().Fingerprint(m)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrFingerprintFailed.Error())
}

func TestHasher_Fingerprint_InvalidDeclaration(t *testing.T) {
	t.Parallel()

	m := newModule()
	m.External = append(m.External, domain.Dependency{Range: "^1.0"})

	_, err := fs.NewHasher().Fingerprint(m)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrFingerprintFailed.Error())

	_, err = fs.NewHasher().Fingerprint(&domain.Module{})
	require.Error(t, err)
}

func newWorkspace() *domain.Workspace {
	return &domain.Workspace{
		Root:     "/ws",
		Identity: domain.RootIdentity{Name: "acme", Version: "1.0.0"},
		Resolver: domain.ResolverSpec{Command: "yarn", Args: []string{"install"}},
		Modules:  []*domain.Module{newModule()},
	}
}

func TestHasher_FingerprintWorkspace(t *testing.T) {
	t.Parallel()

	hasher := fs.NewHasher()
	base, err := hasher.FingerprintWorkspace(newWorkspace())
	require.NoError(t, err)
	assert.Len(t, base, 16)

	again, err := hasher.FingerprintWorkspace(newWorkspace())
	require.NoError(t, err)
	assert.Equal(t, base, again)

	tests := []struct {
		name   string
		mutate func(ws *domain.Workspace)
	}{
		{"identity", func(ws *domain.Workspace) { ws.Identity.Version = "2.0.0" }},
		{"resolver args", func(ws *domain.Workspace) { ws.Resolver.Args = []string{"install", "--frozen-lockfile"} }},
		{"resolver command", func(ws *domain.Workspace) { ws.Resolver.Command = "/opt/yarn" }},
		{"resolutions", func(ws *domain.Workspace) {
			ws.Mutators = append(ws.Mutators, func(m *domain.RootManifest) {
				m.SetExtension("resolutions", map[string]string{"lib-y": "2.0.4"})
			})
		}},
		{"root dependency", func(ws *domain.Workspace) {
			ws.Mutators = append(ws.Mutators, func(m *domain.RootManifest) { m.AddDependency("lib-z", "^3.0") })
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ws := newWorkspace()
			tt.mutate(ws)
			got, err := hasher.FingerprintWorkspace(ws)
			require.NoError(t, err)
			assert.NotEqual(t, base, got)
		})
	}
}

func TestHasher_FingerprintWorkspace_IgnoresModules(t *testing.T) {
	t.Parallel()

	hasher := fs.NewHasher()
	want, err := hasher.FingerprintWorkspace(newWorkspace())
	require.NoError(t, err)

	ws := newWorkspace()
	ws.Modules = append(ws.Modules, &domain.Module{Name: "docs"})
	got, err := hasher.FingerprintWorkspace(ws)
	require.NoError(t, err)

	assert.Equal(t, want, got, "module changes are covered by the module fingerprints")
}

func TestHasher_FingerprintWorkspace_ReservedField(t *testing.T) {
	t.Parallel()

	ws := newWorkspace()
	ws.Mutators = []domain.ManifestMutator{func(m *domain.RootManifest) { m.SetExtension("name", "shadow") }}

	_, err := fs.NewHasher().FingerprintWorkspace(ws)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrFingerprintFailed.Error())
	assert.ErrorContains(t, err, domain.ErrReservedManifestField.Error())
}
