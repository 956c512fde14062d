package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/adapters/config"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func createFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), domain.PrivateFilePerm))
}

const acmeWorkfile = `
version: "1"
workspace:
  name: acme
  version: 1.0.0
modules: ["packages/*"]
imports: ["vendor/*/*"]
scripts:
  postinstall: node check.js
resolutions:
  lib-y: ">=2.0.3"
dependencies:
  typescript: ^5.0
extra:
  packageManager: yarn@1.22.19
`

func setupAcme(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	createFile(t, root, domain.WorkFileName, acmeWorkfile)
	createFile(t, filepath.Join(root, "packages", "app"), domain.PackageFileName, `{
  "name": "app",
  "version": "1.0.0",
  "dependencies": {"lib": "*", "lib-x": "^1.0", "kotlin-stdlib": "1.9.0"},
  "devDependencies": {"lib-x": "^9.9", "jest": "^29.0.0"}
}`)
	createFile(t, filepath.Join(root, "packages", "lib"), domain.PackageFileName, `{
  "name": "lib",
  "version": "1.0.0",
  "optionalDependencies": {"lib-y": "~2.0.0"}
}`)
	createFile(t, filepath.Join(root, "vendor", "kotlin-stdlib", "1.9.0"), domain.PackageFileName,
		`{"name": "kotlin-stdlib", "version": "1.9.0"}`)
	createFile(t, filepath.Join(root, "vendor", "kotlin-stdlib", "1.10.0"), domain.PackageFileName,
		`{"name": "kotlin-stdlib", "version": "1.10.0"}`)
	return root
}

func TestLoader_Load_Workspace(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	root := setupAcme(t)
	ws, err := config.NewLoader(mockLogger).Load(filepath.Join(root, "packages", "app"))
	require.NoError(t, err)

	assert.Equal(t, root, ws.Root)
	assert.Equal(t, domain.RootIdentity{Name: "acme", Version: "1.0.0"}, ws.Identity)
	assert.Equal(t, filepath.Join(root, "build", "js"), ws.ResolutionDir)
	assert.Equal(t, config.DefaultResolver, ws.Resolver)
	assert.Equal(t, []string{"app", "lib"}, ws.ModuleNames())

	app, ok := ws.Module("app")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "packages", "app"), app.Dir)
	assert.Equal(t, []domain.Dependency{
		{Name: "jest", Range: "^29.0.0"},
		{Name: "lib-x", Range: "^1.0"},
	}, app.External)
	assert.Equal(t, []domain.Dependency{{Name: "lib", Range: "*"}}, app.Internal)
	assert.Equal(t, []domain.ImportedPackage{{
		Name:    "kotlin-stdlib",
		Version: "1.9.0",
		Dir:     filepath.Join(root, "vendor", "kotlin-stdlib", "1.9.0"),
	}}, app.Imports)

	lib, ok := ws.Module("lib")
	require.True(t, ok)
	assert.Equal(t, []domain.Dependency{{Name: "lib-y", Range: "~2.0.0"}}, lib.External)
	assert.Empty(t, lib.Internal)
}

func TestLoader_Load_Mutators(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	ws, err := config.NewLoader(mockLogger).Load(setupAcme(t))
	require.NoError(t, err)

	m := domain.NewRootManifest(ws.Identity)
	for _, mutate := range ws.Mutators {
		mutate(m)
	}

	assert.Equal(t, map[string]string{"typescript": "^5.0"}, m.Dependencies)
	assert.Equal(t, map[string]any{
		"scripts":        map[string]string{"postinstall": "node check.js"},
		"resolutions":    map[string]string{"lib-y": ">=2.0.3"},
		"packageManager": "yarn@1.22.19",
	}, m.Extensions)
}

func TestLoader_Load_Defaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	root := filepath.Join(t.TempDir(), "monorepo")
	createFile(t, root, domain.WorkFileName, `
resolutionDir: out/npm
resolver:
  command: pnpm
  args: [install]
modules: ["app"]
`)
	createFile(t, filepath.Join(root, "app"), domain.PackageFileName, `{"name": "app"}`)

	ws, err := config.NewLoader(mockLogger).Load(root)
	require.NoError(t, err)

	assert.Equal(t, domain.RootIdentity{Name: "monorepo", Version: domain.DefaultRootVersion}, ws.Identity)
	assert.Equal(t, filepath.Join(root, "out", "npm"), ws.ResolutionDir)
	assert.Equal(t, []string{"pnpm", "install"}, ws.Resolver.Argv())
	assert.Empty(t, ws.Mutators)
}

func TestLoader_Load_SkipsMissingPackageJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn("package.json missing in packages/docs, skipping").Times(1)

	root := t.TempDir()
	createFile(t, root, domain.WorkFileName, `modules: ["packages/*"]`)
	createFile(t, filepath.Join(root, "packages", "app"), domain.PackageFileName, `{"name": "app"}`)
	createFile(t, filepath.Join(root, "packages", "docs"), "README.md", "# docs")

	ws, err := config.NewLoader(mockLogger).Load(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, ws.ModuleNames())
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, root string)
		wantErr error
	}{
		{
			name: "missing module name",
			setup: func(t *testing.T, root string) {
				createFile(t, filepath.Join(root, "packages", "app"), domain.PackageFileName, `{"version": "1.0.0"}`)
			},
			wantErr: domain.ErrMissingModuleName,
		},
		{
			name: "duplicate module name",
			setup: func(t *testing.T, root string) {
				createFile(t, filepath.Join(root, "packages", "a"), domain.PackageFileName, `{"name": "app"}`)
				createFile(t, filepath.Join(root, "packages", "b"), domain.PackageFileName, `{"name": "app"}`)
			},
			wantErr: domain.ErrDuplicateModuleName,
		},
		{
			name: "invalid package.json",
			setup: func(t *testing.T, root string) {
				createFile(t, filepath.Join(root, "packages", "app"), domain.PackageFileName, `{"name": `)
			},
			wantErr: domain.ErrManifestParseFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockLogger := mocks.NewMockLogger(ctrl)

			root := t.TempDir()
			createFile(t, root, domain.WorkFileName, `modules: ["packages/*"]`)
			tt.setup(t, root)

			_, err := config.NewLoader(mockLogger).Load(root)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr.Error())
		})
	}
}

func TestLoader_Load_InvalidWorkfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)

	root := t.TempDir()
	createFile(t, root, domain.WorkFileName, "modules: [unclosed")

	_, err := config.NewLoader(mockLogger).Load(root)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrConfigParseFailed.Error())
}

func TestLoader_DiscoverRoot(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := config.NewLoader(mocks.NewMockLogger(ctrl))

	root := setupAcme(t)
	deep := filepath.Join(root, "packages", "app", "src", "main")
	require.NoError(t, os.MkdirAll(deep, domain.DirPerm))

	got, err := loader.DiscoverRoot(deep)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	_, err = loader.DiscoverRoot(t.TempDir())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrConfigNotFound.Error())
}
