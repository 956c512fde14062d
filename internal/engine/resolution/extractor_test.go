package resolution_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/adapters/yarn"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/engine/resolution"
)

func extract(t *testing.T, lock string, modules ...*domain.Module) (map[string]*domain.ModuleClosure, error) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.LockFileName), []byte(lock), domain.FilePerm))
	return resolution.NewExtractor(yarn.NewLockfileParser()).Extract(dir, modules)
}

func packages(c *domain.DependencyClosure) []string {
	var out []string
	for _, p := range c.Packages() {
		out = append(out, p.String())
	}
	return out
}

func TestExtractor_ScenarioClosure(t *testing.T) {
	closures, err := extract(t, scenarioLock, appModule())
	require.NoError(t, err)

	require.Contains(t, closures, "app")
	dc := closures["app"].Dependencies["lib-x"]
	require.NotNil(t, dc)

	assert.Equal(t, domain.Dependency{Name: "lib-x", Range: "^1.0"}, dc.Requested)
	assert.Equal(t, domain.NewResolvedPackage("lib-x", "1.2.0"), dc.Resolved)
	assert.Equal(t, "sha512-x==", dc.Integrity)
	assert.Equal(t, []string{"lib-x@1.2.0", "lib-y@2.0.3"}, packages(dc))
}

func TestExtractor_ClosureIsComplete(t *testing.T) {
	lock := `a@^1:
  version "1.0.0"
  dependencies:
    b "^1"

b@^1:
  version "1.1.0"
  dependencies:
    c "^1"

c@^1:
  version "1.2.0"
`
	mod := &domain.Module{Name: "m", External: []domain.Dependency{{Name: "a", Range: "^1"}}}
	closures, err := extract(t, lock, mod)
	require.NoError(t, err)

	dc := closures["m"].Dependencies["a"]
	assert.Equal(t, []domain.ResolvedPackage{
		domain.NewResolvedPackage("b", "1.1.0"),
		domain.NewResolvedPackage("c", "1.2.0"),
	}, dc.Transitive)
}

func TestExtractor_Cycle(t *testing.T) {
	lock := `a@^1:
  version "1.0.0"
  dependencies:
    b "^1"

b@^1:
  version "1.0.0"
  dependencies:
    a "^1"
`
	mod := &domain.Module{Name: "m", External: []domain.Dependency{{Name: "a", Range: "^1"}}}
	closures, err := extract(t, lock, mod)
	require.NoError(t, err)

	assert.Equal(t, []string{"a@1.0.0", "b@1.0.0"}, packages(closures["m"].Dependencies["a"]))
}

func TestExtractor_MissingRequiredEdge(t *testing.T) {
	lock := `a@^1:
  version "1.0.0"
  dependencies:
    ghost "^3"
`
	mod := &domain.Module{Name: "m", External: []domain.Dependency{{Name: "a", Range: "^1"}}}
	_, err := extract(t, lock, mod)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrLockFormat.Error())
}

func TestExtractor_MissingDeclaredDependency(t *testing.T) {
	mod := &domain.Module{Name: "m", External: []domain.Dependency{{Name: "lib-x", Range: "^2.0"}}}
	_, err := extract(t, scenarioLock, mod)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrLockFormat.Error())
}

func TestExtractor_MissingOptionalEdgeIsSkipped(t *testing.T) {
	lock := `a@^1:
  version "1.0.0"
  optionalDependencies:
    fsevents "^2"
`
	mod := &domain.Module{Name: "m", External: []domain.Dependency{{Name: "a", Range: "^1"}}}
	closures, err := extract(t, lock, mod)
	require.NoError(t, err)
	assert.Empty(t, closures["m"].Dependencies["a"].Transitive)
}

func TestExtractor_OneVersionPerName(t *testing.T) {
	lock := `a@^1:
  version "1.0.0"
  dependencies:
    b "^1"
    c "^1"

b@^1:
  version "1.0.0"
  dependencies:
    d "^1"

c@^1:
  version "1.0.0"
  dependencies:
    d "^2"

d@^1:
  version "1.5.0"

d@^2:
  version "2.1.0"
`
	mod := &domain.Module{Name: "m", External: []domain.Dependency{{Name: "a", Range: "^1"}}}
	closures, err := extract(t, lock, mod)
	require.NoError(t, err)

	// d is reached at 1.5.0 first and at 2.1.0 last; the last visit wins.
	assert.Equal(t, []string{"a@1.0.0", "b@1.0.0", "c@1.0.0", "d@2.1.0"}, packages(closures["m"].Dependencies["a"]))
}

func TestExtractor_RootNameReachedAtOtherVersion(t *testing.T) {
	lock := `lib-x@^1.0:
  version "1.2.0"
  dependencies:
    lib-b "^1"

lib-b@^1:
  version "1.0.0"
  dependencies:
    lib-x "^0.9"

lib-x@^0.9:
  version "0.9.1"
`
	closures, err := extract(t, lock, appModule())
	require.NoError(t, err)

	dc := closures["app"].Dependencies["lib-x"]
	require.NotNil(t, dc)
	assert.Equal(t, domain.NewResolvedPackage("lib-x", "1.2.0"), dc.Resolved)
	assert.Equal(t, []domain.ResolvedPackage{domain.NewResolvedPackage("lib-b", "1.0.0")}, dc.Transitive)
	assert.Equal(t, []string{"lib-b@1.0.0", "lib-x@1.2.0"}, packages(dc), "one version per name")
}

func TestExtractor_ModuleWithoutExternals(t *testing.T) {
	closures, err := extract(t, scenarioLock, &domain.Module{Name: "docs"})
	require.NoError(t, err)
	require.Contains(t, closures, "docs")
	assert.Empty(t, closures["docs"].Dependencies)
}

func TestExtractor_MissingLockFile(t *testing.T) {
	_, err := resolution.NewExtractor(yarn.NewLockfileParser()).Extract(t.TempDir(), []*domain.Module{appModule()})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrLockFormat.Error())
}
