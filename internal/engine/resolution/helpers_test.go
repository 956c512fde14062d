package resolution_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/adapters/cas"
	"go.trai.ch/lockstep/internal/adapters/fs"
	"go.trai.ch/lockstep/internal/adapters/telemetry"
	"go.trai.ch/lockstep/internal/adapters/yarn"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/lockstep/internal/core/ports/mocks"
	"go.trai.ch/lockstep/internal/engine/resolution"
	"go.uber.org/mock/gomock"
)

// scenarioLock resolves app -> lib-x@^1.0 -> lib-y@^2.0.
const scenarioLock = `# yarn lockfile v1


lib-x@^1.0:
  version "1.2.0"
  resolved "https://registry.yarnpkg.com/lib-x/-/lib-x-1.2.0.tgz"
  integrity sha512-x==
  dependencies:
    lib-y "^2.0"

lib-y@^2.0:
  version "2.0.3"
  resolved "https://registry.yarnpkg.com/lib-y/-/lib-y-2.0.3.tgz"
  integrity sha512-y==
`

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	return log
}

// newWorkspace lays out a workspace with one directory per module below root/packages.
func newWorkspace(t *testing.T, modules ...*domain.Module) *domain.Workspace {
	t.Helper()

	root := t.TempDir()
	for _, m := range modules {
		m.Dir = filepath.Join(root, "packages", m.Name)
		require.NoError(t, os.MkdirAll(m.Dir, domain.DirPerm))
	}
	return &domain.Workspace{
		Root:          root,
		Identity:      domain.RootIdentity{Name: "acme", Version: "1.0.0"},
		ResolutionDir: filepath.Join(root, "build", "js"),
		Resolver:      domain.ResolverSpec{Command: "yarn", Args: []string{"install"}},
		Modules:       modules,
	}
}

func appModule() *domain.Module {
	return &domain.Module{
		Name:     "app",
		Version:  "1.0.0",
		External: []domain.Dependency{{Name: "lib-x", Range: "^1.0"}},
	}
}

// writesLock makes a fake resolver run that writes the given lock file into its working directory.
func writesLock(lock string) func(context.Context, string, []string) (*ports.CommandResult, error) {
	return func(_ context.Context, dir string, _ []string) (*ports.CommandResult, error) {
		if err := os.WriteFile(filepath.Join(dir, domain.LockFileName), []byte(lock), domain.FilePerm); err != nil {
			return nil, err
		}
		return &ports.CommandResult{Stdout: []byte("success Saved lockfile.\n")}, nil
	}
}

type harness struct {
	orchestrator *resolution.Orchestrator
	runner       *mocks.MockCommandRunner
	store        *cas.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)
	log := quietLogger(ctrl)
	runner := mocks.NewMockCommandRunner(ctrl)
	store := cas.NewStore()

	return &harness{
		orchestrator: resolution.NewOrchestrator(
			resolution.NewUpToDateCache(fs.NewHasher(), store, log),
			resolution.NewAggregator(yarn.NewImportResolver()),
			resolution.NewInvoker(runner, log),
			resolution.NewExtractor(yarn.NewLockfileParser()),
			telemetry.NewNoOp(),
			log,
		),
		runner: runner,
		store:  store,
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
