package shell_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/adapters/shell"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/lockstep/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestRunner_Run_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info("hello").Times(1)
	mockLogger.EXPECT().Warn("oops").Times(1)

	runner := shell.NewRunner(mockLogger)
	res, err := runner.Run(context.Background(), t.TempDir(),
		[]string{"sh", "-c", "echo hello; echo oops >&2"})
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\n", string(res.Stdout))
	assert.Equal(t, "oops\n", string(res.Stderr))
}

func TestRunner_Run_WorkingDir(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info(gomock.Any()).AnyTimes()

	dir := t.TempDir()
	runner := shell.NewRunner(mockLogger)
	_, err := runner.Run(context.Background(), dir, []string{"sh", "-c", "touch marker"})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "marker"))
}

func TestRunner_Run_NonZeroExit(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Warn("Couldn't find package").Times(1)

	runner := shell.NewRunner(mockLogger)
	res, err := runner.Run(context.Background(), t.TempDir(),
		[]string{"sh", "-c", "echo \"Couldn't find package\" >&2; exit 3"})
	require.NoError(t, err)

	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, string(res.Stderr), "Couldn't find package")
}

func TestRunner_Run_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := shell.NewRunner(mocks.NewMockLogger(ctrl))

	_, err := runner.Run(context.Background(), t.TempDir(), []string{"lockstep-no-such-binary"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run command")
}

func TestRunner_Run_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := shell.NewRunner(mocks.NewMockLogger(ctrl))

	_, err := runner.Run(context.Background(), t.TempDir(), nil)
	require.Error(t, err)
}

func TestRunner_Run_Cancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := shell.NewRunner(mocks.NewMockLogger(ctrl))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, t.TempDir(), []string{"sh", "-c", "sleep 5"})
	require.Error(t, err)
	assert.ErrorContains(t, err, context.Canceled.Error())
}

func TestRunner_Run_StreamsToVertex(t *testing.T) {
	ctrl := gomock.NewController(t)
	// No logger expectations: output goes to the vertex instead.
	runner := shell.NewRunner(mocks.NewMockLogger(ctrl))

	var stdout, stderr bytes.Buffer
	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Stdout().Return(&stdout)
	vertex.EXPECT().Stderr().Return(&stderr)

	ctx := ports.ContextWithVertex(context.Background(), vertex)
	res, err := runner.Run(ctx, t.TempDir(), []string{"sh", "-c", "echo out; echo err >&2"})
	require.NoError(t, err)

	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
	assert.Equal(t, "out\n", string(res.Stdout))
}

func TestRunner_Run_FiltersEnvironment(t *testing.T) {
	t.Setenv("LOCKSTEP_SECRET", "hunter2")
	t.Setenv("YARN_CACHE_FOLDER", "/tmp/yarn-cache")

	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Info(gomock.Any()).AnyTimes()

	runner := shell.NewRunner(mockLogger)
	res, err := runner.Run(context.Background(), t.TempDir(), []string{"sh", "-c", "env"})
	require.NoError(t, err)

	out := string(res.Stdout)
	assert.NotContains(t, out, "LOCKSTEP_SECRET")
	assert.Contains(t, out, "YARN_CACHE_FOLDER=/tmp/yarn-cache")
	assert.Contains(t, out, "PATH="+os.Getenv("PATH"))
}
