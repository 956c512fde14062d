package resolution_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/lockstep/internal/core/ports/mocks"
	"go.trai.ch/lockstep/internal/engine/resolution"
	"go.uber.org/mock/gomock"
)

func TestOperationDescription(t *testing.T) {
	assert.Equal(t,
		"Resolving NPM dependencies using yarn",
		resolution.OperationDescription(domain.ResolverSpec{Command: "/usr/local/bin/yarn"}),
	)
}

func TestInvoker_Invoke(t *testing.T) {
	resolver := domain.ResolverSpec{Command: "yarn", Args: []string{"install", "--non-interactive"}}
	description := resolution.OperationDescription(resolver)
	startErr := errors.New("executable not found")

	tests := []struct {
		name     string
		result   *ports.CommandResult
		runErr   error
		wantErr  bool
		wantCode int
		wantOut  string
	}{
		{
			name:   "success",
			result: &ports.CommandResult{Stdout: []byte("done")},
		},
		{
			name:     "non-zero exit",
			result:   &ports.CommandResult{ExitCode: 1, Stderr: []byte("error Couldn't find package")},
			wantErr:  true,
			wantCode: 1,
			wantOut:  "error Couldn't find package",
		},
		{
			name:     "failed to start",
			runErr:   startErr,
			wantErr:  true,
			wantCode: -1,
		},
		{
			name:     "no result",
			wantErr:  true,
			wantCode: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			runner := mocks.NewMockCommandRunner(ctrl)
			log := mocks.NewMockLogger(ctrl)

			log.EXPECT().Info(description)
			runner.EXPECT().
				Run(gomock.Any(), "/ws/build/js", []string{"yarn", "install", "--non-interactive"}).
				Return(tt.result, tt.runErr)

			err := resolution.NewInvoker(runner, log).Invoke(context.Background(), "/ws/build/js", resolver, description)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			require.ErrorIs(t, err, domain.ErrResolverFailed)

			var resolverErr *domain.ResolverError
			require.ErrorAs(t, err, &resolverErr)
			assert.Equal(t, tt.wantCode, resolverErr.ExitCode)
			assert.Equal(t, "/ws/build/js", resolverErr.Dir)
			assert.Equal(t, tt.wantOut, resolverErr.Stderr)
			if tt.runErr != nil {
				assert.ErrorIs(t, err, tt.runErr)
			}
		})
	}
}
