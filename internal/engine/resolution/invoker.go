package resolution

import (
	"context"
	"path/filepath"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
)

// OperationDescription describes a resolver run for logs and telemetry.
func OperationDescription(resolver domain.ResolverSpec) string {
	return "Resolving NPM dependencies using " + filepath.Base(resolver.Command)
}

// Invoker runs the external resolver in the resolution directory. It holds no state between calls.
type Invoker struct {
	runner ports.CommandRunner
	logger ports.Logger
}

// NewInvoker creates a new Invoker.
func NewInvoker(runner ports.CommandRunner, logger ports.Logger) *Invoker {
	return &Invoker{runner: runner, logger: logger}
}

// Invoke runs the resolver and blocks until it exits.
// A failure to start, a cancelled context or a non-zero exit yields a *domain.ResolverError.
func (i *Invoker) Invoke(ctx context.Context, resolutionDir string, resolver domain.ResolverSpec, description string) error {
	i.logger.Info(description)

	argv := resolver.Argv()
	res, err := i.runner.Run(ctx, resolutionDir, argv)

	resolverErr := &domain.ResolverError{
		Command:  argv,
		Dir:      resolutionDir,
		ExitCode: -1,
		Err:      err,
	}
	if res != nil {
		resolverErr.ExitCode = res.ExitCode
		resolverErr.Stdout = string(res.Stdout)
		resolverErr.Stderr = string(res.Stderr)
	}

	if err != nil || res == nil || res.ExitCode != 0 {
		return resolverErr
	}
	return nil
}
