// Package ports defines the core interfaces for the application.
package ports

import "context"

// CommandResult is the outcome of a finished process.
type CommandResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// CommandRunner runs external processes.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type CommandRunner interface {
	// Run executes args[0] with the remaining arguments in dir and blocks until it exits.
	//
	// A process that starts and exits non-zero is not an error: the exit code is reported in the result.
	// An error is returned when the process cannot be started or the context is cancelled, in which
	// case the result still carries any output captured so far.
	Run(ctx context.Context, dir string, args []string) (*CommandResult, error)
}
