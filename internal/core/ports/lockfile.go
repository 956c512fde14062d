package ports

import "go.trai.ch/lockstep/internal/core/domain"

// LockfileParser decodes the lock output of the external resolver.
//
//go:generate go run go.uber.org/mock/mockgen -source=lockfile.go -destination=mocks/mock_lockfile.go -package=mocks
type LockfileParser interface {
	// Parse decodes the lock file content.
	Parse(data []byte) (*domain.Lockfile, error)
}
