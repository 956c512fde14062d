package ports

import "go.trai.ch/lockstep/internal/core/domain"

// Fingerprinter derives change-detection values from module declarations.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Fingerprinter interface {
	// Fingerprint returns a value that changes whenever a declared dependency of the module changes.
	// Identical declarations always yield the same value regardless of declaration order.
	Fingerprint(module *domain.Module) (string, error)

	// FingerprintWorkspace returns a value that changes whenever the root manifest fields or the
	// resolver command line of the workspace change.
	FingerprintWorkspace(ws *domain.Workspace) (string, error)
}
