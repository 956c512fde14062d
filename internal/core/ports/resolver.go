package ports

import "go.trai.ch/lockstep/internal/core/domain"

// ImportedPackageResolver turns the vendored packages consumed by modules into workspace members.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type ImportedPackageResolver interface {
	// ResolveImports selects one version per imported package name and returns the selected
	// directories relative to resolutionDir, in slash form and in a stable order.
	ResolveImports(resolutionDir string, imports []domain.ImportedPackage) ([]string, error)
}
