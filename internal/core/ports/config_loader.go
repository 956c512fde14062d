package ports

import "go.trai.ch/lockstep/internal/core/domain"

// WorkspaceLoader defines the interface for loading the workspace configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type WorkspaceLoader interface {
	// Load reads the workfile found from cwd upwards and every module manifest it references.
	Load(cwd string) (*domain.Workspace, error)

	// DiscoverRoot walks up from cwd to find the workspace root.
	// Returns the directory containing lockstep.work.yaml.
	DiscoverRoot(cwd string) (string, error)
}
