package yarn

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockstep/internal/core/ports"
)

const (
	// LockfileParserNodeID is the unique identifier for the lock file parser Graft node.
	LockfileParserNodeID graft.ID = "adapter.yarn.lockfile"
	// ImportResolverNodeID is the unique identifier for the imported package resolver Graft node.
	ImportResolverNodeID graft.ID = "adapter.yarn.imports"
)

func init() {
	graft.Register(graft.Node[ports.LockfileParser]{
		ID:        LockfileParserNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.LockfileParser, error) {
			return NewLockfileParser(), nil
		},
	})

	graft.Register(graft.Node[ports.ImportedPackageResolver]{
		ID:        ImportResolverNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ImportedPackageResolver, error) {
			return NewImportResolver(), nil
		},
	})
}
