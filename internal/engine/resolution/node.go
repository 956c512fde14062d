package resolution

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/lockstep/internal/adapters/cas"
	"go.trai.ch/lockstep/internal/adapters/fs"
	"go.trai.ch/lockstep/internal/adapters/logger"
	"go.trai.ch/lockstep/internal/adapters/shell"
	"go.trai.ch/lockstep/internal/adapters/telemetry/progrock"
	"go.trai.ch/lockstep/internal/adapters/yarn"
	"go.trai.ch/lockstep/internal/core/ports"
)

// NodeID is the unique identifier for the orchestrator Graft node.
const NodeID graft.ID = "engine.resolution"

func init() {
	graft.Register(graft.Node[*Orchestrator]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			fs.HasherNodeID,
			cas.NodeID,
			yarn.ImportResolverNodeID,
			yarn.LockfileParserNodeID,
			shell.NodeID,
			progrock.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Orchestrator, error) {
			hasher, err := graft.Dep[ports.Fingerprinter](ctx)
			if err != nil {
				return nil, err
			}
			store, err := graft.Dep[ports.FingerprintStore](ctx)
			if err != nil {
				return nil, err
			}
			imports, err := graft.Dep[ports.ImportedPackageResolver](ctx)
			if err != nil {
				return nil, err
			}
			parser, err := graft.Dep[ports.LockfileParser](ctx)
			if err != nil {
				return nil, err
			}
			runner, err := graft.Dep[ports.CommandRunner](ctx)
			if err != nil {
				return nil, err
			}
			telemetry, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewOrchestrator(
				NewUpToDateCache(hasher, store, log),
				NewAggregator(imports),
				NewInvoker(runner, log),
				NewExtractor(parser),
				telemetry,
				log,
			), nil
		},
	})
}
