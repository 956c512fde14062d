package resolution

import (
	"context"
	"fmt"
	"path/filepath"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/lockstep/internal/fsutil"
	"go.trai.ch/zerr"
)

// Options configures one resolution pass.
type Options struct {
	// Force bypasses the up-to-date check.
	Force bool
}

// Orchestrator runs resolution passes:
// checking, then either skipped or resolving, extracting and committing, then done.
// Any failure ends the pass in the failed state without touching the cache; the root manifest and
// the staged imported packages are put back as they were.
type Orchestrator struct {
	cache      *UpToDateCache
	aggregator *Aggregator
	invoker    *Invoker
	extractor  *Extractor
	telemetry  ports.Telemetry
	logger     ports.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	cache *UpToDateCache,
	aggregator *Aggregator,
	invoker *Invoker,
	extractor *Extractor,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		cache:      cache,
		aggregator: aggregator,
		invoker:    invoker,
		extractor:  extractor,
		telemetry:  telemetry,
		logger:     logger,
	}
}

// Cache returns the up-to-date cache the orchestrator consults.
func (o *Orchestrator) Cache() *UpToDateCache {
	return o.cache
}

// Run executes one pass over the workspace. The returned result is never nil; on failure it is in
// the failed state and the error is also returned.
func (o *Orchestrator) Run(ctx context.Context, ws *domain.Workspace, opts Options) (*domain.PassResult, error) {
	result := &domain.PassResult{}
	result.Enter(domain.PassChecking)

	snap, err := o.check(ctx, ws, opts)
	if err != nil {
		return o.fail(result, err)
	}
	result.Stale = snap.Stale
	if !opts.Force && snap.UpToDate() {
		result.Enter(domain.PassSkipped)
		return result, nil
	}

	result.Enter(domain.PassResolving)
	manifestPath := filepath.Join(ws.ResolutionDir, domain.PackageFileName)
	previous, err := fsutil.TakeSnapshot(manifestPath)
	if err != nil {
		return o.fail(result, zerr.With(zerr.Wrap(err, domain.ErrManifestWrite.Error()), "path", manifestPath))
	}
	stagingDir := filepath.Join(ws.ResolutionDir, domain.ImportedDirName)
	staged, err := fsutil.BackupDir(stagingDir)
	if err != nil {
		err = zerr.Wrap(err, domain.ErrImportResolutionFailed.Error())
		return o.fail(result, zerr.With(err, "path", stagingDir))
	}
	restore := func() {
		if err := previous.Restore(domain.FilePerm); err != nil {
			o.logger.Warn("failed to restore root manifest: " + err.Error())
		}
		if err := staged.Restore(); err != nil {
			o.logger.Warn("failed to restore imported packages: " + err.Error())
		}
	}

	if err := o.writeManifest(ctx, ws); err != nil {
		restore()
		return o.fail(result, err)
	}
	result.ManifestPath = manifestPath

	if err := o.resolve(ctx, ws); err != nil {
		restore()
		return o.fail(result, err)
	}

	result.Enter(domain.PassExtracting)
	closures, err := o.extract(ctx, ws)
	if err != nil {
		restore()
		return o.fail(result, err)
	}

	result.Enter(domain.PassCommitting)
	if err := o.commit(ctx, ws, snap); err != nil {
		restore()
		return o.fail(result, err)
	}

	if err := staged.Discard(); err != nil {
		o.logger.Warn("failed to remove imported packages backup: " + err.Error())
	}

	result.Closures = closures
	result.Enter(domain.PassDone)
	return result, nil
}

// Closures extracts closures from the existing lock file. It never runs the resolver or touches the cache.
func (o *Orchestrator) Closures(ctx context.Context, ws *domain.Workspace) (map[string]*domain.ModuleClosure, error) {
	return o.extract(ctx, ws)
}

func (o *Orchestrator) fail(result *domain.PassResult, err error) (*domain.PassResult, error) {
	result.ManifestPath = ""
	result.Fail(err)
	return result, err
}

func (o *Orchestrator) check(ctx context.Context, ws *domain.Workspace, opts Options) (*Snapshot, error) {
	ctx, vertex := o.telemetry.Record(ctx, "check fingerprints")
	snap, err := o.cache.CheckWorkspace(ctx, ws)
	if err != nil {
		vertex.Complete(err)
		return nil, err
	}

	switch {
	case opts.Force:
		vertex.Log(domain.LogLevelInfo, "cache bypassed")
	case snap.UpToDate():
		vertex.Cached()
		o.logger.Info("all modules up to date, skipping resolution")
	default:
		if len(snap.Stale) > 0 {
			o.logger.Info(fmt.Sprintf("%d of %d modules changed: %s", len(snap.Stale), len(ws.Modules), describeStale(snap)))
		}
		if snap.WorkspaceChanged {
			o.logger.Info("workspace settings changed")
		}
	}
	vertex.Complete(nil)
	return snap, nil
}

func (o *Orchestrator) writeManifest(ctx context.Context, ws *domain.Workspace) error {
	_, vertex := o.telemetry.Record(ctx, "write root manifest")
	manifest, err := o.aggregator.Build(ws.Identity, ws.ResolutionDir, ws.Modules, ws.Mutators)
	if err == nil {
		_, err = o.aggregator.Write(ws.ResolutionDir, manifest)
	}
	vertex.Complete(err)
	return err
}

func (o *Orchestrator) resolve(ctx context.Context, ws *domain.Workspace) error {
	description := OperationDescription(ws.Resolver)
	ctx, vertex := o.telemetry.Record(ctx, description)
	err := o.invoker.Invoke(ctx, ws.ResolutionDir, ws.Resolver, description)
	vertex.Complete(err)
	return err
}

func (o *Orchestrator) extract(ctx context.Context, ws *domain.Workspace) (map[string]*domain.ModuleClosure, error) {
	_, vertex := o.telemetry.Record(ctx, "extract closures")
	closures, err := o.extractor.Extract(ws.ResolutionDir, ws.Modules)
	vertex.Complete(err)
	return closures, err
}

func (o *Orchestrator) commit(ctx context.Context, ws *domain.Workspace, snap *Snapshot) error {
	_, vertex := o.telemetry.Record(ctx, "commit fingerprints", ports.WithInternal())
	err := o.cache.Commit(ws.Root, snap)
	vertex.Complete(err)
	return err
}
