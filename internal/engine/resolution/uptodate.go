// Package resolution implements the shared dependency resolution pass over the modules of a workspace.
package resolution

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"strings"
	"time"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// Snapshot is the fingerprint state of a module set at check time.
// Committing a snapshot records exactly what was checked, even if manifests changed since.
type Snapshot struct {
	// Fingerprints holds the current fingerprint of every module that could be fingerprinted.
	Fingerprints map[string]string
	// Stale lists the modules that are not up to date, in module order.
	Stale []string
	// Failed maps modules whose fingerprint could not be computed to the cause.
	Failed map[string]error

	// Workspace is the fingerprint of the workspace-level inputs, empty when they were not checked
	// or could not be fingerprinted.
	Workspace string
	// WorkspaceChanged reports that the workspace-level inputs differ from the committed ones.
	WorkspaceChanged bool

	workspaceFailed bool
	previous        map[string]domain.CacheEntry
}

// UpToDate reports whether every module and the workspace matched their committed fingerprints.
func (s *Snapshot) UpToDate() bool {
	return len(s.Stale) == 0 && !s.WorkspaceChanged
}

// UpToDateCache decides whether a resolution pass may be skipped.
type UpToDateCache struct {
	hasher ports.Fingerprinter
	store  ports.FingerprintStore
	logger ports.Logger
	now    func() time.Time
}

// NewUpToDateCache creates a new UpToDateCache.
func NewUpToDateCache(hasher ports.Fingerprinter, store ports.FingerprintStore, logger ports.Logger) *UpToDateCache {
	return &UpToDateCache{
		hasher: hasher,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// IsUpToDate reports whether every module's current fingerprint matches its committed entry.
func (c *UpToDateCache) IsUpToDate(ctx context.Context, root string, modules []*domain.Module) bool {
	snap, err := c.Check(ctx, root, modules)
	return err == nil && snap.UpToDate()
}

// CheckWorkspace checks the workspace modules like Check and also compares the workspace-level
// inputs: the root manifest fields and the resolver command line.
func (c *UpToDateCache) CheckWorkspace(ctx context.Context, ws *domain.Workspace) (*Snapshot, error) {
	snap, err := c.Check(ctx, ws.Root, ws.Modules)
	if err != nil {
		return nil, err
	}

	fp, err := c.hasher.FingerprintWorkspace(ws)
	if err != nil {
		snap.workspaceFailed = true
		snap.WorkspaceChanged = true
		c.logger.Warn("workspace settings treated as changed: " + err.Error())
		return snap, nil
	}
	snap.Workspace = fp

	entry, ok := snap.previous[domain.WorkspaceCacheKey]
	snap.WorkspaceChanged = !ok || entry.Fingerprint != fp
	return snap, nil
}

// Check fingerprints all modules in parallel and compares them against the store.
// A module without an entry, with a different fingerprint, or whose fingerprint fails is stale.
// Only context cancellation makes Check fail.
func (c *UpToDateCache) Check(ctx context.Context, root string, modules []*domain.Module) (*Snapshot, error) {
	previous := c.load(root)

	type outcome struct {
		fingerprint string
		err         error
	}
	outcomes := make([]outcome, len(modules))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range modules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fp, err := c.hasher.Fingerprint(m)
			outcomes[i] = outcome{fingerprint: fp, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Fingerprints: make(map[string]string, len(modules)),
		Failed:       make(map[string]error),
		previous:     previous,
	}
	for i, m := range modules {
		res := outcomes[i]
		if res.err != nil {
			snap.Failed[m.Name] = res.err
			snap.Stale = append(snap.Stale, m.Name)
			c.logger.Warn(fmt.Sprintf("module %s treated as stale: %s", m.Name, res.err.Error()))
			continue
		}
		snap.Fingerprints[m.Name] = res.fingerprint

		entry, ok := previous[m.Name]
		if !ok || entry.Fingerprint != res.fingerprint {
			snap.Stale = append(snap.Stale, m.Name)
		}
	}

	return snap, nil
}

// Commit records the snapshot's fingerprints. Entries of modules outside the snapshot are kept;
// modules whose fingerprint failed are dropped so they stay stale.
func (c *UpToDateCache) Commit(root string, snap *Snapshot) error {
	entries := maps.Clone(snap.previous)
	if entries == nil {
		entries = make(map[string]domain.CacheEntry, len(snap.Fingerprints))
	}

	committedAt := c.now().UTC()
	for name, fp := range snap.Fingerprints {
		entries[name] = domain.CacheEntry{
			Module:      name,
			Fingerprint: fp,
			CommittedAt: committedAt,
		}
	}
	for name := range snap.Failed {
		delete(entries, name)
	}

	switch {
	case snap.Workspace != "":
		entries[domain.WorkspaceCacheKey] = domain.CacheEntry{
			Module:      domain.WorkspaceCacheKey,
			Fingerprint: snap.Workspace,
			CommittedAt: committedAt,
		}
	case snap.workspaceFailed:
		delete(entries, domain.WorkspaceCacheKey)
	}

	return c.store.Save(root, entries)
}

// Prune drops entries of modules that are no longer part of the workspace and returns their names.
// The workspace entry is always kept.
func (c *UpToDateCache) Prune(root string, modules []*domain.Module) ([]string, error) {
	entries, err := c.store.Load(root)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]struct{}, len(modules)+1)
	keep[domain.WorkspaceCacheKey] = struct{}{}
	for _, m := range modules {
		keep[m.Name] = struct{}{}
	}

	var removed []string
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		if _, ok := keep[name]; !ok {
			delete(entries, name)
			removed = append(removed, name)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	if err := c.store.Save(root, entries); err != nil {
		return nil, err
	}
	return removed, nil
}

// load returns the committed entries. An unreadable or corrupt store counts as empty.
func (c *UpToDateCache) load(root string) map[string]domain.CacheEntry {
	entries, err := c.store.Load(root)
	if err != nil {
		c.logger.Warn("ignoring fingerprint cache: " + err.Error())
		return map[string]domain.CacheEntry{}
	}
	return entries
}

// describeStale formats stale module names for logging.
func describeStale(snap *Snapshot) string {
	return strings.Join(snap.Stale, ", ")
}
