// Package app implements the application layer for lockstep.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.trai.ch/lockstep/internal/adapters/watcher"
	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/core/ports"
	"go.trai.ch/lockstep/internal/engine/resolution"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	loader       ports.WorkspaceLoader
	orchestrator *resolution.Orchestrator
	store        ports.FingerprintStore
	watcher      ports.Watcher
	logger       ports.Logger

	debounceWindow time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a new App instance.
func New(
	loader ports.WorkspaceLoader,
	orchestrator *resolution.Orchestrator,
	store ports.FingerprintStore,
	w ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		loader:         loader,
		orchestrator:   orchestrator,
		store:          store,
		watcher:        w,
		logger:         log,
		debounceWindow: watcher.DefaultDebounceWindow,
		locks:          make(map[string]*sync.Mutex),
	}
}

// WithDebounceWindow sets how long watch mode waits for changes to settle before a pass.
func (a *App) WithDebounceWindow(d time.Duration) *App {
	a.debounceWindow = d
	return a
}

// ResolveOptions configuration for the Resolve method.
type ResolveOptions struct {
	// Dir is where the workfile lookup starts. Defaults to the working directory.
	Dir   string
	Force bool
}

// Resolve runs one resolution pass over the workspace.
func (a *App) Resolve(ctx context.Context, opts ResolveOptions) error {
	ws, err := a.loadWorkspace(opts.Dir)
	if err != nil {
		return err
	}

	_, err = a.runPass(ctx, ws, resolution.Options{Force: opts.Force})
	return err
}

// ClosureOptions configuration for the Closures method.
type ClosureOptions struct {
	Dir string
	// Modules limits the listing. All modules are listed when empty.
	Modules []string
	Output  io.Writer
}

// Closures prints the closures recorded in the current lock file without resolving.
func (a *App) Closures(ctx context.Context, opts ClosureOptions) error {
	ws, err := a.loadWorkspace(opts.Dir)
	if err != nil {
		return err
	}

	selected, err := selectModules(ws, opts.Modules)
	if err != nil {
		return err
	}
	view := *ws
	view.Modules = selected

	closures, err := a.orchestrator.Closures(ctx, &view)
	if err != nil {
		return zerr.Wrap(err, "failed to read closures")
	}

	w := opts.Output
	if w == nil {
		w = os.Stdout
	}
	return WriteClosures(w, selected, closures)
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Dir string
	// Stale only drops entries of modules that left the workspace.
	Stale bool
}

// Clean removes the fingerprint cache, forcing the next pass to resolve.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	if opts.Stale {
		ws, err := a.loadWorkspace(opts.Dir)
		if err != nil {
			return err
		}
		removed, err := a.orchestrator.Cache().Prune(ws.Root, ws.Modules)
		if err != nil {
			return zerr.Wrap(err, "failed to prune fingerprint cache")
		}
		if len(removed) == 0 {
			a.logger.Info("no stale cache entries")
			return nil
		}
		a.logger.Info(fmt.Sprintf("pruned %d stale cache entries: %s", len(removed), strings.Join(removed, ", ")))
		return nil
	}

	root, err := a.loader.DiscoverRoot(dirOrCwd(opts.Dir))
	if err != nil {
		return err
	}
	a.logger.Info("removing fingerprint cache...")
	if err := a.store.Remove(root); err != nil {
		return zerr.Wrap(err, "failed to remove fingerprint cache")
	}
	a.logger.Info("removed fingerprint cache")
	return nil
}

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	Dir   string
	Force bool
}

// Watch runs a pass, then re-runs one whenever a manifest or the workfile changes, until ctx is done.
// Failed passes are logged and watching continues.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	ws, err := a.loadWorkspace(opts.Dir)
	if err != nil {
		return err
	}

	if _, err := a.runPass(ctx, ws, resolution.Options{Force: opts.Force}); err != nil {
		a.logger.Error(err)
	}

	if err := a.watcher.Start(ctx, ws.Root, ManifestFilter(ws)); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	// One pending batch is enough: every pass re-reads the whole workspace.
	trigger := make(chan []string, 1)
	debouncer := watcher.NewDebouncer(a.debounceWindow, func(paths []string) {
		select {
		case trigger <- paths:
		default:
		}
	})
	defer debouncer.Stop()

	go func() {
		for event := range a.watcher.Events() {
			debouncer.Add(event.Path)
		}
	}()

	a.logger.Info("watching " + ws.Root + " for manifest changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-trigger:
			a.logger.Info("change detected: " + describePaths(ws.Root, paths))
			reloaded, err := a.loader.Load(ws.Root)
			if err != nil {
				a.logger.Error(err)
				continue
			}
			ws = reloaded
			if _, err := a.runPass(ctx, ws, resolution.Options{}); err != nil {
				a.logger.Error(err)
			}
		}
	}
}

// ManifestFilter accepts module manifests and the workfile. Files written by a pass are ignored.
func ManifestFilter(ws *domain.Workspace) ports.WatchFilter {
	internal := filepath.Join(ws.Root, domain.LockstepDirName)
	return func(path string) bool {
		if within(ws.ResolutionDir, path) || within(internal, path) {
			return false
		}
		base := filepath.Base(path)
		return base == domain.PackageFileName || base == domain.WorkFileName
	}
}

func (a *App) runPass(ctx context.Context, ws *domain.Workspace, opts resolution.Options) (*domain.PassResult, error) {
	lock := a.workspaceLock(ws.Root)
	lock.Lock()
	defer lock.Unlock()

	result, err := a.orchestrator.Run(ctx, ws, opts)
	if err != nil {
		return result, errors.Join(domain.ErrResolutionFailed, err)
	}

	if result.State == domain.PassDone {
		a.logger.Info(fmt.Sprintf("resolved %d modules, wrote %s", len(ws.Modules), relPath(ws.Root, result.ManifestPath)))
	}
	return result, nil
}

// workspaceLock serializes passes sharing a resolution directory within the process.
func (a *App) workspaceLock(root string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.locks[root]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[root] = lock
	}
	return lock
}

func (a *App) loadWorkspace(dir string) (*domain.Workspace, error) {
	ws, err := a.loader.Load(dirOrCwd(dir))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load workspace")
	}
	return ws, nil
}

func selectModules(ws *domain.Workspace, names []string) ([]*domain.Module, error) {
	if len(names) == 0 {
		return ws.Modules, nil
	}
	selected := make([]*domain.Module, 0, len(names))
	for _, name := range names {
		m, ok := ws.Module(name)
		if !ok {
			return nil, zerr.With(domain.ErrModuleNotFound, "module", name)
		}
		selected = append(selected, m)
	}
	return selected, nil
}

func dirOrCwd(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func describePaths(root string, paths []string) string {
	rel := make([]string, len(paths))
	for i, p := range paths {
		rel[i] = relPath(root, p)
	}
	return strings.Join(rel, ", ")
}
