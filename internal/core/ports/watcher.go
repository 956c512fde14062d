package ports

import (
	"context"
	"iter"
)

// WatchOp represents the type of file system operation.
type WatchOp uint8

const (
	// OpCreate indicates a file or directory was created.
	OpCreate WatchOp = iota
	// OpWrite indicates a file was modified.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// WatchEvent is a change to a watched file.
type WatchEvent struct {
	Path      string
	Operation WatchOp
}

// WatchFilter reports whether changes to path are of interest.
type WatchFilter func(path string) bool

// Watcher reports changes to files below a root directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start watches root recursively and emits events for paths accepted by filter.
	Start(ctx context.Context, root string, filter WatchFilter) error
	// Stop releases all resources. Events ends once the watcher is stopped.
	Stop() error
	// Events returns an iterator of file system events.
	Events() iter.Seq[WatchEvent]
}
