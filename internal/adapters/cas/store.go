// Package cas implements the fingerprint cache store.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/lockstep/internal/core/domain"
	"go.trai.ch/lockstep/internal/fsutil"
	"go.trai.ch/zerr"
)

// storeVersion is bumped whenever the document layout changes. Older documents are ignored.
const storeVersion = 1

type document struct {
	Version int                          `json:"version"`
	Entries map[string]domain.CacheEntry `json:"entries"`
}

// Store implements ports.FingerprintStore using a single JSON document per workspace.
type Store struct{}

// NewStore creates a new FingerprintStore.
func NewStore() *Store {
	return &Store{}
}

// Load reads every committed entry.
func (s *Store) Load(root string) (map[string]domain.CacheEntry, error) {
	path := s.path(root)
	//nolint:gosec // Path is constructed from the workspace root and a fixed file name
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]domain.CacheEntry{}, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", path)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "path", path)
	}
	if doc.Version != storeVersion || doc.Entries == nil {
		return map[string]domain.CacheEntry{}, nil
	}

	return doc.Entries, nil
}

// Save atomically replaces the document with the given entries.
func (s *Store) Save(root string, entries map[string]domain.CacheEntry) error {
	if entries == nil {
		entries = map[string]domain.CacheEntry{}
	}
	data, err := json.MarshalIndent(document{Version: storeVersion, Entries: entries}, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	path := s.path(root)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	if err := fsutil.WriteFileAtomic(path, append(data, '\n'), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}

	return nil
}

// Remove deletes the document. Removing a missing store is not an error.
func (s *Store) Remove(root string) error {
	err := os.Remove(s.path(root))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

func (s *Store) path(root string) string {
	return filepath.Join(root, domain.DefaultFingerprintPath())
}
