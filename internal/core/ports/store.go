package ports

import "go.trai.ch/lockstep/internal/core/domain"

// FingerprintStore persists the last committed fingerprint of every module.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type FingerprintStore interface {
	// Load returns the committed entries keyed by module name.
	// A store that does not exist yet yields an empty map and no error.
	Load(root string) (map[string]domain.CacheEntry, error)

	// Save replaces the whole store. Readers observe either the old or the new content, never a mix.
	Save(root string, entries map[string]domain.CacheEntry) error

	// Remove deletes the store.
	Remove(root string) error
}
