package domain

import "time"

// CacheEntry is the last committed fingerprint of a module.
type CacheEntry struct {
	Module      string    `json:"module,omitzero"`
	Fingerprint string    `json:"fingerprint,omitzero"`
	CommittedAt time.Time `json:"committed_at,omitzero"`
}

// WorkspaceCacheKey is the cache entry holding the fingerprint of the workspace-level inputs:
// the root manifest fields and the resolver command line. Package names never take this form.
const WorkspaceCacheKey = "@workspace"
