package domain

import "path/filepath"

const (
	// LockstepDirName is the name of the internal workspace directory.
	LockstepDirName = ".lockstep"

	// CacheDirName is the name of the cache directory.
	CacheDirName = "cache"

	// FingerprintFileName is the name of the fingerprint cache document.
	FingerprintFileName = "fingerprints.json"

	// WorkFileName is the name of the workspace configuration file.
	WorkFileName = "lockstep.work.yaml"

	// PackageFileName is the manifest file name the resolver reads in every workspace member.
	PackageFileName = "package.json"

	// LockFileName is the lock file the resolver writes into the resolution directory.
	LockFileName = "yarn.lock"

	// ImportedDirName is the directory below the resolution directory holding staged imported packages.
	ImportedDirName = "imported"

	// DefaultResolutionDir is the resolution directory used when the workfile does not set one.
	DefaultResolutionDir = "build/js"

	// DefaultRootVersion is the root manifest version used when the workfile does not set one.
	DefaultRootVersion = "0.0.0-unspecified"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultCachePath returns the cache directory relative to the workspace root.
// It joins .lockstep and cache.
func DefaultCachePath() string {
	return filepath.Join(LockstepDirName, CacheDirName)
}

// DefaultFingerprintPath returns the fingerprint document path relative to the workspace root.
func DefaultFingerprintPath() string {
	return filepath.Join(LockstepDirName, CacheDirName, FingerprintFileName)
}
