package domain

import (
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrFingerprintFailed is reported when a module's dependency declarations cannot be fingerprinted.
	// It never fails a pass; the module is treated as stale instead.
	ErrFingerprintFailed = zerr.New("failed to compute module fingerprint")

	// ErrResolverFailed is returned when the external resolver exits non-zero or cannot be started.
	ErrResolverFailed = zerr.New("dependency resolver failed")

	// ErrLockFormat is returned when the lock file is missing, malformed or inconsistent with the manifests.
	ErrLockFormat = zerr.New("invalid lock file")

	// ErrManifestWrite is returned when the root manifest cannot be serialized or written.
	ErrManifestWrite = zerr.New("failed to write root manifest")

	// ErrReservedManifestField is returned when a mutator sets an extension field that shadows a known field.
	ErrReservedManifestField = zerr.New("manifest field is reserved")

	// ErrResolutionFailed is returned when a resolution pass does not complete.
	ErrResolutionFailed = zerr.New("dependency resolution failed")

	// ErrImportResolutionFailed is returned when imported packages cannot be resolved to workspace paths.
	ErrImportResolutionFailed = zerr.New("failed to resolve imported packages")

	// ErrInvalidImportVersion is returned when an imported package carries a version that is not semver.
	ErrInvalidImportVersion = zerr.New("imported package version is not valid semver")

	// ErrMissingModuleName is returned when a module's package.json has no name.
	ErrMissingModuleName = zerr.New("missing module name")

	// ErrDuplicateModuleName is returned when two modules in a workspace share a name.
	ErrDuplicateModuleName = zerr.New("duplicate module name")

	// ErrModuleNotFound is returned when a requested module is not part of the workspace.
	ErrModuleNotFound = zerr.New("module not found")

	// ErrManifestReadFailed is returned when a module or imported package.json cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read package.json")

	// ErrManifestParseFailed is returned when a package.json cannot be parsed.
	ErrManifestParseFailed = zerr.New("failed to parse package.json")

	// ErrStoreCreateFailed is returned when the cache directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create cache directory")

	// ErrStoreReadFailed is returned when the fingerprint cache cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read fingerprint cache")

	// ErrStoreUnmarshalFailed is returned when the fingerprint cache cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal fingerprint cache")

	// ErrStoreMarshalFailed is returned when the fingerprint cache cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal fingerprint cache")

	// ErrStoreWriteFailed is returned when the fingerprint cache cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write fingerprint cache")

	// ErrConfigReadFailed is returned when the workfile cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the workfile cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when no workfile is found walking up from the working directory.
	ErrConfigNotFound = zerr.New("could not find " + WorkFileName)

	// ErrInvalidLogFormat is returned for an unknown --log-format value.
	ErrInvalidLogFormat = zerr.New("invalid log format, expected 'auto', 'pretty' or 'json'")
)

// ResolverError describes a failed resolver invocation together with its captured output.
type ResolverError struct {
	Command  []string
	Dir      string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *ResolverError) Error() string {
	msg := e.Message()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Message returns the error message without the cause.
func (e *ResolverError) Message() string {
	return fmt.Sprintf("%s: exit code %d", ErrResolverFailed.Error(), e.ExitCode)
}

// Metadata returns the diagnostic context of the failed invocation.
func (e *ResolverError) Metadata() map[string]any {
	md := map[string]any{
		"command": strings.Join(e.Command, " "),
		"dir":     e.Dir,
	}
	if out := strings.TrimSpace(e.Stderr); out != "" {
		md["stderr"] = out
	}
	if out := strings.TrimSpace(e.Stdout); out != "" && strings.TrimSpace(e.Stderr) == "" {
		md["stdout"] = out
	}
	return md
}

// Unwrap exposes both the sentinel and the underlying cause so errors.Is matches either.
func (e *ResolverError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrResolverFailed}
	}
	return []error{ErrResolverFailed, e.Err}
}
