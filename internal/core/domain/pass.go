package domain

// PassState is a state of one resolution pass.
type PassState string

const (
	// PassChecking compares module fingerprints against the cache.
	PassChecking PassState = "checking"
	// PassSkipped means every module was up to date and nothing ran.
	PassSkipped PassState = "skipped"
	// PassResolving writes the root manifest and runs the resolver.
	PassResolving PassState = "resolving"
	// PassExtracting reads the lock file into closures.
	PassExtracting PassState = "extracting"
	// PassCommitting persists the new fingerprints.
	PassCommitting PassState = "committing"
	// PassDone means the pass resolved and committed.
	PassDone PassState = "done"
	// PassFailed means the pass aborted; the cache was not touched.
	PassFailed PassState = "failed"
)

// IsTerminal reports whether no further transition follows the state.
func (s PassState) IsTerminal() bool {
	switch s {
	case PassSkipped, PassDone, PassFailed:
		return true
	default:
		return false
	}
}

// PassResult is the outcome of one resolution pass.
type PassResult struct {
	State PassState
	// History lists every state the pass went through, in order.
	History []PassState
	// Stale names the modules whose fingerprints did not match the cache.
	Stale []string
	// ManifestPath is the root manifest written by the pass, empty when skipped.
	ManifestPath string
	// Closures maps module name to its resolved closures, nil when skipped.
	Closures map[string]*ModuleClosure
	Err      error
}

// Enter moves the pass to the given state.
func (r *PassResult) Enter(s PassState) {
	r.State = s
	r.History = append(r.History, s)
}

// Fail moves the pass to the failed state and records the cause.
func (r *PassResult) Fail(err error) {
	r.Err = err
	r.Enter(PassFailed)
}
