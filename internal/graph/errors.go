package graph

import "fmt"

// FileNotInGraphError is returned when a query names a file not currently
// tracked in Files. It is the one error kind analyseImpact surfaces to
// callers; everything else the user can cause is recovered locally.
type FileNotInGraphError struct {
	File string
}

func (e *FileNotInGraphError) Error() string {
	return fmt.Sprintf("file not in graph: %s", e.File)
}

// UnreadableFileError wraps an I/O failure encountered while loading a
// file's content or parsing its imports. Recovered locally by callers: the
// parse yields an empty import list, the watcher ignores the event.
type UnreadableFileError struct {
	File string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable file %s: %v", e.File, e.Err)
}

func (e *UnreadableFileError) Unwrap() error { return e.Err }

// MalformedConfigError wraps a failure parsing a plugin-level configuration
// file (e.g. a path-alias map). Recovered locally: the plugin proceeds as if
// no aliases exist.
type MalformedConfigError struct {
	Path string
	Err  error
}

func (e *MalformedConfigError) Error() string {
	return fmt.Sprintf("malformed config %s: %v", e.Path, e.Err)
}

func (e *MalformedConfigError) Unwrap() error { return e.Err }

// VcsUnavailableError reports that the version-control tool is missing, the
// directory is not a repository, or the mining operation timed out.
// Recovered locally: callers cache an empty coupling result.
type VcsUnavailableError struct {
	Reason string
	Err    error
}

func (e *VcsUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vcs unavailable: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("vcs unavailable: %s", e.Reason)
}

func (e *VcsUnavailableError) Unwrap() error { return e.Err }

// InvariantViolationError marks a bug signal: an internal consistency check
// failed after the engine already attempted recovery (e.g. the topological
// sort produced fewer SCCs than exist). Logged, not propagated to the user.
type InvariantViolationError struct {
	Description string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Description)
}
