package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below unwrap to these so callers can use errors.Is.
var (
	ErrNoInstallationFound = errors.New("no installation found")
	ErrVersionNotFound     = errors.New("version not found")
	ErrDiscovery           = errors.New("discovery failed")
	ErrSpawnFailed         = errors.New("spawn failed")
	ErrIncompatiblePython  = errors.New("incompatible python")
)

// NoInstallationFoundError means no variant of Kind exists on the host.
// Cause holds discovery failures, if any, that may explain the empty result.
type NoInstallationFoundError struct {
	Kind  ApplicationKind
	Cause error
}

func (e *NoInstallationFoundError) Error() string {
	msg := fmt.Sprintf("no installation of %s found", e.Kind)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *NoInstallationFoundError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrNoInstallationFound}
	}
	return []error{ErrNoInstallationFound, e.Cause}
}

// VersionNotFoundError means variants exist but none satisfies Spec.
type VersionNotFoundError struct {
	Kind      ApplicationKind
	Spec      VersionSpec
	Available []string
}

func (e *VersionNotFoundError) Error() string {
	msg := fmt.Sprintf("%s version %s not found", e.Kind, e.Spec)
	if len(e.Available) > 0 {
		msg += " (available: " + strings.Join(e.Available, ", ") + ")"
	}
	return msg
}

func (e *VersionNotFoundError) Unwrap() error { return ErrVersionNotFound }

// DiscoveryError is a failure to read one install source.
type DiscoveryError struct {
	Kind   ApplicationKind
	Source DiscoverySource
	Path   string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover %s (%s) at %s: %v", e.Kind, e.Source, e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() []error { return []error{ErrDiscovery, e.Err} }

// SpawnFailedError means the child process could not be started.
type SpawnFailedError struct {
	Path string
	Err  error
}

func (e *SpawnFailedError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Path, e.Err)
}

func (e *SpawnFailedError) Unwrap() []error { return []error{ErrSpawnFailed, e.Err} }

// IncompatiblePythonError means the caller's interpreter cannot share
// site-packages with the application's embedded Python.
type IncompatiblePythonError struct {
	Kind     ApplicationKind
	Version  string
	Required string
	Current  string
}

func (e *IncompatiblePythonError) Error() string {
	return fmt.Sprintf("%s %s embeds python %s but the active interpreter is python %s",
		e.Kind, e.Version, e.Required, e.Current)
}

func (e *IncompatiblePythonError) Unwrap() error { return ErrIncompatiblePython }
