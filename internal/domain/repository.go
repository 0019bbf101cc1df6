package domain

import (
	"context"
	"os"
)

// InstallIndex enumerates installed variants of an application kind.
// Implementation: afero-backed scan of env, config, default dirs and the Windows registry.
type InstallIndex interface {
	// ListInstalled returns variants in discovery order. Never cached.
	ListInstalled(ctx context.Context, kind ApplicationKind) ([]InstalledVariant, error)
}

// ProcessLauncher runs a prepared command to completion.
type ProcessLauncher interface {
	// Launch starts the child with inherited stdio and blocks until it exits.
	// A non-zero exit is reported in LaunchResult, not as an error.
	Launch(ctx context.Context, cmd LaunchCommand) (LaunchResult, error)
}

// ProcessTree inspects and signals a launched child and its descendants.
// Implementation: gopsutil process table.
type ProcessTree interface {
	// Descendants returns PIDs of all children of pid, depth first.
	Descendants(pid int) ([]int, error)

	// Signal delivers sig to pid.
	Signal(pid int, sig os.Signal) error

	// IsRunning reports whether pid still exists. Used to find helpers
	// that survive the child after a forwarded signal.
	IsRunning(pid int) bool
}

// PythonProbe inspects the caller's active Python interpreter.
type PythonProbe interface {
	Probe(ctx context.Context) (*PythonInfo, error)
}

// ScriptInstaller materializes bootstrap scripts and returns their root directory.
type ScriptInstaller interface {
	Install() (string, error)
}

// FileSystemManager handles filesystem operations.
type FileSystemManager interface {
	// Exists checks if a path exists.
	Exists(path string) bool

	// ExpandHome expands ~ to the user's home directory.
	ExpandHome(path string) string

	// MkdirTemp creates a new temporary directory.
	MkdirTemp(pattern string) (string, error)

	// RemoveAll removes a file or directory recursively.
	RemoveAll(path string) error

	// SubDirs returns names of directories directly under path, sorted.
	SubDirs(path string) []string
}

// Launcher runs a full launch session.
type Launcher interface {
	// Run discovers, resolves, composes, builds and launches. Returns the child's result.
	Run(ctx context.Context, req LaunchRequest) (LaunchResult, error)

	// ListVariants returns every discovered variant of kind.
	ListVariants(ctx context.Context, kind ApplicationKind) ([]InstalledVariant, error)
}
