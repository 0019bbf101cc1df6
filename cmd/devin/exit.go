package main

import (
	"errors"
	"fmt"

	"github.com/devin-dcc/devin/internal/domain"
)

// Exit codes for failures before or while starting the application.
// They sit above the range DCCs use for their own errors.
const (
	ExitNoInstallation     = 120
	ExitVersionNotFound    = 121
	ExitSpawnFailed        = 122
	ExitIncompatiblePython = 123
	ExitConfigOrUsage      = 124
)

// childExit carries a non-zero exit code of the launched application.
type childExit struct {
	code int
}

func (e *childExit) Error() string {
	return fmt.Sprintf("application exited with code %d", e.code)
}

// usageError marks configuration and command line problems.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func asChildExit(err error, target **childExit) bool {
	return errors.As(err, target)
}

// exitCode maps a launch failure onto the CLI exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrNoInstallationFound), errors.Is(err, domain.ErrDiscovery):
		return ExitNoInstallation
	case errors.Is(err, domain.ErrVersionNotFound):
		return ExitVersionNotFound
	case errors.Is(err, domain.ErrSpawnFailed):
		return ExitSpawnFailed
	case errors.Is(err, domain.ErrIncompatiblePython):
		return ExitIncompatiblePython
	default:
		return ExitConfigOrUsage
	}
}
