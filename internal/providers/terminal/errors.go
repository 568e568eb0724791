package terminal

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceExhausted is returned by Create when the live session cap is reached
	ErrResourceExhausted = errors.New("terminal limit reached")
	// ErrSpawnFailure is matched by every *SpawnError
	ErrSpawnFailure = errors.New("failed to spawn shell")
	// ErrShellNotAllowed is the cause of a SpawnError for shells outside the allow-list
	ErrShellNotAllowed = errors.New("shell not allowed")
)

// SpawnError reports a shell that could not be started on a pty
type SpawnError struct {
	Shell string
	Dir   string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s in %s: %v", e.Shell, e.Dir, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrSpawnFailure) match any SpawnError
func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawnFailure
}

// failureReason is the metrics label for a Create error
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrResourceExhausted):
		return "exhausted"
	case errors.Is(err, ErrShellNotAllowed):
		return "shell_not_allowed"
	default:
		return "spawn"
	}
}
