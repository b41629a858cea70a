// Package condition provides the checks a wait loop evaluates on every tick:
// a shell command's exit status, or the presence of a listening socket.
package condition

import (
	"context"
	"errors"

	"golang.org/x/sys/unix"
)

// ErrInvalidPattern is returned when a socket pattern cannot be compiled.
var ErrInvalidPattern = errors.New("invalid socket pattern")

// Predicate is evaluated synchronously once per poll tick. The returned
// result is compared by the caller against an expected value; err reports
// that the check itself could not be carried out.
type Predicate interface {
	Evaluate(ctx context.Context) (int, error)
	// Describe returns a short human-readable description for log output.
	Describe() string
}

// TreeKiller terminates a process and all of its descendants.
type TreeKiller interface {
	Terminate(ctx context.Context, pid int, sig unix.Signal) error
}
