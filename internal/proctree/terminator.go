// Package proctree terminates a process together with all of its
// descendants, one process at a time.
//
// There is no reliance on process groups: the processes being killed may
// have changed their group, and the caller may not be their parent. The tree
// is discovered live from the OS process table while it is being torn down.
//
// PIDs can be recycled by the OS between the moment a child is enumerated and
// the moment it is signalled. In that window an unrelated process may receive
// the signal. Callers accept this; it is not detected here.
package proctree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"
)

var (
	// ErrInvalidTarget is returned for a PID that cannot name a process.
	ErrInvalidTarget = errors.New("invalid target pid")

	// ErrEnumerationFailed is returned when the children of a process could
	// not be listed. The walk stops at that process.
	ErrEnumerationFailed = errors.New("enumerating child processes failed")

	// ErrSignalFailed is returned when a signal could not be delivered to a
	// process that still exists.
	ErrSignalFailed = errors.New("signal delivery failed")
)

// SignalFunc delivers sig to a single process.
type SignalFunc func(pid int, sig unix.Signal) error

// Terminator kills process trees depth-first, children before parents, so
// that no child is re-parented out of reach while its parent dies.
type Terminator struct {
	table  ProcessTable
	signal SignalFunc
	logger *slog.Logger
}

// Option configures a Terminator.
type Option func(*Terminator)

// WithSignalFunc replaces the function used to deliver signals.
func WithSignalFunc(fn SignalFunc) Option {
	return func(t *Terminator) {
		t.signal = fn
	}
}

// WithLogger sets the logger used for per-process debug output.
func WithLogger(l *slog.Logger) Option {
	return func(t *Terminator) {
		t.logger = l
	}
}

// NewTerminator returns a Terminator that discovers children through table.
func NewTerminator(table ProcessTable, opts ...Option) *Terminator {
	t := &Terminator{
		table:  table,
		signal: unix.Kill,
		logger: slog.With("component", "proctree"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Terminate delivers sig to pid and every descendant of pid.
//
// The process is stopped before its children are listed so that it cannot
// fork new ones between the snapshot and the kill. This narrows the race but
// does not close it: a child forked before the stop and not yet visible in
// the table can still escape.
//
// A process that disappears while being walked is treated as already
// terminated. Failures in one branch do not stop the others; the first
// failure is returned once the whole tree has been visited.
func (t *Terminator) Terminate(ctx context.Context, pid int, sig unix.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTarget, pid)
	}

	_ = t.send(pid, unix.SIGSTOP)

	children, err := t.table.ChildrenOf(ctx, pid)
	if err != nil {
		_ = t.send(pid, unix.SIGCONT)
		return fmt.Errorf("%w: pid %d: %w", ErrEnumerationFailed, pid, err)
	}

	var first error
	for _, child := range children {
		if err := t.Terminate(ctx, child, sig); err != nil && first == nil {
			first = err
		}
	}

	if err := t.send(pid, sig); err != nil && first == nil {
		first = fmt.Errorf("%w: %s to pid %d: %w", ErrSignalFailed, unix.SignalName(sig), pid, err)
	}

	// A stopped process only acts on the pending signal once resumed.
	_ = t.send(pid, unix.SIGCONT)

	t.logger.Debug("signalled process", "pid", pid, "signal", unix.SignalName(sig), "children", len(children))
	return first
}

// send delivers a signal, treating a vanished process as success.
func (t *Terminator) send(pid int, sig unix.Signal) error {
	err := t.signal(pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}
