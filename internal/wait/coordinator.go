// Package wait blocks until a condition holds, a guard process dies, an
// invocation budget runs out, or a timeout elapses.
//
// A wait runs two goroutines: a poller that evaluates the condition and a
// timeout guard that kills the poller when time is up. The coordinator
// joins on the poller only and decides the outcome from how the poller
// ended. Whichever side loses is cancelled before the wait returns, so no
// goroutine or subprocess outlives the call.
package wait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/benaskins/waitfor/internal/condition"
	"github.com/benaskins/waitfor/internal/proctree"
)

// Routine names used in log output by the two entry points.
const (
	RoutineCommand = "wait_for_command"
	RoutineSocket  = "wait_for_socket"
)

// Logger receives one line per wait outcome, tagged with the routine name.
type Logger interface {
	Info(routine, msg string)
	Warning(routine, msg string)
	Error(routine, msg string)
}

// Coordinator runs waits. It holds no per-wait state and may be shared.
type Coordinator struct {
	log        Logger
	logger     *slog.Logger
	table      proctree.ProcessTable
	listeners  condition.ListenerSource
	terminator *proctree.Terminator
	poller     *Poller
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithProcessTable sets the process table used for guard liveness checks
// and process tree termination.
func WithProcessTable(t proctree.ProcessTable) Option {
	return func(c *Coordinator) {
		c.table = t
	}
}

// WithListeners sets where socket predicates read listening sockets from.
func WithListeners(l condition.ListenerSource) Option {
	return func(c *Coordinator) {
		c.listeners = l
	}
}

// WithSlogger sets the structured logger used for debug output.
func WithSlogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// NewCoordinator creates a coordinator reporting outcomes to log.
func NewCoordinator(log Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		log:       log,
		logger:    slog.Default(),
		table:     proctree.SystemTable{},
		listeners: condition.SystemListeners{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.terminator = proctree.NewTerminator(c.table, proctree.WithLogger(c.logger.With("component", "proctree")))
	c.poller = NewPoller(c.table, c.logger.With("component", "poller"))
	return c
}

// Wait runs one wait to completion and always returns an outcome. It never
// panics for expected failures; a nil predicate is a programming error.
func (c *Coordinator) Wait(ctx context.Context, req Request) Outcome {
	if req.Predicate == nil {
		panic("wait: request has no predicate")
	}
	if err := req.Validate(); err != nil {
		return c.Usage(req.Routine, err)
	}

	what := req.Predicate.Describe()

	poll := c.poller.Start(ctx, req)
	guard := StartGuard(req.Timeout, poll)

	result, err := poll.Wait()
	n := poll.Evaluations()

	if err != nil {
		if errors.Is(err, ErrTimeoutKill) {
			// The guard has done its job; it is not cancelled, only joined.
			<-guard.Done()
			c.log.Warning(req.Routine, fmt.Sprintf("timed out after %s waiting for %s (%d evaluations)", req.Timeout, what, n))
			return Outcome{Kind: TimedOut}
		}
		guard.Cancel()
		c.log.Error(req.Routine, fmt.Sprintf("wait for %s ended unexpectedly: %v", what, err))
		return Outcome{Kind: InternalError, Detail: err.Error()}
	}

	guard.Cancel()

	switch result {
	case Matched:
		c.log.Info(req.Routine, fmt.Sprintf("%s succeeded after %d evaluations", what, n))
		return Outcome{Kind: Success}
	case GuardDied:
		c.log.Warning(req.Routine, fmt.Sprintf("guard process %d died while waiting for %s", req.GuardPID, what))
		return Outcome{Kind: GuardProcessDied}
	case Exhausted:
		c.log.Warning(req.Routine, fmt.Sprintf("%s did not succeed within %d invocations", what, req.MaxInvocations))
		return Outcome{Kind: MaxInvocationsReached}
	default:
		detail := fmt.Sprintf("poller exited with unknown result %s", result)
		c.log.Error(req.Routine, detail)
		return Outcome{Kind: InternalError, Detail: detail}
	}
}

// Usage reports a malformed invocation without starting anything.
func (c *Coordinator) Usage(routine string, err error) Outcome {
	c.log.Error(routine, err.Error())
	return Outcome{Kind: ParseOrUsageError, Detail: err.Error()}
}

// WaitOption adjusts a request built by WaitForCommand or WaitForSocket.
type WaitOption func(*Request)

// WithTimeout sets the wait timeout.
func WithTimeout(d time.Duration) WaitOption {
	return func(r *Request) { r.Timeout = d }
}

// WithGuardPID aborts the wait when pid dies.
func WithGuardPID(pid int) WaitOption {
	return func(r *Request) { r.GuardPID = pid }
}

// WithMaxInvocations bounds the number of predicate evaluations.
func WithMaxInvocations(n uint) WaitOption {
	return func(r *Request) { r.MaxInvocations = n }
}

// WithDelay sets the pause between poll ticks.
func WithDelay(d time.Duration) WaitOption {
	return func(r *Request) { r.Delay = d }
}

// WithExpectedResult sets the predicate result that counts as success.
func WithExpectedResult(n int) WaitOption {
	return func(r *Request) { r.ExpectedResult = n }
}

// NewRequest returns a request carrying the default timeout, delay and
// guard process, with opts applied on top.
func NewRequest(routine string, p condition.Predicate, opts ...WaitOption) Request {
	req := Request{
		Predicate: p,
		Timeout:   DefaultTimeout,
		GuardPID:  os.Getpid(),
		Delay:     DefaultDelay,
		Routine:   routine,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// CommandPredicate builds a predicate that runs command through the shell.
// Cancelled evaluations have their process tree force-killed.
func (c *Coordinator) CommandPredicate(command string) (condition.Predicate, error) {
	if command == "" {
		return nil, &UsageError{Option: "command", Err: errors.New("a command is required")}
	}
	return condition.NewCommand(command, c.terminator, c.logger.With("component", "condition")), nil
}

// SocketPredicate builds a predicate that looks for a listening socket.
func (c *Coordinator) SocketPredicate(pattern string) (condition.Predicate, error) {
	p, err := condition.NewSocket(pattern, c.listeners)
	if err != nil {
		return nil, &UsageError{Option: "pattern", Value: pattern, Err: err}
	}
	return p, nil
}

// WaitForCommand waits until command exits with the expected result and
// returns the outcome status.
func (c *Coordinator) WaitForCommand(ctx context.Context, command string, opts ...WaitOption) int {
	p, err := c.CommandPredicate(command)
	if err != nil {
		return c.Usage(RoutineCommand, err).Status()
	}
	return c.Wait(ctx, NewRequest(RoutineCommand, p, opts...)).Status()
}

// WaitForSocket waits until a socket matching pattern is listening and
// returns the outcome status.
func (c *Coordinator) WaitForSocket(ctx context.Context, pattern string, opts ...WaitOption) int {
	p, err := c.SocketPredicate(pattern)
	if err != nil {
		return c.Usage(RoutineSocket, err).Status()
	}
	return c.Wait(ctx, NewRequest(RoutineSocket, p, opts...)).Status()
}
