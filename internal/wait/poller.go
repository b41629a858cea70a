package wait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// ErrPollerPanic wraps a panic raised while evaluating a predicate.
var ErrPollerPanic = errors.New("poller panicked")

// PollResult is how a poller finished when it was not killed.
type PollResult int

const (
	Matched PollResult = iota + 1
	GuardDied
	Exhausted
)

func (r PollResult) String() string {
	switch r {
	case Matched:
		return "matched"
	case GuardDied:
		return "guard_died"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("poll_result(%d)", int(r))
	}
}

// Liveness reports whether a process is present in the process table.
type Liveness interface {
	Exists(ctx context.Context, pid int) (bool, error)
}

// Poller evaluates a request's predicate at a fixed interval.
type Poller struct {
	liveness Liveness
	logger   *slog.Logger
}

// NewPoller creates a poller that checks guard processes through liveness.
func NewPoller(liveness Liveness, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.With("component", "poller")
	}
	return &Poller{liveness: liveness, logger: logger}
}

// PollHandle refers to a running poller.
type PollHandle struct {
	cancel      context.CancelCauseFunc
	done        chan struct{}
	evaluations atomic.Uint64

	result PollResult
	err    error
}

// Kill terminates the poller. cause is reported by Wait. The predicate
// evaluation in flight, if any, is cancelled along with everything it
// started. Killing a finished poller has no effect.
func (h *PollHandle) Kill(cause error) {
	h.cancel(cause)
}

// Done is closed once the poller has exited.
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the poller exits. A nil error means the poller finished
// on its own with the returned result; otherwise err is the cause it was
// terminated with.
func (h *PollHandle) Wait() (PollResult, error) {
	<-h.done
	return h.result, h.err
}

// Evaluations returns how many times the predicate has been evaluated.
func (h *PollHandle) Evaluations() uint64 {
	return h.evaluations.Load()
}

// Start runs the poll loop on its own goroutine.
func (p *Poller) Start(ctx context.Context, req Request) *PollHandle {
	ctx, cancel := context.WithCancelCause(ctx)
	h := &PollHandle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		defer cancel(nil)
		defer func() {
			if r := recover(); r != nil {
				h.result, h.err = 0, fmt.Errorf("%w: %v", ErrPollerPanic, r)
			}
		}()
		h.result, h.err = p.run(ctx, req, h)
	}()

	return h
}

func (p *Poller) run(ctx context.Context, req Request, h *PollHandle) (PollResult, error) {
	self := os.Getpid()
	logger := p.logger.With("routine", req.Routine, "predicate", req.Predicate.Describe())
	evalErrors := rate.Sometimes{First: 1, Interval: 10 * time.Second}

	for {
		if ctx.Err() != nil {
			return 0, context.Cause(ctx)
		}

		result, err := req.Predicate.Evaluate(ctx)
		n := h.evaluations.Add(1)
		if ctx.Err() != nil {
			return 0, context.Cause(ctx)
		}

		switch {
		case err != nil:
			evalErrors.Do(func() {
				logger.Warn("predicate evaluation failed", "evaluation", n, "error", err)
			})
		case result == req.ExpectedResult:
			logger.Debug("predicate matched", "evaluation", n, "result", result)
			return Matched, nil
		default:
			logger.Debug("predicate not matched", "evaluation", n, "result", result, "expected", req.ExpectedResult)
		}

		if req.GuardPID != self && !p.alive(ctx, req.GuardPID, logger) {
			if ctx.Err() != nil {
				return 0, context.Cause(ctx)
			}
			return GuardDied, nil
		}

		if req.MaxInvocations > 0 && n >= uint64(req.MaxInvocations) {
			return Exhausted, nil
		}

		if req.Delay > 0 {
			timer := time.NewTimer(req.Delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return 0, context.Cause(ctx)
			}
		}
	}
}

// alive treats any failure to query the process table as a dead guard, so
// that a broken check cannot turn into an endless wait.
func (p *Poller) alive(ctx context.Context, pid int, logger *slog.Logger) bool {
	ok, err := p.liveness.Exists(ctx, pid)
	if err != nil {
		logger.Warn("guard liveness check failed", "pid", pid, "error", err)
		return false
	}
	return ok
}
