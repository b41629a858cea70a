package wait

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/benaskins/waitfor/internal/condition"
)

const (
	// DefaultTimeout bounds a wait when the caller does not set one.
	DefaultTimeout = 120 * time.Second

	// DefaultDelay is the pause between two poll ticks.
	DefaultDelay = 1 * time.Second
)

// ErrUsage matches every error produced by malformed wait options.
var ErrUsage = errors.New("usage error")

// UsageError describes a single option that could not be accepted.
type UsageError struct {
	Option string
	Value  string
	Err    error
}

func (e *UsageError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Option, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Option, e.Value, e.Err)
}

func (e *UsageError) Unwrap() error { return e.Err }

func (e *UsageError) Is(target error) bool { return target == ErrUsage }

// Request is everything a single wait needs. It is built once per call and
// discarded once the call has produced its Outcome.
type Request struct {
	Predicate condition.Predicate

	// Timeout is a whole number of seconds after which the poller is killed.
	Timeout time.Duration

	// GuardPID is a process whose death aborts the wait. When it is the
	// current process the liveness check is skipped.
	GuardPID int

	// MaxInvocations bounds the number of predicate evaluations; 0 means
	// unbounded.
	MaxInvocations uint

	Delay          time.Duration
	ExpectedResult int

	// Routine names the caller in log output.
	Routine string
}

// Validate checks the numeric fields of the request.
func (r Request) Validate() error {
	if r.Timeout < 0 {
		return &UsageError{Option: "timeout", Value: r.Timeout.String(), Err: errors.New("must not be negative")}
	}
	if r.Delay < 0 {
		return &UsageError{Option: "delay", Value: r.Delay.String(), Err: errors.New("must not be negative")}
	}
	if r.GuardPID <= 0 || r.GuardPID > math.MaxInt32 {
		return &UsageError{Option: "pid", Value: strconv.Itoa(r.GuardPID), Err: errors.New("must be a positive process id")}
	}
	return nil
}

// RawOptions carries wait options exactly as a user typed them, in seconds
// where a duration is meant. Empty fields are left untouched by Apply.
type RawOptions struct {
	Timeout        string
	GuardPID       string
	MaxInvocations string
	Delay          string
	ExpectedResult string
}

// Apply parses every non-empty field onto req. The first malformed value is
// returned as a *UsageError and req is left unchanged.
func (o RawOptions) Apply(req *Request) error {
	next := *req

	if o.Timeout != "" {
		secs, err := strconv.ParseUint(o.Timeout, 10, 32)
		if err != nil {
			return &UsageError{Option: "timeout", Value: o.Timeout, Err: errors.New("must be a whole number of seconds")}
		}
		next.Timeout = time.Duration(secs) * time.Second
	}

	if o.GuardPID != "" {
		// Process ids are 32-bit; a wider value must not wrap onto a live pid.
		pid, err := strconv.ParseInt(o.GuardPID, 10, 32)
		if err != nil || pid <= 0 {
			return &UsageError{Option: "pid", Value: o.GuardPID, Err: errors.New("must be a positive process id")}
		}
		next.GuardPID = int(pid)
	}

	if o.MaxInvocations != "" {
		n, err := strconv.ParseUint(o.MaxInvocations, 10, 32)
		if err != nil || n == 0 {
			return &UsageError{Option: "max-invocations", Value: o.MaxInvocations, Err: errors.New("must be a positive whole number")}
		}
		next.MaxInvocations = uint(n)
	}

	if o.Delay != "" {
		d, err := parseSeconds(o.Delay)
		if err != nil {
			return &UsageError{Option: "delay", Value: o.Delay, Err: err}
		}
		next.Delay = d
	}

	if o.ExpectedResult != "" {
		n, err := strconv.Atoi(o.ExpectedResult)
		if err != nil {
			return &UsageError{Option: "expected-result", Value: o.ExpectedResult, Err: errors.New("must be an integer")}
		}
		next.ExpectedResult = n
	}

	*req = next
	return nil
}

// parseSeconds accepts fractional seconds such as "0.5" or "2".
func parseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("must be a number of seconds")
	}
	if f < 0 {
		return 0, errors.New("must not be negative")
	}
	if f > float64(math.MaxInt64)/float64(time.Second) {
		return 0, errors.New("out of range")
	}
	return time.Duration(f * float64(time.Second)), nil
}
