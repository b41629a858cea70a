package wait

import "fmt"

// Kind identifies how a wait ended.
type Kind int

const (
	Success Kind = iota
	GuardProcessDied
	MaxInvocationsReached
	TimedOut
	ParseOrUsageError
	InternalError
)

// StatusUsage is the status reported for a malformed invocation, so callers
// can tell a bad call apart from a condition that was not met.
const StatusUsage = 127

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case GuardProcessDied:
		return "guard_process_died"
	case MaxInvocationsReached:
		return "max_invocations_reached"
	case TimedOut:
		return "timed_out"
	case ParseOrUsageError:
		return "usage_error"
	case InternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the single result of a wait.
type Outcome struct {
	Kind Kind
	// Detail explains usage and internal errors; empty otherwise.
	Detail string
}

// Status maps the outcome to a shell-style exit status.
func (o Outcome) Status() int {
	switch o.Kind {
	case Success:
		return 0
	case ParseOrUsageError:
		return StatusUsage
	default:
		return 1
	}
}

func (o Outcome) String() string {
	if o.Detail == "" {
		return o.Kind.String()
	}
	return o.Kind.String() + ": " + o.Detail
}
