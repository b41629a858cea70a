package wait

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/benaskins/waitfor/internal/logging"
)

func TestPollerEvaluationErrorIsNonMatch(t *testing.T) {
	t.Parallel()
	p := &scripted{fn: func(_ context.Context, call int64) (int, error) {
		if call < 3 {
			return 0, errors.New("flaky")
		}
		return 0, nil
	}}
	req := Request{Predicate: p, GuardPID: os.Getpid(), Delay: time.Millisecond}

	h := NewPoller(fakeTable{alive: true}, logging.Discard()).Start(context.Background(), req)
	result, err := h.Wait()
	if err != nil || result != Matched {
		t.Fatalf("Wait() = %s, %v, want matched", result, err)
	}
	if h.Evaluations() != 3 {
		t.Errorf("evaluations = %d, want 3", h.Evaluations())
	}
}

func TestPollerKillReportsCause(t *testing.T) {
	t.Parallel()
	req := Request{Predicate: always(1), GuardPID: os.Getpid(), Delay: time.Hour}
	h := NewPoller(fakeTable{alive: true}, logging.Discard()).Start(context.Background(), req)

	cause := errors.New("stop now")
	h.Kill(cause)

	_, err := h.Wait()
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, want %v", err, cause)
	}
	h.Kill(errors.New("again"))
	if _, err := h.Wait(); !errors.Is(err, cause) {
		t.Errorf("second kill changed the cause to %v", err)
	}
}

func TestPollerNoDelayAfterLastInvocation(t *testing.T) {
	t.Parallel()
	req := Request{Predicate: always(1), GuardPID: os.Getpid(), Delay: time.Hour, MaxInvocations: 1}

	start := time.Now()
	result, err := NewPoller(fakeTable{alive: true}, logging.Discard()).Start(context.Background(), req).Wait()
	if err != nil || result != Exhausted {
		t.Fatalf("Wait() = %s, %v, want exhausted", result, err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("poller slept %s after its final invocation", elapsed)
	}
}

func TestPollResultString(t *testing.T) {
	t.Parallel()
	if got := PollResult(9).String(); got != "poll_result(9)" {
		t.Errorf("String() = %q", got)
	}
	if Matched.String() != "matched" || GuardDied.String() != "guard_died" || Exhausted.String() != "exhausted" {
		t.Error("unexpected PollResult names")
	}
}
