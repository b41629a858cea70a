package proctree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"golang.org/x/sys/unix"
)

type fakeTable struct {
	children map[int][]int
	errs     map[int]error
}

func (f *fakeTable) ChildrenOf(_ context.Context, pid int) ([]int, error) {
	if err := f.errs[pid]; err != nil {
		return nil, err
	}
	return f.children[pid], nil
}

func (f *fakeTable) Exists(_ context.Context, pid int) (bool, error) {
	return true, nil
}

type sent struct {
	pid int
	sig unix.Signal
}

func (s sent) String() string {
	return fmt.Sprintf("%s->%d", unix.SignalName(s.sig), s.pid)
}

type recorder struct {
	mu   sync.Mutex
	log  []sent
	fail func(pid int, sig unix.Signal) error
}

func (r *recorder) signal(pid int, sig unix.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, sent{pid, sig})
	if r.fail != nil {
		return r.fail(pid, sig)
	}
	return nil
}

func (r *recorder) killed(sig unix.Signal) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pids []int
	for _, s := range r.log {
		if s.sig == sig {
			pids = append(pids, s.pid)
		}
	}
	return pids
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTerminator(table ProcessTable, rec *recorder) *Terminator {
	return NewTerminator(table, WithSignalFunc(rec.signal), WithLogger(quietLogger()))
}

func TestTerminateDepthThreeTree(t *testing.T) {
	t.Parallel()
	table := &fakeTable{children: map[int][]int{
		10: {11},
		11: {12},
		12: {13},
	}}
	rec := &recorder{}

	if err := newTestTerminator(table, rec).Terminate(context.Background(), 10, unix.SIGKILL); err != nil {
		t.Fatalf("Terminate: %v", err)
	}

	got := rec.killed(unix.SIGKILL)
	want := []int{13, 12, 11, 10}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("SIGKILL order = %v, want %v", got, want)
	}
}

func TestTerminateStopsBeforeEnumeratingAndResumesAfter(t *testing.T) {
	t.Parallel()
	table := &fakeTable{children: map[int][]int{1: {2}}}
	rec := &recorder{}

	if err := newTestTerminator(table, rec).Terminate(context.Background(), 1, unix.SIGTERM); err != nil {
		t.Fatalf("Terminate: %v", err)
	}

	want := "[SIGSTOP->1 SIGSTOP->2 SIGTERM->2 SIGCONT->2 SIGTERM->1 SIGCONT->1]"
	if got := fmt.Sprint(rec.log); got != want {
		t.Errorf("signal sequence = %s, want %s", got, want)
	}
}

func TestTerminateRootGoneBeforeDelivery(t *testing.T) {
	t.Parallel()
	table := &fakeTable{children: map[int][]int{1: {2, 3}}}
	rec := &recorder{fail: func(pid int, sig unix.Signal) error {
		if pid == 1 && sig != unix.SIGSTOP {
			return unix.ESRCH
		}
		return nil
	}}

	if err := newTestTerminator(table, rec).Terminate(context.Background(), 1, unix.SIGKILL); err != nil {
		t.Errorf("expected success when root already exited, got %v", err)
	}
	if got := rec.killed(unix.SIGKILL); len(got) != 3 {
		t.Errorf("expected all 3 processes signalled, got %v", got)
	}
}

func TestTerminateInvalidTarget(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	for _, pid := range []int{0, -1} {
		err := newTestTerminator(&fakeTable{}, rec).Terminate(context.Background(), pid, unix.SIGKILL)
		if !errors.Is(err, ErrInvalidTarget) {
			t.Errorf("Terminate(%d) = %v, want ErrInvalidTarget", pid, err)
		}
	}
	if len(rec.log) != 0 {
		t.Errorf("expected no signals for invalid targets, got %v", rec.log)
	}
}

func TestTerminateEnumerationFailureKeepsWalking(t *testing.T) {
	t.Parallel()
	boom := errors.New("proc unreadable")
	table := &fakeTable{
		children: map[int][]int{1: {2, 3}, 3: {4}},
		errs:     map[int]error{2: boom},
	}
	rec := &recorder{}

	err := newTestTerminator(table, rec).Terminate(context.Background(), 1, unix.SIGKILL)
	if !errors.Is(err, ErrEnumerationFailed) {
		t.Fatalf("expected ErrEnumerationFailed, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected underlying cause in chain, got %v", err)
	}

	// pid 2 itself is abandoned, its siblings and the root are not.
	got := fmt.Sprint(rec.killed(unix.SIGKILL))
	if got != "[4 3 1]" {
		t.Errorf("SIGKILL targets = %s, want [4 3 1]", got)
	}
	conts := rec.killed(unix.SIGCONT)
	if len(conts) == 0 || conts[0] != 2 {
		t.Errorf("expected pid 2 resumed after failed enumeration, got %v", conts)
	}
}

func TestTerminateReportsFirstSignalFailure(t *testing.T) {
	t.Parallel()
	table := &fakeTable{children: map[int][]int{1: {2, 3}}}
	rec := &recorder{fail: func(pid int, sig unix.Signal) error {
		if sig == unix.SIGKILL && pid != 1 {
			return unix.EPERM
		}
		return nil
	}}

	err := newTestTerminator(table, rec).Terminate(context.Background(), 1, unix.SIGKILL)
	if !errors.Is(err, ErrSignalFailed) || !errors.Is(err, unix.EPERM) {
		t.Fatalf("expected ErrSignalFailed wrapping EPERM, got %v", err)
	}
	if got := rec.killed(unix.SIGKILL); len(got) != 3 {
		t.Errorf("expected every process attempted, got %v", got)
	}
}

// The table is trusted as-is. If the OS recycled a child's PID for an
// unrelated process after the snapshot, that process is signalled too.
func TestTerminateSignalsRecycledPID(t *testing.T) {
	t.Parallel()
	const unrelated = 4242
	table := &fakeTable{children: map[int][]int{1: {unrelated}}}
	rec := &recorder{}

	if err := newTestTerminator(table, rec).Terminate(context.Background(), 1, unix.SIGKILL); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	got := rec.killed(unix.SIGKILL)
	if len(got) == 0 || got[0] != unrelated {
		t.Errorf("expected recycled pid %d to be signalled, got %v", unrelated, got)
	}
}
