package wait

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrTimeoutKill is the cause a poller is killed with when its timeout
// guard fires.
var ErrTimeoutKill = errors.New("killed by timeout guard")

// Killer is anything the timeout guard can force-terminate.
type Killer interface {
	Kill(cause error)
}

// GuardHandle refers to a running timeout guard.
type GuardHandle struct {
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	fired    atomic.Bool
}

// StartGuard waits for after to elapse on its own goroutine, then kills
// target with ErrTimeoutKill and exits. It produces no result of its own.
func StartGuard(after time.Duration, target Killer) *GuardHandle {
	g := &GuardHandle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go g.run(after, target)
	return g
}

func (g *GuardHandle) run(after time.Duration, target Killer) {
	defer close(g.done)

	timer := time.NewTimer(after)
	defer timer.Stop()

	select {
	case <-timer.C:
		g.fired.Store(true)
		target.Kill(ErrTimeoutKill)
	case <-g.stop:
	}
}

// Cancel stops a pending guard and waits for it to exit. It is safe to call
// more than once and after the guard has already fired.
func (g *GuardHandle) Cancel() {
	g.stopOnce.Do(func() { close(g.stop) })
	<-g.done
}

// Done is closed once the guard has exited.
func (g *GuardHandle) Done() <-chan struct{} {
	return g.done
}

// Fired reports whether the guard killed its target.
func (g *GuardHandle) Fired() bool {
	return g.fired.Load()
}
