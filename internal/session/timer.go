// ABOUTME: Cancellable one-shot timer guarded by the session lock.
// ABOUTME: Arming supersedes the pending callback; cancel is absolute.

package session

import (
	"sync"
	"time"
)

// guardedTimer schedules at most one pending callback. It shares the
// owner's mutex: arm and cancel require the lock held, and the
// callback runs with the lock held after re-checking its generation.
// That closes the window where a cancelled or superseded callback
// could still observe or mutate state: cancellation under the lock
// guarantees the old callback never fires.
type guardedTimer struct {
	mu    *sync.Mutex
	gen   uint64
	timer *time.Timer
}

func newGuardedTimer(mu *sync.Mutex) *guardedTimer {
	return &guardedTimer{mu: mu}
}

// arm schedules fn to run after d, superseding any pending callback
// (last write wins). The caller must hold the shared lock; fn runs
// with the lock held.
func (g *guardedTimer) arm(d time.Duration, fn func()) {
	g.gen++
	gen := g.gen
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(d, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if gen != g.gen {
			return // superseded or cancelled
		}
		fn()
	})
}

// cancel drops any pending callback. The caller must hold the shared
// lock. After cancel returns, the old callback cannot fire.
func (g *guardedTimer) cancel() {
	g.gen++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
