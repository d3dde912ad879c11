package encounterserver

import (
	"sync"
	"time"
)

// TurnTimer fires a callback when a human turn runs past its deadline.
// Each Reset starts a new generation; callbacks from earlier generations no-op.
// It is safe for concurrent use.
type TurnTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// NewTurnTimer returns an idle TurnTimer.
func NewTurnTimer() *TurnTimer {
	return &TurnTimer{stopped: true}
}

// Reset cancels any pending deadline and arms a new one calling onFire after d.
// onFire runs in its own goroutine.
//
// Precondition: d > 0; onFire must not be nil.
// Postcondition: onFire will be called after d unless Reset or Stop is called first.
func (t *TurnTimer) Reset(d time.Duration, onFire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	t.stopped = false
	gen := t.gen
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		live := !t.stopped && t.gen == gen
		if live {
			t.stopped = true
		}
		t.mu.Unlock()
		if live {
			onFire()
		}
	})
}

// Stop prevents any pending callback from firing. Safe to call multiple times.
//
// Postcondition: callbacks armed before Stop that have not started will never run.
func (t *TurnTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Armed reports whether a deadline is pending and has not fired.
func (t *TurnTimer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped
}
