// Package idle fires a callback once the user has been inactive for a while.
package idle

import (
	"sync"
	"time"
)

// Watcher restarts its countdown on every Activity call. When the countdown
// runs out, fire is called on its own goroutine and the watcher waits for
// the next activity before arming again.
type Watcher struct {
	mu      sync.Mutex
	timeout time.Duration
	fire    func()
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func New(timeout time.Duration, fire func()) *Watcher {
	return &Watcher{timeout: timeout, fire: fire}
}

// Activity records user activity and re-arms the countdown.
func (w *Watcher) Activity() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || w.timeout <= 0 {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.gen++
	gen := w.gen
	w.timer = time.AfterFunc(w.timeout, func() { w.expire(gen) })
}

// expire ignores countdowns superseded by later activity.
func (w *Watcher) expire(gen uint64) {
	w.mu.Lock()
	if w.stopped || gen != w.gen {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.mu.Unlock()
	w.fire()
}

// Armed reports whether a countdown is pending.
func (w *Watcher) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.timer != nil
}

// Stop disarms the watcher for good.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
