package chat

import (
	"sync"
	"time"
)

// Deferred owns a set of delayed tasks. Closing it cancels every pending
// task, so nothing fires after the owning view is gone.
type Deferred struct {
	mu      sync.Mutex
	pending map[*Handle]struct{}
	closed  bool
}

// Handle is a cancellable reference to one scheduled task.
type Handle struct {
	owner *Deferred
	timer *time.Timer
	fired chan struct{}
}

func NewDeferred() *Deferred {
	return &Deferred{pending: make(map[*Handle]struct{})}
}

// Schedule runs fn after delay unless the handle or the Deferred is
// cancelled first. After Close it returns an already-cancelled handle.
func (d *Deferred) Schedule(delay time.Duration, fn func()) *Handle {
	h := &Handle{owner: d, fired: make(chan struct{})}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return h
	}
	d.pending[h] = struct{}{}
	h.timer = time.AfterFunc(delay, func() {
		if !d.release(h) {
			return
		}
		defer close(h.fired)
		fn()
	})
	return h
}

// Cancel stops the task. It reports whether the task was still pending.
func (h *Handle) Cancel() bool {
	if h.timer == nil {
		return false
	}
	if !h.owner.release(h) {
		return false
	}
	h.timer.Stop()
	return true
}

// Fired is closed once the task has run to completion.
func (h *Handle) Fired() <-chan struct{} { return h.fired }

// Pending returns the number of tasks that have neither fired nor been cancelled.
func (d *Deferred) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close cancels all pending tasks; later Schedule calls are no-ops.
func (d *Deferred) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for h := range d.pending {
		h.timer.Stop()
		delete(d.pending, h)
	}
}

// release removes h from the pending set; only the first caller wins.
func (d *Deferred) release(h *Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pending[h]; !ok {
		return false
	}
	delete(d.pending, h)
	return true
}
