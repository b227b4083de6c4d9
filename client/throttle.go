package client

import (
	"sync"
	"time"
)

// inputThrottle enforces a minimum interval between input sends. Inputs
// offered faster than the interval coalesce (latest wins) and flush once,
// at the next allowed send time.
type inputThrottle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	pending  *InputState
	timer    *time.Timer
	flush    func(InputState)
	now      func() time.Time
}

func newInputThrottle(interval time.Duration, flush func(InputState), now func() time.Time) *inputThrottle {
	if interval <= 0 {
		interval = defaultInputInterval
	}
	if now == nil {
		now = time.Now
	}
	return &inputThrottle{interval: interval, flush: flush, now: now}
}

// Offer records the latest input. It flushes immediately when the interval
// has already elapsed, otherwise schedules a single deferred flush.
func (t *inputThrottle) Offer(in InputState) {
	t.mu.Lock()
	t.pending = &in
	if t.timer != nil {
		// A flush is already scheduled; the value above supersedes.
		t.mu.Unlock()
		return
	}
	wait := t.interval - t.now().Sub(t.last)
	if wait <= 0 {
		t.flushLocked()
		return
	}
	t.timer = time.AfterFunc(wait, t.deferredFlush)
	t.mu.Unlock()
}

func (t *inputThrottle) deferredFlush() {
	t.mu.Lock()
	t.timer = nil
	if t.pending == nil {
		t.mu.Unlock()
		return
	}
	t.flushLocked()
}

// flushLocked sends the pending value and releases the mutex before calling
// the flush function, which may block on the network.
func (t *inputThrottle) flushLocked() {
	in := *t.pending
	t.pending = nil
	t.last = t.now()
	flush := t.flush
	t.mu.Unlock()
	if flush != nil {
		flush(in)
	}
}

// Stop cancels any scheduled flush.
func (t *inputThrottle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.pending = nil
}
