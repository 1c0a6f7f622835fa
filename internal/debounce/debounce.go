// Package debounce provides a rate-limited coalescing sender: at most one
// dispatch per interval, always delivering the freshest value eventually.
package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces Send calls so the sink sees at most one value per
// interval. A value sent while a deferred dispatch is armed overwrites the
// pending value; at most one deferred dispatch is outstanding at a time.
//
// The sink runs on the caller's goroutine for immediate dispatches and on a
// timer goroutine for deferred ones; it must be safe for that.
type Debouncer[T any] struct {
	mu       sync.Mutex
	interval time.Duration
	sink     func(T)

	last    time.Time
	pending T
	timer   *time.Timer // non-nil while a deferred dispatch is armed
	stopped bool
}

// New creates a debouncer dispatching to sink at most once per interval.
func New[T any](interval time.Duration, sink func(T)) *Debouncer[T] {
	return &Debouncer[T]{interval: interval, sink: sink}
}

// Send dispatches v immediately if a full interval has passed since the last
// actual dispatch, otherwise records v as the pending value and arms a single
// deferred dispatch for the remainder of the window.
func (d *Debouncer[T]) Send(v T) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	if d.timer != nil {
		// A deferred dispatch is armed: only the freshest value survives.
		d.pending = v
		d.mu.Unlock()
		return
	}

	now := time.Now()
	if elapsed := now.Sub(d.last); elapsed >= d.interval {
		d.last = now
		sink := d.sink
		d.mu.Unlock()
		sink(v)
		return
	} else {
		d.pending = v
		d.timer = time.AfterFunc(d.interval-elapsed, d.fire)
	}
	d.mu.Unlock()
}

// fire delivers the pending value when the deferred window elapses.
func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	if d.stopped || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.last = time.Now()
	v := d.pending
	sink := d.sink
	d.mu.Unlock()
	sink(v)
}

// SetInterval changes the interval used for future scheduling decisions.
// An already-armed deferred dispatch keeps its original deadline.
func (d *Debouncer[T]) SetInterval(interval time.Duration) {
	d.mu.Lock()
	d.interval = interval
	d.mu.Unlock()
}

// Interval returns the current interval.
func (d *Debouncer[T]) Interval() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.interval
}

// Stop cancels any armed deferred dispatch and makes all further Send calls
// no-ops. Used when the session reaches its terminal state so a stray timer
// cannot write to a closed connection.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}
