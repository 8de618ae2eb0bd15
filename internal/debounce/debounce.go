// Package debounce coalesces bursts of calls into one call after a quiet
// window.
package debounce

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer a Debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The zero Debouncer uses the real clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(d *Debouncer) { d.clock = c }
}

// Debouncer runs only the most recent function passed to Trigger, once no
// further Trigger has arrived for the window. A superseded function never
// runs, even when its timer has already fired and is waiting on the lock.
type Debouncer struct {
	window time.Duration
	clock  Clock

	mu      sync.Mutex
	gen     uint64
	timer   Timer
	pending func()
}

func New(window time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{window: window, clock: realClock{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Window returns the quiet period.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Trigger schedules fn, superseding any pending function.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = fn
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

// Cancel drops the pending function, if any. It reports whether one was
// dropped.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending = nil
	d.timer = nil
	return true
}

// Flush runs the pending function now instead of at the end of the window.
// It reports whether there was one.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.pending == nil {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
	return true
}

// Pending reports whether a function is waiting for its window.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
