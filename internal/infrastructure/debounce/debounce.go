// Package debounce collapses bursts of calls into one call fired after a
// quiet period.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is the wait used when none is configured.
const DefaultQuietPeriod = 100 * time.Millisecond

// Debouncer runs the most recently triggered function once no trigger has
// arrived for the quiet period.
type Debouncer struct {
	mu      sync.Mutex
	wait    time.Duration
	timer   *time.Timer
	stopped bool
}

// New creates a debouncer. A non-positive wait uses DefaultQuietPeriod.
func New(wait time.Duration) *Debouncer {
	if wait <= 0 {
		wait = DefaultQuietPeriod
	}
	return &Debouncer{wait: wait}
}

// Trigger schedules fn, cancelling any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, fn)
}

// Cancel drops the pending call, reporting whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	pending := d.timer.Stop()
	d.timer = nil
	return pending
}

// Stop cancels any pending call; later triggers are ignored.
func (d *Debouncer) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}
