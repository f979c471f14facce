package chat

import (
	"sync"
	"time"
)

// debouncer runs only the most recent of a burst of calls, once the burst has
// been quiet for the configured window.
type debouncer struct {
	window time.Duration

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	pending func()
	fired   chan struct{} // closed once the pending call has run or been dropped
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window}
}

// Trigger schedules fn, replacing any call still waiting for its window.
// With a non-positive window fn runs immediately on the caller's goroutine.
func (d *debouncer) Trigger(fn func()) {
	if d.window <= 0 {
		fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = fn
	if d.fired == nil {
		d.fired = make(chan struct{})
	}
	d.timer = time.AfterFunc(d.window, func() { d.run(gen) })
}

func (d *debouncer) run(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		// superseded by a later Trigger or dropped by Stop
		d.mu.Unlock()
		return
	}
	fn, fired := d.pending, d.fired
	d.pending, d.fired, d.timer = nil, nil, nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
	if fired != nil {
		close(fired)
	}
}

// Wait blocks until the call pending at the time of the call has run.
func (d *debouncer) Wait() {
	d.mu.Lock()
	fired := d.fired
	d.mu.Unlock()

	if fired != nil {
		<-fired
	}
}

// Stop drops any pending call.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.pending, d.timer = nil, nil
	if d.fired != nil {
		close(d.fired)
		d.fired = nil
	}
}
