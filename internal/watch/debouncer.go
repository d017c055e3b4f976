package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of events for the same path into one callback
type Debouncer struct {
	mu       sync.Mutex
	timers   map[string]*time.Timer
	delay    time.Duration
	callback func(string)
}

// NewDebouncer creates a debouncer that calls callback once a path has been
// quiet for delay
func NewDebouncer(delay time.Duration, callback func(string)) *Debouncer {
	return &Debouncer{
		timers:   make(map[string]*time.Timer),
		delay:    delay,
		callback: callback,
	}
}

// Trigger schedules or resets the timer for a path
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, exists := d.timers[path]; exists {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		self := timer
		d.mu.Unlock()
		d.fire(path, self)
	})
	d.timers[path] = timer
}

// fire runs the callback for timer unless a later Trigger or Stop replaced
// it. A timer that already fired cannot be stopped, so its callback may still
// arrive after being superseded.
func (d *Debouncer) fire(path string, timer *time.Timer) {
	d.mu.Lock()
	if d.timers[path] != timer {
		d.mu.Unlock()
		return
	}
	delete(d.timers, path)
	d.mu.Unlock()

	d.callback(path)
}

// Pending returns the number of scheduled callbacks
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels all pending timers
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, timer := range d.timers {
		timer.Stop()
	}
	d.timers = make(map[string]*time.Timer)
}
