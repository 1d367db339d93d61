package libraryclient

import (
	"sync"
	"time"
)

// SearchDelay is how long typing must pause before the query is committed.
const SearchDelay = 350 * time.Millisecond

// Debouncer delays committing a typed value until input pauses. While a value is typed but not
// yet committed the debouncer is dirty, and external syncs of the same field are refused.
type Debouncer struct {
	delay  time.Duration
	commit func(string)

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
	value string
	dirty bool
}

// NewDebouncer creates a debouncer calling commit with the settled value.
// A non-positive delay uses SearchDelay.
func NewDebouncer(delay time.Duration, commit func(string)) *Debouncer {
	if delay <= 0 {
		delay = SearchDelay
	}
	return &Debouncer{delay: delay, commit: commit}
}

// Input records a keystroke and restarts the delay.
func (d *Debouncer) Input(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.value = v
	d.dirty = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Sync applies a value coming from outside (for example the URL after navigation).
// It is ignored and returns false while an uncommitted keystroke is pending.
func (d *Debouncer) Sync(v string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dirty {
		return false
	}
	d.value = v
	return true
}

// Value returns the current input value.
func (d *Debouncer) Value() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Dirty reports whether a typed value is waiting to be committed.
func (d *Debouncer) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

// Flush commits a pending value immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.mu.Unlock()
	d.fire(gen)
}

// Stop drops any pending value without committing it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	d.dirty = false
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.dirty {
		d.mu.Unlock()
		return
	}
	v := d.value
	d.dirty = false
	d.mu.Unlock()

	if d.commit != nil {
		d.commit(v)
	}
}
