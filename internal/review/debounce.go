package review

import (
	"sync"
	"time"
)

// Debouncer rate-limits refresh triggers. Elapsed time is measured on the
// monotonic clock, so wall-clock jumps cannot unblock or stall it.
type Debouncer struct {
	mu   sync.Mutex
	gap  time.Duration
	last time.Time
	now  func() time.Time
}

// NewDebouncer allows at most one trigger per gap.
func NewDebouncer(gap time.Duration) *Debouncer {
	return &Debouncer{gap: gap, now: time.Now}
}

// Allow reports whether a refresh may run now and, if so, records it.
func (d *Debouncer) Allow() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if !d.last.IsZero() && now.Sub(d.last) < d.gap {
		return false
	}
	d.last = now
	return true
}

// Last returns when the last allowed trigger happened.
func (d *Debouncer) Last() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}
