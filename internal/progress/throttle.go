// Package progress rate-limits outbound status updates. Updates go out when
// enough time has elapsed since the last one or the percent moved far enough,
// whichever fires first, so the chat neither floods nor goes stale.
package progress

import (
	"sync"
	"time"
)

// Emit pushes one percent value to the conversational surface.
type Emit func(percent int)

// Reporter throttles a stream of percent callbacks into edit-in-place status
// updates. Percents never go backwards; duplicates at the same value are
// coalesced.
type Reporter struct {
	interval time.Duration
	delta    float64
	emit     Emit

	mu      sync.Mutex
	started bool
	lastAt  time.Time
	lastPct float64

	now func() time.Time // test hook
}

func New(interval time.Duration, delta float64, emit Emit) *Reporter {
	return &Reporter{
		interval: interval,
		delta:    delta,
		emit:     emit,
		lastPct:  -1,
		now:      time.Now,
	}
}

// Report considers one percent sample. The first sample always goes out.
func (r *Reporter) Report(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	r.mu.Lock()
	if p <= r.lastPct {
		r.mu.Unlock()
		return
	}
	now := r.now()
	due := !r.started ||
		now.Sub(r.lastAt) >= r.interval ||
		p-r.lastPct >= r.delta
	if !due {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.lastAt = now
	r.lastPct = p
	r.mu.Unlock()

	r.emit(int(p))
}

// Finish forces the terminal value out regardless of throttling.
func (r *Reporter) Finish() {
	r.mu.Lock()
	if r.lastPct >= 100 {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.lastAt = r.now()
	r.lastPct = 100
	r.mu.Unlock()

	r.emit(100)
}
