package eventbus

import (
	"sync"
	"time"
)

// outbidThrottle bounds outbid-notice volume per (roster, lot) to at
// most one every throttleWindow, per spec §4.3 and the source's
// in-process throttle map (spec §9: "implementers may replace it with
// a shared cache, drop it, or keep it local"). It is process-local and
// best-effort, never a correctness mechanism.
type outbidThrottle struct {
	mu       sync.Mutex
	lastSent map[[2]int64]time.Time
	window   time.Duration
	now      func() time.Time
}

const defaultThrottleWindow = 3 * time.Second

func newOutbidThrottle() *outbidThrottle {
	return &outbidThrottle{
		lastSent: make(map[[2]int64]time.Time),
		window:   defaultThrottleWindow,
		now:      time.Now,
	}
}

func (t *outbidThrottle) allow(rosterID, lotID int64) bool {
	key := [2]int64{rosterID, lotID}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.lastSent[key]; ok && now.Sub(last) < t.window {
		return false
	}
	t.lastSent[key] = now

	// Opportunistic cleanup so the map doesn't grow unbounded across a
	// long-running draft.
	if len(t.lastSent) > 4096 {
		for k, ts := range t.lastSent {
			if now.Sub(ts) > t.window {
				delete(t.lastSent, k)
			}
		}
	}

	return true
}
