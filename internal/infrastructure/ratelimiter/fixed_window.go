package ratelimiter

import (
	"sync"
	"time"
)

// Limiter is the request-throttling contract the HTTP layer consumes.
type Limiter interface {
	// Allow reports whether a request from source may proceed; when it may
	// not, the returned duration says how long until the window resets.
	Allow(source string) (bool, time.Duration)
	Close()
}

type window struct {
	count   int
	resetAt time.Time
}

// FixedWindow counts requests per source in fixed time windows. Stale
// sources are swept on a background ticker.
type FixedWindow struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	ticker  *time.Ticker
	done    chan struct{}
}

func NewFixedWindow(limit int, period time.Duration) *FixedWindow {
	rl := &FixedWindow{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		ticker:  time.NewTicker(period),
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

func (rl *FixedWindow) Allow(source string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[source]
	if !ok || !now.Before(w.resetAt) {
		rl.windows[source] = &window{count: 1, resetAt: now.Add(rl.period)}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, time.Until(w.resetAt)
	}

	w.count++
	return true, 0
}

func (rl *FixedWindow) sweep() {
	for {
		select {
		case <-rl.ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for source, w := range rl.windows {
				if now.After(w.resetAt) {
					delete(rl.windows, source)
				}
			}
			rl.mu.Unlock()
		case <-rl.done:
			return
		}
	}
}

func (rl *FixedWindow) Close() {
	close(rl.done)
	rl.ticker.Stop()
}
