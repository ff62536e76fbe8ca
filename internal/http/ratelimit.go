package http

import (
	"sync"
	"time"
)

// writeLimiter throttles mutating requests per client IP with a fixed
// counting window. Reads are never throttled; dashboard traffic goes through
// the caches instead.
type writeLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	seen   map[string]*ipWindow

	// now is swapped out in tests
	now func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

type ipWindow struct {
	opened time.Time
	count  int
}

func newWriteLimiter(limit int, window time.Duration) *writeLimiter {
	wl := &writeLimiter{
		limit:  limit,
		window: window,
		seen:   make(map[string]*ipWindow),
		now:    time.Now,
		done:   make(chan struct{}),
	}
	go wl.pruneLoop()
	return wl
}

// allow reports whether one more write from ip fits in its current window.
// The first request past the window opens a fresh one.
func (wl *writeLimiter) allow(ip string) bool {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	now := wl.now()
	win, ok := wl.seen[ip]
	if !ok || now.Sub(win.opened) >= wl.window {
		wl.seen[ip] = &ipWindow{opened: now, count: 1}
		return true
	}

	win.count++
	return win.count <= wl.limit
}

func (wl *writeLimiter) pruneLoop() {
	ticker := time.NewTicker(5 * wl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			wl.prune()
		case <-wl.done:
			return
		}
	}
}

// prune drops windows that closed at least one full window ago, so idle
// clients don't accumulate.
func (wl *writeLimiter) prune() {
	wl.mu.Lock()
	defer wl.mu.Unlock()

	cutoff := wl.now().Add(-2 * wl.window)
	for ip, win := range wl.seen {
		if win.opened.Before(cutoff) {
			delete(wl.seen, ip)
		}
	}
}

func (wl *writeLimiter) stop() {
	wl.stopOnce.Do(func() { close(wl.done) })
}
