package breathing

import (
	"sync"
	"time"
)

// fakeClock hands out tickers that only fire when the test calls Tick.
type fakeClock struct {
	mu      sync.Mutex
	current *fakeTicker
	created int
}

type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeClock) NewTicker(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	f.current = t
	f.created++
	return t
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Tick delivers one tick to the live ticker. It returns false when no
// running ticker receives it within the timeout.
func (f *fakeClock) Tick(timeout time.Duration) bool {
	f.mu.Lock()
	t := f.current
	f.mu.Unlock()
	if t == nil || t.isStopped() {
		return false
	}
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(timeout):
		return false
	}
}

func (f *fakeClock) tickersCreated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}
