package breathing

import "time"

// TickInterval is the cadence at which a running session counts down.
const TickInterval = time.Second

// Clock creates tickers. It exists so the runner can be driven by a fake
// clock in tests.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realClock struct{}

// RealClock returns a Clock backed by time.Ticker.
func RealClock() Clock { return realClock{} }

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

type scaledClock struct{ speed float64 }

// ScaledClock returns a real clock whose tickers fire speed times faster
// than requested. Speeds at or below 1 behave like RealClock.
func ScaledClock(speed float64) Clock {
	if speed <= 1 {
		return realClock{}
	}
	return scaledClock{speed: speed}
}

func (c scaledClock) NewTicker(d time.Duration) Ticker {
	scaled := time.Duration(float64(d) / c.speed)
	if scaled <= 0 {
		scaled = time.Millisecond
	}
	return realTicker{time.NewTicker(scaled)}
}
