package timectrl

import (
	"context"
	"sync"
	"time"
)

// SimClock is an interface for accessing simulation time.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime paces ticks on the wall clock.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still stepping by Tick.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return "unknown"
	}
}

// TimeController paces the simulation loop and tracks simulation time. It
// satisfies core.TickSource and SimClock.
type TimeController struct {
	mu   sync.RWMutex
	Tick time.Duration
	Mode Mode

	currentTime time.Time
	ticker      *time.Ticker
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// Wait blocks until the next tick boundary and advances simulation time by
// one Tick. In Accelerated mode it only checks ctx. The ticker is created on
// first use so that pacing starts with the loop, not with construction.
func (tc *TimeController) Wait(ctx context.Context) error {
	if tc.Mode == RealTime {
		tc.mu.Lock()
		if tc.ticker == nil {
			tc.ticker = time.NewTicker(tc.Tick)
		}
		ticker := tc.ticker
		tc.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}

	tc.mu.Lock()
	tc.currentTime = tc.currentTime.Add(tc.Tick)
	tc.mu.Unlock()
	return nil
}

// Stop releases the wall-clock ticker. Wait may be called again afterwards
// and starts a new ticker.
func (tc *TimeController) Stop() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.ticker != nil {
		tc.ticker.Stop()
		tc.ticker = nil
	}
}
