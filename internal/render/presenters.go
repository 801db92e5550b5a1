package render

import (
	"context"

	"github.com/signalsfoundry/tether-deorbit-sim/core"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/logging"
	"github.com/signalsfoundry/tether-deorbit-sim/model"
)

// Fanout forwards each frame to every presenter in order.
type Fanout []core.Presenter

// Refresh satisfies core.Presenter.
func (f Fanout) Refresh(frame core.Frame) {
	for _, p := range f {
		if p != nil {
			p.Refresh(frame)
		}
	}
}

// LogPresenter is the headless surface: it logs a progress line every
// Every ticks and whenever the collection counter moves.
type LogPresenter struct {
	ctx   context.Context
	log   logging.Logger
	every uint64
	last  uint64
}

// NewLogPresenter returns a presenter that writes to log, or to the logger
// carried by ctx when log is nil. every == 0 disables periodic lines.
func NewLogPresenter(ctx context.Context, log logging.Logger, every uint64) *LogPresenter {
	if log == nil {
		log = logging.LoggerFromContext(ctx)
	}
	if log == nil {
		log = logging.Noop()
	}
	return &LogPresenter{ctx: ctx, log: log, every: every}
}

// Refresh satisfies core.Presenter.
func (p *LogPresenter) Refresh(frame core.Frame) {
	if frame.Collected > p.last {
		p.log.Info(p.ctx, CounterText(frame.Collected),
			logging.Any("tick", frame.Tick),
		)
		p.last = frame.Collected
		return
	}
	if p.every > 0 && frame.Tick%p.every == 0 {
		counts := CountStates(frame)
		p.log.Info(p.ctx, "progress",
			logging.Any("tick", frame.Tick),
			logging.Any("collected", frame.Collected),
			logging.Int("orbiting", counts[model.StateOrbiting]),
			logging.Int("slowed", counts[model.StateSlowed]),
			logging.Int("falling", counts[model.StateFalling]),
		)
	}
}

// CountStates tallies the frame's debris by state.
func CountStates(frame core.Frame) map[model.State]int {
	counts := make(map[model.State]int, 4)
	for _, d := range frame.Debris {
		counts[d.State]++
	}
	return counts
}
