package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/signalsfoundry/tether-deorbit-sim/core"
)

type fakePlayer struct {
	plays []float64
	err   error
}

func (p *fakePlayer) Play(freq float64, d time.Duration) error {
	p.plays = append(p.plays, freq)
	return p.err
}

func TestChimePlaysOnCounterIncrease(t *testing.T) {
	player := &fakePlayer{}
	var forwarded []uint64
	next := core.PresenterFunc(func(f core.Frame) { forwarded = append(forwarded, f.Tick) })
	c := NewChime(next, player, 880, 50*time.Millisecond, nil)

	for tick, collected := range []uint64{0, 0, 1, 1, 3, 3} {
		c.Refresh(core.Frame{Tick: uint64(tick), Collected: collected})
	}

	assert.Equal(t, []float64{880, 880}, player.plays)
	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5}, forwarded)
}

func TestChimeGoesQuietAfterFailure(t *testing.T) {
	player := &fakePlayer{err: errors.New("no device")}
	c := NewChime(nil, player, 440, time.Millisecond, nil)

	c.Refresh(core.Frame{Collected: 1})
	c.Refresh(core.Frame{Collected: 2})

	assert.Len(t, player.plays, 1)
}

func TestChimeWithoutPlayer(t *testing.T) {
	c := NewChime(nil, nil, 440, time.Millisecond, nil)
	assert.NotPanics(t, func() { c.Refresh(core.Frame{Collected: 1}) })
}
