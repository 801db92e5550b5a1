// Package audio plays a short tone whenever debris are collected.
package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/signalsfoundry/tether-deorbit-sim/core"
	"github.com/signalsfoundry/tether-deorbit-sim/internal/logging"
)

const sampleRate = beep.SampleRate(44100)

// Player plays a tone without blocking the caller.
type Player interface {
	Play(freq float64, d time.Duration) error
}

// Speaker is a Player backed by the system audio device.
type Speaker struct {
	mu     sync.Mutex
	closed bool
}

// OpenSpeaker initialises the audio device.
func OpenSpeaker() (*Speaker, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &Speaker{}, nil
}

// Play queues a sine tone on the speaker's mixer.
func (s *Speaker) Play(freq float64, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return fmt.Errorf("sine tone %v Hz: %w", freq, err)
	}
	speaker.Play(beep.Take(sampleRate.N(d), sine))
	return nil
}

// Close stops playback and releases the device.
func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	speaker.Clear()
	speaker.Close()
}

// Chime decorates a presenter with a tone on every counter increase.
type Chime struct {
	next     core.Presenter
	player   Player
	freq     float64
	duration time.Duration
	log      logging.Logger

	last   uint64
	failed bool
}

// NewChime wraps next. A nil next is allowed for audio-only use.
func NewChime(next core.Presenter, player Player, freq float64, d time.Duration, log logging.Logger) *Chime {
	if next == nil {
		next = core.PresenterFunc(func(core.Frame) {})
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Chime{next: next, player: player, freq: freq, duration: d, log: log}
}

// Refresh satisfies core.Presenter. Playback errors are logged once and
// then the chime goes quiet.
func (c *Chime) Refresh(frame core.Frame) {
	c.next.Refresh(frame)

	if frame.Collected <= c.last {
		return
	}
	c.last = frame.Collected
	if c.failed || c.player == nil {
		return
	}
	if err := c.player.Play(c.freq, c.duration); err != nil {
		c.failed = true
		c.log.Warn(context.Background(), "collection chime disabled", logging.Err(err))
	}
}
