package core

import (
	"math/rand/v2"

	"github.com/signalsfoundry/tether-deorbit-sim/model"
)

// Rand is the random source behind every randomized decision of the
// simulation. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns the default seedable source.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Spawner places debris on the left boundary with freshly sampled drift.
type Spawner struct {
	cfg Config
	rng Rand
}

// NewSpawner constructs a spawner over the given config and random source.
func NewSpawner(cfg Config, rng Rand) *Spawner {
	return &Spawner{cfg: cfg, rng: rng}
}

// Spawn starts a new life for d.
func (s *Spawner) Spawn(d *model.Debris) {
	pos := model.Point{
		X: s.cfg.LeftBoundary,
		Y: s.uniform(s.cfg.SpawnYRange),
	}
	dx := s.uniform(s.cfg.DXRange)
	dy := s.uniform(s.cfg.DYRange)
	d.Spawn(pos, dx, dy)
}

// Population spawns cfg.Population fresh entities with ids 0..n-1.
func (s *Spawner) Population() []*model.Debris {
	out := make([]*model.Debris, s.cfg.Population)
	for i := range out {
		d := &model.Debris{ID: i}
		s.Spawn(d)
		out[i] = d
	}
	return out
}

func (s *Spawner) uniform(r Range) float64 {
	return r.Min + s.rng.Float64()*(r.Max-r.Min)
}
