package targets

import (
	"math"
	"math/rand"
	"time"

	"aimy/internal/utility"
)

// SpawnOptions carries the per-mode placement policy.
type SpawnOptions struct {
	Size     float64
	Move     bool
	Speed    float64 // px per second, used only when Move is set
	Lifetime time.Duration
}

// Spawner places new targets uniformly inside the arena, inset by the
// target radius so no target starts partially off-arena. Live targets are
// allowed to overlap.
type Spawner struct {
	arena  Arena
	rng    *rand.Rand
	nextID int
}

func NewSpawner(arena Arena, rng *rand.Rand) *Spawner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Spawner{arena: arena, rng: rng, nextID: 1}
}

func (s *Spawner) Arena() Arena {
	return s.arena
}

// Spawn creates a target with a fresh id. Ids are never reused for the
// lifetime of the spawner.
func (s *Spawner) Spawn(opts SpawnOptions, now time.Time) *Target {
	id := s.nextID
	s.nextID++

	radius := opts.Size / 2
	minX, maxX := bounds(radius, s.arena.Width)
	minY, maxY := bounds(radius, s.arena.Height)
	c := Point{
		X: minX + s.rng.Float64()*(maxX-minX),
		Y: minY + s.rng.Float64()*(maxY-minY),
	}

	t := New(id, c, opts.Size, now)
	t.Color = utility.RandomColorHex()
	if opts.Move && opts.Speed > 0 {
		t.Motion = s.direction(opts.Speed)
	}
	if opts.Lifetime > 0 {
		t.ExpiresAt = now.Add(opts.Lifetime)
	}
	return t
}

// direction picks a random direction with components in [-1, 1], normalised
// so that speed is the actual travel speed.
func (s *Spawner) direction(speed float64) *Motion {
	for {
		dx := (s.rng.Float64() - 0.5) * 2
		dy := (s.rng.Float64() - 0.5) * 2
		n := math.Hypot(dx, dy)
		if n < 1e-6 {
			continue
		}
		return &Motion{DX: dx / n, DY: dy / n, Speed: speed}
	}
}
