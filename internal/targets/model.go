package targets

import (
	"math"
	"time"
)

// RingFractions are the band boundaries of a target as fractions of its outer radius, outermost first.
var RingFractions = []float64{1.0, 0.8, 0.6, 0.4, 0.2, 0.1}

// PointsPerHit is awarded for a hit in any band.
const PointsPerHit = 1

type Point struct {
	X float64
	Y float64
}

func (p Point) Valid() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Arena is the rectangle targets live in. Origin is the top-left corner.
type Arena struct {
	Width  float64
	Height float64
}

type Motion struct {
	DX    float64
	DY    float64
	Speed float64 // px per second
}

type Target struct {
	ID        int
	Center    Point
	Radius    float64
	Rings     []float64 // boundaries outer->inner, last is 0
	Motion    *Motion
	Color     string
	SpawnedAt time.Time
	ExpiresAt time.Time // zero if the target never expires
}

// New builds a target of the given diameter centered at c.
func New(id int, c Point, size float64, spawnedAt time.Time) *Target {
	radius := size / 2
	rings := make([]float64, 0, len(RingFractions)+1)
	for _, f := range RingFractions {
		rings = append(rings, radius*f)
	}
	rings = append(rings, 0)
	return &Target{
		ID:        id,
		Center:    c,
		Radius:    radius,
		Rings:     rings,
		SpawnedAt: spawnedAt,
	}
}

// Bands returns the number of scoring bands.
func (t *Target) Bands() int {
	return len(t.Rings) - 1
}

type Hit struct {
	Hit    bool
	Band   int // -1 on a miss, 0 is the outermost band
	Points int
}

var miss = Hit{Band: -1}

// HitTest checks p against the target's current center.
func (t *Target) HitTest(p Point) Hit {
	if !p.Valid() {
		return miss
	}
	d := math.Hypot(p.X-t.Center.X, p.Y-t.Center.Y)
	if d > t.Radius {
		return miss
	}
	for i := 0; i < t.Bands(); i++ {
		outer, inner := t.Rings[i], t.Rings[i+1]
		if d <= outer && d >= inner {
			return Hit{Hit: true, Band: i, Points: PointsPerHit}
		}
	}
	return miss
}

func (t *Target) Expires() bool {
	return !t.ExpiresAt.IsZero()
}

// Advance moves a moving target by dt and bounces it off the arena edges inset by its radius.
func (t *Target) Advance(dt time.Duration, a Arena) {
	if t.Motion == nil || t.Motion.Speed == 0 || dt <= 0 {
		return
	}
	step := t.Motion.Speed * dt.Seconds()
	t.Center.X += t.Motion.DX * step
	t.Center.Y += t.Motion.DY * step

	minX, maxX := bounds(t.Radius, a.Width)
	minY, maxY := bounds(t.Radius, a.Height)
	if t.Center.X <= minX || t.Center.X >= maxX {
		t.Motion.DX = -t.Motion.DX
		t.Center.X = clamp(t.Center.X, minX, maxX)
	}
	if t.Center.Y <= minY || t.Center.Y >= maxY {
		t.Motion.DY = -t.Motion.DY
		t.Center.Y = clamp(t.Center.Y, minY, maxY)
	}
}

// bounds returns the range a center may occupy along an axis of the given length.
// An axis shorter than the target's diameter collapses to its midpoint.
func bounds(radius, length float64) (float64, float64) {
	if length < 2*radius {
		return length / 2, length / 2
	}
	return radius, length - radius
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
