package events

import "aimy/internal/stats"

type Kind string

const (
	KindScene    = Kind("scene")
	KindSpawn    = Kind("spawn")
	KindRemove   = Kind("remove")
	KindHit      = Kind("hit")
	KindMiss     = Kind("miss")
	KindExpire   = Kind("expire")
	KindTick     = Kind("tick")
	KindComplete = Kind("complete")
)

// TargetView is the presentation-facing shape of a live target.
type TargetView struct {
	ID     int       `json:"id"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Radius float64   `json:"r"`
	Rings  []float64 `json:"rings,omitempty"`
	Color  string    `json:"c,omitempty"`
	Moving bool      `json:"moving,omitempty"`
	VX     float64   `json:"vx,omitempty"` // px per second
	VY     float64   `json:"vy,omitempty"`
}

// Event is one change of session state published for presentation.
type Event struct {
	Kind      Kind            `json:"t"`
	Session   string          `json:"session"`
	Scene     string          `json:"scene,omitempty"`
	Target    *TargetView     `json:"target,omitempty"`
	TargetID  int             `json:"id,omitempty"`
	Band      int             `json:"band,omitempty"`
	X         float64         `json:"x,omitempty"`
	Y         float64         `json:"y,omitempty"`
	Stats     *stats.Snapshot `json:"stats,omitempty"`
	Remaining int             `json:"remaining,omitempty"`
	Elapsed   int             `json:"elapsed,omitempty"`
	Summary   *stats.Summary  `json:"summary,omitempty"`
}

type Bus struct {
	Events chan Event
}

func NewBus() *Bus {
	return &Bus{
		Events: make(chan Event, 256),
	}
}

// Publish never blocks the game loop; it reports false when the event was dropped.
func (b *Bus) Publish(ev Event) bool {
	select {
	case b.Events <- ev:
		return true
	default:
		return false
	}
}

// Close ends the stream for consumers. Call it only after the publisher has stopped.
func (b *Bus) Close() {
	close(b.Events)
}
