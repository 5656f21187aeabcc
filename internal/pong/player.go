// internal/pong/player.go
package pong

import "github.com/google/uuid"

// Side identifies which half of the field a player defends. Collision and
// scoring code branches on this tag, never on pointer identity.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// EventSink delivers an outbound event to exactly one connected player.
// Implementations must never block the caller; the engine and coordinator
// fire events while holding room state.
type EventSink interface {
	Deliver(ev Event)
}

// Player is the per-match transient state for one participant. It references
// an external identity but is created fresh for every room and destroyed
// with it. The engine mutates PaddleY and Score; the Sink is owned by the
// coordinator layer and only read here.
type Player struct {
	ID      uuid.UUID `json:"id"`
	Side    Side      `json:"side"`
	PaddleY float64   `json:"paddleY"`
	Score   int       `json:"score"`
	Ready   bool      `json:"ready"`

	Sink EventSink `json:"-"`
}

// NewPlayer creates a per-match player centered on its side of the field.
func NewPlayer(id uuid.UUID, side Side, sink EventSink, r Rules) *Player {
	return &Player{
		ID:      id,
		Side:    side,
		PaddleY: r.FieldHeight / 2,
		Sink:    sink,
	}
}

// SetPaddleY moves the paddle center to y. Targets outside the legal range
// are rejected and the stored position is left untouched; the caller decides
// whether that warrants a log line.
func (p *Player) SetPaddleY(y float64, r Rules) bool {
	if y < r.MinPaddleY() || y > r.MaxPaddleY() {
		return false
	}
	p.PaddleY = y
	return true
}

// MoveUp shifts the paddle one step toward the top edge, clamped so the
// paddle never exits the field.
func (p *Player) MoveUp(r Rules) {
	p.PaddleY -= r.PaddleStep
	if p.PaddleY < r.MinPaddleY() {
		p.PaddleY = r.MinPaddleY()
	}
}

// MoveDown shifts the paddle one step toward the bottom edge, clamped.
func (p *Player) MoveDown(r Rules) {
	p.PaddleY += r.PaddleStep
	if p.PaddleY > r.MaxPaddleY() {
		p.PaddleY = r.MaxPaddleY()
	}
}
