// internal/pong/ball.go
package pong

import "math/rand"

// Ball is pure physics state in field coordinates. It carries no I/O and no
// knowledge of rooms or players; the engine drives it one tick at a time.
type Ball struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// NewBall returns a ball already served from the center.
func NewBall(r Rules) *Ball {
	b := &Ball{}
	b.Reset(r)
	return b
}

// MoveBySpeed advances the ball one tick along its velocity.
func (b *Ball) MoveBySpeed() {
	b.X += b.VX
	b.Y += b.VY
}

// BounceVertical inverts the vertical velocity on top/bottom wall contact.
func (b *Ball) BounceVertical() {
	b.VY = -b.VY
}

// BounceOnPaddle reverses the horizontal direction and speeds the ball up.
// offset is the contact point relative to the paddle center, normalized to
// [-1, 1] over the paddle half-height; the vertical velocity is set
// proportional to it plus a small random jitter so perfectly flat rallies
// cannot lock in forever. |vx| grows by SpeedUpFactor but never exceeds
// MaxBallSpeed.
func (b *Ball) BounceOnPaddle(offset float64, side Side, r Rules) {
	if offset > 1 {
		offset = 1
	} else if offset < -1 {
		offset = -1
	}

	speed := -b.VX * r.SpeedUpFactor
	if speed > r.MaxBallSpeed {
		speed = r.MaxBallSpeed
	} else if speed < -r.MaxBallSpeed {
		speed = -r.MaxBallSpeed
	}
	b.VX = speed

	jitter := (rand.Float64() - 0.5) * 0.4
	b.VY = offset*r.BallSpeed + jitter
}

// Reset recenters the ball and serves it horizontally in a random direction
// with zero vertical speed.
func (b *Ball) Reset(r Rules) {
	b.X = r.FieldWidth / 2
	b.Y = r.FieldHeight / 2
	b.VY = 0
	if rand.Intn(2) == 0 {
		b.VX = r.BallSpeed
	} else {
		b.VX = -r.BallSpeed
	}
}
