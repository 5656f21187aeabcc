// internal/pong/ball_test.go
package pong

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBallResetCentersAndServes(t *testing.T) {
	r := DefaultRules()
	b := &Ball{X: 17, Y: 412, VX: 9.3, VY: -4.1}

	for i := 0; i < 20; i++ {
		b.Reset(r)
		assert.Equal(t, r.FieldWidth/2, b.X, "ball should recenter horizontally")
		assert.Equal(t, r.FieldHeight/2, b.Y, "ball should recenter vertically")
		assert.Zero(t, b.VY, "serve has no vertical speed")
		assert.Equal(t, r.BallSpeed, math.Abs(b.VX), "serve speed is fixed magnitude")
	}
}

func TestBallMoveBySpeed(t *testing.T) {
	b := &Ball{X: 100, Y: 200, VX: 5, VY: -3}
	b.MoveBySpeed()
	assert.Equal(t, 105.0, b.X)
	assert.Equal(t, 197.0, b.Y)
}

func TestBounceVerticalInvertsVY(t *testing.T) {
	b := &Ball{VY: -4}
	b.BounceVertical()
	assert.Equal(t, 4.0, b.VY)
	b.BounceVertical()
	assert.Equal(t, -4.0, b.VY)
}

func TestBounceOnPaddleReversesAndSpeedsUp(t *testing.T) {
	r := DefaultRules()
	b := &Ball{VX: -r.BallSpeed, VY: 0}

	b.BounceOnPaddle(0, SideLeft, r)

	assert.Greater(t, b.VX, 0.0, "horizontal direction must reverse")
	assert.InDelta(t, r.BallSpeed*r.SpeedUpFactor, b.VX, 1e-9, "speed grows by the configured factor")
}

func TestBounceOnPaddleHonorsSpeedCap(t *testing.T) {
	r := DefaultRules()

	// Ball already at the cap: the bounce must reverse but never exceed it.
	b := &Ball{VX: -r.MaxBallSpeed, VY: 0}
	b.BounceOnPaddle(0, SideLeft, r)
	require.Greater(t, b.VX, 0.0)
	assert.LessOrEqual(t, math.Abs(b.VX), r.MaxBallSpeed)

	// Repeated bounces stay capped from either side.
	for i := 0; i < 50; i++ {
		side := SideLeft
		if b.VX > 0 {
			side = SideRight
		}
		b.BounceOnPaddle(0.7, side, r)
		assert.LessOrEqual(t, math.Abs(b.VX), r.MaxBallSpeed)
	}
}

func TestBounceOnPaddleOffsetSetsVerticalSpeed(t *testing.T) {
	r := DefaultRules()

	b := &Ball{VX: -r.BallSpeed, VY: 0}
	b.BounceOnPaddle(1, SideLeft, r)
	// Contact at the paddle's bottom edge sends the ball downward; jitter is
	// at most 0.2 either way.
	assert.Greater(t, b.VY, r.BallSpeed-0.5)

	b.VX = -r.BallSpeed
	b.BounceOnPaddle(-1, SideLeft, r)
	assert.Less(t, b.VY, -r.BallSpeed+0.5)

	// Out-of-range offsets are clamped, not amplified.
	b.VX = -r.BallSpeed
	b.BounceOnPaddle(8, SideLeft, r)
	assert.LessOrEqual(t, b.VY, r.BallSpeed+0.5)
}
