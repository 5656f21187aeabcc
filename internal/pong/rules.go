// internal/pong/rules.go
package pong

import "time"

// Rules holds the tunable parameters for a single match. Every room carries
// its own copy so a tweak for one match can never affect another.
type Rules struct {
	FieldWidth   float64 `json:"fieldWidth"`
	FieldHeight  float64 `json:"fieldHeight"`
	PaddleHeight float64 `json:"paddleHeight"`
	PaddleWidth  float64 `json:"paddleWidth"`

	// PaddleInset is the distance from each vertical field edge to the
	// paddle's contact plane.
	PaddleInset float64 `json:"paddleInset"`

	// BallSpeed is the fixed horizontal speed magnitude assigned on serve.
	BallSpeed float64 `json:"ballSpeed"`

	// SpeedUpFactor multiplies |vx| on every paddle bounce, up to MaxBallSpeed.
	SpeedUpFactor float64 `json:"speedUpFactor"`
	MaxBallSpeed  float64 `json:"maxBallSpeed"`

	// PaddleStep is how far a single MoveUp/MoveDown command shifts the paddle.
	PaddleStep float64 `json:"paddleStep"`

	WinThreshold int `json:"winThreshold"`

	// TickInterval is the cadence of the simulation loop. It is a tunable,
	// not a contract; tests shorten it aggressively.
	TickInterval time.Duration `json:"-"`

	// CountdownSec is the delay between both players readying up and the
	// first tick.
	CountdownSec int `json:"countdownSec"`
}

// DefaultRules returns the standard competitive ruleset.
func DefaultRules() Rules {
	return Rules{
		FieldWidth:    800,
		FieldHeight:   600,
		PaddleHeight:  100,
		PaddleWidth:   12,
		PaddleInset:   20,
		BallSpeed:     6,
		SpeedUpFactor: 1.05,
		MaxBallSpeed:  14,
		PaddleStep:    10,
		WinThreshold:  11,
		TickInterval:  16 * time.Millisecond,
		CountdownSec:  3,
	}
}

// MinPaddleY returns the lowest legal paddle center position.
func (r Rules) MinPaddleY() float64 {
	return r.PaddleHeight / 2
}

// MaxPaddleY returns the highest legal paddle center position.
func (r Rules) MaxPaddleY() float64 {
	return r.FieldHeight - r.PaddleHeight/2
}
