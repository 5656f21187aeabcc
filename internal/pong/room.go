// internal/pong/room.go
package pong

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/rally/internal/models"
)

// RoomState is the lifecycle of a single match room.
type RoomState string

const (
	RoomAwaitingReady RoomState = "awaiting_ready"
	RoomRunning       RoomState = "running"
	RoomEnded         RoomState = "ended"
)

// OnMatchEndFunc receives the final result of a room exactly once. The
// coordinator uses it to tear the room down and notify external collaborators.
type OnMatchEndFunc func(result models.MatchResult)

// Room holds the entire state for one active match: the ball, both players,
// the ruleset and the tick loop driving them. All reads-then-writes of room
// state go through Mu; the two players' commands arrive concurrently and the
// tick loop runs on its own goroutine.
type Room struct {
	ID   uuid.UUID
	Kind models.MatchKind

	Rules Rules
	Ball  *Ball
	Left  *Player
	Right *Player

	State RoomState
	Mu    sync.Mutex

	// OnMatchEnd is invoked once, outside the room lock, when the room
	// reaches RoomEnded. May be nil in tests.
	OnMatchEnd OnMatchEndFunc

	// countdownTimer schedules the transition from all-ready to RUNNING.
	// Compared by pointer when it fires so a stale timer is ignored.
	countdownTimer *time.Timer

	// stopTick signals the tick goroutine to exit. Closed at most once,
	// guarded by State under Mu.
	stopTick chan struct{}

	logger *logrus.Logger
}

// NewRoom creates a room in AWAITING_READY with a freshly served ball.
func NewRoom(kind models.MatchKind, left, right *Player, rules Rules, logger *logrus.Logger) *Room {
	id, _ := uuid.NewRandom()
	if logger == nil {
		logger = logrus.New()
	}
	return &Room{
		ID:       id,
		Kind:     kind,
		Rules:    rules,
		Ball:     NewBall(rules),
		Left:     left,
		Right:    right,
		State:    RoomAwaitingReady,
		stopTick: make(chan struct{}),
		logger:   logger,
	}
}

// PlayerByID returns the room participant with the given identity, or nil.
func (room *Room) PlayerByID(id uuid.UUID) *Player {
	if room.Left != nil && room.Left.ID == id {
		return room.Left
	}
	if room.Right != nil && room.Right.ID == id {
		return room.Right
	}
	return nil
}

// Opponent returns the other participant, or nil if id is not in the room.
func (room *Room) Opponent(id uuid.UUID) *Player {
	if room.Left != nil && room.Left.ID == id {
		return room.Right
	}
	if room.Right != nil && room.Right.ID == id {
		return room.Left
	}
	return nil
}

// MarkReady records a ready signal and reports whether both sides are now
// ready. Signals for unknown players or rooms past AWAITING_READY are no-ops.
func (room *Room) MarkReady(playerID uuid.UUID) (bothReady bool) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.State != RoomAwaitingReady {
		return false
	}
	p := room.PlayerByID(playerID)
	if p == nil {
		return false
	}
	p.Ready = true
	return room.Left.Ready && room.Right.Ready
}

// StartCountdown schedules the match start after the pre-match delay. A
// second call while a countdown is pending is ignored. When the timer fires
// it is checked against the stored pointer so a cancelled countdown can
// never start a stale room.
func (room *Room) StartCountdown(onStart func()) {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.State != RoomAwaitingReady || room.countdownTimer != nil {
		return
	}

	delay := time.Duration(room.Rules.CountdownSec) * time.Second
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		room.Mu.Lock()
		stale := room.countdownTimer != timer || room.State != RoomAwaitingReady
		room.countdownTimer = nil
		room.Mu.Unlock()
		if stale {
			room.logger.Debugf("room %s: stale countdown fired, ignoring", room.ID)
			return
		}
		room.Start()
		if onStart != nil {
			onStart()
		}
	})
	room.countdownTimer = timer
}

// Start transitions AWAITING_READY -> RUNNING and launches the tick loop.
// Calling it on a room that is not awaiting ready is a no-op.
func (room *Room) Start() {
	room.Mu.Lock()
	if room.State != RoomAwaitingReady {
		room.Mu.Unlock()
		return
	}
	room.State = RoomRunning
	if room.countdownTimer != nil {
		room.countdownTimer.Stop()
		room.countdownTimer = nil
	}
	interval := room.Rules.TickInterval
	room.Mu.Unlock()

	room.logger.Infof("room %s: match started (%s)", room.ID, room.Kind)

	go room.tickLoop(interval)
}

// tickLoop runs the fixed-interval simulation until the room ends. Tick N is
// fully applied before tick N+1 begins because every step runs under the
// room lock on this single goroutine.
func (room *Room) tickLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-room.stopTick:
			return
		case <-ticker.C:
			room.tick()
		}
	}
}

// tick advances the simulation one step. If the room was torn down
// concurrently the tick is a no-op; it never emits after RoomEnded.
func (room *Room) tick() {
	room.Mu.Lock()

	if room.State != RoomRunning {
		room.Mu.Unlock()
		return
	}

	scorer := room.step()

	snapshot := Snapshot{
		BallX:        room.Ball.X,
		BallY:        room.Ball.Y,
		LeftPaddleY:  room.Left.PaddleY,
		RightPaddleY: room.Right.PaddleY,
	}
	scores := ScoreLine{Left: room.Left.Score, Right: room.Right.Score}

	var winner, loser *Player
	if scorer != nil && scorer.Score >= room.Rules.WinThreshold {
		winner = scorer
		loser = room.other(scorer)
	}

	left, right := room.Left, room.Right
	room.Mu.Unlock()

	room.deliverBoth(left, right, Event{Type: EventRoomState, State: &snapshot})
	if scorer != nil {
		room.deliverBoth(left, right, Event{Type: EventPlayerScored, Scores: &scores})
	}
	if winner != nil {
		room.finish(winner, loser, false)
	}
}

// step resolves exactly one collision class for this tick: wall bounce,
// paddle bounce, or a goal. The classes are mutually exclusive within a
// single tick; with the tick interval small relative to ball speed the
// simultaneous cases do not visibly desync. Returns the scoring player, if
// any.
func (room *Room) step() *Player {
	b := room.Ball
	r := room.Rules

	b.MoveBySpeed()

	leftPlane := r.PaddleInset
	rightPlane := r.FieldWidth - r.PaddleInset

	switch {
	case b.Y <= 0 && b.VY < 0:
		b.BounceVertical()
	case b.Y >= r.FieldHeight && b.VY > 0:
		b.BounceVertical()

	case b.VX < 0 && b.X <= leftPlane && room.paddleBlocks(room.Left):
		offset := (b.Y - room.Left.PaddleY) / (r.PaddleHeight / 2)
		b.X = leftPlane
		b.BounceOnPaddle(offset, SideLeft, r)
	case b.VX > 0 && b.X >= rightPlane && room.paddleBlocks(room.Right):
		offset := (b.Y - room.Right.PaddleY) / (r.PaddleHeight / 2)
		b.X = rightPlane
		b.BounceOnPaddle(offset, SideRight, r)

	case b.X <= 0:
		// Past the left paddle: right side scores.
		room.Right.Score++
		b.Reset(r)
		return room.Right
	case b.X >= r.FieldWidth:
		room.Left.Score++
		b.Reset(r)
		return room.Left
	}
	return nil
}

// paddleBlocks reports whether the ball overlaps the given side's paddle
// span at the paddle's contact plane.
func (room *Room) paddleBlocks(p *Player) bool {
	half := room.Rules.PaddleHeight / 2
	return room.Ball.Y >= p.PaddleY-half && room.Ball.Y <= p.PaddleY+half
}

// SetPaddle applies a paddle-move command for the given player. Returns
// false when the player is unknown or the target is out of range; the stored
// position is untouched in both cases.
func (room *Room) SetPaddle(playerID uuid.UUID, y float64) bool {
	room.Mu.Lock()
	defer room.Mu.Unlock()

	if room.State == RoomEnded {
		return false
	}
	p := room.PlayerByID(playerID)
	if p == nil {
		return false
	}
	return p.SetPaddleY(y, room.Rules)
}

// Forfeit ends the match immediately with the opponent of quitterID declared
// winner at the current score. Safe to call in any state; a room that has
// already ended is left untouched.
func (room *Room) Forfeit(quitterID uuid.UUID) {
	room.Mu.Lock()
	loser := room.PlayerByID(quitterID)
	winner := room.Opponent(quitterID)
	room.Mu.Unlock()

	if loser == nil || winner == nil {
		return
	}
	room.finish(winner, loser, true)
}

// finish performs the terminal transition. It is idempotent: only the first
// caller observes a non-ended state and emits MatchEnded / OnMatchEnd.
func (room *Room) finish(winner, loser *Player, forfeit bool) {
	room.Mu.Lock()
	if room.State == RoomEnded {
		room.Mu.Unlock()
		return
	}
	room.State = RoomEnded
	if room.countdownTimer != nil {
		room.countdownTimer.Stop()
		room.countdownTimer = nil
	}
	close(room.stopTick)

	result := models.MatchResult{
		RoomID:      room.ID,
		Kind:        room.Kind,
		WinnerID:    winner.ID,
		WinnerScore: winner.Score,
		LoserID:     loser.ID,
		LoserScore:  loser.Score,
		Forfeit:     forfeit,
		EndedAt:     time.Now(),
	}
	left, right := room.Left, room.Right
	onEnd := room.OnMatchEnd
	room.Mu.Unlock()

	room.logger.Infof("room %s: match ended, winner=%s %d-%d forfeit=%v",
		room.ID, winner.ID, winner.Score, loser.Score, forfeit)

	ev := Event{
		Type:    EventMatchEnded,
		RoomID:  &result.RoomID,
		Winner:  &ResultLine{ID: winner.ID, Score: winner.Score},
		Loser:   &ResultLine{ID: loser.ID, Score: loser.Score},
		Forfeit: forfeit,
	}
	room.deliverBoth(left, right, ev)

	if onEnd != nil {
		onEnd(result)
	}
}

// other returns the opponent of p within this room.
func (room *Room) other(p *Player) *Player {
	if p == room.Left {
		return room.Right
	}
	return room.Left
}

// deliverBoth fans an event out to both sinks. Sinks are non-blocking by
// contract, so this is safe from the tick goroutine.
func (room *Room) deliverBoth(left, right *Player, ev Event) {
	if left != nil && left.Sink != nil {
		left.Sink.Deliver(ev)
	}
	if right != nil && right.Sink != nil {
		right.Sink.Deliver(ev)
	}
}
