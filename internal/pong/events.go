// internal/pong/events.go
package pong

import (
	"github.com/google/uuid"

	"github.com/jason-s-yu/rally/internal/models"
)

// EventType is an enum-like type for outbound match events.
type EventType string

const (
	EventOpponentFound  EventType = "opponent_found"  // Pairing complete, includes side + opponent summary
	EventInviteReceived EventType = "invite_received" // Direct challenge delivered to recipient
	EventInviteDeclined EventType = "invite_declined" // Recipient turned the invite down
	EventRoomState      EventType = "room_state"      // Per-tick snapshot of ball + paddles
	EventPlayerScored   EventType = "player_scored"   // A point was scored, ball re-served
	EventMatchEnded     EventType = "match_ended"     // Terminal result, emitted exactly once per room
	EventError          EventType = "error"           // Command-level failure surfaced to one player
)

// Snapshot is the per-tick view of a room's physical state.
type Snapshot struct {
	BallX        float64 `json:"ballX"`
	BallY        float64 `json:"ballY"`
	LeftPaddleY  float64 `json:"leftPaddleY"`
	RightPaddleY float64 `json:"rightPaddleY"`
}

// ScoreLine carries both players' scores, left first.
type ScoreLine struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// ResultLine identifies one player's final standing in a finished match.
type ResultLine struct {
	ID    uuid.UUID `json:"id"`
	Score int       `json:"score"`
}

// Event is the single outbound message shape delivered through an EventSink.
// Optional fields are pointers so unused ones marshal away.
type Event struct {
	Type EventType `json:"type"`

	RoomID   *uuid.UUID          `json:"roomId,omitempty"`
	Side     Side                `json:"side,omitempty"`
	Opponent *models.UserSummary `json:"opponent,omitempty"`

	InviteID *uuid.UUID          `json:"inviteId,omitempty"`
	Sender   *models.UserSummary `json:"sender,omitempty"`

	State  *Snapshot   `json:"state,omitempty"`
	Scores *ScoreLine  `json:"scores,omitempty"`
	Winner *ResultLine `json:"winner,omitempty"`
	Loser  *ResultLine `json:"loser,omitempty"`

	Forfeit bool   `json:"forfeit,omitempty"`
	Message string `json:"message,omitempty"`
}
