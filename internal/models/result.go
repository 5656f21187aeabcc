// internal/models/result.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchKind distinguishes how the pairing came to be.
type MatchKind string

const (
	MatchLadder MatchKind = "ladder" // paired out of the FIFO queue
	MatchDirect MatchKind = "direct" // accepted invite
)

// MatchResult is the durable record of one finished match, handed to the
// results collaborator exactly once per room. Forfeit is set when the match
// ended by disconnection rather than by reaching the win threshold, so
// downstream systems can treat a walkover differently from a played-out win.
type MatchResult struct {
	RoomID      uuid.UUID `json:"room_id"`
	Kind        MatchKind `json:"kind"`
	WinnerID    uuid.UUID `json:"winner_id"`
	WinnerScore int       `json:"winner_score"`
	LoserID     uuid.UUID `json:"loser_id"`
	LoserScore  int       `json:"loser_score"`
	Forfeit     bool      `json:"forfeit"`
	EndedAt     time.Time `json:"ended_at"`
}
