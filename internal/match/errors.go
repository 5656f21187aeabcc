// internal/match/errors.go
package match

import "errors"

// Precondition failures reported to the command source. None of these are
// fatal; the caller surfaces them to the offending player and carries on.
var (
	// ErrAlreadyInQueueOrMatch means the player is queued, has an open
	// invite out, or is already in a room.
	ErrAlreadyInQueueOrMatch = errors.New("player already in queue or match")

	// ErrTargetBusy means one of the two parties to an invite is queued or
	// in a match.
	ErrTargetBusy = errors.New("target player is busy")

	// ErrInvalidInvite means the invite does not exist (possibly already
	// consumed) or the responder is not its recipient.
	ErrInvalidInvite = errors.New("invalid invite")

	// ErrRoomNotFound means the referenced room does not exist or the
	// player is not one of its participants.
	ErrRoomNotFound = errors.New("room not found")
)
