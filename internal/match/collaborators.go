// internal/match/collaborators.go
package match

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jason-s-yu/rally/internal/models"
)

// PresenceStatus is the player availability state published to the presence
// collaborator.
type PresenceStatus string

const (
	PresenceOnline PresenceStatus = "online"
	PresenceQueued PresenceStatus = "queued"
	PresenceInGame PresenceStatus = "in_game"
)

// PresenceService marks a player's availability for the rest of the
// platform (friends lists, invite UI). Implemented externally; the
// coordinator only calls it.
type PresenceService interface {
	SetStatus(ctx context.Context, playerID uuid.UUID, status PresenceStatus) error
}

// ResultRecorder durably records a finished match. Implemented externally.
type ResultRecorder interface {
	RecordResult(ctx context.Context, result models.MatchResult) error
}

// ProfileService resolves a bare player id into a display-ready summary
// before it is shown to an opponent. Implemented externally.
type ProfileService interface {
	GetSummary(ctx context.Context, playerID uuid.UUID) (models.UserSummary, error)
}

// MultiRecorder fans one result out to several recorders (e.g. durable
// storage plus a queue for downstream consumers). Every recorder is invoked
// even if an earlier one fails; errors are joined.
type MultiRecorder []ResultRecorder

// RecordResult implements ResultRecorder.
func (m MultiRecorder) RecordResult(ctx context.Context, result models.MatchResult) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordResult(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
