// internal/database/profiles.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jason-s-yu/rally/internal/models"
)

// ProfileStore resolves bare player ids into display-ready summaries from
// the platform's users table. It satisfies the coordinator's ProfileService
// contract.
type ProfileStore struct{}

// NewProfileStore returns a store backed by the global pool.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{}
}

// GetSummary fetches the username and avatar for one player.
func (s *ProfileStore) GetSummary(ctx context.Context, playerID uuid.UUID) (models.UserSummary, error) {
	q := `SELECT id, username, COALESCE(avatar, '') FROM users WHERE id = $1`

	var summary models.UserSummary
	err := DB.QueryRow(ctx, q, playerID).Scan(&summary.ID, &summary.Username, &summary.Avatar)
	if err != nil {
		return models.UserSummary{}, fmt.Errorf("get user summary %s: %w", playerID, err)
	}
	return summary, nil
}
