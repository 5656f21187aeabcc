// internal/models/user.go
package models

import "github.com/google/uuid"

// UserSummary is the display-ready projection of an external account,
// resolved through the profile collaborator before being shown to an
// opponent. The match core never touches the full account record.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar,omitempty"`
}
