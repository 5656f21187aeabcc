// internal/match/invite_store.go
package match

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jason-s-yu/rally/internal/pong"
)

// Invite is a pending direct challenge from one specific player to another.
// It exists only until it is accepted, declined, or invalidated by either
// party entering another match.
type Invite struct {
	ID          uuid.UUID
	SenderID    uuid.UUID
	SenderSink  pong.EventSink
	RecipientID uuid.UUID
}

// InviteStore manages pending invites in memory, keyed by invite id. Invite
// ids are random v4 UUIDs: they act as capabilities, so a third party must
// not be able to guess one and accept someone else's challenge.
type InviteStore struct {
	mu      sync.Mutex
	invites map[uuid.UUID]*Invite
}

// NewInviteStore returns an empty store.
func NewInviteStore() *InviteStore {
	return &InviteStore{
		invites: make(map[uuid.UUID]*Invite),
	}
}

// Create registers a new invite and returns it.
func (s *InviteStore) Create(senderID uuid.UUID, senderSink pong.EventSink, recipientID uuid.UUID) *Invite {
	id, _ := uuid.NewRandom()
	inv := &Invite{
		ID:          id,
		SenderID:    senderID,
		SenderSink:  senderSink,
		RecipientID: recipientID,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites[id] = inv
	return inv
}

// Get retrieves an invite by id.
func (s *InviteStore) Get(id uuid.UUID) (*Invite, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[id]
	return inv, ok
}

// Delete consumes an invite. Deleting an already-consumed invite is a no-op.
func (s *InviteStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.invites, id)
}

// DeleteAllForRecipient invalidates every pending invite addressed to the
// player, e.g. because they just entered another match.
func (s *InviteStore) DeleteAllForRecipient(recipientID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, inv := range s.invites {
		if inv.RecipientID == recipientID {
			delete(s.invites, id)
		}
	}
}

// HasPendingFrom reports whether the player has an open invite as sender.
func (s *InviteStore) HasPendingFrom(senderID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invites {
		if inv.SenderID == senderID {
			return true
		}
	}
	return false
}

// DeleteAllFromSender invalidates every pending invite the player has sent.
func (s *InviteStore) DeleteAllFromSender(senderID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, inv := range s.invites {
		if inv.SenderID == senderID {
			delete(s.invites, id)
		}
	}
}
