// internal/match/invite_store_test.go
package match

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteCreateAndConsume(t *testing.T) {
	s := NewInviteStore()
	sender, recipient := uuid.New(), uuid.New()

	inv := s.Create(sender, nil, recipient)
	require.NotEqual(t, uuid.Nil, inv.ID)
	assert.Equal(t, sender, inv.SenderID)
	assert.Equal(t, recipient, inv.RecipientID)
	assert.True(t, s.HasPendingFrom(sender))

	got, ok := s.Get(inv.ID)
	require.True(t, ok)
	assert.Equal(t, inv, got)

	s.Delete(inv.ID)
	_, ok = s.Get(inv.ID)
	assert.False(t, ok)
	assert.False(t, s.HasPendingFrom(sender))

	// Consuming a spent invite again is harmless.
	s.Delete(inv.ID)
}

func TestInviteDeleteAllForRecipient(t *testing.T) {
	s := NewInviteStore()
	recipient := uuid.New()

	a := s.Create(uuid.New(), nil, recipient)
	b := s.Create(uuid.New(), nil, recipient)
	other := s.Create(uuid.New(), nil, uuid.New())

	s.DeleteAllForRecipient(recipient)

	_, ok := s.Get(a.ID)
	assert.False(t, ok)
	_, ok = s.Get(b.ID)
	assert.False(t, ok)
	_, ok = s.Get(other.ID)
	assert.True(t, ok, "invites to other recipients must survive")
}

func TestInviteDeleteAllFromSender(t *testing.T) {
	s := NewInviteStore()
	sender := uuid.New()

	a := s.Create(sender, nil, uuid.New())
	other := s.Create(uuid.New(), nil, uuid.New())

	s.DeleteAllFromSender(sender)

	_, ok := s.Get(a.ID)
	assert.False(t, ok)
	assert.False(t, s.HasPendingFrom(sender))
	_, ok = s.Get(other.ID)
	assert.True(t, ok)
}
