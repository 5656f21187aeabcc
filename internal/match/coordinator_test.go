// internal/match/coordinator_test.go
package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/rally/internal/models"
	"github.com/jason-s-yu/rally/internal/pong"
)

// mockSink records delivered events for assertions.
type mockSink struct {
	mu     sync.Mutex
	events []pong.Event
}

func (m *mockSink) Deliver(ev pong.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *mockSink) byType(t pong.EventType) []pong.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []pong.Event
	for _, ev := range m.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// fakePresence records the most recent status per player.
type fakePresence struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]PresenceStatus
}

func newFakePresence() *fakePresence {
	return &fakePresence{statuses: make(map[uuid.UUID]PresenceStatus)}
}

func (f *fakePresence) SetStatus(_ context.Context, playerID uuid.UUID, status PresenceStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[playerID] = status
	return nil
}

func (f *fakePresence) status(playerID uuid.UUID) PresenceStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[playerID]
}

// fakeRecorder collects recorded results.
type fakeRecorder struct {
	mu      sync.Mutex
	results []models.MatchResult
}

func (f *fakeRecorder) RecordResult(_ context.Context, result models.MatchResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
	return nil
}

func (f *fakeRecorder) recorded() []models.MatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.MatchResult(nil), f.results...)
}

// fakeProfiles resolves every id to a fixed-scheme username.
type fakeProfiles struct{}

func (fakeProfiles) GetSummary(_ context.Context, playerID uuid.UUID) (models.UserSummary, error) {
	return models.UserSummary{ID: playerID, Username: "user-" + playerID.String()[:8]}, nil
}

func testRules() pong.Rules {
	r := pong.DefaultRules()
	r.CountdownSec = 0
	r.TickInterval = 5 * time.Millisecond
	return r
}

func newTestCoordinator() (*Coordinator, *fakePresence, *fakeRecorder) {
	c := NewCoordinator(testRules(), nil)
	presence := newFakePresence()
	recorder := &fakeRecorder{}
	c.SetCollaborators(presence, recorder, fakeProfiles{})
	return c, presence, recorder
}

func TestJoinLadderQueuePairsInArrivalOrder(t *testing.T) {
	c, presence, _ := newTestCoordinator()
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	aSink, bSink := &mockSink{}, &mockSink{}

	require.NoError(t, c.JoinLadderQueue(ctx, a, aSink))
	assert.Equal(t, PresenceQueued, presence.status(a))
	assert.Empty(t, aSink.byType(pong.EventOpponentFound), "lone player must keep waiting")

	require.NoError(t, c.JoinLadderQueue(ctx, b, bSink))

	aFound := aSink.byType(pong.EventOpponentFound)
	bFound := bSink.byType(pong.EventOpponentFound)
	require.Len(t, aFound, 1)
	require.Len(t, bFound, 1)

	// The waiting player defends left, the newcomer right, same room.
	assert.Equal(t, pong.SideLeft, aFound[0].Side)
	assert.Equal(t, pong.SideRight, bFound[0].Side)
	require.NotNil(t, aFound[0].RoomID)
	require.NotNil(t, bFound[0].RoomID)
	assert.Equal(t, *aFound[0].RoomID, *bFound[0].RoomID)

	require.NotNil(t, aFound[0].Opponent)
	assert.Equal(t, b, aFound[0].Opponent.ID)
	assert.Equal(t, "user-"+b.String()[:8], aFound[0].Opponent.Username)

	room, ok := c.Rooms().GetRoom(*aFound[0].RoomID)
	require.True(t, ok)
	assert.Equal(t, models.MatchLadder, room.Kind)
	assert.Equal(t, pong.RoomAwaitingReady, room.State)
}

func TestJoinLadderQueueRejectsOccupiedPlayer(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	a := uuid.New()
	require.NoError(t, c.JoinLadderQueue(ctx, a, &mockSink{}))

	err := c.JoinLadderQueue(ctx, a, &mockSink{})
	require.ErrorIs(t, err, ErrAlreadyInQueueOrMatch)

	// Once matched into a room the player is still occupied.
	b := uuid.New()
	require.NoError(t, c.JoinLadderQueue(ctx, b, &mockSink{}))
	require.ErrorIs(t, c.JoinLadderQueue(ctx, a, &mockSink{}), ErrAlreadyInQueueOrMatch)
	require.ErrorIs(t, c.JoinLadderQueue(ctx, b, &mockSink{}), ErrAlreadyInQueueOrMatch)
}

func TestLeaveQueueRestoresPresence(t *testing.T) {
	c, presence, _ := newTestCoordinator()
	ctx := context.Background()

	a := uuid.New()
	require.NoError(t, c.JoinLadderQueue(ctx, a, &mockSink{}))
	require.Equal(t, PresenceQueued, presence.status(a))

	c.LeaveQueueOrMatch(ctx, a)
	assert.Equal(t, PresenceOnline, presence.status(a))

	// The slot is free again.
	require.NoError(t, c.JoinLadderQueue(ctx, a, &mockSink{}))
}

func TestSendInviteValidation(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	sender, recipient := uuid.New(), uuid.New()

	_, err := c.SendInvite(ctx, sender, &mockSink{}, sender)
	require.ErrorIs(t, err, ErrTargetBusy)

	// A queued recipient cannot be challenged.
	require.NoError(t, c.JoinLadderQueue(ctx, recipient, &mockSink{}))
	_, err = c.SendInvite(ctx, sender, &mockSink{}, recipient)
	require.ErrorIs(t, err, ErrTargetBusy)
	c.LeaveQueueOrMatch(ctx, recipient)

	// An open invite occupies its sender.
	_, err = c.SendInvite(ctx, sender, &mockSink{}, recipient)
	require.NoError(t, err)
	_, err = c.SendInvite(ctx, sender, &mockSink{}, uuid.New())
	require.ErrorIs(t, err, ErrTargetBusy)
}

func TestSendInviteNotifiesConnectedRecipient(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	sender, recipient := uuid.New(), uuid.New()
	recipientSink := &mockSink{}
	c.RegisterSink(recipient, recipientSink)

	inv, err := c.SendInvite(ctx, sender, &mockSink{}, recipient)
	require.NoError(t, err)

	received := recipientSink.byType(pong.EventInviteReceived)
	require.Len(t, received, 1)
	require.NotNil(t, received[0].InviteID)
	assert.Equal(t, inv.ID, *received[0].InviteID)
	require.NotNil(t, received[0].Sender)
	assert.Equal(t, sender, received[0].Sender.ID)
}

func TestRespondInviteDeclineSpendsInvite(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	sender, recipient := uuid.New(), uuid.New()
	senderSink := &mockSink{}

	inv, err := c.SendInvite(ctx, sender, senderSink, recipient)
	require.NoError(t, err)

	require.NoError(t, c.RespondInvite(ctx, inv.ID, recipient, false, &mockSink{}))

	declined := senderSink.byType(pong.EventInviteDeclined)
	require.Len(t, declined, 1)
	require.NotNil(t, declined[0].InviteID)
	assert.Equal(t, inv.ID, *declined[0].InviteID)

	// The id is spent; a replay in either direction fails.
	require.ErrorIs(t, c.RespondInvite(ctx, inv.ID, recipient, true, &mockSink{}), ErrInvalidInvite)

	// And the sender is free to invite again.
	_, err = c.SendInvite(ctx, sender, senderSink, recipient)
	require.NoError(t, err)
}

func TestRespondInviteAcceptCreatesDirectRoom(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	sender, recipient := uuid.New(), uuid.New()
	senderSink, recipientSink := &mockSink{}, &mockSink{}

	inv, err := c.SendInvite(ctx, sender, senderSink, recipient)
	require.NoError(t, err)

	require.NoError(t, c.RespondInvite(ctx, inv.ID, recipient, true, recipientSink))

	sFound := senderSink.byType(pong.EventOpponentFound)
	rFound := recipientSink.byType(pong.EventOpponentFound)
	require.Len(t, sFound, 1)
	require.Len(t, rFound, 1)
	assert.Equal(t, pong.SideLeft, sFound[0].Side, "challenger defends left")
	assert.Equal(t, pong.SideRight, rFound[0].Side)

	room := c.Rooms().GetRoomByPlayer(sender)
	require.NotNil(t, room)
	assert.Equal(t, models.MatchDirect, room.Kind)
	assert.Equal(t, sender, room.Left.ID)
	assert.Equal(t, recipient, room.Right.ID)
}

func TestRespondInviteRejectsWrongResponder(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	inv, err := c.SendInvite(ctx, uuid.New(), &mockSink{}, uuid.New())
	require.NoError(t, err)

	err = c.RespondInvite(ctx, inv.ID, uuid.New(), true, &mockSink{})
	require.ErrorIs(t, err, ErrInvalidInvite)

	// A failed attempt by a third party must not consume the invite.
	require.NoError(t, c.RespondInvite(ctx, inv.ID, inv.RecipientID, false, &mockSink{}))
}

func TestReadyCountdownAndDisconnectForfeit(t *testing.T) {
	c, presence, recorder := newTestCoordinator()
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	aSink, bSink := &mockSink{}, &mockSink{}
	require.NoError(t, c.JoinLadderQueue(ctx, a, aSink))
	require.NoError(t, c.JoinLadderQueue(ctx, b, bSink))

	room := c.Rooms().GetRoomByPlayer(a)
	require.NotNil(t, room)

	require.NoError(t, c.PlayerReady(ctx, room.ID, a))
	require.NoError(t, c.PlayerReady(ctx, room.ID, b))

	require.Eventually(t, func() bool {
		room.Mu.Lock()
		defer room.Mu.Unlock()
		return room.State == pong.RoomRunning
	}, 2*time.Second, 5*time.Millisecond, "countdown never started the match")

	require.Eventually(t, func() bool {
		return presence.status(a) == PresenceInGame && presence.status(b) == PresenceInGame
	}, 2*time.Second, 5*time.Millisecond)

	c.HandleDisconnect(ctx, b)

	results := recorder.recorded()
	require.Len(t, results, 1)
	assert.Equal(t, room.ID, results[0].RoomID)
	assert.True(t, results[0].Forfeit)
	assert.Equal(t, a, results[0].WinnerID)
	assert.Equal(t, b, results[0].LoserID)

	assert.Nil(t, c.Rooms().GetRoomByPlayer(a), "ended room must be torn down")
	assert.Equal(t, PresenceOnline, presence.status(a))
	assert.Equal(t, PresenceOnline, presence.status(b))

	ended := aSink.byType(pong.EventMatchEnded)
	require.Len(t, ended, 1)
	assert.True(t, ended[0].Forfeit)

	// A repeated disconnect changes nothing.
	c.HandleDisconnect(ctx, b)
	require.Len(t, recorder.recorded(), 1)
}

func TestHandleDisconnectInvalidatesInvites(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	sender, recipient := uuid.New(), uuid.New()
	inv, err := c.SendInvite(ctx, sender, &mockSink{}, recipient)
	require.NoError(t, err)

	c.HandleDisconnect(ctx, sender)

	err = c.RespondInvite(ctx, inv.ID, recipient, true, &mockSink{})
	require.ErrorIs(t, err, ErrInvalidInvite)
}

func TestMovePaddleRejectsOutOfRange(t *testing.T) {
	c, _, _ := newTestCoordinator()
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	require.NoError(t, c.JoinLadderQueue(ctx, a, &mockSink{}))
	require.NoError(t, c.JoinLadderQueue(ctx, b, &mockSink{}))

	room := c.Rooms().GetRoomByPlayer(a)
	require.NotNil(t, room)
	before := room.Left.PaddleY

	c.MovePaddle(room.ID, a, 200)
	assert.Equal(t, 200.0, room.Left.PaddleY)

	c.MovePaddle(room.ID, a, -50)
	assert.Equal(t, 200.0, room.Left.PaddleY, "rejected move must leave the paddle untouched")

	c.MovePaddle(room.ID, a, room.Rules.FieldHeight*2)
	assert.Equal(t, 200.0, room.Left.PaddleY)

	// Unknown room is a silent drop.
	c.MovePaddle(uuid.New(), a, before)
}
