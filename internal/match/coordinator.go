// internal/match/coordinator.go
package match

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/rally/internal/models"
	"github.com/jason-s-yu/rally/internal/pong"
)

// Coordinator orchestrates matchmaking, invites, the readiness handshake and
// match teardown. It is the only component allowed to mutate the queue, the
// invite table and the room store; its own mutex serializes the setup paths
// so the "a player is in at most one of queue/invite/room" invariant holds
// across tables. Per-room state is guarded by the room's own lock.
type Coordinator struct {
	mu sync.Mutex

	queue   *Queue
	invites *InviteStore
	rooms   *pong.RoomStore

	// sinks maps each connected identity to its live outbound capability,
	// so events can be pushed to players who have not issued a command
	// (e.g. an invite recipient). Registered by the transport layer.
	sinks map[uuid.UUID]pong.EventSink

	rules pong.Rules

	// External collaborators. Any of them may be nil (e.g. in tests or a
	// standalone deployment); calls are skipped with a debug log.
	presence PresenceService
	recorder ResultRecorder
	profiles ProfileService

	logger *logrus.Logger
}

// NewCoordinator wires a coordinator around fresh tables.
func NewCoordinator(rules pong.Rules, logger *logrus.Logger) *Coordinator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Coordinator{
		queue:   NewQueue(),
		invites: NewInviteStore(),
		rooms:   pong.NewRoomStore(),
		sinks:   make(map[uuid.UUID]pong.EventSink),
		rules:   rules,
		logger:  logger,
	}
}

// RegisterSink records a connected player's outbound capability. The
// transport layer calls this once per established connection.
func (c *Coordinator) RegisterSink(playerID uuid.UUID, sink pong.EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks[playerID] = sink
}

// UnregisterSink forgets a player's sink. Call after HandleDisconnect.
func (c *Coordinator) UnregisterSink(playerID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sinks, playerID)
}

// sinkFor returns the registered sink for a player, or nil.
func (c *Coordinator) sinkFor(playerID uuid.UUID) pong.EventSink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sinks[playerID]
}

// SetCollaborators attaches the external presence, results and profile
// services. Call before serving traffic.
func (c *Coordinator) SetCollaborators(p PresenceService, r ResultRecorder, pr ProfileService) {
	c.presence = p
	c.recorder = r
	c.profiles = pr
}

// Rooms exposes the room store for transport-layer lookups.
func (c *Coordinator) Rooms() *pong.RoomStore {
	return c.rooms
}

// JoinLadderQueue places a player in the FIFO pool. If an opponent is
// already waiting the pair is matched immediately: the waiting player takes
// LEFT, the newcomer RIGHT, and both receive opponent_found.
func (c *Coordinator) JoinLadderQueue(ctx context.Context, playerID uuid.UUID, sink pong.EventSink) error {
	c.mu.Lock()

	if c.isOccupied(playerID) {
		c.mu.Unlock()
		return fmt.Errorf("join queue %s: %w", playerID, ErrAlreadyInQueueOrMatch)
	}

	waiting, ok := c.queue.Dequeue()
	if !ok {
		c.queue.Enqueue(QueueEntry{PlayerID: playerID, Sink: sink})
		c.mu.Unlock()

		c.logger.Infof("player %s queued for ladder", playerID)
		c.setPresence(ctx, playerID, PresenceQueued)
		return nil
	}

	room := c.createRoomLocked(models.MatchLadder,
		waiting.PlayerID, waiting.Sink,
		playerID, sink)
	c.mu.Unlock()

	c.logger.Infof("ladder pair matched: %s (left) vs %s (right), room %s",
		waiting.PlayerID, playerID, room.ID)
	c.announceRoom(ctx, room)
	return nil
}

// LeaveQueueOrMatch removes a waiting player from the queue, or, if the
// player is mid-match, treats the departure as a disconnect-forfeit for the
// opponent's benefit. Leaving when neither queued nor in a room is a no-op.
func (c *Coordinator) LeaveQueueOrMatch(ctx context.Context, playerID uuid.UUID) {
	c.mu.Lock()
	removed := c.queue.RemoveByPlayer(playerID)
	c.mu.Unlock()

	if removed {
		c.logger.Infof("player %s left the ladder queue", playerID)
		c.setPresence(ctx, playerID, PresenceOnline)
		return
	}

	if room := c.rooms.GetRoomByPlayer(playerID); room != nil {
		c.logger.Infof("player %s left room %s mid-match, forfeiting", playerID, room.ID)
		room.Forfeit(playerID)
	}
}

// SendInvite creates a direct challenge. Fails with ErrTargetBusy when
// either party is already queued, inviting, or in a match.
func (c *Coordinator) SendInvite(ctx context.Context, senderID uuid.UUID, sink pong.EventSink, recipientID uuid.UUID) (*Invite, error) {
	if senderID == recipientID {
		return nil, fmt.Errorf("invite self: %w", ErrTargetBusy)
	}

	c.mu.Lock()
	if c.isOccupied(senderID) || c.isOccupiedAsTarget(recipientID) {
		c.mu.Unlock()
		return nil, fmt.Errorf("invite %s -> %s: %w", senderID, recipientID, ErrTargetBusy)
	}
	inv := c.invites.Create(senderID, sink, recipientID)
	recipientSink := c.sinks[recipientID]
	c.mu.Unlock()

	c.logger.Infof("invite %s created: %s -> %s", inv.ID, senderID, recipientID)

	if recipientSink != nil {
		sender := c.resolveSummary(ctx, senderID)
		recipientSink.Deliver(pong.Event{
			Type:     pong.EventInviteReceived,
			InviteID: &inv.ID,
			Sender:   &sender,
		})
	}
	return inv, nil
}

// RespondInvite consumes an invite. Accepting creates a room with the sender
// on LEFT and the responder on RIGHT; declining notifies the sender. Either
// way the invite id is spent: a second response fails with ErrInvalidInvite.
func (c *Coordinator) RespondInvite(ctx context.Context, inviteID, responderID uuid.UUID, accepted bool, responderSink pong.EventSink) error {
	c.mu.Lock()

	inv, ok := c.invites.Get(inviteID)
	if !ok || inv.RecipientID != responderID {
		c.mu.Unlock()
		return fmt.Errorf("respond invite %s: %w", inviteID, ErrInvalidInvite)
	}
	c.invites.Delete(inviteID)

	if !accepted {
		c.mu.Unlock()
		c.logger.Infof("invite %s declined by %s", inviteID, responderID)
		if inv.SenderSink != nil {
			inv.SenderSink.Deliver(pong.Event{
				Type:     pong.EventInviteDeclined,
				InviteID: &inv.ID,
			})
		}
		return nil
	}

	// The sender may have entered another state since sending; their own
	// transitions invalidate their invites, but check again before pairing.
	if c.rooms.IsPlayerInRoom(inv.SenderID) || c.queue.Contains(inv.SenderID) ||
		c.rooms.IsPlayerInRoom(responderID) || c.queue.Contains(responderID) {
		c.mu.Unlock()
		return fmt.Errorf("respond invite %s: %w", inviteID, ErrInvalidInvite)
	}

	room := c.createRoomLocked(models.MatchDirect,
		inv.SenderID, inv.SenderSink,
		responderID, responderSink)
	c.mu.Unlock()

	c.logger.Infof("invite %s accepted, room %s: %s (left) vs %s (right)",
		inviteID, room.ID, inv.SenderID, responderID)
	c.announceRoom(ctx, room)
	return nil
}

// PlayerReady marks one side ready. When both sides are ready the pre-match
// countdown is scheduled; when it fires the tick loop starts and the players
// are marked in-game with the presence collaborator.
func (c *Coordinator) PlayerReady(ctx context.Context, roomID, playerID uuid.UUID) error {
	room, ok := c.rooms.GetRoom(roomID)
	if !ok {
		return fmt.Errorf("ready %s in room %s: %w", playerID, roomID, ErrRoomNotFound)
	}
	if room.PlayerByID(playerID) == nil {
		return fmt.Errorf("ready %s in room %s: %w", playerID, roomID, ErrRoomNotFound)
	}

	if both := room.MarkReady(playerID); both {
		c.logger.Infof("room %s: both players ready, starting countdown", roomID)
		leftID, rightID := room.Left.ID, room.Right.ID
		room.StartCountdown(func() {
			c.setPresence(context.Background(), leftID, PresenceInGame)
			c.setPresence(context.Background(), rightID, PresenceInGame)
		})
	}
	return nil
}

// MovePaddle applies a paddle-move command. Out-of-range targets and stale
// room or player references are rejected silently with a log entry; the
// stored position never changes on a reject.
func (c *Coordinator) MovePaddle(roomID, playerID uuid.UUID, newY float64) {
	room, ok := c.rooms.GetRoom(roomID)
	if !ok {
		c.logger.Debugf("paddle move for unknown room %s dropped", roomID)
		return
	}
	if !room.SetPaddle(playerID, newY) {
		c.logger.Debugf("paddle move rejected: room %s player %s y=%.1f", roomID, playerID, newY)
	}
}

// HandleDisconnect reacts to a vanished player: a queued player is removed,
// pending invites in either direction die, and an in-match player forfeits
// with the opponent declared winner at the current score. Safe to call more
// than once for the same player.
func (c *Coordinator) HandleDisconnect(ctx context.Context, playerID uuid.UUID) {
	c.mu.Lock()
	removed := c.queue.RemoveByPlayer(playerID)
	c.invites.DeleteAllFromSender(playerID)
	c.invites.DeleteAllForRecipient(playerID)
	c.mu.Unlock()

	if removed {
		c.logger.Infof("disconnected player %s removed from queue", playerID)
		c.setPresence(ctx, playerID, PresenceOnline)
		return
	}

	if room := c.rooms.GetRoomByPlayer(playerID); room != nil {
		c.logger.Infof("player %s disconnected mid-match, room %s forfeits", playerID, room.ID)
		room.Forfeit(playerID)
	}
}

// createRoomLocked builds a room, registers it, and invalidates any pending
// invites involving either participant. Caller holds c.mu.
func (c *Coordinator) createRoomLocked(kind models.MatchKind, leftID uuid.UUID, leftSink pong.EventSink, rightID uuid.UUID, rightSink pong.EventSink) *pong.Room {
	left := pong.NewPlayer(leftID, pong.SideLeft, leftSink, c.rules)
	right := pong.NewPlayer(rightID, pong.SideRight, rightSink, c.rules)

	room := pong.NewRoom(kind, left, right, c.rules, c.logger)
	room.OnMatchEnd = c.teardownFunc(room.ID)

	c.rooms.AddRoom(room)

	// Entering a match invalidates every invite either player is party to.
	for _, id := range []uuid.UUID{leftID, rightID} {
		c.invites.DeleteAllFromSender(id)
		c.invites.DeleteAllForRecipient(id)
	}
	return room
}

// teardownFunc returns the OnMatchEnd hook for a room: remove it from the
// registry, restore presence, and hand the result to the recorder. The room
// itself guarantees this runs exactly once.
func (c *Coordinator) teardownFunc(roomID uuid.UUID) pong.OnMatchEndFunc {
	return func(result models.MatchResult) {
		c.rooms.DeleteRoom(roomID)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		c.setPresence(ctx, result.WinnerID, PresenceOnline)
		c.setPresence(ctx, result.LoserID, PresenceOnline)

		if c.recorder == nil {
			c.logger.Debugf("room %s: no result recorder configured, result dropped", roomID)
			return
		}
		if err := c.recorder.RecordResult(ctx, result); err != nil {
			c.logger.Errorf("room %s: failed to record result: %v", roomID, err)
		}
	}
}

// announceRoom notifies both players of the pairing with their side and a
// display summary of the opponent.
func (c *Coordinator) announceRoom(ctx context.Context, room *pong.Room) {
	leftSummary := c.resolveSummary(ctx, room.Left.ID)
	rightSummary := c.resolveSummary(ctx, room.Right.ID)

	if room.Left.Sink != nil {
		room.Left.Sink.Deliver(pong.Event{
			Type:     pong.EventOpponentFound,
			RoomID:   &room.ID,
			Side:     pong.SideLeft,
			Opponent: &rightSummary,
		})
	}
	if room.Right.Sink != nil {
		room.Right.Sink.Deliver(pong.Event{
			Type:     pong.EventOpponentFound,
			RoomID:   &room.ID,
			Side:     pong.SideRight,
			Opponent: &leftSummary,
		})
	}
}

// isOccupied reports whether the player already holds a slot somewhere:
// waiting in the queue, an open invite as sender, or an active room.
// Caller holds c.mu.
func (c *Coordinator) isOccupied(playerID uuid.UUID) bool {
	return c.queue.Contains(playerID) ||
		c.invites.HasPendingFrom(playerID) ||
		c.rooms.IsPlayerInRoom(playerID)
}

// isOccupiedAsTarget is the busy check for an invite recipient. Pending
// inbound invites do not count: a player may hold several and pick one.
func (c *Coordinator) isOccupiedAsTarget(playerID uuid.UUID) bool {
	return c.queue.Contains(playerID) || c.rooms.IsPlayerInRoom(playerID)
}

// resolveSummary asks the profile collaborator for a display summary,
// falling back to a bare id-derived name when the lookup is unavailable.
func (c *Coordinator) resolveSummary(ctx context.Context, playerID uuid.UUID) models.UserSummary {
	if c.profiles != nil {
		summary, err := c.profiles.GetSummary(ctx, playerID)
		if err == nil {
			return summary
		}
		c.logger.Warnf("profile lookup failed for %s: %v", playerID, err)
	}
	return models.UserSummary{
		ID:       playerID,
		Username: "Player_" + playerID.String()[:4],
	}
}

// setPresence forwards a status change, tolerating an absent collaborator.
func (c *Coordinator) setPresence(ctx context.Context, playerID uuid.UUID, status PresenceStatus) {
	if c.presence == nil {
		return
	}
	if err := c.presence.SetStatus(ctx, playerID, status); err != nil {
		c.logger.Warnf("presence update failed for %s -> %s: %v", playerID, status, err)
	}
}
