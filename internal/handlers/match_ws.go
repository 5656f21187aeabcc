// internal/handlers/match_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/rally/internal/auth"
	"github.com/jason-s-yu/rally/internal/pong"
)

// Command is the shape of every inbound WebSocket message. Fields beyond
// Type are optional and validated per command; a message that fails shape
// validation is dropped with a warning, never a crash.
type Command struct {
	Type string `json:"type"`

	RecipientID string   `json:"recipientId,omitempty"`
	InviteID    string   `json:"inviteId,omitempty"`
	Accepted    *bool    `json:"accepted,omitempty"`
	RoomID      string   `json:"roomId,omitempty"`
	Y           *float64 `json:"y,omitempty"`
}

// wsSink adapts one player's WebSocket connection to the pong.EventSink
// contract. Deliver never blocks: events are pushed onto a buffered channel
// drained by the write pump, and dropped with a log line if the channel is
// full or closed.
type wsSink struct {
	playerID uuid.UUID
	out      chan pong.Event
	logger   *logrus.Logger

	mu     sync.Mutex
	closed bool
}

func newWSSink(playerID uuid.UUID, logger *logrus.Logger) *wsSink {
	return &wsSink{
		playerID: playerID,
		out:      make(chan pong.Event, 64),
		logger:   logger,
	}
}

// Deliver implements pong.EventSink.
func (s *wsSink) Deliver(ev pong.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- ev:
	default:
		s.logger.Warnf("outbound channel for player %s full, dropped %s", s.playerID, ev.Type)
	}
}

// Close stops accepting events and releases the write pump. Idempotent.
func (s *wsSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.out)
}

// writePump serializes queued events onto the connection until the channel
// closes or a write fails.
func (s *wsSink) writePump(ctx context.Context, c *websocket.Conn) {
	for ev := range s.out {
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Errorf("failed to marshal event %s for player %s: %v", ev.Type, s.playerID, err)
			continue
		}
		writeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = c.Write(writeCtx, websocket.MessageText, data)
		cancel()
		if err != nil {
			s.logger.Warnf("write to player %s failed: %v", s.playerID, err)
			return
		}
	}
}

// MatchWSHandler upgrades the connection, authenticates the player, wires
// their sink into the coordinator and runs the command read loop. When the
// read loop exits for any reason the player is treated as disconnected.
func MatchWSHandler(logger *logrus.Logger, srv *MatchServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"match"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "internal error")

		if c.Subprotocol() != "match" {
			c.Close(BadSubprotocolError, "client must use the 'match' subprotocol")
			return
		}

		playerID, err := authenticatePlayer(r)
		if err != nil {
			logger.Warnf("WebSocket auth failed from %s: %v", r.RemoteAddr, err)
			c.Close(InvalidAuthTokenError, "authentication failed")
			return
		}
		logger.Infof("player %s connected from %s", playerID, r.RemoteAddr)

		sink := newWSSink(playerID, logger)
		srv.Coordinator.RegisterSink(playerID, sink)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go sink.writePump(ctx, c)

		readCommands(ctx, c, srv, playerID, sink, logger)

		logger.Infof("player %s read loop exited", playerID)
		srv.Coordinator.HandleDisconnect(context.Background(), playerID)
		srv.Coordinator.UnregisterSink(playerID)
		sink.Close()
		c.Close(websocket.StatusNormalClosure, "bye")
	}
}

// authenticatePlayer resolves the connecting identity from the session token,
// checking the query string first and falling back to the auth cookie.
func authenticatePlayer(r *http.Request) (uuid.UUID, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = extractCookieToken(r.Header.Get("Cookie"), "auth_token")
	}
	sub, err := auth.AuthenticateJWT(token)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(sub)
}

// readCommands loops over inbound frames, validating and dispatching each to
// the coordinator. Precondition failures go back to the player as error
// events; malformed frames are logged and dropped.
func readCommands(ctx context.Context, c *websocket.Conn, srv *MatchServer, playerID uuid.UUID, sink *wsSink, logger *logrus.Logger) {
	coord := srv.Coordinator
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for player %s", playerID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for player %s", playerID)
			} else {
				logger.Warnf("read error for player %s: %v", playerID, err)
			}
			return
		}
		if msgType != websocket.MessageText {
			logger.Warnf("non-text frame from player %s ignored", playerID)
			continue
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			logger.Warnf("invalid JSON from player %s: %v", playerID, err)
			sink.Deliver(pong.Event{Type: pong.EventError, Message: "invalid JSON"})
			continue
		}

		logger.Debugf("command '%s' from player %s", cmd.Type, playerID)

		switch cmd.Type {
		case "join_queue":
			if err := coord.JoinLadderQueue(ctx, playerID, sink); err != nil {
				sink.Deliver(pong.Event{Type: pong.EventError, Message: err.Error()})
			}

		case "leave":
			coord.LeaveQueueOrMatch(ctx, playerID)

		case "send_invite":
			recipientID, err := uuid.Parse(cmd.RecipientID)
			if err != nil {
				logger.Warnf("send_invite with bad recipientId from player %s dropped", playerID)
				sink.Deliver(pong.Event{Type: pong.EventError, Message: "invalid recipientId"})
				continue
			}
			if _, err := coord.SendInvite(ctx, playerID, sink, recipientID); err != nil {
				sink.Deliver(pong.Event{Type: pong.EventError, Message: err.Error()})
			}

		case "respond_invite":
			inviteID, err := uuid.Parse(cmd.InviteID)
			if err != nil || cmd.Accepted == nil {
				logger.Warnf("malformed respond_invite from player %s dropped", playerID)
				sink.Deliver(pong.Event{Type: pong.EventError, Message: "invalid respond_invite"})
				continue
			}
			if err := coord.RespondInvite(ctx, inviteID, playerID, *cmd.Accepted, sink); err != nil {
				sink.Deliver(pong.Event{Type: pong.EventError, Message: err.Error()})
			}

		case "ready":
			roomID, err := uuid.Parse(cmd.RoomID)
			if err != nil {
				logger.Warnf("malformed ready from player %s dropped", playerID)
				sink.Deliver(pong.Event{Type: pong.EventError, Message: "invalid roomId"})
				continue
			}
			if err := coord.PlayerReady(ctx, roomID, playerID); err != nil {
				sink.Deliver(pong.Event{Type: pong.EventError, Message: err.Error()})
			}

		case "paddle_move":
			roomID, err := uuid.Parse(cmd.RoomID)
			if err != nil || cmd.Y == nil {
				logger.Debugf("malformed paddle_move from player %s dropped", playerID)
				continue
			}
			coord.MovePaddle(roomID, playerID, *cmd.Y)

		default:
			logger.Warnf("unknown command '%s' from player %s", cmd.Type, playerID)
			sink.Deliver(pong.Event{Type: pong.EventError, Message: "unknown command type: " + cmd.Type})
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
