// internal/handlers/match_server.go
package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/rally/internal/match"
	"github.com/jason-s-yu/rally/internal/pong"
)

// MatchServer bundles the coordinator and its ruleset for the HTTP/WebSocket
// layer. One instance serves the whole process.
type MatchServer struct {
	Coordinator *match.Coordinator
	Rules       pong.Rules
	Logger      *logrus.Logger
}

// NewMatchServer builds a server around a fresh coordinator with the given
// rules. Collaborators are attached by the caller before serving.
func NewMatchServer(rules pong.Rules, logger *logrus.Logger) *MatchServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &MatchServer{
		Coordinator: match.NewCoordinator(rules, logger),
		Rules:       rules,
		Logger:      logger,
	}
}
