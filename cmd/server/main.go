// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/rally/internal/auth"
	"github.com/jason-s-yu/rally/internal/cache"
	"github.com/jason-s-yu/rally/internal/database"
	"github.com/jason-s-yu/rally/internal/handlers"
	"github.com/jason-s-yu/rally/internal/match"
	"github.com/jason-s-yu/rally/internal/middleware"
	"github.com/jason-s-yu/rally/internal/pong"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	srv := handlers.NewMatchServer(pong.DefaultRules(), logger)

	// Presence, result persistence and profile lookup are optional: without
	// them the match core still runs, e.g. for local development.
	var presence match.PresenceService
	var profiles match.ProfileService
	var recorders match.MultiRecorder

	if os.Getenv("PG_HOST") != "" {
		database.ConnectDB()
		recorders = append(recorders, database.NewResultStore())
		profiles = database.NewProfileStore()
	} else {
		logger.Warn("PG_HOST not set, match results will not be persisted")
	}

	if os.Getenv("REDIS_ADDR") != "" {
		if err := cache.ConnectRedis(); err != nil {
			log.Fatalf("redis connect error: %v", err)
		}
		presence = cache.NewPresence()
		recorders = append(recorders, cache.NewResultFeed())
	} else {
		logger.Warn("REDIS_ADDR not set, presence and result feed disabled")
	}

	var recorder match.ResultRecorder
	if len(recorders) > 0 {
		recorder = recorders
	}
	srv.Coordinator.SetCollaborators(presence, recorder, profiles)

	mux := http.NewServeMux()

	mux.Handle("/match/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.MatchWSHandler(logger, srv),
	)))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
