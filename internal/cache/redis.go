// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jason-s-yu/rally/internal/match"
	"github.com/jason-s-yu/rally/internal/models"
)

// Rdb is the global Redis client. Connect it once at application startup.
var Rdb *redis.Client

// DefaultResultsQueueName is the Redis list downstream consumers (rankings,
// achievements) read finished matches from.
var DefaultResultsQueueName = "rally_match_results"

// presenceTTL keeps stale presence keys from surviving a crashed process.
const presenceTTL = 24 * time.Hour

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// Presence publishes player availability under presence:<id>. It satisfies
// the coordinator's PresenceService contract.
type Presence struct{}

// NewPresence returns a presence publisher backed by the global client.
func NewPresence() *Presence {
	return &Presence{}
}

// SetStatus writes the player's current status key.
func (p *Presence) SetStatus(ctx context.Context, playerID uuid.UUID, status match.PresenceStatus) error {
	key := "presence:" + playerID.String()
	if err := Rdb.Set(ctx, key, string(status), presenceTTL).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// PublishMatchResult serializes the result to JSON and pushes it to the
// results queue for downstream consumers. This does not block the match
// logic beyond a quick network send.
func PublishMatchResult(ctx context.Context, result models.MatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal MatchResult: %w", err)
	}

	queueName := getEnv("RESULTS_QUEUE_NAME", DefaultResultsQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// ResultFeed adapts PublishMatchResult to the coordinator's ResultRecorder
// contract, so finished matches also land on the downstream queue.
type ResultFeed struct{}

// NewResultFeed returns a feed backed by the global client.
func NewResultFeed() *ResultFeed {
	return &ResultFeed{}
}

// RecordResult implements match.ResultRecorder.
func (f *ResultFeed) RecordResult(ctx context.Context, result models.MatchResult) error {
	return PublishMatchResult(ctx, result)
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
