// cmd/historian/main.go is an asynchronous service that pops finished match
// results from the Redis queue and persists them to PostgreSQL, so the match
// server never blocks on durable storage.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/jason-s-yu/rally/internal/database"
	"github.com/jason-s-yu/rally/internal/models"
)

// HistorianService encapsulates the Redis + DB logic for capturing match
// results in batches.
type HistorianService struct {
	redisClient *redis.Client
	queueName   string
	batchSize   int
	flushDelay  time.Duration

	batchMu  sync.Mutex
	batch    []models.MatchResult
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewHistorianService constructs a HistorianService from environment
// variables or defaults.
func NewHistorianService() *HistorianService {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &HistorianService{
		redisClient: rdb,
		queueName:   getEnv("RESULTS_QUEUE_NAME", "rally_match_results"),
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		batch:       make([]models.MatchResult, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run connects to the database and starts the queue-draining loop, blocking
// until Stop is called.
func (hs *HistorianService) Run() {
	database.ConnectDB()

	go hs.readRedisLoop()

	log.Println("rally-historian service started.")
	<-hs.ctx.Done()
	hs.flushBatchToDB()
	log.Println("rally-historian shutting down.")
}

// readRedisLoop continuously uses BLPop to retrieve results from the queue,
// flushing the accumulated batch on a timer.
func (hs *HistorianService) readRedisLoop() {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-hs.ctx.Done():
			return

		case <-ticker.C:
			hs.flushBatchToDB()

		default:
			// BLPop with a short timeout so context cancellation is handled.
			res, err := hs.redisClient.BLPop(hs.ctx, 3*time.Second, hs.queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				if hs.ctx.Err() != nil {
					return
				}
				log.Printf("[ERROR] BLPop: %v\n", err)
				continue
			}
			if len(res) < 2 {
				// No message popped.
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var result models.MatchResult
			if err := json.Unmarshal([]byte(res[1]), &result); err != nil {
				log.Printf("invalid match result payload: %v\n", err)
				continue
			}

			hs.appendToBatch(result)
		}
	}
}

// appendToBatch adds a result to the in-memory batch and flushes if the
// threshold is reached.
func (hs *HistorianService) appendToBatch(result models.MatchResult) {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()

	hs.batch = append(hs.batch, result)
	if len(hs.batch) >= hs.batchSize {
		hs.flushBatchLocked()
	}
}

// flushBatchToDB flushes the current batch to the database.
func (hs *HistorianService) flushBatchToDB() {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	hs.flushBatchLocked()
}

// flushBatchLocked writes the batch in a single transaction. Caller holds
// batchMu.
func (hs *HistorianService) flushBatchLocked() {
	if len(hs.batch) == 0 {
		return
	}
	batchCopy := make([]models.MatchResult, len(hs.batch))
	copy(batchCopy, hs.batch)
	hs.batch = hs.batch[:0]

	ctx := context.Background()
	err := pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, result := range batchCopy {
			if err := insertResultTx(ctx, tx, result); err != nil {
				return fmt.Errorf("insertResultTx: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] flushBatchToDB: %v\n", err)
	} else {
		log.Printf("Flushed %d match results to DB.\n", len(batchCopy))
	}
}

// insertResultTx upserts the match row and one row per participant. The
// upserts make replayed queue entries harmless.
func insertResultTx(ctx context.Context, tx pgx.Tx, result models.MatchResult) error {
	upsertMatch := `
		INSERT INTO matches (id, kind, forfeit, ended_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET forfeit = $3, ended_at = $4
	`
	if _, err := tx.Exec(ctx, upsertMatch, result.RoomID, string(result.Kind), result.Forfeit, result.EndedAt); err != nil {
		return err
	}

	insertLine := `
		INSERT INTO match_results (match_id, player_id, score, did_win)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (match_id, player_id)
		DO UPDATE SET score = $3, did_win = $4
	`
	if _, err := tx.Exec(ctx, insertLine, result.RoomID, result.WinnerID, result.WinnerScore, true); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, insertLine, result.RoomID, result.LoserID, result.LoserScore, false); err != nil {
		return err
	}
	return nil
}

// Stop gracefully stops the historian service.
func (hs *HistorianService) Stop() {
	hs.cancelFn()
}

// main is the entrypoint.
func main() {
	hs := NewHistorianService()
	go hs.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	hs.Stop()
	log.Println("Historian shutdown complete.")
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer value from an environment variable or
// returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
