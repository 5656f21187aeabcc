// internal/database/results.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jason-s-yu/rally/internal/models"
)

// ResultStore persists finished matches. It satisfies the coordinator's
// ResultRecorder contract.
type ResultStore struct{}

// NewResultStore returns a store backed by the global pool.
func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// RecordResult upserts the match row and one row per participant, with the
// forfeit flag preserved so downstream achievement logic can tell a walkover
// from a played-out win. Both writes run in one transaction.
func (s *ResultStore) RecordResult(ctx context.Context, result models.MatchResult) error {
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertMatch := `
			INSERT INTO matches (id, kind, forfeit, ended_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET forfeit = $3, ended_at = $4
		`
		if _, e := tx.Exec(ctx, upsertMatch, result.RoomID, string(result.Kind), result.Forfeit, result.EndedAt); e != nil {
			return e
		}

		insertLine := `
			INSERT INTO match_results (match_id, player_id, score, did_win)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (match_id, player_id)
			DO UPDATE SET score = $3, did_win = $4
		`
		if _, e := tx.Exec(ctx, insertLine, result.RoomID, result.WinnerID, result.WinnerScore, true); e != nil {
			return e
		}
		if _, e := tx.Exec(ctx, insertLine, result.RoomID, result.LoserID, result.LoserScore, false); e != nil {
			return e
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx upsert match results: %w", err)
	}
	return nil
}
