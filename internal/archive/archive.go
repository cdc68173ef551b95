// Package archive stores finished match results in Postgres. Nothing in the
// core reads it back; it only feeds the recent-results endpoint.
package archive

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/eightball/internal/models"
)

const maxRecent = 100

const insertResultSQL = `INSERT INTO match_results
	(room, player1_id, player1_name, player2_id, player2_name, winner_id, winner_name, win_type, status, shots, started_at, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id`

const recentResultsSQL = `SELECT id, room, player1_id, player1_name, player2_id, player2_name, winner_id, winner_name, win_type, status, shots, started_at, completed_at
	FROM match_results ORDER BY completed_at DESC LIMIT $1`

// Store is the match_results table.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// SaveResult inserts r and sets its ID.
func (s *Store) SaveResult(ctx context.Context, r *models.MatchResult) error {
	err := s.db.QueryRowxContext(ctx, insertResultSQL,
		r.Room, r.Player1ID, r.Player1Name, r.Player2ID, r.Player2Name,
		r.WinnerID, r.WinnerName, r.WinType, r.Status, r.Shots,
		r.StartedAt, r.CompletedAt,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert match result %s: %w", r.Room, err)
	}
	return nil
}

// Recent returns the latest results, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]models.MatchResult, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}
	results := []models.MatchResult{}
	if err := s.db.SelectContext(ctx, &results, recentResultsSQL, limit); err != nil {
		return nil, fmt.Errorf("select recent results: %w", err)
	}
	return results, nil
}
