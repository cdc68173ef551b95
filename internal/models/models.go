package models

import "time"

// MatchResult is the archived outcome of one finished or abandoned match.
type MatchResult struct {
	ID          int       `db:"id" json:"id"`
	Room        string    `db:"room" json:"room"`
	Player1ID   string    `db:"player1_id" json:"player1_id"`
	Player1Name string    `db:"player1_name" json:"player1_name"`
	Player2ID   string    `db:"player2_id" json:"player2_id"`
	Player2Name string    `db:"player2_name" json:"player2_name"`
	WinnerID    string    `db:"winner_id" json:"winner_id"`
	WinnerName  string    `db:"winner_name" json:"winner_name"`
	WinType     string    `db:"win_type" json:"win_type"`
	Status      string    `db:"status" json:"status"`
	Shots       int       `db:"shots" json:"shots"`
	StartedAt   time.Time `db:"started_at" json:"started_at"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}
