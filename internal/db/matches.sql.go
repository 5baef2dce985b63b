package db

import (
	"context"
	"time"
)

const getMatch = `-- name: GetMatch :one
SELECT id, team1, team2, quality, balance, winner, events, created_at, started_at, ended_at FROM matches
WHERE id = ?
`

func (q *Queries) GetMatch(ctx context.Context, id string) (Match, error) {
	row := q.db.QueryRowContext(ctx, getMatch, id)
	var i Match
	err := row.Scan(
		&i.ID,
		&i.Team1,
		&i.Team2,
		&i.Quality,
		&i.Balance,
		&i.Winner,
		&i.Events,
		&i.CreatedAt,
		&i.StartedAt,
		&i.EndedAt,
	)
	return i, err
}

const upsertMatch = `-- name: UpsertMatch :exec
INSERT INTO matches (
    id, team1, team2, quality, balance, winner, events, created_at, started_at, ended_at
) VALUES (
    ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
)
ON CONFLICT(id) DO UPDATE SET
    team1 = excluded.team1,
    team2 = excluded.team2,
    quality = excluded.quality,
    balance = excluded.balance,
    winner = excluded.winner,
    events = excluded.events,
    started_at = excluded.started_at,
    ended_at = excluded.ended_at
`

type UpsertMatchParams struct {
	ID        string     `json:"id"`
	Team1     string     `json:"team1"`
	Team2     string     `json:"team2"`
	Quality   float64    `json:"quality"`
	Balance   float64    `json:"balance"`
	Winner    string     `json:"winner"`
	Events    string     `json:"events"`
	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

func (q *Queries) UpsertMatch(ctx context.Context, arg UpsertMatchParams) error {
	_, err := q.db.ExecContext(ctx, upsertMatch,
		arg.ID,
		arg.Team1,
		arg.Team2,
		arg.Quality,
		arg.Balance,
		arg.Winner,
		arg.Events,
		arg.CreatedAt,
		arg.StartedAt,
		arg.EndedAt,
	)
	return err
}
