package db

import (
	"context"
	"time"
)

const countPerformanceByMatch = `-- name: CountPerformanceByMatch :one
SELECT COUNT(*) FROM performance_history
WHERE match_id = ?
`

func (q *Queries) CountPerformanceByMatch(ctx context.Context, matchID string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPerformanceByMatch, matchID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const countPerformanceSince = `-- name: CountPerformanceSince :one
SELECT COUNT(*) FROM performance_history
WHERE player_id = ? AND played_at > ? AND played_at <= ?
`

type CountPerformanceSinceParams struct {
	PlayerID string    `json:"player_id"`
	Since    time.Time `json:"since"`
	Until    time.Time `json:"until"`
}

func (q *Queries) CountPerformanceSince(ctx context.Context, arg CountPerformanceSinceParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPerformanceSince, arg.PlayerID, arg.Since, arg.Until)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getPerformanceByPlayer = `-- name: GetPerformanceByPlayer :many
SELECT id, match_id, player_id, role, score, tier, victory, rating_delta, rating_after, played_at, created_at FROM performance_history
WHERE player_id = ?
ORDER BY played_at DESC, created_at DESC
LIMIT ?
`

type GetPerformanceByPlayerParams struct {
	PlayerID string `json:"player_id"`
	Limit    int64  `json:"limit"`
}

func (q *Queries) GetPerformanceByPlayer(ctx context.Context, arg GetPerformanceByPlayerParams) ([]PerformanceHistory, error) {
	rows, err := q.db.QueryContext(ctx, getPerformanceByPlayer, arg.PlayerID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PerformanceHistory
	for rows.Next() {
		var i PerformanceHistory
		if err := rows.Scan(
			&i.ID,
			&i.MatchID,
			&i.PlayerID,
			&i.Role,
			&i.Score,
			&i.Tier,
			&i.Victory,
			&i.RatingDelta,
			&i.RatingAfter,
			&i.PlayedAt,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertPerformance = `-- name: InsertPerformance :exec
INSERT INTO performance_history (
    id, match_id, player_id, role, score, tier, victory, rating_delta, rating_after, played_at, created_at
) VALUES (
    ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
)
`

type InsertPerformanceParams struct {
	ID          string    `json:"id"`
	MatchID     string    `json:"match_id"`
	PlayerID    string    `json:"player_id"`
	Role        string    `json:"role"`
	Score       float64   `json:"score"`
	Tier        string    `json:"tier"`
	Victory     bool      `json:"victory"`
	RatingDelta float64   `json:"rating_delta"`
	RatingAfter float64   `json:"rating_after"`
	PlayedAt    time.Time `json:"played_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (q *Queries) InsertPerformance(ctx context.Context, arg InsertPerformanceParams) error {
	_, err := q.db.ExecContext(ctx, insertPerformance,
		arg.ID,
		arg.MatchID,
		arg.PlayerID,
		arg.Role,
		arg.Score,
		arg.Tier,
		arg.Victory,
		arg.RatingDelta,
		arg.RatingAfter,
		arg.PlayedAt,
		arg.CreatedAt,
	)
	return err
}
