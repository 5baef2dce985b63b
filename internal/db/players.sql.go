package db

import (
	"context"
	"time"
)

const getPlayer = `-- name: GetPlayer :one
SELECT id, name, rating_carry, rating_mid, rating_offlane, rating_soft_support, rating_hard_support, preferred_roles, hero_pool, behavior_score, stats, created_at, updated_at FROM players
WHERE id = ?
`

func (q *Queries) GetPlayer(ctx context.Context, id string) (Player, error) {
	row := q.db.QueryRowContext(ctx, getPlayer, id)
	var i Player
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.RatingCarry,
		&i.RatingMid,
		&i.RatingOfflane,
		&i.RatingSoftSupport,
		&i.RatingHardSupport,
		&i.PreferredRoles,
		&i.HeroPool,
		&i.BehaviorScore,
		&i.Stats,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listPlayers = `-- name: ListPlayers :many
SELECT id, name, rating_carry, rating_mid, rating_offlane, rating_soft_support, rating_hard_support, preferred_roles, hero_pool, behavior_score, stats, created_at, updated_at FROM players
ORDER BY id
LIMIT ?
`

func (q *Queries) ListPlayers(ctx context.Context, limit int64) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, listPlayers, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Player
	for rows.Next() {
		var i Player
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.RatingCarry,
			&i.RatingMid,
			&i.RatingOfflane,
			&i.RatingSoftSupport,
			&i.RatingHardSupport,
			&i.PreferredRoles,
			&i.HeroPool,
			&i.BehaviorScore,
			&i.Stats,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const upsertPlayer = `-- name: UpsertPlayer :exec
INSERT INTO players (
    id, name, rating_carry, rating_mid, rating_offlane, rating_soft_support, rating_hard_support,
    preferred_roles, hero_pool, behavior_score, stats, created_at, updated_at
) VALUES (
    ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    rating_carry = excluded.rating_carry,
    rating_mid = excluded.rating_mid,
    rating_offlane = excluded.rating_offlane,
    rating_soft_support = excluded.rating_soft_support,
    rating_hard_support = excluded.rating_hard_support,
    preferred_roles = excluded.preferred_roles,
    hero_pool = excluded.hero_pool,
    behavior_score = excluded.behavior_score,
    stats = excluded.stats,
    updated_at = excluded.updated_at
`

type UpsertPlayerParams struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	RatingCarry       float64   `json:"rating_carry"`
	RatingMid         float64   `json:"rating_mid"`
	RatingOfflane     float64   `json:"rating_offlane"`
	RatingSoftSupport float64   `json:"rating_soft_support"`
	RatingHardSupport float64   `json:"rating_hard_support"`
	PreferredRoles    string    `json:"preferred_roles"`
	HeroPool          string    `json:"hero_pool"`
	BehaviorScore     int64     `json:"behavior_score"`
	Stats             string    `json:"stats"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (q *Queries) UpsertPlayer(ctx context.Context, arg UpsertPlayerParams) error {
	_, err := q.db.ExecContext(ctx, upsertPlayer,
		arg.ID,
		arg.Name,
		arg.RatingCarry,
		arg.RatingMid,
		arg.RatingOfflane,
		arg.RatingSoftSupport,
		arg.RatingHardSupport,
		arg.PreferredRoles,
		arg.HeroPool,
		arg.BehaviorScore,
		arg.Stats,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}
