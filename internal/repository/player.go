package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"moba-mmr/internal/constants"
	"moba-mmr/internal/db"
	"moba-mmr/internal/domain"

	"github.com/rs/zerolog"
)

type PlayerRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// Get loads a player with the latest history window. A missing player wraps
// domain.ErrNotFound.
func (r *PlayerRepository) Get(ctx context.Context, id string) (*domain.Player, error) {
	row, err := r.queries.GetPlayer(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", id, err)
	}

	player, err := toDomainPlayer(row)
	if err != nil {
		return nil, err
	}

	history, err := r.queries.GetPerformanceByPlayer(ctx, db.GetPerformanceByPlayerParams{
		PlayerID: id,
		Limit:    constants.HistoryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get history for player %s: %w", id, err)
	}
	records, err := toDomainRecords(history)
	if err != nil {
		return nil, err
	}
	player.SetHistory(records)
	return player, nil
}

// GetOrCreate returns the stored player or a fresh one at the initial rating. The
// fresh player is not persisted until UpsertBatch.
func (r *PlayerRepository) GetOrCreate(ctx context.Context, id string, initialRating float64) (*domain.Player, bool, error) {
	player, err := r.Get(ctx, id)
	if err == nil {
		return player, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	r.logger.Debug().Str("player_id", id).Msg("player not found, creating")
	now := time.Now().UTC()
	player = domain.NewPlayer(id, initialRating)
	player.CreatedAt = now
	player.UpdatedAt = now
	return player, true, nil
}

func (r *PlayerRepository) List(ctx context.Context, limit int) ([]*domain.Player, error) {
	rows, err := r.queries.ListPlayers(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	players := make([]*domain.Player, 0, len(rows))
	for _, row := range rows {
		p, err := toDomainPlayer(row)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.Player) error {
	params, err := toUpsertPlayerParams(player)
	if err != nil {
		return err
	}
	return r.queries.UpsertPlayer(ctx, params)
}

func (r *PlayerRepository) UpsertBatch(ctx context.Context, players []*domain.Player) error {
	if len(players) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertPlayers(ctx, r.queries.WithTx(tx), players); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertPlayers(ctx context.Context, qtx *db.Queries, players []*domain.Player) error {
	for i := 0; i < len(players); i += constants.DBBatchSize {
		end := min(i+constants.DBBatchSize, len(players))

		for _, player := range players[i:end] {
			params, err := toUpsertPlayerParams(player)
			if err != nil {
				return err
			}
			if err := qtx.UpsertPlayer(ctx, params); err != nil {
				return fmt.Errorf("failed to upsert player %s: %w", player.ID, err)
			}
		}
	}
	return nil
}

func toUpsertPlayerParams(p *domain.Player) (db.UpsertPlayerParams, error) {
	heroPool, err := json.Marshal(p.HeroPool)
	if err != nil {
		return db.UpsertPlayerParams{}, fmt.Errorf("failed to encode hero pool for %s: %w", p.ID, err)
	}
	stats, err := json.Marshal(p.Stats)
	if err != nil {
		return db.UpsertPlayerParams{}, fmt.Errorf("failed to encode stats for %s: %w", p.ID, err)
	}

	roles := make([]string, len(p.PreferredRoles))
	for i, role := range p.PreferredRoles {
		roles[i] = role.String()
	}

	now := time.Now().UTC()
	created, updated := p.CreatedAt.UTC(), p.UpdatedAt.UTC()
	if p.CreatedAt.IsZero() {
		created = now
	}
	if p.UpdatedAt.IsZero() {
		updated = now
	}

	ratings := p.Ratings()
	return db.UpsertPlayerParams{
		ID:                p.ID,
		Name:              p.Name,
		RatingCarry:       ratings[domain.RoleCarry],
		RatingMid:         ratings[domain.RoleMid],
		RatingOfflane:     ratings[domain.RoleOfflane],
		RatingSoftSupport: ratings[domain.RoleSoftSupport],
		RatingHardSupport: ratings[domain.RoleHardSupport],
		PreferredRoles:    strings.Join(roles, ","),
		HeroPool:          string(heroPool),
		BehaviorScore:     int64(p.BehaviorScore),
		Stats:             string(stats),
		CreatedAt:         created,
		UpdatedAt:         updated,
	}, nil
}

func toDomainPlayer(row db.Player) (*domain.Player, error) {
	p := domain.NewPlayer(row.ID, 0)
	p.Name = row.Name
	p.BehaviorScore = int(row.BehaviorScore)
	p.CreatedAt = row.CreatedAt
	p.UpdatedAt = row.UpdatedAt

	var ratings domain.RoleRatings
	ratings[domain.RoleCarry] = row.RatingCarry
	ratings[domain.RoleMid] = row.RatingMid
	ratings[domain.RoleOfflane] = row.RatingOfflane
	ratings[domain.RoleSoftSupport] = row.RatingSoftSupport
	ratings[domain.RoleHardSupport] = row.RatingHardSupport
	p.SetRatings(ratings)

	if row.PreferredRoles != "" {
		for _, name := range strings.Split(row.PreferredRoles, ",") {
			role, err := domain.ParseRole(name)
			if err != nil {
				return nil, fmt.Errorf("player %s: %w", row.ID, err)
			}
			p.PreferredRoles = append(p.PreferredRoles, role)
		}
	}
	if err := json.Unmarshal([]byte(row.HeroPool), &p.HeroPool); err != nil {
		return nil, fmt.Errorf("failed to decode hero pool for %s: %w", row.ID, err)
	}
	if p.HeroPool == nil {
		p.HeroPool = map[int]int{}
	}
	if err := json.Unmarshal([]byte(row.Stats), &p.Stats); err != nil {
		return nil, fmt.Errorf("failed to decode stats for %s: %w", row.ID, err)
	}
	return p, nil
}
