package repository

import (
	"context"
	"database/sql"
	"fmt"

	"moba-mmr/internal/db"
	"moba-mmr/internal/domain"

	"github.com/rs/zerolog"
)

// ResultRepository stores everything one analysed match changes.
type ResultRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewResultRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *ResultRepository {
	return &ResultRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// Save writes the settled players, their performance records and the match in a
// single transaction. Nothing is stored if any write fails.
func (r *ResultRepository) Save(ctx context.Context, players []*domain.Player, records []domain.PerformanceRecord, match *domain.Match) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	if err := upsertPlayers(ctx, qtx, players); err != nil {
		return err
	}
	if err := insertRecords(ctx, qtx, records); err != nil {
		return err
	}
	if err := upsertMatch(ctx, qtx, NewMatchRecord(match)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match %s: %w", match.ID, err)
	}
	r.logger.Debug().
		Str("match_id", match.ID).
		Int("players", len(players)).
		Msg("match result stored")
	return nil
}
