package repository

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"moba-mmr/internal/db"
	"moba-mmr/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type PerformanceRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewPerformanceRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *PerformanceRepository {
	return &PerformanceRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// InsertBatch stores the records in one transaction. A record for a (match, player)
// pair that already exists fails the whole batch.
func (r *PerformanceRepository) InsertBatch(ctx context.Context, records []domain.PerformanceRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertRecords(ctx, r.queries.WithTx(tx), records); err != nil {
		return err
	}
	return tx.Commit()
}

func insertRecords(ctx context.Context, qtx *db.Queries, records []domain.PerformanceRecord) error {
	now := time.Now().UTC()
	for _, record := range records {
		id := record.ID
		if id == "" {
			var err error
			id, err = gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate nanoid: %w", err)
			}
		}
		created := record.CreatedAt
		if created.IsZero() {
			created = now
		}

		err := qtx.InsertPerformance(ctx, db.InsertPerformanceParams{
			ID:          id,
			MatchID:     record.MatchID,
			PlayerID:    record.PlayerID,
			Role:        record.Role.String(),
			Score:       record.Score,
			Tier:        record.Tier.String(),
			Victory:     record.Victory,
			RatingDelta: record.RatingDelta,
			RatingAfter: record.RatingAfter,
			PlayedAt:    record.PlayedAt.UTC(),
			CreatedAt:   created.UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to insert performance for %s in %s: %w", record.PlayerID, record.MatchID, err)
		}
	}
	return nil
}

// GetByPlayer returns up to limit of the latest records, oldest first.
func (r *PerformanceRepository) GetByPlayer(ctx context.Context, playerID string, limit int) ([]domain.PerformanceRecord, error) {
	rows, err := r.queries.GetPerformanceByPlayer(ctx, db.GetPerformanceByPlayerParams{
		PlayerID: playerID,
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, err
	}
	return toDomainRecords(rows)
}

// CountSince counts the stored matches of a player played in (since, until].
func (r *PerformanceRepository) CountSince(ctx context.Context, playerID string, since, until time.Time) (int, error) {
	n, err := r.queries.CountPerformanceSince(ctx, db.CountPerformanceSinceParams{
		PlayerID: playerID,
		Since:    since.UTC(),
		Until:    until.UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count performances for %s: %w", playerID, err)
	}
	return int(n), nil
}

func (r *PerformanceRepository) MatchProcessed(ctx context.Context, matchID string) (bool, error) {
	n, err := r.queries.CountPerformanceByMatch(ctx, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to count performances for %s: %w", matchID, err)
	}
	return n > 0, nil
}

// toDomainRecords converts newest-first rows into an oldest-first window.
func toDomainRecords(rows []db.PerformanceHistory) ([]domain.PerformanceRecord, error) {
	result := make([]domain.PerformanceRecord, len(rows))
	for i, row := range rows {
		role, err := domain.ParseRole(row.Role)
		if err != nil {
			return nil, fmt.Errorf("performance %s: %w", row.ID, err)
		}
		result[i] = domain.PerformanceRecord{
			ID:          row.ID,
			MatchID:     row.MatchID,
			PlayerID:    row.PlayerID,
			Role:        role,
			Score:       row.Score,
			Tier:        domain.ParseTier(row.Tier),
			Victory:     row.Victory,
			RatingDelta: row.RatingDelta,
			RatingAfter: row.RatingAfter,
			PlayedAt:    row.PlayedAt,
			CreatedAt:   row.CreatedAt,
		}
	}
	slices.Reverse(result)
	return result, nil
}
