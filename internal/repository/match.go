package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"moba-mmr/internal/db"
	"moba-mmr/internal/domain"

	"github.com/rs/zerolog"
)

type MatchRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

// MatchRecord is the stored form of a match: teams are kept as player ids.
type MatchRecord struct {
	ID        string              `json:"id"`
	Team1     []string            `json:"team1"`
	Team2     []string            `json:"team2"`
	Quality   float64             `json:"quality"`
	Balance   float64             `json:"balance"`
	Winner    string              `json:"winner"`
	Events    []domain.MatchEvent `json:"events"`
	CreatedAt time.Time           `json:"created_at"`
	StartedAt *time.Time          `json:"started_at,omitempty"`
	EndedAt   *time.Time          `json:"ended_at,omitempty"`
}

func NewMatchRecord(m *domain.Match) MatchRecord {
	rec := MatchRecord{
		ID:        m.ID,
		Quality:   m.Quality,
		Balance:   m.Balance,
		Winner:    m.Winner,
		Events:    m.Events,
		CreatedAt: m.CreatedAt,
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
	}
	if m.Team1 != nil {
		rec.Team1 = m.Team1.IDs()
	}
	if m.Team2 != nil {
		rec.Team2 = m.Team2.IDs()
	}
	return rec
}

func (r *MatchRepository) Upsert(ctx context.Context, m *domain.Match) error {
	return r.UpsertRecord(ctx, NewMatchRecord(m))
}

func (r *MatchRepository) UpsertRecord(ctx context.Context, rec MatchRecord) error {
	if err := upsertMatch(ctx, r.queries, rec); err != nil {
		return err
	}
	r.logger.Debug().Str("match_id", rec.ID).Msg("match stored")
	return nil
}

func upsertMatch(ctx context.Context, q *db.Queries, rec MatchRecord) error {
	team1, err := json.Marshal(orEmpty(rec.Team1))
	if err != nil {
		return fmt.Errorf("failed to encode team1: %w", err)
	}
	team2, err := json.Marshal(orEmpty(rec.Team2))
	if err != nil {
		return fmt.Errorf("failed to encode team2: %w", err)
	}
	events, err := json.Marshal(rec.Events)
	if err != nil {
		return fmt.Errorf("failed to encode events for %s: %w", rec.ID, err)
	}
	if rec.Events == nil {
		events = []byte("[]")
	}

	err = q.UpsertMatch(ctx, db.UpsertMatchParams{
		ID:        rec.ID,
		Team1:     string(team1),
		Team2:     string(team2),
		Quality:   rec.Quality,
		Balance:   rec.Balance,
		Winner:    rec.Winner,
		Events:    string(events),
		CreatedAt: rec.CreatedAt.UTC(),
		StartedAt: utcPtr(rec.StartedAt),
		EndedAt:   utcPtr(rec.EndedAt),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert match %s: %w", rec.ID, err)
	}
	return nil
}

func (r *MatchRepository) Get(ctx context.Context, id string) (*MatchRecord, error) {
	row, err := r.queries.GetMatch(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}

	rec := &MatchRecord{
		ID:        row.ID,
		Quality:   row.Quality,
		Balance:   row.Balance,
		Winner:    row.Winner,
		CreatedAt: row.CreatedAt,
		StartedAt: row.StartedAt,
		EndedAt:   row.EndedAt,
	}
	if err := json.Unmarshal([]byte(row.Team1), &rec.Team1); err != nil {
		return nil, fmt.Errorf("failed to decode team1 of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(row.Team2), &rec.Team2); err != nil {
		return nil, fmt.Errorf("failed to decode team2 of %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(row.Events), &rec.Events); err != nil {
		return nil, fmt.Errorf("failed to decode events of %s: %w", id, err)
	}
	return rec, nil
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
