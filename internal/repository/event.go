package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"moba-mmr/internal/db"
	"moba-mmr/internal/events"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type EventRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewEventRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *EventRepository {
	return &EventRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *EventRepository) SaveEvent(ctx context.Context, rec events.Record) error {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate nanoid: %w", err)
	}
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", rec.Kind, err)
	}
	return r.queries.InsertEvent(ctx, db.InsertEventParams{
		ID:        id,
		Kind:      string(rec.Kind),
		Subject:   rec.Subject,
		Payload:   string(payload),
		CreatedAt: rec.Timestamp.UTC(),
	})
}

// ListBySubject returns the latest events for a player or match, newest first. The
// payload is left as raw JSON.
func (r *EventRepository) ListBySubject(ctx context.Context, subject string, limit int) ([]events.Record, error) {
	rows, err := r.queries.ListEventsBySubject(ctx, db.ListEventsBySubjectParams{
		Subject: subject,
		Limit:   int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s: %w", subject, err)
	}
	result := make([]events.Record, len(rows))
	for i, row := range rows {
		result[i] = events.Record{
			Kind:      events.Kind(row.Kind),
			Timestamp: row.CreatedAt,
			Subject:   row.Subject,
			Payload:   json.RawMessage(row.Payload),
		}
	}
	return result, nil
}
