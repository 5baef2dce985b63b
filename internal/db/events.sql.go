package db

import (
	"context"
	"time"
)

const insertEvent = `-- name: InsertEvent :exec
INSERT INTO events (id, kind, subject, payload, created_at)
VALUES (?, ?, ?, ?, ?)
`

type InsertEventParams struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
}

func (q *Queries) InsertEvent(ctx context.Context, arg InsertEventParams) error {
	_, err := q.db.ExecContext(ctx, insertEvent,
		arg.ID,
		arg.Kind,
		arg.Subject,
		arg.Payload,
		arg.CreatedAt,
	)
	return err
}

const listEventsBySubject = `-- name: ListEventsBySubject :many
SELECT id, kind, subject, payload, created_at FROM events
WHERE subject = ?
ORDER BY created_at DESC
LIMIT ?
`

type ListEventsBySubjectParams struct {
	Subject string `json:"subject"`
	Limit   int64  `json:"limit"`
}

func (q *Queries) ListEventsBySubject(ctx context.Context, arg ListEventsBySubjectParams) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEventsBySubject, arg.Subject, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Event
	for rows.Next() {
		var i Event
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.Subject,
			&i.Payload,
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
