package emergency

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// NOTE: This repository assumes the following table exists:
//
// CREATE TABLE emergency_events (
//   emergency_id  TEXT PRIMARY KEY,
//   user_id       TEXT NOT NULL DEFAULT '',
//   symptoms      TEXT NOT NULL DEFAULT '',
//   location_text TEXT NOT NULL DEFAULT '',
//   location_json TEXT NOT NULL DEFAULT '',
//   status        TEXT NOT NULL,
//   created_at    TIMESTAMPTZ NOT NULL,
//   cancelled_at  TIMESTAMPTZ
// );

const pgUniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, e Event) error {
	const q = `
INSERT INTO emergency_events (
  emergency_id, user_id, symptoms, location_text, location_json, status, created_at, cancelled_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
)
`
	_, err := s.db.ExecContext(ctx, q,
		e.EmergencyID,
		e.UserID,
		e.Symptoms,
		e.LocationText,
		e.LocationJSON,
		e.Status,
		e.CreatedAt,
		e.CancelledAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, emergencyID string) (Event, error) {
	const q = `
SELECT emergency_id, user_id, symptoms, location_text, location_json, status, created_at, cancelled_at
FROM emergency_events
WHERE emergency_id = $1
`
	var e Event
	var cancelledAt sql.NullTime
	if err := s.db.QueryRowContext(ctx, q, emergencyID).Scan(
		&e.EmergencyID,
		&e.UserID,
		&e.Symptoms,
		&e.LocationText,
		&e.LocationJSON,
		&e.Status,
		&e.CreatedAt,
		&cancelledAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		e.CancelledAt = &t
	}
	return e, nil
}

func (s *PostgresStore) Cancel(ctx context.Context, emergencyID string, at time.Time) error {
	const q = `
UPDATE emergency_events
SET status = $2, cancelled_at = $3
WHERE emergency_id = $1
`
	res, err := s.db.ExecContext(ctx, q, emergencyID, StatusCancelled, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
