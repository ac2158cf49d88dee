package calls

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// NOTE: This repository assumes the following table exists:
//
// CREATE TABLE call_records (
//   call_id        TEXT PRIMARY KEY,
//   user_id        TEXT NOT NULL DEFAULT '',
//   call_type      TEXT NOT NULL,
//   status         TEXT NOT NULL,
//   result         TEXT,
//   provider_call_id TEXT NOT NULL DEFAULT '',
//   provider_status  TEXT NOT NULL DEFAULT '',
//   call_duration  INT  NOT NULL DEFAULT 0,
//   patient_name   TEXT NOT NULL DEFAULT '',
//   patient_phone  TEXT NOT NULL DEFAULT '',
//   doctor_name    TEXT NOT NULL DEFAULT '',
//   clinic_phone   TEXT NOT NULL DEFAULT '',
//   preferred_time TEXT NOT NULL DEFAULT '',
//   symptoms       TEXT NOT NULL DEFAULT '',
//   location_text  TEXT NOT NULL DEFAULT '',
//   location_json  TEXT NOT NULL DEFAULT '',
//   emergency_id   TEXT NOT NULL DEFAULT '',
//   created_at     TIMESTAMPTZ NOT NULL
// );
//
// Records are never deleted by this subsystem; retention is handled
// elsewhere.

const pgUniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, rec CallRecord) error {
	const q = `
INSERT INTO call_records (
  call_id, user_id, call_type, status, result, provider_call_id, provider_status,
  call_duration, patient_name, patient_phone, doctor_name, clinic_phone,
  preferred_time, symptoms, location_text, location_json, emergency_id, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18
)
`
	_, err := s.db.ExecContext(ctx, q,
		rec.CallID,
		rec.UserID,
		rec.Type,
		rec.Status,
		nullResult(rec.Result),
		rec.ProviderCallID,
		rec.ProviderStatus,
		rec.DurationSeconds,
		rec.PatientName,
		rec.PatientPhone,
		rec.DoctorName,
		rec.ClinicPhone,
		rec.PreferredTime,
		rec.Symptoms,
		rec.LocationText,
		rec.LocationJSON,
		rec.EmergencyID,
		rec.CreatedAt,
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

func (s *PostgresStore) Get(ctx context.Context, callID string) (CallRecord, error) {
	const q = `
SELECT call_id, user_id, call_type, status, result, provider_call_id, provider_status,
       call_duration, patient_name, patient_phone, doctor_name, clinic_phone,
       preferred_time, symptoms, location_text, location_json, emergency_id, created_at
FROM call_records
WHERE call_id = $1
`
	var rec CallRecord
	var result sql.NullString
	if err := s.db.QueryRowContext(ctx, q, callID).Scan(
		&rec.CallID,
		&rec.UserID,
		&rec.Type,
		&rec.Status,
		&result,
		&rec.ProviderCallID,
		&rec.ProviderStatus,
		&rec.DurationSeconds,
		&rec.PatientName,
		&rec.PatientPhone,
		&rec.DoctorName,
		&rec.ClinicPhone,
		&rec.PreferredTime,
		&rec.Symptoms,
		&rec.LocationText,
		&rec.LocationJSON,
		&rec.EmergencyID,
		&rec.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallRecord{}, ErrNotFound
		}
		return CallRecord{}, err
	}
	if result.Valid {
		rec.Result = CallResult(result.String)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, callID string, u CallUpdate) error {
	// Partial merge: nil fields keep their stored value. COALESCE keeps this
	// a single statement, matching the blind field-overwrite model the
	// lifecycle relies on.
	const q = `
UPDATE call_records
SET status           = COALESCE($2, status),
    result           = COALESCE($3, result),
    provider_call_id = COALESCE($4, provider_call_id),
    provider_status  = COALESCE($5, provider_status),
    call_duration    = COALESCE($6, call_duration)
WHERE call_id = $1
`
	res, err := s.db.ExecContext(ctx, q,
		callID,
		nullStatus(u.Status),
		nullResultPtr(u.Result),
		nullStr(u.ProviderCallID),
		nullStr(u.ProviderStatus),
		nullInt(u.DurationSeconds),
	)
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

func nullResult(r CallResult) sql.NullString {
	if r == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(r), Valid: true}
}

func nullResultPtr(r *CallResult) sql.NullString {
	if r == nil {
		return sql.NullString{}
	}
	return nullResult(*r)
}

func nullStatus(s *CallStatus) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*s), Valid: true}
}

func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
