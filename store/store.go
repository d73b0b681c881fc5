// Package store persists settled confirmation attempts to Postgres so
// operators can audit how transactions fared and how long confirmation
// took.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for confirmation records.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store with the given database connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ConfirmationRecord is one settled confirmation attempt.
type ConfirmationRecord struct {
	ID         int64
	Signature  string
	Lifetime   string // "recent" or "durable_nonce"
	Commitment string
	Outcome    string // confirmed | invalidated | aborted | error
	ErrorText  *string
	StartedAt  time.Time
	SettledAt  time.Time
	CreatedAt  time.Time
}

// CreateConfirmationParams contains the parameters for recording a settled
// confirmation attempt.
type CreateConfirmationParams struct {
	Signature  string
	Lifetime   string
	Commitment string
	Outcome    string
	ErrorText  *string
	StartedAt  time.Time
	SettledAt  time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS confirmations (
	id          BIGSERIAL PRIMARY KEY,
	signature   TEXT        NOT NULL,
	lifetime    TEXT        NOT NULL,
	commitment  TEXT        NOT NULL,
	outcome     TEXT        NOT NULL,
	error_text  TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	settled_at  TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS confirmations_signature_idx ON confirmations (signature);
`

// EnsureSchema creates the confirmations table if it doesn't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// CreateConfirmation inserts a settled confirmation attempt.
func (s *Store) CreateConfirmation(ctx context.Context, params CreateConfirmationParams) (*ConfirmationRecord, error) {
	record := &ConfirmationRecord{
		Signature:  params.Signature,
		Lifetime:   params.Lifetime,
		Commitment: params.Commitment,
		Outcome:    params.Outcome,
		ErrorText:  params.ErrorText,
		StartedAt:  params.StartedAt,
		SettledAt:  params.SettledAt,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO confirmations (signature, lifetime, commitment, outcome, error_text, started_at, settled_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		params.Signature, params.Lifetime, params.Commitment, params.Outcome,
		params.ErrorText, params.StartedAt, params.SettledAt,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetConfirmation retrieves the most recent confirmation record for a
// signature, or nil if none exists.
func (s *Store) GetConfirmation(ctx context.Context, signature string) (*ConfirmationRecord, error) {
	record := &ConfirmationRecord{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, signature, lifetime, commitment, outcome, error_text, started_at, settled_at, created_at
		 FROM confirmations
		 WHERE signature = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		signature,
	).Scan(&record.ID, &record.Signature, &record.Lifetime, &record.Commitment,
		&record.Outcome, &record.ErrorText, &record.StartedAt, &record.SettledAt, &record.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListConfirmations retrieves confirmation records, most recent first.
func (s *Store) ListConfirmations(ctx context.Context, limit, offset int32) ([]*ConfirmationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, signature, lifetime, commitment, outcome, error_text, started_at, settled_at, created_at
		 FROM confirmations
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ConfirmationRecord
	for rows.Next() {
		record := &ConfirmationRecord{}
		if err := rows.Scan(&record.ID, &record.Signature, &record.Lifetime, &record.Commitment,
			&record.Outcome, &record.ErrorText, &record.StartedAt, &record.SettledAt, &record.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
