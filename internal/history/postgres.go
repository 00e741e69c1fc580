package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the utterances table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS utterances (
    id             BIGSERIAL PRIMARY KEY,
    text           TEXT NOT NULL,
    audio_ms       BIGINT NOT NULL DEFAULT 0,
    ended_at       TIMESTAMPTZ NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_utterances_ended_at ON utterances(ended_at);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore persists dictation history in a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store over the given connection or pool. The
// caller is responsible for calling [PostgresStore.Migrate] before issuing
// queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL, creating the utterances table and index
// if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Insert persists one utterance.
func (s *PostgresStore) Insert(ctx context.Context, e Entry) error {
	const query = `
		INSERT INTO utterances (text, audio_ms, ended_at)
		VALUES ($1, $2, $3)`

	_, err := s.db.Exec(ctx, query, e.Text, e.AudioDuration.Milliseconds(), e.EndedAt)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit utterances finalized after since, in
// chronological order (oldest first).
func (s *PostgresStore) Recent(ctx context.Context, since time.Time, limit int) ([]Entry, error) {
	const query = `
		SELECT text, audio_ms, ended_at
		FROM (
			SELECT text, audio_ms, ended_at
			FROM utterances
			WHERE ended_at > $1
			ORDER BY ended_at DESC
			LIMIT $2
		) newest
		ORDER BY ended_at ASC`

	rows, err := s.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var audioMs int64
		if err := rows.Scan(&e.Text, &audioMs, &e.EndedAt); err != nil {
			return nil, fmt.Errorf("history: recent scan: %w", err)
		}
		e.AudioDuration = time.Duration(audioMs) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	return entries, nil
}

// Prune deletes utterances finalized before the cutoff and returns the
// number of rows removed.
func (s *PostgresStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM utterances WHERE ended_at < $1`
	tag, err := s.db.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}
