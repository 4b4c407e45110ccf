package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SessionRepository persists string values under string keys in the session_kv table.
type SessionRepository struct {
	db *sqlx.DB
}

type sessionRow struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: wrap(db)}
}

// Put upserts every key in values within a single transaction.
func (r *SessionRepository) Put(ctx context.Context, values map[string]string) error {
	query := `
		INSERT INTO session_kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for k, v := range values {
			if _, err := tx.ExecContext(ctx, query, k, v, now); err != nil {
				return fmt.Errorf("failed to write session key %q: %w", k, err)
			}
		}
		return nil
	})
}

// Get returns the stored values for keys. Missing keys are absent from the result.
func (r *SessionRepository) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In("SELECT key, value, updated_at FROM session_kv WHERE key IN (?)", keys)
	if err != nil {
		return nil, fmt.Errorf("failed to build session query: %w", err)
	}

	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Delete removes keys within a single transaction. Deleting an absent key is not an error.
func (r *SessionRepository) Delete(ctx context.Context, keys ...string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, "DELETE FROM session_kv WHERE key = ?", k); err != nil {
				return fmt.Errorf("failed to delete session key %q: %w", k, err)
			}
		}
		return nil
	})
}

// UpdatedAt returns when key was last written, or the zero time if it is absent.
func (r *SessionRepository) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, "SELECT key, value, updated_at FROM session_kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read session key %q: %w", key, err)
	}
	return row.UpdatedAt, nil
}
