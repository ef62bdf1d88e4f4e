package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/pagetune/internal/auth"
)

// TokenRepository implements [auth.TokenStore] over a single-row SQLite table.
//
// The row is keyed by id = 1; concurrent writers degrade to last-write-wins,
// which is acceptable because the coordinator is the only logical owner.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new TokenRepository with the given database connection.
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Save upserts the credential record and confirms the write reached the database.
func (r *TokenRepository) Save(record auth.TokenRecord) error {
	query := `
		INSERT INTO tokens (id, access_token, refresh_token, expires_at, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	result, err := r.db.Exec(query, record.AccessToken, record.RefreshToken, record.ExpiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to confirm token write: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("token write affected no rows")
	}

	return nil
}

// Load retrieves the stored credential record, or (nil, nil) when none exists.
func (r *TokenRepository) Load() (*auth.TokenRecord, error) {
	query := `SELECT access_token, refresh_token, expires_at FROM tokens WHERE id = 1`

	var record auth.TokenRecord
	err := r.db.QueryRow(query).Scan(&record.AccessToken, &record.RefreshToken, &record.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}

	return &record, nil
}

// Clear removes the stored credential record. Idempotent.
func (r *TokenRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM tokens WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}
