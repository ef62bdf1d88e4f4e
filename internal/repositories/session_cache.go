package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// DefaultSessionTTL bounds how stale a mirrored device session may be before
// a fresh UI context must re-initialize the player.
const DefaultSessionTTL = time.Hour

// CachedSession is the mirrored device-session record.
type CachedSession struct {
	DeviceID string
	Ready    bool
	CachedAt time.Time
}

// SessionCacheRepository persists the device-session mirror.
type SessionCacheRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSessionCacheRepository creates a repository with the given freshness window.
// A zero ttl falls back to [DefaultSessionTTL].
func NewSessionCacheRepository(db *sql.DB, ttl time.Duration) *SessionCacheRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionCacheRepository{db: db, ttl: ttl, now: time.Now}
}

// Put records the ready device so a reopened UI context can skip re-initialization.
func (r *SessionCacheRepository) Put(deviceID string, ready bool) error {
	query := `
		INSERT INTO device_sessions (id, device_id, ready, cached_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			device_id = excluded.device_id,
			ready = excluded.ready,
			cached_at = excluded.cached_at
	`

	if _, err := r.db.Exec(query, deviceID, ready, r.now()); err != nil {
		return fmt.Errorf("failed to cache device session: %w", err)
	}

	return nil
}

// Get returns the mirrored session if it is younger than the freshness
// window, or (nil, nil) otherwise. Stale rows are deleted on read.
func (r *SessionCacheRepository) Get() (*CachedSession, error) {
	query := `SELECT device_id, ready, cached_at FROM device_sessions WHERE id = 1`

	var session CachedSession
	err := r.db.QueryRow(query).Scan(&session.DeviceID, &session.Ready, &session.CachedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load device session: %w", err)
	}

	if r.now().Sub(session.CachedAt) > r.ttl {
		if err := r.Clear(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &session, nil
}

// Clear drops the mirrored session. Idempotent.
func (r *SessionCacheRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM device_sessions WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear device session: %w", err)
	}
	return nil
}
