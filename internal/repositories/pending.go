package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DefaultPendingTTL bounds how long a queued play request survives a UI
// context being torn down before it is considered abandoned.
const DefaultPendingTTL = 5 * time.Minute

// PendingPlaybackRepository persists the single queued play request.
//
// At most one request is held; a newer request supersedes an older one.
type PendingPlaybackRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewPendingPlaybackRepository creates a repository with the given freshness
// window. A zero ttl falls back to [DefaultPendingTTL].
func NewPendingPlaybackRepository(db *sql.DB, ttl time.Duration) *PendingPlaybackRepository {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &PendingPlaybackRepository{db: db, ttl: ttl, now: time.Now}
}

// Put stores the queued track list, replacing any older request.
func (r *PendingPlaybackRepository) Put(trackIDs []string) error {
	query := `
		INSERT INTO pending_playback (id, track_ids, queued_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			track_ids = excluded.track_ids,
			queued_at = excluded.queued_at
	`

	if _, err := r.db.Exec(query, strings.Join(trackIDs, ","), r.now()); err != nil {
		return fmt.Errorf("failed to queue playback request: %w", err)
	}

	return nil
}

// Take returns and clears the queued track list, or (nil, nil) when the slot
// is empty or the request has gone stale.
func (r *PendingPlaybackRepository) Take() ([]string, error) {
	query := `SELECT track_ids, queued_at FROM pending_playback WHERE id = 1`

	var (
		joined   string
		queuedAt time.Time
	)
	err := r.db.QueryRow(query).Scan(&joined, &queuedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending playback: %w", err)
	}

	if err := r.Clear(); err != nil {
		return nil, err
	}

	if r.now().Sub(queuedAt) > r.ttl || joined == "" {
		return nil, nil
	}

	return strings.Split(joined, ","), nil
}

// Clear empties the pending slot. Idempotent.
func (r *PendingPlaybackRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM pending_playback WHERE id = 1`); err != nil {
		return fmt.Errorf("failed to clear pending playback: %w", err)
	}
	return nil
}
