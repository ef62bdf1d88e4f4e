package auth

import "time"

// TokenRecord is the credential record persisted after a successful code
// exchange or refresh.
type TokenRecord struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the record holds both tokens. Expiry is deliberately
// ignored here; staleness is the coordinator's concern.
func (r TokenRecord) Valid() bool {
	return r.AccessToken != "" && r.RefreshToken != ""
}

// TokenStore is durable, process-independent persistence for token records.
//
// Save must confirm durability before returning; a write that fails surfaces
// as an error rather than being assumed to have succeeded. Load returns
// (nil, nil) when no record is stored. Concurrent writers are not expected;
// last write wins if they occur.
//
// Implemented by [repositories.TokenRepository].
type TokenStore interface {
	Save(record TokenRecord) error
	Load() (*TokenRecord, error)
	Clear() error
}
