package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrCryptoUnavailable indicates the secure random or digest primitive failed.
	ErrCryptoUnavailable = errors.New("crypto primitives unavailable")

	// ErrAuthInFlight rejects a second Authenticate call while one is running.
	// Overlapping attempts would mix PKCE verifiers between exchanges.
	ErrAuthInFlight = errors.New("authentication already in progress")

	// ErrIncompleteTokenResponse indicates the token endpoint omitted the
	// access or refresh token.
	ErrIncompleteTokenResponse = errors.New("token response missing access or refresh token")

	// ErrReauthenticationRequired indicates a refresh failed and the user
	// must run the authorization flow again. The stored credential is left
	// in place; the caller decides whether to clear it.
	ErrReauthenticationRequired = errors.New("reauthentication required")
)

// AuthorizationError reports a consent callback that carried no authorization
// code, including any error parameters the provider attached.
type AuthorizationError struct {
	Code        string // provider "error" query parameter
	Description string // provider "error_description" query parameter
}

func (e *AuthorizationError) Error() string {
	if e.Code == "" {
		return "no authorization code in callback"
	}
	if e.Description == "" {
		return fmt.Sprintf("authorization failed: %s", e.Code)
	}
	return fmt.Sprintf("authorization failed: %s - %s", e.Code, e.Description)
}

// TokenExchangeError reports a non-success response from the token endpoint,
// carrying the status and body so callers can render an explanation.
type TokenExchangeError struct {
	Status int
	Body   string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed with status %d: %s", e.Status, e.Body)
}
