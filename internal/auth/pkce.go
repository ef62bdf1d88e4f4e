package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierBytes produces an 86-character verifier, inside the 43-128
// character window RFC 7636 requires.
const verifierBytes = 64

// GenerateVerifier produces a cryptographically random PKCE code verifier.
//
// The result is URL-safe base64 without padding, 86 characters long.
// Fails with [ErrCryptoUnavailable] when the platform's secure random
// source is inaccessible; that failure is fatal to the attempt, never retried.
func GenerateVerifier() (string, error) {
	buf := make([]byte, verifierBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// DeriveChallenge computes the S256 code challenge for a verifier:
// the SHA-256 digest of the verifier's bytes, URL-safe base64 without padding.
func DeriveChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
