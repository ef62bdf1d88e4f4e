// Package auth implements the OAuth 2.0 authorization-code flow with PKCE
// for the streaming provider, plus the token lifecycle around it.
//
// Key pieces:
//   - [GenerateVerifier] / [DeriveChallenge] : PKCE primitives (RFC 7636, S256)
//   - [TokenStore] : durable credential persistence contract
//   - [Coordinator] : the flow state machine (Idle → Authorizing →
//     ExchangingCode → Authenticated, with Refreshing and Failed branches)
//   - [Authorizer] : the interactive consent facility the coordinator
//     delegates to
//
// The coordinator holds exactly one PKCE exchange context at a time; it is
// generated per attempt, never persisted, and discarded when the attempt
// finishes either way.
package auth
