// Package repositories implements SQLite persistence for the credential
// record and the short-lived cross-context mirrors.
//
// Key Implementations:
//   - [TokenRepository] : single-row token record storage, the durable
//     backing for the auth coordinator
//   - [SessionCacheRepository] : device-session mirror so a fresh UI context
//     can skip player re-initialization while the mirror is recent
//   - [PendingPlaybackRepository] : the single queued play request, persisted
//     so it survives a UI context being torn down and recreated
//
// Each mirror repository enforces its own freshness window on read; stale
// rows are treated as absent and cleaned up lazily.
package repositories
