// Package playback drives the provider's remote playback API: a bearer
// authenticated, rate-limited transport [Client] and a [Controller] that
// scopes commands to the bridge's device session and manages the single
// queued play request.
package playback
