// Package player implements the playback session bridge: the narrow,
// type-discriminated message protocol between the controlling UI context and
// the isolated frame hosting the third-party playback SDK.
//
// [Frame] is the frame-side state machine (Unloaded → LoadingSDK →
// CreatingPlayer → Connecting → Ready, with Error reachable from every
// non-terminal state). [Bridge] is the UI side: it initializes the device,
// races the ready event against a bounded wait with a device-listing
// fallback, mirrors readiness across UI contexts, and flags errors that
// imply re-authentication.
package player
