package player

import "context"

// MessageType discriminates every message crossing the bridge. The
// vocabulary is closed; messages of any other shape are silently ignored.
type MessageType string

const (
	// UI → frame
	MsgInitPlayer MessageType = "init_player"

	// frame → UI
	MsgDeviceID         MessageType = "device_id"
	MsgPlayerReady      MessageType = "player_ready"
	MsgPlayerError      MessageType = "player_error"
	MsgPlayerState      MessageType = "player_state"
	MsgNotAuthenticated MessageType = "not_authenticated"
)

// Message is the envelope for both directions of the bridge protocol.
// Only the fields relevant to a given Type are populated.
type Message struct {
	Type        MessageType    `json:"type"`
	AccessToken string         `json:"access_token,omitempty"`
	DeviceID    string         `json:"device_id,omitempty"`
	Error       string         `json:"error,omitempty"`
	State       *PlaybackState `json:"state,omitempty"`
}

// PlaybackState is the last known playback snapshot reported by the frame.
type PlaybackState struct {
	Paused     bool      `json:"paused"`
	PositionMS int       `json:"position_ms"`
	DurationMS int       `json:"duration_ms"`
	Track      TrackInfo `json:"track"`
}

// TrackInfo describes the currently playing track.
type TrackInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Artist string `json:"artist"`
	URI    string `json:"uri"`
}

// Device is a remote playback endpoint from the provider's device listing.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active bool   `json:"is_active"`
}

// DeviceLister queries the provider's device-listing endpoint. Implemented
// by [playback.Client]; the bridge uses it as the readiness fallback when
// the frame's ready event never fires.
type DeviceLister interface {
	Devices(ctx context.Context) ([]Device, error)
}
