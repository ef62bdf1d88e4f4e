package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/repositories"
	"github.com/desertthunder/pagetune/internal/shared"
)

// DefaultReadyWait bounds how long Initialize waits for the frame's ready
// event before falling back to the device-listing endpoint. Readiness events
// are not guaranteed to fire across all runtime states.
const DefaultReadyWait = 10 * time.Second

// ErrDeviceNotFound indicates neither the frame nor the device listing
// produced a usable playback device. User-retryable.
var ErrDeviceNotFound = errors.New("no usable playback device found")

// authKeywords mark player errors that imply the session needs
// re-authentication even though tokens may be technically valid.
var authKeywords = []string{"premium", "authenticat", "account", "token"}

// Session is the UI context's model of the registered playback device.
type Session struct {
	DeviceID  string
	Ready     bool
	LastState *PlaybackState
}

// MessagePoster delivers UI → frame messages.
type MessagePoster interface {
	Post(msg Message)
}

// NoFrame is a MessagePoster for contexts with no embedded frame (the
// terminal runner). Posted messages go nowhere, so readiness always comes
// from the cached session or the device-listing fallback.
type NoFrame struct{}

// Post discards the message.
func (NoFrame) Post(Message) {}

// SessionCache mirrors the device session across UI contexts. Implemented by
// [repositories.SessionCacheRepository].
type SessionCache interface {
	Put(deviceID string, ready bool) error
	Get() (*repositories.CachedSession, error)
	Clear() error
}

// Bridge is the UI-context side of the playback session protocol. It
// bootstraps the device inside the frame, consumes the frame's lifecycle
// events, and exposes the current session to the playback controller.
type Bridge struct {
	frame      MessagePoster
	devices    DeviceLister
	cache      SessionCache
	playerName string
	readyWait  time.Duration
	logger     *log.Logger

	mu       sync.Mutex
	session  Session
	reauth   bool
	lastErr  string
	readySig chan string
	onReady  []func(deviceID string)
}

// BridgeOpts contains dependencies for constructing a Bridge.
type BridgeOpts struct {
	Frame      MessagePoster
	Devices    DeviceLister
	Cache      SessionCache
	PlayerName string
	ReadyWait  time.Duration
	Logger     *log.Logger
}

// NewBridge creates a Bridge. Cache is optional; without it every fresh UI
// context re-initializes the player.
func NewBridge(opts BridgeOpts) *Bridge {
	if opts.ReadyWait <= 0 {
		opts.ReadyWait = DefaultReadyWait
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Bridge{
		frame:      opts.Frame,
		devices:    opts.Devices,
		cache:      opts.Cache,
		playerName: opts.PlayerName,
		readyWait:  opts.ReadyWait,
		logger:     opts.Logger,
		readySig:   make(chan string, 1),
	}
}

// Initialize bootstraps the playback device. An already-ready session or a
// recent cached mirror short circuits re-initialization; otherwise an
// init_player message is posted and
// the call races the frame's ready event against the bounded wait, falling
// back to the device-listing endpoint when the wait elapses.
func (b *Bridge) Initialize(ctx context.Context, accessToken string) error {
	b.mu.Lock()
	ready := b.session.Ready
	b.mu.Unlock()
	if ready {
		return nil
	}

	if b.adoptCachedSession() {
		return nil
	}

	// Drain any stale signal from a previous attempt.
	select {
	case <-b.readySig:
	default:
	}

	b.frame.Post(Message{Type: MsgInitPlayer, AccessToken: accessToken})

	timer := time.NewTimer(b.readyWait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case deviceID := <-b.readySig:
		b.logger.Info("player ready", "device_id", deviceID)
		return nil
	case <-timer.C:
		b.logger.Warn("ready event never arrived, querying device list")
		return b.fallbackToDeviceList(ctx)
	}
}

// adoptCachedSession reuses a mirrored session when it is fresh and ready.
func (b *Bridge) adoptCachedSession() bool {
	if b.cache == nil {
		return false
	}

	cached, err := b.cache.Get()
	if err != nil {
		b.logger.Warn("failed to read session cache", "error", err)
		return false
	}
	if cached == nil || !cached.Ready {
		return false
	}

	b.logger.Info("reusing cached device session", "device_id", cached.DeviceID)
	b.markReady(cached.DeviceID, false)
	return true
}

// fallbackToDeviceList heuristically selects a usable device: prefer one
// matching the configured player name, then an active device that is not a
// generic web player placeholder, then the first listed.
func (b *Bridge) fallbackToDeviceList(ctx context.Context) error {
	if b.devices == nil {
		return ErrDeviceNotFound
	}

	devices, err := b.devices.Devices(ctx)
	if err != nil {
		return fmt.Errorf("device list fallback failed: %w", err)
	}

	device := pickDevice(devices, b.playerName)
	if device == nil {
		return ErrDeviceNotFound
	}

	b.logger.Info("selected device via fallback", "device_id", device.ID, "name", device.Name)
	b.markReady(device.ID, true)
	return nil
}

func pickDevice(devices []Device, playerName string) *Device {
	if len(devices) == 0 {
		return nil
	}

	for i := range devices {
		if devices[i].Name == playerName {
			return &devices[i]
		}
	}

	for i := range devices {
		if devices[i].Active && !strings.Contains(strings.ToLower(devices[i].Name), "web player") {
			return &devices[i]
		}
	}

	return &devices[0]
}

// Run drains frame → UI messages until the channel closes or ctx is done.
func (b *Bridge) Run(ctx context.Context, events <-chan Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, open := <-events:
			if !open {
				return
			}
			b.HandleMessage(msg)
		}
	}
}

// HandleMessage processes one frame → UI message. Shapes outside the closed
// vocabulary are silently ignored.
func (b *Bridge) HandleMessage(msg Message) {
	switch msg.Type {
	case MsgPlayerReady, MsgDeviceID:
		if msg.DeviceID != "" {
			b.markReady(msg.DeviceID, true)
		}
	case MsgPlayerError:
		b.handleError(msg.Error)
	case MsgPlayerState:
		b.mu.Lock()
		b.session.LastState = msg.State
		b.mu.Unlock()
	case MsgNotAuthenticated:
		b.mu.Lock()
		b.reauth = true
		b.mu.Unlock()
		b.Invalidate()
	}
}

func (b *Bridge) handleError(message string) {
	b.mu.Lock()
	b.lastErr = message
	if isAuthRelated(message) {
		b.reauth = true
	}
	b.mu.Unlock()

	b.logger.Warn("player error", "error", message)
	b.Invalidate()
}

func isAuthRelated(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range authKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// markReady records the device session, mirrors it, signals any Initialize
// waiter, and replays registered ready hooks exactly once per transition.
func (b *Bridge) markReady(deviceID string, mirror bool) {
	b.mu.Lock()
	b.session.DeviceID = deviceID
	b.session.Ready = true
	b.reauth = false
	hooks := make([]func(string), len(b.onReady))
	copy(hooks, b.onReady)
	b.mu.Unlock()

	if mirror && b.cache != nil {
		if err := b.cache.Put(deviceID, true); err != nil {
			b.logger.Warn("failed to mirror device session", "error", err)
		}
	}

	select {
	case b.readySig <- deviceID:
	default:
	}

	for _, hook := range hooks {
		hook(deviceID)
	}
}

// Invalidate clears the device session, e.g. after an explicit error signal
// or when the owning UI context deems it stale.
func (b *Bridge) Invalidate() {
	b.mu.Lock()
	b.session.DeviceID = ""
	b.session.Ready = false
	b.mu.Unlock()

	if b.cache != nil {
		if err := b.cache.Clear(); err != nil {
			b.logger.Warn("failed to clear session cache", "error", err)
		}
	}
}

// Session returns a snapshot of the current device session.
func (b *Bridge) Session() Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// NeedsReauthentication reports whether a frame error implied the tokens no
// longer entitle playback, independent of their technical validity.
func (b *Bridge) NeedsReauthentication() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reauth
}

// LastError returns the most recent player error message, empty when none.
func (b *Bridge) LastError() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// OnReady registers a hook invoked each time the session transitions to ready.
// The playback controller uses this to replay its queued request.
func (b *Bridge) OnReady(hook func(deviceID string)) {
	b.mu.Lock()
	b.onReady = append(b.onReady, hook)
	b.mu.Unlock()
}
