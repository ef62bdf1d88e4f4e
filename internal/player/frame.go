package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/shared"
)

// connectGrace is how long the frame waits after a negative connect
// acknowledgment for the SDK to report a concrete error before a generic
// connectivity error is synthesized. A negative ack without an error event
// is not proof of success.
const connectGrace = 2 * time.Second

// FrameState enumerates the frame-side lifecycle.
type FrameState int

const (
	FrameUnloaded FrameState = iota
	FrameLoadingSDK
	FrameCreatingPlayer
	FrameConnecting
	FrameReady
	FrameError
)

func (s FrameState) String() string {
	switch s {
	case FrameUnloaded:
		return "unloaded"
	case FrameLoadingSDK:
		return "loading_sdk"
	case FrameCreatingPlayer:
		return "creating_player"
	case FrameConnecting:
		return "connecting"
	case FrameReady:
		return "ready"
	case FrameError:
		return "error"
	default:
		return "unknown"
	}
}

// SDKEventKind discriminates events the third-party SDK surfaces to the frame.
type SDKEventKind int

const (
	SDKReady SDKEventKind = iota
	SDKNotReady
	SDKError
	SDKAuthError
	SDKAccountError
	SDKPlaybackError
	SDKStateChange
)

// SDKEvent is a lifecycle or state event from the SDK player instance.
type SDKEvent struct {
	Kind     SDKEventKind
	DeviceID string
	Message  string
	State    *PlaybackState
}

// SDKPlayer is one player instance created by the SDK.
type SDKPlayer interface {
	// Connect registers the player as a device. The boolean is the SDK's
	// acknowledgment; false means the SDK declined without necessarily
	// emitting an error event.
	Connect(ctx context.Context) (bool, error)
	Disconnect()
	Events() <-chan SDKEvent
}

// SDK abstracts the third-party playback SDK the frame loads and drives.
// The production binding lives in the embedding host; tests supply fakes.
type SDK interface {
	Load(ctx context.Context) error
	CreatePlayer(ctx context.Context, accessToken, name string) (SDKPlayer, error)
}

// Frame runs the frame-side state machine: it accepts init_player messages,
// drives the SDK through load/create/connect, and forwards lifecycle events
// to the UI context as tagged messages.
//
// Delivery failures toward a closed UI are expected and harmless, so the
// outbound send function's success is never checked.
type Frame struct {
	sdk        SDK
	send       func(Message)
	playerName string
	logger     *log.Logger

	mu      sync.Mutex
	state   FrameState
	player  SDKPlayer
	pumpCtx context.CancelFunc
}

// NewFrame creates a frame host around the given SDK binding.
func NewFrame(sdk SDK, playerName string, send func(Message), logger *log.Logger) *Frame {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Frame{
		sdk:        sdk,
		send:       send,
		playerName: playerName,
		logger:     logger,
		state:      FrameUnloaded,
	}
}

// State returns the frame's current lifecycle state.
func (f *Frame) State() FrameState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// HandleMessage processes one inbound message from the UI context.
// Messages outside the closed vocabulary are silently ignored.
func (f *Frame) HandleMessage(ctx context.Context, msg Message) {
	switch msg.Type {
	case MsgInitPlayer:
		f.initialize(ctx, msg.AccessToken)
	default:
		// Not ours; the bridge carries other traffic too.
	}
}

// initialize tears down any existing player and walks the machine from
// LoadingSDK to Connecting. Ready is re-entered via the SDK's ready event,
// never by reusing a stale player instance.
func (f *Frame) initialize(ctx context.Context, accessToken string) {
	f.teardown()

	f.setState(FrameLoadingSDK)
	if err := f.sdk.Load(ctx); err != nil {
		f.failf("failed to load playback SDK: %v", err)
		return
	}

	f.setState(FrameCreatingPlayer)
	player, err := f.sdk.CreatePlayer(ctx, accessToken, f.playerName)
	if err != nil {
		f.failf("failed to create player: %v", err)
		return
	}

	pumpCtx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	f.player = player
	f.pumpCtx = cancel
	f.state = FrameConnecting
	f.mu.Unlock()

	errorSeen := make(chan struct{}, 1)
	go f.pump(pumpCtx, player, errorSeen)

	ok, err := player.Connect(ctx)
	if err != nil {
		f.failf("player connect failed: %v", err)
		return
	}

	if !ok {
		// Give the SDK a moment to explain itself before synthesizing.
		go f.graceWatch(ctx, errorSeen)
	}
}

// pump forwards SDK events to the UI until the player is torn down.
func (f *Frame) pump(ctx context.Context, player SDKPlayer, errorSeen chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-player.Events():
			if !open {
				return
			}
			f.handleSDKEvent(event, errorSeen)
		}
	}
}

func (f *Frame) handleSDKEvent(event SDKEvent, errorSeen chan<- struct{}) {
	switch event.Kind {
	case SDKReady:
		f.setState(FrameReady)
		f.send(Message{Type: MsgPlayerReady, DeviceID: event.DeviceID})
	case SDKNotReady:
		f.setState(FrameError)
		f.send(Message{Type: MsgNotAuthenticated, DeviceID: event.DeviceID})
	case SDKError, SDKAuthError, SDKAccountError, SDKPlaybackError:
		select {
		case errorSeen <- struct{}{}:
		default:
		}
		f.setState(FrameError)
		f.send(Message{Type: MsgPlayerError, Error: event.Message})
	case SDKStateChange:
		f.send(Message{Type: MsgPlayerState, State: event.State})
	}
}

// graceWatch synthesizes a connectivity error when a negative connect ack is
// followed by silence for the grace period.
func (f *Frame) graceWatch(ctx context.Context, errorSeen <-chan struct{}) {
	timer := time.NewTimer(connectGrace)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-errorSeen:
		// The SDK reported a concrete error; nothing to synthesize.
	case <-timer.C:
		f.failf("player failed to connect")
	}
}

func (f *Frame) failf(format string, args ...any) {
	f.setState(FrameError)
	msg := Message{Type: MsgPlayerError, Error: fmt.Sprintf(format, args...)}
	f.logger.Warn("player error", "error", msg.Error)
	f.send(msg)
}

func (f *Frame) setState(s FrameState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// teardown disconnects and discards the current player instance, if any.
func (f *Frame) teardown() {
	f.mu.Lock()
	player := f.player
	cancel := f.pumpCtx
	f.player = nil
	f.pumpCtx = nil
	f.state = FrameUnloaded
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if player != nil {
		player.Disconnect()
	}
}
