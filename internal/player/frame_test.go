package player

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeSDKPlayer is a scriptable SDKPlayer.
type fakeSDKPlayer struct {
	events    chan SDKEvent
	connectOK bool

	mu          sync.Mutex
	connectErr  error
	disconnects int
}

func newFakeSDKPlayer(connectOK bool) *fakeSDKPlayer {
	return &fakeSDKPlayer{events: make(chan SDKEvent, 8), connectOK: connectOK}
}

func (p *fakeSDKPlayer) Connect(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectOK, p.connectErr
}

func (p *fakeSDKPlayer) Disconnect() {
	p.mu.Lock()
	p.disconnects++
	p.mu.Unlock()
}

func (p *fakeSDKPlayer) Events() <-chan SDKEvent {
	return p.events
}

func (p *fakeSDKPlayer) disconnectCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnects
}

// fakeSDK hands out fakeSDKPlayers.
type fakeSDK struct {
	mu        sync.Mutex
	loadErr   error
	createErr error
	players   []*fakeSDKPlayer
	connectOK bool
}

func (s *fakeSDK) Load(ctx context.Context) error {
	return s.loadErr
}

func (s *fakeSDK) CreatePlayer(ctx context.Context, accessToken, name string) (SDKPlayer, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	player := newFakeSDKPlayer(s.connectOK)
	s.players = append(s.players, player)
	return player, nil
}

func (s *fakeSDK) player(i int) *fakeSDKPlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[i]
}

// outbox collects frame → UI messages.
type outbox struct {
	mu   sync.Mutex
	msgs []Message
	ch   chan Message
}

func newOutbox() *outbox {
	return &outbox{ch: make(chan Message, 16)}
}

func (o *outbox) send(msg Message) {
	o.mu.Lock()
	o.msgs = append(o.msgs, msg)
	o.mu.Unlock()
	select {
	case o.ch <- msg:
	default:
	}
}

func (o *outbox) next(t *testing.T, timeout time.Duration) Message {
	t.Helper()
	select {
	case msg := <-o.ch:
		return msg
	case <-time.After(timeout):
		t.Fatal("timed out waiting for frame message")
		return Message{}
	}
}

func TestFrame(t *testing.T) {
	t.Run("Walks To Ready", func(t *testing.T) {
		sdk := &fakeSDK{connectOK: true}
		out := newOutbox()
		frame := NewFrame(sdk, "Test Player", out.send, nil)

		frame.HandleMessage(context.Background(), Message{Type: MsgInitPlayer, AccessToken: "A1"})

		if state := frame.State(); state != FrameConnecting {
			t.Errorf("expected connecting after positive ack, got %s", state)
		}

		sdk.player(0).events <- SDKEvent{Kind: SDKReady, DeviceID: "D1"}

		msg := out.next(t, time.Second)
		if msg.Type != MsgPlayerReady || msg.DeviceID != "D1" {
			t.Errorf("expected player_ready for D1, got %+v", msg)
		}
		if state := frame.State(); state != FrameReady {
			t.Errorf("expected ready state, got %s", state)
		}
	})

	t.Run("SDK Load Failure", func(t *testing.T) {
		sdk := &fakeSDK{loadErr: errors.New("script blocked")}
		out := newOutbox()
		frame := NewFrame(sdk, "Test Player", out.send, nil)

		frame.HandleMessage(context.Background(), Message{Type: MsgInitPlayer, AccessToken: "A1"})

		msg := out.next(t, time.Second)
		if msg.Type != MsgPlayerError {
			t.Errorf("expected player_error, got %+v", msg)
		}
		if !strings.Contains(msg.Error, "script blocked") {
			t.Errorf("expected cause in error, got %q", msg.Error)
		}
		if state := frame.State(); state != FrameError {
			t.Errorf("expected error state, got %s", state)
		}
	})

	t.Run("Create Player Failure", func(t *testing.T) {
		sdk := &fakeSDK{createErr: errors.New("bad token")}
		out := newOutbox()
		frame := NewFrame(sdk, "Test Player", out.send, nil)

		frame.HandleMessage(context.Background(), Message{Type: MsgInitPlayer, AccessToken: "A1"})

		msg := out.next(t, time.Second)
		if msg.Type != MsgPlayerError || !strings.Contains(msg.Error, "bad token") {
			t.Errorf("expected player_error with cause, got %+v", msg)
		}
	})

	t.Run("Auth Error Forwarded", func(t *testing.T) {
		sdk := &fakeSDK{connectOK: true}
		out := newOutbox()
		frame := NewFrame(sdk, "Test Player", out.send, nil)

		frame.HandleMessage(context.Background(), Message{Type: MsgInitPlayer, AccessToken: "A1"})
		sdk.player(0).events <- SDKEvent{Kind: SDKAuthError, Message: "Invalid token scopes"}

		msg := out.next(t, time.Second)
		if msg.Type != MsgPlayerError || msg.Error != "Invalid token scopes" {
			t.Errorf("expected forwarded auth error, got %+v", msg)
		}
	})

	t.Run("State Change Forwarded", func(t *testing.T) {
		sdk := &fakeSDK{connectOK: true}
		out := newOutbox()
		frame := NewFrame(sdk, "Test Player", out.send, nil)

		frame.HandleMessage(context.Background(), Message{Type: MsgInitPlayer, AccessToken: "A1"})

		state := &PlaybackState{Paused: true, PositionMS: 1500}
		sdk.player(0).events <- SDKEvent{Kind: SDKStateChange, State: state}

		msg := out.next(t, time.Second)
		if msg.Type != MsgPlayerState {
			t.Fatalf("expected player_state, got %+v", msg)
		}
		if msg.State == nil || !msg.State.Paused || msg.State.PositionMS != 1500 {
			t.Errorf("unexpected state payload %+v", msg.State)
		}
	})

	t.Run("Negative Ack Synthesizes Connectivity Error", func(t *testing.T) {
		sdk := &fakeSDK{connectOK: false}
		out := newOutbox()
		frame := NewFrame(sdk, "Test Player", out.send, nil)

		frame.HandleMessage(context.Background(), Message{Type: MsgInitPlayer, AccessToken: "A1"})

		msg := out.next(t, connectGrace+time.Second)
		if msg.Type != MsgPlayerError {
			t.Fatalf("expected synthesized player_error, got %+v", msg)
		}
		if !strings.Contains(msg.Error, "failed to connect") {
			t.Errorf("expected connectivity error, got %q", msg.Error)
		}
	})

	t.Run("Negative Ack With Concrete Error Is Not Doubled", func(t *testing.T) {
		sdk := &fakeSDK{connectOK: false}
		out := newOutbox()
		frame := NewFrame(sdk, "Test Player", out.send, nil)

		frame.HandleMessage(context.Background(), Message{Type: MsgInitPlayer, AccessToken: "A1"})
		sdk.player(0).events <- SDKEvent{Kind: SDKError, Message: "Region not supported"}

		msg := out.next(t, time.Second)
		if msg.Type != MsgPlayerError || msg.Error != "Region not supported" {
			t.Fatalf("expected the SDK's own error, got %+v", msg)
		}

		// The grace watcher must stay silent now that a concrete error landed.
		time.Sleep(connectGrace + 500*time.Millisecond)

		out.mu.Lock()
		count := len(out.msgs)
		out.mu.Unlock()
		if count != 1 {
			t.Errorf("expected exactly one error message, got %d", count)
		}
	})

	t.Run("Reinitialization Tears Down Previous Player", func(t *testing.T) {
		sdk := &fakeSDK{connectOK: true}
		out := newOutbox()
		frame := NewFrame(sdk, "Test Player", out.send, nil)

		frame.HandleMessage(context.Background(), Message{Type: MsgInitPlayer, AccessToken: "A1"})
		frame.HandleMessage(context.Background(), Message{Type: MsgInitPlayer, AccessToken: "A2"})

		if got := sdk.player(0).disconnectCount(); got != 1 {
			t.Errorf("expected first player disconnected once, got %d", got)
		}
		if got := sdk.player(1).disconnectCount(); got != 0 {
			t.Errorf("expected second player still connected, got %d disconnects", got)
		}
	})

	t.Run("Unknown Messages Ignored", func(t *testing.T) {
		sdk := &fakeSDK{connectOK: true}
		out := newOutbox()
		frame := NewFrame(sdk, "Test Player", out.send, nil)

		frame.HandleMessage(context.Background(), Message{Type: MsgPlayerState})

		if state := frame.State(); state != FrameUnloaded {
			t.Errorf("expected frame untouched, got %s", state)
		}
	})
}
