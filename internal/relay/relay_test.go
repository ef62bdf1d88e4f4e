package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeAuth is a scriptable Authenticator.
type fakeAuth struct {
	mu            sync.Mutex
	err           error
	authenticated bool
	block         chan struct{}
	calls         int
}

func (f *fakeAuth) Authenticate(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err == nil {
		f.authenticated = true
	}
	return f.err
}

func (f *fakeAuth) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

func (f *fakeAuth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingListener collects events and signals when a terminal event lands.
type recordingListener struct {
	mu     sync.Mutex
	events []Event
	done   chan struct{}
	once   sync.Once
	fail   bool
}

func newRecordingListener() *recordingListener {
	return &recordingListener{done: make(chan struct{})}
}

func (l *recordingListener) Emit(event Event) error {
	l.mu.Lock()
	l.events = append(l.events, event)
	fail := l.fail
	l.mu.Unlock()

	if event.Kind == EventSuccess || event.Kind == EventError {
		l.once.Do(func() { close(l.done) })
	}

	if fail {
		return errors.New("popup closed")
	}
	return nil
}

func (l *recordingListener) wait(t *testing.T) []Event {
	t.Helper()
	select {
	case <-l.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for terminal relay event")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

func TestRelay(t *testing.T) {
	t.Run("Success Event Order", func(t *testing.T) {
		listener := newRecordingListener()
		r := New(&fakeAuth{}, nil)
		r.SetListener(listener)

		if !r.Request(context.Background()) {
			t.Fatal("expected request to be accepted")
		}

		events := listener.wait(t)
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %v", events)
		}
		if events[0].Kind != EventAuthenticating {
			t.Errorf("expected authenticating first, got %s", events[0].Kind)
		}
		if events[1].Kind != EventSuccess {
			t.Errorf("expected success second, got %s", events[1].Kind)
		}
	})

	t.Run("Failure Emits Error", func(t *testing.T) {
		listener := newRecordingListener()
		r := New(&fakeAuth{err: errors.New("user denied access")}, nil)
		r.SetListener(listener)

		r.Request(context.Background())

		events := listener.wait(t)
		last := events[len(events)-1]
		if last.Kind != EventError {
			t.Errorf("expected error event, got %s", last.Kind)
		}
		if last.Message != "user denied access" {
			t.Errorf("expected failure reason in message, got %q", last.Message)
		}
	})

	t.Run("Success Is Reverified", func(t *testing.T) {
		// Authenticate reports success but never stores credentials; the
		// relay must report an error, not success.
		listener := newRecordingListener()
		r := New(&lyingAuth{}, nil)
		r.SetListener(listener)

		r.Request(context.Background())

		events := listener.wait(t)
		last := events[len(events)-1]
		if last.Kind != EventError {
			t.Errorf("expected error when no credentials stored, got %s", last.Kind)
		}
	})

	t.Run("Duplicate Request Ignored", func(t *testing.T) {
		block := make(chan struct{})
		auth := &fakeAuth{block: block}
		listener := newRecordingListener()
		r := New(auth, nil)
		r.SetListener(listener)

		if !r.Request(context.Background()) {
			t.Fatal("expected first request accepted")
		}

		waitFor(t, r.InFlight)

		if r.Request(context.Background()) {
			t.Error("expected duplicate request to be ignored")
		}

		close(block)
		listener.wait(t)

		if auth.callCount() != 1 {
			t.Errorf("expected one Authenticate call, got %d", auth.callCount())
		}
	})

	t.Run("Listener Failures Are Swallowed", func(t *testing.T) {
		listener := newRecordingListener()
		listener.fail = true
		r := New(&fakeAuth{}, nil)
		r.SetListener(listener)

		r.Request(context.Background())

		// all events still delivered despite each Emit returning an error
		events := listener.wait(t)
		if events[len(events)-1].Kind != EventSuccess {
			t.Errorf("expected flow to finish despite listener failures, got %v", events)
		}
	})

	t.Run("Detached Listener Drops Events", func(t *testing.T) {
		auth := &fakeAuth{}
		r := New(auth, nil)

		r.Request(context.Background())

		waitFor(t, func() bool { return !r.InFlight() })

		if !auth.IsAuthenticated() {
			t.Error("expected flow to complete without a listener")
		}
	})
}

// lyingAuth reports success from Authenticate but never stores credentials.
type lyingAuth struct{}

func (lyingAuth) Authenticate(ctx context.Context) error { return nil }
func (lyingAuth) IsAuthenticated() bool                  { return false }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
