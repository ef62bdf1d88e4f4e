// Package relay runs the auth coordinator in a long-lived context and
// notifies a separate, possibly-closed, UI context of progress through
// tagged status events.
package relay

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/shared"
)

// DefaultUITimeout is the advisory user-facing wait. Past it the relay
// reports a timeout without killing the underlying consent flow, which has
// no cancellation primitive once the browser is open.
const DefaultUITimeout = 60 * time.Second

// EventKind tags relay status events.
type EventKind string

const (
	EventAuthenticating EventKind = "authenticating"
	EventSuccess        EventKind = "success"
	EventError          EventKind = "error"
)

// Event is one status notification addressed to whichever UI context is
// currently listening.
type Event struct {
	Kind    EventKind `json:"type"`
	Message string    `json:"message,omitempty"`
}

// Listener receives relay events. Emit errors mean the UI context is gone;
// the relay swallows them, they are expected and harmless.
type Listener interface {
	Emit(event Event) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(event Event) error

func (f ListenerFunc) Emit(event Event) error { return f(event) }

// Authenticator is the slice of the auth coordinator the relay drives.
type Authenticator interface {
	Authenticate(ctx context.Context) error
	IsAuthenticated() bool
}

// Relay is a pass-through over the coordinator. Its only state is whether an
// authenticate call is in flight, used to ignore duplicate requests.
type Relay struct {
	auth      Authenticator
	logger    *log.Logger
	uiTimeout time.Duration

	mu       sync.Mutex
	inFlight bool
	listener Listener
}

// New creates a Relay over the given authenticator.
func New(auth Authenticator, logger *log.Logger) *Relay {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Relay{
		auth:      auth,
		logger:    logger,
		uiTimeout: DefaultUITimeout,
	}
}

// SetListener replaces the current UI listener. A nil listener detaches;
// events emitted while detached are dropped.
func (r *Relay) SetListener(l Listener) {
	r.mu.Lock()
	r.listener = l
	r.mu.Unlock()
}

// Request asks the relay to run authentication. The return value
// acknowledges receipt, not completion: false means a flow is already in
// flight and the duplicate was ignored. Status events follow asynchronously
// in the order the coordinator's transitions occur.
func (r *Relay) Request(ctx context.Context) bool {
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		r.logger.Info("ignoring duplicate authenticate request")
		return false
	}
	r.inFlight = true
	r.mu.Unlock()

	go r.run(ctx)

	return true
}

// InFlight reports whether an authenticate call is currently running.
func (r *Relay) InFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight
}

func (r *Relay) run(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		r.inFlight = false
		r.mu.Unlock()
	}()

	r.emit(Event{Kind: EventAuthenticating})

	done := make(chan error, 1)
	go func() {
		done <- r.auth.Authenticate(ctx)
	}()

	timer := time.NewTimer(r.uiTimeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-done:
	case <-timer.C:
		// Advisory: stop waiting on the UI's behalf, let the flow finish.
		r.emit(Event{Kind: EventError, Message: "authentication timed out waiting for consent"})
		err = <-done
	}

	if err != nil {
		r.emit(Event{Kind: EventError, Message: err.Error()})
		return
	}

	// Independently re-verify before claiming success.
	if !r.auth.IsAuthenticated() {
		r.emit(Event{Kind: EventError, Message: "authentication completed but no credentials were stored"})
		return
	}

	r.emit(Event{Kind: EventSuccess})
}

// emit delivers an event to the current listener, swallowing delivery
// failures: the popup may have closed since it asked.
func (r *Relay) emit(event Event) {
	r.mu.Lock()
	listener := r.listener
	r.mu.Unlock()

	if listener == nil {
		return
	}

	if err := listener.Emit(event); err != nil {
		r.logger.Debug("dropped relay event", "kind", event.Kind, "error", err)
	}
}
