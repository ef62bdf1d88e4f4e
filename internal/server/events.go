package server

import (
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/relay"
	"github.com/desertthunder/pagetune/internal/shared"
	"github.com/gorilla/websocket"
)

// EventsHandler pushes relay status events to whichever UI context holds the
// websocket. A newly opened popup replaces the previous connection; writes
// to a connection whose popup has closed fail, and the relay swallows those
// failures. Implements the [Handler] interface.
type EventsHandler struct {
	relay    *relay.Relay
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewEventsHandler creates the events endpoint and registers itself as the
// relay's listener.
func NewEventsHandler(r *relay.Relay, logger *log.Logger) *EventsHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	h := &EventsHandler{
		relay:  r,
		logger: logger,
		upgrader: websocket.Upgrader{
			// The daemon only serves the local extension.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r.SetListener(h)

	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *EventsHandler) Routes() []string {
	return []string{"GET /events"}
}

// ServeHTTP upgrades the connection and adopts it as the current listener.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	if h.conn != nil {
		h.conn.Close()
	}
	h.conn = conn
	h.mu.Unlock()

	h.logger.Info("ui context connected to event stream")
}

// Emit implements [relay.Listener]. Errors surface to the relay, which
// treats them as an absent UI.
func (h *EventsHandler) Emit(event relay.Event) error {
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()

	if conn == nil {
		return nil
	}

	if err := conn.WriteJSON(event); err != nil {
		h.mu.Lock()
		if h.conn == conn {
			h.conn = nil
		}
		h.mu.Unlock()
		conn.Close()
		return err
	}

	return nil
}
