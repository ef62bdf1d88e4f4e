package server

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/auth"
	"github.com/desertthunder/pagetune/internal/relay"
	"github.com/desertthunder/pagetune/internal/shared"
)

// AuthHandler exposes the relay protocol over HTTP: a login request is
// acknowledged immediately (receipt, not completion) and progress flows
// through the events endpoint. Implements the [Handler] interface.
type AuthHandler struct {
	relay       *relay.Relay
	coordinator *auth.Coordinator
	logger      *log.Logger
}

// NewAuthHandler creates the auth endpoints over the relay and coordinator.
func NewAuthHandler(r *relay.Relay, c *auth.Coordinator, logger *log.Logger) *AuthHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AuthHandler{relay: r, coordinator: c, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{
		"POST /auth/login",
		"GET /auth/status",
		"POST /auth/logout",
	}
}

// ServeHTTP dispatches to the matching auth operation.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/login":
		h.login(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/auth/status":
		h.status(w)
	case r.Method == http.MethodPost && r.URL.Path == "/auth/logout":
		h.logout(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	// The flow must outlive this request; it runs on the daemon's lifetime,
	// not the popup's.
	accepted := h.relay.Request(context.WithoutCancel(r.Context()))

	writeJSON(w, http.StatusAccepted, map[string]any{
		"accepted": accepted,
		"status":   "authenticating",
	})
}

func (h *AuthHandler) status(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": h.coordinator.IsAuthenticated(),
		"state":         h.coordinator.State().String(),
		"in_flight":     h.relay.InFlight(),
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter) {
	if err := h.coordinator.Logout(); err != nil {
		h.logger.Error("logout failed", "error", err)
		http.Error(w, "failed to clear credentials", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
