package server

import (
	"net/http"

	"github.com/desertthunder/pagetune/internal/auth"
)

// HealthHandler reports daemon liveness and authentication state.
// Implements the [Handler] interface.
type HealthHandler struct {
	coordinator *auth.Coordinator
}

// NewHealthHandler creates the health endpoint.
func NewHealthHandler(c *auth.Coordinator) *HealthHandler {
	return &HealthHandler{coordinator: c}
}

// Routes returns the HTTP routes this handler serves.
func (h *HealthHandler) Routes() []string {
	return []string{"GET /health"}
}

// ServeHTTP writes the health snapshot.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"authenticated": h.coordinator.IsAuthenticated(),
	})
}
