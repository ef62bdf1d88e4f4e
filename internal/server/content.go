package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pagetune/internal/content"
	"github.com/desertthunder/pagetune/internal/shared"
)

// defaultPurgeAge governs DELETE /content when no max_age_hours is given.
const defaultPurgeAge = 24 * time.Hour

// ContentHandler serves the scraped-content CRUD endpoints for the browser
// extension. Implements the [Handler] interface.
type ContentHandler struct {
	store  *content.Store
	logger *log.Logger
}

// NewContentHandler creates a content handler over the given store.
func NewContentHandler(store *content.Store, logger *log.Logger) *ContentHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ContentHandler{store: store, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *ContentHandler) Routes() []string {
	return []string{
		"POST /content",
		"GET /content",
		"GET /content/latest",
		"DELETE /content",
	}
}

// ServeHTTP dispatches to the matching content operation.
func (h *ContentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost:
		h.save(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/content/latest":
		h.latest(w)
	case r.Method == http.MethodGet:
		h.list(w)
	case r.Method == http.MethodDelete:
		h.purge(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ContentHandler) save(w http.ResponseWriter, r *http.Request) {
	var page content.Page
	if err := json.NewDecoder(r.Body).Decode(&page); err != nil {
		http.Error(w, fmt.Sprintf("invalid content payload: %v", err), http.StatusBadRequest)
		return
	}

	if page.Content == "" {
		http.Error(w, "content field is required", http.StatusBadRequest)
		return
	}

	name, err := h.store.Save(page)
	if err != nil {
		h.logger.Error("failed to save content", "error", err)
		http.Error(w, "failed to save content", http.StatusInternalServerError)
		return
	}

	h.logger.Info("saved scraped content", "file", name, "bytes", len(page.Content))
	writeJSON(w, http.StatusCreated, map[string]string{"file": name})
}

func (h *ContentHandler) latest(w http.ResponseWriter) {
	text, err := h.store.Latest()
	if err == shared.ErrNoContent {
		http.Error(w, "no scraped content available", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load latest content", "error", err)
		http.Error(w, "failed to load content", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"content": text})
}

func (h *ContentHandler) list(w http.ResponseWriter) {
	entries, err := h.store.List()
	if err != nil {
		h.logger.Error("failed to list content", "error", err)
		http.Error(w, "failed to list content", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"files": entries})
}

func (h *ContentHandler) purge(w http.ResponseWriter, r *http.Request) {
	maxAge := defaultPurgeAge
	if raw := r.URL.Query().Get("max_age_hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 0 {
			http.Error(w, "max_age_hours must be a non-negative integer", http.StatusBadRequest)
			return
		}
		maxAge = time.Duration(hours) * time.Hour
	}

	removed, err := h.store.Purge(maxAge)
	if err != nil {
		h.logger.Error("failed to purge content", "error", err)
		http.Error(w, "failed to purge content", http.StatusInternalServerError)
		return
	}

	h.logger.Info("purged scraped content", "removed", removed)
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
