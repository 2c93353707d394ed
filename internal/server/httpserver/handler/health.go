package handler

import (
	"net/http"
	"time"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready. It is 503 until the store is opened.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	ready := h.store.Initialized()
	h.mu.Unlock()

	status, state := http.StatusOK, "ready"
	if !ready {
		status, state = http.StatusServiceUnavailable, "starting"
	}
	h.writeJSON(w, r, status, map[string]string{
		"status": state,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /metrics.
func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		http.NotFound(w, r)
		return
	}
	h.metrics.ServeHTTP(w, r)
}
