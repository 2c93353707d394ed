package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/core/service"
	"github.com/yndnr/aranea-go/internal/storage"
	"github.com/yndnr/aranea-go/internal/telemetry/logger"
	"github.com/yndnr/aranea-go/internal/telemetry/metric"
)

const (
	maxJSONBody = 64 << 10
	maxFileBody = 1 << 20
)

// Handler serves the management API over one settings store.
type Handler struct {
	mu    sync.Mutex
	store *service.ConfigStore

	metrics http.Handler
	logger  *slog.Logger
	started time.Time
	mux     *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetricsHandler serves h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(hd *Handler) {
		hd.metrics = h
	}
}

// WithStartTime sets the time uptime is measured from.
func WithStartTime(t time.Time) Option {
	return func(hd *Handler) {
		hd.started = t
	}
}

// New creates a Handler for store.
func New(store *service.ConfigStore, log *slog.Logger, opts ...Option) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		store:   store,
		logger:  log,
		started: time.Now(),
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /metrics", h.handleMetrics)

	h.mux.HandleFunc("GET /api/settings", h.handleGetSettings)
	h.mux.HandleFunc("PATCH /api/settings", h.handlePatchSettings)
	h.mux.HandleFunc("POST /api/settings/save", h.handleSaveSettings)
	h.mux.HandleFunc("POST /api/settings/reload", h.handleReloadSettings)
	h.mux.HandleFunc("POST /api/settings/reset", h.handleResetSettings)
	h.mux.HandleFunc("GET /api/settings/raw", h.handleGetRaw)
	h.mux.HandleFunc("PUT /api/settings/raw", h.handlePutRaw)

	h.mux.HandleFunc("POST /api/settings/endpoints", h.handleAddEndpoint)
	h.mux.HandleFunc("DELETE /api/settings/endpoints/{index}", h.handleRemoveEndpoint)
	h.mux.HandleFunc("DELETE /api/settings/endpoints", h.handleClearEndpoints)

	h.mux.HandleFunc("GET /api/fs/list", h.handleListFiles)
	h.mux.HandleFunc("GET /api/fs/read", h.handleReadFile)
	h.mux.HandleFunc("POST /api/fs/write", h.handleWriteFile)
	h.mux.HandleFunc("DELETE /api/fs/delete", h.handleDeleteFile)
	h.mux.HandleFunc("GET /api/fs/info", h.handleFSInfo)

	h.mux.HandleFunc("GET /api/device/info", h.handleDeviceInfo)
	h.mux.HandleFunc("POST /api/device/restart", h.handleRestart)
}

// StoreStats implements metric.StatsSource.
func (h *Handler) StoreStats() metric.StoreStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := h.store.Record()
	stats := metric.StoreStats{
		Initialized:          h.store.Initialized(),
		Endpoints:            len(rec.Endpoints),
		CheckIntervalSeconds: rec.CheckIntervalDuration().Seconds(),
	}
	if b, ok := h.store.Backend().(storage.Browser); ok && stats.Initialized {
		if u, err := b.Usage(context.Background()); err == nil {
			stats.UsedBytes = u.UsedBytes
			stats.Files = u.Files
		}
	}
	return stats
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if !domain.IsDomainError(err, "") {
		logger.L(r.Context()).Error("internal error", "error", err)
	} else if StatusFor(err) >= http.StatusInternalServerError {
		logger.L(r.Context()).Warn("request failed", "error", err)
	}
	WriteError(w, r, err)
}

// WriteError writes err in the standard envelope. Errors that are not
// DomainErrors are reported as ErrInternal without their text.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		de = domain.ErrInternal
	}
	requestID := logger.RequestIDFromContext(r.Context())
	response := NewErrorResponse(requestID, de.Code, de.Error(), nil)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", de.Code)
	w.WriteHeader(StatusFor(de))
	_ = json.NewEncoder(w).Encode(response)
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEndpointLimit):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMount), errors.Is(err, domain.ErrNotOpened):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNotSupported):
		return http.StatusNotImplemented
	}
	return errorCodeToHTTPStatus(domain.GetErrorCode(err))
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4120"):
		return http.StatusPreconditionFailed
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4010"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	case strings.HasPrefix(code, "AR-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ErrInvalidArgument.WithDetails("request body").WithCause(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return domain.ErrInvalidArgument.WithDetails("request body has trailing data")
	}
	return nil
}
