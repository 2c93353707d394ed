package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/infra/buildinfo"
	"github.com/yndnr/aranea-go/internal/telemetry/logger"
)

// handleDeviceInfo handles GET /api/device/info.
func (h *Handler) handleDeviceInfo(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec := h.store.Record()
	h.writeJSON(w, r, http.StatusOK, DeviceInfoResponse{
		Build:         buildinfo.Get(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Backend:       h.store.Backend().Name(),
		SettingsPath:  h.store.Path(),
		Initialized:   h.store.Initialized(),
		LocationName:  rec.LocationName,
		Endpoints:     len(rec.Endpoints),
		CheckInterval: rec.CheckIntervalDuration().String(),
	})
}

// handleRestart handles POST /api/device/restart by re-running the store
// boot sequence: mount, first-boot bootstrap and load.
func (h *Handler) handleRestart(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	log := logger.L(r.Context())
	log.Info("restart requested")

	resp := RestartResponse{}
	if err := h.store.Open(r.Context()); err != nil {
		if !errors.Is(err, domain.ErrBootstrap) {
			h.handleServiceError(w, r, err)
			return
		}
		log.Warn("restart completed with bootstrap failure", "error", err)
		resp.Warning = err.Error()
	}

	resp.Initialized = h.store.Initialized()
	resp.Fingerprint = h.store.Fingerprint()
	h.writeJSON(w, r, http.StatusOK, resp)
}
