package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/telemetry/logger"
)

// handleGetSettings handles GET /api/settings.
func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	reveal := wantReveal(r)
	tag := etag(h.store.Fingerprint())
	if reveal {
		tag = revealETag(h.store.Fingerprint())
	}
	w.Header().Set("ETag", tag)
	if etagMatch(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.writeJSON(w, r, http.StatusOK, h.settingsResponse(reveal, false))
}

// handlePatchSettings handles PATCH /api/settings.
func (h *Handler) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var patch SettingsPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := validatePatch(&patch); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	fp := h.store.Fingerprint()
	if im := r.Header.Get("If-Match"); im != "" && !etagMatch(im, etag(fp)) && !etagMatch(im, revealETag(fp)) {
		h.handleServiceError(w, r, domain.ErrPrecondition)
		return
	}

	h.applyPatch(&patch)
	h.persist(w, r)
}

// handleSaveSettings handles POST /api/settings/save.
func (h *Handler) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.store.Save(r.Context()); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeSettings(w, r, true)
}

// handleReloadSettings handles POST /api/settings/reload.
func (h *Handler) handleReloadSettings(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.store.Load(r.Context()); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeSettings(w, r, false)
}

// handleResetSettings handles POST /api/settings/reset.
func (h *Handler) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.store.Reset(r.Context()); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	logger.L(r.Context()).Info("settings reset via api")
	h.writeSettings(w, r, true)
}

// handleGetRaw handles GET /api/settings/raw. The body is the encoded
// blob exactly as Save would write it.
func (h *Handler) handleGetRaw(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	blob := h.store.Encode()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag(h.store.Fingerprint()))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, blob)
}

// handlePutRaw handles PUT /api/settings/raw. The body is decoded with
// the device codec, so unknown or malformed fields fall back to defaults.
func (h *Handler) handlePutRaw(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		h.handleServiceError(w, r, domain.ErrInvalidArgument.WithDetails("request body").WithCause(err))
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		h.handleServiceError(w, r, domain.ErrInvalidArgument.WithDetails("empty settings blob"))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.store.Decode(string(body))
	h.persist(w, r)
}

// handleAddEndpoint handles POST /api/settings/endpoints.
func (h *Handler) handleAddEndpoint(w http.ResponseWriter, r *http.Request) {
	var req AddEndpointRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		h.handleServiceError(w, r, domain.ErrInvalidArgument.WithDetails("url is required"))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.store.AddEndpoint(req.URL); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.persist(w, r)
}

// handleRemoveEndpoint handles DELETE /api/settings/endpoints/{index}.
func (h *Handler) handleRemoveEndpoint(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.handleServiceError(w, r, domain.ErrInvalidArgument.WithDetails("index must be an integer"))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.store.RemoveEndpoint(index); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.persist(w, r)
}

// handleClearEndpoints handles DELETE /api/settings/endpoints.
func (h *Handler) handleClearEndpoints(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.store.ClearEndpoints()
	h.persist(w, r)
}

// persist saves unless the request says ?save=false, then writes the
// settings. A failed save leaves the in-memory change in place. Callers
// hold h.mu.
func (h *Handler) persist(w http.ResponseWriter, r *http.Request) {
	saved := false
	if wantSave(r) {
		if err := h.store.Save(r.Context()); err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		saved = true
	}
	h.writeSettings(w, r, saved)
}

func (h *Handler) writeSettings(w http.ResponseWriter, r *http.Request, saved bool) {
	w.Header().Set("ETag", etag(h.store.Fingerprint()))
	h.writeJSON(w, r, http.StatusOK, h.settingsResponse(false, saved))
}

func (h *Handler) settingsResponse(reveal, saved bool) SettingsResponse {
	rec := h.store.Record()
	if !reveal {
		rec = rec.Redacted()
	}
	return SettingsResponse{
		Settings:    rec,
		Fingerprint: h.store.Fingerprint(),
		Path:        h.store.Path(),
		Saved:       saved,
	}
}

func (h *Handler) requireOpened() error {
	if !h.store.Initialized() {
		return domain.ErrNotOpened
	}
	return nil
}

func (h *Handler) applyPatch(p *SettingsPatch) {
	set := func(v *string, fn func(string)) {
		if v != nil {
			fn(*v)
		}
	}
	set(p.LocationName, h.store.SetLocationName)
	set(p.NetworkName, h.store.SetNetworkName)
	set(p.MainSSID, h.store.SetMainSSID)
	set(p.MainPass, h.store.SetMainPass)
	set(p.AltSSID, h.store.SetAltSSID)
	set(p.AltPass, h.store.SetAltPass)
	set(p.DevSSID, h.store.SetDevSSID)
	set(p.DevPass, h.store.SetDevPass)

	if p.CheckInterval != nil {
		h.store.SetCheckInterval(*p.CheckInterval)
	}
	if p.Endpoints != nil {
		h.store.ClearEndpoints()
		for _, url := range *p.Endpoints {
			_ = h.store.AddEndpoint(url)
		}
	}
}

// validatePatch rejects values the device would silently replace on the
// next load.
func validatePatch(p *SettingsPatch) error {
	if p.CheckInterval != nil && *p.CheckInterval == 0 {
		return domain.ErrInvalidArgument.WithDetails("checkInterval must be positive")
	}
	if p.Endpoints != nil {
		if len(*p.Endpoints) > domain.MaxEndpoints {
			return domain.ErrEndpointLimit.WithDetails(strconv.Itoa(len(*p.Endpoints)) + " endpoints")
		}
		for _, url := range *p.Endpoints {
			if strings.TrimSpace(url) == "" {
				return domain.ErrInvalidArgument.WithDetails("endpoint url is empty")
			}
		}
	}
	return nil
}

func wantSave(r *http.Request) bool {
	return r.URL.Query().Get("save") != "false"
}

func wantReveal(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("reveal"))
	return v
}

func etag(fingerprint string) string {
	return `"` + fingerprint + `"`
}

// revealETag tags the unredacted representation, so a cached redacted
// body never satisfies a reveal request.
func revealETag(fingerprint string) string {
	return `"` + fingerprint + `-r"`
}

// etagMatch reports whether an If-Match or If-None-Match header value
// matches tag. Weak validators compare by their opaque part.
func etagMatch(header, tag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}
