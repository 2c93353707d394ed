package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/storage"
)

// handleListFiles handles GET /api/fs/list?path=.
func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("path")
	if dir == "" {
		dir = "/"
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	browser, err := h.browser()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	files, err := browser.List(r.Context(), dir)
	if err != nil {
		h.handleServiceError(w, r, storageError(err))
		return
	}
	if files == nil {
		files = []storage.FileInfo{}
	}
	h.writeJSON(w, r, http.StatusOK, ListFilesResponse{Path: dir, Files: files})
}

// handleReadFile handles GET /api/fs/read?path=.
func (h *Handler) handleReadFile(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	rc, err := h.store.Backend().OpenRead(r.Context(), p)
	if err != nil {
		h.handleServiceError(w, r, storageError(err))
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxFileBody+1))
	if err != nil {
		h.handleServiceError(w, r, storageError(err))
		return
	}
	if len(data) > maxFileBody {
		h.handleServiceError(w, r, domain.ErrInvalidArgument.WithDetails("file too large"))
		return
	}
	h.writeJSON(w, r, http.StatusOK, FileResponse{Path: p, Size: len(data), Content: string(data)})
}

// handleWriteFile handles POST /api/fs/write?path=. The request body
// replaces the file. Writing the settings file does not touch the live
// record until the next reload.
func (h *Handler) handleWriteFile(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	wc, err := h.store.Backend().OpenWrite(r.Context(), p)
	if err != nil {
		h.handleServiceError(w, r, storageError(err))
		return
	}

	n, err := io.Copy(wc, http.MaxBytesReader(w, r.Body, maxFileBody))
	if err != nil {
		_ = wc.Close()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.handleServiceError(w, r, domain.ErrInvalidArgument.WithDetails("file too large"))
			return
		}
		h.handleServiceError(w, r, storageError(err))
		return
	}
	if err := wc.Close(); err != nil {
		h.handleServiceError(w, r, storageError(err))
		return
	}
	h.writeJSON(w, r, http.StatusOK, WriteFileResponse{Path: p, Written: n})
}

// handleDeleteFile handles DELETE /api/fs/delete?path=.
func (h *Handler) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireOpened(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.store.Backend().Remove(r.Context(), p); err != nil {
		h.handleServiceError(w, r, storageError(err))
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{"path": p})
}

// handleFSInfo handles GET /api/fs/info.
func (h *Handler) handleFSInfo(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	browser, err := h.browser()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	usage, err := browser.Usage(r.Context())
	if err != nil {
		h.handleServiceError(w, r, storageError(err))
		return
	}
	h.writeJSON(w, r, http.StatusOK, FSInfoResponse{
		Backend: h.store.Backend().Name(),
		Usage:   usage,
	})
}

func (h *Handler) browser() (storage.Browser, error) {
	if err := h.requireOpened(); err != nil {
		return nil, err
	}
	b, ok := h.store.Backend().(storage.Browser)
	if !ok {
		return nil, domain.ErrNotSupported.WithDetails(h.store.Backend().Name())
	}
	return b, nil
}

// storageError maps backend errors onto the API error codes.
func storageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotExist):
		return domain.ErrNotFound.WithCause(err)
	case errors.Is(err, storage.ErrInvalidPath):
		return domain.ErrInvalidArgument.WithDetails("path").WithCause(err)
	case errors.Is(err, storage.ErrNotMounted):
		return domain.ErrNotOpened.WithCause(err)
	default:
		return domain.ErrIO.WithCause(err)
	}
}
