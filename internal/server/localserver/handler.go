package localserver

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/yndnr/aranea-go/internal/infra/buildinfo"
)

// Status is the body of GET /local/status.
type Status struct {
	PID           int            `json:"pid"`
	Socket        string         `json:"socket"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Build         buildinfo.Info `json:"build"`
}

func (s *Server) routes(api http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /local/status", s.handleStatus)
	mux.HandleFunc("POST /local/shutdown", s.handleShutdown)
	if api != nil {
		mux.Handle("/", api)
	}
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Status{
		PID:           os.Getpid(),
		Socket:        s.path,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Build:         buildinfo.Get(),
	})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if s.shutdownFn == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"status": "shutdown not available"})
		return
	}

	if !s.shutdownFn("local shutdown request") {
		writeJSON(w, http.StatusConflict, map[string]string{"status": "shutdown already in progress"})
		return
	}
	s.logger.Info("shutdown requested over local socket")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "shutting down"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
