package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server is the agent's TCP listener for the management API.
type Server struct {
	httpServer *http.Server
	certFile   string
	keyFile    string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithTLS serves HTTPS with the given certificate pair.
func WithTLS(certFile, keyFile string) ServerOption {
	return func(s *Server) {
		s.certFile = certFile
		s.keyFile = keyFile
	}
}

// WithErrorLog routes connection-level errors to log.
func WithErrorLog(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.httpServer.ErrorLog = slog.NewLogLogger(log.Handler(), slog.LevelWarn)
		}
	}
}

// New creates a Server for addr.
func New(addr string, handler http.Handler, opts ...ServerOption) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
			MaxHeaderBytes:    16 << 10,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// TLS reports whether the server serves HTTPS.
func (s *Server) TLS() bool {
	return s.certFile != ""
}

// Run listens on the configured address and serves until Shutdown. A
// clean shutdown returns nil.
func (s *Server) Run() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve accepts connections on l, with TLS when configured. A clean
// shutdown returns nil.
func (s *Server) Serve(l net.Listener) error {
	var err error
	if s.TLS() {
		err = s.httpServer.ServeTLS(l, s.certFile, s.keyFile)
	} else {
		err = s.httpServer.Serve(l)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
