package localserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"
)

// Server is the local management server.
type Server struct {
	path    string
	srv     *http.Server
	logger  *slog.Logger
	started time.Time

	shutdownFn func(reason string) bool

	mu       sync.Mutex
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithShutdownFunc enables POST /local/shutdown. fn receives the reason
// and reports whether the request started a shutdown.
func WithShutdownFunc(fn func(reason string) bool) Option {
	return func(s *Server) {
		s.shutdownFn = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server for socketPath that serves api next to the local
// routes.
func New(socketPath string, api http.Handler, opts ...Option) *Server {
	s := &Server{
		path:    socketPath,
		logger:  slog.Default(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.srv = &http.Server{
		Handler:           s.routes(api),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Listen creates the socket. A stale socket left by a previous run is
// removed; any other file at the path is an error.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("localserver: already listening")
	}

	if info, err := os.Lstat(s.path); err == nil {
		if info.Mode()&fs.ModeSocket == 0 {
			return fmt.Errorf("localserver: %s exists and is not a socket", s.path)
		}
		if err := os.Remove(s.path); err != nil {
			return fmt.Errorf("localserver: remove stale socket: %w", err)
		}
	}

	l, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("localserver: listen: %w", err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		_ = l.Close()
		return fmt.Errorf("localserver: chmod socket: %w", err)
	}

	s.listener = l
	return nil
}

// Serve serves connections until Shutdown. Listen must have succeeded.
func (s *Server) Serve() error {
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()
	if l == nil {
		return errors.New("localserver: not listening")
	}

	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, drains active ones within ctx and
// removes the socket file.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)

	s.mu.Lock()
	listening := s.listener != nil
	s.listener = nil
	s.mu.Unlock()

	if listening {
		if rmErr := os.Remove(s.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}
	return err
}
