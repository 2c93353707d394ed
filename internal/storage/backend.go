package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"
)

// Common errors.
var (
	ErrNotExist    = errors.New("file does not exist")
	ErrNotMounted  = errors.New("backend not mounted")
	ErrInvalidPath = errors.New("invalid path")
	ErrClosed      = errors.New("backend closed")
)

// Backend is a mountable store of whole files.
//
// Implementations must honour ctx cancellation before touching storage.
// They are not required to be safe for concurrent use.
type Backend interface {
	// Mount makes the backend usable. When the first attempt fails and
	// formatOnFailure is set, the backend wipes its storage and tries again.
	Mount(ctx context.Context, formatOnFailure bool) error

	// Exists reports whether a regular file lives at p.
	Exists(ctx context.Context, p string) bool

	// OpenRead opens p for reading. Missing files return ErrNotExist.
	OpenRead(ctx context.Context, p string) (io.ReadCloser, error)

	// OpenWrite opens p for writing, truncating any previous content.
	// The data is durable once Close returns nil.
	OpenWrite(ctx context.Context, p string) (io.WriteCloser, error)

	// Remove deletes the file at p.
	Remove(ctx context.Context, p string) error

	// Name identifies the implementation ("dir", "badger", "memory").
	Name() string

	// Close releases the backend.
	Close() error
}

// Browser is implemented by backends that can enumerate their files.
type Browser interface {
	// List returns the direct children of dir, sorted by name.
	List(ctx context.Context, dir string) ([]FileInfo, error)

	// Usage reports how much space the backend occupies.
	Usage(ctx context.Context) (Usage, error)
}

// FileInfo describes one entry returned by Browser.List.
type FileInfo struct {
	Name    string    `json:"name" yaml:"name" toml:"name"`
	Path    string    `json:"path" yaml:"path" toml:"path"`
	Size    int64     `json:"size" yaml:"size" toml:"size"`
	IsDir   bool      `json:"is_dir" yaml:"is_dir" toml:"is_dir"`
	ModTime time.Time `json:"mod_time,omitempty" yaml:"mod_time,omitempty" toml:"mod_time,omitempty"`
}

// Usage is a storage occupancy summary.
type Usage struct {
	UsedBytes int64 `json:"used_bytes" yaml:"used_bytes" toml:"used_bytes"`
	Files     int   `json:"files" yaml:"files" toml:"files"`
}

// Backend names accepted by New.
const (
	BackendDir    = "dir"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config selects and configures a backend.
type Config struct {
	// Backend is one of BackendDir, BackendBadger, BackendMemory.
	Backend string

	// DataDir is the root directory for dir and badger backends.
	DataDir string

	// Badger tuning, used only by the badger backend.
	Badger BadgerConfig
}

// DefaultConfig returns a dir backend rooted at dataDir.
func DefaultConfig(dataDir string) Config {
	return Config{
		Backend: BackendDir,
		DataDir: dataDir,
		Badger:  DefaultBadgerConfig(),
	}
}

// New builds the backend named by cfg.Backend. The backend is not mounted.
func New(cfg Config, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case BackendDir, "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("storage: dir backend requires a data dir")
		}
		return NewDirBackend(cfg.DataDir, logger), nil
	case BackendBadger:
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("storage: badger backend requires a data dir")
		}
		return NewBadgerBackend(cfg.DataDir, cfg.Badger, logger), nil
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}

// CleanPath normalizes a rooted slash path. Relative paths are made rooted;
// any ".." element is rejected.
func CleanPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if strings.ContainsRune(p, 0) || strings.Contains(p, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	for _, elem := range strings.Split(p, "/") {
		if elem == ".." {
			return "", fmt.Errorf("%w: %q escapes the root", ErrInvalidPath, p)
		}
	}
	return path.Clean("/" + p), nil
}

// cleanFile is CleanPath that also rejects the root itself.
func cleanFile(p string) (string, error) {
	c, err := CleanPath(p)
	if err != nil {
		return "", err
	}
	if c == "/" {
		return "", fmt.Errorf("%w: root is not a file", ErrInvalidPath)
	}
	return c, nil
}
