package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// DirBackend stores files under a host directory.
//
// Writes truncate in place with no rename-swap, so a crash mid-write can
// leave a short file behind.
type DirBackend struct {
	root    string
	logger  *slog.Logger
	mounted bool
}

// NewDirBackend creates a backend rooted at root.
func NewDirBackend(root string, logger *slog.Logger) *DirBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirBackend{root: root, logger: logger}
}

// Name implements Backend.
func (b *DirBackend) Name() string { return BackendDir }

// Root returns the host directory.
func (b *DirBackend) Root() string { return b.root }

// Mount creates the root directory. Formatting removes whatever occupies
// the root and creates it again.
func (b *DirBackend) Mount(ctx context.Context, formatOnFailure bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.prepareRoot()
	if err != nil && formatOnFailure {
		b.logger.Warn("mount failed, formatting", "root", b.root, "error", err)
		if rmErr := os.RemoveAll(b.root); rmErr != nil {
			return fmt.Errorf("dir: format %s: %w", b.root, rmErr)
		}
		err = b.prepareRoot()
	}
	if err != nil {
		return fmt.Errorf("dir: mount %s: %w", b.root, err)
	}

	b.mounted = true
	b.logger.Debug("dir backend mounted", "root", b.root)
	return nil
}

func (b *DirBackend) prepareRoot() error {
	if err := os.MkdirAll(b.root, 0o755); err != nil {
		return err
	}
	info, err := os.Stat(b.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", b.root)
	}
	return nil
}

// Exists implements Backend.
func (b *DirBackend) Exists(ctx context.Context, p string) bool {
	full, err := b.resolve(ctx, p, true)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

// OpenRead implements Backend.
func (b *DirBackend) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	full, err := b.resolve(ctx, p, true)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, mapFSError(err)
	}
	return f, nil
}

// OpenWrite implements Backend. Missing parent directories are created.
func (b *DirBackend) OpenWrite(ctx context.Context, p string) (io.WriteCloser, error) {
	full, err := b.resolve(ctx, p, true)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, mapFSError(err)
	}
	return f, nil
}

// Remove implements Backend.
func (b *DirBackend) Remove(ctx context.Context, p string) error {
	full, err := b.resolve(ctx, p, true)
	if err != nil {
		return err
	}
	return mapFSError(os.Remove(full))
}

// List implements Browser.
func (b *DirBackend) List(ctx context.Context, dir string) ([]FileInfo, error) {
	full, err := b.resolve(ctx, dir, false)
	if err != nil {
		return nil, err
	}
	clean, _ := CleanPath(dir)

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, mapFSError(err)
	}

	out := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		fi := FileInfo{
			Name:    e.Name(),
			Path:    path.Join(clean, e.Name()),
			IsDir:   e.IsDir(),
			ModTime: info.ModTime(),
		}
		if !e.IsDir() {
			fi.Size = info.Size()
		}
		out = append(out, fi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Usage implements Browser.
func (b *DirBackend) Usage(ctx context.Context) (Usage, error) {
	if _, err := b.resolve(ctx, "/", false); err != nil {
		return Usage{}, err
	}

	var u Usage
	err := filepath.WalkDir(b.root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			u.UsedBytes += info.Size()
			u.Files++
		}
		return nil
	})
	return u, err
}

// Close implements Backend.
func (b *DirBackend) Close() error {
	b.mounted = false
	return nil
}

// resolve checks ctx and the mount state, then maps p to a host path.
func (b *DirBackend) resolve(ctx context.Context, p string, file bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !b.mounted {
		return "", ErrNotMounted
	}

	var (
		clean string
		err   error
	)
	if file {
		clean, err = cleanFile(p)
	} else {
		clean, err = CleanPath(p)
	}
	if err != nil {
		return "", err
	}
	return filepath.Join(b.root, filepath.FromSlash(clean)), nil
}

func mapFSError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrNotExist, err)
	}
	return err
}
