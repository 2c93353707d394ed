package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// Faults makes MemoryBackend operations fail on purpose.
type Faults struct {
	// Mount fails the first mount attempt.
	Mount error
	// Format fails the mount attempt made after formatting.
	Format error
	// Read fails OpenRead.
	Read error
	// Write fails OpenWrite before anything is truncated.
	Write error
	// Commit fails the writer's Close after the file was truncated,
	// leaving an empty file behind.
	Commit error
}

// MemoryBackend keeps files in a map. It is safe for concurrent use.
type MemoryBackend struct {
	mu      sync.Mutex
	files   map[string]memFile
	mounted bool
	faults  Faults
	now     func() time.Time
}

type memFile struct {
	data    []byte
	modTime time.Time
}

// NewMemoryBackend creates an empty, unmounted backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		files: make(map[string]memFile),
		now:   time.Now,
	}
}

// Name implements Backend.
func (b *MemoryBackend) Name() string { return BackendMemory }

// SetFaults replaces the injected faults.
func (b *MemoryBackend) SetFaults(f Faults) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = f
}

// Seed stores a file directly, bypassing mount state and faults.
func (b *MemoryBackend) Seed(p string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	clean, err := cleanFile(p)
	if err != nil {
		panic(err)
	}
	b.files[clean] = memFile{data: bytes.Clone(data), modTime: b.now()}
}

// Contents returns a copy of the file at p, bypassing mount state and faults.
func (b *MemoryBackend) Contents(p string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	clean, err := cleanFile(p)
	if err != nil {
		return nil, false
	}
	f, ok := b.files[clean]
	if !ok {
		return nil, false
	}
	return bytes.Clone(f.data), true
}

// Mount implements Backend. Formatting drops every file.
func (b *MemoryBackend) Mount(ctx context.Context, formatOnFailure bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.faults.Mount
	if err != nil && formatOnFailure {
		b.files = make(map[string]memFile)
		err = b.faults.Format
	}
	if err != nil {
		return fmt.Errorf("memory: mount: %w", err)
	}
	b.mounted = true
	return nil
}

// Exists implements Backend.
func (b *MemoryBackend) Exists(ctx context.Context, p string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	clean, err := b.check(ctx, p)
	if err != nil {
		return false
	}
	_, ok := b.files[clean]
	return ok
}

// OpenRead implements Backend.
func (b *MemoryBackend) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	clean, err := b.check(ctx, p)
	if err != nil {
		return nil, err
	}
	if b.faults.Read != nil {
		return nil, b.faults.Read
	}
	f, ok := b.files[clean]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, clean)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(f.data))), nil
}

// OpenWrite implements Backend. The file is truncated immediately and its
// new content becomes visible on Close.
func (b *MemoryBackend) OpenWrite(ctx context.Context, p string) (io.WriteCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	clean, err := b.check(ctx, p)
	if err != nil {
		return nil, err
	}
	if b.faults.Write != nil {
		return nil, b.faults.Write
	}
	b.files[clean] = memFile{modTime: b.now()}
	return &memWriter{backend: b, path: clean}, nil
}

// Remove implements Backend.
func (b *MemoryBackend) Remove(ctx context.Context, p string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	clean, err := b.check(ctx, p)
	if err != nil {
		return err
	}
	if _, ok := b.files[clean]; !ok {
		return fmt.Errorf("%w: %s", ErrNotExist, clean)
	}
	delete(b.files, clean)
	return nil
}

// List implements Browser.
func (b *MemoryBackend) List(ctx context.Context, dir string) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := CleanPath(dir)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.mounted {
		return nil, ErrNotMounted
	}

	prefix := clean
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	seenDirs := make(map[string]bool)
	var out []FileInfo
	for p, f := range b.files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}
		if name, _, nested := strings.Cut(rest, "/"); nested {
			if !seenDirs[name] {
				seenDirs[name] = true
				out = append(out, FileInfo{Name: name, Path: path.Join(clean, name), IsDir: true})
			}
			continue
		}
		out = append(out, FileInfo{
			Name:    rest,
			Path:    p,
			Size:    int64(len(f.data)),
			ModTime: f.modTime,
		})
	}
	if len(out) == 0 && clean != "/" {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, clean)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Usage implements Browser.
func (b *MemoryBackend) Usage(ctx context.Context) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.mounted {
		return Usage{}, ErrNotMounted
	}

	var u Usage
	for _, f := range b.files {
		u.UsedBytes += int64(len(f.data))
		u.Files++
	}
	return u, nil
}

// Close implements Backend. Files survive so a later Mount sees them.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mounted = false
	return nil
}

// check must be called with mu held.
func (b *MemoryBackend) check(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !b.mounted {
		return "", ErrNotMounted
	}
	return cleanFile(p)
}

type memWriter struct {
	backend *MemoryBackend
	path    string
	buf     bytes.Buffer
	closed  bool
}

func (w *memWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	return w.buf.Write(p)
}

func (w *memWriter) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	b := w.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.faults.Commit != nil {
		return b.faults.Commit
	}
	b.files[w.path] = memFile{data: bytes.Clone(w.buf.Bytes()), modTime: b.now()}
	return nil
}
