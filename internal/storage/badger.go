package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between value log GC runs. Zero disables GC.
	GCInterval time.Duration

	// GCThreshold is the discard ratio passed to RunValueLogGC.
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	ValueLogFileSize int64

	// SyncWrites fsyncs after each commit.
	SyncWrites bool
}

// DefaultBadgerConfig returns settings sized for a handful of small files.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        8 << 20,  // 8MB
		ValueLogFileSize: 64 << 20, // 64MB
		SyncWrites:       true,
	}
}

// BadgerBackend stores each file as one key in an embedded Badger DB.
// The key is the cleaned path.
type BadgerBackend struct {
	dir    string
	cfg    BadgerConfig
	logger *slog.Logger
	db     *badger.DB

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerBackend creates a backend whose database lives in dir.
func NewBadgerBackend(dir string, cfg BadgerConfig, logger *slog.Logger) *BadgerBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerBackend{dir: dir, cfg: cfg, logger: logger}
}

// Name implements Backend.
func (b *BadgerBackend) Name() string { return BackendBadger }

// Mount opens the database. Formatting wipes the directory and opens a
// fresh one, except when the directory is locked by another opener.
func (b *BadgerBackend) Mount(ctx context.Context, formatOnFailure bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.db != nil {
		return nil
	}

	db, err := b.open()
	if err != nil && isLockContention(err) {
		return fmt.Errorf("badger: open db: %w", err)
	}
	if err != nil && formatOnFailure {
		b.logger.Warn("badger open failed, formatting", "dir", b.dir, "error", err)
		if rmErr := os.RemoveAll(b.dir); rmErr != nil {
			return fmt.Errorf("badger: format %s: %w", b.dir, rmErr)
		}
		db, err = b.open()
	}
	if err != nil {
		return fmt.Errorf("badger: open db: %w", err)
	}

	b.db = db
	b.stopCh = make(chan struct{})
	b.doneCh = make(chan struct{})
	go b.gcLoop()

	b.logger.Info("badger backend mounted",
		"dir", b.dir,
		"cache_size", b.cfg.CacheSize,
		"gc_interval", b.cfg.GCInterval)
	return nil
}

// isLockContention reports whether open failed because another process
// holds the database directory. A busy database is never formatted.
func isLockContention(err error) bool {
	return strings.Contains(err.Error(), "Cannot acquire directory lock")
}

func (b *BadgerBackend) open() (*badger.DB, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(b.dir)
	opts.Logger = &badgerLogger{logger: b.logger}
	opts.BlockCacheSize = b.cfg.CacheSize
	opts.ValueLogFileSize = b.cfg.ValueLogFileSize
	opts.SyncWrites = b.cfg.SyncWrites
	opts.DetectConflicts = false

	return badger.Open(opts)
}

// Exists implements Backend.
func (b *BadgerBackend) Exists(ctx context.Context, p string) bool {
	key, err := b.key(ctx, p)
	if err != nil {
		return false
	}
	err = b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	return err == nil
}

// OpenRead implements Backend. The value is copied out of the transaction.
func (b *BadgerBackend) OpenRead(ctx context.Context, p string) (io.ReadCloser, error) {
	key, err := b.key(ctx, p)
	if err != nil {
		return nil, err
	}

	var value []byte
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotExist, p)
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(value)), nil
}

// OpenWrite implements Backend. Content is buffered and committed in a
// single transaction by Close.
func (b *BadgerBackend) OpenWrite(ctx context.Context, p string) (io.WriteCloser, error) {
	key, err := b.key(ctx, p)
	if err != nil {
		return nil, err
	}
	return &badgerWriter{db: b.db, key: key}, nil
}

// Remove implements Backend.
func (b *BadgerBackend) Remove(ctx context.Context, p string) error {
	key, err := b.key(ctx, p)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrNotExist, p)
			}
			return err
		}
		return txn.Delete(key)
	})
}

// List implements Browser. Directories are implied by key prefixes.
func (b *BadgerBackend) List(ctx context.Context, dir string) ([]FileInfo, error) {
	if err := b.ready(ctx); err != nil {
		return nil, err
	}
	clean, err := CleanPath(dir)
	if err != nil {
		return nil, err
	}
	prefix := clean
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	seenDirs := make(map[string]bool)
	var out []FileInfo
	err = b.scan(ctx, []byte(prefix), func(item *badger.Item) bool {
		rest := strings.TrimPrefix(string(item.Key()), prefix)
		if name, _, nested := strings.Cut(rest, "/"); nested {
			if !seenDirs[name] {
				seenDirs[name] = true
				out = append(out, FileInfo{Name: name, Path: prefix + name, IsDir: true})
			}
			return true
		}
		out = append(out, FileInfo{
			Name: rest,
			Path: prefix + rest,
			Size: item.ValueSize(),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 && clean != "/" {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, clean)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Usage implements Browser.
func (b *BadgerBackend) Usage(ctx context.Context) (Usage, error) {
	if err := b.ready(ctx); err != nil {
		return Usage{}, err
	}

	lsm, vlog := b.db.Size()
	u := Usage{UsedBytes: lsm + vlog}
	err := b.scan(ctx, []byte("/"), func(*badger.Item) bool {
		u.Files++
		return true
	})
	return u, err
}

// scan iterates keys with prefix without prefetching values.
func (b *BadgerBackend) scan(ctx context.Context, prefix []byte, fn func(item *badger.Item) bool) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !fn(it.Item()) {
				break
			}
		}
		return nil
	})
}

// GC runs value log garbage collection until Badger reports nothing left
// to rewrite. It returns the number of successful rewrite passes.
func (b *BadgerBackend) GC(ctx context.Context) (int, error) {
	if err := b.ready(ctx); err != nil {
		return 0, err
	}

	passes := 0
	for {
		if err := ctx.Err(); err != nil {
			return passes, err
		}
		err := b.db.RunValueLogGC(b.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return passes, fmt.Errorf("gc: %w", err)
		}
		passes++
	}
	return passes, nil
}

// Close stops the GC loop and closes the database.
func (b *BadgerBackend) Close() error {
	if b.db == nil {
		return nil
	}

	close(b.stopCh)
	<-b.doneCh

	err := b.db.Close()
	b.db = nil
	if err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	b.logger.Info("badger backend closed", "dir", b.dir)
	return nil
}

// RegisterMetrics exposes the database size on registry.
func (b *BadgerBackend) RegisterMetrics(registry prometheus.Registerer) error {
	size := func(pick func(lsm, vlog int64) int64) func() float64 {
		return func() float64 {
			if b.db == nil {
				return 0
			}
			return float64(pick(b.db.Size()))
		}
	}

	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "aranea",
			Subsystem: "badger",
			Name:      "lsm_size_bytes",
			Help:      "Badger LSM tree size in bytes",
		}, size(func(lsm, _ int64) int64 { return lsm })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "aranea",
			Subsystem: "badger",
			Name:      "value_log_size_bytes",
			Help:      "Badger value log size in bytes",
		}, size(func(_, vlog int64) int64 { return vlog })),
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (b *BadgerBackend) gcLoop() {
	defer close(b.doneCh)

	if b.cfg.GCInterval <= 0 {
		<-b.stopCh
		return
	}

	ticker := time.NewTicker(b.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := b.GC(ctx); err != nil {
				b.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-b.stopCh:
			return
		}
	}
}

func (b *BadgerBackend) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.db == nil {
		return ErrNotMounted
	}
	return nil
}

func (b *BadgerBackend) key(ctx context.Context, p string) ([]byte, error) {
	if err := b.ready(ctx); err != nil {
		return nil, err
	}
	clean, err := cleanFile(p)
	if err != nil {
		return nil, err
	}
	return []byte(clean), nil
}

// badgerWriter buffers a file until Close.
type badgerWriter struct {
	db     *badger.DB
	key    []byte
	buf    bytes.Buffer
	closed bool
}

func (w *badgerWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	return w.buf.Write(p)
}

func (w *badgerWriter) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	return w.db.Update(func(txn *badger.Txn) error {
		return txn.Set(w.key, w.buf.Bytes())
	})
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
