package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/aranea-go/internal/core/codec"
	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/storage"
	"github.com/yndnr/aranea-go/internal/telemetry/logger"
)

// ConfigStore owns the device settings and their file on the backend.
type ConfigStore struct {
	record  *domain.ConfigRecord
	backend storage.Backend
	path    string

	initialized     bool
	formatOnFailure bool
	ioTimeout       time.Duration

	log     logger.Logger
	metrics Recorder
}

// NewConfigStore creates an unopened store holding the factory defaults.
func NewConfigStore(backend storage.Backend, opts ...StoreOption) *ConfigStore {
	s := defaultStore()
	s.backend = backend
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "settings", "path", s.path)
	return s
}

// ============================================================================
// Lifecycle
// ============================================================================

// Open mounts the backend, bootstraps defaults on first boot and loads the
// settings file.
//
// A mount failure returns ErrMount and leaves the store unopened. A failed
// bootstrap write returns ErrBootstrap, but only after the load step has run;
// the store is usable either way. Load failures fall back to defaults and
// are not reported.
func (s *ConfigStore) Open(ctx context.Context) error {
	if err := s.mount(ctx); err != nil {
		return domain.ErrMount.WithDetails(s.backend.Name()).WithCause(err)
	}

	var bootErr error
	if s.IsFirstBoot(ctx) {
		s.log.Info("first boot, writing default settings")
		s.record = domain.DefaultRecord()
		if err := s.Save(ctx); err != nil {
			bootErr = domain.ErrBootstrap.WithCause(err)
			s.log.Warn("writing default settings failed", "error", err)
		}
		s.metrics.ObserveBootstrap(bootErr)
	}

	if err := s.Load(ctx); err != nil {
		s.log.Warn("loading settings failed, using defaults", "error", err)
		s.record = domain.DefaultRecord()
		s.metrics.ObserveFallback()
	}

	s.initialized = true
	s.log.Info("settings store opened",
		"backend", s.backend.Name(),
		"endpoints", len(s.record.Endpoints),
		"fingerprint", s.Fingerprint())
	return bootErr
}

func (s *ConfigStore) mount(ctx context.Context) error {
	ctx, cancel := s.ioContext(ctx)
	defer cancel()
	return s.backend.Mount(ctx, s.formatOnFailure)
}

// IsFirstBoot reports whether the settings file is absent.
func (s *ConfigStore) IsFirstBoot(ctx context.Context) bool {
	ctx, cancel := s.ioContext(ctx)
	defer cancel()
	return !s.backend.Exists(ctx, s.path)
}

// Load reads the settings file and replaces the record with its decoded
// content. Only backend failures are reported, as ErrIO.
func (s *ConfigStore) Load(ctx context.Context) (err error) {
	defer func() { s.metrics.ObserveLoad(err) }()

	ctx, cancel := s.ioContext(ctx)
	defer cancel()

	r, err := s.backend.OpenRead(ctx, s.path)
	if err != nil {
		return domain.ErrIO.WithDetails("open for read").WithCause(err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return domain.ErrIO.WithDetails("read").WithCause(err)
	}

	s.record = codec.Decode(string(data))
	s.log.Debug("settings loaded", "bytes", len(data), "fingerprint", s.Fingerprint())
	return nil
}

// Save writes the encoded record, truncating the previous file. The
// in-memory record is left untouched whether or not the write succeeds.
func (s *ConfigStore) Save(ctx context.Context) (err error) {
	defer func() { s.metrics.ObserveSave(err) }()

	ctx, cancel := s.ioContext(ctx)
	defer cancel()

	blob := codec.Encode(s.record)

	w, err := s.backend.OpenWrite(ctx, s.path)
	if err != nil {
		return domain.ErrIO.WithDetails("open for write").WithCause(err)
	}

	n, err := io.WriteString(w, blob)
	if err == nil && n != len(blob) {
		err = fmt.Errorf("short write: %d of %d bytes", n, len(blob))
	}
	if err != nil {
		_ = w.Close()
		return domain.ErrIO.WithDetails("write").WithCause(err)
	}
	if err := w.Close(); err != nil {
		return domain.ErrIO.WithDetails("close").WithCause(err)
	}

	s.log.Debug("settings saved", "bytes", len(blob), "fingerprint", s.Fingerprint())
	return nil
}

// Reset restores the factory defaults in memory and saves them. The save
// error, if any, is returned; the defaults stay in memory regardless.
func (s *ConfigStore) Reset(ctx context.Context) error {
	s.record = domain.DefaultRecord()
	s.log.Info("settings reset to defaults")
	return s.Save(ctx)
}

// Initialized reports whether Open has completed.
func (s *ConfigStore) Initialized() bool {
	return s.initialized
}

// Path returns the settings file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// Backend returns the injected backend.
func (s *ConfigStore) Backend() storage.Backend {
	return s.backend
}

func (s *ConfigStore) ioContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.ioTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.ioTimeout)
}

// ============================================================================
// Codec
// ============================================================================

// Encode renders the current record in the settings file format.
func (s *ConfigStore) Encode() string {
	return codec.Encode(s.record)
}

// Decode replaces the current record with the one decoded from text. It
// never fails; see codec.Decode.
func (s *ConfigStore) Decode(text string) {
	s.record = codec.Decode(text)
}

// Fingerprint is a murmur3 digest of the encoded record. Two stores with
// the same fingerprint hold identical settings.
func (s *ConfigStore) Fingerprint() string {
	return Fingerprint(s.Encode())
}

// Fingerprint hashes an encoded settings blob.
func Fingerprint(blob string) string {
	return strconv.FormatUint(murmur3.Sum64([]byte(blob)), 16)
}

// ============================================================================
// Accessors
// ============================================================================

// Record returns a deep copy of the current record.
func (s *ConfigStore) Record() *domain.ConfigRecord {
	return s.record.Clone()
}

func (s *ConfigStore) LocationName() string  { return s.record.LocationName }
func (s *ConfigStore) NetworkName() string   { return s.record.NetworkName }
func (s *ConfigStore) MainSSID() string      { return s.record.MainSSID }
func (s *ConfigStore) MainPass() string      { return s.record.MainPass }
func (s *ConfigStore) AltSSID() string       { return s.record.AltSSID }
func (s *ConfigStore) AltPass() string       { return s.record.AltPass }
func (s *ConfigStore) DevSSID() string       { return s.record.DevSSID }
func (s *ConfigStore) DevPass() string       { return s.record.DevPass }
func (s *ConfigStore) CheckInterval() uint32 { return s.record.CheckInterval }

// Endpoints returns a copy of the endpoint list.
func (s *ConfigStore) Endpoints() []string {
	out := make([]string, len(s.record.Endpoints))
	copy(out, s.record.Endpoints)
	return out
}

// Setters change memory only. None of them validate.

func (s *ConfigStore) SetLocationName(v string)  { s.record.LocationName = v }
func (s *ConfigStore) SetNetworkName(v string)   { s.record.NetworkName = v }
func (s *ConfigStore) SetMainSSID(v string)      { s.record.MainSSID = v }
func (s *ConfigStore) SetMainPass(v string)      { s.record.MainPass = v }
func (s *ConfigStore) SetAltSSID(v string)       { s.record.AltSSID = v }
func (s *ConfigStore) SetAltPass(v string)       { s.record.AltPass = v }
func (s *ConfigStore) SetDevSSID(v string)       { s.record.DevSSID = v }
func (s *ConfigStore) SetDevPass(v string)       { s.record.DevPass = v }
func (s *ConfigStore) SetCheckInterval(v uint32) { s.record.CheckInterval = v }

// ============================================================================
// Endpoints
// ============================================================================

// AddEndpoint appends url. It fails with ErrEndpointLimit, changing nothing,
// when the list already holds MaxEndpoints entries.
func (s *ConfigStore) AddEndpoint(url string) error {
	if len(s.record.Endpoints) >= domain.MaxEndpoints {
		return domain.ErrEndpointLimit.WithDetails(
			fmt.Sprintf("already holding %d endpoints", domain.MaxEndpoints))
	}
	s.record.Endpoints = append(s.record.Endpoints, url)
	return nil
}

// RemoveEndpoint deletes the endpoint at index, keeping the order of the
// rest. It fails with ErrEndpointIndex when index is out of range.
func (s *ConfigStore) RemoveEndpoint(index int) error {
	n := len(s.record.Endpoints)
	if index < 0 || index >= n {
		return domain.ErrEndpointIndex.WithDetails(fmt.Sprintf("index %d, have %d", index, n))
	}
	s.record.Endpoints = append(s.record.Endpoints[:index], s.record.Endpoints[index+1:]...)
	return nil
}

// ClearEndpoints empties the endpoint list.
func (s *ConfigStore) ClearEndpoints() {
	s.record.Endpoints = []string{}
}
