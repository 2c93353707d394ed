package service

import (
	"time"

	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/telemetry/logger"
)

// Recorder receives lifecycle outcomes. A nil error means success.
type Recorder interface {
	ObserveLoad(err error)
	ObserveSave(err error)
	ObserveBootstrap(err error)
	ObserveFallback()
}

type nopRecorder struct{}

func (nopRecorder) ObserveLoad(error)      {}
func (nopRecorder) ObserveSave(error)      {}
func (nopRecorder) ObserveBootstrap(error) {}
func (nopRecorder) ObserveFallback()       {}

// StoreOption configures a ConfigStore.
type StoreOption func(*ConfigStore)

// WithPath sets the settings file path. Default: /config.json.
func WithPath(p string) StoreOption {
	return func(s *ConfigStore) {
		if p != "" {
			s.path = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) StoreOption {
	return func(s *ConfigStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics sets the lifecycle recorder.
func WithMetrics(r Recorder) StoreOption {
	return func(s *ConfigStore) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithIOTimeout bounds every backend call. Zero means no bound.
func WithIOTimeout(d time.Duration) StoreOption {
	return func(s *ConfigStore) {
		s.ioTimeout = d
	}
}

// WithFormatOnFailure controls whether Open may format the backend when the
// first mount fails. Default: true.
func WithFormatOnFailure(format bool) StoreOption {
	return func(s *ConfigStore) {
		s.formatOnFailure = format
	}
}

func defaultStore() *ConfigStore {
	return &ConfigStore{
		record:          domain.DefaultRecord(),
		path:            domain.DefaultSettingsPath,
		log:             logger.Default(),
		metrics:         nopRecorder{},
		formatOnFailure: true,
	}
}
