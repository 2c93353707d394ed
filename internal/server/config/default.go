package config

import (
	"time"

	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/storage"
)

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:8080"
	DefaultRateLimit       = 20
	DefaultRateBurst       = 40
	DefaultShutdownTimeout = 10 * time.Second

	DefaultBackend    = storage.BackendDir
	DefaultDataDir    = "/var/lib/aranea"
	DefaultIOTimeout  = 5 * time.Second
	DefaultGCInterval = 10 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default agent configuration.
func Default() *AgentConfig {
	return &AgentConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:      DefaultHTTPAddr,
				RateLimit: DefaultRateLimit,
				RateBurst: DefaultRateBurst,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Storage: StorageSection{
			Backend:         DefaultBackend,
			DataDir:         DefaultDataDir,
			SettingsPath:    domain.DefaultSettingsPath,
			FormatOnFailure: true,
			IOTimeout:       DefaultIOTimeout,
			Badger: BadgerSection{
				GCInterval: DefaultGCInterval,
				SyncWrites: true,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
