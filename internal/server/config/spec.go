package config

import (
	"time"

	"github.com/yndnr/aranea-go/internal/storage"
)

// AgentConfig is the root configuration for aranea-agent.
type AgentConfig struct {
	Server  ServerSection  `koanf:"server" yaml:"server"`
	Storage StorageSection `koanf:"storage" yaml:"storage"`
	Log     LogSection     `koanf:"log" yaml:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP            HTTPConfig    `koanf:"http" yaml:"http"`
	Local           LocalConfig   `koanf:"local" yaml:"local"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// HTTPConfig configures the HTTP management server.
type HTTPConfig struct {
	Addr        string `koanf:"addr" yaml:"addr"`
	TLSCertFile string `koanf:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" yaml:"tls_key_file"`

	// RateLimit is requests per second per client IP. 0 disables it.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `koanf:"rate_burst" yaml:"rate_burst"`

	// AuthTokenHash is an argon2id hash; empty disables auth on
	// mutating routes.
	AuthTokenHash string `koanf:"auth_token_hash" yaml:"auth_token_hash"`
}

// LocalConfig configures the Unix socket listener. It serves the same
// API as HTTP without authentication, relying on file permissions.
type LocalConfig struct {
	// SocketPath is an absolute path; empty disables the listener.
	SocketPath string `koanf:"socket_path" yaml:"socket_path"`
}

// StorageSection configures the byte-store backend and the settings file.
type StorageSection struct {
	Backend         string        `koanf:"backend" yaml:"backend"`
	DataDir         string        `koanf:"data_dir" yaml:"data_dir"`
	SettingsPath    string        `koanf:"settings_path" yaml:"settings_path"`
	FormatOnFailure bool          `koanf:"format_on_failure" yaml:"format_on_failure"`
	IOTimeout       time.Duration `koanf:"io_timeout" yaml:"io_timeout"`
	Badger          BadgerSection `koanf:"badger" yaml:"badger"`
}

// BadgerSection tunes the badger backend.
type BadgerSection struct {
	GCInterval time.Duration `koanf:"gc_interval" yaml:"gc_interval"`
	SyncWrites bool          `koanf:"sync_writes" yaml:"sync_writes"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// BackendConfig converts the storage section for storage.New.
func (s StorageSection) BackendConfig() storage.Config {
	cfg := storage.DefaultConfig(s.DataDir)
	cfg.Backend = s.Backend
	if s.Badger.GCInterval > 0 {
		cfg.Badger.GCInterval = s.Badger.GCInterval
	}
	cfg.Badger.SyncWrites = s.Badger.SyncWrites
	return cfg
}
