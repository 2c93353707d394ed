package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/yndnr/aranea-go/internal/storage"
	"github.com/yndnr/aranea-go/internal/telemetry/logger"
	"github.com/yndnr/aranea-go/pkg/token"
)

// Verify validates the configuration.
func Verify(cfg *AgentConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr: %w", err)
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("server.http tls file: %w", err)
		}
	}
	if cfg.HTTP.RateLimit < 0 {
		return errors.New("server.http.rate_limit must not be negative")
	}
	if cfg.HTTP.RateLimit > 0 && cfg.HTTP.RateBurst < 1 {
		return errors.New("server.http.rate_burst must be at least 1 when rate limiting")
	}
	if cfg.HTTP.AuthTokenHash != "" {
		if err := token.ValidateHash(cfg.HTTP.AuthTokenHash); err != nil {
			return fmt.Errorf("server.http.auth_token_hash: %w", err)
		}
	}
	if cfg.Local.SocketPath != "" && !filepath.IsAbs(cfg.Local.SocketPath) {
		return errors.New("server.local.socket_path must be absolute")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Backend {
	case storage.BackendDir, storage.BackendBadger:
		if cfg.DataDir == "" {
			return errors.New("storage.data_dir is required")
		}
	case storage.BackendMemory:
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", cfg.Backend)
	}

	clean, err := storage.CleanPath(cfg.SettingsPath)
	if err != nil {
		return fmt.Errorf("storage.settings_path: %w", err)
	}
	if clean == "/" {
		return errors.New("storage.settings_path must name a file")
	}
	if cfg.IOTimeout < 0 {
		return errors.New("storage.io_timeout must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	switch cfg.Format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
}
