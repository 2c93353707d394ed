package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/core/service"
	"github.com/yndnr/aranea-go/internal/infra/buildinfo"
	"github.com/yndnr/aranea-go/internal/infra/confloader"
	"github.com/yndnr/aranea-go/internal/infra/shutdown"
	"github.com/yndnr/aranea-go/internal/server/config"
	"github.com/yndnr/aranea-go/internal/server/httpserver"
	"github.com/yndnr/aranea-go/internal/server/localserver"
	"github.com/yndnr/aranea-go/internal/storage"
	"github.com/yndnr/aranea-go/internal/telemetry/logger"
	"github.com/yndnr/aranea-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("aranea-agent %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting aranea-agent",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile,
		"backend", cfg.Storage.Backend,
		"auth", cfg.Server.HTTP.AuthTokenHash != "")

	registry := metric.NewRegistry()

	backend, err := storage.New(cfg.Storage.BackendConfig(), log.Slog())
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	store := service.NewConfigStore(backend,
		service.WithPath(cfg.Storage.SettingsPath),
		service.WithLogger(log),
		service.WithMetrics(registry),
		service.WithIOTimeout(cfg.Storage.IOTimeout),
		service.WithFormatOnFailure(cfg.Storage.FormatOnFailure),
	)

	ctx := context.Background()
	if err := store.Open(ctx); err != nil {
		if !errors.Is(err, domain.ErrBootstrap) {
			_ = backend.Close()
			return fmt.Errorf("open settings: %w", err)
		}
		log.Warn("default settings not persisted, running on in-memory defaults", "error", err)
	}

	if bb, ok := backend.(*storage.BadgerBackend); ok {
		if err := bb.RegisterMetrics(registry.Registerer()); err != nil {
			log.Warn("badger metrics not registered", "error", err)
		}
	}

	routerCfg := &httpserver.RouterConfig{
		Store:         store,
		Logger:        log,
		Metrics:       registry,
		RateLimit:     cfg.Server.HTTP.RateLimit,
		RateBurst:     cfg.Server.HTTP.RateBurst,
		AuthTokenHash: cfg.Server.HTTP.AuthTokenHash,
		StartTime:     time.Now(),
	}
	api := httpserver.NewHandler(routerCfg)
	serverOpts := []httpserver.ServerOption{httpserver.WithErrorLog(log.Slog())}
	if cfg.Server.HTTP.TLSCertFile != "" {
		serverOpts = append(serverOpts,
			httpserver.WithTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile))
	}
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, httpserver.Wrap(api, routerCfg), serverOpts...)

	shutdownHandler := shutdown.NewHandler(cfg.Server.ShutdownTimeout)

	// Hooks run in reverse order: HTTP server, local socket, watcher, backend.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing storage backend")
		return backend.Close()
	})

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, cfg, log)
		if err != nil {
			log.Warn("config watcher not started", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(ctx context.Context) error {
				return watcher.Stop()
			})
		}
	}

	if path := cfg.Server.Local.SocketPath; path != "" {
		local := localserver.New(path, httpserver.NewLocalRouter(api, log),
			localserver.WithShutdownFunc(shutdownHandler.Trigger),
			localserver.WithLogger(log.Slog()))
		if err := local.Listen(); err != nil {
			_ = backend.Close()
			return fmt.Errorf("local socket: %w", err)
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("closing local socket", "path", path)
			return local.Shutdown(ctx)
		})
		go func() {
			log.Info("local socket listening", "path", path)
			if err := local.Serve(); err != nil {
				log.Error("local socket error", "error", err)
				shutdownHandler.Trigger("local socket failed")
			}
		}()
	}

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", httpServer.Addr(), "tls", httpServer.TLS())
		if err := httpServer.Run(); err != nil {
			log.Error("HTTP server error", "error", err)
			serveErr <- err
			shutdownHandler.Trigger("http server failed")
		}
	}()

	log.Info("agent started, press Ctrl+C to stop")
	reason, err := shutdownHandler.Wait()
	log.Info("shutdown complete", "reason", reason)
	if err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
	}
	return nil
}

// loadConfig loads configuration from defaults, file and environment.
func loadConfig(configFile string) (*config.AgentConfig, error) {
	opts := []confloader.Option{confloader.WithDefaults(config.Default())}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	cfg := config.Default()
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger builds the process logger and makes it the default.
func initLogger(cfg *config.AgentConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
		Attrs:  []any{"service", "aranea-agent"},
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// watchConfig reloads the config file on change. Only log.level applies
// live; other changes are reported and need a restart.
func watchConfig(path string, current *config.AgentConfig, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		_ = watcher.Stop()
		return nil, err
	}

	level := current.Log.Level
	watcher.OnChange(func(changed string) {
		next, err := loadConfig(changed)
		if err != nil {
			log.Warn("config reload rejected", "path", changed, "error", err)
			return
		}
		if next.Log.Level != level {
			logger.SetLevel(next.Log.Level)
			log.Info("log level changed", "from", level, "to", next.Log.Level)
			level = next.Log.Level
		}
		if next.Server != current.Server || next.Storage != current.Storage {
			log.Warn("config changed outside log.level, restart to apply", "path", changed)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}
