package httpserver

import (
	"net/http"
	"time"

	"github.com/yndnr/aranea-go/internal/core/service"
	"github.com/yndnr/aranea-go/internal/server/httpserver/handler"
	"github.com/yndnr/aranea-go/internal/telemetry/logger"
	"github.com/yndnr/aranea-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Store  *service.ConfigStore
	Logger logger.Logger

	// Metrics, when set, serves /metrics and records request metrics.
	Metrics *metric.Registry

	RateLimit float64
	RateBurst int

	// AuthTokenHash protects mutating routes; empty disables auth.
	AuthTokenHash string

	StartTime time.Time
}

// ProtectedReads are read routes that expose secrets and therefore sit
// behind the token when one is configured.
var ProtectedReads = []string{"/api/settings/raw", "/api/fs/read", "/api/fs/list"}

// OpsPaths are exempt from rate limiting.
var OpsPaths = []string{"/health", "/ready", "/metrics"}

// NewRouter wires the handler and the middleware chain:
// Recover, RequestID, Metrics, AccessLog, RateLimit, Auth.
func NewRouter(cfg *RouterConfig) http.Handler {
	return Wrap(NewHandler(cfg), cfg)
}

// NewHandler builds the API handler and registers its settings collector
// when cfg.Metrics is set. Every listener serving the same store must share
// one handler.
func NewHandler(cfg *RouterConfig) *handler.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	var opts []handler.Option
	if !cfg.StartTime.IsZero() {
		opts = append(opts, handler.WithStartTime(cfg.StartTime))
	}
	if cfg.Metrics != nil {
		opts = append(opts, handler.WithMetricsHandler(cfg.Metrics.Handler()))
	}
	h := handler.New(cfg.Store, log.Slog(), opts...)

	if cfg.Metrics != nil {
		if err := cfg.Metrics.Registerer().Register(metric.NewCollector(h)); err != nil {
			log.Warn("settings collector not registered", "error", err)
		}
	}
	return h
}

// Wrap applies the network middleware chain to h.
func Wrap(h http.Handler, cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	middlewares := []Middleware{Recover(log), RequestID(log)}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, Metrics(cfg.Metrics))
	}
	middlewares = append(middlewares,
		AccessLog(),
		RateLimit(RateLimitConfig{
			PerSecond: cfg.RateLimit,
			Burst:     cfg.RateBurst,
			SkipPaths: OpsPaths,
		}),
		Auth(AuthConfig{
			TokenHash:      cfg.AuthTokenHash,
			ProtectedReads: ProtectedReads,
		}),
	)

	return Chain(h, middlewares...)
}

// NewLocalRouter wraps h for the Unix socket listener. Peers are trusted by
// socket permissions, so there is no rate limiting or auth.
func NewLocalRouter(h http.Handler, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.Default()
	}
	return Chain(h, Recover(log), RequestID(log), AccessLog())
}
