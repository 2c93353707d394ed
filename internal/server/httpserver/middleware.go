package httpserver

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/server/httpserver/handler"
	"github.com/yndnr/aranea-go/internal/telemetry/logger"
	"github.com/yndnr/aranea-go/pkg/cmap"
	"github.com/yndnr/aranea-go/pkg/token"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is the
// outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

type startTimeKey struct{}

// RequestID tags each request with an ID, taken from X-Request-ID when the
// client sent a usable one and a new ULID otherwise. The ID and a logger
// are stored in the request context.
func RequestID(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if !validRequestID(requestID) {
				requestID = ulid.Make().String()
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logger.WithLogger(r.Context(), log)
			ctx = logger.WithRequestID(ctx, requestID)
			ctx = context.WithValue(ctx, startTimeKey{}, time.Now())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}

// Recover recovers from panics and returns 500 error.
func Recover(log logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic recovered",
						"request_id", logger.RequestIDFromContext(r.Context()),
						"error", fmt.Sprint(rec),
						"path", r.URL.Path,
					)
					handler.WriteError(w, r, domain.ErrInternal)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RequestRecorder receives one observation per request.
type RequestRecorder interface {
	RecordRequest(method, status string, elapsed time.Duration)
}

// Metrics records request counts and latency.
func Metrics(rec RequestRecorder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)
			next.ServeHTTP(wrapped, r)
			rec.RecordRequest(r.Method, strconv.Itoa(wrapped.statusCode), time.Since(start))
		})
	}
}

// AccessLog logs every completed request.
func AccessLog() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrap(w)
			next.ServeHTTP(wrapped, r)

			startTime, ok := r.Context().Value(startTimeKey{}).(time.Time)
			if !ok {
				startTime = time.Now()
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(startTime).Milliseconds(),
				"client_ip", getClientIP(r),
			}

			log := logger.L(r.Context())
			switch {
			case wrapped.statusCode >= 500:
				log.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request completed with client error", attrs...)
			default:
				log.Debug("request completed", attrs...)
			}
		})
	}
}

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	// PerSecond is the sustained rate per client IP. 0 disables limiting.
	PerSecond float64
	Burst     int

	// SkipPaths are exempt from limiting.
	SkipPaths []string

	// IdleTTL is how long an idle client's limiter is kept.
	IdleTTL time.Duration
}

// RateLimit applies a token bucket per client IP.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.PerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Burst < 1 {
		cfg.Burst = int(math.Ceil(cfg.PerSecond))
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 3 * time.Minute
	}

	type visitor struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}
	var (
		visitors  = cmap.New[*visitor](cmap.DefaultShardCount)
		lastSweep atomic.Int64
	)
	lastSweep.Store(time.Now().UnixNano())

	limiterFor := func(ip string, now time.Time) *rate.Limiter {
		if last := lastSweep.Load(); now.UnixNano()-last > int64(cfg.IdleTTL) &&
			lastSweep.CompareAndSwap(last, now.UnixNano()) {
			visitors.DeleteFunc(func(_ string, v *visitor) bool {
				return now.Sub(v.lastSeen) > cfg.IdleTTL
			})
		}

		v := visitors.Compute(ip, func(v *visitor, ok bool) *visitor {
			if !ok {
				v = &visitor{limiter: rate.NewLimiter(rate.Limit(cfg.PerSecond), cfg.Burst)}
			}
			v.lastSeen = now
			return v
		})
		return v.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPath(r.URL.Path, cfg.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			if !limiterFor(getClientIP(r), time.Now()).Allow() {
				w.Header().Set("Retry-After", "1")
				handler.WriteError(w, r, domain.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuthConfig configures Auth.
type AuthConfig struct {
	// TokenHash is the argon2id hash of the bearer token. Empty disables
	// authentication.
	TokenHash string

	// ProtectedReads are GET paths that still need the token because they
	// expose secrets.
	ProtectedReads []string
}

// Auth requires "Authorization: Bearer <token>" on mutating requests, on
// ProtectedReads and on any request asking for ?reveal=true.
func Auth(cfg AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg.TokenHash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requiresAuth(r, cfg.ProtectedReads) {
				next.ServeHTTP(w, r)
				return
			}

			bearer, ok := bearerToken(r)
			if !ok || !token.Verify(bearer, cfg.TokenHash) {
				logger.L(r.Context()).Warn("authentication failed",
					"path", r.URL.Path,
					"client_ip", getClientIP(r))
				w.Header().Set("WWW-Authenticate", `Bearer realm="aranea"`)
				handler.WriteError(w, r, domain.ErrUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requiresAuth(r *http.Request, protectedReads []string) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
	default:
		return true
	}
	if v, _ := strconv.ParseBool(r.URL.Query().Get("reveal")); v {
		return true
	}
	return skipPath(r.URL.Path, protectedReads)
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func skipPath(p string, paths []string) bool {
	for _, s := range paths {
		if p == s || strings.HasPrefix(p, strings.TrimSuffix(s, "/")+"/") {
			return true
		}
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func wrap(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// getClientIP extracts the client IP from the request. Forwarding headers
// are honoured only from a loopback peer, i.e. a local reverse proxy.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}
	return host
}
