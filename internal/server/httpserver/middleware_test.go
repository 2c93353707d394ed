package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/core/service"
	"github.com/yndnr/aranea-go/internal/storage"
	"github.com/yndnr/aranea-go/internal/telemetry/logger"
	"github.com/yndnr/aranea-go/internal/telemetry/metric"
	"github.com/yndnr/aranea-go/pkg/token"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body %q: %v", rec.Body.String(), err)
	}
	return body.Code
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	serve(Chain(okHandler, mw("a"), mw("b"), mw("c")), httptest.NewRequest(http.MethodGet, "/", nil))
	if strings.Join(order, ",") != "a,b,c" {
		t.Errorf("order = %v, want a,b,c", order)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		id := rec.Header().Get("X-Request-ID")
		if _, err := ulid.ParseStrict(id); err != nil {
			t.Errorf("X-Request-ID %q is not a ULID: %v", id, err)
		}
		if seen != id {
			t.Errorf("context id = %q, header id = %q", seen, id)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "client-42")
		rec := serve(h, req)
		if got := rec.Header().Get("X-Request-ID"); got != "client-42" {
			t.Errorf("X-Request-ID = %q", got)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("x", 65))
		rec := serve(h, req)
		if got := rec.Header().Get("X-Request-ID"); len(got) != 26 {
			t.Errorf("X-Request-ID = %q, want a fresh ULID", got)
		}
	})
}

func TestRecover(t *testing.T) {
	h := Recover(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if code := errorCode(t, rec); code != domain.ErrInternal.Code {
		t.Errorf("code = %q", code)
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{PerSecond: 1, Burst: 2, SkipPaths: []string{"/health"}})(okHandler)

	request := func(path, remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = remote
		return serve(h, req)
	}

	for i := range 2 {
		if rec := request("/api/settings", "10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}

	rec := request("/api/settings", "10.0.0.1:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After should be set")
	}
	if code := errorCode(t, rec); code != domain.ErrRateLimited.Code {
		t.Errorf("code = %q", code)
	}

	if rec := request("/api/settings", "10.0.0.2:1234"); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
	if rec := request("/health", "10.0.0.1:1234"); rec.Code != http.StatusOK {
		t.Errorf("skipped path status = %d, want 200", rec.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(RateLimitConfig{})(okHandler)
	for range 100 {
		if rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
}

func TestRateLimit_Concurrent(t *testing.T) {
	h := RateLimit(RateLimitConfig{PerSecond: 1000, Burst: 1000})(okHandler)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.1." + string(rune('0'+i%10)) + ":1"
			serve(h, req)
		}()
	}
	wg.Wait()
}

func TestAuth(t *testing.T) {
	tok, err := token.Generate()
	if err != nil {
		t.Fatal(err)
	}
	hash, err := token.Hash(tok)
	if err != nil {
		t.Fatal(err)
	}
	h := Auth(AuthConfig{TokenHash: hash, ProtectedReads: []string{"/api/settings/raw"}})(okHandler)

	tests := []struct {
		name   string
		method string
		target string
		auth   string
		want   int
	}{
		{"plain read", http.MethodGet, "/api/settings", "", http.StatusOK},
		{"reveal without token", http.MethodGet, "/api/settings?reveal=true", "", http.StatusUnauthorized},
		{"reveal with token", http.MethodGet, "/api/settings?reveal=true", "Bearer " + tok, http.StatusOK},
		{"protected read", http.MethodGet, "/api/settings/raw", "", http.StatusUnauthorized},
		{"write without token", http.MethodPatch, "/api/settings", "", http.StatusUnauthorized},
		{"write with wrong token", http.MethodPatch, "/api/settings", "Bearer art_wrong", http.StatusUnauthorized},
		{"write with basic auth", http.MethodPost, "/api/settings/save", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"write with token", http.MethodPost, "/api/settings/save", "Bearer " + tok, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := serve(h, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("WWW-Authenticate should be set")
			}
		})
	}
}

func TestAuth_Disabled(t *testing.T) {
	h := Auth(AuthConfig{})(okHandler)
	rec := serve(h, httptest.NewRequest(http.MethodDelete, "/api/settings/endpoints", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"remote addr", "192.168.1.5:4000", "", "192.168.1.5"},
		{"ipv6", "[::1]:4000", "", "::1"},
		{"xff from loopback", "127.0.0.1:4000", "203.0.113.9, 10.0.0.1", "203.0.113.9"},
		{"xff from remote ignored", "192.168.1.5:4000", "203.0.113.9", "192.168.1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func newRouterStore(t *testing.T, reg *metric.Registry) *service.ConfigStore {
	t.Helper()
	store := service.NewConfigStore(storage.NewMemoryBackend(),
		service.WithLogger(logger.NewNop()),
		service.WithMetrics(reg))
	if err := store.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestNewRouter(t *testing.T) {
	reg := metric.NewRegistry()
	hash, err := token.Hash("art_router")
	if err != nil {
		t.Fatal(err)
	}
	h := NewRouter(&RouterConfig{
		Store:         newRouterStore(t, reg),
		Logger:        logger.NewNop(),
		Metrics:       reg,
		RateLimit:     100,
		RateBurst:     100,
		AuthTokenHash: hash,
		StartTime:     time.Now(),
	})

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/settings = %d: %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be set")
	}

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/settings/reset", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated reset = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/settings/reset", nil)
	req.Header.Set("Authorization", "Bearer art_router")
	if rec := serve(h, req); rec.Code != http.StatusOK {
		t.Errorf("authenticated reset = %d: %s", rec.Code, rec.Body)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics = %d", rec.Code)
	}
	for _, want := range []string{
		`aranea_http_requests_total{method="POST",status="401"} 1`,
		`aranea_settings_saves_total{result="ok"}`,
		"aranea_settings_initialized 1",
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("/metrics missing %s", want)
		}
	}
}

func TestNewLocalRouter_SharesHandler(t *testing.T) {
	hash, err := token.Hash("art_router")
	if err != nil {
		t.Fatal(err)
	}
	cfg := &RouterConfig{
		Store:         newRouterStore(t, metric.NewRegistry()),
		Logger:        logger.NewNop(),
		AuthTokenHash: hash,
	}
	h := NewHandler(cfg)
	network := Wrap(h, cfg)
	local := NewLocalRouter(h, cfg.Logger)

	body := strings.NewReader(`{"locationName":"Lab"}`)
	if rec := serve(network, httptest.NewRequest(http.MethodPatch, "/api/settings", body)); rec.Code != http.StatusUnauthorized {
		t.Errorf("network PATCH without token = %d, want 401", rec.Code)
	}

	body = strings.NewReader(`{"locationName":"Lab"}`)
	rec := serve(local, httptest.NewRequest(http.MethodPatch, "/api/settings", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("local PATCH = %d: %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be set on local requests")
	}

	rec = serve(network, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	if !strings.Contains(rec.Body.String(), `"locationName":"Lab"`) {
		t.Errorf("network view missing local change: %s", rec.Body)
	}
}
