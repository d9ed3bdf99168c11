package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Olprog59/go-noticegen/internal/config"
	"github.com/Olprog59/go-noticegen/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"
)

func TestGetIPWithTrustedProxies(t *testing.T) {
	tests := []struct {
		name           string
		remoteAddr     string
		xForwardedFor  string
		xRealIP        string
		trustedProxies []string
		expectedIP     string
	}{
		{
			name:       "direct connection",
			remoteAddr: "192.168.1.100:12345",
			expectedIP: "192.168.1.100",
		},
		{
			name:          "forwarded header ignored without trusted proxies",
			remoteAddr:    "10.0.0.1:8080",
			xForwardedFor: "203.0.113.45",
			expectedIP:    "10.0.0.1",
		},
		{
			name:           "forwarded header from trusted proxy",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  "203.0.113.45",
			trustedProxies: []string{"10.0.0.1"},
			expectedIP:     "203.0.113.45",
		},
		{
			name:           "first entry of a forwarded chain",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  " 203.0.113.45 , 198.51.100.20, 192.0.2.30",
			trustedProxies: []string{"10.0.0.1"},
			expectedIP:     "203.0.113.45",
		},
		{
			name:           "trusted proxy given as CIDR",
			remoteAddr:     "10.1.2.3:8080",
			xForwardedFor:  "203.0.113.45",
			trustedProxies: []string{"10.0.0.0/8"},
			expectedIP:     "203.0.113.45",
		},
		{
			name:           "X-Real-IP from trusted proxy",
			remoteAddr:     "10.0.0.1:8080",
			xRealIP:        "203.0.113.45",
			trustedProxies: []string{"10.0.0.1"},
			expectedIP:     "203.0.113.45",
		},
		{
			name:           "X-Forwarded-For wins over X-Real-IP",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  "203.0.113.45",
			xRealIP:        "198.51.100.20",
			trustedProxies: []string{"10.0.0.1"},
			expectedIP:     "203.0.113.45",
		},
		{
			name:           "untrusted source cannot spoof",
			remoteAddr:     "99.99.99.99:8080",
			xForwardedFor:  "203.0.113.45",
			trustedProxies: []string{"10.0.0.1", "10.0.0.0/24"},
			expectedIP:     "99.99.99.99",
		},
		{
			name:           "invalid forwarded IP falls back to X-Real-IP",
			remoteAddr:     "10.0.0.1:8080",
			xForwardedFor:  "not-an-ip",
			xRealIP:        "203.0.113.45",
			trustedProxies: []string{"10.0.0.1"},
			expectedIP:     "203.0.113.45",
		},
		{
			name:       "IPv6 address",
			remoteAddr: "[2001:db8::1]:12345",
			expectedIP: "2001:db8::1",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.1",
			expectedIP: "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			if got := getIPWithTrustedProxies(req, tt.trustedProxies); got != tt.expectedIP {
				t.Errorf("getIPWithTrustedProxies() = %s, want %s", got, tt.expectedIP)
			}
		})
	}
}

func TestHashIP(t *testing.T) {
	if hashIP("192.168.1.1") != hashIP("192.168.1.1") {
		t.Error("same IP should produce the same hash")
	}
	if hashIP("192.168.1.1") == hashIP("192.168.1.2") {
		t.Error("different IPs should produce different hashes")
	}
	if got := len(hashIP("203.0.113.45")); got != 64 {
		t.Errorf("hash length = %d, want 64 (hex SHA-256)", got)
	}
}

func TestRateLimiter_AllowAndBurst(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 0.001, 2)
	defer rl.Stop()

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("burst of 2 should be allowed")
	}
	if rl.Allow("a") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Error("other visitors have their own bucket")
	}
}

func TestRateLimiter_StopEndsCleanup(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rl := NewRateLimiter(context.Background(), 1, 1)
	rl.Allow("a")
	rl.Stop()
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	rl := NewRateLimiter(context.Background(), 1, 1)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.Allow("old")

	now = now.Add(visitorIdleTimeout + time.Second)
	rl.Allow("fresh")
	rl.evictIdle()

	if got := rl.visitorCount(); got != 1 {
		t.Errorf("visitorCount() = %d, want 1", got)
	}
}

func TestMiddleware_RateLimit(t *testing.T) {
	conf := &config.Config{
		RateLimiter: config.RateLimiterConfig{Enabled: true, RPS: 0.001, Burst: 1},
	}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	mw := NewMiddleware(conf, m, nil)
	defer mw.Stop()

	handler := mw.RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}

	var body RateLimitErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "rate_limit_exceeded" || body.Code != http.StatusTooManyRequests {
		t.Errorf("body = %+v", body)
	}
	if got := testutil.ToFloat64(m.RateLimitHits.WithLabelValues("global")); got != 1 {
		t.Errorf("rate limit hits = %v, want 1", got)
	}
}

func TestMiddleware_RateLimitDisabled(t *testing.T) {
	conf := &config.Config{RateLimiter: config.RateLimiterConfig{Enabled: false}}
	mw := NewMiddleware(conf, metrics.NewMetrics(prometheus.NewRegistry()), nil)

	handler := mw.RateLimitStrict(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
}
