package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	visitorIdleTimeout     = 3 * time.Minute
	visitorCleanupInterval = 5 * time.Minute
	rateLimitRetryAfter    = 60
)

// RateLimiter keeps one token bucket per visitor / Garde un seau de jetons par visiteur
//
// Visitors are keyed by a hash of their IP address and dropped once idle.
type RateLimiter struct {
	visitors map[string]*Visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	now      func() time.Time
	cancel   context.CancelFunc
}

// Visitor represents a single client and its limiter.
type Visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine / Crée un limiteur et démarre son nettoyage
//
// The goroutine stops when ctx is cancelled or Stop is called.
func NewRateLimiter(ctx context.Context, rps float64, burst int) *RateLimiter {
	cleanupCtx, cancel := context.WithCancel(ctx)

	rl := &RateLimiter{
		visitors: make(map[string]*Visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		cancel:   cancel,
	}

	go rl.cleanupVisitors(cleanupCtx)

	return rl
}

// Stop stops the cleanup goroutine / Arrête la goroutine de nettoyage
func (rl *RateLimiter) Stop() {
	rl.cancel()
}

// Allow reports whether key may make one more request now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getVisitor(key).Allow()
}

// getVisitor retrieves or creates the limiter of key.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		v = &Visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// visitorCount returns the number of tracked visitors.
func (rl *RateLimiter) visitorCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func (rl *RateLimiter) cleanupVisitors(ctx context.Context) {
	ticker := time.NewTicker(visitorCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-ctx.Done():
			return
		}
	}
}

// evictIdle drops visitors not seen within visitorIdleTimeout.
func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTimeout {
			delete(rl.visitors, key)
		}
	}
}

// getIPWithTrustedProxies extracts the client IP / Extrait l'IP du client
//
// Proxy headers are only honoured when RemoteAddr is one of trustedProxies,
// given as single addresses or CIDR ranges. X-Forwarded-For reads
// "client, proxy1, proxy2": the first entry is the client.
func getIPWithTrustedProxies(r *http.Request, trustedProxies []string) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without port
		remoteIP = r.RemoteAddr
	}

	if !isTrustedProxy(remoteIP, trustedProxies) {
		return remoteIP
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		clientIP, _, _ := strings.Cut(forwarded, ",")
		clientIP = strings.TrimSpace(clientIP)
		if _, err := netip.ParseAddr(clientIP); err == nil {
			return clientIP
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if _, err := netip.ParseAddr(realIP); err == nil {
			return realIP
		}
	}

	return remoteIP
}

func isTrustedProxy(remoteIP string, trustedProxies []string) bool {
	if len(trustedProxies) == 0 {
		return false
	}

	addr, err := netip.ParseAddr(remoteIP)
	if err != nil {
		return false
	}

	for _, trusted := range trustedProxies {
		if strings.Contains(trusted, "/") {
			if prefix, err := netip.ParsePrefix(trusted); err == nil && prefix.Contains(addr) {
				return true
			}
			continue
		}
		if t, err := netip.ParseAddr(trusted); err == nil && t == addr {
			return true
		}
	}
	return false
}

// hashIP hashes an IP so raw addresses are never kept in memory.
func hashIP(ip string) string {
	h := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(h[:])
}

// RateLimit applies the global per-IP limit / Applique la limite globale par IP
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return m.limitWith(func() *RateLimiter { return m.globalLimiter }, "global", next)
}

// RateLimitStrict applies the tighter limit of the render API / Applique la limite stricte de l'API
func (m *Middleware) RateLimitStrict(next http.Handler) http.Handler {
	return m.limitWith(func() *RateLimiter { return m.strictLimiter }, "strict", next)
}

func (m *Middleware) limitWith(limiter func() *RateLimiter, scope string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rl := limiter()
		if !m.conf.RateLimiter.Enabled || rl == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip := getIPWithTrustedProxies(r, m.conf.Security.TrustedProxies)
		if !rl.Allow(hashIP(ip)) {
			m.metrics.RecordRateLimitHit(scope)
			sendRateLimitErrorAdvanced(w, "Too many requests. Please try again later.", rateLimitRetryAfter)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimitErrorResponse is the 429 body / Corps de la réponse 429
type RateLimitErrorResponse struct {
	Error      string    `json:"error"`               // Machine-readable error code
	Message    string    `json:"message"`             // Human-readable message
	Code       int       `json:"code"`                // HTTP status code
	RetryAfter int       `json:"retry_after_seconds"` // Suggested wait before retrying
	Timestamp  time.Time `json:"timestamp"`
}

// sendRateLimitErrorAdvanced writes a 429 with Retry-After and a JSON body.
func sendRateLimitErrorAdvanced(w http.ResponseWriter, message string, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Retry-After", strconv.Itoa(retryAfter))

	jsonStatus(w, http.StatusTooManyRequests, RateLimitErrorResponse{
		Error:      "rate_limit_exceeded",
		Message:    message,
		Code:       http.StatusTooManyRequests,
		RetryAfter: retryAfter,
		Timestamp:  time.Now().UTC(),
	})
}
