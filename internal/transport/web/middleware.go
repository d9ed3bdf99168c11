package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Olprog59/go-noticegen/internal/config"
	"github.com/Olprog59/go-noticegen/internal/metrics"
	"github.com/Olprog59/go-noticegen/internal/service"
	"github.com/google/uuid"
	"github.com/rs/cors"
)

const (
	RequestIDHeader = "X-Request-ID"
	CSRFHeader      = "X-CSRF-Token"
	csrfFormField   = "csrf_token"
)

// RequestID generates unique request ID / Génère un ID unique pour la requête
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		// Add request ID to logger context for tracing
		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		ctx = context.WithValue(ctx, loggerContextKey, slog.With("request_id", requestID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logging logs HTTP requests / Enregistre les requêtes HTTP
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		LoggerFrom(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"remote", r.RemoteAddr,
			"duration", time.Since(start),
		)
	})
}

// MetricsMiddleware tracks HTTP request metrics / Suit les métriques des requêtes HTTP
func (m *Middleware) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		m.metrics.IncrementActiveConnections()
		defer m.metrics.DecrementActiveConnections()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		// Pattern keeps label cardinality bounded / Le motif limite la cardinalité
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.metrics.RecordHTTPRequest(r.Method, path, rw.statusCode)
		m.metrics.RecordHTTPDuration(r.Method, path, time.Since(start))
	})
}

// Timeout adds request timeout / Ajoute un timeout aux requêtes
func Timeout(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, duration, `{"error":"request timeout"}`)
	}
}

// MaxBody limits request bodies / Limite la taille des corps de requête
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Middleware holds middleware configuration and dependencies / Contient la configuration middleware
type Middleware struct {
	conf          *config.Config
	globalLimiter *RateLimiter
	strictLimiter *RateLimiter
	metrics       *metrics.Metrics
	editorAuth    *service.EditorAuth
	cors          *cors.Cors
}

// responseWriter wraps ResponseWriter to capture status / Encapsule ResponseWriter pour capturer le statut
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

// WriteHeader captures status code / Capture le code de statut
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// NewMiddleware creates middleware with rate limiters / Crée le middleware avec limiteurs
//
// editorAuth may be nil, which leaves the editor gate open.
func NewMiddleware(conf *config.Config, metrics *metrics.Metrics, editorAuth *service.EditorAuth) *Middleware {
	mw := &Middleware{
		conf:       conf,
		metrics:    metrics,
		editorAuth: editorAuth,
		cors: cors.New(cors.Options{
			AllowedOrigins:   conf.Cors.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   []string{"Content-Type", RequestIDHeader},
			ExposedHeaders:   []string{RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           conf.Cors.MaxAge,
		}),
	}

	if conf.RateLimiter.Enabled {
		ctx := context.Background()

		mw.globalLimiter = NewRateLimiter(
			ctx,
			conf.RateLimiter.RPS,
			conf.RateLimiter.Burst,
		)

		strictRPS := conf.RateLimiter.RPS / 2
		strictBurst := conf.RateLimiter.Burst
		if strictBurst > 2 {
			strictBurst = strictBurst / 2
		}
		mw.strictLimiter = NewRateLimiter(ctx, strictRPS, strictBurst)
	}

	return mw
}

// Stop stops the rate limiter cleanup goroutines / Arrête les goroutines de nettoyage
func (m *Middleware) Stop() {
	if m.globalLimiter != nil {
		m.globalLimiter.Stop()
	}
	if m.strictLimiter != nil {
		m.strictLimiter.Stop()
	}
}

// Cors handles CORS for the JSON API / Gère CORS pour l'API JSON
func (m *Middleware) Cors(next http.Handler) http.Handler {
	return m.cors.Handler(next)
}

// SecurityHeaders adds security headers / Ajoute les en-têtes de sécurité
func (m *Middleware) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Rendered bodies carry the editor's own inline styles
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; frame-ancestors 'none'; object-src 'none'; "+
				"script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")

		// Strict Transport Security - Enforce HTTPS (only in production)
		if m.conf.IsProduction() {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// EditorAuth requires the editor Basic auth credentials when enabled / Exige les identifiants éditeur
func (m *Middleware) EditorAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.editorAuth == nil {
			next.ServeHTTP(w, r)
			return
		}

		user, password, ok := r.BasicAuth()
		if !ok {
			m.requestCredentials(w)
			return
		}

		if err := m.editorAuth.Verify(user, password); err != nil {
			m.metrics.RecordEditorAuthFailure()
			LoggerFrom(r.Context()).Warn("editor authentication failed",
				"remote", r.RemoteAddr,
				"err", err,
			)
			m.requestCredentials(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) requestCredentials(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="noticegen", charset="UTF-8"`)
	ErrorResponse(w, "unauthorized", http.StatusUnauthorized)
}

// CSRF protects form posts with a double-submit cookie / Protège les formulaires contre le CSRF
//
// Safe methods get a token cookie when none exists. Unsafe methods must echo
// the cookie value in the csrf_token field or the X-CSRF-Token header.
func (m *Middleware) CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cookieToken string
		if cookie, err := r.Cookie(m.conf.Security.CSRFCookieName); err == nil {
			cookieToken = cookie.Value
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			if cookieToken == "" {
				token, err := generateCSRFToken()
				if err != nil {
					LoggerFrom(r.Context()).Error("failed to generate CSRF token", "err", err)
					ErrorResponse(w, "internal server error", http.StatusInternalServerError)
					return
				}
				cookieToken = token
				http.SetCookie(w, m.csrfCookie(token))
			}
		default:
			submitted := r.Header.Get(CSRFHeader)
			if submitted == "" {
				if err := r.ParseForm(); err != nil {
					var maxErr *http.MaxBytesError
					if errors.As(err, &maxErr) {
						ErrorResponse(w, "request body too large", http.StatusRequestEntityTooLarge)
						return
					}
					ErrorResponse(w, "malformed form", http.StatusBadRequest)
					return
				}
				submitted = r.PostForm.Get(csrfFormField)
			}
			if !csrfTokensMatch(cookieToken, submitted) {
				m.metrics.RecordCSRFFailure()
				LoggerFrom(r.Context()).Warn("CSRF token mismatch",
					"cookie_len", len(cookieToken),
					"submitted_len", len(submitted),
				)
				ErrorResponse(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		ctx := context.WithValue(r.Context(), csrfTokenContextKey, cookieToken)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) csrfCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     m.conf.Security.CSRFCookieName,
		Value:    token,
		Path:     cookiePath(m.conf),
		Domain:   m.conf.Session.CookieDomain,
		Secure:   m.conf.Session.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

func cookiePath(conf *config.Config) string {
	if p := strings.TrimSpace(conf.Session.CookiePath); p != "" {
		return p
	}
	return "/"
}
