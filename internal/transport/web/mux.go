package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMux creates and configures the HTTP router / Crée et configure le routeur HTTP
func NewMux(h *Handler, mw *Middleware) http.Handler {
	conf := h.container.Config
	mux := http.NewServeMux()

	// Health check endpoints (no auth, no rate limiting for load balancers)
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /readiness", h.ReadinessCheck)

	// Behind the editor gate when it is enabled
	mux.Handle("GET /metrics", chain(metricsHandler(h.container.Registry), mw.EditorAuth))

	// Wizard pages / Pages de l'assistant
	mux.Handle("GET /{$}", chain(http.HandlerFunc(h.Home), mw.EditorAuth, mw.CSRF))
	mux.Handle("POST /details", chain(http.HandlerFunc(h.SubmitDetails), mw.EditorAuth, mw.CSRF))
	mux.Handle("POST /content", chain(http.HandlerFunc(h.SubmitContent), mw.EditorAuth, mw.CSRF))
	mux.Handle("POST /back", chain(http.HandlerFunc(h.Back), mw.EditorAuth, mw.CSRF))
	mux.Handle("POST /reset", chain(http.HandlerFunc(h.Reset), mw.EditorAuth, mw.CSRF))

	// JSON API: CORS answers preflight requests before routing
	api := http.NewServeMux()
	api.Handle("POST /api/render", chain(http.HandlerFunc(h.RenderNotice), mw.EditorAuth, mw.RateLimitStrict))
	api.Handle("GET /api/links", chain(http.HandlerFunc(h.Links), mw.EditorAuth))
	mux.Handle("/api/", mw.Cors(api))

	// Global middlewares - applied in reverse order / Middlewares globaux appliqués en ordre inverse
	var handler http.Handler = mux
	handler = mw.MetricsMiddleware(handler) // Innermost: reads the matched route pattern
	handler = mw.RateLimit(handler)
	handler = mw.SecurityHeaders(handler)
	handler = MaxBody(conf.Server.MaxBodyBytes)(handler)
	if conf.Server.RequestTimeout > 0 {
		handler = Timeout(conf.Server.RequestTimeout)(handler)
	}
	handler = Logging(handler)   // Logging includes request ID
	handler = RequestID(handler) // RequestID first - generates ID for all middleware

	return handler
}

// chain applies middleware to HTTP handler / Applique les middlewares au gestionnaire HTTP
func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func metricsHandler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
