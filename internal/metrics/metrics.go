package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metric collectors / Contient tous les collecteurs de métriques Prometheus
type Metrics struct {
	// Notice metrics
	Renders            *prometheus.CounterVec // Render attempts by outcome (success/validation_failed/error)
	ValidationFailures *prometheus.CounterVec // Missing required fields by field name
	WizardTransitions  *prometheus.CounterVec // Wizard step changes by from/to step
	SessionsStarted    prometheus.Counter     // Editing sessions created
	SessionsPurged     prometheus.Counter     // Expired sessions removed by the purge task
	SessionsActive     prometheus.Gauge       // Sessions currently held by the store

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec   // Total HTTP requests by method, path, status
	HTTPRequestDuration *prometheus.HistogramVec // HTTP request latency in seconds
	ActiveConnections   prometheus.Gauge         // Current number of active HTTP connections

	// Security metrics
	RateLimitHits        *prometheus.CounterVec // Rate limit violations by endpoint
	CSRFFailures         prometheus.Counter     // CSRF validation failures
	InvalidSessionTokens prometheus.Counter     // Tampered or expired session cookies
	EditorAuthFailures   prometheus.Counter     // Rejected editor Basic auth attempts

	// System metrics
	DatabaseConnections prometheus.Gauge     // Current database connection pool size
	BackgroundTasks     *prometheus.GaugeVec // Status of background tasks (running/stopped)
}

// NewMetrics initializes Metrics instance / Initialise une instance Metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		// Notice metrics
		Renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notice_renders_total",
				Help: "Total number of notice render attempts by outcome (success, validation_failed, error)",
			},
			[]string{"outcome"},
		),

		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notice_validation_failures_total",
				Help: "Total number of missing required fields reported by validation, by field",
			},
			[]string{"field"},
		),

		WizardTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wizard_transitions_total",
				Help: "Total number of wizard step transitions",
			},
			[]string{"from", "to"},
		),

		SessionsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wizard_sessions_started_total",
				Help: "Total number of editing sessions started",
			},
		),

		SessionsPurged: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wizard_sessions_purged_total",
				Help: "Total number of expired editing sessions purged",
			},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wizard_sessions_active",
				Help: "Current number of editing sessions held by the store",
			},
		),

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status code",
			},
			[]string{"method", "path", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				// Buckets optimized for page and API response times: 10ms to 10s
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Current number of active HTTP connections",
			},
		),

		// Security metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "security_rate_limit_hits_total",
				Help: "Total number of rate limit violations by endpoint",
			},
			[]string{"endpoint"},
		),

		CSRFFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "security_csrf_failures_total",
				Help: "Total number of CSRF validation failures",
			},
		),

		InvalidSessionTokens: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "security_invalid_session_tokens_total",
				Help: "Total number of invalid or expired session cookies",
			},
		),

		EditorAuthFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "security_editor_auth_failures_total",
				Help: "Total number of rejected editor authentication attempts",
			},
		),

		// System metrics
		DatabaseConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "database_connections_active",
				Help: "Current number of active database connections",
			},
		),

		BackgroundTasks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "background_tasks_status",
				Help: "Status of background tasks (1=running, 0=stopped)",
			},
			[]string{"task_name"},
		),
	}

	return m
}

// RecordRender records a render attempt.
// Outcome can be: "success", "validation_failed" or "error"
func (m *Metrics) RecordRender(outcome string) {
	m.Renders.WithLabelValues(outcome).Inc()
}

// RecordValidationFailure counts each missing field once.
func (m *Metrics) RecordValidationFailure(fields []string) {
	for _, f := range fields {
		m.ValidationFailures.WithLabelValues(f).Inc()
	}
}

// RecordTransition records a wizard step change.
func (m *Metrics) RecordTransition(from, to string) {
	m.WizardTransitions.WithLabelValues(from, to).Inc()
}

// RecordSessionStarted increments the started sessions counter.
func (m *Metrics) RecordSessionStarted() {
	m.SessionsStarted.Inc()
}

// RecordSessionsPurged adds purged sessions to the counter.
func (m *Metrics) RecordSessionsPurged(n int64) {
	m.SessionsPurged.Add(float64(n))
}

// SetActiveSessions updates the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int64) {
	m.SessionsActive.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request with method, path, and status code.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCodeToString(statusCode)).Inc()
}

// RecordHTTPDuration records the duration of an HTTP request.
func (m *Metrics) RecordHTTPDuration(method, path string, duration time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncrementActiveConnections increments the active connections gauge.
func (m *Metrics) IncrementActiveConnections() {
	m.ActiveConnections.Inc()
}

// DecrementActiveConnections decrements the active connections gauge.
func (m *Metrics) DecrementActiveConnections() {
	m.ActiveConnections.Dec()
}

// RecordRateLimitHit records a rate limit violation for a specific endpoint.
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.RateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordCSRFFailure increments the CSRF failure counter.
func (m *Metrics) RecordCSRFFailure() {
	m.CSRFFailures.Inc()
}

// RecordInvalidSessionToken increments the invalid session cookie counter.
func (m *Metrics) RecordInvalidSessionToken() {
	m.InvalidSessionTokens.Inc()
}

// RecordEditorAuthFailure increments the editor auth failure counter.
func (m *Metrics) RecordEditorAuthFailure() {
	m.EditorAuthFailures.Inc()
}

// UpdateDatabaseConnections updates the database connections gauge.
func (m *Metrics) UpdateDatabaseConnections(count int) {
	m.DatabaseConnections.Set(float64(count))
}

// SetBackgroundTaskStatus sets the status of a background task.
// Status: 1 for running, 0 for stopped.
func (m *Metrics) SetBackgroundTaskStatus(taskName string, running bool) {
	status := 0.0
	if running {
		status = 1.0
	}
	m.BackgroundTasks.WithLabelValues(taskName).Set(status)
}

// statusCodeToString converts HTTP status code to a bounded label / Convertit le code HTTP en label borné
func statusCodeToString(code int) string {
	switch code {
	case 200, 204, 303, 400, 401, 403, 404, 405, 413, 422, 429, 500, 503, 504:
		return strconv.Itoa(code)
	}

	// Group others by range
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	}
	return "unknown"
}
