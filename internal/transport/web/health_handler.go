package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HealthResponse represents the response structure for health check endpoints.
type HealthResponse struct {
	Status    string            `json:"status"`           // "ok" or "error"
	Timestamp time.Time         `json:"timestamp"`        // Current server time
	Checks    map[string]string `json:"checks,omitempty"` // Individual component health
	Uptime    string            `json:"uptime,omitempty"` // Server uptime
}

var startTime = time.Now()

// HealthCheck handles the /health endpoint.
// It always answers 200 while the process runs and checks no dependency.
// Use /readiness for the session store.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    formatUptime(time.Since(startTime)),
	})
}

// ReadinessCheck handles the /readiness endpoint.
// Returns 200 when the session store answers, 503 otherwise.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"session_store": h.checkStore(r.Context()),
	}

	status := "ok"
	httpStatus := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = "error"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	jsonStatus(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}

// checkStore pings the session store with a short deadline.
func (h *Handler) checkStore(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.container.Store.Ping(ctx); err != nil {
		LoggerFrom(ctx).Warn("readiness check failed", "check", "session_store", "err", err)
		return "error"
	}
	return "ok"
}

// formatUptime converts a duration into a human-readable uptime string.
// Examples: "2h 15m 30s", "1d 5h 23m", "45s".
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return joinUnits(days, "d", hours, "h", minutes, "m")
	case hours > 0:
		return joinUnits(hours, "h", minutes, "m", seconds, "s")
	case minutes > 0:
		return joinUnits(minutes, "m", seconds, "s")
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// joinUnits formats value/unit pairs, skipping zero values.
func joinUnits(pairs ...any) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if v := pairs[i].(int); v > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", v, pairs[i+1]))
		}
	}
	return strings.Join(parts, " ")
}
