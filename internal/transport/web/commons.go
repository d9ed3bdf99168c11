package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Olprog59/go-noticegen/internal/app"
)

// Handler is a container for application dependencies that are required by HTTP handlers.
// By embedding the application's dependency injection container, it provides handlers
// with access to services, the session store and configuration.
type Handler struct {
	container *app.Container
}

// NewHandler creates and returns a new Handler instance.
func NewHandler(container *app.Container) *Handler {
	return &Handler{container: container}
}

// ErrorResponse is a helper function for sending standardized JSON error responses.
// It sets the "Content-Type" header to "application/json", writes the specified HTTP status code,
// and sends a JSON body with an "error" key containing the provided message.
func ErrorResponse(w http.ResponseWriter, message string, code int) {
	jsonStatus(w, code, map[string]any{
		"error": message,
	})
}

// jsonResponse sends data as a 200 JSON response.
func jsonResponse(w http.ResponseWriter, data any) {
	jsonStatus(w, http.StatusOK, data)
}

// jsonStatus sends data as JSON with the given status code.
func jsonStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to encode JSON response", "err", err)
	}
}
