// Package logging holds the slog handlers used by the notice builder:
// a batching Loki push handler and a fan-out handler that writes every
// record to several handlers.
package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

const flushInterval = 5 * time.Second

// LokiHandler is a slog.Handler that pushes logs to Loki over HTTP.
// Records are batched and flushed when the batch is full or every few seconds.
// Handlers derived with WithAttrs or WithGroup share the same batch.
type LokiHandler struct {
	core  *lokiCore
	scope []scopeEntry
}

// scopeEntry is either an open group or attributes bound inside the current group.
type scopeEntry struct {
	group string
	attrs []slog.Attr
}

type lokiCore struct {
	url        string
	labels     map[string]string
	client     *http.Client
	batch      []lokiEntry
	batchMu    sync.Mutex
	batchSize  int
	flushTimer *time.Timer
	enabled    bool
	level      slog.Level
	redact     func(groups []string, a slog.Attr) slog.Attr
}

type lokiEntry struct {
	timestamp time.Time
	line      string
}

type lokiPushRequest struct {
	Streams []lokiStream `json:"streams"`
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

// NewLokiHandler creates a new handler that sends logs to Loki.
// url: Loki endpoint (e.g., "http://localhost:3100")
// labels: Static labels to attach to all logs (e.g., {"app": "noticegen"})
// batchSize: Number of logs to batch before sending (0 = send immediately)
func NewLokiHandler(url string, labels map[string]string, batchSize int, enabled bool, level slog.Level) *LokiHandler {
	if labels == nil {
		labels = make(map[string]string)
	}

	c := &lokiCore{
		url:       url + "/loki/api/v1/push",
		labels:    labels,
		client:    &http.Client{Timeout: 5 * time.Second},
		batch:     make([]lokiEntry, 0, batchSize),
		batchSize: batchSize,
		enabled:   enabled,
		level:     level,
		redact:    Redact(),
	}

	if batchSize > 0 && enabled {
		c.flushTimer = time.AfterFunc(flushInterval, c.periodicFlush)
	}

	return &LokiHandler{core: c}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LokiHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.core.enabled && level >= h.core.level
}

// Handle encodes the record as one JSON line and queues it.
func (h *LokiHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.core.enabled {
		return nil
	}

	logData := map[string]any{
		"time":  r.Time.Format(time.RFC3339Nano),
		"level": r.Level.String(),
		"msg":   r.Message,
	}

	// Attributes bound with WithAttrs belong to the groups open at that time;
	// record attributes go into the innermost group.
	target := logData
	for _, e := range h.scope {
		if e.group != "" {
			next := map[string]any{}
			target[e.group] = next
			target = next
			continue
		}
		for _, a := range e.attrs {
			addAttr(target, h.core.redact(nil, a))
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(target, h.core.redact(nil, a))
		return true
	})

	logJSON, err := json.Marshal(logData)
	if err != nil {
		return fmt.Errorf("failed to marshal log to JSON: %w", err)
	}

	return h.core.add(lokiEntry{timestamp: r.Time, line: string(logJSON)})
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *LokiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(scopeEntry{attrs: append([]slog.Attr(nil), attrs...)})
}

// WithGroup returns a handler that nests later attributes under name.
func (h *LokiHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(scopeEntry{group: name})
}

// Close flushes any remaining logs and stops the periodic flush timer
func (h *LokiHandler) Close() error {
	if h.core.flushTimer != nil {
		h.core.flushTimer.Stop()
	}
	return h.core.flush()
}

func (h *LokiHandler) with(e scopeEntry) *LokiHandler {
	scope := make([]scopeEntry, len(h.scope), len(h.scope)+1)
	copy(scope, h.scope)
	return &LokiHandler{core: h.core, scope: append(scope, e)}
}

func addAttr(m map[string]any, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		if len(attrs) == 0 {
			return
		}
		target := m
		if a.Key != "" {
			sub := map[string]any{}
			m[a.Key] = sub
			target = sub
		}
		for _, ga := range attrs {
			addAttr(target, ga)
		}
		return
	}
	if err, ok := a.Value.Any().(error); ok {
		m[a.Key] = err.Error()
		return
	}
	m[a.Key] = a.Value.Any()
}

func (c *lokiCore) add(entry lokiEntry) error {
	c.batchMu.Lock()
	c.batch = append(c.batch, entry)
	shouldFlush := c.batchSize == 0 || len(c.batch) >= c.batchSize
	c.batchMu.Unlock()

	if shouldFlush {
		return c.flush()
	}
	return nil
}

// flush sends all batched logs to Loki
func (c *lokiCore) flush() error {
	c.batchMu.Lock()
	if len(c.batch) == 0 {
		c.batchMu.Unlock()
		return nil
	}

	entries := make([]lokiEntry, len(c.batch))
	copy(entries, c.batch)
	c.batch = c.batch[:0]
	c.batchMu.Unlock()

	// Loki expects [timestamp_in_nanoseconds, log_line]
	values := make([][]string, len(entries))
	for i, entry := range entries {
		values[i] = []string{strconv.FormatInt(entry.timestamp.UnixNano(), 10), entry.line}
	}

	return c.send(lokiPushRequest{
		Streams: []lokiStream{{Stream: c.labels, Values: values}},
	})
}

// send posts the push request; Loki being down never fails the caller.
func (c *lokiCore) send(req lokiPushRequest) error {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loki push failed: %v\n", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "loki push rejected: status %d\n", resp.StatusCode)
	}
	return nil
}

func (c *lokiCore) periodicFlush() {
	_ = c.flush()
	if c.flushTimer != nil {
		c.flushTimer.Reset(flushInterval)
	}
}
