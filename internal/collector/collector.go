// Package collector implements the append-only telemetry ingest
// endpoint. Accepted events are written one JSON line each to a
// date-partitioned log file, enriched server-side with a receive
// timestamp and the client address.
package collector

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"breathe/internal/logging"
)

// Entry is one accepted telemetry event as persisted to the log file.
// Fields beyond the two required ones pass through untouched.
type Entry map[string]any

// Sink receives every accepted entry in addition to the file append.
type Sink interface {
	Record(entry Entry)
}

// Handler serves the collector endpoint.
type Handler struct {
	dir    string
	logger *slog.Logger
	sinks  []Sink

	mu sync.Mutex
	// now is swapped in tests to pin the log-file date.
	now func() time.Time
}

// New builds a collector writing under dir.
func New(dir string, logger *slog.Logger, sinks ...Sink) *Handler {
	return &Handler{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "collector"),
		sinks:  sinks,
		now:    time.Now,
	}
}

// LogFileName returns the partition file name for a given day.
func LogFileName(t time.Time) string {
	return "perf_" + t.Format("2006-01-02") + ".jsonl"
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeCORS(w)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	entries, err := decodeEntries(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	received := h.now().UTC()
	client := clientAddr(r)
	for _, entry := range entries {
		entry["receivedAt"] = received.Format(time.RFC3339Nano)
		entry["clientIp"] = client
	}

	if err := h.append(received, entries); err != nil {
		h.logger.Error("append failed", logging.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "write failed"})
		return
	}

	for _, sink := range h.sinks {
		for _, entry := range entries {
			sink.Record(entry)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "received": len(entries)})
}

// decodeEntries accepts either a single event object or an array of
// them. Every event must carry a non-empty sessionId and event name.
func decodeEntries(r *http.Request) ([]Entry, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid JSON body")
	}

	var objects []any
	switch v := raw.(type) {
	case []any:
		objects = v
	case map[string]any:
		objects = []any{v}
	default:
		return nil, fmt.Errorf("body must be a JSON object or array")
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("empty event batch")
	}

	entries := make([]Entry, 0, len(objects))
	for _, obj := range objects {
		m, ok := obj.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("each event must be a JSON object")
		}
		if stringField(m, "sessionId") == "" {
			return nil, fmt.Errorf("missing required field: sessionId")
		}
		if stringField(m, "event") == "" {
			return nil, fmt.Errorf("missing required field: event")
		}
		entries = append(entries, Entry(m))
	}
	return entries, nil
}

func (h *Handler) append(received time.Time, entries []Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return fmt.Errorf("ensure log dir: %w", err)
	}
	path := filepath.Join(h.dir, LogFileName(received))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
