package collector

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"breathe/internal/logging"
)

func postJSON(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/log", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestAcceptsSingleEvent(t *testing.T) {
	dir := t.TempDir()
	h := New(dir, logging.NewNop())
	day := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return day }

	rec := postJSON(t, h, `{"sessionId":"s1","event":"e1","relativeTime":120}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp["status"] != "ok" || resp["received"] != float64(1) {
		t.Fatalf("response = %v", resp)
	}

	data, err := os.ReadFile(filepath.Join(dir, "perf_2026-03-14.jsonl"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line not JSON: %v", err)
	}
	if entry["sessionId"] != "s1" || entry["event"] != "e1" {
		t.Fatalf("entry = %v", entry)
	}
	if entry["receivedAt"] == nil || entry["clientIp"] == nil {
		t.Fatalf("entry not enriched: %v", entry)
	}
}

func TestAcceptsEventArrayAndAppends(t *testing.T) {
	dir := t.TempDir()
	h := New(dir, logging.NewNop())
	day := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return day }

	rec := postJSON(t, h, `[{"sessionId":"s1","event":"a"},{"sessionId":"s1","event":"b"}]`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp["received"] != float64(2) {
		t.Fatalf("received = %v", resp["received"])
	}

	// A second post appends to the same day file.
	postJSON(t, h, `{"sessionId":"s2","event":"c"}`)

	f, err := os.Open(filepath.Join(dir, "perf_2026-03-14.jsonl"))
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()
	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines++
	}
	if lines != 3 {
		t.Fatalf("log lines = %d, want 3", lines)
	}
}

func TestRejectsMalformedRequests(t *testing.T) {
	h := New(t.TempDir(), logging.NewNop())
	cases := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"missing event", `{"sessionId":"s1"}`},
		{"missing session", `{"event":"e1"}`},
		{"blank session", `{"sessionId":"  ","event":"e1"}`},
		{"not json", `not json`},
		{"scalar body", `42`},
		{"empty array", `[]`},
		{"array with bad element", `[{"sessionId":"s1","event":"e1"}, 7]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := postJSON(t, h, tc.body); rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestMethodHandling(t *testing.T) {
	h := New(t.TempDir(), logging.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/log", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/log", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("OPTIONS status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header on preflight")
	}
}

func TestWriteFailureReturns500(t *testing.T) {
	dir := t.TempDir()
	// A file where the log directory should be forces the append to fail.
	blocked := filepath.Join(dir, "logs")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	h := New(blocked, logging.NewNop())
	if rec := postJSON(t, h, `{"sessionId":"s1","event":"e1"}`); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

type captureSink struct {
	entries []Entry
}

func (c *captureSink) Record(entry Entry) { c.entries = append(c.entries, entry) }

func TestSinkReceivesAcceptedEntries(t *testing.T) {
	sink := &captureSink{}
	h := New(t.TempDir(), logging.NewNop(), sink)
	postJSON(t, h, `[{"sessionId":"s1","event":"a"},{"sessionId":"s1","event":"b"}]`)
	if len(sink.entries) != 2 {
		t.Fatalf("sink entries = %d, want 2", len(sink.entries))
	}
}
