package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"breathe/internal/logging"
)

// HTTPDoer issues HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls recording and forwarding behavior.
type Config struct {
	// Endpoint receives batched events as a POSTed JSON array. Empty
	// disables forwarding; events then live only in the hub.
	Endpoint string
	// BufferSize caps the local inspection hub.
	BufferSize int
	// FlushInterval is how often pending events are forwarded even if
	// the batch is not full.
	FlushInterval time.Duration
	// FlushBatch forwards immediately once this many events are pending.
	FlushBatch int
}

// Recorder assigns a session identity at construction and timestamps
// every event relative to it. Log never blocks and never fails;
// forwarding errors are logged and the batch dropped.
type Recorder struct {
	sessionID string
	start     time.Time
	hub       *Hub
	logger    *slog.Logger

	endpoint   string
	client     HTTPDoer
	flushBatch int
	interval   time.Duration

	mu      sync.Mutex
	pending []Event
	kick    chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// RecorderOption adjusts optional recorder collaborators.
type RecorderOption func(*Recorder)

// WithHTTPDoer replaces the forwarding client.
func WithHTTPDoer(client HTTPDoer) RecorderOption {
	return func(r *Recorder) { r.client = client }
}

// NewRecorder builds a recorder with a fresh session ID.
func NewRecorder(cfg Config, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 10 * time.Second
	}
	if cfg.FlushBatch <= 0 {
		cfg.FlushBatch = 20
	}
	r := &Recorder{
		sessionID:  uuid.NewString(),
		start:      time.Now(),
		hub:        NewHub(cfg.BufferSize),
		logger:     logging.NewComponentLogger(logger, "telemetry"),
		endpoint:   cfg.Endpoint,
		client:     &http.Client{Timeout: 10 * time.Second},
		flushBatch: cfg.FlushBatch,
		interval:   cfg.FlushInterval,
		kick:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SessionID returns the identity stamped on every event.
func (r *Recorder) SessionID() string { return r.sessionID }

// Hub exposes the inspection buffer for streaming and status APIs.
func (r *Recorder) Hub() *Hub { return r.hub }

// Log records one named event. Fire-and-forget: the event is published
// to the hub, queued for forwarding when an endpoint is configured,
// and the call returns immediately.
func (r *Recorder) Log(event string, metadata map[string]any) {
	now := time.Now()
	evt := Event{
		SessionID:    r.sessionID,
		Name:         event,
		Timestamp:    now.UTC(),
		RelativeTime: now.Sub(r.start).Milliseconds(),
		Metadata:     metadata,
	}
	r.hub.Publish(evt)
	if r.endpoint == "" {
		return
	}

	r.mu.Lock()
	r.pending = append(r.pending, evt)
	full := len(r.pending) >= r.flushBatch
	r.mu.Unlock()

	if full {
		select {
		case r.kick <- struct{}{}:
		default:
		}
	}
}

// Recent returns the most recent n events, oldest first.
func (r *Recorder) Recent(n int) []Event {
	return r.hub.Tail(n)
}

// Start launches the background flusher. A recorder with no endpoint
// has nothing to flush and Start is a no-op.
func (r *Recorder) Start(ctx context.Context) {
	if r.endpoint == "" {
		return
	}
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx)
}

func (r *Recorder) run(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.flush(ctx)
		case <-r.kick:
			r.flush(ctx)
		case <-ctx.Done():
			return
		case <-r.done:
			return
		}
	}
}

// Close stops the flusher and forwards anything still pending, bounded
// by a short timeout so shutdown cannot hang on a dead collector.
func (r *Recorder) Close() {
	r.mu.Lock()
	started := r.started
	r.started = false
	r.mu.Unlock()
	if started {
		close(r.done)
		r.wg.Wait()
	}
	if r.endpoint == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	r.flush(ctx)
}

func (r *Recorder) flush(ctx context.Context) {
	r.mu.Lock()
	if len(r.pending) == 0 {
		r.mu.Unlock()
		return
	}
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()

	if err := r.post(ctx, batch); err != nil {
		r.logger.Warn("telemetry flush failed",
			logging.Error(err),
			logging.Int("events", len(batch)),
		)
	}
}

func (r *Recorder) post(ctx context.Context, batch []Event) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encoding batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting batch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}
	return nil
}
