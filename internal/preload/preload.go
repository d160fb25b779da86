// Package preload fetches image assets ahead of display and caches the
// per-path load outcome for the lifetime of one carousel engine.
package preload

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"breathe/internal/logging"
)

// DefaultTimeout bounds any single load wait; past it the caller
// proceeds regardless of load state.
const DefaultTimeout = 5 * time.Second

// Fetcher retrieves one image resource. Implementations report an error
// on failure; the preloader records the outcome and never retries.
type Fetcher interface {
	Fetch(ctx context.Context, path string, highPriority bool) error
}

// FileFetcher resolves image paths against a site root directory.
type FileFetcher struct {
	Root string
}

// Fetch implements Fetcher by reading the file to warm the page cache.
func (f FileFetcher) Fetch(_ context.Context, path string, _ bool) error {
	full := filepath.Join(f.Root, filepath.FromSlash(path))
	if _, err := os.ReadFile(full); err != nil {
		return fmt.Errorf("load image %s: %w", path, err)
	}
	return nil
}

// HTTPFetcher loads image paths relative to a base URL.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// Fetch implements Fetcher with a GET request; any non-2xx status is a
// load failure.
func (f HTTPFetcher) Fetch(ctx context.Context, path string, _ bool) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	url := strings.TrimRight(f.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("load image %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("load image %s: status %d", path, resp.StatusCode)
	}
	return nil
}

// Preloader tracks in-flight and completed loads for one engine's
// image set. A failed load is recorded once and never re-attempted.
type Preloader struct {
	fetcher Fetcher
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	cache   map[string]bool
	pending map[string]chan struct{}
}

// New constructs a preloader over the given fetcher.
func New(fetcher Fetcher, logger *slog.Logger, timeout time.Duration) *Preloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Preloader{
		fetcher: fetcher,
		logger:  logging.NewComponentLogger(logger, "preload"),
		timeout: timeout,
		cache:   make(map[string]bool),
		pending: make(map[string]chan struct{}),
	}
}

// Preload starts loading the path if it is not already cached or in
// flight. It returns immediately; failures are logged and cached, never
// surfaced to the caller.
func (p *Preloader) Preload(ctx context.Context, path string, highPriority bool) {
	if p == nil || path == "" {
		return
	}
	p.mu.Lock()
	if _, done := p.cache[path]; done {
		p.mu.Unlock()
		return
	}
	if _, inflight := p.pending[path]; inflight {
		p.mu.Unlock()
		return
	}
	done := make(chan struct{})
	p.pending[path] = done
	p.mu.Unlock()

	go p.fetch(ctx, path, highPriority, done)
}

func (p *Preloader) fetch(ctx context.Context, path string, highPriority bool, done chan struct{}) {
	start := time.Now()
	err := p.fetcher.Fetch(ctx, path, highPriority)

	p.mu.Lock()
	p.cache[path] = err == nil
	delete(p.pending, path)
	p.mu.Unlock()
	close(done)

	if err != nil {
		p.logger.Warn("image preload failed; will display as-is",
			logging.String(logging.FieldImagePath, path),
			logging.Error(err),
		)
		return
	}
	p.logger.Debug("image preloaded",
		logging.String(logging.FieldImagePath, path),
		logging.Duration("elapsed", time.Since(start)),
		logging.Bool("high_priority", highPriority),
	)
}

// WaitForLoad blocks until the path has finished loading (success or
// failure) or the timeout elapses, whichever comes first. It never
// returns an error: display always proceeds.
func (p *Preloader) WaitForLoad(ctx context.Context, path string, timeout time.Duration) {
	if p == nil || path == "" {
		return
	}
	if timeout <= 0 {
		timeout = p.timeout
	}

	p.mu.Lock()
	if _, done := p.cache[path]; done {
		p.mu.Unlock()
		return
	}
	ch, inflight := p.pending[path]
	p.mu.Unlock()

	if !inflight {
		p.Preload(ctx, path, true)
		p.mu.Lock()
		if _, done := p.cache[path]; done {
			p.mu.Unlock()
			return
		}
		ch = p.pending[path]
		p.mu.Unlock()
		if ch == nil {
			return
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		p.logger.Warn("image load timed out; proceeding without it",
			logging.String(logging.FieldImagePath, path),
			logging.Duration("timeout", timeout),
		)
	case <-ctx.Done():
	}
}

// Loaded reports whether the path has completed and whether it succeeded.
func (p *Preloader) Loaded(path string) (completed, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	success, completed = p.cache[path]
	return completed, success
}

// Clear drops the cache. Called when the owning engine is destroyed.
func (p *Preloader) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = make(map[string]bool)
}
