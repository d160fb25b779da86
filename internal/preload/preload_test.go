package preload_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"breathe/internal/logging"
	"breathe/internal/preload"
)

type stubFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	errs    map[string]error
	block   map[string]chan struct{}
	highPri atomic.Bool
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		calls: make(map[string]int),
		errs:  make(map[string]error),
		block: make(map[string]chan struct{}),
	}
}

func (f *stubFetcher) Fetch(ctx context.Context, path string, highPriority bool) error {
	f.mu.Lock()
	f.calls[path]++
	gate := f.block[path]
	err := f.errs[path]
	f.mu.Unlock()
	if highPriority {
		f.highPri.Store(true)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *stubFetcher) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func waitLoaded(t *testing.T, p *preload.Preloader, path string) bool {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if completed, success := p.Loaded(path); completed {
			return success
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", path)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPreloadCachesSuccess(t *testing.T) {
	fetcher := newStubFetcher()
	p := preload.New(fetcher, logging.NewNop(), time.Second)

	p.Preload(context.Background(), "images/a_v1.png", false)
	if !waitLoaded(t, p, "images/a_v1.png") {
		t.Fatal("expected success")
	}

	// Idempotent: a cached path is not re-requested.
	p.Preload(context.Background(), "images/a_v1.png", false)
	p.WaitForLoad(context.Background(), "images/a_v1.png", time.Second)
	if got := fetcher.callCount("images/a_v1.png"); got != 1 {
		t.Fatalf("expected 1 fetch, got %d", got)
	}
}

func TestPreloadRecordsFailureWithoutRetry(t *testing.T) {
	fetcher := newStubFetcher()
	fetcher.errs["images/broken.png"] = errors.New("boom")
	p := preload.New(fetcher, logging.NewNop(), time.Second)

	p.Preload(context.Background(), "images/broken.png", false)
	if waitLoaded(t, p, "images/broken.png") {
		t.Fatal("expected failure to be recorded")
	}

	p.Preload(context.Background(), "images/broken.png", false)
	p.WaitForLoad(context.Background(), "images/broken.png", time.Second)
	if got := fetcher.callCount("images/broken.png"); got != 1 {
		t.Fatalf("failed loads must not be retried; got %d fetches", got)
	}
}

func TestWaitForLoadStartsLoad(t *testing.T) {
	fetcher := newStubFetcher()
	p := preload.New(fetcher, logging.NewNop(), time.Second)

	p.WaitForLoad(context.Background(), "images/b_v1.png", time.Second)
	completed, success := p.Loaded("images/b_v1.png")
	if !completed || !success {
		t.Fatalf("expected completed success, got completed=%v success=%v", completed, success)
	}
	if !fetcher.highPri.Load() {
		t.Fatal("awaited load should be requested high priority")
	}
}

func TestWaitForLoadTimesOut(t *testing.T) {
	fetcher := newStubFetcher()
	gate := make(chan struct{})
	fetcher.block["images/slow.png"] = gate
	p := preload.New(fetcher, logging.NewNop(), time.Second)

	start := time.Now()
	p.Preload(context.Background(), "images/slow.png", false)
	p.WaitForLoad(context.Background(), "images/slow.png", 30*time.Millisecond)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("wait did not respect timeout: %v", elapsed)
	}
	if completed, _ := p.Loaded("images/slow.png"); completed {
		t.Fatal("slow load should still be pending")
	}
	close(gate)
}

func TestClearForgetsOutcomes(t *testing.T) {
	fetcher := newStubFetcher()
	p := preload.New(fetcher, logging.NewNop(), time.Second)

	p.Preload(context.Background(), "images/c_v1.png", false)
	waitLoaded(t, p, "images/c_v1.png")

	p.Clear()
	if completed, _ := p.Loaded("images/c_v1.png"); completed {
		t.Fatal("cache should be empty after Clear")
	}
}
