package carousel

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"breathe/internal/content"
	"breathe/internal/logging"
	"breathe/internal/preload"
)

type surfaceCall struct {
	op     string
	layer  int
	path   string
	effect string
}

type fakeSurface struct {
	mu    sync.Mutex
	calls []surfaceCall
}

func (f *fakeSurface) SetLayerImage(layer int, image content.ImageVariation) {
	f.record(surfaceCall{op: "image", layer: layer, path: image.Path})
}

func (f *fakeSurface) SetActiveLayer(layer int) {
	f.record(surfaceCall{op: "active", layer: layer})
}

func (f *fakeSurface) ApplyEffect(layer int, effect string) {
	f.record(surfaceCall{op: "effect", layer: layer, effect: effect})
}

func (f *fakeSurface) ClearEffects() {
	f.record(surfaceCall{op: "clear"})
}

func (f *fakeSurface) record(c surfaceCall) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeSurface) snapshot() []surfaceCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]surfaceCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type instantFetcher struct{}

func (instantFetcher) Fetch(ctx context.Context, path string, highPriority bool) error {
	return nil
}

func testImages(n int) []content.ImageVariation {
	imgs := make([]content.ImageVariation, n)
	for i := range imgs {
		name := fmt.Sprintf("item_v%d.png", i+1)
		imgs[i] = content.ImageVariation{Path: "images/" + name, Filename: name}
	}
	return imgs
}

func testEngine(t *testing.T, n int, cfg Config) (*Engine, *fakeSurface) {
	t.Helper()
	surface := &fakeSurface{}
	pre := preload.New(instantFetcher{}, logging.NewNop(), time.Second)
	eng, err := New(testImages(n), []Surface{surface}, pre, logging.NewNop(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(eng.Destroy)
	return eng, surface
}

func TestNewRejectsEmptyImages(t *testing.T) {
	pre := preload.New(instantFetcher{}, logging.NewNop(), time.Second)
	if _, err := New(nil, nil, pre, logging.NewNop(), Config{}); err == nil {
		t.Fatal("expected error for empty image list")
	}
}

func TestShowInitialImageActivatesLayerA(t *testing.T) {
	var changed []int
	eng, surface := testEngine(t, 3, Config{
		OnImageChange: func(index int, _ content.ImageVariation) {
			changed = append(changed, index)
		},
	})

	eng.ShowInitialImage(context.Background())

	snap := eng.Snapshot()
	if snap.CurrentIndex != 0 || snap.ActiveLayer != LayerA {
		t.Fatalf("unexpected snapshot after initial show: %+v", snap)
	}
	if len(changed) != 1 || changed[0] != 0 {
		t.Fatalf("expected one change callback for index 0, got %v", changed)
	}

	calls := surface.snapshot()
	if len(calls) < 2 {
		t.Fatalf("expected image then active calls, got %v", calls)
	}
	if calls[0].op != "image" || calls[0].layer != LayerA {
		t.Fatalf("first call should stage layer A: %+v", calls[0])
	}
}

func TestTransitionFlipsLayersAndFiresCallback(t *testing.T) {
	var mu sync.Mutex
	var changed []int
	eng, surface := testEngine(t, 3, Config{
		CrossFadeDuration: 5 * time.Millisecond,
		OnImageChange: func(index int, _ content.ImageVariation) {
			mu.Lock()
			changed = append(changed, index)
			mu.Unlock()
		},
	})
	eng.ShowInitialImage(context.Background())

	if !eng.TransitionTo(context.Background(), 1) {
		t.Fatal("transition to index 1 should start")
	}

	snap := eng.Snapshot()
	if snap.CurrentIndex != 1 {
		t.Fatalf("current index = %d, want 1", snap.CurrentIndex)
	}
	if snap.ActiveLayer != LayerB {
		t.Fatalf("active layer = %d, want layer B", snap.ActiveLayer)
	}
	if snap.Transitioning {
		t.Fatal("transition guard should be clear after the fade")
	}

	mu.Lock()
	got := append([]int(nil), changed...)
	mu.Unlock()
	if len(got) != 2 || got[1] != 1 {
		t.Fatalf("change callbacks = %v, want [0 1]", got)
	}

	// The new image must be staged on the inactive layer before that
	// layer is activated.
	var staged, activated int = -1, -1
	for i, c := range surface.snapshot() {
		if c.op == "image" && c.layer == LayerB && staged == -1 {
			staged = i
		}
		if c.op == "active" && c.layer == LayerB && activated == -1 {
			activated = i
		}
	}
	if staged == -1 || activated == -1 || staged > activated {
		t.Fatalf("layer B staged at %d, activated at %d", staged, activated)
	}
}

func TestTransitionGuardsDropRequests(t *testing.T) {
	eng, _ := testEngine(t, 3, Config{CrossFadeDuration: 40 * time.Millisecond})
	eng.ShowInitialImage(context.Background())

	// Same index is a no-op.
	if eng.TransitionTo(context.Background(), 0) {
		t.Fatal("transition to the current index should be dropped")
	}
	// Out of bounds is a no-op.
	if eng.TransitionTo(context.Background(), 7) {
		t.Fatal("out-of-bounds transition should be dropped")
	}

	started := make(chan bool, 1)
	go func() {
		started <- eng.TransitionTo(context.Background(), 1)
	}()
	time.Sleep(10 * time.Millisecond)

	// A second request while the first fade is in flight is dropped,
	// never queued.
	if eng.TransitionTo(context.Background(), 2) {
		t.Fatal("overlapping transition should be dropped")
	}
	if !<-started {
		t.Fatal("first transition should have run")
	}
	if snap := eng.Snapshot(); snap.CurrentIndex != 1 {
		t.Fatalf("current index = %d, want 1", snap.CurrentIndex)
	}
}

func TestNextPreviousWrapAround(t *testing.T) {
	eng, _ := testEngine(t, 3, Config{})
	eng.ShowInitialImage(context.Background())

	if !eng.Previous(context.Background(), true) {
		t.Fatal("previous from index 0 should wrap")
	}
	if _, idx := eng.CurrentImage(); idx != 2 {
		t.Fatalf("index after wrap = %d, want 2", idx)
	}
	if !eng.Next(context.Background(), true) {
		t.Fatal("next from last index should wrap")
	}
	if _, idx := eng.CurrentImage(); idx != 0 {
		t.Fatalf("index after forward wrap = %d, want 0", idx)
	}
}

func TestManualDebounceDropsRapidInput(t *testing.T) {
	eng, _ := testEngine(t, 5, Config{KeyDebounce: 100 * time.Millisecond})
	eng.ShowInitialImage(context.Background())

	if !eng.Next(context.Background(), false) {
		t.Fatal("first manual next should run")
	}
	if eng.Next(context.Background(), false) {
		t.Fatal("second manual next inside the debounce window should be dropped")
	}
	if _, idx := eng.CurrentImage(); idx != 1 {
		t.Fatalf("index = %d, want 1", idx)
	}

	// Automatic advances ignore the debounce window.
	if !eng.Next(context.Background(), true) {
		t.Fatal("automatic next should bypass the debounce")
	}
}

func TestAutoplayShowsEachImageOnceThenCompletes(t *testing.T) {
	var mu sync.Mutex
	var changed []int
	done := make(chan struct{})
	eng, _ := testEngine(t, 3, Config{
		ImageDuration: 15 * time.Millisecond,
		OnImageChange: func(index int, _ content.ImageVariation) {
			mu.Lock()
			changed = append(changed, index)
			mu.Unlock()
		},
		OnComplete: func() { close(done) },
	})
	eng.ShowInitialImage(context.Background())
	eng.Start(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("autoplay never completed")
	}

	mu.Lock()
	got := append([]int(nil), changed...)
	mu.Unlock()
	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("change callbacks = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("change callbacks = %v, want %v", got, want)
		}
	}
}

func TestPauseResumePreservesRemaining(t *testing.T) {
	const duration = 200 * time.Millisecond

	advanced := make(chan int, 4)
	eng, _ := testEngine(t, 3, Config{
		ImageDuration: duration,
		OnImageChange: func(index int, _ content.ImageVariation) {
			advanced <- index
		},
	})
	eng.ShowInitialImage(context.Background())
	<-advanced // initial show

	eng.Start(context.Background())
	time.Sleep(60 * time.Millisecond)
	eng.Pause()

	snap := eng.Snapshot()
	if snap.State != StatePaused {
		t.Fatalf("state = %v, want paused", snap.State)
	}
	if !snap.HasRemaining || snap.Remaining <= 0 || snap.Remaining >= duration {
		t.Fatalf("remaining = %v, want between 0 and the full duration", snap.Remaining)
	}

	// Nothing fires while paused, even past the original deadline.
	select {
	case idx := <-advanced:
		t.Fatalf("advanced to %d while paused", idx)
	case <-time.After(duration + 50*time.Millisecond):
	}

	resumed := time.Now()
	eng.Resume()
	select {
	case idx := <-advanced:
		if idx != 1 {
			t.Fatalf("advanced to %d after resume, want 1", idx)
		}
	case <-time.After(time.Second):
		t.Fatal("autoplay never resumed")
	}

	// The rescheduled timer must carry the captured remainder, not a
	// fresh full duration.
	elapsed := time.Since(resumed)
	if elapsed < snap.Remaining-10*time.Millisecond {
		t.Fatalf("fired after %v, before the %v remainder", elapsed, snap.Remaining)
	}
	if elapsed >= duration {
		t.Fatalf("fired after %v, looks like a full %v rather than the %v remainder", elapsed, duration, snap.Remaining)
	}
}

func TestDestroyIsIdempotentAndClearsEffects(t *testing.T) {
	eng, surface := testEngine(t, 2, Config{KenBurns: true})
	eng.ShowInitialImage(context.Background())

	eng.Destroy()
	eng.Destroy()

	if snap := eng.Snapshot(); snap.State != StateDestroyed {
		t.Fatalf("state = %v, want destroyed", snap.State)
	}

	cleared := 0
	for _, c := range surface.snapshot() {
		if c.op == "clear" {
			cleared++
		}
	}
	if cleared != 1 {
		t.Fatalf("ClearEffects called %d times, want exactly once", cleared)
	}

	if eng.TransitionTo(context.Background(), 1) {
		t.Fatal("transition after destroy should be dropped")
	}
}

func TestKenBurnsEffectStagedBeforeFlip(t *testing.T) {
	eng, surface := testEngine(t, 2, Config{KenBurns: true})
	eng.effectPick = func(n int) int { return 0 }
	eng.ShowInitialImage(context.Background())
	eng.TransitionTo(context.Background(), 1)

	var effectAt, activeAt = -1, -1
	for i, c := range surface.snapshot() {
		if c.op == "effect" && c.layer == LayerB && effectAt == -1 {
			effectAt = i
		}
		if c.op == "active" && c.layer == LayerB && activeAt == -1 {
			activeAt = i
		}
	}
	if effectAt == -1 {
		t.Fatal("no effect applied to layer B")
	}
	if activeAt == -1 || effectAt > activeAt {
		t.Fatalf("effect at %d, activation at %d; effect must come first", effectAt, activeAt)
	}
}
