package carousel

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"breathe/internal/content"
	"breathe/internal/logging"
	"breathe/internal/preload"
)

// State enumerates the engine lifecycle.
type State int

const (
	StateIdle State = iota
	StateShowingInitial
	StatePlaying
	StatePaused
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateShowingInitial:
		return "showing-initial"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state by name for status APIs.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ErrNoImages indicates an engine was requested for an empty image list.
var ErrNoImages = errors.New("carousel requires at least one image")

// Config carries timing, presentation, and callback wiring for one engine.
type Config struct {
	// ImageDuration is how long each image stays during autoplay.
	ImageDuration time.Duration
	// CrossFadeDuration is how long the dual-layer cross-fade runs; the
	// engine holds its transition guard for this long.
	CrossFadeDuration time.Duration
	// FrameDelay is the settle wait between staging an effect on the
	// hidden layer and flipping it visible, so the animation is already
	// attached when the layer appears.
	FrameDelay time.Duration
	// KeyDebounce drops repeated manual navigation within this window.
	KeyDebounce time.Duration
	// KenBurns toggles the decorative pan/zoom animation.
	KenBurns bool
	// PreloadAhead is how many upcoming images to warm after a change.
	PreloadAhead int
	// PreloadTimeout bounds the wait on any single image load.
	PreloadTimeout time.Duration
	// OnImageChange fires at the start of each visual change with the
	// new index, so dependent UI updates promptly rather than lagging
	// the animation.
	OnImageChange func(index int, image content.ImageVariation)
	// OnComplete fires when autoplay has shown every image exactly once.
	OnComplete func()
}

// Engine owns the ordered image variations of one content item and the
// dual-layer cross-fade state machine over them. An engine is built
// fresh for each displayed item and destroyed when the item changes.
type Engine struct {
	cfg      Config
	images   []content.ImageVariation
	surfaces []Surface
	pre      *preload.Preloader
	logger   *slog.Logger

	mu            sync.Mutex
	state         State
	current       int
	activeLayer   int
	transitioning bool
	autoplay      bool
	ctx           context.Context

	timer         *time.Timer
	timerComplete bool
	scheduledAt   time.Time
	scheduledFor  time.Duration
	remaining     time.Duration
	hasRemaining  bool
	lastManual    time.Time

	effectPick func(n int) int
}

// Snapshot is a settled view of engine state for status APIs and tests.
type Snapshot struct {
	State         State         `json:"state"`
	CurrentIndex  int           `json:"current_index"`
	ActiveLayer   int           `json:"active_layer"`
	Transitioning bool          `json:"transitioning"`
	Remaining     time.Duration `json:"remaining,omitempty"`
	HasRemaining  bool          `json:"has_remaining"`
}

// New constructs an engine over the item's image variations.
func New(images []content.ImageVariation, surfaces []Surface, pre *preload.Preloader, logger *slog.Logger, cfg Config) (*Engine, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if cfg.PreloadTimeout <= 0 {
		cfg.PreloadTimeout = preload.DefaultTimeout
	}
	if cfg.KeyDebounce <= 0 {
		cfg.KeyDebounce = 100 * time.Millisecond
	}
	return &Engine{
		cfg:        cfg,
		images:     images,
		surfaces:   surfaces,
		pre:        pre,
		logger:     logging.NewComponentLogger(logger, "carousel"),
		state:      StateIdle,
		ctx:        context.Background(),
		effectPick: rand.Intn,
	}, nil
}

// Len returns the number of image variations.
func (e *Engine) Len() int { return len(e.images) }

// Snapshot returns the current engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:         e.state,
		CurrentIndex:  e.current,
		ActiveLayer:   e.activeLayer,
		Transitioning: e.transitioning,
		Remaining:     e.remaining,
		HasRemaining:  e.hasRemaining,
	}
}

// CurrentImage returns the currently displayed variation and its index.
func (e *Engine) CurrentImage() (content.ImageVariation, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.images[e.current], e.current
}

// ShowInitialImage waits (bounded) for the first image, assigns it to
// layer A of each surface, marks that layer active, and warms the next
// images. If the load times out the image slot is shown regardless;
// no placeholder is substituted.
func (e *Engine) ShowInitialImage(ctx context.Context) {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return
	}
	e.state = StateShowingInitial
	e.mu.Unlock()

	first := e.images[0]
	e.pre.Preload(ctx, first.Path, true)
	e.pre.WaitForLoad(ctx, first.Path, e.cfg.PreloadTimeout)

	effect := e.pickEffect()
	for _, s := range e.surfaces {
		s.SetLayerImage(LayerA, first)
		if e.cfg.KenBurns {
			s.ApplyEffect(LayerA, effect)
		}
		s.SetActiveLayer(LayerA)
	}

	e.mu.Lock()
	if e.state == StateDestroyed {
		e.mu.Unlock()
		return
	}
	e.state = StatePaused
	e.current = 0
	e.activeLayer = LayerA
	e.mu.Unlock()

	if e.cfg.OnImageChange != nil {
		e.cfg.OnImageChange(0, first)
	}
	e.preloadAhead(ctx)
}

// TransitionTo cross-fades to the image at index. It reports whether a
// transition actually started: requests arriving while another
// transition is in flight, targeting the current index, or out of
// bounds are dropped, never queued.
func (e *Engine) TransitionTo(ctx context.Context, index int) bool {
	return e.transition(ctx, index)
}

// Next advances to the following image, wrapping modulo the image
// count. Manual calls (automatic=false) are debounced; timer-driven
// calls bypass the debounce entirely.
func (e *Engine) Next(ctx context.Context, automatic bool) bool {
	target, ok := e.step(1, automatic)
	if !ok {
		return false
	}
	return e.transition(ctx, target)
}

// Previous moves to the preceding image, wrapping modulo the image count.
func (e *Engine) Previous(ctx context.Context, automatic bool) bool {
	target, ok := e.step(-1, automatic)
	if !ok {
		return false
	}
	return e.transition(ctx, target)
}

// GoTo jumps to an explicit index, ignoring the manual debounce.
func (e *Engine) GoTo(ctx context.Context, index int) bool {
	return e.transition(ctx, index)
}

func (e *Engine) step(delta int, automatic bool) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDestroyed {
		return 0, false
	}
	if !automatic {
		now := time.Now()
		if now.Sub(e.lastManual) < e.cfg.KeyDebounce {
			return 0, false
		}
		e.lastManual = now
	}
	n := len(e.images)
	return ((e.current+delta)%n + n) % n, true
}

func (e *Engine) transition(ctx context.Context, index int) bool {
	e.mu.Lock()
	if e.state == StateDestroyed || e.transitioning || index == e.current || index < 0 || index >= len(e.images) {
		e.mu.Unlock()
		return false
	}
	e.transitioning = true
	inactive := 1 - e.activeLayer
	e.mu.Unlock()

	img := e.images[index]
	if completed, _ := e.pre.Loaded(img.Path); !completed {
		e.pre.WaitForLoad(ctx, img.Path, e.cfg.PreloadTimeout)
	}

	effect := e.pickEffect()
	for _, s := range e.surfaces {
		s.SetLayerImage(inactive, img)
		if e.cfg.KenBurns {
			s.ApplyEffect(inactive, effect)
		}
	}

	// The staged layer is still hidden; give the effect one frame to
	// attach before it becomes visible.
	sleepFor(ctx, e.cfg.FrameDelay)

	e.mu.Lock()
	e.activeLayer = inactive
	e.current = index
	e.mu.Unlock()

	for _, s := range e.surfaces {
		s.SetActiveLayer(inactive)
	}
	if e.cfg.OnImageChange != nil {
		e.cfg.OnImageChange(index, img)
	}

	// Hold the guard for the cross-fade; an in-flight fade always
	// completes even if the engine is paused or destroyed meanwhile.
	sleepFor(ctx, e.cfg.CrossFadeDuration)

	e.mu.Lock()
	e.transitioning = false
	e.mu.Unlock()

	e.logger.Debug("transition complete",
		logging.Int("index", index),
		logging.String(logging.FieldImagePath, img.Path),
	)
	e.preloadAhead(ctx)
	return true
}

// Start begins autoplay: each image is shown for ImageDuration, and
// once the advance would wrap back to index 0 the engine fires
// OnComplete instead of re-showing the first image.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDestroyed {
		return
	}
	e.ctx = ctx
	e.state = StatePlaying
	e.autoplay = true
	e.hasRemaining = false
	e.scheduleLocked(e.cfg.ImageDuration)
}

// Pause cancels the pending autoplay timer and records the remaining
// wait so Resume can preserve total time-on-image. Layer state and the
// current index are untouched; an in-flight cross-fade is not cancelled.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDestroyed {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
		e.remaining = e.scheduledFor - time.Since(e.scheduledAt)
		if e.remaining < 0 {
			e.remaining = 0
		}
		e.hasRemaining = true
	}
	if e.state == StatePlaying {
		e.state = StatePaused
	}
}

// Resume reschedules autoplay with the remaining time captured by Pause,
// or with the full image duration when none was captured.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDestroyed || !e.autoplay {
		return
	}
	e.state = StatePlaying
	d := e.cfg.ImageDuration
	if e.hasRemaining {
		d = e.remaining
		e.hasRemaining = false
	}
	e.scheduleLocked(d)
}

// Destroy cancels timers, strips decorative animation classes, and
// clears the preload cache. Safe to call repeatedly and from any state.
func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.state == StateDestroyed {
		e.mu.Unlock()
		return
	}
	e.state = StateDestroyed
	e.autoplay = false
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	surfaces := e.surfaces
	e.mu.Unlock()

	for _, s := range surfaces {
		s.ClearEffects()
	}
	if e.pre != nil {
		e.pre.Clear()
	}
}

// scheduleLocked arms the autoplay timer. Caller holds e.mu. If the
// upcoming advance would complete a full cycle back to the start, the
// timer fires OnComplete instead of a transition: the wraparound image
// is never re-shown.
func (e *Engine) scheduleLocked(d time.Duration) {
	if e.timer != nil {
		e.timer.Stop()
	}
	next := (e.current + 1) % len(e.images)
	e.timerComplete = next == 0
	e.scheduledAt = time.Now()
	e.scheduledFor = d
	e.timer = time.AfterFunc(d, e.onTimer)
}

func (e *Engine) onTimer() {
	e.mu.Lock()
	if e.state != StatePlaying {
		e.mu.Unlock()
		return
	}
	complete := e.timerComplete
	ctx := e.ctx
	e.timer = nil
	e.mu.Unlock()

	if complete {
		if e.cfg.OnComplete != nil {
			e.cfg.OnComplete()
		}
		return
	}

	e.Next(ctx, true)

	e.mu.Lock()
	if e.state == StatePlaying {
		e.scheduleLocked(e.cfg.ImageDuration)
	}
	e.mu.Unlock()
}

func (e *Engine) preloadAhead(ctx context.Context) {
	if e.pre == nil || e.cfg.PreloadAhead <= 0 {
		return
	}
	e.mu.Lock()
	current := e.current
	if e.state == StateDestroyed {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	n := len(e.images)
	for i := 1; i <= e.cfg.PreloadAhead; i++ {
		idx := (current + i) % n
		if idx == current {
			break
		}
		e.pre.Preload(ctx, e.images[idx].Path, i == 1)
	}
}

func (e *Engine) pickEffect() string {
	if !e.cfg.KenBurns {
		return ""
	}
	return kenBurnsEffects[e.effectPick(len(kenBurnsEffects))]
}

func sleepFor(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
