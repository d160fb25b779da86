package rotation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"breathe/internal/carousel"
	"breathe/internal/content"
	"breathe/internal/logging"
	"breathe/internal/preload"
)

// State enumerates the controller lifecycle.
type State int

const (
	StateLoading State = iota
	StateDisplaying
	StateTransitioning
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateDisplaying:
		return "displaying"
	case StateTransitioning:
		return "transitioning"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state by name for status APIs.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Config carries the outer-loop timing plus the per-item carousel
// template. The controller fills in the template's callbacks itself.
type Config struct {
	// BreathingInterval is the fallback auto-advance cadence used when
	// the displayed item has no multi-image carousel driving completion.
	BreathingInterval time.Duration
	// TransitionDuration is the total fade-out plus fade-in window
	// around an item change.
	TransitionDuration time.Duration
	Carousel           carousel.Config
}

// Option adjusts optional controller collaborators.
type Option func(*Controller)

// WithColorAnalyzer installs a palette analyzer consulted for images
// that carry no precomputed brightness data.
func WithColorAnalyzer(a ColorAnalyzer) Option {
	return func(c *Controller) { c.colors = a }
}

// WithTelemetry installs the event sink. Without it events are dropped.
func WithTelemetry(t Telemetry) Option {
	return func(c *Controller) { c.tele = t }
}

// Controller owns the content item loop. At most one carousel engine
// is alive at a time; each engine is destroyed before its successor is
// built so no timers or layer state leak across items.
type Controller struct {
	cfg      Config
	loader   content.ManifestLoader
	panels   Panels
	surfaces []carousel.Surface
	fetcher  preload.Fetcher
	colors   ColorAnalyzer
	tele     Telemetry
	logger   *slog.Logger

	mu            sync.Mutex
	state         State
	items         []content.Item
	current       int
	engine        *carousel.Engine
	multiImage    bool
	transitioning bool
	paused        bool
	pendingStart  bool
	breathing     *time.Timer
}

// Snapshot is a settled view of the show for status reporting.
type Snapshot struct {
	State      State              `json:"state"`
	ItemIndex  int                `json:"item_index"`
	ItemCount  int                `json:"item_count"`
	ItemTitle  string             `json:"item_title,omitempty"`
	Paused     bool               `json:"paused"`
	Carousel   *carousel.Snapshot `json:"carousel,omitempty"`
	ImageIndex int                `json:"image_index"`
}

// NewController wires the rotation loop over its collaborators. The
// fetcher is handed to a fresh preloader for every displayed item so
// cache lifetime matches engine lifetime.
func NewController(cfg Config, loader content.ManifestLoader, panels Panels, surfaces []carousel.Surface, fetcher preload.Fetcher, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		cfg:      cfg,
		loader:   loader,
		panels:   panels,
		surfaces: surfaces,
		fetcher:  fetcher,
		tele:     nopTelemetry{},
		logger:   logging.NewComponentLogger(logger, "rotation"),
		state:    StateLoading,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init loads the manifest and displays item 0. A load failure or an
// empty manifest moves the controller to the error state with a
// user-visible message; no automatic retry is attempted.
func (c *Controller) Init(ctx context.Context) error {
	c.tele.Log("app_init_start", nil)

	items, err := c.loader.Load(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateError
		c.mu.Unlock()
		c.panels.ShowError("Unable to load the show. Reload to try again.")
		c.logger.Error("manifest load failed", logging.Error(err))
		return fmt.Errorf("loading manifest: %w", err)
	}

	if len(items) == 0 {
		c.mu.Lock()
		c.state = StateError
		c.mu.Unlock()
		c.panels.ShowError("No content to show yet.")
		return fmt.Errorf("loading manifest: %w", content.ErrEmptyManifest)
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()

	c.displayCurrentContent(ctx)
	c.panels.HideLoading()
	c.tele.Log("app_init_complete", map[string]any{"itemCount": len(items)})
	return nil
}

// Retry re-runs initialization after a failed load. It is a no-op
// unless the controller is in the error state.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateError {
		c.mu.Unlock()
		return nil
	}
	c.state = StateLoading
	c.mu.Unlock()
	return c.Init(ctx)
}

// NextContent advances to the following item, wrapping modulo the item
// count, and re-enters the display sequence.
func (c *Controller) NextContent(ctx context.Context) {
	c.mu.Lock()
	if c.state == StateError || len(c.items) == 0 || c.transitioning {
		c.mu.Unlock()
		return
	}
	c.current = (c.current + 1) % len(c.items)
	c.mu.Unlock()
	c.displayCurrentContent(ctx)
}

// displayCurrentContent runs the full item-change sequence: fade out,
// text update, engine teardown and rebuild, footer and color update,
// fade in. Re-entrant calls are dropped while a change is in flight.
func (c *Controller) displayCurrentContent(ctx context.Context) {
	c.mu.Lock()
	if c.transitioning || len(c.items) == 0 {
		c.mu.Unlock()
		return
	}
	c.transitioning = true
	c.state = StateTransitioning
	c.stopBreathingLocked()
	old := c.engine
	c.engine = nil
	item := c.items[c.current]
	index := c.current
	c.mu.Unlock()

	c.tele.Log("quote_transition_start", map[string]any{"index": index, "title": item.Title})

	c.panels.FadeOut()
	wait(ctx, c.cfg.TransitionDuration/2)

	c.panels.SetQuote(item.QuoteText, item.Author, FontTierFor(item.QuoteText))

	// The outgoing engine must be fully dead before its successor owns
	// the layers.
	if old != nil {
		old.Destroy()
	}

	images := item.Images
	if len(images) == 0 {
		images = []content.ImageVariation{item.FallbackImage()}
	}
	multi := len(images) > 1

	pre := preload.New(c.fetcher, c.logger, c.cfg.Carousel.PreloadTimeout)
	engCfg := c.cfg.Carousel
	engCfg.OnImageChange = func(imageIndex int, img content.ImageVariation) {
		c.panels.SetStyleBadge(content.DisplayStyleName(img.Style.Name))
		if imageIndex > 0 {
			c.tele.Log("carousel_transition_complete", map[string]any{
				"itemIndex":  index,
				"imageIndex": imageIndex,
			})
		}
	}
	if multi {
		engCfg.OnComplete = func() { c.NextContent(ctx) }
	}

	eng, err := carousel.New(images, c.surfaces, pre, c.logger, engCfg)
	if err != nil {
		c.logger.Error("carousel build failed", logging.Error(err), logging.Int(logging.FieldItemIndex, index))
		c.mu.Lock()
		c.transitioning = false
		c.state = StateError
		c.mu.Unlock()
		c.panels.ShowError("Unable to display this item.")
		return
	}

	first := images[0]
	cached, _ := pre.Loaded(first.Path)
	loadStart := time.Now()
	eng.ShowInitialImage(ctx)
	loadEvent := "single_image_loaded"
	if multi {
		loadEvent = "carousel_initial_image_loaded"
	}
	c.tele.Log(loadEvent, map[string]any{
		"itemIndex":   index,
		"duration":    time.Since(loadStart).Milliseconds(),
		"cacheStatus": cacheStatus(cached),
	})

	c.panels.SetFooter(content.DisplayStyleName(item.StyleName), item.Metadata.Source)
	c.panels.ApplyColors(c.paletteFor(ctx, item, first))
	c.panels.FadeIn()
	wait(ctx, c.cfg.TransitionDuration/2)

	c.mu.Lock()
	c.engine = eng
	c.multiImage = multi
	c.transitioning = false
	c.state = StateDisplaying
	// A pause that landed while this sequence was in flight defers the
	// engine's first Start to Resume; Resume on a never-started engine
	// would otherwise be a no-op and the show would stall.
	c.pendingStart = c.paused && multi
	if !c.paused {
		if multi {
			eng.Start(ctx)
		} else {
			c.startBreathingLocked(ctx)
		}
	}
	c.mu.Unlock()
}

// paletteFor prefers the manifest's precomputed brightness analysis,
// falls back to the live analyzer, then to the default dark palette.
func (c *Controller) paletteFor(ctx context.Context, item content.Item, img content.ImageVariation) content.Palette {
	if img.Brightness != nil {
		return *img.Brightness
	}
	if item.Brightness != nil {
		return *item.Brightness
	}
	if c.colors != nil {
		p, err := c.colors.Analyze(ctx, img.Path)
		if err == nil {
			return p
		}
		c.logger.Warn("color analysis failed", logging.Error(err), logging.String(logging.FieldImagePath, img.Path))
	}
	return content.DefaultPalette()
}

// Pause halts auto-advance when the viewer looks away: window blur or
// an open details overlay. Both the breathing timer and any active
// engine stop so background timers do not consume wall-clock time.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = true
	c.stopBreathingLocked()
	if c.engine != nil {
		c.engine.Pause()
	}
}

// Resume restarts whichever advance mechanism the displayed item uses.
// The breathing timer restarts with its full interval; the engine
// resumes with the remaining time its pause captured.
func (c *Controller) Resume(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.paused = false
	if c.engine != nil && c.multiImage {
		if c.pendingStart {
			c.pendingStart = false
			c.engine.Start(ctx)
		} else {
			c.engine.Resume()
		}
		return
	}
	c.startBreathingLocked(ctx)
}

// HandleKey routes one key press. Left/right navigate within the item
// when it has multiple images, up/down jump to the first/last
// variation, and space advances the content item directly.
func (c *Controller) HandleKey(ctx context.Context, key string) {
	eng, multi := c.activeEngine()
	switch key {
	case "ArrowLeft":
		if multi {
			eng.Previous(ctx, false)
		}
	case "ArrowRight":
		if multi {
			eng.Next(ctx, false)
		}
	case "ArrowUp":
		if multi {
			eng.GoTo(ctx, 0)
		}
	case "ArrowDown":
		if multi {
			eng.GoTo(ctx, eng.Len()-1)
		}
	case " ", "Space":
		c.NextContent(ctx)
	}
}

// HandleClick advances the content item, bypassing the carousel.
func (c *Controller) HandleClick(ctx context.Context) {
	c.NextContent(ctx)
}

// HandleSwipe routes a resolved gesture: swiping left moves forward
// through the item's images, swiping right moves back.
func (c *Controller) HandleSwipe(ctx context.Context, dir SwipeDirection) {
	eng, multi := c.activeEngine()
	if !multi {
		return
	}
	switch dir {
	case SwipeLeft:
		eng.Next(ctx, false)
	case SwipeRight:
		eng.Previous(ctx, false)
	}
}

// DetailImage returns the variation currently on screen, so a details
// overlay shows the provenance of what the viewer is actually seeing.
func (c *Controller) DetailImage() (content.ImageVariation, bool) {
	c.mu.Lock()
	eng := c.engine
	c.mu.Unlock()
	if eng == nil {
		return content.ImageVariation{}, false
	}
	img, _ := eng.CurrentImage()
	return img, true
}

// Items returns the loaded manifest. It errors until the manifest has
// been loaded successfully.
func (c *Controller) Items() ([]content.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return nil, content.ErrEmptyManifest
	}
	return c.items, nil
}

// CurrentItem returns the displayed item and its index.
func (c *Controller) CurrentItem() (content.Item, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return content.Item{}, 0, false
	}
	return c.items[c.current], c.current, true
}

// Snapshot reports the current show state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		State:     c.state,
		ItemIndex: c.current,
		ItemCount: len(c.items),
		Paused:    c.paused,
	}
	if len(c.items) > 0 {
		snap.ItemTitle = c.items[c.current].Title
	}
	if c.engine != nil {
		es := c.engine.Snapshot()
		snap.Carousel = &es
		snap.ImageIndex = es.CurrentIndex
	}
	return snap
}

// Stop tears the show down for shutdown.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopBreathingLocked()
	eng := c.engine
	c.engine = nil
	c.mu.Unlock()
	if eng != nil {
		eng.Destroy()
	}
}

func (c *Controller) activeEngine() (*carousel.Engine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine == nil {
		return nil, false
	}
	return c.engine, c.multiImage
}

// startBreathingLocked arms the fallback advance timer. Only called
// for items where no engine completion signal will fire, keeping the
// two advance mechanisms mutually exclusive. Caller holds c.mu.
func (c *Controller) startBreathingLocked(ctx context.Context) {
	c.stopBreathingLocked()
	if c.cfg.BreathingInterval <= 0 {
		return
	}
	c.breathing = time.AfterFunc(c.cfg.BreathingInterval, func() {
		c.mu.Lock()
		skip := c.paused || c.state == StateError
		c.mu.Unlock()
		if skip {
			return
		}
		c.NextContent(ctx)
	})
}

func (c *Controller) stopBreathingLocked() {
	if c.breathing != nil {
		c.breathing.Stop()
		c.breathing = nil
	}
}

func cacheStatus(cached bool) string {
	if cached {
		return "cached"
	}
	return "network"
}

func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
