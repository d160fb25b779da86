package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"breathe/internal/carousel"
	"breathe/internal/collector"
	"breathe/internal/config"
	"breathe/internal/content"
	"breathe/internal/logging"
	"breathe/internal/preload"
	"breathe/internal/rotation"
	"breathe/internal/sessionstore"
	"breathe/internal/telemetry"
)

// Daemon runs the show loop and its HTTP surface as a single process,
// with flock-based locking to prevent multiple instances on one log
// directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	store      *sessionstore.Store
	recorder   *telemetry.Recorder
	collector  *collector.Handler
	controller *rotation.Controller
	view       *showView
	events     *telemetry.Hub
	api        *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	Bind          string
	LockFilePath  string
	SessionDBPath string
	SessionID     string
	Show          rotation.Snapshot
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	store, err := sessionstore.Open(cfg.Telemetry.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	events := telemetry.NewHub(256)
	view := newShowView(events)
	recorder := telemetry.NewRecorder(telemetry.Config{
		Endpoint:      telemetryEndpoint(cfg),
		BufferSize:    cfg.Telemetry.BufferSize,
		FlushInterval: time.Duration(cfg.Telemetry.FlushSeconds) * time.Second,
		FlushBatch:    cfg.Telemetry.FlushBatch,
	}, logger)
	ingest := collector.New(cfg.Paths.LogDir, logger, sessionstore.NewCollectorSink(store, logger))

	loader := content.FileManifestLoader{Path: filepath.Join(cfg.Paths.SiteDir, "manifest.json")}
	fetcher := preload.FileFetcher{Root: cfg.Paths.SiteDir}
	controller := rotation.NewController(rotation.Config{
		BreathingInterval:  cfg.BreathingInterval(),
		TransitionDuration: cfg.TransitionDuration(),
		Carousel: carousel.Config{
			ImageDuration:     cfg.ImageDuration(),
			CrossFadeDuration: cfg.CrossFadeDuration(),
			FrameDelay:        cfg.FrameDelay(),
			KeyDebounce:       cfg.KeyDebounce(),
			KenBurns:          cfg.Show.KenBurns,
			PreloadAhead:      cfg.Show.PreloadAhead,
			PreloadTimeout:    cfg.PreloadTimeout(),
		},
	}, loader, view, []carousel.Surface{view}, fetcher, logger,
		rotation.WithTelemetry(recorder))

	lockPath := filepath.Join(cfg.Paths.LogDir, "breathe.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		store:      store,
		recorder:   recorder,
		collector:  ingest,
		controller: controller,
		view:       view,
		events:     events,
	}
	d.api = newAPIServer(cfg.Paths.APIBind, d, logger)
	return d, nil
}

// telemetryEndpoint resolves where the recorder forwards events. With
// telemetry enabled and no explicit endpoint, the daemon loops back to
// its own collector so sessions are indexed locally.
func telemetryEndpoint(cfg *config.Config) string {
	if !cfg.Telemetry.Enabled {
		return ""
	}
	if endpoint := strings.TrimSpace(cfg.Telemetry.Endpoint); endpoint != "" {
		return endpoint
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return ""
	}
	return "http://" + bind + "/api/log"
}

// Start acquires the daemon lock, brings up the API server, and kicks
// off the show.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another breathe daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}
	d.recorder.Start(d.ctx)

	showCtx := d.ctx
	go func() {
		if err := d.controller.Init(showCtx); err != nil {
			d.logger.Error("show startup failed", logging.Error(err))
		}
	}()

	d.running.Store(true)
	d.logger.Info("breathe daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.api.addr()),
	)
	return nil
}

// Stop halts the show and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.controller.Stop()
	d.api.stop()
	d.recorder.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("breathe daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// showContext is the lifetime handed to input-driven show operations.
func (d *Daemon) showContext() context.Context {
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}

// Status reports runtime information.
func (d *Daemon) Status() Status {
	return Status{
		Running:       d.running.Load(),
		Bind:          d.api.addr(),
		LockFilePath:  d.lockPath,
		SessionDBPath: d.cfg.Telemetry.SessionDBPath,
		SessionID:     d.recorder.SessionID(),
		Show:          d.controller.Snapshot(),
	}
}
