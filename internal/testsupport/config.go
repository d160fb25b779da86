package testsupport

import (
	"path/filepath"
	"testing"

	"breathe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Show timers are stretched so nothing fires on its own; tests that want
// autoplay or breathing opt back in with options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ContentDir = filepath.Join(base, "content")
	cfgVal.Paths.StylesFile = filepath.Join(base, "styles.json")
	cfgVal.Paths.SiteDir = filepath.Join(base, "site")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Telemetry.SessionDBPath = filepath.Join(base, "logs", "sessions.db")
	cfgVal.Telemetry.Enabled = false
	cfgVal.Show.ImageDurationSeconds = 3600
	cfgVal.Show.BreathingSeconds = 3600
	cfgVal.Show.TransitionMillis = 1
	cfgVal.Show.CrossFadeMillis = 1
	cfgVal.Show.FrameDelayMillis = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTelemetry enables telemetry delivery to the given endpoint.
func WithTelemetry(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Telemetry.Enabled = true
		b.cfg.Telemetry.Endpoint = endpoint
	}
}

// WithImageDuration overrides the per-image autoplay duration.
func WithImageDuration(seconds float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Show.ImageDurationSeconds = seconds
	}
}

// WithBreathingInterval overrides the single-image breathing interval.
func WithBreathingInterval(seconds float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Show.BreathingSeconds = seconds
	}
}
