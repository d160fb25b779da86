package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateShow(); err != nil {
		return err
	}
	if err := c.validateTelemetry(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.SiteDir == "" {
		return errors.New("paths.site_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateShow() error {
	if c.Show.ImageDurationSeconds <= 0 {
		return errors.New("show.image_duration_seconds must be positive")
	}
	if c.Show.BreathingSeconds <= 0 {
		return errors.New("show.breathing_seconds must be positive")
	}
	if c.Show.CrossFadeMillis < 0 {
		return errors.New("show.cross_fade_millis must not be negative")
	}
	if c.Show.TransitionMillis < 0 {
		return errors.New("show.transition_millis must not be negative")
	}
	if c.Show.KeyDebounceMillis < 0 {
		return errors.New("show.key_debounce_millis must not be negative")
	}
	if c.Show.FrameDelayMillis < 0 {
		return errors.New("show.frame_delay_millis must not be negative")
	}
	if c.Show.PreloadTimeoutSeconds <= 0 {
		return errors.New("show.preload_timeout_seconds must be positive")
	}
	if c.Show.PreloadAhead < 0 {
		return errors.New("show.preload_ahead must not be negative")
	}
	return nil
}

func (c *Config) validateTelemetry() error {
	if !c.Telemetry.Enabled {
		return nil
	}
	if c.Telemetry.BufferSize <= 0 {
		return errors.New("telemetry.buffer_size must be positive")
	}
	if c.Telemetry.FlushSeconds <= 0 {
		return errors.New("telemetry.flush_seconds must be positive")
	}
	if c.Telemetry.FlushBatch <= 0 {
		return errors.New("telemetry.flush_batch must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}
