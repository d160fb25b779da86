package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	ContentDir string `toml:"content_dir"`
	StylesFile string `toml:"styles_file"`
	SiteDir    string `toml:"site_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Show contains timing and presentation settings for the slideshow.
type Show struct {
	ImageDurationSeconds  float64 `toml:"image_duration_seconds"`
	TransitionMillis      int     `toml:"transition_millis"`
	CrossFadeMillis       int     `toml:"cross_fade_millis"`
	BreathingSeconds      float64 `toml:"breathing_seconds"`
	KenBurns              bool    `toml:"ken_burns"`
	KeyDebounceMillis     int     `toml:"key_debounce_millis"`
	FrameDelayMillis      int     `toml:"frame_delay_millis"`
	PreloadTimeoutSeconds float64 `toml:"preload_timeout_seconds"`
	PreloadAhead          int     `toml:"preload_ahead"`
}

// Telemetry contains client-side telemetry batching settings.
type Telemetry struct {
	Enabled       bool   `toml:"enabled"`
	Endpoint      string `toml:"endpoint"`
	BufferSize    int    `toml:"buffer_size"`
	FlushSeconds  int    `toml:"flush_seconds"`
	FlushBatch    int    `toml:"flush_batch"`
	SessionDBPath string `toml:"session_db_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for breathe.
//
// Configuration sections by subsystem:
//   - Paths: content, styles, built site, logs, and API bind address
//   - Show: carousel and breathing timing plus presentation toggles
//   - Telemetry: client event batching and the session index database
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Show      Show      `toml:"show"`
	Telemetry Telemetry `toml:"telemetry"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/breathe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("breathe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.ContentDir,
		&c.Paths.StylesFile,
		&c.Paths.SiteDir,
		&c.Paths.LogDir,
		&c.Telemetry.SessionDBPath,
	} {
		expanded, err := expandPath(strings.TrimSpace(*field))
		if err != nil {
			return err
		}
		*field = expanded
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Telemetry.Endpoint = strings.TrimSpace(c.Telemetry.Endpoint)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Telemetry.SessionDBPath == "" && c.Paths.LogDir != "" {
		c.Telemetry.SessionDBPath = filepath.Join(c.Paths.LogDir, "sessions.db")
	}
	return nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.SiteDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ImageDuration returns how long each carousel image remains on screen.
func (c *Config) ImageDuration() time.Duration {
	return time.Duration(c.Show.ImageDurationSeconds * float64(time.Second))
}

// TransitionDuration returns the content fade out/in duration.
func (c *Config) TransitionDuration() time.Duration {
	return time.Duration(c.Show.TransitionMillis) * time.Millisecond
}

// CrossFadeDuration returns the duration of the dual-layer cross-fade.
func (c *Config) CrossFadeDuration() time.Duration {
	return time.Duration(c.Show.CrossFadeMillis) * time.Millisecond
}

// BreathingInterval returns the fallback auto-advance cadence for items
// without a multi-image carousel.
func (c *Config) BreathingInterval() time.Duration {
	return time.Duration(c.Show.BreathingSeconds * float64(time.Second))
}

// KeyDebounce returns the manual navigation debounce window.
func (c *Config) KeyDebounce() time.Duration {
	return time.Duration(c.Show.KeyDebounceMillis) * time.Millisecond
}

// FrameDelay returns the settle delay between staging an effect on a
// hidden layer and flipping it visible.
func (c *Config) FrameDelay() time.Duration {
	return time.Duration(c.Show.FrameDelayMillis) * time.Millisecond
}

// PreloadTimeout returns the ceiling on any single image load wait.
func (c *Config) PreloadTimeout() time.Duration {
	return time.Duration(c.Show.PreloadTimeoutSeconds * float64(time.Second))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
