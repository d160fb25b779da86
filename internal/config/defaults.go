package config

const (
	defaultContentDir       = "~/.local/share/breathe/content/inspiration"
	defaultStylesFile       = "~/.local/share/breathe/content/styles/styles.json"
	defaultSiteDir          = "~/.local/share/breathe/site"
	defaultLogDir           = "~/.local/share/breathe/logs"
	defaultAPIBind          = "127.0.0.1:8410"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 90

	defaultImageDurationSeconds  = 7.0
	defaultTransitionMillis      = 1000
	defaultCrossFadeMillis       = 1200
	defaultBreathingSeconds      = 15.0
	defaultKeyDebounceMillis     = 100
	defaultFrameDelayMillis      = 16
	defaultPreloadTimeoutSeconds = 5.0
	defaultPreloadAhead          = 2

	defaultTelemetryBufferSize   = 100
	defaultTelemetryFlushSeconds = 10
	defaultTelemetryFlushBatch   = 20
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ContentDir: defaultContentDir,
			StylesFile: defaultStylesFile,
			SiteDir:    defaultSiteDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Show: Show{
			ImageDurationSeconds:  defaultImageDurationSeconds,
			TransitionMillis:      defaultTransitionMillis,
			CrossFadeMillis:       defaultCrossFadeMillis,
			BreathingSeconds:      defaultBreathingSeconds,
			KenBurns:              true,
			KeyDebounceMillis:     defaultKeyDebounceMillis,
			FrameDelayMillis:      defaultFrameDelayMillis,
			PreloadTimeoutSeconds: defaultPreloadTimeoutSeconds,
			PreloadAhead:          defaultPreloadAhead,
		},
		Telemetry: Telemetry{
			Enabled:      true,
			BufferSize:   defaultTelemetryBufferSize,
			FlushSeconds: defaultTelemetryFlushSeconds,
			FlushBatch:   defaultTelemetryFlushBatch,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
