package rotation

import (
	"context"

	"breathe/internal/content"
)

// Panels is the display surface the controller owns directly: quote
// text, footer, fade classes, and the startup/error overlays. Carousel
// layers are not reachable through it; those belong to the engine
// alive for the displayed item.
type Panels interface {
	FadeOut()
	FadeIn()
	SetQuote(quote, author string, tier FontTier)
	SetFooter(styleName, source string)
	SetStyleBadge(styleName string)
	ApplyColors(palette content.Palette)
	HideLoading()
	ShowError(message string)
}

// ColorAnalyzer derives a display palette from the image now on
// screen. Failures are recovered with the default dark palette.
type ColorAnalyzer interface {
	Analyze(ctx context.Context, imagePath string) (content.Palette, error)
}

// Telemetry receives named show events. Implementations never block
// and never fail the caller.
type Telemetry interface {
	Log(event string, metadata map[string]any)
}

type nopTelemetry struct{}

func (nopTelemetry) Log(string, map[string]any) {}
