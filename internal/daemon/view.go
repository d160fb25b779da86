package daemon

import (
	"sync"

	"breathe/internal/content"
	"breathe/internal/rotation"
	"breathe/internal/telemetry"
)

// LayerState is one carousel layer as clients should render it.
type LayerState struct {
	Image  content.ImageVariation `json:"image"`
	Effect string                 `json:"effect,omitempty"`
}

// ViewState is the complete render model for the show. Clients fetch
// it once from /api/state and then apply /api/events deltas.
type ViewState struct {
	Layers      [2]LayerState     `json:"layers"`
	ActiveLayer int               `json:"active_layer"`
	Quote       string            `json:"quote"`
	Author      string            `json:"author"`
	FontTier    rotation.FontTier `json:"font_tier"`
	StyleName   string            `json:"style_name"`
	Source      string            `json:"source,omitempty"`
	StyleBadge  string            `json:"style_badge"`
	Palette     content.Palette   `json:"palette"`
	Faded       bool              `json:"faded"`
	Loading     bool              `json:"loading"`
	ErrorText   string            `json:"error,omitempty"`
}

// showView is the daemon's stand-in for a rendered page: it implements
// both the carousel surface and the controller's panels, keeps the
// authoritative render model, and publishes every mutation to the
// event hub for long-polling clients.
type showView struct {
	hub *telemetry.Hub

	mu    sync.Mutex
	state ViewState
}

func newShowView(hub *telemetry.Hub) *showView {
	v := &showView{hub: hub}
	v.state.Loading = true
	v.state.Palette = content.DefaultPalette()
	return v
}

// State returns a copy of the render model.
func (v *showView) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *showView) publish(name string, metadata map[string]any) {
	v.hub.Publish(telemetry.Event{Name: name, Metadata: metadata})
}

// carousel.Surface

func (v *showView) SetLayerImage(layer int, image content.ImageVariation) {
	v.mu.Lock()
	v.state.Layers[layer].Image = image
	v.mu.Unlock()
	v.publish("layer_image", map[string]any{"layer": layer, "path": image.Path})
}

func (v *showView) SetActiveLayer(layer int) {
	v.mu.Lock()
	v.state.ActiveLayer = layer
	v.mu.Unlock()
	v.publish("active_layer", map[string]any{"layer": layer})
}

func (v *showView) ApplyEffect(layer int, effect string) {
	v.mu.Lock()
	v.state.Layers[layer].Effect = effect
	v.mu.Unlock()
	v.publish("layer_effect", map[string]any{"layer": layer, "effect": effect})
}

func (v *showView) ClearEffects() {
	v.mu.Lock()
	for i := range v.state.Layers {
		v.state.Layers[i].Effect = ""
	}
	v.mu.Unlock()
	v.publish("effects_cleared", nil)
}

// rotation.Panels

func (v *showView) FadeOut() {
	v.mu.Lock()
	v.state.Faded = true
	v.mu.Unlock()
	v.publish("fade_out", nil)
}

func (v *showView) FadeIn() {
	v.mu.Lock()
	v.state.Faded = false
	v.mu.Unlock()
	v.publish("fade_in", nil)
}

func (v *showView) SetQuote(quote, author string, tier rotation.FontTier) {
	v.mu.Lock()
	v.state.Quote = quote
	v.state.Author = author
	v.state.FontTier = tier
	v.mu.Unlock()
	v.publish("quote", map[string]any{"author": author, "font_tier": string(tier)})
}

func (v *showView) SetFooter(styleName, source string) {
	v.mu.Lock()
	v.state.StyleName = styleName
	v.state.Source = source
	v.mu.Unlock()
	v.publish("footer", map[string]any{"style": styleName})
}

func (v *showView) SetStyleBadge(styleName string) {
	v.mu.Lock()
	v.state.StyleBadge = styleName
	v.mu.Unlock()
	v.publish("style_badge", map[string]any{"style": styleName})
}

func (v *showView) ApplyColors(palette content.Palette) {
	v.mu.Lock()
	v.state.Palette = palette
	v.mu.Unlock()
	v.publish("palette", map[string]any{
		"background": palette.BackgroundColor,
		"is_light":   palette.IsLight,
	})
}

func (v *showView) HideLoading() {
	v.mu.Lock()
	v.state.Loading = false
	v.mu.Unlock()
	v.publish("loading_hidden", nil)
}

func (v *showView) ShowError(message string) {
	v.mu.Lock()
	v.state.ErrorText = message
	v.state.Loading = false
	v.mu.Unlock()
	v.publish("error", map[string]any{"message": message})
}
