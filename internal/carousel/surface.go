package carousel

import "breathe/internal/content"

// Layer indices for the two alternating visual layers per surface.
const (
	LayerA = 0
	LayerB = 1
)

// Surface is one display target (desktop or mobile) owning two
// alternating image layers so an incoming image can be staged invisibly
// and cross-faded in without a flash of empty content. Implementations
// are mutated only by the engine instance currently alive for the
// displayed item.
type Surface interface {
	// SetLayerImage stages an image on the given layer.
	SetLayerImage(layer int, image content.ImageVariation)
	// SetActiveLayer atomically marks one layer visible and the other
	// hidden, starting the cross-fade between them.
	SetActiveLayer(layer int)
	// ApplyEffect attaches a decorative pan/zoom animation to a layer.
	ApplyEffect(layer int, effect string)
	// ClearEffects strips decorative animations from both layers.
	ClearEffects()
}

// kenBurnsEffects are the decorative pan/zoom animations one of which is
// randomly applied to each displayed image.
var kenBurnsEffects = []string{
	"ken-burns-zoom-in",
	"ken-burns-zoom-out",
	"ken-burns-pan-left",
	"ken-burns-pan-right",
}
