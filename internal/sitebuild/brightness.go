package sitebuild

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"breathe/internal/content"
)

// lightThreshold splits images into the light palette above it and the
// default dark palette below.
const lightThreshold = 0.6

// brightnessSampleGrid bounds luminance sampling to a 64x64 grid so
// large images do not dominate build time.
const brightnessSampleGrid = 64

// AnalyzePalette decodes an image file and derives its display palette
// from average luminance.
func AnalyzePalette(path string) (content.Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return content.Palette{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return content.Palette{}, fmt.Errorf("decode image %s: %w", path, err)
	}
	return PaletteFor(luminance(img)), nil
}

// PaletteFor maps a normalized brightness to text/background/accent
// colors readable against it.
func PaletteFor(brightness float64) content.Palette {
	if brightness >= lightThreshold {
		return content.Palette{
			Brightness:      brightness,
			IsLight:         true,
			TextColor:       "#2c3e50",
			BackgroundColor: "#ecf0f1",
			AccentColor:     "#c0392b",
		}
	}
	p := content.DefaultPalette()
	p.Brightness = brightness
	return p
}

// luminance averages Rec.601 luma over a sampled pixel grid, normalized
// to [0, 1].
func luminance(img image.Image) float64 {
	bounds := img.Bounds()
	if bounds.Empty() {
		return 0
	}
	stepX := bounds.Dx() / brightnessSampleGrid
	if stepX < 1 {
		stepX = 1
	}
	stepY := bounds.Dy() / brightnessSampleGrid
	if stepY < 1 {
		stepY = 1
	}

	var total float64
	var count int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			total += (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
			count++
		}
	}
	return total / float64(count)
}
