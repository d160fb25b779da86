package content

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Item is one quote/author unit with zero or more associated image
// variations. Items are immutable once loaded from the manifest.
type Item struct {
	Title      string           `json:"title"`
	Author     string           `json:"author"`
	Type       string           `json:"type,omitempty"`
	QuoteText  string           `json:"quote_text"`
	StyleName  string           `json:"style_name,omitempty"`
	Metadata   ItemMetadata     `json:"metadata"`
	Images     []ImageVariation `json:"images"`
	Brightness *Palette         `json:"brightness_analysis,omitempty"`
}

// ItemMetadata carries optional provenance and curation notes.
type ItemMetadata struct {
	WhyILikeIt string   `json:"why_i_like_it,omitempty"`
	Source     string   `json:"source,omitempty"`
	Status     string   `json:"status,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// ImageVariation is one generated artwork instance tied to a content
// item. The path is unique within its item, not globally.
type ImageVariation struct {
	Path       string         `json:"path"`
	Filename   string         `json:"filename"`
	Style      StyleInfo      `json:"style,omitempty"`
	Generation GenerationInfo `json:"generation,omitempty"`
	Brightness *Palette       `json:"brightness_analysis,omitempty"`
}

// StyleInfo names the visual style an image was generated with.
type StyleInfo struct {
	Name     string `json:"name,omitempty"`
	Approach string `json:"approach,omitempty"`
}

// GenerationInfo records provenance for a generated image.
type GenerationInfo struct {
	Model        string `json:"model,omitempty"`
	ModelDisplay string `json:"model_display,omitempty"`
	Prompt       string `json:"prompt,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	Dimensions   string `json:"dimensions,omitempty"`
}

// Palette is the result of image luminance analysis: a normalized
// brightness plus the text/background/accent colors suited to it.
type Palette struct {
	Brightness      float64 `json:"brightness"`
	IsLight         bool    `json:"is_light"`
	TextColor       string  `json:"text_color"`
	BackgroundColor string  `json:"background_color"`
	AccentColor     string  `json:"accent_color"`
}

// DefaultPalette is applied when luminance analysis is unavailable.
func DefaultPalette() Palette {
	return Palette{
		Brightness:      0.5,
		IsLight:         false,
		TextColor:       "#ecf0f1",
		BackgroundColor: "#34495e",
		AccentColor:     "#e74c3c",
	}
}

// FallbackImage derives a single static image variation for items whose
// manifest entry carries no images array.
func (it Item) FallbackImage() ImageVariation {
	base := slugify(it.Title)
	filename := base + ".png"
	return ImageVariation{
		Path:     "images/" + filename,
		Filename: filename,
		Style:    StyleInfo{Name: it.StyleName},
	}
}

// DisplayStyleName renders a style slug like "essence-of-desire" as
// "Essence Of Desire" for badges and footers.
func DisplayStyleName(styleName string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(styleName), "-", " ")
	if cleaned == "" {
		return ""
	}
	return cases.Title(language.Und).String(cleaned)
}

func slugify(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// BaseFilename returns the manifest item's image base name, derived the
// same way the image generator names its outputs.
func (it Item) BaseFilename() string {
	if len(it.Images) > 0 {
		name := it.Images[0].Filename
		name = strings.TrimSuffix(name, filepath.Ext(name))
		if idx := strings.LastIndex(name, "_v"); idx > 0 {
			name = name[:idx]
		}
		return name
	}
	return slugify(it.Title)
}
