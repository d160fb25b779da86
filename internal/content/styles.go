package content

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
)

const fallbackStyle = "essence-of-desire"

// StyleLibrary is the visual style catalog consulted when an authored
// file asks for a random or categorized style.
type StyleLibrary struct {
	Categories map[string]StyleCategory `json:"style_categories"`
	Artistic   map[string]StyleData     `json:"abstract_artistic_styles"`
	Scene      map[string]StyleData     `json:"animated_moment_styles"`

	pick func(n int) int
}

// StyleCategory lists the style names belonging to one approach.
type StyleCategory struct {
	Styles []string `json:"styles"`
}

// StyleData describes one visual style.
type StyleData struct {
	BasePrompt   string   `json:"base_prompt,omitempty"`
	MoodElements []string `json:"mood_elements,omitempty"`
	ColorPalette []string `json:"color_palette,omitempty"`
	Composition  string   `json:"composition,omitempty"`
}

// LoadStyleLibrary reads the style library JSON from disk.
func LoadStyleLibrary(path string) (*StyleLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("style library not found: %w", err)
	}
	var lib StyleLibrary
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parse style library %s: %w", path, err)
	}
	lib.pick = rand.Intn
	return &lib, nil
}

// SetPicker overrides random selection, used by deterministic tests.
func (l *StyleLibrary) SetPicker(pick func(n int) int) {
	l.pick = pick
}

// SelectStyle resolves the frontmatter style spec to a concrete style
// name. Lists use their first entry, "random" draws from the approach's
// category, and a bare string names a style directly.
func (l *StyleLibrary) SelectStyle(approach string, spec any) string {
	switch v := spec.(type) {
	case []any:
		if len(v) > 0 {
			if name, ok := v[0].(string); ok && name != "" {
				return name
			}
		}
		return l.randomStyle(approach)
	case []string:
		if len(v) > 0 && v[0] != "" {
			return v[0]
		}
		return l.randomStyle(approach)
	case string:
		if v == "random" || v == "" {
			return l.randomStyle(approach)
		}
		return v
	default:
		return l.randomStyle(approach)
	}
}

func (l *StyleLibrary) randomStyle(approach string) string {
	category, ok := l.Categories[approach]
	if !ok || len(category.Styles) == 0 {
		return fallbackStyle
	}
	pick := l.pick
	if pick == nil {
		pick = rand.Intn
	}
	return category.Styles[pick(len(category.Styles))]
}

// StyleData returns the full style description for a style name within
// the given approach; unknown approaches search both collections.
func (l *StyleLibrary) StyleData(styleName, approach string) StyleData {
	switch approach {
	case "artistic":
		return l.Artistic[styleName]
	case "scene":
		return l.Scene[styleName]
	default:
		if data, ok := l.Artistic[styleName]; ok {
			return data
		}
		return l.Scene[styleName]
	}
}
