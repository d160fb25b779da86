package content_test

import (
	"os"
	"path/filepath"
	"testing"

	"breathe/internal/content"
)

const sampleStyles = `{
  "style_categories": {
    "artistic": {"styles": ["watercolor-dreams", "ink-wash"]},
    "scene": {"styles": ["golden-hour"]}
  },
  "abstract_artistic_styles": {
    "watercolor-dreams": {
      "base_prompt": "soft watercolor washes",
      "mood_elements": ["calm", "wonder"],
      "color_palette": ["amber", "slate"],
      "composition": "centered subject"
    }
  },
  "animated_moment_styles": {
    "golden-hour": {"base_prompt": "late sun over fields"}
  }
}`

func loadLibrary(t *testing.T) *content.StyleLibrary {
	t.Helper()
	path := filepath.Join(t.TempDir(), "styles.json")
	if err := os.WriteFile(path, []byte(sampleStyles), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	lib, err := content.LoadStyleLibrary(path)
	if err != nil {
		t.Fatalf("LoadStyleLibrary failed: %v", err)
	}
	return lib
}

func TestLoadStyleLibraryMissing(t *testing.T) {
	if _, err := content.LoadStyleLibrary(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing library")
	}
}

func TestSelectStyle(t *testing.T) {
	lib := loadLibrary(t)
	lib.SetPicker(func(n int) int { return n - 1 })

	if got := lib.SelectStyle("artistic", "ink-wash"); got != "ink-wash" {
		t.Fatalf("direct name: got %q", got)
	}
	if got := lib.SelectStyle("artistic", []any{"watercolor-dreams", "ink-wash"}); got != "watercolor-dreams" {
		t.Fatalf("list spec should use first entry, got %q", got)
	}
	if got := lib.SelectStyle("artistic", "random"); got != "ink-wash" {
		t.Fatalf("random from category: got %q", got)
	}
	if got := lib.SelectStyle("scene", nil); got != "golden-hour" {
		t.Fatalf("nil spec should draw from category, got %q", got)
	}
	if got := lib.SelectStyle("unknown-approach", "random"); got != "essence-of-desire" {
		t.Fatalf("unknown approach should fall back, got %q", got)
	}
}

func TestStyleData(t *testing.T) {
	lib := loadLibrary(t)

	data := lib.StyleData("watercolor-dreams", "artistic")
	if data.BasePrompt != "soft watercolor washes" {
		t.Fatalf("unexpected artistic data: %+v", data)
	}
	data = lib.StyleData("golden-hour", "scene")
	if data.BasePrompt != "late sun over fields" {
		t.Fatalf("unexpected scene data: %+v", data)
	}
	// Unknown approach searches both collections.
	data = lib.StyleData("golden-hour", "")
	if data.BasePrompt != "late sun over fields" {
		t.Fatalf("cross-collection lookup failed: %+v", data)
	}
	if data := lib.StyleData("missing", "artistic"); data.BasePrompt != "" {
		t.Fatalf("missing style should be zero valued: %+v", data)
	}
}
