package content_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"breathe/internal/content"
)

func sampleItems() []content.Item {
	return []content.Item{
		{
			Title:     "Ode to Autumn",
			Author:    "John Keats",
			QuoteText: "Season of mists and mellow fruitfulness",
			StyleName: "watercolor-dreams",
			Images: []content.ImageVariation{
				{Path: "images/ode-to-autumn_v1.png", Filename: "ode-to-autumn_v1.png"},
				{Path: "images/ode-to-autumn_v2.png", Filename: "ode-to-autumn_v2.png"},
			},
		},
		{
			Title:     "Invictus",
			Author:    "William Ernest Henley",
			QuoteText: "I am the master of my fate",
		},
	}
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site", "manifest.json")
	if err := content.WriteManifest(path, sampleItems()); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	items, err := content.FileManifestLoader{Path: path}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Images[1].Path != "images/ode-to-autumn_v2.png" {
		t.Fatalf("unexpected image path: %q", items[0].Images[1].Path)
	}
	if len(items[1].Images) != 0 {
		t.Fatalf("expected no images for second item")
	}
}

func TestDecodeManifestAcceptsSingleObject(t *testing.T) {
	items, err := content.DecodeManifest([]byte(`{"title":"One","author":"A","quote_text":"x"}`))
	if err != nil {
		t.Fatalf("DecodeManifest failed: %v", err)
	}
	if len(items) != 1 || items[0].Title != "One" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestDecodeManifestRejectsEmpty(t *testing.T) {
	if _, err := content.DecodeManifest([]byte(`[]`)); !errors.Is(err, content.ErrEmptyManifest) {
		t.Fatalf("expected ErrEmptyManifest, got %v", err)
	}
	if _, err := content.DecodeManifest([]byte("  ")); !errors.Is(err, content.ErrEmptyManifest) {
		t.Fatalf("expected ErrEmptyManifest for blank input, got %v", err)
	}
}

func TestFallbackImage(t *testing.T) {
	item := content.Item{Title: "The Road Not Taken", StyleName: "ink-wash"}
	img := item.FallbackImage()
	if img.Path != "images/the-road-not-taken.png" {
		t.Fatalf("unexpected fallback path: %q", img.Path)
	}
	if img.Style.Name != "ink-wash" {
		t.Fatalf("fallback should carry the item style: %+v", img.Style)
	}
}

func TestBaseFilename(t *testing.T) {
	items := sampleItems()
	if got := items[0].BaseFilename(); got != "ode-to-autumn" {
		t.Fatalf("BaseFilename = %q", got)
	}
	if got := items[1].BaseFilename(); got != "invictus" {
		t.Fatalf("BaseFilename without images = %q", got)
	}
}

func TestDisplayStyleName(t *testing.T) {
	if got := content.DisplayStyleName("essence-of-desire"); got != "Essence Of Desire" {
		t.Fatalf("DisplayStyleName = %q", got)
	}
	if got := content.DisplayStyleName(""); got != "" {
		t.Fatalf("empty style should stay empty, got %q", got)
	}
}
