package sitebuild

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"breathe/internal/content"
	"breathe/internal/logging"
)

const styleLibraryJSON = `{
  "style_categories": {
    "artistic": {"styles": ["essence-of-desire", "soft-focus"]}
  },
  "abstract_artistic_styles": {
    "essence-of-desire": {"base_prompt": "abstract longing"},
    "soft-focus": {"base_prompt": "dreamlike blur"}
  },
  "animated_moment_styles": {}
}`

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func writeContent(t *testing.T, dir, name, title string) {
	t.Helper()
	body := `---
title: ` + title + `
author: Test Author
type: quote
style_approach: artistic
style: soft-focus
source: somewhere
---
The quote text itself.

## Why I Like It
Because it breathes.
`
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write content: %v", err)
	}
}

func setupBuild(t *testing.T) (Config, string) {
	t.Helper()
	root := t.TempDir()
	contentDir := filepath.Join(root, "content")
	siteDir := filepath.Join(root, "site")
	imagesDir := filepath.Join(siteDir, "images")
	for _, dir := range []string{contentDir, imagesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	stylesFile := filepath.Join(root, "styles.json")
	if err := os.WriteFile(stylesFile, []byte(styleLibraryJSON), 0o644); err != nil {
		t.Fatalf("write styles: %v", err)
	}
	return Config{ContentDir: contentDir, StylesFile: stylesFile, SiteDir: siteDir}, imagesDir
}

func TestBuildProducesManifest(t *testing.T) {
	cfg, imagesDir := setupBuild(t)
	writeContent(t, cfg.ContentDir, "first-item.md", "First Item")
	writePNG(t, filepath.Join(imagesDir, "first-item_v1.png"), color.White)
	writePNG(t, filepath.Join(imagesDir, "first-item_v2.png"), color.Black)

	b := NewBuilder(cfg, logging.NewNop())
	summary, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if summary.Items != 1 || summary.Images != 2 {
		t.Fatalf("summary = %+v", summary)
	}

	items, err := content.ReadManifest(summary.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	item := items[0]
	if item.Title != "First Item" || item.StyleName != "soft-focus" {
		t.Fatalf("item = %+v", item)
	}
	if item.QuoteText != "The quote text itself." {
		t.Fatalf("quote = %q", item.QuoteText)
	}
	if item.Metadata.WhyILikeIt == "" {
		t.Fatal("why-i-like-it section lost")
	}
	if len(item.Images) != 2 || item.Images[0].Path != "images/first-item_v1.png" {
		t.Fatalf("images = %+v", item.Images)
	}

	// White image analyzes light, black analyzes dark.
	if item.Images[0].Brightness == nil || !item.Images[0].Brightness.IsLight {
		t.Fatalf("white variation palette = %+v", item.Images[0].Brightness)
	}
	if item.Images[1].Brightness == nil || item.Images[1].Brightness.IsLight {
		t.Fatalf("black variation palette = %+v", item.Images[1].Brightness)
	}
	if item.Brightness == nil || !item.Brightness.IsLight {
		t.Fatal("item palette should follow first variation")
	}
}

func TestBuildFallsBackToUnnumberedImage(t *testing.T) {
	cfg, imagesDir := setupBuild(t)
	writeContent(t, cfg.ContentDir, "solo.md", "Solo")
	writePNG(t, filepath.Join(imagesDir, "solo.png"), color.Gray{Y: 40})

	b := NewBuilder(cfg, logging.NewNop())
	summary, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if summary.Images != 1 {
		t.Fatalf("images = %d, want fallback single image", summary.Images)
	}
	items, err := content.ReadManifest(summary.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if items[0].Images[0].Path != "images/solo.png" {
		t.Fatalf("path = %q", items[0].Images[0].Path)
	}
}

func TestBuildItemWithoutImagesKeepsEmptyList(t *testing.T) {
	cfg, _ := setupBuild(t)
	writeContent(t, cfg.ContentDir, "imageless.md", "Imageless")

	b := NewBuilder(cfg, logging.NewNop())
	summary, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if summary.Items != 1 || summary.Images != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestBuildFailsWithNoContent(t *testing.T) {
	cfg, _ := setupBuild(t)
	b := NewBuilder(cfg, logging.NewNop())
	if _, err := b.Build(context.Background()); err == nil {
		t.Fatal("expected error for empty content dir")
	}
}

func TestPaletteFor(t *testing.T) {
	if p := PaletteFor(0.8); !p.IsLight || p.TextColor != "#2c3e50" {
		t.Fatalf("light palette = %+v", p)
	}
	if p := PaletteFor(0.2); p.IsLight || p.TextColor != "#ecf0f1" {
		t.Fatalf("dark palette = %+v", p)
	}
}
