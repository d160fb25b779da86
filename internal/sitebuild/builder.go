// Package sitebuild assembles the show's manifest from authored
// markdown content, discovered image variations, and per-image
// brightness analysis. The stages run as a dependency graph so the
// pipeline's ordering is explicit and each stage's timing is reported.
package sitebuild

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bpradana/weave"

	"breathe/internal/content"
	"breathe/internal/logging"
)

// Config locates the build inputs and output.
type Config struct {
	// ContentDir holds the authored markdown files.
	ContentDir string
	// StylesFile is the style library JSON.
	StylesFile string
	// SiteDir receives manifest.json and holds the images/ directory.
	SiteDir string
	// MaxVariations bounds the per-item image scan.
	MaxVariations int
}

// Summary reports what a build produced.
type Summary struct {
	Items        int
	Images       int
	ManifestPath string
	Elapsed      time.Duration
	ParseErrors  []error
}

// Builder runs the manifest build pipeline.
type Builder struct {
	cfg    Config
	logger *slog.Logger
}

// NewBuilder constructs a builder over the configured paths.
func NewBuilder(cfg Config, logger *slog.Logger) *Builder {
	if cfg.MaxVariations <= 0 {
		cfg.MaxVariations = 5
	}
	return &Builder{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "sitebuild"),
	}
}

type parseResult struct {
	items []content.Item
	errs  []error
}

// Build parses content, discovers images, analyzes brightness, and
// writes the manifest. Files that fail to parse are skipped and
// reported in the summary; an empty result set fails the build.
func (b *Builder) Build(ctx context.Context) (*Summary, error) {
	started := time.Now()
	graph := weave.NewGraph()

	parseTask, err := weave.AddTask(graph, "parse-content", func(ctx context.Context, deps weave.DependencyResolver) (parseResult, error) {
		return b.parseContent()
	})
	if err != nil {
		return nil, fmt.Errorf("add parse task: %w", err)
	}

	imagesTask, err := weave.AddTask(graph, "discover-images", func(ctx context.Context, deps weave.DependencyResolver) (parseResult, error) {
		parsed, err := parseTask.Value(deps)
		if err != nil {
			return parseResult{}, err
		}
		for i := range parsed.items {
			parsed.items[i].Images = b.discoverImages(parsed.items[i])
		}
		return parsed, nil
	}, weave.DependsOn(parseTask))
	if err != nil {
		return nil, fmt.Errorf("add discover task: %w", err)
	}

	paletteTask, err := weave.AddTask(graph, "analyze-brightness", func(ctx context.Context, deps weave.DependencyResolver) (parseResult, error) {
		parsed, err := imagesTask.Value(deps)
		if err != nil {
			return parseResult{}, err
		}
		b.analyzeBrightness(parsed.items)
		return parsed, nil
	}, weave.DependsOn(imagesTask))
	if err != nil {
		return nil, fmt.Errorf("add brightness task: %w", err)
	}

	manifestTask, err := weave.AddTask(graph, "write-manifest", func(ctx context.Context, deps weave.DependencyResolver) (string, error) {
		parsed, err := paletteTask.Value(deps)
		if err != nil {
			return "", err
		}
		if len(parsed.items) == 0 {
			return "", fmt.Errorf("no content items produced from %s", b.cfg.ContentDir)
		}
		path := filepath.Join(b.cfg.SiteDir, "manifest.json")
		if err := content.WriteManifest(path, parsed.items); err != nil {
			return "", err
		}
		return path, nil
	}, weave.DependsOn(paletteTask))
	if err != nil {
		return nil, fmt.Errorf("add manifest task: %w", err)
	}

	results, metrics, err := graph.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	parsed, err := paletteTask.Value(results)
	if err != nil {
		return nil, err
	}
	manifestPath, err := manifestTask.Value(results)
	if err != nil {
		return nil, err
	}

	images := 0
	for _, item := range parsed.items {
		images += len(item.Images)
	}
	b.logger.Info("build complete",
		logging.Int("items", len(parsed.items)),
		logging.Int("images", images),
		logging.Int("tasks", metrics.TasksTotal),
		logging.Duration("elapsed", time.Since(started)),
	)

	return &Summary{
		Items:        len(parsed.items),
		Images:       images,
		ManifestPath: manifestPath,
		Elapsed:      time.Since(started),
		ParseErrors:  parsed.errs,
	}, nil
}

func (b *Builder) parseContent() (parseResult, error) {
	lib, err := content.LoadStyleLibrary(b.cfg.StylesFile)
	if err != nil {
		return parseResult{}, err
	}

	files, errs := content.ParseDir(b.cfg.ContentDir)
	for _, parseErr := range errs {
		b.logger.Warn("content file skipped", logging.Error(parseErr))
	}

	items := make([]content.Item, 0, len(files))
	for _, file := range files {
		fm := file.Frontmatter
		styleName := lib.SelectStyle(fm.StyleApproach, fm.Style)
		items = append(items, content.Item{
			Title:     fm.Title,
			Author:    fm.Author,
			Type:      fm.Type,
			QuoteText: file.Main,
			StyleName: styleName,
			Metadata: content.ItemMetadata{
				WhyILikeIt: file.WhyILikeIt,
				Source:     fm.Source,
				Status:     fm.Status,
				Tags:       fm.Tags,
			},
		})
	}
	return parseResult{items: items, errs: errs}, nil
}

// discoverImages finds an item's generated variations on disk:
// <base>_v1.png through <base>_vN.png, falling back to <base>.png when
// no numbered variation exists.
func (b *Builder) discoverImages(item content.Item) []content.ImageVariation {
	imagesDir := filepath.Join(b.cfg.SiteDir, "images")
	base := item.BaseFilename()

	var variations []content.ImageVariation
	for i := 1; i <= b.cfg.MaxVariations; i++ {
		filename := fmt.Sprintf("%s_v%d.png", base, i)
		if _, err := os.Stat(filepath.Join(imagesDir, filename)); err != nil {
			continue
		}
		variations = append(variations, content.ImageVariation{
			Path:     "images/" + filename,
			Filename: filename,
			Style:    content.StyleInfo{Name: item.StyleName},
		})
	}
	if len(variations) > 0 {
		return variations
	}

	filename := base + ".png"
	if _, err := os.Stat(filepath.Join(imagesDir, filename)); err == nil {
		return []content.ImageVariation{{
			Path:     "images/" + filename,
			Filename: filename,
			Style:    content.StyleInfo{Name: item.StyleName},
		}}
	}
	return nil
}

// analyzeBrightness fills in each variation's palette. Analysis
// failures fall back to the default palette so a corrupt image cannot
// fail the build.
func (b *Builder) analyzeBrightness(items []content.Item) {
	for i := range items {
		for j := range items[i].Images {
			variation := &items[i].Images[j]
			full := filepath.Join(b.cfg.SiteDir, filepath.FromSlash(variation.Path))
			palette, err := AnalyzePalette(full)
			if err != nil {
				b.logger.Warn("brightness analysis failed",
					logging.Error(err),
					logging.String(logging.FieldImagePath, variation.Path),
				)
				palette = content.DefaultPalette()
			}
			variation.Brightness = &palette
		}
		if len(items[i].Images) > 0 {
			items[i].Brightness = items[i].Images[0].Brightness
		}
	}
}
