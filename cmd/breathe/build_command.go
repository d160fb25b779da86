package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"breathe/internal/sitebuild"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var maxVariations int

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build manifest.json from the content directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			builder := sitebuild.NewBuilder(sitebuild.Config{
				ContentDir:    cfg.Paths.ContentDir,
				StylesFile:    cfg.Paths.StylesFile,
				SiteDir:       cfg.Paths.SiteDir,
				MaxVariations: maxVariations,
			}, logger)

			summary, err := builder.Build(cmd.Context())
			if err != nil {
				return fmt.Errorf("build manifest: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s: %d items, %d images (%s)\n",
				summary.ManifestPath, summary.Items, summary.Images, summary.Elapsed.Round(time.Millisecond))
			for _, parseErr := range summary.ParseErrors {
				fmt.Fprintf(out, "warning: %v\n", parseErr)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxVariations, "max-variations", 0, "Image variations scanned per item (0 uses the default)")
	return cmd
}
