package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "breathe",
		Short:         "Breathing inspiration slideshow",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A local .env can carry path overrides during development.
			_ = godotenv.Load()
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newBuildCommand(ctx))
	rootCmd.AddCommand(newAnalyzeCommand(ctx))
	rootCmd.AddCommand(newCleanupCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
