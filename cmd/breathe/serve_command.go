package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"breathe/internal/daemon"
	"breathe/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the slideshow daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			runID := time.Now().UTC().Format("20060102T150405Z")
			logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("breathe-%s.log", runID))
			logger, err := ctx.newLogger(logPath)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, false,
				logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "breathe-*.log", Exclude: []string{logPath}},
				logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "perf_*.jsonl"},
			)

			d, err := daemon.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}

			status := d.Status()
			logger.Info("breathe daemon running",
				logging.String("bind", status.Bind),
				logging.String("session_id", status.SessionID))

			<-signalCtx.Done()
			logger.Info("breathe daemon shutting down")
			return nil
		},
	}
}
