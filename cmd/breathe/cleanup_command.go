package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"breathe/internal/logging"
	"breathe/internal/sessionstore"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var days int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Prune old perf logs and stale session rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			retention := days
			if retention <= 0 {
				retention = cfg.Logging.RetentionDays
			}
			if retention <= 0 {
				return fmt.Errorf("retention is disabled; pass --days to prune anyway")
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			results := logging.CleanupOldLogs(logger, retention, dryRun,
				logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "perf_*.jsonl"},
				logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "breathe-*.log"},
			)

			out := cmd.OutOrStdout()
			removed := 0
			for _, result := range results {
				switch {
				case result.Err != nil:
					fmt.Fprintf(out, "error: %s: %v\n", result.Path, result.Err)
				case dryRun:
					fmt.Fprintf(out, "would remove %s\n", result.Path)
				case result.Removed:
					removed++
					fmt.Fprintf(out, "removed %s\n", result.Path)
				}
			}

			if dryRun {
				fmt.Fprintf(out, "%d file(s) older than %d day(s)\n", len(results), retention)
				return nil
			}

			cutoff := time.Now().AddDate(0, 0, -retention)
			pruned, err := pruneSessions(cmd, cfg.Telemetry.SessionDBPath, cutoff)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d file(s) and %d session row(s)\n", removed, pruned)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention in days (0 uses the configured value)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be removed without deleting")
	return cmd
}

func pruneSessions(cmd *cobra.Command, dbPath string, cutoff time.Time) (int64, error) {
	store, err := sessionstore.Open(dbPath)
	if err != nil {
		return 0, fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	pruned, err := store.Prune(cmd.Context(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return pruned, nil
}
