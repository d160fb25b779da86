package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"breathe/internal/analyze"
	"breathe/internal/collector"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize telemetry performance logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			records, err := loadAnalyzeRecords(cfg.Paths.LogDir, dateFlag, allFlag)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No telemetry records found")
				return nil
			}

			report := analyze.Analyze(records)
			printReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Analyze a single day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&allFlag, "all", false, "Analyze every perf log file")
	return cmd
}

func loadAnalyzeRecords(logDir, date string, all bool) ([]analyze.Record, error) {
	if date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("parse --date: %w", err)
		}
		path := filepath.Join(logDir, collector.LogFileName(day))
		records, err := analyze.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		return records, nil
	}
	if all {
		records, err := analyze.LoadDir(logDir)
		if err != nil {
			return nil, fmt.Errorf("load perf logs: %w", err)
		}
		return records, nil
	}
	// Default to today's partition, falling back to the full directory
	// when no file exists for today yet.
	path := filepath.Join(logDir, collector.LogFileName(time.Now()))
	records, err := analyze.LoadFile(path)
	if err == nil && len(records) > 0 {
		return records, nil
	}
	records, err = analyze.LoadDir(logDir)
	if err != nil {
		return nil, fmt.Errorf("load perf logs: %w", err)
	}
	return records, nil
}

func printReport(cmd *cobra.Command, report analyze.Report) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	rows := make([][]string, 0, len(report.Sessions))
	for _, session := range report.Sessions {
		rows = append(rows, []string{
			shortSessionID(session.SessionID),
			session.ClientIP,
			strconv.Itoa(session.Events),
			formatMillis(session.AppInitMillis),
			formatMillis(session.AvgLoadMillis),
			formatMillis(session.MaxLoadMillis),
			strconv.Itoa(session.TransitionCount),
			strconv.Itoa(session.QuoteTransitionCount),
			formatMillis(session.SpanMillis),
		})
	}
	fmt.Fprintf(out, "Sessions (%d)\n", len(report.Sessions))
	fmt.Fprintln(out, renderTable(
		[]string{"Session", "Client", "Events", "Init", "Avg Load", "Max Load", "Slides", "Quotes", "Span"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
		colorize,
	))

	cohorts := report.Cohorts
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Image load cohorts")
	fmt.Fprintln(out, renderTable(
		[]string{"Cohort", "Loads", "Avg"},
		[][]string{
			{"cached", strconv.Itoa(cohorts.CachedCount), formatMillis(cohorts.CachedAvgMillis)},
			{"network", strconv.Itoa(cohorts.NetworkCount), formatMillis(cohorts.NetworkAvgMillis)},
		},
		[]columnAlignment{alignLeft, alignRight, alignRight},
		colorize,
	))

	if len(report.SlowLoads) > 0 {
		slow := make([][]string, 0, len(report.SlowLoads))
		for _, load := range report.SlowLoads {
			cohort := "network"
			if load.Cached {
				cohort = "cached"
			}
			slow = append(slow, []string{
				shortSessionID(load.SessionID),
				load.Event,
				cohort,
				formatMillis(load.DurationMillis),
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Slow loads over %dms\n", analyze.SlowThresholdMillis)
		fmt.Fprintln(out, renderTable(
			[]string{"Session", "Event", "Cohort", "Duration"},
			slow,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			colorize,
		))
	}
}

func shortSessionID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatMillis(value int64) string {
	if value < 0 {
		return "-"
	}
	return fmt.Sprintf("%dms", value)
}
