package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget specifies a directory and filename pattern to prune.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// perf log files embed their date in the name; files that do not are
// judged by modification time instead.
const datedLogPrefix = "perf_"

// PruneResult reports one file considered for deletion.
type PruneResult struct {
	Path    string
	Removed bool
	Err     error
}

// CleanupOldLogs removes files matching the provided targets that are older
// than retentionDays. A retentionDays value of 0 disables pruning. When
// dryRun is true, candidates are reported but nothing is deleted.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, dryRun bool, targets ...RetentionTarget) []PruneResult {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	exclusions := make(map[string]struct{})
	for _, target := range targets {
		for _, path := range target.Exclude {
			if trimmed := strings.TrimSpace(path); trimmed != "" {
				if abs, err := filepath.Abs(trimmed); err == nil {
					exclusions[abs] = struct{}{}
				}
			}
		}
	}

	var results []PruneResult
	for _, target := range targets {
		dir := strings.TrimSpace(target.Dir)
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if pat := strings.TrimSpace(target.Pattern); pat != "" {
				matched, err := filepath.Match(pat, name)
				if err != nil || !matched {
					continue
				}
			}
			fullPath := filepath.Join(dir, name)
			if abs, err := filepath.Abs(fullPath); err == nil {
				fullPath = abs
			}
			if _, skip := exclusions[fullPath]; skip {
				continue
			}
			if !fileOlderThan(entry, name, cutoff) {
				continue
			}
			if dryRun {
				results = append(results, PruneResult{Path: fullPath})
				continue
			}
			if err := os.Remove(fullPath); err != nil {
				results = append(results, PruneResult{Path: fullPath, Err: err})
				if logger != nil {
					logger.Warn("log retention remove failed; file remains",
						String("path", fullPath),
						Error(err),
					)
				}
				continue
			}
			results = append(results, PruneResult{Path: fullPath, Removed: true})
			if logger != nil {
				logger.Info("log pruned",
					String("path", fullPath),
					String(FieldEventType, "log_pruned"),
				)
			}
		}
	}
	return results
}

func fileOlderThan(entry os.DirEntry, name string, cutoff time.Time) bool {
	if date, ok := DateFromLogName(name); ok {
		return date.Before(cutoff)
	}
	info, err := entry.Info()
	if err != nil {
		return false
	}
	return info.ModTime().Before(cutoff)
}

// DateFromLogName extracts the embedded date from a perf log filename of
// the form perf_YYYY-MM-DD.jsonl.
func DateFromLogName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, datedLogPrefix) {
		return time.Time{}, false
	}
	stem := strings.TrimPrefix(name, datedLogPrefix)
	if idx := strings.Index(stem, "."); idx >= 0 {
		stem = stem[:idx]
	}
	date, err := time.Parse("2006-01-02", stem)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
