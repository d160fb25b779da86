package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"breathe/internal/logging"
)

func writeLogFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestCleanupOldLogsRemovesDatedFiles(t *testing.T) {
	dir := t.TempDir()
	oldName := "perf_" + time.Now().AddDate(0, 0, -120).Format("2006-01-02") + ".jsonl"
	newName := "perf_" + time.Now().Format("2006-01-02") + ".jsonl"
	oldPath := writeLogFile(t, dir, oldName)
	newPath := writeLogFile(t, dir, newName)

	results := logging.CleanupOldLogs(logging.NewNop(), 90, false,
		logging.RetentionTarget{Dir: dir, Pattern: "perf_*.jsonl"},
	)

	if len(results) != 1 {
		t.Fatalf("expected 1 prune result, got %d", len(results))
	}
	if !results[0].Removed {
		t.Fatalf("expected removal, got %+v", results[0])
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("old log still present: %v", err)
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Fatalf("recent log should remain: %v", err)
	}
}

func TestCleanupOldLogsDryRun(t *testing.T) {
	dir := t.TempDir()
	oldName := "perf_" + time.Now().AddDate(0, 0, -45).Format("2006-01-02") + ".jsonl"
	oldPath := writeLogFile(t, dir, oldName)

	results := logging.CleanupOldLogs(logging.NewNop(), 30, true,
		logging.RetentionTarget{Dir: dir, Pattern: "perf_*.jsonl"},
	)

	if len(results) != 1 || results[0].Removed {
		t.Fatalf("dry run should report without removing: %+v", results)
	}
	if _, err := os.Stat(oldPath); err != nil {
		t.Fatalf("dry run deleted file: %v", err)
	}
}

func TestCleanupOldLogsHonorsExclusions(t *testing.T) {
	dir := t.TempDir()
	name := "perf_" + time.Now().AddDate(0, 0, -120).Format("2006-01-02") + ".jsonl"
	path := writeLogFile(t, dir, name)

	logging.CleanupOldLogs(logging.NewNop(), 90, false,
		logging.RetentionTarget{Dir: dir, Pattern: "perf_*.jsonl", Exclude: []string{path}},
	)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("excluded file removed: %v", err)
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	writeLogFile(t, dir, "perf_2020-01-01.jsonl")

	results := logging.CleanupOldLogs(logging.NewNop(), 0, false,
		logging.RetentionTarget{Dir: dir, Pattern: "perf_*.jsonl"},
	)
	if results != nil {
		t.Fatalf("retention disabled should be a no-op, got %+v", results)
	}
}

func TestDateFromLogName(t *testing.T) {
	date, ok := logging.DateFromLogName("perf_2025-10-13.jsonl")
	if !ok {
		t.Fatal("expected date to parse")
	}
	if date.Format("2006-01-02") != "2025-10-13" {
		t.Fatalf("unexpected date %s", date)
	}
	if _, ok := logging.DateFromLogName("breathe.log"); ok {
		t.Fatal("non-dated name should not parse")
	}
}
