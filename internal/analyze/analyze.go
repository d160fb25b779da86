// Package analyze reads the collector's date-partitioned JSONL
// performance logs and summarizes them per viewing session: startup
// time, image load latency split by cache cohort, and transition
// counts. Malformed lines are skipped, not fatal.
package analyze

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SlowThresholdMillis flags image loads slower than half a second.
const SlowThresholdMillis = 500

// Record is one parsed telemetry event line.
type Record struct {
	SessionID    string         `json:"sessionId"`
	Event        string         `json:"event"`
	RelativeTime int64          `json:"relativeTime"`
	ReceivedAt   time.Time      `json:"receivedAt"`
	ClientIP     string         `json:"clientIp"`
	Metadata     map[string]any `json:"metadata"`
}

// ImageLoad is one observed image fetch with its cohort.
type ImageLoad struct {
	SessionID      string
	Event          string
	RelativeTime   int64
	DurationMillis int64
	Cached         bool
}

// SessionStats summarizes one session's events.
type SessionStats struct {
	SessionID            string
	ClientIP             string
	Events               int
	SpanMillis           int64
	AppInitMillis        int64 // -1 when never observed
	ImageLoads           []ImageLoad
	AvgLoadMillis        int64
	MaxLoadMillis        int64
	MinLoadMillis        int64
	TransitionCount      int
	QuoteTransitionCount int
}

// CohortStats compares cached against network image loads.
type CohortStats struct {
	CachedCount      int
	CachedAvgMillis  int64
	NetworkCount     int
	NetworkAvgMillis int64
}

// Report is the full analysis over a set of log records.
type Report struct {
	Sessions  []SessionStats
	Cohorts   CohortStats
	SlowLoads []ImageLoad
}

// LoadDir parses every perf_*.jsonl file under dir, oldest file first.
func LoadDir(dir string) ([]Record, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "perf_*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("glob logs: %w", err)
	}
	sort.Strings(matches)
	var records []Record
	for _, path := range matches {
		fileRecords, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		records = append(records, fileRecords...)
	}
	return records, nil
}

// LoadFile parses one JSONL log file, skipping lines that fail to
// decode or carry no session identity.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if rec.SessionID == "" || rec.Event == "" {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}
	return records, nil
}

// Analyze groups records by session, orders each session's events by
// relative time, and derives the report.
func Analyze(records []Record) Report {
	bySession := make(map[string][]Record)
	var order []string
	for _, rec := range records {
		if _, seen := bySession[rec.SessionID]; !seen {
			order = append(order, rec.SessionID)
		}
		bySession[rec.SessionID] = append(bySession[rec.SessionID], rec)
	}
	sort.Strings(order)

	var report Report
	var cachedTotal, networkTotal int64
	for _, sessionID := range order {
		events := bySession[sessionID]
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].RelativeTime < events[j].RelativeTime
		})
		stats := sessionStats(sessionID, events)
		report.Sessions = append(report.Sessions, stats)

		for _, load := range stats.ImageLoads {
			if load.Cached {
				report.Cohorts.CachedCount++
				cachedTotal += load.DurationMillis
			} else {
				report.Cohorts.NetworkCount++
				networkTotal += load.DurationMillis
			}
			if load.DurationMillis > SlowThresholdMillis {
				report.SlowLoads = append(report.SlowLoads, load)
			}
		}
	}
	if report.Cohorts.CachedCount > 0 {
		report.Cohorts.CachedAvgMillis = cachedTotal / int64(report.Cohorts.CachedCount)
	}
	if report.Cohorts.NetworkCount > 0 {
		report.Cohorts.NetworkAvgMillis = networkTotal / int64(report.Cohorts.NetworkCount)
	}
	sort.Slice(report.SlowLoads, func(i, j int) bool {
		return report.SlowLoads[i].DurationMillis > report.SlowLoads[j].DurationMillis
	})
	return report
}

func sessionStats(sessionID string, events []Record) SessionStats {
	stats := SessionStats{
		SessionID:     sessionID,
		Events:        len(events),
		AppInitMillis: -1,
	}
	var initStart int64 = -1
	var loadTotal int64
	for _, rec := range events {
		if rec.ClientIP != "" {
			stats.ClientIP = rec.ClientIP
		}
		switch rec.Event {
		case "app_init_start":
			initStart = rec.RelativeTime
		case "app_init_complete":
			if initStart >= 0 {
				stats.AppInitMillis = rec.RelativeTime - initStart
			} else {
				stats.AppInitMillis = rec.RelativeTime
			}
		case "carousel_initial_image_loaded", "single_image_loaded":
			load := ImageLoad{
				SessionID:      sessionID,
				Event:          rec.Event,
				RelativeTime:   rec.RelativeTime,
				DurationMillis: metaInt(rec.Metadata, "duration"),
				Cached:         metaString(rec.Metadata, "cacheStatus") == "cached",
			}
			stats.ImageLoads = append(stats.ImageLoads, load)
			loadTotal += load.DurationMillis
			if load.DurationMillis > stats.MaxLoadMillis {
				stats.MaxLoadMillis = load.DurationMillis
			}
			if stats.MinLoadMillis == 0 || load.DurationMillis < stats.MinLoadMillis {
				stats.MinLoadMillis = load.DurationMillis
			}
		case "carousel_transition_complete":
			stats.TransitionCount++
		case "quote_transition_start":
			stats.QuoteTransitionCount++
		}
	}
	if n := len(stats.ImageLoads); n > 0 {
		stats.AvgLoadMillis = loadTotal / int64(n)
	}
	if len(events) > 0 {
		stats.SpanMillis = events[len(events)-1].RelativeTime - events[0].RelativeTime
	}
	return stats
}

func metaInt(meta map[string]any, key string) int64 {
	switch v := meta[key].(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case int64:
		return v
	default:
		return 0
	}
}

func metaString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}
