package sessionstore

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"breathe/internal/collector"
	"breathe/internal/logging"
)

// CollectorSink folds accepted collector entries into the session
// store. Failures are logged and dropped so ingest never stalls on the
// database.
type CollectorSink struct {
	store  *Store
	logger *slog.Logger
}

// NewCollectorSink wires the store behind the collector endpoint.
func NewCollectorSink(store *Store, logger *slog.Logger) *CollectorSink {
	return &CollectorSink{
		store:  store,
		logger: logging.NewComponentLogger(logger, "sessionstore"),
	}
}

// Record implements collector.Sink.
func (s *CollectorSink) Record(entry collector.Entry) {
	sessionID, _ := entry["sessionId"].(string)
	event, _ := entry["event"].(string)
	clientIP, _ := entry["clientIp"].(string)

	receivedAt := time.Now().UTC()
	if raw, ok := entry["receivedAt"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			receivedAt = parsed
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.store.RecordEvent(ctx, sessionID, event, clientIP, receivedAt, relativeMillis(entry))
	if err != nil {
		s.logger.Warn("session record failed",
			logging.Error(err),
			logging.String(logging.FieldSessionID, sessionID),
			logging.String(logging.FieldEventType, event),
		)
	}
}

func relativeMillis(entry collector.Entry) int64 {
	switch v := entry["relativeTime"].(type) {
	case json.Number:
		ms, _ := v.Int64()
		return ms
	case float64:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}
