// Package sessionstore persists a per-session summary of collected
// telemetry in SQLite, so viewing sessions survive daemon restarts and
// can be listed without replaying the raw JSONL logs.
package sessionstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the schema changes; mismatched databases
// must be deleted and rebuilt.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// version of this package.
var ErrSchemaMismatch = errors.New("session db schema version mismatch")

// Session is one viewer session summarized from its telemetry events.
type Session struct {
	SessionID  string
	StartedAt  time.Time
	LastSeenAt time.Time
	EventCount int64
	LastEvent  string
	ClientIP   string
	// InitMillis is the app_init_complete relative time, when observed.
	InitMillis sql.NullInt64
}

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the session database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// RecordEvent folds one accepted telemetry event into its session row,
// creating the row on first sight.
func (s *Store) RecordEvent(ctx context.Context, sessionID, event, clientIP string, receivedAt time.Time, relativeMillis int64) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	timestamp := receivedAt.UTC().Format(time.RFC3339Nano)

	var initMillis any
	if event == "app_init_complete" {
		initMillis = relativeMillis
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, started_at, last_seen_at, event_count, last_event, client_ip, init_ms)
         VALUES (?, ?, ?, 1, ?, ?, ?)
         ON CONFLICT(session_id) DO UPDATE SET
             last_seen_at = excluded.last_seen_at,
             event_count = event_count + 1,
             last_event = excluded.last_event,
             client_ip = excluded.client_ip,
             init_ms = COALESCE(excluded.init_ms, init_ms)`,
		sessionID, timestamp, timestamp, event, nullableString(clientIP), initMillis,
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Get fetches one session summary.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, started_at, last_seen_at, event_count, last_event, client_ip, init_ms
         FROM sessions WHERE session_id = ?`, sessionID)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch session: %w", err)
	}
	return sess, nil
}

// List returns up to limit sessions, most recently active first.
func (s *Store) List(ctx context.Context, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, started_at, last_seen_at, event_count, last_event, client_ip, init_ms
         FROM sessions ORDER BY last_seen_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// Prune deletes sessions last seen before the cutoff and reports how
// many rows were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE last_seen_at < ?",
		cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess       Session
		startedAt  string
		lastSeenAt string
		lastEvent  sql.NullString
		clientIP   sql.NullString
	)
	if err := row.Scan(&sess.SessionID, &startedAt, &lastSeenAt, &sess.EventCount, &lastEvent, &clientIP, &sess.InitMillis); err != nil {
		return nil, err
	}
	var err error
	if sess.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if sess.LastSeenAt, err = time.Parse(time.RFC3339Nano, lastSeenAt); err != nil {
		return nil, fmt.Errorf("parse last_seen_at: %w", err)
	}
	sess.LastEvent = lastEvent.String
	sess.ClientIP = clientIP.String
	return &sess, nil
}

func nullableString(value string) any {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return value
}
