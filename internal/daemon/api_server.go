package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"breathe/internal/logging"
	"breathe/internal/rotation"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind string, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(bind),
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/manifest", srv.handleManifest)
	mux.HandleFunc("/api/state", srv.handleState)
	mux.HandleFunc("/api/events", srv.handleEvents)
	mux.HandleFunc("/api/input", srv.handleInput)
	mux.HandleFunc("/api/sessions", srv.handleSessions)
	mux.Handle("/api/log", d.collector)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is required")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"running":    status.Running,
		"bind":       status.Bind,
		"session_id": status.SessionID,
		"show":       status.Show,
	})
}

func (s *apiServer) handleManifest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	items, err := s.daemon.controller.Items()
	if err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *apiServer) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"show": s.daemon.controller.Snapshot(),
		"view": s.daemon.view.State(),
	})
}

// handleEvents serves the long-poll event stream. Clients pass the last
// sequence they saw; with wait=1 the request parks until something new
// is published or the poll window expires.
func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	since, _ := strconv.ParseUint(r.URL.Query().Get("since"), 10, 64)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	wait := r.URL.Query().Get("wait") == "1"

	ctx := r.Context()
	if wait {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	events, next, err := s.daemon.events.Fetch(ctx, since, limit, wait)
	if err != nil && len(events) == 0 && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"next":   next,
	})
}

type inputRequest struct {
	Type      string `json:"type"`
	Key       string `json:"key,omitempty"`
	Direction string `json:"direction,omitempty"`
}

func (s *apiServer) handleInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := s.daemon.showContext()
	ctrl := s.daemon.controller
	switch req.Type {
	case "key":
		if req.Key == "" {
			s.writeError(w, http.StatusBadRequest, "key is required")
			return
		}
		ctrl.HandleKey(ctx, req.Key)
	case "click":
		ctrl.HandleClick(ctx)
	case "swipe":
		dir, err := parseSwipe(req.Direction)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ctrl.HandleSwipe(ctx, dir)
	case "pause":
		ctrl.Pause()
	case "resume":
		ctrl.Resume(ctx)
	case "retry":
		if err := ctrl.Retry(ctx); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown input type %q", req.Type))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *apiServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := s.daemon.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	payload := make([]map[string]any, 0, len(sessions))
	for _, sess := range sessions {
		entry := map[string]any{
			"session_id":   sess.SessionID,
			"started_at":   sess.StartedAt,
			"last_seen_at": sess.LastSeenAt,
			"event_count":  sess.EventCount,
			"last_event":   sess.LastEvent,
			"client_ip":    sess.ClientIP,
		}
		if sess.InitMillis.Valid {
			entry["init_ms"] = sess.InitMillis.Int64
		}
		payload = append(payload, entry)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func parseSwipe(direction string) (rotation.SwipeDirection, error) {
	switch direction {
	case "left":
		return rotation.SwipeLeft, nil
	case "right":
		return rotation.SwipeRight, nil
	default:
		return rotation.SwipeNone, fmt.Errorf("unknown swipe direction %q", direction)
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("write response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{"error": message})
}
