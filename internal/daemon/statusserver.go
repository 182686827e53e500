package daemon

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scicoord/ssgfx/internal/blank"
	"github.com/scicoord/ssgfx/internal/health"
	"github.com/scicoord/ssgfx/internal/status"
)

// statusServer exposes the coordinator's shared status record (spec.md §5)
// to a hosting UI process that can't hold an in-process pointer to it —
// GET /status, GET /healthz, GET /metrics, the same trio the teacher's API
// server assembles from chi middleware plus promhttp.
type statusServer struct {
	rec      *status.Record
	checker  *health.Checker
	blankMon *blank.Monitor
	runID    string
}

func newStatusServer(rec *status.Record, checker *health.Checker, blankMon *blank.Monitor, runID string) *statusServer {
	return &statusServer{rec: rec, checker: checker, blankMon: blankMon, runID: runID}
}

func (s *statusServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/status", s.handleStatus)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *statusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.rec.Snapshot()
	body := map[string]any{
		"run_id":         s.runID,
		"stop_requested": snap.StopRequested,
		"stopped":        snap.Stopped,
		"error_mode":     snap.ErrorMode,
		"error_code":     snap.ErrorCode,
		"phase":          snap.Phase,
		"pid":            snap.Pid,
	}
	if s.blankMon != nil {
		body["idle_seconds"] = s.blankMon.IdleDuration().Seconds()
		body["has_display"] = s.blankMon.HasDisplay()
		body["screen_locked"] = s.blankMon.ScreenLocked()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *statusServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.checker != nil && !s.checker.IsHealthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"healthy": false,
			"checks":  s.checker.Statuses(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"healthy": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
