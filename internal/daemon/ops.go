package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yangjiwoo8465/proj-hint-system/internal/runner"
)

// ReadyFunc reports whether the process can do useful work
type ReadyFunc func() bool

// RunControl inspects and stops in-flight sandbox runs; runner.Service implements it
type RunControl interface {
	IsRunning(id uuid.UUID) bool
	Cancel(id uuid.UUID) error
	Wait(ctx context.Context, id uuid.UUID) error
}

// OpsServer serves /metrics, /healthz and run control for a worker process
type OpsServer struct {
	server *http.Server
}

// NewOpsServer creates the operational server. A nil ready is always ready
// and a nil runs leaves the /runs endpoints unregistered.
func NewOpsServer(addr string, ready ReadyFunc, runs RunControl) *OpsServer {
	return &OpsServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           OpsHandler(ready, runs),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
	}
}

// OpsHandler routes the operational endpoints behind the standard middleware chain
func OpsHandler(ready ReadyFunc, runs RunControl) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if ready != nil && !ready() {
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]string{"status": status})
	})
	if runs != nil {
		mux.HandleFunc("GET /runs/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := runID(w, r)
			if !ok {
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"id": id, "running": runs.IsRunning(id)})
		})
		mux.HandleFunc("POST /runs/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
			id, ok := runID(w, r)
			if !ok {
				return
			}
			if err := runs.Cancel(id); err != nil {
				code := http.StatusInternalServerError
				if errors.Is(err, runner.ErrNotRunning) {
					code = http.StatusNotFound
				}
				writeJSON(w, code, map[string]string{"error": err.Error()})
				return
			}
			// A client that stops waiting gets 202 while the run winds down.
			if err := runs.Wait(r.Context(), id); err != nil {
				writeJSON(w, http.StatusAccepted, map[string]any{"id": id, "status": "cancelling"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": "cancelled"})
		})
	}
	return requestIDMiddleware(recoveryMiddleware(loggingMiddleware(mux)))
}

func runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// Start blocks until the server stops. A clean shutdown returns nil.
func (s *OpsServer) Start() error {
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *OpsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
