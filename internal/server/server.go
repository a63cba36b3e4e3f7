// Package server exposes enrichment runs over HTTP: start a batch, poll
// its latest snapshot, stream snapshots as server-sent events, and
// download the finished table.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hanbinChen97/find-the-company/internal/export"
	"github.com/hanbinChen97/find-the-company/internal/model"
	"github.com/hanbinChen97/find-the-company/internal/scheduler"
)

// Runner is one enrichment batch. The server builds a fresh one per run
// because a scheduler instance owns a single run's state.
type Runner interface {
	Run(ctx context.Context, identifiers []model.Identifier, mode scheduler.Mode) <-chan model.Snapshot
}

// RunnerFactory builds the Runner for a new API run.
type RunnerFactory func() Runner

// Server routes run lifecycle requests to a registry of live and finished
// runs. Run state never survives a restart.
type Server struct {
	newRunner RunnerFactory
	registry  *registry
}

// New creates a Server that starts runs through the given factory.
func New(newRunner RunnerFactory) *Server {
	return &Server{
		newRunner: newRunner,
		registry:  newRegistry(),
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Last-Event-ID"},
	}))

	r.Get("/health", s.health)
	r.Post("/api/runs", s.createRun)
	r.Get("/api/runs/{id}", s.getRun)
	r.Get("/api/runs/{id}/events", s.streamEvents)
	r.Get("/api/runs/{id}/export", s.exportRun)
	r.Post("/api/runs/{id}/cancel", s.cancelRun)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRunRequest struct {
	Names []string `json:"names"`
	Mode  string   `json:"mode"`
}

type createRunResponse struct {
	RunID string      `json:"run_id"`
	Phase model.Phase `json:"phase"`
	Total int         `json:"total"`
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	mode := scheduler.Mode(req.Mode)
	if mode == "" {
		mode = scheduler.ModeSearch
	}
	switch mode {
	case scheduler.ModeDirectory, scheduler.ModeSearch, scheduler.ModeFull:
	default:
		http.Error(w, `{"error":"unknown mode"}`, http.StatusBadRequest)
		return
	}

	identifiers := model.NewIdentifiers(req.Names)
	if len(identifiers) == 0 {
		http.Error(w, `{"error":"names is required"}`, http.StatusBadRequest)
		return
	}

	run := s.registry.create()
	snapshots := s.newRunner().Run(run.ctx, identifiers, mode)
	go run.consume(snapshots)

	zap.L().Info("run started",
		zap.String("run_id", run.id),
		zap.String("mode", string(mode)),
		zap.Int("total", len(identifiers)),
	)
	writeJSON(w, http.StatusAccepted, createRunResponse{
		RunID: run.id,
		Phase: model.PhaseValidating,
		Total: len(identifiers),
	})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.registry.get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run.latest())
}

func (s *Server) cancelRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.registry.get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
		return
	}
	run.cancel()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) exportRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.registry.get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
		return
	}
	snap := run.latest()
	if !snap.Progress.Phase.Terminal() {
		http.Error(w, `{"error":"run not finished"}`, http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)
	if err := export.WriteCSV(w, snap.Table); err != nil {
		zap.L().Error("run export failed", zap.String("run_id", run.id), zap.Error(err))
	}
}

func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	run, ok := s.registry.get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
		return
	}

	flusher, flushable := w.(http.Flusher)
	if !flushable {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Current state first, so late subscribers start from a full picture.
	snap, done, sub := run.subscribe()
	sendSSE(w, snap)
	flusher.Flush()
	if done {
		return
	}
	defer run.unsubscribe(sub)

	ctx := r.Context()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case snap, open := <-sub:
			if !open {
				return
			}
			sendSSE(w, snap)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func sendSSE(w http.ResponseWriter, snap model.Snapshot) {
	payload, _ := json.Marshal(snap)
	fmt.Fprint(w, "event: snapshot\n")
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		_ = srv.Shutdown(context.Background())
	}()

	zap.L().Info("starting server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}
