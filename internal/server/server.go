package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cwbudde/evoshapes/internal/fit"
	"github.com/cwbudde/evoshapes/internal/store"
)

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	store      *store.FSStore // nil keeps jobs in memory only
	metrics    *Metrics
	addr       string
	server     *http.Server
	workers    sync.WaitGroup
}

// NewServer creates a new HTTP server. st may be nil.
func NewServer(addr string, st *store.FSStore) *Server {
	return &Server{
		jobManager: NewJobManager(),
		store:      st,
		metrics:    NewMetrics(),
		addr:       addr,
	}
}

// Handler returns the routed and wrapped handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("POST /api/v1/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /api/v1/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.handleGetJobStatus)
	mux.HandleFunc("GET /api/v1/jobs/{id}/status", s.handleGetJobStatus)
	mux.HandleFunc("DELETE /api/v1/jobs/{id}", s.handleCancelJob)
	mux.HandleFunc("GET /api/v1/jobs/{id}/best.png", s.handleGetBestImage)
	mux.HandleFunc("GET /api/v1/jobs/{id}/diff.png", s.handleGetDiffImage)
	mux.HandleFunc("GET /api/v1/jobs/{id}/stream", func(w http.ResponseWriter, r *http.Request) {
		s.handleJobStream(w, r, r.PathValue("id"))
	})

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown cancels running jobs, waits for their workers to write their
// final snapshot and then stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")

	for _, job := range s.jobManager.GetRunningJobs() {
		s.jobManager.CancelJob(job.ID)
	}

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("Workers did not finish before shutdown deadline")
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// submit registers and starts a job. The worker outlives the request.
func (s *Server) submit(config JobConfig) Job {
	ctx, cancel := context.WithCancel(context.Background())
	job := s.jobManager.CreateJob(config, cancel)

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		defer cancel()
		runJob(ctx, s.jobManager, s.store, s.metrics, job.ID)
	}()
	return job
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var config JobConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	if config.RefPath == "" {
		http.Error(w, "refPath is required", http.StatusBadRequest)
		return
	}
	config.applyDefaults()

	if err := config.evolveConfig().Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := fit.NewRasterizer(config.Backend); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := fit.CompareFuncFor(config.Metric); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := s.submit(config)
	writeJSON(w, http.StatusCreated, job)
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// JobStatus is the body of GET /api/v1/jobs/{id}/status
type JobStatus struct {
	Job
	Elapsed float64 `json:"elapsed"` // Seconds
	GPS     float64 `json:"gps"`     // Generations per second
}

// handleGetJobStatus handles GET /api/v1/jobs/{id}[/status]
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request) {
	job, exists := s.jobManager.GetJob(r.PathValue("id"))
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	status := JobStatus{Job: job, Elapsed: elapsed.Seconds()}
	if elapsed > 0 {
		status.GPS = float64(job.Generation) / elapsed.Seconds()
	}
	writeJSON(w, http.StatusOK, status)
}

// handleCancelJob handles DELETE /api/v1/jobs/{id}
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.jobManager.CancelJob(id); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			http.Error(w, "Job not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleGetBestImage handles GET /api/v1/jobs/{id}/best.png
func (s *Server) handleGetBestImage(w http.ResponseWriter, r *http.Request) {
	s.serveRender(w, r, func(ref, best *image.NRGBA) image.Image { return best })
}

// handleGetDiffImage handles GET /api/v1/jobs/{id}/diff.png
func (s *Server) handleGetDiffImage(w http.ResponseWriter, r *http.Request) {
	s.serveRender(w, r, func(ref, best *image.NRGBA) image.Image { return fit.DiffImage(ref, best) })
}

// serveRender encodes whatever view derives from the job's latest
// rendering of its fittest individual
func (s *Server) serveRender(w http.ResponseWriter, r *http.Request, view func(ref, best *image.NRGBA) image.Image) {
	job, exists := s.jobManager.GetJob(r.PathValue("id"))
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	img, ref := job.Images()
	if img == nil || ref == nil {
		http.Error(w, "No results yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")

	if err := png.Encode(w, view(ref, img)); err != nil {
		slog.Error("Failed to encode PNG", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
