// Package api serves the recorded spray-run history over HTTP.
package api

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/spray.report/internal/httputil"
	"github.com/banshee-data/spray.report/internal/monitoring"
	"github.com/banshee-data/spray.report/internal/render"
	"github.com/banshee-data/spray.report/internal/spray"
	"github.com/banshee-data/spray.report/internal/store"
	"github.com/banshee-data/spray.report/internal/version"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500
)

// Server exposes run history from a store and, optionally, a Prometheus
// gatherer on /metrics.
type Server struct {
	store    *store.Store
	gatherer prometheus.Gatherer
}

// NewServer serves runs from st. gatherer may be nil to omit /metrics.
func NewServer(st *store.Store, gatherer prometheus.Gatherer) *Server {
	return &Server{store: st, gatherer: gatherer}
}

// ServeMux returns the routes:
//
//	GET    /api/runs?limit=N
//	GET    /api/runs/{id}
//	DELETE /api/runs/{id}
//	GET    /api/runs/{id}/visits
//	GET    /api/runs/{id}/chart
//	GET    /api/version
//	GET    /metrics
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/runs/", s.handleRunByID)
	mux.HandleFunc("/api/version", s.handleVersion)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// LoggingMiddleware logs method, path, status and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf("[api] %d %s %s %.2fms", lrw.statusCode, r.Method, r.RequestURI,
			float64(time.Since(start).Nanoseconds())/1e6)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// ListenAndServe serves until ctx is cancelled, then shuts down with a
// one second grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           LoggingMiddleware(s.ServeMux()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("[api] listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	monitoring.Logf("[api] shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("[api] HTTP server shutdown error: %v", err)
		return server.Close()
	}
	return nil
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

// handleRuns handles GET /api/runs.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	limit, err := httputil.QueryLimit(r, defaultListLimit, maxListLimit)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, "failed to list runs", err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

// handleRunByID dispatches /api/runs/{id} and its sub-resources.
func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" || len(parts) > 2 {
		httputil.NotFound(w, "not found")
		return
	}
	id := parts[0]

	if len(parts) == 2 {
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w, http.MethodGet)
			return
		}
		switch parts[1] {
		case "visits":
			s.handleVisits(w, id)
		case "chart":
			s.handleChart(w, id)
		default:
			httputil.NotFound(w, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		run, ok := s.lookupRun(w, id)
		if ok {
			httputil.WriteJSONOK(w, run)
		}
	case http.MethodDelete:
		if err := s.store.DeleteRun(id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httputil.NotFound(w, "run not found")
				return
			}
			httputil.InternalServerError(w, "failed to delete run", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}

func (s *Server) lookupRun(w http.ResponseWriter, id string) (*store.Run, bool) {
	run, err := s.store.GetRun(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.NotFound(w, "run not found")
			return nil, false
		}
		httputil.InternalServerError(w, "failed to fetch run", err)
		return nil, false
	}
	return run, true
}

func (s *Server) handleVisits(w http.ResponseWriter, id string) {
	if _, ok := s.lookupRun(w, id); !ok {
		return
	}
	visits, err := s.store.VisitsByRun(id)
	if err != nil {
		httputil.InternalServerError(w, "failed to list visits", err)
		return
	}
	if visits == nil {
		visits = []store.Visit{}
	}
	httputil.WriteJSONOK(w, visits)
}

func (s *Server) handleChart(w http.ResponseWriter, id string) {
	run, ok := s.lookupRun(w, id)
	if !ok {
		return
	}
	visits, err := s.store.VisitsByRun(id)
	if err != nil {
		httputil.InternalServerError(w, "failed to list visits", err)
		return
	}

	scene, frames := ReplayRun(run, visits)
	var buf bytes.Buffer
	if err := render.RenderChart(&buf, scene, frames); err != nil {
		httputil.InternalServerError(w, "failed to render chart", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// ReplayRun rebuilds the renderer scene and frames of a stored run. The
// region and reference are not stored, so the default leaf outline and its
// centre are used.
func ReplayRun(run *store.Run, visits []store.Visit) (render.Scene, []spray.Frame) {
	summary := spray.CoverageSummary{
		TotalArea:         run.TotalArea,
		CoverageUnitArea:  run.CoverageUnitArea,
		RequiredPasses:    run.RequiredPasses,
		RequiredActuation: run.RequiredActuation,
	}
	scene := render.Scene{
		RunID:     run.RunID,
		Region:    spray.LeafVertices(run.Width, run.Height),
		Width:     run.Width,
		Height:    run.Height,
		Reference: spray.Point{X: run.Width / 2, Y: run.Height / 2},
		Summary:   summary,
	}

	frames := make([]spray.Frame, len(visits))
	scene.Targets = make([]spray.ScoredTarget, len(visits))
	var sprayed float64
	for i, v := range visits {
		t := spray.ScoredTarget{
			Target:   spray.Target{Position: spray.Point{X: v.X, Y: v.Y}, Size: v.Size},
			Distance: v.Distance,
			Angle:    v.Angle,
		}
		sprayed += v.Size
		scene.Targets[i] = t
		frames[i] = spray.Frame{
			Index:       i,
			Total:       len(visits),
			Target:      t,
			SprayedArea: sprayed,
			Summary:     summary,
		}
	}
	return scene, frames
}
