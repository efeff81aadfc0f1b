// Package server exposes plans, route resolution and runs over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/specialistvlad/cascade/internal/app"
	"github.com/specialistvlad/cascade/internal/ctxlog"
	"github.com/specialistvlad/cascade/internal/progress"
	"github.com/specialistvlad/cascade/internal/route"
)

// Backend is the part of the App the handlers need.
type Backend interface {
	Plan(ctx context.Context, force bool) (*app.Plan, error)
	Resolve(ctx context.Context, pathname string) (*route.Match, bool, error)
	Run(ctx context.Context, opts app.RunOptions, sinks ...progress.Sink) (*app.Report, error)
}

// Server routes requests to a Backend.
type Server struct {
	backend Backend
	ctx     context.Context
}

// New creates a server. ctx supplies the logger for every request.
func New(ctx context.Context, backend Backend) *Server {
	return &Server{backend: backend, ctx: ctx}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /plan", s.plan)
	mux.HandleFunc("GET /resolve", s.resolve)
	mux.HandleFunc("POST /runs", s.runs)
	return mux
}

// requestContext carries the request's cancellation and the server logger.
func (s *Server) requestContext(r *http.Request) context.Context {
	return ctxlog.WithLogger(r.Context(), ctxlog.FromContext(s.ctx).With("path", r.URL.Path))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(s.ctx).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) plan(w http.ResponseWriter, r *http.Request) {
	ctx := s.requestContext(r)
	force, err := boolParam(r, "force")
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	p, err := s.backend.Plan(ctx, force)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, p)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	ctx := s.requestContext(r)
	pathname := r.URL.Query().Get("path")
	if pathname == "" {
		writeError(ctx, w, http.StatusBadRequest, errors.New("missing path parameter"))
		return
	}
	m, ok, err := s.backend.Resolve(ctx, pathname)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeError(ctx, w, http.StatusNotFound, fmt.Errorf("no route matches %q", pathname))
		return
	}
	writeJSON(ctx, w, http.StatusOK, matchResponse{
		Path:    m.Path,
		Pattern: m.Pattern(),
		Kind:    m.Kind,
		Params:  m.Params,
	})
}

type matchResponse struct {
	Path    string            `json:"path"`
	Pattern string            `json:"pattern"`
	Kind    route.Kind        `json:"kind"`
	Params  map[string]string `json:"params"`
}

// runs streams the events of a run as NDJSON. The status line is only
// written with the first event, so a run that cannot start still gets a
// proper error status.
func (s *Server) runs(w http.ResponseWriter, r *http.Request) {
	ctx := s.requestContext(r)
	force, err := boolParam(r, "force")
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, err)
		return
	}

	stream := newStreamSink(w)
	_, err = s.backend.Run(ctx, app.RunOptions{Force: force}, stream)
	if stream.started() {
		if err != nil {
			ctxlog.FromContext(ctx).Debug("Streamed run ended with an error.", "error", err)
		}
		return
	}
	switch {
	case errors.Is(err, app.ErrLocked):
		writeError(ctx, w, http.StatusConflict, err)
	case err != nil:
		writeError(ctx, w, http.StatusInternalServerError, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// streamSink writes events as NDJSON, flushing after each one.
type streamSink struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	json    *progress.JSONSink
	flusher http.Flusher
	wrote   bool
}

func newStreamSink(w http.ResponseWriter) *streamSink {
	f, _ := w.(http.Flusher)
	return &streamSink{w: w, json: progress.NewJSONSink(w), flusher: f}
}

func (s *streamSink) Publish(ctx context.Context, ev progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.wrote {
		s.w.Header().Set("Content-Type", "application/x-ndjson")
		s.w.WriteHeader(http.StatusOK)
		s.wrote = true
	}
	if err := s.json.Publish(ctx, ev); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

func (s *streamSink) started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wrote
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s parameter %q", name, v)
	}
	return b, nil
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to write response.", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	ctxlog.FromContext(ctx).Debug("Request failed.", "status", status, "error", err)
	writeJSON(ctx, w, status, map[string]string{"error": err.Error()})
}
