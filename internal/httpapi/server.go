// Package httpapi serves the playground HTTP API: the compile contract,
// the execution event stream, and persisted view preferences.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"pkt.systems/pslog"

	"github.com/kpumuk/treescope/internal/compile"
	"github.com/kpumuk/treescope/internal/run"
	"github.com/kpumuk/treescope/internal/session"
	"github.com/kpumuk/treescope/internal/viewstate"
)

const (
	shutdownTimeout = 5 * time.Second
	maxRequestBytes = 8 << 20
)

// Config defines HTTP API settings.
type Config struct {
	Addr string
}

// Server exposes the playground API over HTTP.
type Server struct {
	cfg     Config
	backend compile.Client
	sess    *session.Session
	runner  *run.Manager
	view    *viewstate.Coordinator
}

// NewServer constructs an HTTP server. sess, runner and view may be nil when
// the corresponding subsystem is disabled.
func NewServer(cfg Config, backend compile.Client, sess *session.Session, runner *run.Manager, view *viewstate.Coordinator) *Server {
	return &Server{
		cfg:     cfg,
		backend: backend,
		sess:    sess,
		runner:  runner,
		view:    view,
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/compile", s.handleCompile)
	mux.HandleFunc("POST /api/source", s.handleSource)
	mux.HandleFunc("GET /api/results", s.handleResults)
	mux.HandleFunc("POST /api/run", s.handleRun)
	mux.HandleFunc("GET /api/prefs", s.handleGetPrefs)
	mux.HandleFunc("PUT /api/prefs", s.handlePutPrefs)
	return withRequestLogging(mux)
}

// ListenAndServe starts the server and shuts it down on context
// cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	logger := pslog.Ctx(ctx)
	server := &http.Server{
		Addr:     s.cfg.Addr,
		Handler:  s.Handler(),
		ErrorLog: pslog.LogLoggerWithLevel(logger, pslog.ErrorLevel),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	logger.Info("http api listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type compileRequest struct {
	Source string        `json:"source"`
	Stage  compile.Stage `json:"stage"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Stage == "" {
		req.Stage = compile.StageAll
	}
	if !req.Stage.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid stage %q", req.Stage))
		return
	}

	outcome, err := s.backend.Compile(r.Context(), req.Source, req.Stage)
	if err != nil {
		// Transport failure: no partial data, error envelope only.
		writeJSON(w, http.StatusBadGateway, compile.Outcome{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type runRequest struct {
	Source string `json:"source"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		writeError(w, http.StatusNotImplemented, "execution subsystem disabled")
		return
	}
	var req runRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range s.runner.Run(r.Context(), req.Source) {
		if !writeEvent(w, flusher, ev) {
			return
		}
	}
}

func (s *Server) handleGetPrefs(w http.ResponseWriter, _ *http.Request) {
	if s.view == nil {
		writeError(w, http.StatusNotImplemented, "view state disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.view.Snapshot())
}

func (s *Server) handlePutPrefs(w http.ResponseWriter, r *http.Request) {
	if s.view == nil {
		writeError(w, http.StatusNotImplemented, "view state disabled")
		return
	}
	var req viewstate.Persisted
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.view.SetAll(req))
}

func decodeBody(r *http.Request, v any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(raw) == 0 {
		return errors.New("empty request body")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
