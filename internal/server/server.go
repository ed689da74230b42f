// Package server exposes the guard over HTTP: compile prompts into
// workflows, simulate or execute them, discover product pages, and
// review past runs. Events stream to clients over SSE.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/agentops/pdpguard/internal/history"
	"github.com/agentops/pdpguard/internal/runner"
	"github.com/agentops/pdpguard/pkg/compiler"
	"github.com/agentops/pdpguard/pkg/crawl"
	"github.com/agentops/pdpguard/pkg/events"
	"github.com/agentops/pdpguard/pkg/spec"
	"github.com/agentops/pdpguard/pkg/verify"
)

// Server is the guard's HTTP API.
type Server struct {
	runner   *runner.Runner
	compiler *compiler.Client
	fetcher  *verify.Fetcher
	store    *history.Store // nil disables /api/runs
	bus      events.Bus
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New creates the API server. store may be nil when persistence is
// disabled.
func New(run *runner.Runner, comp *compiler.Client, fetcher *verify.Fetcher, store *history.Store, bus events.Bus, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner:   run,
		compiler: comp,
		fetcher:  fetcher,
		store:    store,
		bus:      bus,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /api/compile", s.handleCompile)
	s.mux.HandleFunc("POST /api/simulate", s.handleSimulate)
	s.mux.HandleFunc("POST /api/execute", s.handleExecute)
	s.mux.HandleFunc("POST /api/run", s.handleRun)
	s.mux.HandleFunc("POST /api/crawl", s.handleCrawl)
	s.mux.HandleFunc("POST /api/diagnose", s.handleDiagnose)
	s.mux.HandleFunc("GET /api/runs", s.handleRuns)
	s.mux.HandleFunc("GET /api/runs/{id}", s.handleRunByID)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/healthz", s.handleHealthz)

	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves the API on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("api listening", "addr", addr)
	return http.ListenAndServe(addr, s.mux)
}

// compileResponse wraps a compiled workflow with provenance flags.
type compileResponse struct {
	Workflow *spec.Workflow `json:"workflow"`
	Repaired bool           `json:"repaired,omitempty"`
	Fallback bool           `json:"fallback,omitempty"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required", "")
		return
	}

	resp, err := s.compile(r.Context(), body.Prompt)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "compile failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// compile runs the external compiler and falls back to the deterministic
// builder when it fails.
func (s *Server) compile(ctx context.Context, prompt string) (compileResponse, error) {
	wf, repaired, err := s.compiler.Compile(ctx, prompt)
	if err == nil {
		return compileResponse{Workflow: wf, Repaired: repaired}, nil
	}
	s.logger.Warn("compiler failed, using fallback", "error", err)

	wf, fbErr := compiler.Fallback(prompt)
	if fbErr != nil {
		return compileResponse{}, fmt.Errorf("%v (fallback: %v)", err, fbErr)
	}
	return compileResponse{Workflow: wf, Fallback: true}, nil
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	wf, ok := decodeWorkflow(w, r)
	if !ok {
		return
	}
	res, err := s.runner.Simulate(r.Context(), wf)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "simulate failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Workflow *spec.Workflow `json:"workflow"`
		Approved bool           `json:"approved,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Workflow == nil {
		writeError(w, http.StatusBadRequest, "workflow is required", "")
		return
	}
	body.Workflow.ApplyDefaults()
	body.Workflow.Normalize()

	if body.Workflow.RequireApproval && !body.Approved {
		writeError(w, http.StatusForbidden, "approval_required",
			"workflow requires approval; resubmit with approved=true")
		return
	}

	res, err := s.runner.Run(r.Context(), body.Workflow)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "run failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRun is the end-to-end path: compile the prompt, then execute the
// result. Approval-gated workflows are never auto-executed here.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required", "")
		return
	}

	compiled, err := s.compile(r.Context(), body.Prompt)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "compile failed", err.Error())
		return
	}
	if compiled.Workflow.RequireApproval {
		writeError(w, http.StatusForbidden, "approval_required",
			"compiled workflow requires approval; use /api/execute with approved=true")
		return
	}

	res, err := s.runner.Run(r.Context(), compiled.Workflow)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "run failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"workflow": compiled.Workflow,
		"fallback": compiled.Fallback,
		"result":   res,
	})
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
		Max int    `json:"max,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required", "")
		return
	}

	urls, err := crawl.Discover(r.Context(), s.fetcher, body.URL, body.Max)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "crawl failed", err.Error())
		return
	}
	s.bus.Publish(events.New(events.EventCrawlComplete, "", map[string]any{
		"seed": body.URL, "found": len(urls),
	}))
	writeJSON(w, http.StatusOK, map[string]any{"urls": urls})
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Workflow *spec.Workflow   `json:"workflow"`
		Verdicts []verify.Verdict `json:"verdicts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Workflow == nil {
		writeError(w, http.StatusBadRequest, "workflow is required", "")
		return
	}

	d, err := s.compiler.Diagnose(r.Context(), body.Workflow, body.Verdicts)
	if err != nil {
		writeError(w, http.StatusBadGateway, "diagnose failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []history.Record{})
		return
	}
	runs, err := s.store.List(50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list runs failed", err.Error())
		return
	}
	if runs == nil {
		runs = []history.Record{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "run not found", "")
		return
	}
	rec, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleEvents streams bus events to the client as Server-Sent Events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", "")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Snapshot the replay window before subscribing: an event published in
	// between would otherwise arrive twice, once from the snapshot and once
	// from the live channel.
	replay := s.bus.Recent(64)
	ch := s.bus.Subscribe()
	defer s.bus.Unsubscribe(ch)

	for _, ev := range replay {
		writeSSE(w, ev)
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeWorkflow(w http.ResponseWriter, r *http.Request) (*spec.Workflow, bool) {
	var body struct {
		Workflow *spec.Workflow `json:"workflow"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Workflow == nil {
		writeError(w, http.StatusBadRequest, "workflow is required", "")
		return nil, false
	}
	body.Workflow.ApplyDefaults()
	body.Workflow.Normalize()
	return body.Workflow, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
