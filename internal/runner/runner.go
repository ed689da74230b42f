// Package runner orchestrates a full verification run: schedule the
// checks, select the branch, dispatch the actions, and record the run.
// The CLI and the HTTP API both drive runs through this facade so the
// two entry points cannot drift.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentops/pdpguard/internal/history"
	"github.com/agentops/pdpguard/pkg/dispatch"
	"github.com/agentops/pdpguard/pkg/events"
	"github.com/agentops/pdpguard/pkg/spec"
	"github.com/agentops/pdpguard/pkg/verify"
)

// Runner wires the verification scheduler to branch selection, dispatch,
// events, and the run log.
type Runner struct {
	scheduler *verify.Scheduler
	registry  *dispatch.Registry
	bus       events.Bus
	store     *history.Store // nil disables persistence
	logger    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithBus sets the event bus runs publish to.
func WithBus(bus events.Bus) Option {
	return func(r *Runner) { r.bus = bus }
}

// WithStore sets the run log. Without one, runs are not persisted.
func WithStore(store *history.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New creates a Runner around a scheduler and a dispatcher registry.
func New(scheduler *verify.Scheduler, registry *dispatch.Registry, opts ...Option) *Runner {
	r := &Runner{
		scheduler: scheduler,
		registry:  registry,
		bus:       events.NewMemoryBus(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is the complete outcome of one run.
type Result struct {
	RunID     string             `json:"runId"`
	Name      string             `json:"name"`
	StartedAt time.Time          `json:"startedAt"`
	Verdicts  []verify.Verdict   `json:"verdicts"`
	Summary   verify.Summary     `json:"summary"`
	Selection dispatch.Selection `json:"selection"`
	Dispatch  *dispatch.Result   `json:"dispatch,omitempty"`
}

// Simulate verifies the workflow's targets and selects the branch without
// dispatching any action or touching the run log.
func (r *Runner) Simulate(ctx context.Context, w *spec.Workflow) (*Result, error) {
	if err := spec.Validate(w).First(); err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	res := r.verifyAndSelect(ctx, w)
	return res, nil
}

// Run executes the workflow end to end: verify, select, dispatch, record.
// Dispatch failures do not fail the run; they are reported per action in
// the result.
func (r *Runner) Run(ctx context.Context, w *spec.Workflow) (*Result, error) {
	if err := spec.Validate(w).First(); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	res := r.verifyAndSelect(ctx, w)

	payload := dispatch.Payload{
		Report:   res.Verdicts,
		Summary:  res.Summary,
		SpecName: w.Name,
	}
	dres := r.registry.Run(ctx, res.Selection, payload)
	res.Dispatch = &dres
	r.bus.Publish(events.New(events.EventDispatchResult, res.RunID, dres))
	r.logger.Info("dispatch finished",
		"run_id", res.RunID, "actions", len(dres.Outcomes), "delivered", dres.OK())

	if r.store != nil {
		rec := &history.Record{
			ID:        res.RunID,
			Name:      w.Name,
			StartedAt: res.StartedAt,
			Verdicts:  res.Verdicts,
			Summary:   res.Summary,
			Trigger:   res.Selection.Trigger,
			Outcomes:  dres.Outcomes,
		}
		if err := r.store.Save(rec); err != nil {
			r.logger.Error("save run", "run_id", res.RunID, "error", err)
		}
	}

	r.bus.Publish(events.New(events.EventRunComplete, res.RunID, res.Summary))
	return res, nil
}

// verifyAndSelect runs the verification batch and picks the branch. It is
// the shared core of Simulate and Run.
func (r *Runner) verifyAndSelect(ctx context.Context, w *spec.Workflow) *Result {
	check := w.Primary()
	res := &Result{
		RunID:     history.NewID(),
		Name:      w.Name,
		StartedAt: time.Now(),
	}

	r.bus.Publish(events.New(events.EventRunStart, res.RunID, w.Name))
	r.logger.Info("run started",
		"run_id", res.RunID, "name", w.Name, "targets", len(check.URLs))

	timeout := time.Duration(w.Guardrails.TimeoutSec) * time.Second
	res.Verdicts = r.scheduler.RunBatch(ctx, check.URLs, check.Assertions, timeout)
	for _, v := range res.Verdicts {
		r.bus.Publish(events.New(events.EventRunVerdict, res.RunID, v))
	}

	res.Summary = verify.Summarize(res.Verdicts)
	res.Selection = dispatch.Select(w, res.Summary)
	r.bus.Publish(events.New(events.EventBranchSelected, res.RunID, res.Selection))
	r.logger.Info("branch selected",
		"run_id", res.RunID, "trigger", res.Selection.Trigger,
		"passed", res.Summary.Passed, "total", res.Summary.Total)

	return res
}
