package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentops/pdpguard/pkg/spec"
)

// Dispatcher executes one action variant against its external channel.
type Dispatcher interface {
	// Type returns the action variant this dispatcher handles.
	Type() string
	// Send delivers the payload for one action. The error is per-channel;
	// it never aborts the rest of the run.
	Send(ctx context.Context, action spec.Action, payload Payload) error
}

// Outcome is the per-action delivery result.
type Outcome struct {
	ActionType string `json:"type"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// Result collects the outcomes of one dispatch pass.
type Result struct {
	Outcomes []Outcome `json:"outcomes"`
}

// OK reports overall success: at least one channel delivered.
func (r Result) OK() bool {
	for _, o := range r.Outcomes {
		if o.OK {
			return true
		}
	}
	return false
}

// Registry holds dispatchers keyed by action type.
type Registry struct {
	mu          sync.RWMutex
	dispatchers map[string]Dispatcher
}

// NewRegistry creates an empty dispatcher registry.
func NewRegistry() *Registry {
	return &Registry{dispatchers: make(map[string]Dispatcher)}
}

// Register adds a dispatcher. Returns an error if the action type is
// already registered.
func (r *Registry) Register(d Dispatcher) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.dispatchers[d.Type()]; exists {
		return fmt.Errorf("dispatcher already registered: %s", d.Type())
	}
	r.dispatchers[d.Type()] = d
	return nil
}

// Resolve looks up the dispatcher for an action type.
func (r *Registry) Resolve(actionType string) (Dispatcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dispatchers[actionType]
	if !ok {
		return nil, fmt.Errorf("no dispatcher for action type %q", actionType)
	}
	return d, nil
}

// Run executes the selection's actions in order, best-effort. Every action
// gets an Outcome; a failing channel never stops the ones after it.
func (r *Registry) Run(ctx context.Context, sel Selection, payload Payload) Result {
	result := Result{Outcomes: make([]Outcome, 0, len(sel.Actions))}

	for _, action := range sel.Actions {
		outcome := Outcome{ActionType: action.Type}

		d, err := r.Resolve(action.Type)
		if err == nil {
			err = d.Send(ctx, action, payload)
		}
		if err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.OK = true
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result
}
