// Package dispatch resolves which actions fire for a verification outcome
// and executes them, best-effort, against their channels. Selection is a
// pure computation over the workflow and the summary; only the transport
// calls have side effects.
package dispatch

import (
	"github.com/agentops/pdpguard/pkg/spec"
	"github.com/agentops/pdpguard/pkg/verify"
)

// Selection is the chosen branch: the trigger that fired and the ordered
// action list to execute. It is a read-only view derived from the
// workflow; it never aliases into a mutable structure.
type Selection struct {
	Trigger spec.Trigger  `json:"trigger"`
	Actions []spec.Action `json:"actions"`
	// Matched reports whether an explicit condition matched; false means
	// the workflow's default actions were used.
	Matched bool `json:"matched"`
}

// Select picks the action set for a verification summary.
//
// Any failed target selects the primary check's onFail condition when one
// exists; a clean run selects its onPass condition. Without a matching
// condition the workflow's default actions apply, with Trigger still
// reporting the outcome for observability. Select is total: a validated
// workflow guarantees non-empty default actions, so the returned action
// list is never empty.
func Select(w *spec.Workflow, summary verify.Summary) Selection {
	trigger := spec.OnPass
	if summary.Passed < summary.Total {
		trigger = spec.OnFail
	}

	if cond := w.Primary().ConditionFor(trigger); cond != nil {
		return Selection{Trigger: trigger, Actions: cond.Actions, Matched: true}
	}
	return Selection{Trigger: trigger, Actions: w.Actions}
}
