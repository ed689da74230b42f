package dispatch

import (
	"testing"

	"github.com/agentops/pdpguard/pkg/spec"
	"github.com/agentops/pdpguard/pkg/verify"
)

func workflowWithConditions(conds ...spec.Condition) *spec.Workflow {
	return &spec.Workflow{
		Name: "PDP Guard",
		Checks: []spec.Check{{
			Type:       spec.CheckTypePDP,
			URLs:       []string{"https://shop.example.com/products/widget"},
			Assertions: spec.Assertions{Price: true},
			Conditions: conds,
		}},
		Actions: []spec.Action{{Type: spec.ActionSlack, Channel: "#ops", Template: "default"}},
	}
}

func TestSelectOnFailCondition(t *testing.T) {
	onFail := spec.Condition{
		Trigger: spec.OnFail,
		Actions: []spec.Action{{Type: spec.ActionSlack, Channel: "#incidents", Template: "failures"}},
	}
	w := workflowWithConditions(onFail)

	sel := Select(w, verify.Summary{Total: 3, Passed: 2, Failed: 1})
	if sel.Trigger != spec.OnFail {
		t.Errorf("Trigger = %q, want onFail", sel.Trigger)
	}
	if !sel.Matched {
		t.Error("Matched = false, want explicit condition match")
	}
	if len(sel.Actions) != 1 || sel.Actions[0].Channel != "#incidents" {
		t.Errorf("Actions = %+v, want the onFail condition's actions", sel.Actions)
	}
}

func TestSelectOnPassCondition(t *testing.T) {
	onPass := spec.Condition{
		Trigger: spec.OnPass,
		Actions: []spec.Action{{Type: spec.ActionSlack, Channel: "#green", Template: "ok"}},
	}
	w := workflowWithConditions(onPass)

	sel := Select(w, verify.Summary{Total: 3, Passed: 3})
	if sel.Trigger != spec.OnPass || !sel.Matched {
		t.Errorf("selection = %+v, want matched onPass", sel)
	}
	if sel.Actions[0].Channel != "#green" {
		t.Errorf("Actions = %+v", sel.Actions)
	}
}

func TestSelectDefaultFallback(t *testing.T) {
	tests := []struct {
		name        string
		summary     verify.Summary
		conds       []spec.Condition
		wantTrigger spec.Trigger
	}{
		{"no conditions all passed", verify.Summary{Total: 2, Passed: 2}, nil, spec.OnPass},
		{"no conditions some failed", verify.Summary{Total: 2, Passed: 1, Failed: 1}, nil, spec.OnFail},
		{"only onFail condition but all passed", verify.Summary{Total: 2, Passed: 2},
			[]spec.Condition{{Trigger: spec.OnFail, Actions: []spec.Action{{Type: spec.ActionSlack, Channel: "#x", Template: "t"}}}},
			spec.OnPass},
		{"only onPass condition but one failed", verify.Summary{Total: 2, Passed: 1, Failed: 1},
			[]spec.Condition{{Trigger: spec.OnPass, Actions: []spec.Action{{Type: spec.ActionSlack, Channel: "#x", Template: "t"}}}},
			spec.OnFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := workflowWithConditions(tt.conds...)
			sel := Select(w, tt.summary)
			if sel.Trigger != tt.wantTrigger {
				t.Errorf("Trigger = %q, want %q", sel.Trigger, tt.wantTrigger)
			}
			if sel.Matched {
				t.Error("Matched = true, want default fallback")
			}
			if len(sel.Actions) != 1 || sel.Actions[0].Template != "default" {
				t.Errorf("Actions = %+v, want workflow defaults", sel.Actions)
			}
		})
	}
}

func TestSelectTotality(t *testing.T) {
	// With validated (non-empty) default actions, Select never returns an
	// empty action list for any summary shape.
	w := workflowWithConditions()
	summaries := []verify.Summary{
		{},
		{Total: 1, Passed: 1},
		{Total: 1, Failed: 1},
		{Total: 50, Passed: 25, Failed: 25},
	}
	for _, sum := range summaries {
		if sel := Select(w, sum); len(sel.Actions) == 0 {
			t.Errorf("empty action list for summary %+v", sum)
		}
	}
}
