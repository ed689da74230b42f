package dispatch

import (
	"fmt"
	"strings"

	"github.com/agentops/pdpguard/pkg/spec"
	"github.com/agentops/pdpguard/pkg/verify"
)

// AllPassedLine is the sentinel line used when no target failed.
const AllPassedLine = "All checks passed ✅"

// Payload is the rendered verification outcome handed to every dispatcher.
type Payload struct {
	Title    string           `json:"title"`
	Report   []verify.Verdict `json:"report"`
	Summary  verify.Summary   `json:"summary"`
	SpecName string           `json:"specName,omitempty"`
}

// applyTemplate overrides the payload title with the action's template,
// when set. Every other field carries through unchanged.
func applyTemplate(action spec.Action, payload Payload) Payload {
	if action.Template != "" {
		payload.Title = action.Template
	}
	return payload
}

// AlertText renders the payload as a plain-text alert: the title, then one
// bullet per failed target, or the all-passed sentinel.
func (p Payload) AlertText() string {
	title := p.Title
	if title == "" {
		title = "PDP Guard results"
	}

	var lines []string
	for _, v := range p.Report {
		if v.Passed {
			continue
		}
		lines = append(lines, fmt.Sprintf("• %s — %s", v.Target, strings.Join(v.FailureCodes, ", ")))
	}
	if len(lines) == 0 {
		lines = []string{AllPassedLine}
	}

	return title + "\n\n" + strings.Join(lines, "\n")
}
