package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentops/pdpguard/pkg/spec"
	"github.com/agentops/pdpguard/pkg/verify"
)

// Diagnosis is the result of asking the model to explain a failed run.
type Diagnosis struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
	Text    string `json:"text,omitempty"`
}

// diagnoseTruncate bounds how much spec/report JSON goes into the prompt.
const diagnoseTruncate = 4000

// Diagnose asks the model for a likely root cause, a minimal fix snippet,
// and an on-call runbook for the failures in a report. Without an API key
// it returns a skipped diagnosis rather than an error — diagnosis is
// advisory, never load-bearing.
func (c *Client) Diagnose(ctx context.Context, w *spec.Workflow, verdicts []verify.Verdict) (Diagnosis, error) {
	if c.apiKey == "" {
		return Diagnosis{Skipped: true, Reason: "no_api_key"}, nil
	}

	specJSON, _ := json.Marshal(w)
	reportJSON, _ := json.Marshal(verdicts)
	prompt := strings.Join([]string{
		"You are a senior storefront engineer. Given failures on product pages, produce:",
		"1) A short, likely root cause (2-3 bullets).",
		"2) A minimal HTML/template snippet to restore the price or Add-to-Cart control.",
		"3) A 3-5 step runbook for the engineer on call.",
		"",
		"SPEC:\n" + truncate(string(specJSON), diagnoseTruncate),
		"REPORT:\n" + truncate(string(reportJSON), diagnoseTruncate),
	}, "\n")

	text, err := c.complete(ctx, prompt)
	if err != nil {
		return Diagnosis{}, fmt.Errorf("diagnose: %w", err)
	}
	return Diagnosis{Text: text}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
