package spec

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a single validation failure at a field path.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult holds all validation errors for a workflow.
type ValidationResult struct {
	Errors []ValidationError
}

// Valid returns true if no validation errors were found.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// First returns the first violated field as a structured error, or nil.
// The engine never silently repairs an invalid workflow; callers surface
// this error as-is.
func (r ValidationResult) First() error {
	if r.Valid() {
		return nil
	}
	return r.Errors[0]
}

// Error returns a combined error message from all validation errors.
func (r ValidationResult) Error() string {
	if r.Valid() {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// Validate checks a Workflow for required fields and structural
// correctness. Errors are collected in field order, so Errors[0] names the
// first violated field path.
func Validate(w *Workflow) ValidationResult {
	var result ValidationResult
	add := func(field, msg string) {
		result.Errors = append(result.Errors, ValidationError{Field: field, Message: msg})
	}

	if strings.TrimSpace(w.Name) == "" {
		add("name", "required")
	}

	if len(w.Checks) == 0 {
		add("checks", "at least one check is required")
	}
	for i, c := range w.Checks {
		path := fmt.Sprintf("checks[%d]", i)

		if c.Type != CheckTypePDP {
			add(path+".type", fmt.Sprintf("unsupported check type %q (expected %s)", c.Type, CheckTypePDP))
		}
		if len(c.URLs) == 0 {
			add(path+".urls", "at least one URL is required")
		}
		if w.Guardrails.MaxURLs > 0 && len(c.URLs) > w.Guardrails.MaxURLs {
			add(path+".urls", fmt.Sprintf("%d URLs exceeds guardrails.max_urls %d", len(c.URLs), w.Guardrails.MaxURLs))
		}
		for j, u := range c.URLs {
			if err := validateTargetURL(u); err != nil {
				add(fmt.Sprintf("%s.urls[%d]", path, j), err.Error())
			}
		}
		if !c.Assertions.Enabled() {
			add(path+".assertions", "at least one of price, atc, text_includes must be set")
		}
		seen := make(map[Trigger]bool)
		for j, cond := range c.Conditions {
			condPath := fmt.Sprintf("%s.conditions[%d]", path, j)
			if cond.Trigger != OnPass && cond.Trigger != OnFail {
				add(condPath+".trigger", fmt.Sprintf("unknown trigger %q", cond.Trigger))
			} else if seen[cond.Trigger] {
				add(condPath+".trigger", fmt.Sprintf("duplicate trigger %q", cond.Trigger))
			}
			seen[cond.Trigger] = true
			if len(cond.Actions) == 0 {
				add(condPath+".actions", "at least one action is required")
			}
			for k, a := range cond.Actions {
				validateAction(&result, fmt.Sprintf("%s.actions[%d]", condPath, k), a)
			}
		}
	}

	if len(w.Actions) == 0 {
		add("actions", "at least one default action is required")
	}
	for i, a := range w.Actions {
		validateAction(&result, fmt.Sprintf("actions[%d]", i), a)
	}

	g := w.Guardrails
	if g.TimeoutSec < MinTimeoutSec || g.TimeoutSec > MaxTimeoutSec {
		add("guardrails.timeout_sec", fmt.Sprintf("%d outside bounds [%d, %d]", g.TimeoutSec, MinTimeoutSec, MaxTimeoutSec))
	}
	if g.MaxURLs < MinMaxURLs || g.MaxURLs > MaxMaxURLs {
		add("guardrails.max_urls", fmt.Sprintf("%d outside bounds [%d, %d]", g.MaxURLs, MinMaxURLs, MaxMaxURLs))
	}

	return result
}

// validateAction checks that an action variant is known and carries the
// fields its dispatcher needs.
func validateAction(result *ValidationResult, path string, a Action) {
	add := func(field, msg string) {
		result.Errors = append(result.Errors, ValidationError{Field: field, Message: msg})
	}

	switch a.Type {
	case ActionSlack:
		if a.Channel == "" {
			add(path+".channel", "required for slack actions")
		}
		if a.Template == "" {
			add(path+".template", "required for slack actions")
		}
	case ActionWebhook:
		if a.URL == "" {
			add(path+".url", "required for webhook actions")
		} else if err := validateTargetURL(a.URL); err != nil {
			add(path+".url", err.Error())
		}
	case ActionEmail:
		if a.To == "" {
			add(path+".to", "required for email actions")
		} else if !looksLikeAddress(a.To) {
			add(path+".to", fmt.Sprintf("invalid email address %q", a.To))
		}
	case ActionGitHub:
		if a.Repo == "" {
			add(path+".repo", "required for github actions")
		} else if parts := strings.Split(a.Repo, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			add(path+".repo", fmt.Sprintf("invalid repo %q (expected owner/name)", a.Repo))
		}
	case "":
		add(path+".type", "required")
	default:
		add(path+".type", fmt.Sprintf("unknown action type %q", a.Type))
	}
}

// looksLikeAddress is a minimal local@domain shape check; deliverability
// is the bridge's problem.
func looksLikeAddress(addr string) bool {
	at := strings.Index(addr, "@")
	return at > 0 && at < len(addr)-1 && !strings.ContainsAny(addr, " \t")
}

// validateTargetURL accepts absolute http(s) URLs and application-relative
// paths ("/products/x").
func validateTargetURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty URL")
	}
	if strings.HasPrefix(raw, "/") {
		if _, err := url.Parse(raw); err != nil {
			return fmt.Errorf("invalid relative URL %q", raw)
		}
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q", raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q (expected http or https)", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("missing host in URL %q", raw)
	}
	return nil
}
