// Package spec defines the declarative workflow specification consumed by
// the verification engine: what pages to check, what counts as pass/fail,
// and which actions fire in each case. A Workflow is the contract between
// the natural-language compiler and the engine, and must be schema-valid
// before any stage consumes it.
package spec

// CheckTypePDP is the only supported check type: a product-detail-page
// content check.
const CheckTypePDP = "pdpCheck"

// Trigger discriminates the branch a condition fires on.
type Trigger string

const (
	OnPass Trigger = "onPass"
	OnFail Trigger = "onFail"
)

// Action variant names. The set is closed; the validator rejects anything
// else.
const (
	ActionSlack   = "slack"
	ActionWebhook = "webhook"
	ActionEmail   = "email"
	ActionGitHub  = "github"
)

// Workflow is the validated unit of work. It is constructed once (by the
// compiler or the deterministic fallback builder) and never mutated during
// a run.
type Workflow struct {
	Name            string     `yaml:"name" json:"name"`
	Checks          []Check    `yaml:"checks" json:"checks"`
	Actions         []Action   `yaml:"actions" json:"actions"`
	Guardrails      Guardrails `yaml:"guardrails" json:"guardrails"`
	RequireApproval bool       `yaml:"require_approval,omitempty" json:"requireApproval,omitempty"`
	Schedule        string     `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

// Check is one verification over a list of target URLs. Conditions, when
// present, map a pass/fail outcome to an explicit action list; the
// workflow's default actions apply when no condition matches.
type Check struct {
	Type       string      `yaml:"type" json:"type"`
	Name       string      `yaml:"name" json:"name"`
	URLs       []string    `yaml:"urls" json:"urls"`
	Assertions Assertions  `yaml:"assertions" json:"assertions"`
	Conditions []Condition `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

// Assertions is the set of signals a check demands. At least one field must
// be set for the check to be meaningful.
type Assertions struct {
	Price        bool   `yaml:"price,omitempty" json:"price,omitempty"`
	AddToCart    bool   `yaml:"atc,omitempty" json:"atc,omitempty"`
	TextIncludes string `yaml:"text_includes,omitempty" json:"textIncludes,omitempty"`
}

// Enabled reports whether at least one assertion is requested.
func (a Assertions) Enabled() bool {
	return a.Price || a.AddToCart || a.TextIncludes != ""
}

// Condition maps an outcome trigger to a non-empty action list. At most one
// condition per trigger value is meaningful.
type Condition struct {
	Trigger Trigger  `yaml:"trigger" json:"trigger"`
	Actions []Action `yaml:"actions" json:"actions"`
}

// Action is one notification step. Type discriminates the variant; only the
// fields the variant needs are set. Transport credentials never live here —
// they are environment-scoped.
type Action struct {
	Type string `yaml:"type" json:"type"`

	// slack
	Channel  string `yaml:"channel,omitempty" json:"channel,omitempty"`
	Template string `yaml:"template,omitempty" json:"template,omitempty"`

	// webhook
	URL string `yaml:"url,omitempty" json:"url,omitempty"`

	// email
	To      string `yaml:"to,omitempty" json:"to,omitempty"`
	Subject string `yaml:"subject,omitempty" json:"subject,omitempty"`

	// github ("owner/repo")
	Repo string `yaml:"repo,omitempty" json:"repo,omitempty"`
}

// Guardrails bound a run's resource use: total batch wall-clock time and
// the per-check target count.
type Guardrails struct {
	TimeoutSec int `yaml:"timeout_sec" json:"timeoutSec"`
	MaxURLs    int `yaml:"max_urls" json:"maxUrls"`
}

// Default guardrail values and configured bounds.
const (
	DefaultTimeoutSec = 60
	MinTimeoutSec     = 5
	MaxTimeoutSec     = 120

	DefaultMaxURLs = 50
	MinMaxURLs     = 1
	MaxMaxURLs     = 200
)

// ApplyDefaults fills unset guardrails and check names. It does not repair
// invalid values; validation rejects those.
func (w *Workflow) ApplyDefaults() {
	if w.Guardrails.TimeoutSec == 0 {
		w.Guardrails.TimeoutSec = DefaultTimeoutSec
	}
	if w.Guardrails.MaxURLs == 0 {
		w.Guardrails.MaxURLs = DefaultMaxURLs
	}
	for i := range w.Checks {
		if w.Checks[i].Type == "" {
			w.Checks[i].Type = CheckTypePDP
		}
		if w.Checks[i].Name == "" {
			w.Checks[i].Name = "PDP Check"
		}
	}
}

// Normalize deduplicates each check's target list, preserving first-seen
// order, and caps it at the workflow's MaxURLs guardrail.
func (w *Workflow) Normalize() {
	for i := range w.Checks {
		w.Checks[i].URLs = dedupe(w.Checks[i].URLs, w.Guardrails.MaxURLs)
	}
}

func dedupe(urls []string, max int) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

// Primary returns the workflow's primary check (the first one). Callers
// must have validated the workflow, which guarantees at least one check.
func (w *Workflow) Primary() *Check {
	return &w.Checks[0]
}

// ConditionFor returns the check's condition with the given trigger, or nil.
func (c *Check) ConditionFor(t Trigger) *Condition {
	for i := range c.Conditions {
		if c.Conditions[i].Trigger == t {
			return &c.Conditions[i]
		}
	}
	return nil
}
