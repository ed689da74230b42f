// Package verify implements the page verification engine: fetching a
// target's content, running the requested signal extractors against it, and
// scheduling batches of targets under bounded concurrency and a shared
// deadline.
package verify

import "fmt"

// Failure codes are stable, machine-readable strings. Their order within a
// Verdict is deterministic: fetch errors stand alone; assertion failures
// append in the order text, price, purchasability.
const (
	CodeMissingPrice     = "MISSING:Price"
	CodeMissingAddToCart = "MISSING:AddToCart"
	CodeCancelled        = "CANCELLED:Deadline"
)

// MissingTextCode builds the failure code for an absent required literal.
func MissingTextCode(literal string) string {
	return fmt.Sprintf("MISSING:Text(%q)", literal)
}

// FetchErrorCode classifies a failed fetch into a stable code.
func FetchErrorCode(kind string) string {
	return "FETCH_ERROR:" + kind
}

// HTTPStatusCode builds the failure code for a non-2xx response.
func HTTPStatusCode(status int) string {
	return fmt.Sprintf("HTTP:%d", status)
}

// Verdict is the per-target result of one verification. It is created once
// per target per run and never mutated afterwards. FailureCodes is empty
// iff Passed is true.
type Verdict struct {
	Target        string   `json:"url"`
	Passed        bool     `json:"ok"`
	FailureCodes  []string `json:"failures"`
	ElapsedMillis int64    `json:"millis"`
	Evidence      string   `json:"evidence,omitempty"`
}

// Summary aggregates pass/fail counts over a batch of verdicts.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Summarize derives a Summary from a verdict sequence.
func Summarize(verdicts []Verdict) Summary {
	s := Summary{Total: len(verdicts)}
	for _, v := range verdicts {
		if v.Passed {
			s.Passed++
		}
	}
	s.Failed = s.Total - s.Passed
	return s
}

// AllPassed reports whether no target failed.
func (s Summary) AllPassed() bool {
	return s.Failed == 0
}
