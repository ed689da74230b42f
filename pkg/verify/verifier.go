package verify

import (
	"context"
	"errors"
	"time"

	"github.com/agentops/pdpguard/pkg/detect"
	"github.com/agentops/pdpguard/pkg/spec"
)

// Verifier runs the requested assertions against one target's content.
type Verifier struct {
	fetcher *Fetcher
}

// NewVerifier creates a Verifier on top of the given fetcher.
func NewVerifier(fetcher *Fetcher) *Verifier {
	return &Verifier{fetcher: fetcher}
}

// Verify fetches the target once and evaluates the requested assertions.
// Fetch failures surface as a single classified failure code, never a
// crash; a batch-deadline abort yields the cancellation code so the
// scheduler's output is uniform for unfinished targets.
//
// Assertion failure codes append in the fixed order text, price,
// purchasability. Evidence comes from the first assertion in that order
// that produced a positive match and is never overwritten.
func (v *Verifier) Verify(ctx context.Context, target string, a spec.Assertions) Verdict {
	start := time.Now()
	verdict := Verdict{Target: target, FailureCodes: []string{}}

	content, err := v.fetcher.Fetch(ctx, target)
	if err != nil {
		verdict.FailureCodes = append(verdict.FailureCodes, fetchFailureCode(ctx, err))
		verdict.ElapsedMillis = time.Since(start).Milliseconds()
		return verdict
	}

	if a.TextIncludes != "" {
		d := detect.FindText(content, a.TextIncludes)
		if !d.Found {
			verdict.FailureCodes = append(verdict.FailureCodes, MissingTextCode(a.TextIncludes))
		} else if verdict.Evidence == "" {
			verdict.Evidence = d.Evidence
		}
	}
	if a.Price {
		d := detect.FindPrice(content)
		if !d.Found {
			verdict.FailureCodes = append(verdict.FailureCodes, CodeMissingPrice)
		} else if verdict.Evidence == "" {
			verdict.Evidence = d.Evidence
		}
	}
	if a.AddToCart {
		d := detect.FindAddToCart(content)
		if !d.Found {
			verdict.FailureCodes = append(verdict.FailureCodes, CodeMissingAddToCart)
		} else if verdict.Evidence == "" {
			verdict.Evidence = d.Evidence
		}
	}

	verdict.Passed = len(verdict.FailureCodes) == 0
	verdict.ElapsedMillis = time.Since(start).Milliseconds()
	return verdict
}

// fetchFailureCode maps a fetch error to its verdict failure code. A fetch
// aborted by the batch deadline reports the cancellation code; everything
// else keeps its own error class.
func fetchFailureCode(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return CodeCancelled
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return HTTPStatusCode(httpErr.Status)
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return FetchErrorCode(fetchErr.Kind)
	}
	return FetchErrorCode("Error")
}
