package verify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/agentops/pdpguard/pkg/spec"
)

// TestRunBatchCompleteness_Property checks the batch invariant: for any
// target list, RunBatch returns exactly one verdict per target, in input
// order, no matter how work is distributed across workers or which
// fetches fail.
func TestRunBatchCompleteness_Property(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Odd product ids are broken pages, even ids healthy; either way
		// the fetch itself succeeds.
		if len(r.URL.Path)%2 == 1 {
			w.Write([]byte(brokenPDP))
			return
		}
		w.Write([]byte(healthyPDP))
	}))
	defer srv.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("one verdict per target in input order", prop.ForAll(
		func(ids []int, workers int) bool {
			targets := make([]string, len(ids))
			for i, id := range ids {
				targets[i] = fmt.Sprintf("%s/products/%d", srv.URL, id)
			}
			s := NewScheduler(NewVerifier(NewFetcher()), workers)
			out := s.RunBatch(context.Background(), targets, spec.Assertions{Price: true}, 30*time.Second)

			if len(out) != len(targets) {
				return false
			}
			for i := range out {
				if out[i].Target != targets[i] {
					return false
				}
			}
			sum := Summarize(out)
			return sum.Total == len(targets) && sum.Passed+sum.Failed == sum.Total
		},
		gen.SliceOf(gen.IntRange(0, 9999)),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
