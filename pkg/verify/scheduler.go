package verify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agentops/pdpguard/pkg/spec"
)

// DefaultWorkers bounds outbound request concurrency. The workload is
// I/O-bound, so a small pool keeps wall-clock latency low without
// overwhelming target servers.
const DefaultWorkers = 4

// Scheduler runs a Verifier over a batch of targets under bounded
// concurrency and a batch-wide deadline.
type Scheduler struct {
	verifier *Verifier
	workers  int
}

// NewScheduler creates a Scheduler. A non-positive workers value falls
// back to DefaultWorkers.
func NewScheduler(verifier *Verifier, workers int) *Scheduler {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Scheduler{verifier: verifier, workers: workers}
}

// RunBatch verifies every target and returns exactly one Verdict per
// target, in input order, regardless of completion order or failures.
//
// Workers pull from a shared index counter and write into a pre-sized
// result slice by input position, so no target is dropped and no two
// workers touch the same slot. When the shared deadline elapses, in-flight
// fetches abort and not-yet-started targets receive a cancellation
// verdict instead of hanging.
func (s *Scheduler) RunBatch(ctx context.Context, targets []string, a spec.Assertions, timeout time.Duration) []Verdict {
	results := make([]Verdict, len(targets))
	if len(targets) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var next atomic.Int64
	next.Store(-1)

	var wg sync.WaitGroup
	workers := s.workers
	if workers > len(targets) {
		workers = len(targets)
	}
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1))
				if i >= len(targets) {
					return
				}
				if ctx.Err() != nil {
					results[i] = cancelledVerdict(targets[i])
					continue
				}
				results[i] = s.verifier.Verify(ctx, targets[i], a)
			}
		}()
	}
	wg.Wait()

	return results
}

// cancelledVerdict is the terminal verdict for a target the deadline
// prevented from running.
func cancelledVerdict(target string) Verdict {
	return Verdict{
		Target:       target,
		FailureCodes: []string{CodeCancelled},
	}
}
