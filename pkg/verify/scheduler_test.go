package verify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agentops/pdpguard/pkg/spec"
)

func TestRunBatchCompleteness(t *testing.T) {
	srv := pageServer(t, map[string]string{
		"/products/a": healthyPDP,
		"/products/b": brokenPDP,
	})
	s := NewScheduler(NewVerifier(NewFetcher()), 3)

	targets := []string{
		srv.URL + "/products/a",
		srv.URL + "/products/b",
		srv.URL + "/products/missing",
		srv.URL + "/products/a",
		srv.URL + "/products/b",
	}
	got := s.RunBatch(context.Background(), targets, spec.Assertions{Price: true, AddToCart: true}, 30*time.Second)

	if len(got) != len(targets) {
		t.Fatalf("got %d verdicts for %d targets", len(got), len(targets))
	}
	for i, v := range got {
		if v.Target != targets[i] {
			t.Errorf("verdict %d for %q, want %q (input order must be preserved)", i, v.Target, targets[i])
		}
	}

	sum := Summarize(got)
	if sum.Total != 5 || sum.Passed != 2 || sum.Failed != 3 {
		t.Errorf("summary = %+v, want {5 2 3}", sum)
	}
}

func TestRunBatchEmpty(t *testing.T) {
	s := NewScheduler(NewVerifier(NewFetcher()), 2)
	got := s.RunBatch(context.Background(), nil, spec.Assertions{Price: true}, time.Second)
	if len(got) != 0 {
		t.Errorf("got %d verdicts for empty batch", len(got))
	}
}

func TestRunBatchDeadline(t *testing.T) {
	// 3 fast targets and 2 that outlive the batch deadline. The slow ones
	// must receive cancellation verdicts, never be dropped or hang.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/slow") {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		w.Write([]byte(healthyPDP))
	}))
	defer srv.Close()

	targets := []string{
		srv.URL + "/fast/1",
		srv.URL + "/fast/2",
		srv.URL + "/fast/3",
		srv.URL + "/slow/1",
		srv.URL + "/slow/2",
	}
	s := NewScheduler(NewVerifier(NewFetcher()), 4)

	start := time.Now()
	got := s.RunBatch(context.Background(), targets, spec.Assertions{Price: true, AddToCart: true}, 500*time.Millisecond)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("batch took %v, deadline not enforced", elapsed)
	}

	if len(got) != 5 {
		t.Fatalf("got %d verdicts, want 5", len(got))
	}
	for i := range 3 {
		if !got[i].Passed {
			t.Errorf("fast target %d failed: %v", i, got[i].FailureCodes)
		}
	}
	for i := 3; i < 5; i++ {
		if got[i].Passed {
			t.Errorf("slow target %d passed despite deadline", i)
		}
		if len(got[i].FailureCodes) != 1 || got[i].FailureCodes[0] != CodeCancelled {
			t.Errorf("slow target %d codes = %v, want [%s]", i, got[i].FailureCodes, CodeCancelled)
		}
	}

	if sum := Summarize(got); sum.Total != 5 {
		t.Errorf("summary total = %d, want 5", sum.Total)
	}
}

func TestRunBatchMoreTargetsThanWorkers(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(healthyPDP))
	}))
	defer srv.Close()

	targets := make([]string, 20)
	for i := range targets {
		targets[i] = fmt.Sprintf("%s/products/%d", srv.URL, i)
	}
	s := NewScheduler(NewVerifier(NewFetcher()), 2)
	got := s.RunBatch(context.Background(), targets, spec.Assertions{Price: true}, 30*time.Second)

	if len(got) != 20 {
		t.Fatalf("got %d verdicts, want 20", len(got))
	}
	if n := hits.Load(); n != 20 {
		t.Errorf("server saw %d fetches, want 20", n)
	}
	for i, v := range got {
		if v.Target != targets[i] {
			t.Fatalf("verdict %d out of order", i)
		}
	}
}
