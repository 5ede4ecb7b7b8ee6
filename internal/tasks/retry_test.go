package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/hitcapsule/internal/match"
	"github.com/desertthunder/hitcapsule/internal/shared"
)

// seqSearcher fails with errs[i] on the i-th call, then succeeds.
type seqSearcher struct {
	errs    []error
	results []match.Candidate
	calls   int
}

func (s *seqSearcher) Search(ctx context.Context, query string) ([]match.Candidate, error) {
	call := s.calls
	s.calls++
	if call < len(s.errs) && s.errs[call] != nil {
		return nil, s.errs[call]
	}
	return s.results, nil
}

func (s *seqSearcher) Name() string { return "seq" }

func TestRetryTransientThenSuccess(t *testing.T) {
	inner := &seqSearcher{
		errs:    []error{shared.ErrSearchTransient},
		results: []match.Candidate{match.NewCandidate("t1", "Jump", []string{"Van Halen"}, 80, 241_000, "album")},
	}
	searcher := newRetryingSearcher(inner, 1000, 2, testLogger())

	candidates, err := searcher.Search(context.Background(), "jump van halen")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want 2", inner.calls)
	}
	if len(candidates) != 1 || candidates[0].ID != "t1" {
		t.Errorf("candidates = %v", candidates)
	}
}

func TestRetryFatalPassesThrough(t *testing.T) {
	inner := &seqSearcher{errs: []error{shared.ErrSearchFatal, shared.ErrSearchFatal}}
	searcher := newRetryingSearcher(inner, 1000, 3, testLogger())

	_, err := searcher.Search(context.Background(), "anything")
	if !errors.Is(err, shared.ErrSearchFatal) {
		t.Fatalf("err = %v, want ErrSearchFatal", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, fatal errors must not be retried", inner.calls)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	inner := &seqSearcher{errs: []error{shared.ErrSearchTransient, shared.ErrSearchTransient}}
	searcher := newRetryingSearcher(inner, 1000, 1, testLogger())

	_, err := searcher.Search(context.Background(), "anything")
	if !errors.Is(err, shared.ErrSearchTransient) {
		t.Fatalf("err = %v, want ErrSearchTransient", err)
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want 2 (initial attempt plus one retry)", inner.calls)
	}
}

func TestRetryHonorsRetryAfter(t *testing.T) {
	after := baseBackoff + 200*time.Millisecond
	inner := &seqSearcher{
		errs:    []error{&shared.RateLimitError{After: after}},
		results: []match.Candidate{},
	}
	searcher := newRetryingSearcher(inner, 1000, 1, testLogger())

	started := time.Now()
	if _, err := searcher.Search(context.Background(), "anything"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if elapsed := time.Since(started); elapsed < after {
		t.Errorf("retried after %v, want at least %v", elapsed, after)
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want 2", inner.calls)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	inner := &seqSearcher{errs: []error{
		shared.ErrSearchTransient, shared.ErrSearchTransient, shared.ErrSearchTransient,
	}}
	searcher := newRetryingSearcher(inner, 1000, 3, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := searcher.Search(ctx, "anything")
	if !errors.Is(err, shared.ErrSearchTransient) {
		t.Fatalf("err = %v, want ErrSearchTransient", err)
	}
	// The first backoff already exceeds the deadline.
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}

func TestNewRetryingSearcherClampsInputs(t *testing.T) {
	searcher := newRetryingSearcher(&seqSearcher{}, -1, -5, testLogger())

	if searcher.maxRetries != 0 {
		t.Errorf("maxRetries = %d, want 0", searcher.maxRetries)
	}
	if searcher.limiter.Limit() != 5.0 {
		t.Errorf("limit = %v, want the 5.0 default", searcher.limiter.Limit())
	}
}
