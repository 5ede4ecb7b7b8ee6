package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hitcapsule/internal/match"
	"github.com/desertthunder/hitcapsule/internal/services"
	"github.com/desertthunder/hitcapsule/internal/shared"
	"golang.org/x/time/rate"
)

const baseBackoff = 500 * time.Millisecond

// retryingSearcher wraps a SearchService with the run-wide rate limiter and
// exponential backoff on transient failures. Fatal errors pass through
// untouched so the resolver can abort.
type retryingSearcher struct {
	inner      services.SearchService
	limiter    *rate.Limiter
	maxRetries int
	logger     *log.Logger
}

func newRetryingSearcher(inner services.SearchService, rateLimit float64, maxRetries int, logger *log.Logger) *retryingSearcher {
	if rateLimit <= 0 {
		rateLimit = 5.0
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &retryingSearcher{
		inner:      inner,
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), 1),
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Search runs one query with up to maxRetries retries. A 429's Retry-After
// overrides the computed backoff when it asks for a longer wait.
func (r *retryingSearcher) Search(ctx context.Context, query string) ([]match.Candidate, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrSearchTransient, err)
		}

		candidates, err := r.inner.Search(ctx, query)
		if err == nil {
			return candidates, nil
		}
		if !errors.Is(err, shared.ErrSearchTransient) {
			return nil, err
		}

		lastErr = err
		if attempt == r.maxRetries {
			break
		}

		delay := baseBackoff << attempt
		var rl *shared.RateLimitError
		if errors.As(err, &rl) && rl.After > delay {
			delay = rl.After
		}

		r.logger.Warn("retrying search query",
			"query", query, "attempt", attempt+1, "delay", delay, "err", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", shared.ErrSearchTransient, ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}
