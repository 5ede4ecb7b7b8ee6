package shared

import (
	"fmt"
	"time"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Chart input errors
	ErrInvalidChartEntry = fmt.Errorf("invalid chart entry")
	ErrChartUnavailable  = fmt.Errorf("chart unavailable")
	ErrDateOutOfRange    = fmt.Errorf("date outside chart history")

	// Search collaborator errors.
	//
	// ErrSearchTransient marks failures worth retrying (network, 429, 5xx);
	// a query stage that exhausts its retries degrades to zero candidates.
	// ErrSearchFatal marks failures no retry can fix (bad credentials,
	// malformed request) and aborts the whole resolution run.
	ErrSearchTransient = fmt.Errorf("transient search failure")
	ErrSearchFatal     = fmt.Errorf("fatal search failure")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// RateLimitError reports a 429 response along with how long the service
// asked callers to wait. It unwraps to [ErrSearchTransient] so retry logic
// can treat it like any other retryable failure while honoring the delay.
type RateLimitError struct {
	After time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.After)
}

func (e *RateLimitError) Unwrap() error { return ErrSearchTransient }
