package match

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hitcapsule/internal/chart"
	"github.com/desertthunder/hitcapsule/internal/shared"
)

// SearchFunc is the injected search collaborator: free-text query in, ranked
// catalog candidates out. Transient failures (wrapping
// [shared.ErrSearchTransient]) degrade the query stage to empty results;
// fatal failures (wrapping [shared.ErrSearchFatal]) abort the run.
type SearchFunc func(ctx context.Context, query string) ([]Candidate, error)

// ResolverOpts configures a resolution run.
type ResolverOpts struct {
	Workers      int           // concurrent chart rows (default 4, cap 10)
	QueryTimeout time.Duration // per-query budget; timeout means zero candidates
	Cache        QueryCache    // read-through query cache; nil disables caching
	Logger       *log.Logger

	// OnResolved, when set, is called once per chart row as it finishes.
	// Called from worker goroutines; must be safe for concurrent use.
	OnResolved func(ResolvedEntry)
}

// Resolver orchestrates the query planner, the search collaborator and the
// scorer to pick the best catalog match per chart row.
type Resolver struct {
	search       SearchFunc
	cache        QueryCache
	logger       *log.Logger
	workers      int
	queryTimeout time.Duration
	onResolved   func(ResolvedEntry)
}

// NewResolver creates a Resolver around the given search collaborator.
func NewResolver(search SearchFunc, opts ResolverOpts) *Resolver {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	return &Resolver{
		search:       search,
		cache:        opts.Cache,
		logger:       opts.Logger,
		workers:      opts.Workers,
		queryTimeout: opts.QueryTimeout,
		onResolved:   opts.OnResolved,
	}
}

// Resolve maps a whole chart to catalog matches. Output preserves chart rank
// order (it becomes playlist track order) even though rows resolve
// concurrently. Rows are independent; each failure to match is recorded in
// the MissingReport, never raised. Only a fatal search failure aborts.
func (r *Resolver) Resolve(ctx context.Context, entries []chart.Entry) ([]ResolvedEntry, *MissingReport, error) {
	results := make([]ResolvedEntry, len(entries))

	type job struct {
		idx   int
		entry chart.Entry
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job)
	var wg sync.WaitGroup
	var fatalOnce sync.Once
	var fatalErr error

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := r.ResolveEntry(ctx, j.entry)
				if err != nil {
					fatalOnce.Do(func() {
						fatalErr = err
						cancel()
					})
					return
				}
				results[j.idx] = res
				if r.onResolved != nil {
					r.onResolved(res)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, e := range entries {
			select {
			case <-ctx.Done():
				return
			case jobs <- job{idx: i, entry: e}:
			}
		}
	}()

	wg.Wait()

	if fatalErr != nil {
		return nil, nil, fatalErr
	}

	missing := NewMissingReport()
	for i := range results {
		if results[i].Entry.Rank == 0 {
			// Entry never reached a worker (cancelled mid-run); keep the
			// original row so the report stays complete.
			results[i].Entry = entries[i]
		}
		if !results[i].Matched() {
			missing.Add(results[i].Entry)
		}
	}

	return results, missing, nil
}

// ResolveEntry resolves a single chart row: normalize, iterate query stages
// pooling candidates, score the pool, stop at the first stage that yields an
// acceptable best. The returned error is non-nil only for fatal search
// failures.
func (r *Resolver) ResolveEntry(ctx context.Context, e chart.Entry) (ResolvedEntry, error) {
	res := ResolvedEntry{Entry: e}

	if !e.Valid() {
		r.logger.Warn("skipping chart row with missing title or artist",
			"rank", e.Rank, "date", e.Date)
		return res, nil
	}

	ne := Normalize(e.Title, e.Artist)

	var pool []Candidate
	seen := make(map[string]struct{})

	var best ScoredCandidate
	found := false

	for _, q := range PlanQueries(ne) {
		candidates, err := r.lookup(ctx, q.Text)
		if err != nil {
			if errors.Is(err, shared.ErrSearchFatal) {
				return res, err
			}
			r.logger.Warn("query stage degraded to empty results",
				"stage", q.Stage.String(), "query", q.Text, "err", err)
			continue
		}

		if q.Stage == StageArtistOnly {
			candidates = filterByTitleTokens(ne, candidates)
		}

		grew := false
		for _, c := range candidates {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			pool = append(pool, c)
			grew = true
		}
		if !grew {
			continue
		}

		// Provider relevance ordering is not trusted; the whole pool is
		// re-ranked after every stage.
		if best, found = selectBest(ne, pool); found {
			break
		}
	}

	if found {
		res.MatchedID = best.Candidate.ID
		res.MatchScore = best.Score
		r.logger.Debug("resolved chart row",
			"rank", e.Rank, "title", e.Title, "id", best.Candidate.ID, "score", best.Score)
	} else {
		r.logger.Info("no acceptable candidate", "rank", e.Rank, "title", e.Title, "artist", e.Artist)
	}

	return res, nil
}

// lookup is the read-through cache front for one query. A timed-out query
// degrades to "no candidates" rather than failing the entry.
func (r *Resolver) lookup(ctx context.Context, query string) ([]Candidate, error) {
	key := shared.NormalizeQueryKey(query)

	if r.cache != nil {
		if candidates, ok := r.cache.Get(key); ok {
			return candidates, nil
		}
	}

	qctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	candidates, err := r.search(qctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: search for %q", shared.ErrTimeout, query)
		}
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Put(key, candidates); err != nil {
			r.logger.Warn("failed to cache query results", "query", query, "err", err)
		}
	}

	return candidates, nil
}

// selectBest rescores the pooled candidates and returns the best acceptable
// one. First-seen order (stage order, then result order) is the final
// tie-break, so the pool slice order matters.
func selectBest(e NormalizedEntry, pool []Candidate) (ScoredCandidate, bool) {
	var best ScoredCandidate
	bestOrder := -1

	for i, c := range pool {
		scored := ScoreCandidate(e, c)
		if !scored.Acceptable() {
			continue
		}
		if bestOrder < 0 || Better(scored, best, i, bestOrder) {
			best = scored
			bestOrder = i
		}
	}

	return best, bestOrder >= 0
}

// filterByTitleTokens keeps artist-only stage results that share at least
// one title token with the chart row.
func filterByTitleTokens(e NormalizedEntry, candidates []Candidate) []Candidate {
	want := make(map[string]struct{})
	for _, v := range e.Variants {
		for _, tok := range strings.Fields(v) {
			want[tok] = struct{}{}
		}
	}

	kept := candidates[:0:0]
	for _, c := range candidates {
		for _, tok := range strings.Fields(Fold(c.Title)) {
			if _, ok := want[tok]; ok {
				kept = append(kept, c)
				break
			}
		}
	}
	return kept
}
