// package tasks implements the chart-to-playlist operations.
//
// The core abstraction is CapsuleEngine, which orchestrates chart loading,
// track resolution and playlist persistence. Operations emit progress updates
// via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hitcapsule/internal/chart"
	"github.com/desertthunder/hitcapsule/internal/match"
	"github.com/desertthunder/hitcapsule/internal/services"
	"github.com/desertthunder/hitcapsule/internal/shared"
)

// RunOpts contains per-run options layered over the configuration file.
type RunOpts struct {
	Name   string // Playlist name override; empty uses the configured template
	Public bool
	DryRun bool // Resolve only, never touch the playlist sink
}

// RunResult contains all data from a single-chart capsule run.
type RunResult struct {
	Date            string               // Chart date (YYYY-MM-DD)
	PlaylistName    string               // Resolved playlist name
	Playlist        *services.Playlist   // Created or updated playlist (nil on dry run)
	CreatedNew      bool                 // Whether the playlist was created rather than updated
	Resolved        []match.ResolvedEntry // All chart rows in rank order
	Missing         *match.MissingReport // Rows without an acceptable match
	TotalEntries    int
	MatchedCount    int
	MatchPercentage float64
	Duration        time.Duration
}

// BlendRunResult contains all data from a two-chart blend run.
type BlendRunResult struct {
	First        *RunResult // First chart resolution (no playlist of its own)
	Second       *RunResult
	Blend        match.BlendResult
	PlaylistName string
	Playlist     *services.Playlist
	CreatedNew   bool
	Missing      *match.MissingReport // Both charts' misses merged
	Duration     time.Duration
}

// Engine defines the chart-to-playlist operations.
type Engine interface {
	// Run builds a playlist for one chart date: load, resolve, upsert.
	Run(ctx context.Context, progress chan<- ProgressUpdate, date string, opts RunOpts) (*RunResult, error)

	// Blend resolves two chart dates and interleaves them into one playlist.
	Blend(ctx context.Context, progress chan<- ProgressUpdate, first, second string, opts RunOpts) (*BlendRunResult, error)
}

// CapsuleEngine implements Engine against a chart source, a search service
// and a playlist sink.
type CapsuleEngine struct {
	source chart.Source
	search services.SearchService
	sink   services.PlaylistSink
	cache  match.QueryCache
	logger *log.Logger
	config *shared.Config
}

// NewCapsuleEngine creates a CapsuleEngine with the provided collaborators.
// cache may be nil to disable query caching; sink may be nil only for dry
// runs.
func NewCapsuleEngine(source chart.Source, search services.SearchService, sink services.PlaylistSink, cache match.QueryCache, logger *log.Logger, config *shared.Config) *CapsuleEngine {
	if config == nil {
		config = shared.DefaultConfig()
	}

	return &CapsuleEngine{
		source: source,
		search: search,
		sink:   sink,
		cache:  cache,
		logger: logger,
		config: config,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *CapsuleEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run performs a full chart-to-playlist run for one date.
func (e *CapsuleEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, date string, opts RunOpts) (*RunResult, error) {
	started := time.Now()

	result, err := e.resolveDate(ctx, progress, date)
	if err != nil {
		return nil, err
	}

	result.PlaylistName = e.playlistName(opts.Name, date)

	if !opts.DryRun {
		ids := match.TrackIDs(result.Resolved)
		if err := e.persist(ctx, progress, result, ids, opts); err != nil {
			return result, err
		}
	}

	e.sendProgress(progress, writeReportUpdate(result.Missing.Total()))
	result.Duration = time.Since(started)
	return result, nil
}

// Blend resolves two chart dates and interleaves their matches into a single
// playlist, first date leading.
func (e *CapsuleEngine) Blend(ctx context.Context, progress chan<- ProgressUpdate, first, second string, opts RunOpts) (*BlendRunResult, error) {
	if first == second {
		return nil, fmt.Errorf("%w: blend requires two distinct chart dates", shared.ErrInvalidArgument)
	}

	started := time.Now()

	firstRun, err := e.resolveDate(ctx, progress, first)
	if err != nil {
		return nil, err
	}

	secondRun, err := e.resolveDate(ctx, progress, second)
	if err != nil {
		return nil, err
	}

	result := &BlendRunResult{
		First:  firstRun,
		Second: secondRun,
		Blend:  match.Interleave(firstRun.Resolved, secondRun.Resolved),
	}

	result.Missing = match.NewMissingReport()
	result.Missing.Merge(firstRun.Missing)
	result.Missing.Merge(secondRun.Missing)

	result.PlaylistName = opts.Name
	if result.PlaylistName == "" {
		result.PlaylistName = fmt.Sprintf("Billboard Blend %s + %s", first, second)
	}

	if !opts.DryRun {
		if e.sink == nil {
			return result, fmt.Errorf("%w: playlist sink not initialized", shared.ErrServiceUnavailable)
		}
		if len(result.Blend.IDs) == 0 {
			return result, fmt.Errorf("no tracks were matched - cannot create empty playlist")
		}

		e.sendProgress(progress, buildPlaylistUpdate(result.PlaylistName, len(result.Blend.IDs)))

		playlist, created, err := e.sink.Upsert(ctx, result.PlaylistName, opts.Public || e.config.Playlist.Public, result.Blend.IDs)
		if err != nil {
			return result, fmt.Errorf("failed to upsert blend playlist: %w", err)
		}

		result.Playlist = playlist
		result.CreatedNew = created
		e.sendProgress(progress, playlistReadyUpdate(playlist, created))
	}

	e.sendProgress(progress, writeReportUpdate(result.Missing.Total()))
	result.Duration = time.Since(started)
	return result, nil
}

// resolveDate loads and resolves one chart date. Shared by Run and Blend.
func (e *CapsuleEngine) resolveDate(ctx context.Context, progress chan<- ProgressUpdate, date string) (*RunResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: chart source not initialized", shared.ErrServiceUnavailable)
	}
	if e.search == nil {
		return nil, fmt.Errorf("%w: search service not initialized", shared.ErrServiceUnavailable)
	}

	if _, err := chart.ValidateDate(date); err != nil {
		return nil, err
	}

	e.sendProgress(progress, fetchChartUpdate(date))

	entries, err := e.source.Fetch(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrChartUnavailable, err)
	}

	entries = chart.Clean(entries, date)
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no usable entries for %s", shared.ErrChartUnavailable, date)
	}

	e.sendProgress(progress, chartLoadedUpdate(date, len(entries)))
	e.sendProgress(progress, resolveStartUpdate(len(entries)))

	searcher := newRetryingSearcher(e.search, e.config.Resolver.RateLimit, e.config.Resolver.MaxRetries, e.logger)

	var done atomic.Int64
	total := len(entries)

	resolver := match.NewResolver(searcher.Search, match.ResolverOpts{
		Workers:      e.config.Resolver.Workers,
		QueryTimeout: time.Duration(e.config.Resolver.QueryTimeoutSecs) * time.Second,
		Cache:        e.cache,
		Logger:       e.logger,
		OnResolved: func(re match.ResolvedEntry) {
			step := int(done.Add(1))
			e.sendProgress(progress, resolveTrackUpdate(step, total, re.Entry, re.Matched()))
		},
	})

	resolved, missing, err := resolver.Resolve(ctx, entries)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Date:         date,
		Resolved:     resolved,
		Missing:      missing,
		TotalEntries: total,
		MatchedCount: total - missing.Total(),
	}
	if total > 0 {
		result.MatchPercentage = float64(result.MatchedCount) / float64(total) * 100
	}

	return result, nil
}

func (e *CapsuleEngine) persist(ctx context.Context, progress chan<- ProgressUpdate, result *RunResult, ids []string, opts RunOpts) error {
	if e.sink == nil {
		return fmt.Errorf("%w: playlist sink not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no tracks were matched - cannot create empty playlist")
	}

	e.sendProgress(progress, buildPlaylistUpdate(result.PlaylistName, len(ids)))

	playlist, created, err := e.sink.Upsert(ctx, result.PlaylistName, opts.Public || e.config.Playlist.Public, ids)
	if err != nil {
		return fmt.Errorf("failed to upsert playlist: %w", err)
	}

	result.Playlist = playlist
	result.CreatedNew = created
	e.sendProgress(progress, playlistReadyUpdate(playlist, created))
	return nil
}

// playlistName expands the configured name template unless an explicit
// override is given. The template's {date} placeholder takes the chart date.
func (e *CapsuleEngine) playlistName(override, date string) string {
	if override != "" {
		return override
	}

	template := e.config.Playlist.NameTemplate
	if template == "" {
		template = "{date} Billboard Hot 100"
	}

	return strings.ReplaceAll(template, "{date}", date)
}
