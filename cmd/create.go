package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/hitcapsule/internal/chart"
	"github.com/desertthunder/hitcapsule/internal/formatter"
	"github.com/desertthunder/hitcapsule/internal/match"
	"github.com/desertthunder/hitcapsule/internal/shared"
	"github.com/desertthunder/hitcapsule/internal/tasks"
	"github.com/urfave/cli/v3"
)

// engineFor returns the Runner's engine, rebuilding it over a different
// chart directory when the --charts flag is set.
func (r *Runner) engineFor(chartsDir string) (tasks.Engine, error) {
	if chartsDir == "" && r.engine != nil {
		return r.engine, nil
	}
	if r.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized (run 'hitcapsule setup config')", shared.ErrServiceUnavailable)
	}

	source := r.source
	if chartsDir != "" {
		source = chart.NewFileSource(chartsDir)
	}

	return tasks.NewCapsuleEngine(source, r.spotify, r.spotify, r.cache, r.logger, r.config), nil
}

// consumeProgress drains engine progress updates onto the Runner's output.
func (r *Runner) consumeProgress(progressCh <-chan tasks.ProgressUpdate) {
	for update := range progressCh {
		switch update.Phase {
		case tasks.FetchChart:
			r.writePlain("📥 %s\n", update.Message)
		case tasks.ResolveTracks:
			if update.Step == 0 {
				r.writePlain("\n🔍 %s\n", update.Message)
			} else {
				r.writePlain("   %s\n", update.Message)
			}
		case tasks.BuildPlaylist:
			r.writePlain("\n📝 %s\n", update.Message)
		}
	}
}

// Create builds a playlist for one chart date.
func (r *Runner) Create(ctx context.Context, cmd *cli.Command) error {
	date := cmd.String("date")
	opts := tasks.RunOpts{
		Name:   cmd.String("name"),
		Public: cmd.Bool("public"),
		DryRun: cmd.Bool("dry-run"),
	}

	engine, err := r.engineFor(cmd.String("charts"))
	if err != nil {
		return err
	}

	r.logger.Info("starting capsule run", "date", date, "dry_run", opts.DryRun)
	r.writePlain("Building Hot 100 capsule for %s...\n\n", date)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go r.consumeProgress(progressCh)

	result, err := engine.Run(ctx, progressCh, date, opts)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Capsule Complete!")
	r.writePlain("Chart: %s (%d entries)\n", result.Date, result.TotalEntries)
	r.writePlain("Matched: %d/%d (%.1f%%)\n", result.MatchedCount, result.TotalEntries, result.MatchPercentage)
	if result.Playlist != nil {
		r.writePlain("Playlist: %s (%s)\n", result.Playlist.Name, shared.VisibilityString(result.Playlist.Public))
		r.writePlain("URL: %s\n", result.Playlist.URL)
	} else if opts.DryRun {
		r.writePlain("Dry run: playlist %q not created\n", result.PlaylistName)
	}

	r.reportMissing(result.Missing, cmd.String("report"), cmd.String("report-format"))
	return nil
}

// Blend interleaves two chart dates into a single playlist.
func (r *Runner) Blend(ctx context.Context, cmd *cli.Command) error {
	first := cmd.String("first")
	second := cmd.String("second")
	opts := tasks.RunOpts{
		Name:   cmd.String("name"),
		Public: cmd.Bool("public"),
		DryRun: cmd.Bool("dry-run"),
	}

	engine, err := r.engineFor(cmd.String("charts"))
	if err != nil {
		return err
	}

	r.logger.Info("starting blend run", "first", first, "second", second)
	r.writePlain("Blending Hot 100 charts %s and %s...\n\n", first, second)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go r.consumeProgress(progressCh)

	result, err := engine.Blend(ctx, progressCh, first, second, opts)
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Blend Complete!")
	r.writePlain("First: %s (%d/%d matched)\n", result.First.Date, result.First.MatchedCount, result.First.TotalEntries)
	r.writePlain("Second: %s (%d/%d matched)\n", result.Second.Date, result.Second.MatchedCount, result.Second.TotalEntries)
	r.writePlain("Blend: %d tracks (%d duplicates dropped)\n", len(result.Blend.IDs), result.Blend.Dropped)
	if result.Playlist != nil {
		r.writePlain("Playlist: %s (%s)\n", result.Playlist.Name, shared.VisibilityString(result.Playlist.Public))
		r.writePlain("URL: %s\n", result.Playlist.URL)
	} else if opts.DryRun {
		r.writePlain("Dry run: playlist %q not created\n", result.PlaylistName)
	}

	r.reportMissing(result.Missing, cmd.String("report"), cmd.String("report-format"))
	return nil
}

// reportMissing prints unmatched rows and optionally writes the report file.
func (r *Runner) reportMissing(missing *match.MissingReport, path, format string) {
	if missing == nil || missing.Total() == 0 {
		return
	}

	r.writePlain("\nUnmatched entries (%d):\n", missing.Total())
	for _, date := range missing.Dates {
		for _, e := range missing.Entries[date] {
			r.writePlain("  #%d %s - %s\n", e.Rank, e.Artist, e.Title)
		}
	}

	if path == "" {
		return
	}
	if err := formatter.WriteReportFile(missing, path, format); err != nil {
		r.logger.Error("failed to write missing report", "path", path, "err", err)
		return
	}
	r.writePlain("\nMissing report written to %s\n", path)
}

func createCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Build a Spotify playlist from one Hot 100 chart date",
		Flags: append(runFlags(),
			&cli.StringFlag{
				Name:     "date",
				Aliases:  []string{"d"},
				Usage:    "Chart date (YYYY-MM-DD)",
				Required: true,
			},
		),
		Action: r.Create,
	}
}

func blendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "blend",
		Usage: "Interleave two chart dates into one playlist",
		Flags: append(runFlags(),
			&cli.StringFlag{
				Name:     "first",
				Usage:    "First chart date (YYYY-MM-DD), leads the interleave",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "second",
				Usage:    "Second chart date (YYYY-MM-DD)",
				Required: true,
			},
		),
		Action: r.Blend,
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "Playlist name (defaults to the configured template)",
		},
		&cli.BoolFlag{
			Name:  "public",
			Usage: "Make the playlist public",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Resolve tracks without touching Spotify playlists",
		},
		&cli.StringFlag{
			Name:  "charts",
			Usage: "Directory holding chart dump files (<date>.json)",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write unmatched entries to this file",
		},
		&cli.StringFlag{
			Name:  "report-format",
			Usage: "Report format: json, markdown, csv, txt",
			Value: "json",
		},
	}
}
