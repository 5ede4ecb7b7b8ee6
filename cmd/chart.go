package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/hitcapsule/internal/chart"
	"github.com/desertthunder/hitcapsule/internal/shared"
	"github.com/urfave/cli/v3"
)

// ChartShow loads a chart dump, cleans it and prints the ranked entries.
func (r *Runner) ChartShow(ctx context.Context, cmd *cli.Command) error {
	file := cmd.String("file")
	date := cmd.String("date")

	var entries []chart.Entry
	var err error

	switch {
	case file != "":
		data, readErr := os.ReadFile(file)
		if readErr != nil {
			return fmt.Errorf("%w: %v", shared.ErrChartUnavailable, readErr)
		}
		if entries, err = chart.ParseDump(data); err != nil {
			return err
		}
		if date == "" && len(entries) > 0 {
			date = entries[0].Date
		}
		entries = chart.Clean(entries, date)
	case date != "":
		source := r.source
		if dir := cmd.String("charts"); dir != "" {
			source = chart.NewFileSource(dir)
		}
		if entries, err = source.Fetch(ctx, date); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: either --file or --date", shared.ErrMissingArgument)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	r.writePlainHeader(fmt.Sprintf("Billboard Hot 100 — %s", date))
	for _, e := range entries {
		r.writePlain("%3d. %s - %s\n", e.Rank, e.Artist, e.Title)
	}
	r.writePlain("\n%d entries\n", len(entries))

	return nil
}

// ChartValidate checks a date against the chart calendar.
func (r *Runner) ChartValidate(ctx context.Context, cmd *cli.Command) error {
	date := cmd.String("date")
	if _, err := chart.ValidateDate(date); err != nil {
		return err
	}
	r.writePlain("✓ %s is a valid Hot 100 chart date\n", date)
	return nil
}

// chartCommand groups chart dump inspection operations
func chartCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chart",
		Usage: "Inspect Hot 100 chart dumps",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the cleaned chart for a date or dump file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Path to a chart dump file",
					},
					&cli.StringFlag{
						Name:    "date",
						Aliases: []string{"d"},
						Usage:   "Chart date (YYYY-MM-DD), read from the charts directory",
					},
					&cli.StringFlag{
						Name:  "charts",
						Usage: "Directory holding chart dump files",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit entries as JSON",
					},
				},
				Action: r.ChartShow,
			},
			{
				Name:  "validate",
				Usage: "Check that a date falls inside the Hot 100 calendar",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "date",
						Aliases:  []string{"d"},
						Usage:    "Chart date (YYYY-MM-DD)",
						Required: true,
					},
				},
				Action: r.ChartValidate,
			},
		},
	}
}
