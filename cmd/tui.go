package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/hitcapsule/internal/shared"
	"github.com/desertthunder/hitcapsule/internal/tasks"
	"github.com/desertthunder/hitcapsule/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for a capsule run.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	date := cmd.String("date")

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/hitcapsule-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	r.engine = nil // force a rebuild so the engine logs to the file too

	engine, err := r.engineFor(cmd.String("charts"))
	if err != nil {
		return err
	}

	opts := tasks.RunOpts{
		Name:   cmd.String("name"),
		Public: cmd.Bool("public"),
		DryRun: cmd.Bool("dry-run"),
	}

	model := ui.NewModel(ctx, engine, date, opts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Watch a capsule run in an interactive terminal UI",
		Flags: append(runFlags(),
			&cli.StringFlag{
				Name:     "date",
				Aliases:  []string{"d"},
				Usage:    "Chart date (YYYY-MM-DD)",
				Required: true,
			},
		),
		Action: r.TUI,
	}
}
