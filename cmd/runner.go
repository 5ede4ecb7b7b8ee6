package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hitcapsule/internal/cache"
	"github.com/desertthunder/hitcapsule/internal/chart"
	"github.com/desertthunder/hitcapsule/internal/match"
	"github.com/desertthunder/hitcapsule/internal/services"
	"github.com/desertthunder/hitcapsule/internal/shared"
	"github.com/desertthunder/hitcapsule/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	spotify *services.SpotifyService
	source  chart.Source
	cache   match.QueryCache
	logger  *log.Logger
	output  io.Writer
	engine  tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Spotify *services.SpotifyService
	Source  chart.Source
	Cache   match.QueryCache
	Logger  *log.Logger
	Output  io.Writer
	Engine  tasks.Engine
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Source == nil {
		opts.Source = chart.NewFileSource("charts")
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory()
	}

	engine := opts.Engine
	if engine == nil && opts.Spotify != nil {
		engine = tasks.NewCapsuleEngine(opts.Source, opts.Spotify, opts.Spotify, opts.Cache, opts.Logger, opts.Config)
	}

	return &Runner{
		config:  opts.Config,
		spotify: opts.Spotify,
		source:  opts.Source,
		cache:   opts.Cache,
		logger:  opts.Logger,
		output:  opts.Output,
		engine:  engine,
	}
}

// SetLogger swaps the Runner's logger, used to redirect logs during TUI runs.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		createCommand, blendCommand, chartCommand, setupCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
