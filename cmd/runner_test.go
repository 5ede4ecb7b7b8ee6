package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/hitcapsule/internal/chart"
	"github.com/desertthunder/hitcapsule/internal/match"
	"github.com/desertthunder/hitcapsule/internal/services"
	"github.com/desertthunder/hitcapsule/internal/shared"
	"github.com/desertthunder/hitcapsule/internal/tasks"
	tu "github.com/desertthunder/hitcapsule/internal/testing"
)

// mockEngine returns canned run results and records the last invocation.
type mockEngine struct {
	runResult   *tasks.RunResult
	blendResult *tasks.BlendRunResult
	err         error

	lastDate string
	lastOpts tasks.RunOpts
}

func (m *mockEngine) Run(ctx context.Context, progress chan<- tasks.ProgressUpdate, date string, opts tasks.RunOpts) (*tasks.RunResult, error) {
	m.lastDate = date
	m.lastOpts = opts
	return m.runResult, m.err
}

func (m *mockEngine) Blend(ctx context.Context, progress chan<- tasks.ProgressUpdate, first, second string, opts tasks.RunOpts) (*tasks.BlendRunResult, error) {
	m.lastOpts = opts
	return m.blendResult, m.err
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			source := chart.NewFileSource(t.TempDir())
			engine := &mockEngine{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				Source: source,
				Engine: engine,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.source != source {
				t.Error("expected source to be set")
			}
			if runner.engine != engine {
				t.Error("expected engine to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil cache uses in-memory cache", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.cache == nil {
				t.Error("expected a default query cache")
			}
		})

		t.Run("without spotify no engine is built", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.engine != nil {
				t.Error("engine should stay nil without a Spotify service")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			if err := runner.writePlain("test"); err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 6 {
			t.Errorf("expected 6 commands, got %d", len(commands))
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("engineFor", func(t *testing.T) {
		t.Run("returns injected engine", func(t *testing.T) {
			engine := &mockEngine{}
			runner := NewRunner(RunnerOpts{Engine: engine})

			got, err := runner.engineFor("")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != engine {
				t.Error("expected the injected engine")
			}
		})

		t.Run("fails without spotify", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if _, err := runner.engineFor(""); !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("err = %v, want ErrServiceUnavailable", err)
			}
		})
	})
}

func TestCreateCommand(t *testing.T) {
	buildApp := func(r *Runner) func(args ...string) error {
		return func(args ...string) error {
			app := rootCommand(r)
			return app.Run(context.Background(), append([]string{"hitcapsule"}, args...))
		}
	}

	t.Run("dry run prints summary without playlist", func(t *testing.T) {
		output := &bytes.Buffer{}
		missing := match.NewMissingReport()
		missing.Add(chart.Entry{Rank: 40, Title: "Ghost Song", Artist: "Nobody", Date: "1984-01-07"})

		engine := &mockEngine{runResult: &tasks.RunResult{
			Date:            "1984-01-07",
			PlaylistName:    "1984-01-07 Billboard Hot 100",
			Missing:         missing,
			TotalEntries:    100,
			MatchedCount:    99,
			MatchPercentage: 99.0,
			Duration:        3 * time.Second,
		}}

		runner := NewRunner(RunnerOpts{Output: output, Engine: engine})

		if err := buildApp(runner)("create", "-d", "1984-01-07", "--dry-run"); err != nil {
			t.Fatalf("create: %v", err)
		}

		if engine.lastDate != "1984-01-07" || !engine.lastOpts.DryRun {
			t.Errorf("engine called with date %q, opts %+v", engine.lastDate, engine.lastOpts)
		}

		out := output.String()
		for _, want := range []string{
			"Capsule Complete!",
			"Matched: 99/100 (99.0%)",
			"Dry run: playlist \"1984-01-07 Billboard Hot 100\" not created",
			"#40 Nobody - Ghost Song",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("prints playlist URL on success", func(t *testing.T) {
		output := &bytes.Buffer{}
		engine := &mockEngine{runResult: &tasks.RunResult{
			Date:         "1984-01-07",
			PlaylistName: "1984-01-07 Billboard Hot 100",
			Playlist: &services.Playlist{
				ID:   "pl-1",
				Name: "1984-01-07 Billboard Hot 100",
				URL:  "https://open.spotify.com/playlist/pl-1",
			},
			Missing:      match.NewMissingReport(),
			TotalEntries: 100,
			MatchedCount: 100,
		}}

		runner := NewRunner(RunnerOpts{Output: output, Engine: engine})

		if err := buildApp(runner)("create", "-d", "1984-01-07"); err != nil {
			t.Fatalf("create: %v", err)
		}

		if !strings.Contains(output.String(), "https://open.spotify.com/playlist/pl-1") {
			t.Errorf("output missing playlist URL:\n%s", output.String())
		}
	})

	t.Run("propagates engine errors", func(t *testing.T) {
		engine := &mockEngine{err: shared.ErrChartUnavailable}
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Engine: engine})

		err := buildApp(runner)("create", "-d", "1984-01-07")
		if !errors.Is(err, shared.ErrChartUnavailable) {
			t.Errorf("err = %v, want ErrChartUnavailable", err)
		}
	})

	t.Run("blend prints interleave stats", func(t *testing.T) {
		output := &bytes.Buffer{}
		engine := &mockEngine{blendResult: &tasks.BlendRunResult{
			First:        &tasks.RunResult{Date: "1984-01-07", TotalEntries: 100, MatchedCount: 98},
			Second:       &tasks.RunResult{Date: "1985-02-16", TotalEntries: 100, MatchedCount: 97},
			Blend:        match.BlendResult{IDs: make([]string, 190), Dropped: 5},
			PlaylistName: "Billboard Blend 1984-01-07 + 1985-02-16",
			Missing:      match.NewMissingReport(),
		}}

		runner := NewRunner(RunnerOpts{Output: output, Engine: engine})

		if err := buildApp(runner)("blend", "--first", "1984-01-07", "--second", "1985-02-16", "--dry-run"); err != nil {
			t.Fatalf("blend: %v", err)
		}

		out := output.String()
		for _, want := range []string{
			"Blend Complete!",
			"First: 1984-01-07 (98/100 matched)",
			"Blend: 190 tracks (5 duplicates dropped)",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})
}
