package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/hitcapsule/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RunView ViewState = iota
	ResultView
)

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	restart key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rerun")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.restart, k.quit}}
}

type progressUpdateMsg tasks.ProgressUpdate

type runCompleteMsg struct {
	result *tasks.RunResult
	err    error
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	engine tasks.Engine
	date   string
	opts   tasks.RunOpts

	width  int
	height int

	spinner      spinner.Model
	bar          progress.Model
	progress     tasks.ProgressUpdate
	progressChan chan tasks.ProgressUpdate
	done         chan runCompleteMsg

	result *tasks.RunResult
	err    error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model for one chart date run.
func NewModel(ctx context.Context, engine tasks.Engine, date string, opts tasks.RunOpts) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title

	return &Model{
		ctx:     ctx,
		view:    RunView,
		engine:  engine,
		date:    date,
		opts:    opts,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the capsule run and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRun())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.view == ResultView {
				m.view = RunView
				m.result = nil
				m.err = nil
				m.progress = tasks.ProgressUpdate{}
				return m, tea.Batch(m.spinner.Tick, m.startRun())
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	ch := m.progressChan

	done := make(chan runCompleteMsg, 1)
	go func() {
		result, err := m.engine.Run(m.ctx, ch, m.date, m.opts)
		done <- runCompleteMsg{result: result, err: err}
		close(ch)
	}()

	m.done = done
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	done := m.done
	return func() tea.Msg {
		select {
		case update, ok := <-ch:
			if !ok {
				return <-done
			}
			return progressUpdateMsg(update)
		case msg := <-done:
			return msg
		}
	}
}

func (m *Model) renderRun() string {
	title := styles.title.Render(fmt.Sprintf("Billboard Hot 100 → Spotify (%s)", m.date))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchChart:
		phase = "Loading chart..."
	case tasks.ResolveTracks:
		phase = fmt.Sprintf("Resolving tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.BuildPlaylist:
		phase = "Building playlist..."
	case tasks.WriteReport:
		phase = "Finishing up..."
	default:
		phase = "Starting..."
	}

	bar := ""
	if m.progress.Phase == tasks.ResolveTracks && m.progress.Total > 0 {
		bar = "\n" + m.bar.ViewAs(float64(m.progress.Step)/float64(m.progress.Total))
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})

	return fmt.Sprintf("%s\n%s %s\n%s%s\n\n%s",
		title, m.spinner.View(), phase, m.progress.Message, bar, helpView)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s",
			styles.err.Render(fmt.Sprintf("Run failed: %v", m.err)), helpView)
	}

	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	title := styles.ok.Render("✓ Capsule Complete!")
	info := fmt.Sprintf("\nChart: %s\nMatched: %d/%d (%.1f%%)",
		m.result.Date, m.result.MatchedCount, m.result.TotalEntries, m.result.MatchPercentage)

	if m.result.Playlist != nil {
		info += fmt.Sprintf("\nPlaylist: %s\nURL: %s", m.result.Playlist.Name, m.result.Playlist.URL)
	}

	var missed string
	if m.result.Missing.Total() > 0 {
		missed = "\n\n" + styles.warn.Render(fmt.Sprintf("%d entries unmatched:", m.result.Missing.Total()))
		for _, date := range m.result.Missing.Dates {
			for _, e := range m.result.Missing.Entries[date] {
				missed += fmt.Sprintf("\n  • #%d %s - %s", e.Rank, e.Artist, e.Title)
			}
		}
	}

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, missed, helpView)
}
