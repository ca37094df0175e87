// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for PaperForge.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: Progress Event -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/paperforge/paperforge/internal/agent"
	"github.com/paperforge/paperforge/internal/config"
	"github.com/paperforge/paperforge/internal/logbook"
	"github.com/paperforge/paperforge/internal/progress"
	"github.com/paperforge/paperforge/internal/project"
	"github.com/paperforge/paperforge/internal/sequencer"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMonitor appState = iota // Live pipeline monitor
	stateResults                 // Finished-paper summary after the hand-off
)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithSequencerOptions forwards options to the embedded sequencer.
func WithSequencerOptions(opts ...sequencer.Option) AppOption {
	return func(a *App) {
		a.seqOpts = append(a.seqOpts, opts...)
	}
}

type progressMsg progress.Event

type streamClosedMsg struct{}

type runStartedMsg struct{ err error }

type noticeMsg string

type showResultsMsg struct{}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state     appState
	config    *config.Config
	logbook   *logbook.Logbook
	pipeline  *agent.Pipeline
	seq       *sequencer.Sequencer
	seqOpts   []sequencer.Option
	projectID string

	spin      spinner.Model
	statusMsg string

	// notices and nav bridge sequencer callbacks into the update loop.
	notices chan string
	nav     chan struct{}

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp wires the monitor around one project's generation run.
func NewApp(cfg *config.Config, lb *logbook.Logbook, fetcher project.Fetcher, trigger progress.Trigger, projectID string, opts ...AppOption) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))

	app := &App{
		state:     stateMonitor,
		config:    cfg,
		logbook:   lb,
		pipeline:  agent.NewPipeline(),
		projectID: projectID,
		spin:      sp,
		statusMsg: "Starting generation...",
		notices:   make(chan string, 8),
		nav:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.seq = sequencer.New(sequencer.Deps{
		Pipeline: app.pipeline,
		Projects: fetcher,
		Trigger:  trigger,
		Nav:      app,
		Notify:   app,
		Log:      lb,
	}, app.seqOpts...)
	return app
}

// Notify implements sequencer.Notifier. It may be called off the update loop,
// so the message travels through a channel instead of touching the model.
func (a *App) Notify(kind sequencer.NoticeKind, message string) {
	if kind == sequencer.NoticeError {
		message = "⚠ " + message
	}
	select {
	case a.notices <- message:
	default:
	}
}

// NavigateTo implements sequencer.Navigator. The results screen is the only
// navigation target.
func (a *App) NavigateTo(path string) {
	if path != sequencer.ResultsPath {
		return
	}
	select {
	case a.nav <- struct{}{}:
	default:
	}
}

// Sequencer exposes the run coordinator, mainly so callers can Close it.
func (a *App) Sequencer() *sequencer.Sequencer { return a.seq }

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, a.startRun(), a.waitForNotice(), a.waitForNav())
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case runStartedMsg:
		if msg.err != nil {
			// The sequencer already notified and logged the failure.
			return a, nil
		}
		return a, a.waitForEvent()

	case progressMsg:
		a.seq.Apply(progress.Event(msg))
		return a, a.waitForEvent()

	case streamClosedMsg:
		return a, nil

	case noticeMsg:
		a.statusMsg = string(msg)
		return a, a.waitForNotice()

	case showResultsMsg:
		a.state = stateResults
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			a.seq.Close()
			return a, tea.Quit
		case "enter":
			if a.state == stateResults {
				a.seq.Close()
				return a, tea.Quit
			}
		}
	}

	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	switch a.state {
	case stateResults:
		return a.renderResults()
	default:
		return a.renderMonitor()
	}
}

func (a *App) startRun() tea.Cmd {
	return func() tea.Msg {
		err := a.seq.Init(context.Background(), a.projectID)
		return runStartedMsg{err: err}
	}
}

func (a *App) waitForEvent() tea.Cmd {
	events := a.seq.Events()
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return progressMsg(ev)
	}
}

func (a *App) waitForNotice() tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-a.notices)
	}
}

func (a *App) waitForNav() tea.Cmd {
	return func() tea.Msg {
		<-a.nav
		return showResultsMsg{}
	}
}
