package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/paperforge/paperforge/internal/agent"
	"github.com/paperforge/paperforge/internal/config"
	"github.com/paperforge/paperforge/internal/logbook"
	"github.com/paperforge/paperforge/internal/progress"
	"github.com/paperforge/paperforge/internal/project"
	"github.com/paperforge/paperforge/internal/sequencer"
)

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context, string) (project.Record, error) {
	return project.Record{ID: "p1", Subject: "Physics", Grade: "10", Board: "CBSE"}, nil
}

type stubTrigger struct {
	events chan progress.Event
}

func (s *stubTrigger) Start(context.Context, progress.Request) (<-chan progress.Event, error) {
	return s.events, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	if err := config.InitProjectDir(dir); err != nil {
		t.Fatalf("InitProjectDir: %v", err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	lb, err := logbook.New(filepath.Join(dir, "test.log"))
	if err != nil {
		t.Fatalf("logbook.New: %v", err)
	}
	trigger := &stubTrigger{events: make(chan progress.Event, 16)}
	return NewApp(cfg, lb, stubFetcher{}, trigger, "p1")
}

func apply(app *App, ev progress.Event) {
	app.Update(progressMsg(ev))
}

func event(kind agent.Kind, typ progress.EventType, step int) progress.Event {
	return progress.Event{
		ID:    fmt.Sprintf("%s-%s-%d", kind, typ, step),
		Agent: kind,
		Type:  typ,
		Step:  step,
	}
}

func completeAll(app *App) {
	for _, kind := range agent.Kinds() {
		for i := range agent.StepLabels(kind) {
			apply(app, event(kind, progress.EventStepStarted, i))
			apply(app, event(kind, progress.EventStepCompleted, i))
		}
	}
}

func TestMonitorShowsAgentProgress(t *testing.T) {
	app := newTestApp(t)
	apply(app, event(agent.KindSyllabus, progress.EventStepStarted, 0))

	if got := app.pipeline.Syllabus.RunStatus(); got != agent.StatusRunning {
		t.Fatalf("syllabus status = %s, want running", got)
	}
	view := app.View()
	for _, want := range []string{"PAPERFORGE", "Syllabus Extraction", "Load syllabus document", "Paper Generation"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestMonitorShowsFailure(t *testing.T) {
	app := newTestApp(t)
	apply(app, event(agent.KindSyllabus, progress.EventStepStarted, 0))
	failed := event(agent.KindSyllabus, progress.EventStepFailed, 0)
	failed.Error = "syllabus document is empty"
	apply(app, failed)

	view := app.View()
	if !strings.Contains(view, "syllabus document is empty") {
		t.Fatalf("view does not surface the failure:\n%s", view)
	}
}

func TestResultsViewAfterHandoff(t *testing.T) {
	app := newTestApp(t)
	completeAll(app)
	draft := event(agent.KindGeneration, progress.EventDraftUpdated, 0)
	draft.Payload = []byte(`{"paper_path": "/tmp/paper.md", "answer_key_path": "/tmp/key.md"}`)
	apply(app, draft)

	app.Update(showResultsMsg{})
	view := app.View()
	for _, want := range []string{"completed", "/tmp/paper.md", "/tmp/key.md"} {
		if !strings.Contains(view, want) {
			t.Fatalf("results view missing %q:\n%s", want, view)
		}
	}
}

func TestNoticeUpdatesStatusLine(t *testing.T) {
	app := newTestApp(t)
	app.Update(noticeMsg("Paper generation completed"))
	if !strings.Contains(app.View(), "Paper generation completed") {
		t.Fatal("notice not shown in footer")
	}
}

func TestQuitClosesSequencer(t *testing.T) {
	app := newTestApp(t)
	apply(app, event(agent.KindSyllabus, progress.EventStepStarted, 0))

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("quit produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("quit key did not return tea.Quit")
	}
	if got := app.pipeline.Syllabus.RunStatus(); got != agent.StatusIdle {
		t.Fatalf("pipeline not reset on quit, syllabus status %s", got)
	}
}

func TestNavigatorAndNotifierBridge(t *testing.T) {
	app := newTestApp(t)
	app.Notify(sequencer.NoticeSuccess, "hello")
	if msg := app.waitForNotice()(); msg != noticeMsg("hello") {
		t.Fatalf("notice bridge delivered %v", msg)
	}
	app.NavigateTo(sequencer.ResultsPath)
	if _, ok := app.waitForNav()().(showResultsMsg); !ok {
		t.Fatal("nav bridge did not deliver showResultsMsg")
	}
}
