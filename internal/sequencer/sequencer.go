// Package sequencer coordinates one generation run: it fetches the project
// seed, auto-starts the trigger exactly once, applies progress events to the
// agent machines in pipeline order, and hands the view off to the results
// screen shortly after a successful finish.
package sequencer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paperforge/paperforge/internal/agent"
	"github.com/paperforge/paperforge/internal/logbook"
	"github.com/paperforge/paperforge/internal/progress"
	"github.com/paperforge/paperforge/internal/project"
	"github.com/paperforge/paperforge/internal/steps"
)

// DefaultHandoffDelay is how long a finished run stays on the monitor before
// the view switches to the results screen.
const DefaultHandoffDelay = 3500 * time.Millisecond

// ResultsPath is the navigation target of the completion hand-off.
const ResultsPath = "/results"

// Navigator switches the live view. Fire-and-forget.
type Navigator interface {
	NavigateTo(path string)
}

// NoticeKind classifies a terminal notification.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notifier surfaces one-line run outcomes to the user. Fire-and-forget.
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

// Deps are the collaborators a sequencer drives. All fields are required.
type Deps struct {
	Pipeline *agent.Pipeline
	Projects project.Fetcher
	Trigger  progress.Trigger
	Nav      Navigator
	Notify   Notifier
	Log      *logbook.Logbook
}

// Option customizes sequencer construction.
type Option func(*Sequencer)

// WithHandoffDelay overrides the results hand-off delay.
func WithHandoffDelay(d time.Duration) Option {
	return func(s *Sequencer) {
		if d > 0 {
			s.handoffDelay = d
		}
	}
}

// Sequencer owns the lifecycle of a single run. Init may be called once; the
// start latch never rearms, even after a pipeline reset.
type Sequencer struct {
	mu           sync.Mutex
	deps         Deps
	handoffDelay time.Duration
	events       <-chan progress.Event
	started      bool
	notified     bool
	closed       bool
	handoff      *time.Timer
}

// New constructs a sequencer around its collaborators.
func New(deps Deps, opts ...Option) *Sequencer {
	s := &Sequencer{
		deps:         deps,
		handoffDelay: DefaultHandoffDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init fetches the project seed and starts the run. The latch is consumed on
// the first call whatever the outcome: a failed fetch notifies the user and
// the run never starts, it is not retried.
func (s *Sequencer) Init(ctx context.Context, projectID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("sequencer: closed")
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	rec, err := s.deps.Projects.Fetch(ctx, projectID)
	if err != nil {
		s.deps.Log.Error("fetch project %s: %v", projectID, err)
		s.deps.Notify.Notify(NoticeError, fmt.Sprintf("Could not load project: %v", err))
		return fmt.Errorf("sequencer: fetch project: %w", err)
	}

	req := progress.Request{
		ProjectID: rec.ID,
		Subject:   rec.Subject,
		Grade:     rec.Grade,
		Board:     rec.Board,
		Epochs:    s.snapshotEpochs(),
	}
	events, err := s.deps.Trigger.Start(ctx, req)
	if err != nil {
		s.deps.Log.Error("start generation for %s: %v", rec.Subject, err)
		s.deps.Notify.Notify(NoticeError, fmt.Sprintf("Could not start generation: %v", err))
		return fmt.Errorf("sequencer: start generation: %w", err)
	}
	s.deps.Log.Info("generation started for %s (grade %s, %s)", rec.Subject, rec.Grade, rec.Board)

	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
	return nil
}

// Events returns the run's progress stream, nil before a successful Init.
// The channel closes when the run ends.
func (s *Sequencer) Events() <-chan progress.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

// Apply feeds one progress event into the agent machines. Events carrying an
// epoch older than the target machine's are dropped: they belong to work that
// outlived a reset.
func (s *Sequencer) Apply(ev progress.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	target := s.deps.Pipeline.ByKind(ev.Agent)
	if target == nil {
		s.deps.Log.Warn("event %s addresses unknown agent %q", ev.ID, ev.Agent)
		return
	}
	if ev.Epoch != target.Epoch() {
		s.deps.Log.Warn("dropping %s event for %s: epoch %d, machine at %d", ev.Type, ev.Agent, ev.Epoch, target.Epoch())
		return
	}

	switch ev.Type {
	case progress.EventStepStarted:
		if ev.Step == 0 && target.RunStatus() == agent.StatusIdle {
			if !s.predecessorsDone(ev.Agent) {
				s.deps.Log.Warn("dropping start of %s: earlier agents incomplete", ev.Agent)
				return
			}
			target.Start()
			break
		}
		target.UpdateStep(ev.Step, steps.StatusRunning)
	case progress.EventStepCompleted:
		target.UpdateStep(ev.Step, steps.StatusCompleted)
	case progress.EventStepFailed:
		target.SetError(ev.Error)
		target.UpdateStep(ev.Step, steps.StatusFailed)
	case progress.EventDraftUpdated:
		if err := target.SetDraftJSON(ev.Payload); err != nil {
			s.deps.Log.Warn("decode %s draft: %v", ev.Agent, err)
		}
	}

	s.checkTerminalLocked()
}

// Status reports the derived pipeline status.
func (s *Sequencer) Status() agent.RunStatus {
	return s.deps.Pipeline.Status()
}

// Close tears the run down: the pending hand-off, if any, is cancelled and
// every machine returns to its pristine snapshot. The start latch stays
// consumed.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.handoff != nil {
		s.handoff.Stop()
		s.handoff = nil
	}
	s.deps.Pipeline.Reset()
}

func (s *Sequencer) snapshotEpochs() map[agent.Kind]uint64 {
	epochs := make(map[agent.Kind]uint64, len(agent.Kinds()))
	for _, a := range s.deps.Pipeline.Agents() {
		epochs[a.Kind()] = a.Epoch()
	}
	return epochs
}

func (s *Sequencer) predecessorsDone(kind agent.Kind) bool {
	for _, k := range agent.Kinds() {
		if k == kind {
			return true
		}
		if s.deps.Pipeline.ByKind(k).RunStatus() != agent.StatusCompleted {
			return false
		}
	}
	return false
}

// checkTerminalLocked notifies once per run and arms the hand-off timer on
// success. Callers hold s.mu.
func (s *Sequencer) checkTerminalLocked() {
	if s.notified {
		return
	}
	switch s.deps.Pipeline.Status() {
	case agent.StatusCompleted:
		s.notified = true
		s.deps.Log.Info("pipeline completed")
		s.deps.Notify.Notify(NoticeSuccess, "Paper generation completed")
		s.handoff = time.AfterFunc(s.handoffDelay, s.fireHandoff)
	case agent.StatusFailed:
		s.notified = true
		reason := "unknown failure"
		if failed := s.deps.Pipeline.FailedAgent(); failed != nil && failed.LastError() != "" {
			reason = failed.LastError()
		}
		s.deps.Log.Error("pipeline failed: %s", reason)
		s.deps.Notify.Notify(NoticeError, fmt.Sprintf("Paper generation failed: %s", reason))
	}
}

func (s *Sequencer) fireHandoff() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.handoff = nil
	s.mu.Unlock()
	s.deps.Nav.NavigateTo(ResultsPath)
}
