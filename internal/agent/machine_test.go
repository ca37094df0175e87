package agent

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/paperforge/paperforge/internal/steps"
)

func TestDeriveRunStatus(t *testing.T) {
	cases := []struct {
		name     string
		statuses []steps.Status
		want     RunStatus
	}{
		{"all pending", []steps.Status{steps.StatusPending, steps.StatusPending}, StatusIdle},
		{"first running", []steps.Status{steps.StatusRunning, steps.StatusPending}, StatusRunning},
		{"mid pipeline", []steps.Status{steps.StatusCompleted, steps.StatusRunning, steps.StatusPending}, StatusRunning},
		{"last completed", []steps.Status{steps.StatusCompleted, steps.StatusCompleted}, StatusCompleted},
		{"any failed wins", []steps.Status{steps.StatusCompleted, steps.StatusFailed, steps.StatusPending}, StatusFailed},
		{"failed beats completed tail", []steps.Status{steps.StatusFailed, steps.StatusCompleted}, StatusFailed},
		{"empty ledger", nil, StatusIdle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			list := make([]steps.Step, len(tc.statuses))
			for i, st := range tc.statuses {
				list[i] = steps.Step{ID: i, Status: st}
			}
			if got := DeriveRunStatus(list); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestStartMarksFirstStepRunning(t *testing.T) {
	m := New[GenerationDraft](KindGeneration)
	m.SetError("leftover")
	m.Start()
	if m.LastError() != "" {
		t.Fatalf("start did not clear error: %q", m.LastError())
	}
	list := m.Steps()
	if list[0].Status != steps.StatusRunning {
		t.Fatalf("expected step 0 running, got %s", list[0].Status)
	}
	for _, step := range list[1:] {
		if step.Status != steps.StatusPending {
			t.Fatalf("step %d: expected pending, got %s", step.ID, step.Status)
		}
	}
	if m.RunStatus() != StatusRunning {
		t.Fatalf("expected running, got %s", m.RunStatus())
	}
}

func TestSequentialCompletionFlipsStatus(t *testing.T) {
	m := New[GenerationDraft](KindGeneration)
	m.Start()
	last := len(m.Steps()) - 1
	for i := 0; i < last; i++ {
		m.UpdateStep(i, steps.StatusCompleted)
		m.UpdateStep(i+1, steps.StatusRunning)
		if m.RunStatus() != StatusRunning {
			t.Fatalf("step %d: expected running, got %s", i, m.RunStatus())
		}
	}
	m.UpdateStep(last, steps.StatusCompleted)
	if m.RunStatus() != StatusCompleted {
		t.Fatalf("expected completed, got %s", m.RunStatus())
	}
}

func TestFailureHaltsWithoutAdvancingLaterSteps(t *testing.T) {
	m := New[PatternDraft](KindPattern)
	m.Start()
	m.UpdateStep(0, steps.StatusCompleted)
	m.UpdateStep(1, steps.StatusRunning)
	m.UpdateStep(1, steps.StatusFailed)
	m.SetError("blueprint rejected")
	if m.RunStatus() != StatusFailed {
		t.Fatalf("expected failed, got %s", m.RunStatus())
	}
	if m.LastError() != "blueprint rejected" {
		t.Fatalf("unexpected error: %q", m.LastError())
	}
	list := m.Steps()
	for _, step := range list[2:] {
		if step.Status != steps.StatusPending {
			t.Fatalf("step %d advanced after failure: %s", step.ID, step.Status)
		}
	}
}

func TestResetReturnsPristineSnapshotAndBumpsEpoch(t *testing.T) {
	m := New[SyllabusDraft](KindSyllabus)
	pristine := m.Steps()
	epoch := m.Epoch()
	m.Start()
	m.UpdateStep(0, steps.StatusCompleted)
	m.SetDraft(SyllabusDraft{FileName: "syllabus.md", TopicCount: 12})
	m.SetError("boom")
	m.Reset()
	if !reflect.DeepEqual(m.Steps(), pristine) {
		t.Fatalf("reset ledger differs from pristine:\n got %+v\nwant %+v", m.Steps(), pristine)
	}
	if m.RunStatus() != StatusIdle {
		t.Fatalf("expected idle after reset, got %s", m.RunStatus())
	}
	if m.LastError() != "" {
		t.Fatalf("error survived reset: %q", m.LastError())
	}
	if got := m.Draft(); got != (SyllabusDraft{}) {
		t.Fatalf("draft survived reset: %+v", got)
	}
	if m.Epoch() != epoch+1 {
		t.Fatalf("expected epoch bump, got %d -> %d", epoch, m.Epoch())
	}
}

func TestStaleIndicesAreCountedNotApplied(t *testing.T) {
	m := New[PYQDraft](KindPYQ)
	m.Start()
	before := m.Steps()
	m.UpdateStep(99, steps.StatusFailed)
	m.UpdateStep(-3, steps.StatusCompleted)
	if !reflect.DeepEqual(m.Steps(), before) {
		t.Fatalf("stale updates mutated ledger")
	}
	if m.StaleUpdates() != 2 {
		t.Fatalf("expected 2 stale updates, got %d", m.StaleUpdates())
	}
}

func TestSetDraftJSONDecodesPayload(t *testing.T) {
	m := New[PatternDraft](KindPattern)
	payload := json.RawMessage(`{"total_marks":80,"section_count":4}`)
	if err := m.SetDraftJSON(payload); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	if d := m.Draft(); d.TotalMarks != 80 || d.SectionCount != 4 {
		t.Fatalf("unexpected draft: %+v", d)
	}
	if err := m.SetDraftJSON(nil); err != nil {
		t.Fatalf("empty payload should be a no-op, got %v", err)
	}
	if err := m.SetDraftJSON(json.RawMessage(`{`)); err == nil {
		t.Fatalf("expected decode error for malformed payload")
	}
}

func TestObserverFiresOnEveryMutation(t *testing.T) {
	m := New[GenerationDraft](KindGeneration)
	var seen int
	m.SetObserver(func() { seen++ })
	m.Start()
	m.UpdateStep(0, steps.StatusCompleted)
	m.SetError("x")
	m.Reset()
	if seen != 4 {
		t.Fatalf("expected 4 notifications, got %d", seen)
	}
	m.UpdateStep(42, steps.StatusRunning)
	if seen != 4 {
		t.Fatalf("stale update must not notify, got %d", seen)
	}
}

func TestPipelineStatusDerivation(t *testing.T) {
	p := NewPipeline()
	if p.Status() != StatusIdle {
		t.Fatalf("fresh pipeline should be idle, got %s", p.Status())
	}
	p.Syllabus.Start()
	if p.Status() != StatusRunning {
		t.Fatalf("expected running, got %s", p.Status())
	}
	completeAgent(p.Syllabus)
	completeAgent(p.PYQ)
	completeAgent(p.Pattern)
	// Between agents: nothing running, final agent not complete.
	if p.Status() != StatusIdle {
		t.Fatalf("expected idle between agents, got %s", p.Status())
	}
	completeAgent(p.Generation)
	if p.Status() != StatusCompleted {
		t.Fatalf("expected completed, got %s", p.Status())
	}
	p.Reset()
	if p.Status() != StatusIdle {
		t.Fatalf("expected idle after reset, got %s", p.Status())
	}
}

func TestPipelineFailedAgentSurfacesNewestFailure(t *testing.T) {
	p := NewPipeline()
	if p.FailedAgent() != nil {
		t.Fatalf("no agent should have failed yet")
	}
	p.Syllabus.Start()
	p.Syllabus.UpdateStep(0, steps.StatusFailed)
	p.Syllabus.SetError("first")
	p.Pattern.Start()
	p.Pattern.UpdateStep(0, steps.StatusFailed)
	p.Pattern.SetError("second")
	failed := p.FailedAgent()
	if failed == nil || failed.Kind() != KindPattern {
		t.Fatalf("expected pattern agent, got %+v", failed)
	}
	if failed.LastError() != "second" {
		t.Fatalf("expected newest failure surfaced, got %q", failed.LastError())
	}
	if p.Status() != StatusFailed {
		t.Fatalf("expected failed pipeline, got %s", p.Status())
	}
}

func completeAgent(a interface {
	Start()
	UpdateStep(int, steps.Status)
	Steps() []steps.Step
}) {
	a.Start()
	total := len(a.Steps())
	for i := 0; i < total-1; i++ {
		a.UpdateStep(i, steps.StatusCompleted)
		a.UpdateStep(i+1, steps.StatusRunning)
	}
	a.UpdateStep(total-1, steps.StatusCompleted)
}
