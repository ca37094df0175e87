package statusview

import (
	"strings"
	"testing"

	"github.com/paperforge/paperforge/internal/agent"
	"github.com/paperforge/paperforge/internal/steps"
)

func TestStepGlyphsCoverEveryStatus(t *testing.T) {
	for _, st := range steps.AllStatuses() {
		glyph := ForStep(st)
		if glyph.Icon == "" || glyph.Label == "" || glyph.Color == "" {
			t.Fatalf("incomplete glyph for %s: %+v", st, glyph)
		}
	}
}

func TestRunGlyphsCoverEveryStatus(t *testing.T) {
	for _, st := range []agent.RunStatus{agent.StatusIdle, agent.StatusRunning, agent.StatusCompleted, agent.StatusFailed} {
		glyph := ForRun(st)
		if glyph.Icon == "" || glyph.Label == "" || glyph.Color == "" {
			t.Fatalf("incomplete glyph for %s: %+v", st, glyph)
		}
	}
}

func TestGlyphsDistinguishStatuses(t *testing.T) {
	seen := map[string]steps.Status{}
	for _, st := range steps.AllStatuses() {
		key := ForStep(st).Icon + "/" + ForStep(st).Label
		if prev, dup := seen[key]; dup {
			t.Fatalf("statuses %s and %s share glyph %q", prev, st, key)
		}
		seen[key] = st
	}
}

func TestRenderStepIncludesLabel(t *testing.T) {
	step := steps.Step{ID: 1, Label: "Verify blueprint", Status: steps.StatusRunning}
	out := RenderStep(step)
	if !strings.Contains(out, "Verify blueprint") {
		t.Fatalf("rendered line missing step label: %q", out)
	}
	if !strings.Contains(out, "Running") {
		t.Fatalf("rendered line missing status label: %q", out)
	}
}

func TestRenderIsPure(t *testing.T) {
	step := steps.Step{ID: 0, Label: "Select questions", Status: steps.StatusCompleted}
	first := RenderStep(step)
	for i := 0; i < 5; i++ {
		if RenderStep(step) != first {
			t.Fatalf("projection produced differing output on re-render")
		}
	}
}
