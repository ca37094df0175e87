// Package statusview projects ledger state into display-friendly glyphs.
// It is a pure read-only adapter: no state, no side effects, safe to
// recompute on every observation.
package statusview

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/paperforge/paperforge/internal/agent"
	"github.com/paperforge/paperforge/internal/steps"
)

// Glyph is the (icon, color, label) triple shown for one step status.
type Glyph struct {
	Icon  string
	Color lipgloss.Color
	Label string
}

// Style returns the lipgloss style carrying the glyph's color token.
func (g Glyph) Style() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(g.Color)
}

var stepGlyphs = map[steps.Status]Glyph{
	steps.StatusPending:   {Icon: "○", Color: lipgloss.Color("#999999"), Label: "Pending"},
	steps.StatusRunning:   {Icon: "◐", Color: lipgloss.Color("#5B8DEF"), Label: "Running"},
	steps.StatusCompleted: {Icon: "●", Color: lipgloss.Color("#4CAF50"), Label: "Completed"},
	steps.StatusFailed:    {Icon: "✗", Color: lipgloss.Color("#FF6B6B"), Label: "Failed"},
}

var runGlyphs = map[agent.RunStatus]Glyph{
	agent.StatusIdle:      {Icon: "·", Color: lipgloss.Color("#CCCCCC"), Label: "Idle"},
	agent.StatusRunning:   {Icon: "◐", Color: lipgloss.Color("#5B8DEF"), Label: "Running"},
	agent.StatusCompleted: {Icon: "✔", Color: lipgloss.Color("#4CAF50"), Label: "Completed"},
	agent.StatusFailed:    {Icon: "✗", Color: lipgloss.Color("#FF6B6B"), Label: "Failed"},
}

// The mappings must cover every enumerated status; a gap is a construction
// defect, not a runtime fallback.
func init() {
	for _, st := range steps.AllStatuses() {
		if _, ok := stepGlyphs[st]; !ok {
			panic(fmt.Sprintf("statusview: missing glyph for step status %q", st))
		}
	}
	for _, st := range []agent.RunStatus{agent.StatusIdle, agent.StatusRunning, agent.StatusCompleted, agent.StatusFailed} {
		if _, ok := runGlyphs[st]; !ok {
			panic(fmt.Sprintf("statusview: missing glyph for run status %q", st))
		}
	}
}

// ForStep returns the glyph for a step status.
func ForStep(status steps.Status) Glyph {
	return stepGlyphs[status]
}

// ForRun returns the glyph for an agent run status.
func ForRun(status agent.RunStatus) Glyph {
	return runGlyphs[status]
}

// RenderStep formats one step line: colored icon, label, and status tag.
func RenderStep(step steps.Step) string {
	glyph := ForStep(step.Status)
	style := glyph.Style()
	return fmt.Sprintf("%s %s · %s", style.Render(glyph.Icon), step.Label, style.Render(glyph.Label))
}

// RenderRun formats an agent's coarse status tag.
func RenderRun(status agent.RunStatus) string {
	glyph := ForRun(status)
	return glyph.Style().Bold(true).Render(fmt.Sprintf("%s %s", glyph.Icon, glyph.Label))
}
