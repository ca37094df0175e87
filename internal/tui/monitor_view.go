package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/paperforge/paperforge/internal/agent"
	"github.com/paperforge/paperforge/internal/statusview"
	"github.com/paperforge/paperforge/internal/steps"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	logHeadStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	logBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)
	errorTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	successTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	detailTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

func (a *App) renderMonitor() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	paneWidth := max(30, width/2-4)

	var panes []string
	for _, ag := range a.pipeline.Agents() {
		panes = append(panes, a.renderAgentPane(ag, paneWidth))
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, panes[0], panes[1])
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, panes[2], panes[3])

	sections := []string{
		headerStyle.Render("◆ PAPERFORGE"),
		top,
		bottom,
	}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, footerStyle.Render(a.statusMsg+"    q → quit"))
	return strings.Join(sections, "\n")
}

func (a *App) renderAgentPane(ag agent.Agent, width int) string {
	title := fmt.Sprintf("%s  %s", paneTitleStyle.Render(ag.Kind().DisplayName()), statusview.RenderRun(ag.RunStatus()))
	lines := []string{title}
	for _, step := range ag.Steps() {
		line := "  " + statusview.RenderStep(step)
		if step.Status == steps.StatusRunning {
			line += " " + a.spin.View()
		}
		lines = append(lines, line)
	}
	if errText := ag.LastError(); errText != "" {
		lines = append(lines, errorTextStyle.Render("  ⚠ "+truncate(errText, width-6)))
	}
	return paneStyle.Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := logHeadStyle.Render(fmt.Sprintf("LOG · %s", fileName))
	body := logBodyStyle.Render(strings.Join(lines, "\n"))
	return paneStyle.Render(head + "\n" + body)
}

func (a *App) renderResults() string {
	draft := a.pipeline.Generation.Draft()
	lines := []string{
		headerStyle.Render("◆ PAPERFORGE"),
		successTextStyle.Render("Paper generation completed"),
		"",
	}
	if draft.PaperPath != "" {
		lines = append(lines, detailTextStyle.Render("Question paper: ")+draft.PaperPath)
	}
	if draft.AnswerKeyPath != "" {
		lines = append(lines, detailTextStyle.Render("Answer key:     ")+draft.AnswerKeyPath)
	}
	if draft.PaperPath == "" && draft.AnswerKeyPath == "" {
		lines = append(lines, detailTextStyle.Render("Artifacts are in ")+a.config.GeneratedDir())
	}
	lines = append(lines, "", footerStyle.Render("enter/q → quit"))
	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
