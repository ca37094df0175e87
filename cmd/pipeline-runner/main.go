package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/paperforge/paperforge/internal/agent"
	"github.com/paperforge/paperforge/internal/config"
	"github.com/paperforge/paperforge/internal/generate"
	"github.com/paperforge/paperforge/internal/logbook"
	"github.com/paperforge/paperforge/internal/progress"
	"github.com/paperforge/paperforge/internal/project"
	"github.com/paperforge/paperforge/internal/providers"
	"github.com/paperforge/paperforge/internal/steps"
)

// pipeline-runner drives one generation run without the TUI, printing each
// progress event to stdout. Useful for scripts and CI smoke runs.
func main() {
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	subject := flag.String("subject", "", "exam subject (e.g. Physics)")
	grade := flag.String("grade", "", "grade or class level")
	board := flag.String("board", "", "examination board (e.g. CBSE)")
	flag.Parse()

	_ = godotenv.Load()

	dir := *projectDir
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if strings.TrimSpace(*subject) == "" || strings.TrimSpace(*grade) == "" || strings.TrimSpace(*board) == "" {
		die("--subject, --grade, and --board are required")
	}

	if err := config.InitProjectDir(dir); err != nil {
		die("init .paperforge: %v", err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		die("load config: %v", err)
	}
	lb, err := logbook.New(cfg.LogbookPath())
	if err != nil {
		die("open logbook: %v", err)
	}

	ctx := context.Background()
	store, err := project.Open(ctx, cfg.DatabasePath())
	if err != nil {
		die("open project store: %v", err)
	}
	defer store.Close()
	rec, err := store.Create(ctx, project.Record{Subject: *subject, Grade: *grade, Board: *board})
	if err != nil {
		die("create project: %v", err)
	}

	client, err := providers.NewClient(cfg.Project.LLM.Provider, providers.Options{
		Model:     cfg.Project.LLM.Model,
		MaxTokens: cfg.Project.LLM.MaxTokens,
	})
	if err != nil {
		die("configure llm provider: %v", err)
	}
	svc := generate.NewService(cfg, client, lb)

	pipeline := agent.NewPipeline()
	events, err := svc.Start(ctx, progress.Request{
		ProjectID: rec.ID,
		Subject:   rec.Subject,
		Grade:     rec.Grade,
		Board:     rec.Board,
		Epochs:    snapshotEpochs(pipeline),
	})
	if err != nil {
		die("start generation: %v", err)
	}

	for ev := range events {
		applyEvent(pipeline, ev)
		printEvent(ev)
	}

	switch pipeline.Status() {
	case agent.StatusCompleted:
		draft := pipeline.Generation.Draft()
		fmt.Printf("\nDone. Paper: %s\nAnswer key: %s\n", draft.PaperPath, draft.AnswerKeyPath)
	case agent.StatusFailed:
		reason := "unknown failure"
		if failed := pipeline.FailedAgent(); failed != nil && failed.LastError() != "" {
			reason = failed.LastError()
		}
		die("generation failed: %s", reason)
	default:
		die("generation ended before completion")
	}
}

func snapshotEpochs(p *agent.Pipeline) map[agent.Kind]uint64 {
	epochs := make(map[agent.Kind]uint64, len(agent.Kinds()))
	for _, a := range p.Agents() {
		epochs[a.Kind()] = a.Epoch()
	}
	return epochs
}

func applyEvent(p *agent.Pipeline, ev progress.Event) {
	target := p.ByKind(ev.Agent)
	if target == nil || ev.Epoch != target.Epoch() {
		return
	}
	switch ev.Type {
	case progress.EventStepStarted:
		if ev.Step == 0 && target.RunStatus() == agent.StatusIdle {
			target.Start()
			return
		}
		target.UpdateStep(ev.Step, steps.StatusRunning)
	case progress.EventStepCompleted:
		target.UpdateStep(ev.Step, steps.StatusCompleted)
	case progress.EventStepFailed:
		target.SetError(ev.Error)
		target.UpdateStep(ev.Step, steps.StatusFailed)
	case progress.EventDraftUpdated:
		_ = target.SetDraftJSON(ev.Payload)
	}
}

func printEvent(ev progress.Event) {
	label := ""
	if labels := agent.StepLabels(ev.Agent); ev.Step >= 0 && ev.Step < len(labels) {
		label = labels[ev.Step]
	}
	switch ev.Type {
	case progress.EventStepStarted:
		fmt.Printf("[%s] %s...\n", ev.Agent, label)
	case progress.EventStepCompleted:
		fmt.Printf("[%s] %s done\n", ev.Agent, label)
	case progress.EventStepFailed:
		fmt.Printf("[%s] %s FAILED: %s\n", ev.Agent, label, ev.Error)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
