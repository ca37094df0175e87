// cmd/paperforge/main.go
//
// This is the entry point for the PaperForge TUI.
// When you run `paperforge` from a project directory, this is what executes.
//
// Flow:
// 1. Initialize the .paperforge folder and load configuration
// 2. Create or look up the project record
// 3. Launch the pipeline monitor TUI; generation starts automatically

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/paperforge/paperforge/internal/config"
	"github.com/paperforge/paperforge/internal/generate"
	"github.com/paperforge/paperforge/internal/logbook"
	"github.com/paperforge/paperforge/internal/project"
	"github.com/paperforge/paperforge/internal/providers"
	"github.com/paperforge/paperforge/internal/tui"
)

func main() {
	projectID := flag.String("id", "", "existing project record to rerun")
	subject := flag.String("subject", "", "exam subject (e.g. Physics)")
	grade := flag.String("grade", "", "grade or class level")
	board := flag.String("board", "", "examination board (e.g. CBSE)")
	flag.Parse()

	// API keys usually live in the project's .env file.
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		die("determine working directory: %v", err)
	}
	if err := config.InitProjectDir(cwd); err != nil {
		die("init .paperforge: %v", err)
	}
	cfg, err := config.NewConfig(cwd)
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

	rec, err := resolveRecord(ctx, store, *projectID, *subject, *grade, *board)
	if err != nil {
		die("%v", err)
	}

	client, err := providers.NewClient(cfg.Project.LLM.Provider, providers.Options{
		Model:     cfg.Project.LLM.Model,
		MaxTokens: cfg.Project.LLM.MaxTokens,
	})
	if err != nil {
		die("configure llm provider: %v", err)
	}
	svc := generate.NewService(cfg, client, lb)

	p := tea.NewProgram(
		tui.NewApp(cfg, lb, store, svc, rec.ID),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		die("run TUI: %v", err)
	}
}

// resolveRecord reuses an existing project record or creates a new one from
// the seed flags.
func resolveRecord(ctx context.Context, store *project.Store, id, subject, grade, board string) (project.Record, error) {
	if strings.TrimSpace(id) != "" {
		rec, err := store.Get(ctx, id)
		if err != nil {
			return project.Record{}, fmt.Errorf("load project %s: %w", id, err)
		}
		return rec, nil
	}
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(grade) == "" || strings.TrimSpace(board) == "" {
		return project.Record{}, fmt.Errorf("--subject, --grade, and --board are required (or pass --id for an existing project)")
	}
	rec, err := store.Create(ctx, project.Record{
		Subject: subject,
		Grade:   grade,
		Board:   board,
	})
	if err != nil {
		return project.Record{}, fmt.Errorf("create project: %w", err)
	}
	return rec, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
