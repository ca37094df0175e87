// Package generate drives the four pipeline agents end to end: it loads the
// project inputs, talks to the language model, validates every structured
// reply, writes the finished paper, and reports each step over the progress
// stream.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paperforge/paperforge/internal/agent"
	"github.com/paperforge/paperforge/internal/config"
	"github.com/paperforge/paperforge/internal/logbook"
	"github.com/paperforge/paperforge/internal/progress"
	"github.com/paperforge/paperforge/internal/providers"
	"github.com/paperforge/paperforge/internal/schema"
)

// maxPromptChars bounds how much raw input text is embedded in a prompt.
const maxPromptChars = 24000

// ServiceOption customizes Service construction.
type ServiceOption func(*Service)

// WithClock overrides the wall clock used for event and file timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRouter substitutes the progress router, letting callers attach
// subscribers before any run starts.
func WithRouter(r *progress.Router) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.router = r
		}
	}
}

// Service runs the full generation pipeline. It implements progress.Trigger.
type Service struct {
	cfg    *config.Config
	client providers.Client
	log    *logbook.Logbook
	router *progress.Router
	now    func() time.Time
}

// NewService wires a pipeline runner over one project directory.
func NewService(cfg *config.Config, client providers.Client, log *logbook.Logbook, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:    cfg,
		client: client,
		log:    log,
		router: progress.NewRouter(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router exposes the progress router so additional observers can subscribe.
func (s *Service) Router() *progress.Router {
	return s.router
}

// Start launches a generation run and returns its event stream. The channel
// closes when the run ends; a failed step is the last event before close.
func (s *Service) Start(ctx context.Context, req progress.Request) (<-chan progress.Event, error) {
	if strings.TrimSpace(req.Subject) == "" {
		return nil, fmt.Errorf("generate: subject is required")
	}
	sub := s.router.Subscribe(progress.SubscribeAll)
	go func() {
		defer sub.Close()
		s.run(ctx, req)
	}()
	return sub.Events, nil
}

// runState carries the intermediate documents between agents.
type runState struct {
	syllabusText  string
	syllabusJSON  json.RawMessage
	syllabus      syllabusDoc
	pyqText       string
	pyqJSON       json.RawMessage
	pyq           pyqDoc
	blueprintJSON json.RawMessage
	blueprint     blueprintDoc
	paper         string
}

func (s *Service) run(ctx context.Context, req progress.Request) {
	st := &runState{}
	stages := []struct {
		kind agent.Kind
		fn   func(context.Context, progress.Request, *runState) error
	}{
		{agent.KindSyllabus, s.runSyllabus},
		{agent.KindPYQ, s.runPYQ},
		{agent.KindPattern, s.runPattern},
		{agent.KindGeneration, s.runGeneration},
	}
	for _, stage := range stages {
		if err := stage.fn(ctx, req, st); err != nil {
			s.log.Error("%s agent failed: %v", stage.kind, err)
			return
		}
	}
	s.log.Info("generation run finished for %s", req.Subject)
}

func (s *Service) runSyllabus(ctx context.Context, req progress.Request, st *runState) error {
	kind := agent.KindSyllabus

	path := s.cfg.SyllabusPath()
	err := s.step(req, kind, 0, func() error {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load syllabus: %w", err)
		}
		st.syllabusText = string(raw)
		return nil
	})
	if err != nil {
		return err
	}
	s.draft(req, kind, agent.SyllabusDraft{FileName: filepath.Base(path)})

	if err := s.step(req, kind, 1, func() error {
		st.syllabusText = strings.TrimSpace(st.syllabusText)
		if st.syllabusText == "" {
			return fmt.Errorf("syllabus document %s is empty", filepath.Base(path))
		}
		return nil
	}); err != nil {
		return err
	}
	s.draft(req, kind, agent.SyllabusDraft{
		FileName:      filepath.Base(path),
		ExtractedText: clip(st.syllabusText, 200),
	})

	if err := s.step(req, kind, 2, func() error {
		prompt := fmt.Sprintf(syllabusPrompt, req.Subject, req.Grade, req.Board, clip(st.syllabusText, maxPromptChars))
		reply, err := s.client.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			return fmt.Errorf("structure syllabus: %w", err)
		}
		doc, err := extractJSON(reply)
		if err != nil {
			return err
		}
		if err := schema.ValidateSyllabus(string(doc)); err != nil {
			return err
		}
		if err := json.Unmarshal(doc, &st.syllabus); err != nil {
			return fmt.Errorf("decode syllabus: %w", err)
		}
		st.syllabusJSON = doc
		return nil
	}); err != nil {
		return err
	}
	s.draft(req, kind, agent.SyllabusDraft{
		FileName:   filepath.Base(path),
		TopicCount: st.syllabus.topicCount(),
	})
	return nil
}

func (s *Service) runPYQ(ctx context.Context, req progress.Request, st *runState) error {
	kind := agent.KindPYQ

	path := s.cfg.PYQPath()
	err := s.step(req, kind, 0, func() error {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load prior-year papers: %w", err)
		}
		st.pyqText = strings.TrimSpace(string(raw))
		if st.pyqText == "" {
			return fmt.Errorf("prior-year document %s is empty", filepath.Base(path))
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.draft(req, kind, agent.PYQDraft{FileName: filepath.Base(path)})

	if err := s.step(req, kind, 1, func() error {
		prompt := fmt.Sprintf(pyqPrompt, string(st.syllabusJSON), clip(st.pyqText, maxPromptChars))
		reply, err := s.client.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			return fmt.Errorf("extract questions: %w", err)
		}
		doc, err := extractJSON(reply)
		if err != nil {
			return err
		}
		if err := schema.ValidatePYQ(string(doc)); err != nil {
			return err
		}
		if err := json.Unmarshal(doc, &st.pyq); err != nil {
			return fmt.Errorf("decode questions: %w", err)
		}
		st.pyqJSON = doc
		return nil
	}); err != nil {
		return err
	}

	if err := s.step(req, kind, 2, func() error {
		untagged := 0
		for _, q := range st.pyq.Questions {
			if strings.TrimSpace(q.Topic) == "" {
				untagged++
			}
		}
		if untagged > 0 {
			s.log.Warn("%d of %d prior-year questions have no topic tag", untagged, len(st.pyq.Questions))
		}
		return nil
	}); err != nil {
		return err
	}
	s.draft(req, kind, agent.PYQDraft{
		FileName:      filepath.Base(path),
		QuestionCount: len(st.pyq.Questions),
		YearsCovered:  st.pyq.years(),
	})
	return nil
}

func (s *Service) runPattern(ctx context.Context, req progress.Request, st *runState) error {
	kind := agent.KindPattern

	if err := s.step(req, kind, 0, func() error {
		prompt := fmt.Sprintf(blueprintPrompt, req.Subject, req.Grade, req.Board, string(st.syllabusJSON), string(st.pyqJSON))
		reply, err := s.client.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			return fmt.Errorf("draft blueprint: %w", err)
		}
		doc, err := extractJSON(reply)
		if err != nil {
			return err
		}
		st.blueprintJSON = doc
		return nil
	}); err != nil {
		return err
	}

	if err := s.step(req, kind, 1, func() error {
		if err := schema.ValidateBlueprint(string(st.blueprintJSON)); err != nil {
			return err
		}
		if err := json.Unmarshal(st.blueprintJSON, &st.blueprint); err != nil {
			return fmt.Errorf("decode blueprint: %w", err)
		}
		return verifyBlueprint(st.blueprint)
	}); err != nil {
		return err
	}

	if err := s.step(req, kind, 2, func() error { return nil }); err != nil {
		return err
	}
	s.draft(req, kind, agent.PatternDraft{
		TotalMarks:   st.blueprint.TotalMarks,
		SectionCount: len(st.blueprint.Sections),
	})
	return nil
}

func (s *Service) runGeneration(ctx context.Context, req progress.Request, st *runState) error {
	kind := agent.KindGeneration

	if err := s.step(req, kind, 0, func() error {
		prompt := fmt.Sprintf(selectionPrompt, string(st.blueprintJSON), string(st.pyqJSON))
		reply, err := s.client.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			return fmt.Errorf("select questions: %w", err)
		}
		st.paper = strings.TrimSpace(reply)
		if st.paper == "" {
			return fmt.Errorf("model returned an empty paper")
		}
		return nil
	}); err != nil {
		return err
	}

	if err := s.step(req, kind, 1, func() error {
		prompt := fmt.Sprintf(verifyPrompt, string(st.blueprintJSON), st.paper)
		reply, err := s.client.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			return fmt.Errorf("verify paper: %w", err)
		}
		verdict := strings.TrimSpace(reply)
		if verdict != "OK" && !strings.HasPrefix(verdict, "OK") {
			return fmt.Errorf("paper failed review: %s", clip(verdict, 500))
		}
		return nil
	}); err != nil {
		return err
	}

	stamp := s.now().UTC().Format("20060102-150405")
	paperPath := filepath.Join(s.cfg.GeneratedDir(), fmt.Sprintf("%s-paper-%s.md", slug(req.Subject), stamp))
	keyPath := filepath.Join(s.cfg.GeneratedDir(), fmt.Sprintf("%s-answer-key-%s.md", slug(req.Subject), stamp))

	if err := s.step(req, kind, 2, func() error {
		if err := os.WriteFile(paperPath, []byte(st.paper+"\n"), 0o644); err != nil {
			return fmt.Errorf("write paper: %w", err)
		}
		s.log.Info("wrote question paper to %s", paperPath)
		return nil
	}); err != nil {
		return err
	}

	if err := s.step(req, kind, 3, func() error {
		reply, err := s.client.Complete(ctx, systemPrompt, fmt.Sprintf(answerKeyPrompt, st.paper))
		if err != nil {
			return fmt.Errorf("write answer key: %w", err)
		}
		if err := os.WriteFile(keyPath, []byte(strings.TrimSpace(reply)+"\n"), 0o644); err != nil {
			return fmt.Errorf("write answer key: %w", err)
		}
		s.log.Info("wrote answer key to %s", keyPath)
		return nil
	}); err != nil {
		return err
	}
	s.draft(req, kind, agent.GenerationDraft{PaperPath: paperPath, AnswerKeyPath: keyPath})
	return nil
}

// verifyBlueprint cross-checks the marks arithmetic the schema cannot.
func verifyBlueprint(bp blueprintDoc) error {
	total := 0
	for _, sec := range bp.Sections {
		secTotal := 0
		for _, q := range sec.Questions {
			secTotal += q.Marks
		}
		if secTotal != sec.Marks {
			return fmt.Errorf("blueprint section %q declares %d marks but its questions sum to %d", sec.Name, sec.Marks, secTotal)
		}
		total += sec.Marks
	}
	if total != bp.TotalMarks {
		return fmt.Errorf("blueprint declares %d total marks but its sections sum to %d", bp.TotalMarks, total)
	}
	return nil
}

// step publishes started/completed/failed events around one unit of work.
func (s *Service) step(req progress.Request, kind agent.Kind, index int, fn func() error) error {
	s.publish(req, kind, progress.EventStepStarted, index, "", nil)
	if err := fn(); err != nil {
		s.publish(req, kind, progress.EventStepFailed, index, err.Error(), nil)
		return err
	}
	s.publish(req, kind, progress.EventStepCompleted, index, "", nil)
	return nil
}

// draft publishes a draft-updated event carrying the agent's working data.
func (s *Service) draft(req progress.Request, kind agent.Kind, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.log.Warn("marshal %s draft: %v", kind, err)
		return
	}
	s.publish(req, kind, progress.EventDraftUpdated, 0, "", payload)
}

func (s *Service) publish(req progress.Request, kind agent.Kind, typ progress.EventType, step int, errText string, payload json.RawMessage) {
	s.router.Publish(progress.Event{
		ID:      uuid.NewString(),
		Agent:   kind,
		Type:    typ,
		Step:    step,
		Epoch:   req.Epochs[kind],
		Error:   errText,
		Payload: payload,
		Time:    s.now().UTC(),
	})
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "paper"
	}
	return out
}
