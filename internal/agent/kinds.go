package agent

// Kind identifies one stage of the paper-generation pipeline.
type Kind string

const (
	KindSyllabus   Kind = "syllabus"
	KindPYQ        Kind = "pyq"
	KindPattern    Kind = "pattern"
	KindGeneration Kind = "generation"
)

// Kinds returns the agents in pipeline order. The sequencer starts each agent
// only after the previous one completes.
func Kinds() []Kind {
	return []Kind{KindSyllabus, KindPYQ, KindPattern, KindGeneration}
}

// DisplayName returns the human-readable agent name used by the monitor view.
func (k Kind) DisplayName() string {
	switch k {
	case KindSyllabus:
		return "Syllabus Extraction"
	case KindPYQ:
		return "Prior-Year Analysis"
	case KindPattern:
		return "Pattern Planning"
	case KindGeneration:
		return "Paper Generation"
	default:
		return string(k)
	}
}

// stepTables fixes the label set of each agent's ledger. Labels and order are
// part of the agent contract: ledgers never grow or reorder after construction.
var stepTables = map[Kind][]string{
	KindSyllabus: {
		"Load syllabus document",
		"Extract syllabus text",
		"Structure syllabus topics",
	},
	KindPYQ: {
		"Load prior-year papers",
		"Extract questions",
		"Tag questions by topic",
	},
	KindPattern: {
		"Draft blueprint",
		"Verify blueprint",
		"Finalize sections",
	},
	KindGeneration: {
		"Select questions",
		"Verify paper",
		"Compose final paper",
		"Write answer key",
	},
}

// StepLabels returns the fixed step table for an agent kind.
func StepLabels(k Kind) []string {
	labels, ok := stepTables[k]
	if !ok {
		return nil
	}
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// SyllabusDraft carries the syllabus agent's working data.
type SyllabusDraft struct {
	FileName      string `json:"file_name,omitempty"`
	ExtractedText string `json:"extracted_text,omitempty"`
	TopicCount    int    `json:"topic_count,omitempty"`
}

// PYQDraft carries the prior-year-question agent's working data.
type PYQDraft struct {
	FileName      string   `json:"file_name,omitempty"`
	QuestionCount int      `json:"question_count,omitempty"`
	YearsCovered  []string `json:"years_covered,omitempty"`
}

// PatternDraft carries the blueprint-planning agent's working data.
type PatternDraft struct {
	TotalMarks   int `json:"total_marks,omitempty"`
	SectionCount int `json:"section_count,omitempty"`
}

// GenerationDraft carries the final generation agent's working data.
type GenerationDraft struct {
	PaperPath     string `json:"paper_path,omitempty"`
	AnswerKeyPath string `json:"answer_key_path,omitempty"`
}
