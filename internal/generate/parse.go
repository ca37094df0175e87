package generate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripFences removes a surrounding markdown code fence from an LLM reply,
// then trims to the outermost JSON object so trailing prose does not break
// decoding.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// extractJSON validates and normalizes a structured reply into raw JSON.
func extractJSON(reply string) (json.RawMessage, error) {
	body := stripFences(reply)
	var probe any
	if err := json.Unmarshal([]byte(body), &probe); err != nil {
		return nil, fmt.Errorf("generate: model reply is not valid JSON: %w", err)
	}
	return json.RawMessage(body), nil
}

type syllabusDoc struct {
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	Modules    []struct {
		ModuleNumber string  `json:"module_number"`
		ModuleName   string  `json:"module_name"`
		Weightage    float64 `json:"weightage"`
		Topics       []struct {
			Name      string `json:"name"`
			Subtopics []struct {
				Name string `json:"name"`
			} `json:"subtopics"`
		} `json:"topics"`
	} `json:"modules"`
}

func (d syllabusDoc) topicCount() int {
	n := 0
	for _, m := range d.Modules {
		n += len(m.Topics)
	}
	return n
}

type pyqDoc struct {
	Questions []struct {
		Question string `json:"question"`
		Topic    string `json:"topic"`
		Subtopic string `json:"subtopic"`
		Marks    int    `json:"marks"`
		Year     string `json:"year"`
	} `json:"questions"`
}

func (d pyqDoc) years() []string {
	seen := map[string]bool{}
	var out []string
	for _, q := range d.Questions {
		if q.Year == "" || seen[q.Year] {
			continue
		}
		seen[q.Year] = true
		out = append(out, q.Year)
	}
	return out
}

type blueprintDoc struct {
	TotalMarks int `json:"total_marks"`
	Sections   []struct {
		Name      string `json:"name"`
		Marks     int    `json:"marks"`
		Questions []struct {
			QuestionNumber string `json:"question_number"`
			Module         string `json:"module"`
			Topic          string `json:"topic"`
			Subtopic       string `json:"subtopic"`
			Marks          int    `json:"marks"`
		} `json:"questions"`
	} `json:"sections"`
}
