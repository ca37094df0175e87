package generate

// Prompt templates for the generation agents. Every structured prompt demands
// a bare JSON object; replies are still fence-stripped and schema-validated
// before use.

const systemPrompt = `You are an expert exam-paper designer. You answer with
exactly what is asked for, never with commentary.`

const syllabusPrompt = `Extract the syllabus structure from the following text
and return a single JSON object with this shape:
{
  "course_code": "optional course code",
  "course_name": "optional course name",
  "modules": [
    {
      "module_number": "Module 1",
      "module_name": "name",
      "weightage": 0.2,
      "topics": [{"name": "topic", "subtopics": [{"name": "subtopic"}]}]
    }
  ]
}

Subject: %s, Grade: %s, Board: %s.

Syllabus text:
---
%s
---

Return ONLY the single, complete JSON object. No markdown formatting.`

const pyqPrompt = `Extract every question from the following prior-year exam
papers and return a single JSON object with this shape:
{
  "questions": [
    {"question": "full text", "topic": "syllabus topic", "subtopic": "syllabus subtopic", "marks": 5, "year": "2023"}
  ]
}

Tag each question with the closest topic from this syllabus:
%s

Prior-year papers:
---
%s
---

Return ONLY the single, complete JSON object. No markdown formatting.`

const blueprintPrompt = `Design a question-paper blueprint for a %s exam,
grade %s, board %s. Balance topic coverage using the syllabus weightages and
favour topics that appear often in prior years. Return a single JSON object
with this shape:
{
  "total_marks": 80,
  "sections": [
    {
      "name": "Section A",
      "marks": 20,
      "questions": [
        {"question_number": "1a", "module": "Module 1", "topic": "topic", "subtopic": "subtopic", "marks": 5}
      ]
    }
  ]
}

Syllabus:
%s

Prior-year analysis:
%s

Return ONLY the single, complete JSON object. No markdown formatting.`

const selectionPrompt = `Write the full question paper following this
blueprint exactly: one question per blueprint slot, reusing a prior-year
question when one matches the slot's topic and marks, otherwise writing a new
one. Render the paper as plain markdown with section headers and marks in
brackets after each question.

Blueprint:
%s

Prior-year questions:
%s`

const verifyPrompt = `Review the following question paper against its
blueprint. Answer with the single word OK when every blueprint slot is
covered with matching marks; otherwise list each problem on its own line.

Blueprint:
%s

Paper:
%s`

const answerKeyPrompt = `Write a concise answer key for the following question
paper. For each question give the expected answer outline and a marks split.
Render as plain markdown.

Paper:
%s`
