package interview

import (
	"embed"

	"interview-backend/internal/llm"
)

//go:embed prompts/*.txt
var promptFS embed.FS

func mustPrompt(name string) string {
	b, err := promptFS.ReadFile("prompts/" + name)
	if err != nil {
		panic(err)
	}
	return string(b)
}

var (
	systemTemplate = mustPrompt("interviewer_system.txt")
	seedTemplate   = mustPrompt("interviewer_seed.txt")
)

// Answers are passed as a parameter so candidate text is never parsed as a template.
const answerTemplate = "{{.answer}}"

// QuestionSchema is the shape of every reply after the first.
var QuestionSchema = llm.MustSchema("interview_question", `{
  "type": "object",
  "required": ["question"],
  "properties": {
    "question": {"type": "string", "minLength": 1, "pattern": "\\S"}
  }
}`)
