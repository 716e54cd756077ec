package resumes

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
	extractSystem = mustPrompt("extract_system.txt")
	extractUser   = mustPrompt("extract_user.txt")
)

const stringList = `{"type": ["array", "null"], "items": {"type": "string"}}`

// StructuredResumeSchema is the reply shape requested from the model.
var StructuredResumeSchema = llm.MustSchema("structured_resume", `{
  "type": "object",
  "required": ["candidateName"],
  "properties": {
    "candidateName": {"type": "string", "minLength": 1},
    "location": {"type": ["string", "null"]},
    "contactDetails": `+stringList+`,
    "links": `+stringList+`,
    "careerObjective": {"type": ["string", "null"]},
    "skills": `+stringList+`,
    "education": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "institution": {"type": ["string", "null"]},
          "degree": {"type": ["string", "null"]},
          "fieldOfStudy": {"type": ["string", "null"]},
          "year": {"type": ["string", "null"]},
          "score": {"type": ["string", "null"]}
        }
      }
    },
    "workExperience": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "employer": {"type": ["string", "null"]},
          "title": {"type": ["string", "null"]},
          "period": {"type": ["string", "null"]},
          "description": {"type": ["string", "null"]}
        }
      }
    },
    "internships": `+stringList+`,
    "projects": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": ["string", "null"]},
          "description": {"type": ["string", "null"]},
          "technologies": `+stringList+`
        }
      }
    },
    "certifications": `+stringList+`
  }
}`)
