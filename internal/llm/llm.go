// Package llm sends rendered prompts to a text-completion provider, keeps
// per-conversation memory and decodes structured replies.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn sent to or received from a provider.
type Message struct {
	Role    Role
	Content string
}

// Prompt is a text/template with named parameters.
type Prompt struct {
	Template string
	Params   map[string]any
}

// Render fills the template. A placeholder without a matching parameter is an error.
func (p Prompt) Render() (string, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(p.Template)
	if err != nil {
		return "", fmt.Errorf("parse prompt: %w", err)
	}
	params := p.Params
	if params == nil {
		params = map[string]any{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// Request is one completion. When MemoryKey is set, prior turns under that key
// are sent first and the new turn is appended after a successful reply. When
// Schema is set, the reply must be JSON matching it and is decoded into Target.
type Request struct {
	System    string
	Prompt    Prompt
	MemoryKey string
	Schema    *Schema
	Target    any
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Completer is the text completion service the domain packages depend on.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// ChatRequest is what a Provider receives: the full message list.
type ChatRequest struct {
	Messages []Message
	Schema   *Schema
}

// Provider talks to one model vendor.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (Response, error)
}

// Memory stores conversation turns keyed by conversation id.
type Memory interface {
	History(ctx context.Context, key string) ([]Message, error)
	Append(ctx context.Context, key string, msgs ...Message) error
}
