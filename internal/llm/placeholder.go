package llm

import "context"

// Placeholder is used when no provider is configured. Every call fails.
type Placeholder struct{}

func (Placeholder) Name() string { return "none" }

func (Placeholder) Chat(context.Context, ChatRequest) (Response, error) {
	return Response{}, ErrNotConfigured
}
