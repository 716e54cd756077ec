// Package gemini adapts Google's Gemini models to llm.Provider.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"interview-backend/internal/llm"
)

const DefaultModel = "gemini-2.5-flash"

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Provider using the genai SDK.
type Client struct {
	models generator
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{models: client.Models, model: model}, nil
}

func (c *Client) Name() string { return "gemini" }

// Chat folds system messages into the system instruction and maps the rest
// onto user and model contents.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (llm.Response, error) {
	var system []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	config := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
	}

	result, err := c.models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		svcErr := &llm.ServiceError{
			Provider: c.Name(),
			Timeout:  errors.Is(err, context.DeadlineExceeded),
			Err:      err,
		}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			svcErr.Status = apiErr.Code
		}
		return llm.Response{}, svcErr
	}
	if result == nil || len(result.Candidates) == 0 {
		return llm.Response{}, &llm.ServiceError{Provider: c.Name(), Err: errors.New("response has no candidates")}
	}

	out := llm.Response{Text: strings.TrimSpace(result.Text()), Model: c.model}
	if usage := result.UsageMetadata; usage != nil {
		out.Usage = llm.Usage{
			PromptTokens:     int(usage.PromptTokenCount),
			CompletionTokens: int(usage.CandidatesTokenCount),
			TotalTokens:      int(usage.TotalTokenCount),
		}
	}
	return out, nil
}

var _ llm.Provider = (*Client)(nil)
