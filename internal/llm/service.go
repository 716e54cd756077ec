package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/telemetry"
)

const defaultTimeout = 60 * time.Second

const formatHint = "Respond with a single JSON object only, no prose and no markdown. It must conform to this JSON Schema:\n"

// Service implements Completer on top of a Provider and an optional Memory.
type Service struct {
	Provider Provider
	Memory   Memory
	Timeout  time.Duration
}

func NewService(provider Provider, memory Memory, timeout time.Duration) *Service {
	if provider == nil {
		provider = Placeholder{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{Provider: provider, Memory: memory, Timeout: timeout}
}

// Complete renders the prompt, sends it with any remembered turns and, on
// success, records the new turn. Nothing is written to memory on failure.
func (s *Service) Complete(ctx context.Context, req Request) (Response, error) {
	userText, err := req.Prompt.Render()
	if err != nil {
		return Response{}, err
	}

	var history []Message
	if req.MemoryKey != "" && s.Memory != nil {
		history, err = s.Memory.History(ctx, req.MemoryKey)
		if err != nil {
			return Response{}, fmt.Errorf("load conversation %s: %w", req.MemoryKey, err)
		}
	}

	messages := make([]Message, 0, len(history)+3)
	if req.System != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: req.System})
	}
	messages = append(messages, history...)
	if req.Schema != nil {
		messages = append(messages, Message{Role: RoleSystem, Content: formatHint + string(req.Schema.JSON())})
	}
	user := Message{Role: RoleUser, Content: userText}
	messages = append(messages, user)

	callCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.Provider.Chat(callCtx, ChatRequest{Messages: messages, Schema: req.Schema})
	elapsed := time.Since(start)
	if err != nil {
		err = s.classify(callCtx, err)
	} else if req.Schema != nil {
		err = req.Schema.Decode([]byte(resp.Text), req.Target)
	}
	s.log(req, resp, elapsed, err)
	if err != nil {
		return Response{}, err
	}

	if req.MemoryKey != "" && s.Memory != nil {
		turn := make([]Message, 0, 3)
		if req.System != "" {
			turn = append(turn, Message{Role: RoleSystem, Content: req.System})
		}
		turn = append(turn, user, Message{Role: RoleAssistant, Content: resp.Text})
		if err := s.Memory.Append(ctx, req.MemoryKey, turn...); err != nil {
			return Response{}, fmt.Errorf("save conversation %s: %w", req.MemoryKey, err)
		}
	}
	return resp, nil
}

func (s *Service) classify(ctx context.Context, err error) error {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		if !svcErr.Timeout && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			svcErr.Timeout = true
		}
		return svcErr
	}
	return &ServiceError{
		Provider: s.Provider.Name(),
		Timeout:  errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded),
		Err:      err,
	}
}

func (s *Service) log(req Request, resp Response, elapsed time.Duration, err error) {
	ms := float64(elapsed.Microseconds()) / 1000.0
	metrics.ObserveLLMCall(ms, err != nil)
	fields := map[string]any{
		"provider":    s.Provider.Name(),
		"model":       resp.Model,
		"memory_key":  req.MemoryKey,
		"structured":  req.Schema != nil,
		"duration_ms": ms,
	}
	if resp.Usage.TotalTokens > 0 {
		fields["prompt_tokens"] = resp.Usage.PromptTokens
		fields["completion_tokens"] = resp.Usage.CompletionTokens
		fields["total_tokens"] = resp.Usage.TotalTokens
	}
	if err != nil {
		fields["error"] = err
		var decErr *DecodeError
		if errors.As(err, &decErr) {
			fields["raw_len"] = len(decErr.Raw)
		}
		telemetry.Warn("llm.complete", fields)
		return
	}
	telemetry.Info("llm.complete", fields)
}
