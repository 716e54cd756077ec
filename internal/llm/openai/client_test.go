package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"interview-backend/internal/llm"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

type recorder struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (r *recorder) server(t *testing.T, respond func(call int, w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer req.Body.Close()
		if req.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		if req.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer auth")
		}
		var payload map[string]any
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		r.mu.Lock()
		r.bodies = append(r.bodies, payload)
		call := len(r.bodies)
		r.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		respond(call, w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, model, url string) *Client {
	t.Helper()
	c, err := NewClient("test-key", model)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.baseURL = url
	return c
}

func TestChatSendsSchemaAndReturnsUsage(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t, func(_ int, w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":" {\"question\":\"Why Go?\"} "}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	})
	client := newTestClient(t, "gpt-4o-mini", srv.URL)
	schema := llm.MustSchema("question", `{"type":"object","properties":{"question":{"type":"string"}}}`)

	resp, err := client.Chat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleSystem, Content: "sys"}, {Role: llm.RoleUser, Content: "hi"}},
		Schema:   schema,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Text != `{"question":"Why Go?"}` || resp.Usage.TotalTokens != 15 {
		t.Fatalf("unexpected response %+v", resp)
	}

	body := rec.bodies[0]
	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("expected json_schema response format, got %v", body["response_format"])
	}
	if msgs, _ := body["messages"].([]any); len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %v", body["messages"])
	}
	if _, ok := body["temperature"]; !ok {
		t.Fatalf("expected temperature for gpt-4o-mini")
	}
}

func TestChatFreeTextOmitsResponseFormat(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t, func(_ int, w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Tell me about yourself."}}]}`))
	})
	client := newTestClient(t, "gpt-5-mini", srv.URL)

	resp, err := client.Chat(context.Background(), llm.ChatRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Model != "gpt-5-mini" {
		t.Fatalf("expected configured model fallback, got %q", resp.Model)
	}
	if _, ok := rec.bodies[0]["response_format"]; ok {
		t.Fatalf("expected no response_format for free text")
	}
	if _, ok := rec.bodies[0]["temperature"]; ok {
		t.Fatalf("expected temperature omitted for gpt-5")
	}
}

func TestChatRetriesWithoutTemperatureOnce(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t, func(_ int, w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Unsupported value: 'temperature' does not support 0 with this model.","type":"invalid_request_error"}}`))
	})
	client := newTestClient(t, "gpt-4o-mini", srv.URL)

	_, err := client.Chat(context.Background(), llm.ChatRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}})
	var svcErr *llm.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Status != http.StatusBadRequest {
		t.Fatalf("expected ServiceError 400, got %v", err)
	}
	if len(rec.bodies) != 2 {
		t.Fatalf("expected exactly one retry, got %d requests", len(rec.bodies))
	}
	if _, ok := rec.bodies[1]["temperature"]; ok {
		t.Fatalf("expected retry to omit temperature")
	}
}

func TestChatServerErrorIsServiceError(t *testing.T) {
	rec := &recorder{}
	srv := rec.server(t, func(_ int, w http.ResponseWriter) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`upstream down`))
	})
	client := newTestClient(t, "gpt-4o-mini", srv.URL)

	_, err := client.Chat(context.Background(), llm.ChatRequest{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}})
	var svcErr *llm.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Status != http.StatusServiceUnavailable || svcErr.Provider != "openai" {
		t.Fatalf("expected ServiceError 503, got %v", err)
	}
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	if _, err := NewClient("", "gpt-4o-mini"); err == nil {
		t.Fatalf("expected error without key")
	}
	if _, err := NewClient("k", " "); err == nil {
		t.Fatalf("expected error without model")
	}
}
