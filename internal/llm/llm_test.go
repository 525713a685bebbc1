package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifedesk/lifedesk/internal/config"
)

func openAIServer(t *testing.T, handler func(req openAIChatRequest) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(handler(req)))
	}))
}

func textChoice(content string) any {
	return map[string]any{
		"model": "test-model",
		"choices": []any{map[string]any{
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
}

func TestOpenAIChatText(t *testing.T) {
	srv := openAIServer(t, func(req openAIChatRequest) any {
		assert.Equal(t, "test-model", req.Model)
		require.NotEmpty(t, req.Messages)
		assert.Equal(t, "system", req.Messages[0].Role)
		return textChoice("Hello there.")
	})
	defer srv.Close()

	p := NewOpenAIProvider(&ProviderConfig{Endpoint: srv.URL, APIKey: "test-key", Model: "test-model"})
	resp, err := p.Chat(context.Background(), &ChatRequest{
		SystemPrompt: "You are helpful.",
		Messages:     []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", resp.Content)
	assert.Empty(t, resp.ToolCalls)
}

func TestOpenAIChatToolCalls(t *testing.T) {
	srv := openAIServer(t, func(req openAIChatRequest) any {
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "function", req.Tools[0].Type)
		assert.Equal(t, "kanban_list_tasks", req.Tools[0].Function.Name)
		assert.Equal(t, "auto", req.ToolChoice)

		return map[string]any{
			"model": "test-model",
			"choices": []any{map[string]any{
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []any{map[string]any{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "kanban_list_tasks",
							"arguments": `{"lane":"doing"}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		}
	})
	defer srv.Close()

	p := NewOpenAIProvider(&ProviderConfig{Endpoint: srv.URL, APIKey: "test-key", Model: "test-model"})
	resp, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "what am I doing?"}},
		Tools: []ToolSchema{{
			Name:        "kanban_list_tasks",
			Description: "List tasks",
			Parameters:  map[string]any{"type": "object"},
		}},
		ToolChoice: "auto",
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "kanban_list_tasks", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"lane":"doing"}`, resp.ToolCalls[0].Arguments)
}

func TestOpenAIChatMissingKey(t *testing.T) {
	p := NewOpenAIProvider(&ProviderConfig{Endpoint: "http://127.0.0.1:0"})
	_, err := p.Chat(context.Background(), &ChatRequest{})
	assert.Error(t, err)
}

func TestOpenAIChatServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(&ProviderConfig{Endpoint: srv.URL, APIKey: "test-key"})
	_, err := p.Chat(context.Background(), &ChatRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestClientCompleteSuccess(t *testing.T) {
	srv := openAIServer(t, func(openAIChatRequest) any {
		return textChoice("All done.")
	})
	defer srv.Close()

	p := NewOpenAIProvider(&ProviderConfig{Endpoint: srv.URL, APIKey: "test-key", Model: "test-model"})
	c := NewClient(p, ClientConfig{Timeout: 5 * time.Second})

	got := c.Complete(context.Background(), "system", []Message{{Role: "user", Content: "hi"}}, nil)
	require.NotNil(t, got)
	assert.Equal(t, "All done.", got.Content)
}

func TestClientCompleteFailureIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(&ProviderConfig{Endpoint: srv.URL, APIKey: "test-key"})
	c := NewClient(p, ClientConfig{Timeout: time.Second})

	assert.Nil(t, c.Complete(context.Background(), "system", nil, nil))
}

func TestClientCompleteTimeoutIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	p := NewOpenAIProvider(&ProviderConfig{Endpoint: srv.URL, APIKey: "test-key"})
	c := NewClient(p, ClientConfig{Timeout: 50 * time.Millisecond})

	start := time.Now()
	got := c.Complete(context.Background(), "system", nil, nil)
	assert.Nil(t, got)
	assert.Less(t, time.Since(start), time.Second, "timeout must cut the call short")
}

func TestOllamaChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "test-model",
			"message": map[string]any{
				"role":    "assistant",
				"content": "From the local model.",
			},
			"done": true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(&ProviderConfig{Endpoint: srv.URL, Model: "test-model"})
	resp, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "From the local model.", resp.Content)
}

func TestNewProviderFromConfig(t *testing.T) {
	cfg := config.Default()

	cfg.Assistant.Provider = "openai"
	p, err := NewProviderFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	cfg.Assistant.Provider = "ollama"
	p, err = NewProviderFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())

	cfg.Assistant.Provider = "mystery"
	_, err = NewProviderFromConfig(cfg)
	assert.Error(t, err)
}
