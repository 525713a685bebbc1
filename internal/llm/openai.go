package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OpenAIProvider implements the Provider interface for any OpenAI-compatible
// chat-completions endpoint with function calling.
type OpenAIProvider struct {
	baseProvider
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(cfg *ProviderConfig) *OpenAIProvider {
	return &OpenAIProvider{
		baseProvider: newBaseProvider(cfg, "openai"),
	}
}

// Chat sends a chat request, including the tool catalog when present.
func (p *OpenAIProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	start := time.Now()

	oaReq := openAIChatRequest{
		Model: req.Model,
	}
	if oaReq.Model == "" {
		oaReq.Model = p.config.Model
	}

	if req.SystemPrompt != "" {
		oaReq.Messages = append(oaReq.Messages, toOpenAIMessage(Message{Role: "system", Content: req.SystemPrompt}))
	}
	for _, msg := range req.Messages {
		oaReq.Messages = append(oaReq.Messages, toOpenAIMessage(msg))
	}

	for _, tool := range req.Tools {
		oaReq.Tools = append(oaReq.Tools, openAITool{
			Type: "function",
			Function: openAIFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	if len(req.Tools) > 0 {
		oaReq.ToolChoice = req.ToolChoice
		if oaReq.ToolChoice == "" {
			oaReq.ToolChoice = "auto"
		}
		oaReq.ParallelToolCalls = req.ParallelToolCalls
	}

	oaReq.MaxTokens = req.MaxTokens
	if oaReq.MaxTokens == 0 {
		oaReq.MaxTokens = p.config.MaxTokens
	}
	oaReq.Temperature = req.Temperature
	if oaReq.Temperature == 0 {
		oaReq.Temperature = p.config.Temperature
	}

	body, err := json.Marshal(oaReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.config.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := readLimitedBody(resp.Body, MaxErrorBodySize)
		return nil, fmt.Errorf("OpenAI error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var oaResp openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(oaResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := oaResp.Choices[0]

	out := &ChatResponse{
		Content:          choice.Message.Content,
		Model:            oaResp.Model,
		PromptTokens:     oaResp.Usage.PromptTokens,
		CompletionTokens: oaResp.Usage.CompletionTokens,
		TokensUsed:       oaResp.Usage.TotalTokens,
		Duration:         time.Since(start),
		FinishReason:     choice.FinishReason,
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return out, nil
}

func toOpenAIMessage(msg Message) openAIMessage {
	out := openAIMessage{
		Role:       msg.Role,
		Content:    msg.Content,
		Name:       msg.Name,
		ToolCallID: msg.ToolCallID,
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, openAIToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: openAIFunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return out
}

// OpenAI API types
type openAIChatRequest struct {
	Model             string          `json:"model"`
	Messages          []openAIMessage `json:"messages"`
	Tools             []openAITool    `json:"tools,omitempty"`
	ToolChoice        string          `json:"tool_choice,omitempty"`
	ParallelToolCalls bool            `json:"parallel_tool_calls,omitempty"`
	MaxTokens         int             `json:"max_tokens,omitempty"`
	Temperature       float64         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
