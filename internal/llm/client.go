package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifedesk/lifedesk/internal/logging"
)

// Completion is one provider turn: final content, requested tool calls, or
// both. A nil *Completion means the call failed (transport, timeout, or an
// empty provider response shape) and the caller should fall back.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// Client wraps one Provider behind a hard per-call timeout. It never
// returns an error: every failure mode degrades to a nil Completion so the
// turn loop can produce a localized fallback instead of propagating.
type Client struct {
	provider    Provider
	model       string
	temperature float64
	timeout     time.Duration
	log         zerolog.Logger
}

// ClientConfig configures the completion client.
type ClientConfig struct {
	Model       string        // override of the provider default, optional
	Temperature float64
	Timeout     time.Duration // hard bound for one call
}

// NewClient creates a completion client on top of a provider.
func NewClient(provider Provider, cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &Client{
		provider:    provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		log:         logging.Component("llm"),
	}
}

// Complete performs one completion call with the given transcript and tool
// catalog. The call is cancelled cooperatively when the timeout elapses;
// cancellation converts into a nil result, not an error.
func (c *Client) Complete(ctx context.Context, systemPrompt string, messages []Message, tools []ToolSchema) *Completion {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &ChatRequest{
		Model:             c.model,
		SystemPrompt:      systemPrompt,
		Messages:          messages,
		Tools:             tools,
		Temperature:       c.temperature,
		ParallelToolCalls: true,
	}
	if len(tools) > 0 {
		req.ToolChoice = "auto"
	}

	resp, err := c.provider.Chat(callCtx, req)
	if err != nil {
		c.log.Warn().Err(err).Str("provider", c.provider.Name()).Msg("completion call failed")
		return nil
	}
	if resp == nil {
		return nil
	}

	return &Completion{
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	}
}

// ProviderName reports the wrapped provider's identifier.
func (c *Client) ProviderName() string {
	return c.provider.Name()
}
