package llm

import (
	"fmt"

	"github.com/lifedesk/lifedesk/internal/config"
)

// NewProviderFromConfig builds a Provider from application configuration.
func NewProviderFromConfig(cfg *config.Config) (Provider, error) {
	assistant := cfg.Assistant

	switch assistant.Provider {
	case "openai":
		pc := cfg.Providers.OpenAI
		return NewOpenAIProvider(&ProviderConfig{
			Endpoint:    pc.Endpoint,
			APIKey:      pc.APIKey,
			Model:       firstNonEmpty(assistant.Model, pc.Model),
			Temperature: assistant.Temperature,
			Timeout:     assistant.CompletionTimeout,
		}), nil
	case "ollama":
		pc := cfg.Providers.Ollama
		return NewOllamaProvider(&ProviderConfig{
			Endpoint:    pc.Endpoint,
			Model:       firstNonEmpty(assistant.Model, pc.Model),
			Temperature: assistant.Temperature,
			Timeout:     assistant.CompletionTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown assistant provider %q", assistant.Provider)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
