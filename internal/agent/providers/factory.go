package providers

import (
	"fmt"
	"time"

	"github.com/haasonsaas/push/internal/agent"
)

// ProviderSettings is the provider-agnostic shape the factory reads from
// config; it mirrors config.ProviderConfig without importing the config
// package, keeping providers free of a dependency on the config layer.
type ProviderSettings struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

// New constructs the agent.LLMProvider named by id from settings. id is one
// of "openai", "anthropic", "azure", "copilot_proxy", "ollama", "openrouter"
// — the curated provider set a push installation can select via its
// "provider" config field or PUSH_PROVIDER.
func New(id string, settings ProviderSettings) (agent.LLMProvider, error) {
	switch id {
	case "openai":
		return NewOpenAIProvider(settings.APIKey), nil
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:       settings.APIKey,
			BaseURL:      settings.BaseURL,
			DefaultModel: settings.DefaultModel,
			MaxRetries:   3,
			RetryDelay:   time.Second,
		})
	case "azure":
		return NewAzureOpenAIProvider(AzureOpenAIConfig{
			Endpoint:     settings.BaseURL,
			APIKey:       settings.APIKey,
			DefaultModel: settings.DefaultModel,
			MaxRetries:   3,
			RetryDelay:   time.Second,
		})
	case "copilot_proxy":
		return NewCopilotProxyProvider(CopilotProxyConfig{
			BaseURL:              settings.BaseURL,
			Models:               DefaultCopilotProxyModels,
			DefaultContextWindow: 128000,
		})
	case "ollama":
		return NewOllamaProvider(OllamaConfig{
			BaseURL:      settings.BaseURL,
			DefaultModel: settings.DefaultModel,
			Timeout:      2 * time.Minute,
		}), nil
	case "openrouter":
		return NewOpenRouterProvider(OpenRouterConfig{
			APIKey:       settings.APIKey,
			DefaultModel: settings.DefaultModel,
			AppName:      "push",
			MaxRetries:   3,
			RetryDelay:   time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", id)
	}
}
