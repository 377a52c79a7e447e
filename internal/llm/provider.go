package llm

import "fmt"

// Supported providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Default models, used when ProviderConfig.Model is empty.
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOllamaModel    = "llama3.1"
	DefaultOllamaBaseURL  = "http://localhost:11434/v1"
)

// ProviderConfig carries every credential; the provider picks the one it
// needs.
type ProviderConfig struct {
	Provider       string
	OpenAIKey      string
	AnthropicKey   string
	AnthropicToken string // OAuth token, preferred over AnthropicKey
	Model          string
	OllamaBaseURL  string
}

// ResolvedModel returns the model the provider will be asked for.
func (c ProviderConfig) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	switch c.Provider {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderAnthropic:
		return DefaultAnthropicModel
	case ProviderOllama:
		return DefaultOllamaModel
	}
	return ""
}

// CheckCredentials reports a missing credential for the selected provider.
// Ollama runs locally and needs none.
func (c ProviderConfig) CheckCredentials() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider openai")
		}
	case ProviderAnthropic:
		if c.AnthropicKey == "" && c.AnthropicToken == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY or ANTHROPIC_AUTH_TOKEN is required for provider anthropic")
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("unknown LLM provider: %s", c.Provider)
	}
	return nil
}

// NewClient builds the chat client for cfg.Provider.
func NewClient(cfg ProviderConfig) (Client, error) {
	model := cfg.ResolvedModel()
	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.AnthropicKey, cfg.AnthropicToken, model), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIKey, model, ""), nil
	case ProviderOllama:
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaBaseURL
		}
		// Ollama's OpenAI-compatible endpoint ignores the key but the SDK wants one.
		return NewOpenAIClient("ollama", model, baseURL), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
