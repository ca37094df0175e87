package providers

import (
	"fmt"
	"os"
)

// NewClient builds the provider selected by configuration. API keys come from
// the environment so they never land in config files.
func NewClient(provider string, opts Options) (Client, error) {
	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("providers: OPENAI_API_KEY not set")
		}
		if opts.BaseURL == "" {
			// Supports OpenAI-compatible gateways.
			opts.BaseURL = os.Getenv("OPENAI_BASE_URL")
		}
		return NewOpenAIClient(apiKey, opts)
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("providers: ANTHROPIC_API_KEY not set")
		}
		return NewAnthropicClient(apiKey, opts)
	default:
		return nil, fmt.Errorf("providers: unknown provider %q", provider)
	}
}
