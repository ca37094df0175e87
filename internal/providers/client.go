// Package providers wraps the language-model SDKs behind the single
// completion call the generation agents need.
package providers

import "context"

// Client is the minimal LLM surface consumed by the generation services.
type Client interface {
	// Complete sends one system+user prompt pair and returns the text reply.
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Options tunes a provider client at construction time.
type Options struct {
	Model     string
	MaxTokens int
	BaseURL   string
}

func (o Options) maxTokensOrDefault() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return 4096
}
