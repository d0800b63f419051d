package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/umputun/feedgen/pkg/config"
)

// NewBackend makes the backend selected by llm.provider.
// Missing credentials are reported as ConfigurationError, no network calls are made.
func NewBackend(ctx context.Context, cfg config.LLMConfig) (Backend, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case config.ProviderGemini, "":
		g, err := NewGemini(ctx, GeminiParams{APIKey: cfg.APIKey, Model: cfg.Model, Endpoint: cfg.Endpoint,
			Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens, HTTPClient: httpClient})
		if err != nil {
			return nil, err
		}
		return g, nil
	case config.ProviderOpenAI:
		o, err := NewOpenAI(OpenAIParams{APIKey: cfg.APIKey, Model: cfg.Model, Endpoint: cfg.Endpoint,
			Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens, HTTPClient: httpClient})
		if err != nil {
			return nil, err
		}
		return o, nil
	case config.ProviderRelay:
		r, err := NewRelay(RelayParams{Endpoint: cfg.Endpoint, HTTPClient: httpClient})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewFetcher wraps backend into the fetcher selected by llm.mode
func NewFetcher(backend Backend, cfg config.LLMConfig) Fetcher {
	if cfg.Mode == config.ModeBuffered {
		return NewBufferedFetcher(backend, cfg.Attempts)
	}
	return NewStreamingFetcher(backend)
}
