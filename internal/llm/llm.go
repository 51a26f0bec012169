package llm

import (
	"context"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options carries per-call generation parameters. Temperature is a
// pointer so that the provider default applies when unset; callers must
// never reach into a shared provider to change it between requests.
type Options struct {
	Temperature *float64
}

// StreamDelta is one chunk of a streaming completion. Err is set on the
// final delta when the stream failed mid-flight; the channel is closed
// after the last delta either way.
type StreamDelta struct {
	Content string
	Err     error
}

type Provider interface {
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)
	Stream(ctx context.Context, messages []Message, opts Options) (<-chan StreamDelta, error)
}

type Config struct {
	Provider         string
	Model            string
	BaseURL          string
	OpenAIAPIKey     string
	OpenRouterAPIKey string
	OllamaBaseURL    string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}), nil
	case "openrouter":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.Model,
			BaseURL: defaultIfEmpty(cfg.BaseURL, "https://openrouter.ai/api/v1"),
		}), nil
	case "ollama":
		return NewOllamaProvider(OllamaConfig{
			Model:   cfg.Model,
			BaseURL: cfg.OllamaBaseURL,
		}), nil
	default:
		return nil, ErrUnsupportedProvider{Provider: cfg.Provider}
	}
}

// Temperature is a convenience for building per-call Options.
func Temperature(value float64) Options {
	return Options{Temperature: &value}
}

func defaultIfEmpty(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
