package llm

import "fmt"

// ErrUnsupportedProvider is returned by NewProvider for a provider
// name outside the supported set.
type ErrUnsupportedProvider struct {
	Provider string
}

func (e ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported LLM provider %q (supported: openai, openrouter, ollama)", e.Provider)
}
