package llm

import (
	"fmt"
	"strings"
)

// NewProvider builds the configured provider. An empty provider name
// means briefs run in deterministic fallback mode; the nil, nil return
// is deliberate.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}
