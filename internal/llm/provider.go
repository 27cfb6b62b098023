// Package llm generates the optional investigation brief. Providers
// only ever summarize scored artifacts: tier decisions are final before
// any prompt is built, and nothing a model returns flows back into
// scoring.
package llm

import (
	"context"
	"regexp"
	"strings"

	"github.com/mtautner/dossier/internal/model"
)

// Provider is one text-generation backend.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces one completion for the request
	Generate(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// Request is one completion request.
type Request struct {
	// Prompt is the full user prompt
	Prompt string

	// Model overrides the configured model (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// Response is one completion.
type Response struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "ollama", "" (disabled)
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (Ollama, proxies)
	BaseURL string

	// Timeout for API requests, in seconds
	Timeout int

	// StrictEvidence rejects responses citing URLs outside the allowlist
	StrictEvidence bool

	// MaxTokens for response generation
	MaxTokens int
}

// ConfigFromModel converts the runtime configuration section.
func ConfigFromModel(cfg model.LLMConfig) Config {
	return Config{
		Provider:       cfg.Provider,
		Model:          cfg.Model,
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		StrictEvidence: cfg.StrictEvidence,
		MaxTokens:      cfg.MaxTokens,
	}
}

// systemPrompt frames every brief request the same way regardless of
// provider.
const systemPrompt = "You draft investigation briefs from entity-resolution artifacts. " +
	"You describe what the records show and how confident the scoring is - you never assert guilt, wrongdoing, or facts beyond the artifacts."

var urlPattern = regexp.MustCompile(`https?://[^\s)]+`)

// extractURLs pulls the distinct URLs cited in generated text, trailing
// punctuation trimmed.
func extractURLs(text string) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, raw := range urlPattern.FindAllString(text, -1) {
		u := strings.TrimRight(raw, ".,;:!?")
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}
