// Package ai provides the model provider factory and provider implementations.
//
// Providers are selected by the model's provider field:
//   - openai, ollama: OpenAI-compatible chat completions over plain HTTP
//   - anthropic: the Anthropic Messages API through the official SDK
//   - gemini: the Gemini API through google.golang.org/genai
//
// Every provider returns raw choice text. Parsing is left to the callers.
package ai

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

// Factory creates provider instances based on model definitions.
// It keeps a single HTTP client shared across all HTTP providers.
type Factory struct {
	httpClient *http.Client
}

// NewFactory creates a new provider factory with a configured HTTP client.
func NewFactory() *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: domain.DefaultHTTPClientTimeout},
	}
}

// NewFactoryWithClient uses client for HTTP providers.
func NewFactoryWithClient(client *http.Client) *Factory {
	if client == nil {
		return NewFactory()
	}
	return &Factory{httpClient: client}
}

// ForModel returns the provider that serves model.
func (f *Factory) ForModel(model domain.ModelDefinition) (ports.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(model.Provider)) {
	case domain.ProviderOpenAI, "":
		if model.Endpoint == "" {
			return nil, fmt.Errorf("model %s: endpoint is required for openai-compatible providers", model.Name)
		}
		return newHTTPProvider(domain.ProviderOpenAI, model, f.httpClient, true), nil
	case domain.ProviderOllama:
		if model.Endpoint == "" {
			model.Endpoint = defaultOllamaEndpoint
		}
		return newHTTPProvider(domain.ProviderOllama, model, f.httpClient, false), nil
	case domain.ProviderAnthropic:
		return newAnthropicProvider(model, f.httpClient), nil
	case domain.ProviderGemini:
		return newGeminiProvider(model, f.httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q for model %s", model.Provider, model.Name)
	}
}

var _ ports.ProviderFactory = (*Factory)(nil)
