// Package domain defines core business entities and value objects for promptsmith.
//
// This file contains AI model and provider definitions used throughout the application.
// The domain layer is independent of infrastructure concerns and represents pure
// business logic and data structures.
package domain

import "time"

// Provider kinds recognised by the provider factory.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// ModelDefinition describes an AI provider configuration declared in the config file.
// Each model represents a specific AI service endpoint with its authentication and
// generation parameters.
type ModelDefinition struct {
	Name       string    `yaml:"name"`
	Provider   string    `yaml:"provider"`
	Endpoint   string    `yaml:"endpoint,omitempty"`
	AuthEnvVar string    `yaml:"auth_env_var,omitempty"`
	OrgEnvVar  string    `yaml:"org_env_var,omitempty"`
	ModelID    string    `yaml:"model_id"`
	MaxTokens  int       `yaml:"max_tokens,omitempty"`
	APIFormat  APIFormat `yaml:"api_format,omitempty"`
}

// DisplayName is the identifier stamped into results as model_used.
func (m ModelDefinition) DisplayName() string {
	if m.ModelID != "" {
		return m.ModelID
	}
	return m.Name
}

// APIFormat tunes how the OpenAI-compatible HTTP provider talks to an endpoint.
// All fields are optional with OpenAI defaults.
type APIFormat struct {
	// AuthHeaderName specifies the HTTP header name for authentication.
	// Default: "Authorization"
	AuthHeaderName string `yaml:"auth_header_name,omitempty"`

	// AuthHeaderPrefix is prepended to the API key value.
	// Default: "Bearer " (with trailing space)
	AuthHeaderPrefix string `yaml:"auth_header_prefix,omitempty"`

	// ResponseJSONPath is a gjson path selecting every completion text in the response.
	// Default: "choices.#.message.content"
	ResponseJSONPath string `yaml:"response_json_path,omitempty"`

	// SupportsN reports whether the endpoint honours the "n" parameter.
	// When false, multi-completion requests are fanned out one call per completion.
	SupportsN *bool `yaml:"supports_n,omitempty"`

	// ExtraHeaders contains additional HTTP headers to send with each request.
	ExtraHeaders map[string]string `yaml:"extra_headers,omitempty"`
}

const (
	DefaultAuthHeaderName   = "Authorization"
	DefaultAuthHeaderPrefix = "Bearer "
	DefaultResponsePath     = "choices.#.message.content"
)

// GetAuthHeaderName returns the authentication header name with default fallback.
func (f APIFormat) GetAuthHeaderName() string {
	if f.AuthHeaderName == "" {
		return DefaultAuthHeaderName
	}
	return f.AuthHeaderName
}

// GetAuthHeaderPrefix returns the authentication header prefix with default fallback.
// A custom header name with an empty prefix means no prefix at all.
func (f APIFormat) GetAuthHeaderPrefix() string {
	if f.AuthHeaderName != "" && f.AuthHeaderPrefix == "" {
		return ""
	}
	if f.AuthHeaderPrefix == "" {
		return DefaultAuthHeaderPrefix
	}
	return f.AuthHeaderPrefix
}

// GetResponseJSONPath returns the gjson path for extracting completions with default fallback.
func (f APIFormat) GetResponseJSONPath() string {
	if f.ResponseJSONPath == "" {
		return DefaultResponsePath
	}
	return f.ResponseJSONPath
}

// NativeN reports whether the endpoint returns several completions per call.
func (f APIFormat) NativeN() bool {
	if f.SupportsN == nil {
		return true
	}
	return *f.SupportsN
}

// Model health states reported by a status check.
const (
	ModelHealthy = "healthy"
	ModelError   = "error"
)

// ModelCapabilities describes what a configured model can do, derived from its definition.
type ModelCapabilities struct {
	Name              string   `json:"name"`
	Provider          string   `json:"provider"`
	ModelID           string   `json:"model_id"`
	Endpoint          string   `json:"endpoint,omitempty"`
	Default           bool     `json:"default"`
	MaxTokens         int      `json:"max_tokens"`
	NativeCompletions bool     `json:"native_multi_completion"`
	JSONMode          string   `json:"json_mode"`
	Capabilities      []string `json:"capabilities"`
}

// ModelStatus is the outcome of one short completion sent to a model.
type ModelStatus struct {
	Name      string    `json:"name"`
	Model     string    `json:"model"`
	Status    string    `json:"status"`
	LatencyMS int64     `json:"latency_ms"`
	Reply     string    `json:"reply,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
