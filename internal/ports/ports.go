// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The pipelines depend only on these interfaces, so model
// providers, history backends and cache backends can be swapped without touching them.
package ports

import (
	"context"
	"time"

	"github.com/doeshing/promptsmith/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.promptsmith/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ProviderFactory builds AI provider instances based on model definitions.
type ProviderFactory interface {
	ForModel(domain.ModelDefinition) (Provider, error)
}

// ModelRouter resolves a model name (empty for the default) to a ready provider.
type ModelRouter interface {
	Resolve(ctx context.Context, name string) (Provider, error)
}

// Provider is the model completion collaborator. Output text is untrusted:
// callers must sanitize every choice before use.
type Provider interface {
	Name() string
	Model() domain.ModelDefinition
	Complete(context.Context, CompletionRequest) (CompletionResponse, error)
}

// CompletionOptions are the sampling settings sent with a completion request.
type CompletionOptions struct {
	Temperature    float64
	MaxTokens      int
	ResponseFormat string
	// N is the number of independent completions requested. Zero means one.
	N int
}

// Count returns the effective number of completions.
func (o CompletionOptions) Count() int {
	if o.N < 1 {
		return 1
	}
	return o.N
}

// CompletionRequest is one system/user message exchange.
type CompletionRequest struct {
	SystemMessage string
	UserMessage   string
	Options       CompletionOptions
}

// CompletionResponse holds the raw text of each returned choice.
type CompletionResponse struct {
	Choices []string
	Model   string
}

// Text returns the first choice, or an empty string.
func (r CompletionResponse) Text() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0]
}

// CacheStore persists generation cache entries by derived key.
// Implementations must be safe for concurrent use.
type CacheStore interface {
	Load(key string) (domain.CacheEntry, bool, error)
	Save(entry domain.CacheEntry) error
	Delete(key string) error
	List() ([]domain.CacheEntry, error)
	Clear() error
}

// GenerationCache looks up and stores complete generation batches by request.
type GenerationCache interface {
	Get(template, model string, batchSize int, referenceContent string) (domain.CacheEntry, bool)
	Put(template, model string, batchSize int, referenceContent string, items []domain.GeneratedItem) (domain.CacheEntry, error)
}

// HistoryStore persists analysis, comparison and generation records.
type HistoryStore interface {
	Append(ctx context.Context, record domain.HistoryRecord) error
	List(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryRecord, error)
	Delete(ctx context.Context, id string) (bool, error)
	Clear(ctx context.Context) error
	PruneOlderThan(ctx context.Context, days int) (int, error)
}

// Clock abstracts time so cache expiry can be tested.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
