package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/promptsmith/internal/application/coerce"
	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/infrastructure/cache"
	"github.com/doeshing/promptsmith/internal/ports"
)

func TestGenerateCacheHitReturnsFirstBatch(t *testing.T) {
	provider := &countingProvider{}
	svc, history := newService(t, provider)
	req := domain.GenerationRequest{Template: "T", Model: "m", BatchSize: 2}

	first, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.IsCached)
	assert.Nil(t, first.CachedAt)
	require.Len(t, first.Data, 2)

	second, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.IsCached)
	assert.Equal(t, first.Data, second.Data)
	assert.Zero(t, second.GenerationTime)
	assert.NotEqual(t, first.ID, second.ID)
	require.NotNil(t, second.CachedAt)
	assert.True(t, second.CachedAt.Equal(fixedNow))

	assert.Equal(t, 1, provider.callCount())
	assert.Len(t, history.records, 2, "hits are recorded too")
}

func TestGenerateForceRefreshBypassesReadAndRewrites(t *testing.T) {
	provider := &countingProvider{}
	svc, _ := newService(t, provider)
	req := domain.GenerationRequest{Template: "T", Model: "m", BatchSize: 2}

	first, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	req.ForceRefresh = true
	forced, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, forced.IsCached)
	assert.NotEqual(t, first.Data[0].Content, forced.Data[0].Content)
	assert.Equal(t, 2, provider.callCount())

	req.ForceRefresh = false
	cached, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, cached.IsCached)
	assert.Equal(t, forced.Data, cached.Data)
	assert.Equal(t, 2, provider.callCount())
}

func TestGenerateRequestsBatchSizeCompletions(t *testing.T) {
	provider := &countingProvider{}
	svc, _ := newService(t, provider)

	record, err := svc.Generate(context.Background(), domain.GenerationRequest{
		Template:               "Product: {{name}}",
		Model:                  "m",
		BatchSize:              3,
		AdditionalInstructions: "Be playful",
	})
	require.NoError(t, err)

	req := provider.lastRequest()
	assert.Equal(t, 3, req.Options.N)
	assert.Equal(t, domain.ResponseFormatJSON, req.Options.ResponseFormat)
	assert.Contains(t, req.UserMessage, "exactly 3 unique variation(s)")
	assert.Contains(t, req.UserMessage, "Be playful")

	require.Len(t, record.Data, 3)
	for i, item := range record.Data {
		assert.Equal(t, i, item.Index)
		assert.True(t, item.Timestamp.Equal(fixedNow))
	}
}

func TestGenerateDefaultsInstructions(t *testing.T) {
	provider := &countingProvider{}
	svc, _ := newService(t, provider)

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{Template: "T", BatchSize: 1})
	require.NoError(t, err)
	assert.Contains(t, provider.lastRequest().UserMessage, coerce.DefaultGenerationGuidance)
}

func TestGenerateSimilarUsesReferenceTemplate(t *testing.T) {
	provider := &countingProvider{}
	svc, _ := newService(t, provider)

	_, err := svc.GenerateSimilar(context.Background(), domain.GenerationRequest{Template: "T", BatchSize: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	record, err := svc.GenerateSimilar(context.Background(), domain.GenerationRequest{
		Template: "T", BatchSize: 1, ReferenceContent: "Reference text",
	})
	require.NoError(t, err)
	assert.Equal(t, "Reference text", record.ReferenceContent)
	assert.Contains(t, provider.lastRequest().UserMessage, "# Reference content\nReference text")
}

func TestGenerateReferenceIsPartOfCacheKey(t *testing.T) {
	provider := &countingProvider{}
	svc, _ := newService(t, provider)

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{Template: "T", BatchSize: 1})
	require.NoError(t, err)
	record, err := svc.Generate(context.Background(), domain.GenerationRequest{Template: "T", BatchSize: 1, ReferenceContent: "r"})
	require.NoError(t, err)
	assert.False(t, record.IsCached)
	assert.Equal(t, 2, provider.callCount())
}

func TestGenerateSkipsMalformedChoices(t *testing.T) {
	provider := &scriptedProvider{choices: []string{
		"garbage {{{",
		`{"generated_content_1": {"content": "kept", "score": 0.9}}`,
	}}
	svc, _ := newService(t, provider)

	record, err := svc.Generate(context.Background(), domain.GenerationRequest{Template: "T", BatchSize: 2})
	require.NoError(t, err)
	require.Len(t, record.Data, 1)
	assert.Equal(t, "kept", record.Data[0].Content)
	assert.Equal(t, 0.9, record.Data[0].Score)
}

func TestGenerateTakesOneItemPerCompletion(t *testing.T) {
	provider := &scriptedProvider{choices: []string{
		`{"generated_content_1": {"content": "a1"}, "generated_content_2": {"content": "a2"}, "total_items": 2}`,
		`{"generated_content_1": {"content": "b1"}, "generated_content_2": {"content": "b2"}}`,
	}}
	svc, _ := newService(t, provider)

	record, err := svc.Generate(context.Background(), domain.GenerationRequest{Template: "T", BatchSize: 2})
	require.NoError(t, err)
	require.Len(t, record.Data, 2)
	assert.Equal(t, "a1", record.Data[0].Content)
	assert.Equal(t, "b1", record.Data[1].Content)
	assert.Equal(t, 1, record.Data[1].Index)
}

func TestGenerateFallsBackToSingleItem(t *testing.T) {
	provider := &scriptedProvider{choices: []string{"just some prose"}}
	svc, _ := newService(t, provider)

	record, err := svc.Generate(context.Background(), domain.GenerationRequest{Template: "T", BatchSize: 2})
	require.NoError(t, err)
	require.Len(t, record.Data, 1)
	assert.Equal(t, "just some prose", record.Data[0].Content)
	assert.Equal(t, 0, record.Data[0].Index)
	assert.Equal(t, coerce.DefaultScore, record.Data[0].Score)

	again, err := svc.Generate(context.Background(), domain.GenerationRequest{Template: "T", BatchSize: 2})
	require.NoError(t, err)
	assert.False(t, again.IsCached, "partial batches are not cached")
}

func TestGenerateEmptyItemFailsCall(t *testing.T) {
	provider := &scriptedProvider{choices: []string{`[{"content": "ok"}, {"content": "  "}]`}}
	svc, _ := newService(t, provider)

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{Template: "T", BatchSize: 2})
	var empty *domain.EmptyGenerationItemError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, 1, empty.Index)
}

func TestGenerateTransportFailurePropagates(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("503")}
	svc, history := newService(t, provider)

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{Template: "T", BatchSize: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Empty(t, history.records)
}

func TestGenerateValidation(t *testing.T) {
	svc, _ := newService(t, &countingProvider{})
	cases := []domain.GenerationRequest{
		{Template: "", BatchSize: 1},
		{Template: "T", BatchSize: 0},
		{Template: "T", BatchSize: domain.MaxBatchSize + 1},
	}
	for _, req := range cases {
		_, err := svc.Generate(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, "%+v", req)
	}

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{Template: "T", BatchSize: 1, Model: "unknown"})
	var invalid *domain.InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "model", invalid.Field)
}

func TestGenerateHistoryFailureIsSwallowed(t *testing.T) {
	svc, _ := newService(t, &countingProvider{})
	svc.History = &stubHistory{err: errors.New("disk full")}

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{Template: "T", BatchSize: 1})
	assert.NoError(t, err)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, provider ports.Provider) (*Service, *stubHistory) {
	t.Helper()
	store, err := cache.NewMemoryStore(16)
	require.NoError(t, err)
	clock := ports.ClockFunc(func() time.Time { return fixedNow })
	history := &stubHistory{}
	return &Service{
		ConfigProvider: stubConfigProvider{},
		Router:         stubRouter{provider: provider},
		Cache:          cache.NewGenerationCache(store, cache.WithClock(clock)),
		History:        history,
		Logger:         noopLogger{},
		Clock:          clock,
	}, history
}

type stubConfigProvider struct{}

func (stubConfigProvider) Load(context.Context) (domain.Config, error) {
	return domain.Config{
		Preferences: domain.Preferences{DefaultModel: "m"},
		Models:      []domain.ModelDefinition{{Name: "m"}},
	}, nil
}

type stubRouter struct {
	provider ports.Provider
}

func (r stubRouter) Resolve(_ context.Context, name string) (ports.Provider, error) {
	if name != "" && name != "m" {
		return nil, fmt.Errorf("%w: %s", domain.ErrModelNotConfigured, name)
	}
	return r.provider, nil
}

// countingProvider returns distinct content on every call, one item per completion.
type countingProvider struct {
	mu       sync.Mutex
	calls    int
	requests []ports.CompletionRequest
}

func (p *countingProvider) Name() string                  { return "stub" }
func (p *countingProvider) Model() domain.ModelDefinition { return domain.ModelDefinition{Name: "m"} }

func (p *countingProvider) Complete(_ context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.requests = append(p.requests, req)
	choices := make([]string, req.Options.Count())
	for i := range choices {
		choices[i] = fmt.Sprintf(`{"generated_content_1": {"content": "call %d item %d", "score": 0.8}}`, p.calls, i)
	}
	return ports.CompletionResponse{Choices: choices}, nil
}

func (p *countingProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *countingProvider) lastRequest() ports.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

type scriptedProvider struct {
	choices []string
	err     error
}

func (p *scriptedProvider) Name() string                  { return "stub" }
func (p *scriptedProvider) Model() domain.ModelDefinition { return domain.ModelDefinition{Name: "m"} }

func (p *scriptedProvider) Complete(context.Context, ports.CompletionRequest) (ports.CompletionResponse, error) {
	if p.err != nil {
		return ports.CompletionResponse{}, p.err
	}
	return ports.CompletionResponse{Choices: append([]string(nil), p.choices...)}, nil
}

type stubHistory struct {
	records []domain.HistoryRecord
	err     error
}

func (h *stubHistory) Append(_ context.Context, record domain.HistoryRecord) error {
	if h.err != nil {
		return h.err
	}
	h.records = append(h.records, record)
	return nil
}

func (h *stubHistory) List(context.Context, domain.HistoryFilter) ([]domain.HistoryRecord, error) {
	return h.records, nil
}

func (h *stubHistory) Delete(context.Context, string) (bool, error)      { return false, nil }
func (h *stubHistory) Clear(context.Context) error                       { return nil }
func (h *stubHistory) PruneOlderThan(context.Context, int) (int, error) { return 0, nil }

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]interface{})        {}
func (noopLogger) Info(string, map[string]interface{})         {}
func (noopLogger) Warn(string, map[string]interface{})         {}
func (noopLogger) Error(string, error, map[string]interface{}) {}
