package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/promptsmith/internal/domain"
)

type stubAnalyzer struct {
	lastAnalyze domain.AnalysisRequest
	err         error
}

func (s *stubAnalyzer) Analyze(_ context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	s.lastAnalyze = req
	if s.err != nil {
		return domain.AnalysisResult{}, s.err
	}
	return domain.AnalysisResult{
		Metrics:        map[string]domain.AnalysisMetric{domain.MetricClarity: {Score: 0.8}},
		Suggestions:    []string{"add an example"},
		EnhancedPrompt: req.Prompt + " with examples",
		ModelUsed:      "gpt",
	}, nil
}

func (s *stubAnalyzer) Compare(_ context.Context, req domain.ComparisonRequest) (domain.ComparisonResult, error) {
	if s.err != nil {
		return domain.ComparisonResult{}, s.err
	}
	return domain.ComparisonResult{
		Original:     domain.PromptVersion{Prompt: req.OriginalPrompt},
		Enhanced:     domain.PromptVersion{Prompt: req.EnhancedPrompt},
		Improvements: []string{"Improved clarity by 0.20"},
		ModelUsed:    "gpt",
	}, nil
}

type stubGenerator struct {
	last    domain.GenerationRequest
	similar bool
}

func (s *stubGenerator) Generate(_ context.Context, req domain.GenerationRequest) (domain.GenerationRecord, error) {
	s.last = req
	if req.Template == "" {
		return domain.GenerationRecord{}, domain.NewInvalidArgument("template", "must not be empty")
	}
	return domain.GenerationRecord{ID: "gen-1", Template: req.Template, Data: []domain.GeneratedItem{{Content: "one"}}}, nil
}

func (s *stubGenerator) GenerateSimilar(ctx context.Context, req domain.GenerationRequest) (domain.GenerationRecord, error) {
	s.similar = true
	return s.Generate(ctx, req)
}

type stubEvaluator struct {
	csv        string
	template   string
	validated  string
	sawCSV     bool
	validateOK bool
}

func (s *stubEvaluator) Evaluate(_ context.Context, prompt string, criteria []domain.EvaluationCriterion, _ string) (domain.EvaluationResult, error) {
	return domain.EvaluationResult{Prompt: prompt, OverallScore: 0.5, Scores: map[string]float64{criteria[0].Name: 0.5}}, nil
}

func (s *stubEvaluator) EvaluateBatch(_ context.Context, r io.Reader, _ []domain.EvaluationCriterion) (domain.BatchEvaluationResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return domain.BatchEvaluationResult{}, err
	}
	s.csv = string(raw)
	return domain.BatchEvaluationResult{TotalPrompts: 2, PassedPrompts: 1, AverageScore: 0.6}, nil
}

func (s *stubEvaluator) EvaluateCustomBatch(ctx context.Context, template string, r io.Reader, criteria []domain.EvaluationCriterion) (domain.BatchEvaluationResult, error) {
	s.template = template
	if template == "relevance" {
		return domain.BatchEvaluationResult{}, domain.NewInvalidArgument("prompt", "Missing columns in CSV: topic")
	}
	return s.EvaluateBatch(ctx, r, criteria)
}

func (s *stubEvaluator) ValidatePrompt(prompt string, csvContent io.Reader) (domain.PromptValidation, error) {
	s.validated = prompt
	s.sawCSV = csvContent != nil
	return domain.PromptValidation{Valid: s.validateOK, Message: "checked", Variables: []string{"text"}}, nil
}

func (s *stubEvaluator) Templates() []domain.EvaluationTemplate {
	return []domain.EvaluationTemplate{{ID: "sentiment", Prompt: "Rate {text}", Variables: []string{"text"}}}
}

type stubModels struct {
	names []string
}

func (s *stubModels) Capabilities(context.Context) ([]domain.ModelCapabilities, error) {
	return []domain.ModelCapabilities{{Name: "gpt", Provider: "openai", Default: true}}, nil
}

func (s *stubModels) Status(_ context.Context, names ...string) ([]domain.ModelStatus, error) {
	s.names = names
	for _, name := range names {
		if name == "nope" {
			return nil, domain.NewInvalidArgument("model", "nope is not configured")
		}
	}
	return []domain.ModelStatus{{Name: "gpt", Status: domain.ModelHealthy}}, nil
}

type stubHistory struct {
	records []domain.HistoryRecord
	filter  domain.HistoryFilter
	cleared bool
	listErr error
}

func (s *stubHistory) Append(_ context.Context, r domain.HistoryRecord) error {
	s.records = append(s.records, r)
	return nil
}

func (s *stubHistory) List(_ context.Context, filter domain.HistoryFilter) ([]domain.HistoryRecord, error) {
	s.filter = filter
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.records, nil
}

func (s *stubHistory) Delete(_ context.Context, id string) (bool, error) {
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *stubHistory) Clear(context.Context) error {
	s.cleared = true
	s.records = nil
	return nil
}

func (s *stubHistory) PruneOlderThan(context.Context, int) (int, error) { return 0, nil }

type stubCache struct{ cleared bool }

func (s *stubCache) Stats() (domain.CacheStats, error) {
	return domain.CacheStats{Entries: 2, Hits: 5, Misses: 1}, nil
}

func (s *stubCache) Clear() error {
	s.cleared = true
	return nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]interface{})        {}
func (noopLogger) Info(string, map[string]interface{})         {}
func (noopLogger) Warn(string, map[string]interface{})         {}
func (noopLogger) Error(string, error, map[string]interface{}) {}

type fixture struct {
	analyzer  *stubAnalyzer
	generator *stubGenerator
	evaluator *stubEvaluator
	history   *stubHistory
	cache     *stubCache
	models    *stubModels
	handler   http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		analyzer:  &stubAnalyzer{},
		generator: &stubGenerator{},
		evaluator: &stubEvaluator{},
		history: &stubHistory{records: []domain.HistoryRecord{
			{ID: "h1", Kind: domain.HistoryKindAnalysis, Summary: "first"},
			{ID: "h2", Kind: domain.HistoryKindGeneration, Summary: "second"},
		}},
		cache:  &stubCache{},
		models: &stubModels{},
	}
	h := &Handlers{
		Analyzer:       f.analyzer,
		Generator:      f.generator,
		Evaluator:      f.evaluator,
		History:        f.history,
		Cache:          f.cache,
		Models:         f.models,
		Logger:         noopLogger{},
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	f.handler = h.Routes()
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := newFixture().do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAnalyzeRoute(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/analyze", `{"prompt":"Sort an array","context":"python","model":"gpt"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, domain.AnalysisRequest{Prompt: "Sort an array", Context: "python", Model: "gpt"}, f.analyzer.lastAnalyze)
	var got domain.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Sort an array with examples", got.EnhancedPrompt)
	assert.InDelta(t, 0.8, got.Metrics[domain.MetricClarity].Score, 1e-9)
}

func TestCompareRoute(t *testing.T) {
	rec := newFixture().do(http.MethodPost, "/api/v1/compare", `{"original_prompt":"a","enhanced_prompt":"b"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.ComparisonResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "a", got.Original.Prompt)
	assert.Equal(t, "b", got.Enhanced.Prompt)
	assert.Equal(t, []string{"Improved clarity by 0.20"}, got.Improvements)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "invalid argument", err: domain.NewInvalidArgument("prompt", "must not be empty"), status: http.StatusBadRequest},
		{name: "internal", err: errors.New("provider down"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.analyzer.err = tt.err
			rec := f.do(http.MethodPost, "/api/v1/analyze", `{"prompt":"x"}`)
			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body["detail"])
		})
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	rec := newFixture().do(http.MethodPost, "/api/v1/analyze", `{"prompt":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON")
}

func TestOversizedBodyIsRequestEntityTooLarge(t *testing.T) {
	body := `{"prompt":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec := newFixture().do(http.MethodPost, "/api/v1/analyze", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "exceeds")
}

func TestGenerateRoutes(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/synthetic-data/generate", `{"template":"Write a tagline","batch_size":3,"force_refresh":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, f.generator.last.BatchSize)
	assert.True(t, f.generator.last.ForceRefresh)
	assert.False(t, f.generator.similar)

	rec = f.do(http.MethodPost, "/api/v1/synthetic-data/generate-similar", `{"template":"t","batch_size":1,"reference_content":"ref"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.generator.similar)
	assert.Equal(t, "ref", f.generator.last.ReferenceContent)

	rec = f.do(http.MethodPost, "/api/v1/synthetic-data/generate", `{"template":"","batch_size":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryRoutes(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/history?kind=generation&limit=5&q=tag", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.HistoryFilter{Kind: domain.HistoryKindGeneration, Limit: 5, Search: "tag"}, f.history.filter)

	rec = f.do(http.MethodGet, "/api/v1/history?kind=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(http.MethodGet, "/api/v1/history?limit=-2", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/history/h1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(http.MethodDelete, "/api/v1/history/h1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/history", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.history.cleared)

	rec = f.do(http.MethodGet, "/api/v1/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCacheRoutes(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodGet, "/api/v1/cache/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats domain.CacheStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, uint64(5), stats.Hits)

	rec = f.do(http.MethodDelete, "/api/v1/cache", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.cache.cleared)
}

func TestEvaluationRoutes(t *testing.T) {
	f := newFixture()
	rec := f.do(http.MethodPost, "/api/v1/evaluation/evaluate", `{"prompt":"p","criteria":[{"name":"clarity","weight":1}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var single domain.EvaluationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &single))
	assert.Equal(t, "p", single.Prompt)

	rec = f.do(http.MethodPost, "/api/v1/evaluation/batch", `{"csv_content":"prompt\na\nb\n","criteria":[{"name":"clarity","weight":1}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "prompt\na\nb\n", f.evaluator.csv)
	var batch domain.BatchEvaluationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.Equal(t, 2, batch.TotalPrompts)
}

func TestEvaluationCatalogRoutes(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/evaluation/prompts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var templates []domain.EvaluationTemplate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &templates))
	require.Len(t, templates, 1)
	assert.Equal(t, "sentiment", templates[0].ID)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCSV    bool
	}{
		{name: "with csv", body: `{"prompt":"Rate {text}","csv_content":"text\nhi\n"}`, wantStatus: http.StatusOK, wantCSV: true},
		{name: "without csv", body: `{"prompt":"Rate {text}"}`, wantStatus: http.StatusOK, wantCSV: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/v1/evaluation/prompts/validate", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "Rate {text}", f.evaluator.validated)
			assert.Equal(t, tt.wantCSV, f.evaluator.sawCSV)
			var got domain.PromptValidation
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, []string{"text"}, got.Variables)
		})
	}
}

func TestEvaluationBatchWithPromptTemplate(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantTemplate string
	}{
		{name: "plain batch", body: `{"csv_content":"prompt\na\n","criteria":[{"name":"clarity","weight":1}]}`, wantStatus: http.StatusOK},
		{name: "catalog template", body: `{"csv_content":"text\na\n","prompt_template":"sentiment","criteria":[{"name":"clarity","weight":1}]}`, wantStatus: http.StatusOK, wantTemplate: "sentiment"},
		{name: "unmatched variables", body: `{"csv_content":"text\na\n","prompt_template":"relevance","criteria":[{"name":"clarity","weight":1}]}`, wantStatus: http.StatusBadRequest, wantTemplate: "relevance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rec := f.do(http.MethodPost, "/api/v1/evaluation/batch", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantTemplate, f.evaluator.template)
		})
	}
}

func TestModelRoutes(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/v1/models/capabilities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var caps []domain.ModelCapabilities
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &caps))
	require.Len(t, caps, 1)
	assert.True(t, caps[0].Default)

	rec = f.do(http.MethodGet, "/api/v1/models/status?model=gpt&model=local", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"gpt", "local"}, f.models.names)
	var statuses []domain.ModelStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	assert.Equal(t, domain.ModelHealthy, statuses[0].Status)

	rec = f.do(http.MethodGet, "/api/v1/models/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.models.names)

	rec = f.do(http.MethodGet, "/api/v1/models/status?model=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodMismatch(t *testing.T) {
	rec := newFixture().do(http.MethodGet, "/api/v1/analyze", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSCredentials(t *testing.T) {
	tests := []struct {
		name            string
		allowed         []string
		wantOrigin      string
		wantCredentials string
	}{
		{name: "listed origin", allowed: []string{"http://localhost:3000"}, wantOrigin: "http://localhost:3000", wantCredentials: "true"},
		{name: "wildcard", allowed: []string{"*"}, wantOrigin: "*", wantCredentials: ""},
		{name: "wildcard beside listed origin", allowed: []string{"http://localhost:3000", "*"}, wantOrigin: "*", wantCredentials: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handlers{Logger: noopLogger{}, AllowedOrigins: tt.allowed}
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/analyze", nil)
			req.Header.Set("Origin", "http://localhost:3000")
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCredentials, rec.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(ln.Addr().String(), newFixture().handler, noopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
