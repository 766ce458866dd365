package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

const maxBodyBytes = 4 << 20

// Analyzer runs the analysis and comparison pipelines.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error)
	Compare(ctx context.Context, req domain.ComparisonRequest) (domain.ComparisonResult, error)
}

// Generator runs the generation pipeline.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationRecord, error)
	GenerateSimilar(ctx context.Context, req domain.GenerationRequest) (domain.GenerationRecord, error)
}

// Evaluator scores prompts against weighted criteria.
type Evaluator interface {
	Evaluate(ctx context.Context, prompt string, criteria []domain.EvaluationCriterion, promptContext string) (domain.EvaluationResult, error)
	EvaluateBatch(ctx context.Context, r io.Reader, criteria []domain.EvaluationCriterion) (domain.BatchEvaluationResult, error)
	EvaluateCustomBatch(ctx context.Context, template string, r io.Reader, criteria []domain.EvaluationCriterion) (domain.BatchEvaluationResult, error)
	ValidatePrompt(prompt string, csvContent io.Reader) (domain.PromptValidation, error)
	Templates() []domain.EvaluationTemplate
}

// ModelInspector describes configured models and checks that they answer.
type ModelInspector interface {
	Capabilities(ctx context.Context) ([]domain.ModelCapabilities, error)
	Status(ctx context.Context, names ...string) ([]domain.ModelStatus, error)
}

// CacheAdmin inspects and clears the generation cache.
type CacheAdmin interface {
	Stats() (domain.CacheStats, error)
	Clear() error
}

// Handlers groups the collaborators behind the routes. Every field is required.
type Handlers struct {
	Analyzer       Analyzer
	Generator      Generator
	Evaluator      Evaluator
	History        ports.HistoryStore
	Cache          CacheAdmin
	Models         ModelInspector
	Logger         ports.Logger
	AllowedOrigins []string
}

// Routes returns the /api/v1 mux wrapped with CORS.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("POST /api/v1/analyze", h.analyze)
	mux.HandleFunc("POST /api/v1/compare", h.compare)
	mux.HandleFunc("POST /api/v1/synthetic-data/generate", h.generate)
	mux.HandleFunc("POST /api/v1/synthetic-data/generate-similar", h.generateSimilar)
	mux.HandleFunc("GET /api/v1/history", h.listHistory)
	mux.HandleFunc("DELETE /api/v1/history", h.clearHistory)
	mux.HandleFunc("DELETE /api/v1/history/{id}", h.deleteHistory)
	mux.HandleFunc("GET /api/v1/cache/stats", h.cacheStats)
	mux.HandleFunc("DELETE /api/v1/cache", h.clearCache)
	mux.HandleFunc("POST /api/v1/evaluation/evaluate", h.evaluate)
	mux.HandleFunc("POST /api/v1/evaluation/batch", h.evaluateBatch)
	mux.HandleFunc("GET /api/v1/evaluation/prompts", h.evaluationPrompts)
	mux.HandleFunc("POST /api/v1/evaluation/prompts/validate", h.validatePrompt)
	mux.HandleFunc("GET /api/v1/models/capabilities", h.modelCapabilities)
	mux.HandleFunc("GET /api/v1/models/status", h.modelStatus)
	return cors(h.AllowedOrigins, mux)
}

type evaluateBody struct {
	Prompt   string                       `json:"prompt"`
	Criteria []domain.EvaluationCriterion `json:"criteria"`
	Context  string                       `json:"context,omitempty"`
}

type batchBody struct {
	CSVContent string                       `json:"csv_content"`
	Criteria   []domain.EvaluationCriterion `json:"criteria"`
	// PromptTemplate is a catalog ID or a prompt with {column} placeholders.
	PromptTemplate string `json:"prompt_template,omitempty"`
}

type validateBody struct {
	Prompt     string `json:"prompt"`
	CSVContent string `json:"csv_content,omitempty"`
}

func (h *Handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) analyze(w http.ResponseWriter, r *http.Request) {
	var req domain.AnalysisRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.Analyzer.Analyze(r.Context(), req)
	h.respond(w, result, err)
}

func (h *Handlers) compare(w http.ResponseWriter, r *http.Request) {
	var req domain.ComparisonRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.Analyzer.Compare(r.Context(), req)
	h.respond(w, result, err)
}

func (h *Handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	if !h.decode(w, r, &req) {
		return
	}
	record, err := h.Generator.Generate(r.Context(), req)
	h.respond(w, record, err)
}

func (h *Handlers) generateSimilar(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	if !h.decode(w, r, &req) {
		return
	}
	record, err := h.Generator.GenerateSimilar(r.Context(), req)
	h.respond(w, record, err)
}

func (h *Handlers) listHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.HistoryFilter{
		Kind:   domain.HistoryKind(query.Get("kind")),
		Search: query.Get("q"),
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		h.respond(w, nil, domain.NewInvalidArgument("kind", "must be analysis, comparison or generation"))
		return
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.respond(w, nil, domain.NewInvalidArgument("limit", "must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}
	records, err := h.History.List(r.Context(), filter)
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	h.respond(w, records, err)
}

func (h *Handlers) deleteHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	removed, err := h.History.Delete(r.Context(), id)
	if err == nil && !removed {
		err = fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	h.respond(w, map[string]string{"deleted": id}, err)
}

func (h *Handlers) clearHistory(w http.ResponseWriter, r *http.Request) {
	err := h.History.Clear(r.Context())
	h.respond(w, map[string]string{"status": "cleared"}, err)
}

func (h *Handlers) cacheStats(w http.ResponseWriter, _ *http.Request) {
	stats, err := h.Cache.Stats()
	h.respond(w, stats, err)
}

func (h *Handlers) clearCache(w http.ResponseWriter, _ *http.Request) {
	err := h.Cache.Clear()
	h.respond(w, map[string]string{"status": "cleared"}, err)
}

func (h *Handlers) evaluate(w http.ResponseWriter, r *http.Request) {
	var body evaluateBody
	if !h.decode(w, r, &body) {
		return
	}
	result, err := h.Evaluator.Evaluate(r.Context(), body.Prompt, body.Criteria, body.Context)
	h.respond(w, result, err)
}

func (h *Handlers) evaluateBatch(w http.ResponseWriter, r *http.Request) {
	var body batchBody
	if !h.decode(w, r, &body) {
		return
	}
	var (
		result domain.BatchEvaluationResult
		err    error
	)
	if strings.TrimSpace(body.PromptTemplate) != "" {
		result, err = h.Evaluator.EvaluateCustomBatch(r.Context(), body.PromptTemplate, strings.NewReader(body.CSVContent), body.Criteria)
	} else {
		result, err = h.Evaluator.EvaluateBatch(r.Context(), strings.NewReader(body.CSVContent), body.Criteria)
	}
	h.respond(w, result, err)
}

func (h *Handlers) evaluationPrompts(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, h.Evaluator.Templates(), nil)
}

func (h *Handlers) validatePrompt(w http.ResponseWriter, r *http.Request) {
	var body validateBody
	if !h.decode(w, r, &body) {
		return
	}
	var csvContent io.Reader
	if body.CSVContent != "" {
		csvContent = strings.NewReader(body.CSVContent)
	}
	result, err := h.Evaluator.ValidatePrompt(body.Prompt, csvContent)
	h.respond(w, result, err)
}

func (h *Handlers) modelCapabilities(w http.ResponseWriter, r *http.Request) {
	caps, err := h.Models.Capabilities(r.Context())
	if caps == nil {
		caps = []domain.ModelCapabilities{}
	}
	h.respond(w, caps, err)
}

func (h *Handlers) modelStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Models.Status(r.Context(), r.URL.Query()["model"]...)
	if statuses == nil {
		statuses = []domain.ModelStatus{}
	}
	h.respond(w, statuses, err)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"detail": fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
			return false
		}
		h.respond(w, nil, domain.NewInvalidArgument("body", "invalid JSON: "+err.Error()))
		return false
	}
	return true
}

// respond writes payload, or maps err: invalid argument to 400, missing record
// to 404, anything else to 500.
func (h *Handlers) respond(w http.ResponseWriter, payload interface{}, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, payload)
		return
	}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrRecordNotFound):
		status = http.StatusNotFound
	default:
		h.Logger.Error("request failed", err, nil)
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func cors(allowed []string, next http.Handler) http.Handler {
	allowAll := false
	origins := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			allowAll = true
		}
		origins[origin] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin != "" && (allowAll || origins[origin]) {
			// Credentials are never granted to a wildcard.
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
