package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/doeshing/promptsmith/internal/domain"
	"github.com/doeshing/promptsmith/internal/ports"
)

const (
	defaultOllamaEndpoint = "http://localhost:11434/v1/chat/completions"
	maxErrorBodyBytes     = 512
)

// httpProvider speaks the OpenAI chat completions wire format.
// Header names, the response path and n support come from the model's APIFormat.
type httpProvider struct {
	name        string
	model       domain.ModelDefinition
	httpClient  *http.Client
	requireAuth bool
}

func newHTTPProvider(name string, model domain.ModelDefinition, client *http.Client, requireAuth bool) ports.Provider {
	return &httpProvider{
		name:        name,
		model:       model,
		httpClient:  client,
		requireAuth: requireAuth,
	}
}

func (p *httpProvider) Name() string {
	return p.name
}

func (p *httpProvider) Model() domain.ModelDefinition {
	return p.model
}

func (p *httpProvider) Complete(ctx context.Context, req ports.CompletionRequest) (ports.CompletionResponse, error) {
	n := req.Options.Count()
	var (
		choices []string
		err     error
	)
	if n == 1 || p.model.APIFormat.NativeN() {
		choices, err = p.call(ctx, req, n)
	} else {
		choices, err = fanOut(ctx, n, func(ctx context.Context) ([]string, error) {
			return p.call(ctx, req, 1)
		})
	}
	if err != nil {
		return ports.CompletionResponse{}, err
	}
	return ports.CompletionResponse{Choices: choices, Model: p.model.DisplayName()}, nil
}

func (p *httpProvider) call(ctx context.Context, req ports.CompletionRequest, n int) ([]string, error) {
	body, err := p.buildRequestBody(req, n)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.model.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if err := p.setAuthHeaders(httpReq); err != nil {
		return nil, err
	}
	for key, value := range p.model.APIFormat.ExtraHeaders {
		httpReq.Header.Set(key, value)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", p.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read response: %w", p.name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %s: %s", p.name, resp.Status, truncate(raw, maxErrorBodyBytes))
	}
	return p.parseResponse(raw)
}

func (p *httpProvider) buildRequestBody(req ports.CompletionRequest, n int) ([]byte, error) {
	messages := make([]map[string]string, 0, 2)
	if req.SystemMessage != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemMessage})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.UserMessage})

	request := map[string]interface{}{
		"model":       p.model.DisplayName(),
		"messages":    messages,
		"temperature": req.Options.Temperature,
	}
	if maxTokens := defaultInt(req.Options.MaxTokens, p.model.MaxTokens); maxTokens > 0 {
		request["max_tokens"] = maxTokens
	}
	if n > 1 {
		request["n"] = n
	}
	if req.Options.ResponseFormat != "" {
		request["response_format"] = map[string]string{"type": req.Options.ResponseFormat}
	}
	return json.Marshal(request)
}

func (p *httpProvider) setAuthHeaders(req *http.Request) error {
	fallback := ""
	if p.name == domain.ProviderOpenAI {
		fallback = "OPENAI_API_KEY"
	}
	apiKey := getEnv(p.model.AuthEnvVar, fallback)
	if apiKey == "" {
		if p.requireAuth {
			return missingKeyError(p.model, fallback)
		}
		return nil
	}
	format := p.model.APIFormat
	req.Header.Set(format.GetAuthHeaderName(), format.GetAuthHeaderPrefix()+apiKey)

	if org := getEnv(p.model.OrgEnvVar, ""); org != "" {
		req.Header.Set("OpenAI-Organization", org)
	}
	return nil
}

func (p *httpProvider) parseResponse(body []byte) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: response is not valid JSON", p.name)
	}
	result := gjson.GetBytes(body, p.model.APIFormat.GetResponseJSONPath())
	if !result.Exists() {
		return nil, fmt.Errorf("%s: no content at %q", p.name, p.model.APIFormat.GetResponseJSONPath())
	}
	var choices []string
	if result.IsArray() {
		for _, item := range result.Array() {
			choices = append(choices, item.String())
		}
	} else {
		choices = append(choices, result.String())
	}
	if len(choices) == 0 {
		return nil, fmt.Errorf("%s: response contained no choices", p.name)
	}
	return choices, nil
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
