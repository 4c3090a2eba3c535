package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/planflow/planflow/internal/domain"
	"github.com/planflow/planflow/internal/ports"
)

const (
	defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion         = "2023-06-01"
)

type anthropicProvider struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func newAnthropicProvider(apiKey, model, endpoint string, client *http.Client) ports.Provider {
	return &anthropicProvider{
		endpoint:   valueOrDefault(endpoint, defaultAnthropicEndpoint),
		apiKey:     apiKey,
		model:      valueOrDefault(model, "claude-3-sonnet-20240229"),
		httpClient: client,
	}
}

func (p *anthropicProvider) Name() string {
	return domain.ProviderAnthropic
}

func (p *anthropicProvider) GenerateCompletion(ctx context.Context, req ports.CompletionRequest) (domain.Completion, error) {
	payload := anthropicRequest{
		Model:       p.model,
		MaxTokens:   valueOrDefaultInt(req.MaxTokens, 2000),
		Temperature: req.Temperature,
		System:      req.SystemPrompt,
		Messages: []anthropicMessage{
			{
				Role:    "user",
				Content: []anthropicContent{{Type: "text", Text: req.Prompt}},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("build request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("create HTTP request: %w", err)
	}
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return domain.Completion{}, &domain.ProviderError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	var decoded anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		if resp.StatusCode >= 400 {
			return domain.Completion{}, &domain.ProviderError{Provider: p.Name(), Message: resp.Status}
		}
		return domain.Completion{}, &domain.ProviderError{Provider: p.Name(), Err: err}
	}
	if resp.StatusCode >= 400 {
		message := resp.Status
		if decoded.Error != nil && decoded.Error.Message != "" {
			message = decoded.Error.Message
		}
		return domain.Completion{}, &domain.ProviderError{Provider: p.Name(), Message: message}
	}

	usage := domain.TokenUsage{
		InputTokens:  decoded.Usage.InputTokens,
		OutputTokens: decoded.Usage.OutputTokens,
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens

	return domain.Completion{
		ID:       uuid.NewString(),
		Content:  decoded.FirstText(),
		Usage:    usage,
		Model:    p.model,
		Provider: p.Name(),
	}, nil
}
