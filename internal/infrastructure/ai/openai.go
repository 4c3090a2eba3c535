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

const defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"

type openAIProvider struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func newOpenAIProvider(apiKey, model, endpoint string, client *http.Client) ports.Provider {
	return &openAIProvider{
		endpoint:   valueOrDefault(endpoint, defaultOpenAIEndpoint),
		apiKey:     apiKey,
		model:      valueOrDefault(model, "gpt-4"),
		httpClient: client,
	}
}

func (p *openAIProvider) Name() string {
	return domain.ProviderOpenAI
}

func (p *openAIProvider) GenerateCompletion(ctx context.Context, req ports.CompletionRequest) (domain.Completion, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload := chatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   valueOrDefaultInt(req.MaxTokens, 2000),
		Temperature: req.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("build request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("create HTTP request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return domain.Completion{}, &domain.ProviderError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	var decoded chatCompletionResponse
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

	return domain.Completion{
		ID:      uuid.NewString(),
		Content: decoded.FirstMessage(),
		Usage: domain.TokenUsage{
			InputTokens:  decoded.Usage.PromptTokens,
			OutputTokens: decoded.Usage.CompletionTokens,
			TotalTokens:  decoded.Usage.TotalTokens,
		},
		Model:    p.model,
		Provider: p.Name(),
	}, nil
}
