package provider

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const openaiDefaultModel = "gpt-4o-mini"

// ChatCompleter is the subset of the OpenAI SDK client the provider
// uses. Declared as an interface for testability.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider implements Provider on top of the OpenAI chat API.
type OpenAIProvider struct {
	client ChatCompleter
}

// NewOpenAIProvider creates a new OpenAI provider. baseURL is optional
// and points at an OpenAI-compatible gateway when set.
func NewOpenAIProvider(apiKey, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}, nil
}

// NewOpenAIProviderWithClient creates a provider from an existing
// client. This is useful for testing.
func NewOpenAIProviderWithClient(client ChatCompleter) *OpenAIProvider {
	return &OpenAIProvider{client: client}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// CreateCompletion generates a completion for a chat history.
func (p *OpenAIProvider) CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = openaiDefaultModel
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, p.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewProviderError("openai", ErrorCodeUnknown, "no choices in response", nil)
	}

	choice := resp.Choices[0]
	return &CompletionResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Close releases resources held by the provider.
func (p *OpenAIProvider) Close() error {
	return nil
}

// wrapError converts SDK errors to ProviderError.
func (p *OpenAIProvider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ErrorCodeUnknown
		switch {
		case apiErr.HTTPStatusCode == 401:
			code = ErrorCodeAuthentication
		case apiErr.HTTPStatusCode == 404:
			code = ErrorCodeModelNotFound
		case apiErr.HTTPStatusCode == 429:
			code = ErrorCodeRateLimit
		case apiErr.HTTPStatusCode == 400:
			code = ErrorCodeInvalidRequest
		case apiErr.HTTPStatusCode >= 500:
			code = ErrorCodeServerError
		}
		pe := NewProviderError("openai", code, apiErr.Message, err)
		pe.StatusCode = apiErr.HTTPStatusCode
		return pe
	}

	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "timeout") {
		return NewProviderError("openai", ErrorCodeTimeout, err.Error(), err)
	}

	return NewProviderError("openai", ErrorCodeUnknown, err.Error(), err)
}
