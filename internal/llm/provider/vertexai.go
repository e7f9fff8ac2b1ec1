package provider

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	vertexAIDefaultModel  = "gemini-1.5-flash"
	vertexAIClientTimeout = 30 * time.Second
)

// VertexAIProvider implements Provider for Google Vertex AI using the
// Gen AI SDK. It uses Application Default Credentials.
type VertexAIProvider struct {
	projectID string
	location  string
	client    *genai.Client
}

// NewVertexAIProvider creates a new Vertex AI provider. Callers should
// set appropriate deadlines on completion contexts.
func NewVertexAIProvider(projectID, location string) (*VertexAIProvider, error) {
	if projectID == "" {
		return nil, fmt.Errorf("vertexai project id is required")
	}
	if location == "" {
		location = "us-central1"
	}

	ctx, cancel := context.WithTimeout(context.Background(), vertexAIClientTimeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex ai client: %w", err)
	}

	return &VertexAIProvider{
		projectID: projectID,
		location:  location,
		client:    client,
	}, nil
}

// Name returns the provider name.
func (p *VertexAIProvider) Name() string {
	return "vertexai"
}

// CreateCompletion generates a completion for a chat history.
func (p *VertexAIProvider) CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = vertexAIDefaultModel
	}

	config := &genai.GenerateContentConfig{}
	config.Temperature = genai.Ptr(float32(req.Temperature))
	if req.MaxTokens > 0 && req.MaxTokens <= math.MaxInt32 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	contents, systemInstruction := p.buildContents(req.Messages)
	if systemInstruction != nil {
		config.SystemInstruction = systemInstruction
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, p.wrapError(err)
	}

	return p.parseResponse(resp)
}

// buildContents converts messages to Gen AI content format. System
// messages become the system instruction; "assistant" maps to "model".
func (p *VertexAIProvider) buildContents(messages []Message) ([]*genai.Content, *genai.Content) {
	var systemInstruction *genai.Content
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		if m.Role == "system" {
			systemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: m.Content}},
			}
			continue
		}

		role := m.Role
		if role == "assistant" {
			role = "model"
		}

		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	return contents, systemInstruction
}

// parseResponse parses the Gen AI response into CompletionResponse.
func (p *VertexAIProvider) parseResponse(resp *genai.GenerateContentResponse) (*CompletionResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, NewProviderError("vertexai", ErrorCodeUnknown, "no candidates in response", nil)
	}

	candidate := resp.Candidates[0]
	var content string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			content += part.Text
		}
	}

	finishReason := string(candidate.FinishReason)
	if finishReason == "STOP" || finishReason == "" {
		finishReason = "stop"
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &CompletionResponse{
		Content:      content,
		FinishReason: finishReason,
		Usage:        usage,
	}, nil
}

// wrapError converts Gen AI errors to ProviderError.
func (p *VertexAIProvider) wrapError(err error) error {
	if err == nil {
		return nil
	}

	code := ErrorCodeUnknown
	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "authentication") || strings.Contains(errMsg, "credential") || strings.Contains(errMsg, "403") || strings.Contains(errMsg, "401"):
		code = ErrorCodeAuthentication
	case strings.Contains(errMsg, "rate limit") || strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota"):
		code = ErrorCodeRateLimit
	case strings.Contains(errMsg, "not found") || strings.Contains(errMsg, "404"):
		code = ErrorCodeModelNotFound
	case strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "400"):
		code = ErrorCodeInvalidRequest
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline"):
		code = ErrorCodeTimeout
	case strings.Contains(errMsg, "500") || strings.Contains(errMsg, "503") || strings.Contains(errMsg, "server"):
		code = ErrorCodeServerError
	}

	return NewProviderError("vertexai", code, err.Error(), err)
}

// Close implements the Provider interface. The genai.Client manages
// its own HTTP resources, so this is a no-op.
func (p *VertexAIProvider) Close() error {
	return nil
}
