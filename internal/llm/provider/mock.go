package provider

import (
	"context"
	"sync"
)

// MockProvider is a scripted Provider for tests and offline runs. It
// replays enqueued responses in order and records every request it
// receives. Safe for concurrent use.
type MockProvider struct {
	mu        sync.Mutex
	responses []CompletionResponse
	err       error
	failures  int
	requests  []CompletionRequest
}

// NewMockProvider creates a mock provider with a single default reply.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		responses: []CompletionResponse{{
			Content:      "Oh really? Tell me more about that.",
			FinishReason: "stop",
		}},
	}
}

// Name returns the provider name.
func (m *MockProvider) Name() string {
	return "mock"
}

// Enqueue appends scripted replies, replacing the default.
func (m *MockProvider) Enqueue(contents ...string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses = m.responses[:0]
	for _, c := range contents {
		m.responses = append(m.responses, CompletionResponse{Content: c, FinishReason: "stop"})
	}
	return m
}

// FailWith makes the mock return err for the next n calls (n < 0 means
// forever), then resume replaying responses.
func (m *MockProvider) FailWith(err error, n int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
	m.failures = n
	return m
}

// Requests returns a copy of the recorded requests.
func (m *MockProvider) Requests() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// CreateCompletion replays the next scripted response. The last
// response repeats once the script is exhausted.
func (m *MockProvider) CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.err != nil && m.failures != 0 {
		if m.failures > 0 {
			m.failures--
		}
		return nil, m.err
	}

	if len(m.responses) == 0 {
		return &CompletionResponse{Content: "", FinishReason: "stop"}, nil
	}

	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return &resp, nil
}

// Close releases resources held by the provider.
func (m *MockProvider) Close() error {
	return nil
}
