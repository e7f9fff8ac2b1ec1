package provider

import "fmt"

// Config holds the settings needed to construct a provider.
type Config struct {
	// APIKey authenticates against the provider (OpenAI).
	APIKey string
	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways).
	BaseURL string
	// ProjectID and Location select the Vertex AI project (vertexai only).
	ProjectID string
	Location  string
}

// New constructs a provider by name. Providers are created explicitly
// at process startup and injected into the components that need them;
// there is no ambient global registry.
func New(name string, cfg Config) (Provider, error) {
	switch name {
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL)
	case "vertexai":
		return NewVertexAIProvider(cfg.ProjectID, cfg.Location)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}
