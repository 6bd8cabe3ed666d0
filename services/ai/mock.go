package ai

import "context"

// MockProvider is a canned-response Provider for tests and local development.
type MockProvider struct {
	Response string
	Err      error

	// Requests records every completion request received.
	Requests []CompletionRequest
}

var _ Provider = (*MockProvider)(nil)

func (p *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	p.Requests = append(p.Requests, req)
	if p.Err != nil {
		return CompletionResponse{}, p.Err
	}
	content := p.Response
	if content == "" {
		content = "mock response"
	}
	return CompletionResponse{Content: content, Model: "mock"}, nil
}

func (p *MockProvider) HealthCheck(context.Context) error { return p.Err }
