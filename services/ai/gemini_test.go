package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func geminiStub(t *testing.T, handler func(r *http.Request, body geminiRequest) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body geminiRequest
		if r.Method == http.MethodPost {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decoding request: %v", err)
			}
		}
		code, resp := handler(r, body)
		w.WriteHeader(code)
		_, _ = w.Write([]byte(resp))
	}))
}

func TestGeminiProvider_Complete(t *testing.T) {
	var gotPath string
	var gotReq geminiRequest
	srv := geminiStub(t, func(r *http.Request, body geminiRequest) (int, string) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotReq = body
		return http.StatusOK, `{
			"candidates": [{"content": {"parts": [{"text": "telemetry.update();"}]}}],
			"usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 5}
		}`
	})
	defer srv.Close()

	p := NewGeminiProvider("test-key", "", WithBaseURL(srv.URL))

	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "finish my op mode"},
			{Role: "assistant", Content: "sure"},
		},
		Temperature: 0.2,
		MaxTokens:   256,
	})
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if resp.Content != "telemetry.update();" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Model != "gemini-2.5-flash" {
		t.Errorf("Model = %q, want the default", resp.Model)
	}
	if resp.InputTokens != 12 || resp.OutputTokens != 5 {
		t.Errorf("tokens = %d/%d", resp.InputTokens, resp.OutputTokens)
	}

	if !strings.Contains(gotPath, "/models/gemini-2.5-flash:generateContent") || !strings.Contains(gotPath, "key=test-key") {
		t.Errorf("path = %q", gotPath)
	}

	// the system prompt travels out of band
	if gotReq.SystemInstruction == nil || gotReq.SystemInstruction.Parts[0].Text != "be brief" {
		t.Errorf("systemInstruction = %+v", gotReq.SystemInstruction)
	}
	if len(gotReq.Contents) != 2 {
		t.Fatalf("contents = %+v", gotReq.Contents)
	}
	if gotReq.Contents[0].Role != "user" || gotReq.Contents[1].Role != "model" {
		t.Errorf("roles = %q, %q", gotReq.Contents[0].Role, gotReq.Contents[1].Role)
	}
	if gotReq.GenerationConfig == nil ||
		gotReq.GenerationConfig.MaxOutputTokens != 256 ||
		gotReq.GenerationConfig.Temperature == nil ||
		*gotReq.GenerationConfig.Temperature != 0.2 {
		t.Errorf("generationConfig = %+v", gotReq.GenerationConfig)
	}
}

func TestGeminiProvider_Complete_modelOverride(t *testing.T) {
	var gotPath string
	srv := geminiStub(t, func(r *http.Request, _ geminiRequest) (int, string) {
		gotPath = r.URL.Path
		return http.StatusOK, `{"candidates": [{"content": {"parts": [{"text": "ok"}]}}]}`
	})
	defer srv.Close()

	p := NewGeminiProvider("k", "gemini-2.5-flash", WithBaseURL(srv.URL))
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
		Model:    "gemini-2.5-pro",
	})
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if resp.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %q", resp.Model)
	}
	if !strings.Contains(gotPath, "gemini-2.5-pro") {
		t.Errorf("path = %q", gotPath)
	}
}

func TestGeminiProvider_Complete_errors(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
	}{
		{name: "api error status", code: http.StatusTooManyRequests, body: `{"error": "quota"}`},
		{name: "no candidates", code: http.StatusOK, body: `{"candidates": []}`},
		{name: "empty parts", code: http.StatusOK, body: `{"candidates": [{"content": {"parts": []}}]}`},
		{name: "bad json", code: http.StatusOK, body: `{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := geminiStub(t, func(*http.Request, geminiRequest) (int, string) {
				return tt.code, tt.body
			})
			defer srv.Close()

			p := NewGeminiProvider("k", "", WithBaseURL(srv.URL))
			if _, err := p.Complete(context.Background(), CompletionRequest{
				Messages: []Message{{Role: "user", Content: "hi"}},
			}); err == nil {
				t.Error("Complete() should fail")
			}
		})
	}
}

func TestGeminiProvider_HealthCheck(t *testing.T) {
	srv := geminiStub(t, func(r *http.Request, _ geminiRequest) (int, string) {
		if r.URL.Path != "/models" {
			return http.StatusNotFound, ""
		}
		return http.StatusOK, `{"models": []}`
	})
	defer srv.Close()

	p := NewGeminiProvider("k", "", WithBaseURL(srv.URL))
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() failed: %v", err)
	}

	down := NewGeminiProvider("k", "", WithBaseURL(srv.URL+"/missing"))
	if err := down.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should fail on a non-200")
	}
}
