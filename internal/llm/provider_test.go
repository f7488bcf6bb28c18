package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// mockProvider is a test implementation of Provider
type mockProvider struct {
	name  string
	resp  *Response
	err   error
	calls atomic.Int32
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProviderConfig
		want    string
		wantErr error
	}{
		{"claude", ProviderConfig{Name: "claude", APIKey: "k"}, "claude", nil},
		{"claude without key", ProviderConfig{Name: "claude"}, "", ErrMissingAPIKey},
		{"openai", ProviderConfig{Name: "openai", APIKey: "k"}, "openai", nil},
		{"openai without key", ProviderConfig{Name: "openai"}, "", ErrMissingAPIKey},
		{"ollama needs no key", ProviderConfig{Name: "ollama"}, "ollama", nil},
		{"unknown", ProviderConfig{Name: "gemini"}, "", ErrProviderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("New() error = %v; want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("Name() = %s; want %s", p.Name(), tt.want)
			}
		})
	}
}

func TestClaudeProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s; want /v1/messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("x-api-key = %q; want secret", r.Header.Get("x-api-key"))
		}

		var body claudeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.System != "be strict" {
			t.Errorf("System = %q; want be strict", body.System)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" {
			t.Errorf("Messages = %+v; want one user message", body.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"content":     []map[string]string{{"type": "text", "text": `{"a":1}`}},
			"stop_reason": "end_turn",
			"usage":       map[string]int{"input_tokens": 10, "output_tokens": 3},
		})
	}))
	defer srv.Close()

	p := NewClaudeProvider(ClaudeConfig{APIKey: "secret", BaseURL: srv.URL})
	resp, err := p.Generate(context.Background(), &Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "be strict"},
			{Role: RoleUser, Content: "review"},
		},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != `{"a":1}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 3 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var body openaiRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.ResponseFormat == nil || body.ResponseFormat.Type != "json_object" {
			t.Errorf("ResponseFormat = %+v; want json_object", body.ResponseFormat)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("Messages = %+v; want system then user", body.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "ok"}, "finish_reason": "stop"}},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "secret", BaseURL: srv.URL})
	resp, err := p.Generate(context.Background(), &Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		JSON:     true,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "ok" || resp.FinishReason != "stop" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOllamaProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body ollamaRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.Stream {
			t.Error("Stream = true; want false")
		}
		if body.Format != "json" {
			t.Errorf("Format = %q; want json", body.Format)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message":    map[string]string{"role": "assistant", "content": "{}"},
			"eval_count": 5,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: srv.URL})
	resp, err := p.Generate(context.Background(), &Request{JSON: true, Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "{}" || resp.FinishReason != "stop" || resp.Usage.OutputTokens != 5 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestProvider_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	p := NewClaudeProvider(ClaudeConfig{APIKey: "wrong", BaseURL: srv.URL})
	_, err := p.Generate(context.Background(), &Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v; want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d; want 401", apiErr.StatusCode)
	}
	if isRetryableHTTPError(err) {
		t.Error("401 should not be retryable")
	}
}

func TestProvider_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	if _, err := p.Generate(ctx, &Request{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v; want context.DeadlineExceeded", err)
	}
}

func TestIsRetryableHTTPError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("plain"), false},
		{&APIError{StatusCode: 429}, true},
		{&APIError{StatusCode: 503}, true},
		{&APIError{StatusCode: 400}, false},
		{&APIError{StatusCode: 401}, false},
	}
	for _, tt := range tests {
		if got := isRetryableHTTPError(tt.err); got != tt.want {
			t.Errorf("isRetryableHTTPError(%v) = %v; want %v", tt.err, got, tt.want)
		}
	}
}

func TestResilientProvider_Generate(t *testing.T) {
	inner := &mockProvider{name: "mock", resp: &Response{Content: "ok"}}
	rp := NewResilientProvider(inner, DefaultResilientConfig())
	defer rp.Close()

	resp, err := rp.Generate(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q; want ok", resp.Content)
	}
	if rp.Name() != "mock" {
		t.Errorf("Name() = %s; want mock", rp.Name())
	}
}

func TestResilientProvider_NoRetryOnClientError(t *testing.T) {
	inner := &mockProvider{name: "mock", err: &APIError{StatusCode: 400}}
	cfg := DefaultResilientConfig()
	cfg.EnableRateLimit = false
	rp := NewResilientProvider(inner, cfg)
	defer rp.Close()

	if _, err := rp.Generate(context.Background(), &Request{}); err == nil {
		t.Fatal("Generate() error = nil; want error")
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("calls = %d; want 1", n)
	}
}

func TestResilientProvider_NoPatterns(t *testing.T) {
	inner := &mockProvider{name: "mock", err: errors.New("down")}
	rp := NewResilientProvider(inner, ResilientConfig{})
	defer rp.Close()

	if _, err := rp.Generate(context.Background(), &Request{}); err == nil || err.Error() != "down" {
		t.Errorf("error = %v; want down", err)
	}
}
