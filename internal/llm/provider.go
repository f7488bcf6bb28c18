// Package llm contains the chat-completion providers used for qualitative code review.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrMissingAPIKey    = errors.New("provider requires an api key")
)

// Provider performs a single non-streaming completion
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Request represents an LLM request
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	System      string
	// JSON asks the provider to constrain its answer to a JSON object where supported
	JSON bool
}

// Message represents a chat message
type Message struct {
	Role    Role
	Content string
}

// Role represents the role of a message sender
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response represents an LLM response
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Usage tracks token usage
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// ProviderConfig selects and configures one provider
type ProviderConfig struct {
	Name    string `yaml:"name"` // claude, openai or ollama
	APIKey  string `yaml:"-"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// New builds the provider named in cfg
func New(cfg ProviderConfig) (Provider, error) {
	switch cfg.Name {
	case "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: claude", ErrMissingAPIKey)
		}
		return NewClaudeProvider(ClaudeConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: openai", ErrMissingAPIKey)
		}
		return NewOpenAIProvider(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}), nil
	case "ollama":
		return NewOllamaProvider(OllamaConfig{Model: cfg.Model, BaseURL: cfg.BaseURL}), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, cfg.Name)
	}
}
