// Package qualitative asks an LLM to rate code on six 1-5 criteria.
// Every failure degrades to the neutral default rating.
package qualitative

import (
	"context"
	"log/slog"
	"time"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
	"github.com/yangjiwoo8465/proj-hint-system/internal/llm"
)

// DefaultTimeout bounds one evaluation call
const DefaultTimeout = 15 * time.Second

// Config holds evaluation settings
type Config struct {
	Enabled  bool          `yaml:"enabled"`
	Provider string        `yaml:"provider"` // claude, openai or ollama
	APIKey   string        `yaml:"-"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultConfig returns evaluation disabled, so no network is touched unless configured
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Provider: "openai",
		Timeout:  DefaultTimeout,
	}
}

// Client evaluates code quality through an LLM provider
type Client struct {
	provider llm.Provider
	model    string
	timeout  time.Duration
}

// New builds a client from cfg. A disabled config, a missing credential or an
// unknown provider yields a client that always returns defaults.
func New(cfg Config) *Client {
	if !cfg.Enabled {
		return NewWithProvider(cfg, nil)
	}

	p, err := llm.New(llm.ProviderConfig{
		Name:    cfg.Provider,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		slog.Warn("qualitative evaluation disabled", "provider", cfg.Provider, "error", err)
		return NewWithProvider(cfg, nil)
	}

	return NewWithProvider(cfg, llm.NewResilientProvider(p, llm.DefaultResilientConfig()))
}

// NewWithProvider creates a client around an existing provider; nil disables evaluation
func NewWithProvider(cfg Config, provider llm.Provider) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		provider: provider,
		model:    cfg.Model,
		timeout:  timeout,
	}
}

// Enabled reports whether calls reach a provider
func (c *Client) Enabled() bool {
	return c.provider != nil
}

// Evaluate never returns an error: any failure yields domain.DefaultQualitativeMetrics.
func (c *Client) Evaluate(ctx context.Context, code, description string, static domain.StaticMetrics) domain.QualitativeMetrics {
	if c.provider == nil {
		return domain.DefaultQualitativeMetrics()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.provider.Generate(ctx, &llm.Request{
		Model:       c.model,
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildPrompt(code, description, static)}},
		MaxTokens:   300,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		slog.Warn("qualitative evaluation failed", "provider", c.provider.Name(), "error", err, "elapsed", time.Since(start))
		return domain.DefaultQualitativeMetrics()
	}

	metrics, ok := parseRatings(resp.Content)
	if !ok {
		slog.Warn("qualitative evaluation returned malformed json", "provider", c.provider.Name())
		return domain.DefaultQualitativeMetrics()
	}
	return metrics
}
