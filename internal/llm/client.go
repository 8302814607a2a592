// Package llm provides the text-completion collaborators used to produce AI
// stress analyses.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stressoscope/internal/logging"
)

// Client produces a completion for a single prompt. Implementations make one
// attempt per call and never retry.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}

// Provider names accepted by New.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
	ProviderNone   = "none"
)

const (
	DefaultGroqBaseURL   = "https://api.groq.com/openai/v1"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	DefaultGroqModel   = "mixtral-8x7b-32768"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.0-flash"

	DefaultTemperature      = 0.7
	DefaultTimeout          = 30 * time.Second
	DefaultMaxResponseBytes = 1 << 20
)

var (
	// ErrDisabled is returned by New when no collaborator is configured.
	ErrDisabled = errors.New("llm provider disabled")
	// ErrEmptyContent reports a successful call that carried no text.
	ErrEmptyContent = errors.New("llm returned empty content")
)

// Config selects and tunes a provider.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	// Timeout bounds the HTTP client. The analyzer applies its own deadline
	// on top through the context.
	Timeout          time.Duration
	MaxResponseBytes int64
	// MockResponse is returned verbatim by the mock provider when set.
	MockResponse string
}

// Enabled reports whether cfg names a usable collaborator.
func (c Config) Enabled() bool {
	provider := normalizeProvider(c.Provider)
	switch provider {
	case ProviderNone:
		return false
	case ProviderMock:
		return true
	default:
		return strings.TrimSpace(c.APIKey) != ""
	}
}

// New builds the client named by cfg.Provider. It returns ErrDisabled when
// the provider is "none" or no API key is configured. Temperature is used as
// given; config.Load supplies DefaultTemperature when it is unset.
func New(ctx context.Context, cfg Config, logger logging.Logger) (Client, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}

	switch provider := normalizeProvider(cfg.Provider); provider {
	case ProviderGroq:
		return NewOpenAICompatible(provider, withDefaults(cfg, DefaultGroqBaseURL, DefaultGroqModel), logger), nil
	case ProviderOpenAI:
		return NewOpenAICompatible(provider, withDefaults(cfg, DefaultOpenAIBaseURL, DefaultOpenAIModel), logger), nil
	case ProviderGemini:
		return NewGemini(ctx, withDefaults(cfg, "", DefaultGeminiModel), logger)
	case ProviderMock:
		return NewMock(cfg.MockResponse), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func normalizeProvider(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ProviderGroq
	}
	return name
}

func withDefaults(cfg Config, baseURL, model string) Config {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = baseURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = model
	}
	return cfg
}
