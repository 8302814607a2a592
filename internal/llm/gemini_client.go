package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"stressoscope/internal/logging"
)

type geminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      logging.Logger
}

// NewGemini builds a client backed by the Google Gemini API.
func NewGemini(ctx context.Context, cfg Config, logger logging.Logger) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &geminiClient{
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		logger:      logging.OrNop(logger),
	}, nil
}

func (c *geminiClient) Name() string { return ProviderGemini }

func (c *geminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("GenerateContent model=%s", c.model)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyContent
	}
	return text, nil
}
