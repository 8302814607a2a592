package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"stressoscope/internal/jsonx"
	"stressoscope/internal/logging"
)

// StatusError reports a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("llm provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("llm provider returned status %d: %s", e.StatusCode, e.Message)
}

// ResponseTooLargeError reports that the response body exceeded the limit.
type ResponseTooLargeError struct {
	Limit int64
}

func (e ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeded limit of %d bytes", e.Limit)
}

// openaiClient speaks the OpenAI-compatible chat completions API (Groq,
// OpenAI and compatible gateways).
type openaiClient struct {
	name        string
	model       string
	apiKey      string
	baseURL     string
	temperature float64
	maxBytes    int64
	httpClient  *http.Client
	logger      logging.Logger
}

// NewOpenAICompatible constructs a chat-completions client. cfg.BaseURL and
// cfg.Model must already carry provider defaults.
func NewOpenAICompatible(name string, cfg Config, logger logging.Logger) Client {
	return &openaiClient{
		name:        name,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		temperature: cfg.Temperature,
		maxBytes:    cfg.MaxResponseBytes,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logging.OrNop(logger),
	}
}

func (c *openaiClient) Name() string { return c.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
	Stream         bool           `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *openaiClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := jsonx.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    c.temperature,
		ResponseFormat: map[string]any{"type": "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	c.logger.Debug("POST %s model=%s", endpoint, c.model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("HTTP request failed: %v", err)
		return "", fmt.Errorf("%s request: %w", c.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := readAllWithLimit(resp.Body, c.maxBytes)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Debug("Error response body: %s", string(respBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	var decoded chatResponse
	if err := jsonx.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", &StatusError{StatusCode: resp.StatusCode, Message: decoded.Error.Message}
	}
	if len(decoded.Choices) == 0 {
		return "", ErrEmptyContent
	}

	content := decoded.Choices[0].Message.Content
	c.logger.Debug("Completion finish_reason=%s length=%d", decoded.Choices[0].FinishReason, len(content))
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

// errorMessage extracts error.message from an OpenAI-style error body, or
// returns a truncated copy of the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := jsonx.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// readAllWithLimit reads r up to limit bytes. A limit <= 0 reads everything.
func readAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(&io.LimitedReader{R: r, N: limit + 1})
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ResponseTooLargeError{Limit: limit}
	}
	return data, nil
}

// IsResponseTooLarge reports whether err indicates a response limit violation.
func IsResponseTooLarge(err error) bool {
	var limitErr ResponseTooLargeError
	return errors.As(err, &limitErr)
}
