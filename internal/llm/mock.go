package llm

import (
	"context"
	"strings"
	"sync/atomic"
)

// MockResponse is the canned analysis returned by the mock provider.
const MockResponse = `{
  "stressLevel": 4,
  "stressAreas": ["cognitivo"],
  "strengths": ["Calm under pressure"],
  "recommendations": ["Take short breaks", "Go for a walk", "Keep a regular sleep schedule"],
  "cosmicHoroscope": "The stars favour slow and steady progress this week.",
  "summary": "Mock analysis: mild cognitive load with good resilience."
}`

// MockClient returns a fixed completion without touching the network.
type MockClient struct {
	response string
	calls    atomic.Int64
}

// NewMock returns a mock client. An empty response selects MockResponse.
func NewMock(response string) *MockClient {
	if strings.TrimSpace(response) == "" {
		response = MockResponse
	}
	return &MockClient{response: response}
}

func (m *MockClient) Name() string { return ProviderMock }

func (m *MockClient) Complete(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.calls.Add(1)
	return m.response, nil
}

// Calls reports how many completions were served.
func (m *MockClient) Calls() int { return int(m.calls.Load()) }
