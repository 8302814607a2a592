package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerJSONIncludesContextIDs(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(LogConfig{Level: "debug", Format: "json", Output: buf})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithSessionID(ctx, "sess-1")
	logger.InfoContext(ctx, "analysis served", "source", "AI")

	out := buf.String()
	assert.Contains(t, out, `"msg":"analysis served"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"session_id":"sess-1"`)
	assert.Contains(t, out, `"source":"AI"`)
}

func TestLoggerLevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(LogConfig{Level: "warn", Format: "text", Output: buf})
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSanitizeAPIKey(t *testing.T) {
	assert.Equal(t, "***", SanitizeAPIKey("short"))
	assert.Equal(t, "gsk_abcd...wxyz", SanitizeAPIKey("gsk_abcdefghijklmnopwxyz"))
}

func TestMetricsCountAnalyses(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNewMetrics(reg)
	m.IncAnalysis("AI")
	m.IncAnalysis("AI")
	m.IncAnalysis("Fallback-No-API")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues("AI")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("Fallback-No-API")))

	m.ObserveProvider("groq", errors.New("boom"), time.Second)
	m.ObserveHTTP("POST", "/api/analyze", 200, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/analyze", "200")))
}

func TestMustNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := MustNewMetrics(reg)
	second := MustNewMetrics(reg)
	require.NotNil(t, second)

	first.IncAnalysis("AI")
	second.IncAnalysis("AI")
	assert.Equal(t, 2.0, testutil.ToFloat64(first.analyses.WithLabelValues("AI")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncAnalysis("AI")
		m.ObserveProvider("groq", nil, time.Second)
		m.ObserveHTTP("GET", "/", 200, time.Second)
	})
}
