// Package analysis turns game results into a FinalAnalysis, either through
// an LLM collaborator or the local fallback heuristic.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"stressoscope/internal/domain"
	"stressoscope/internal/jsonx"
	"stressoscope/internal/llm"
	"stressoscope/internal/logging"
	"stressoscope/internal/observability"
)

// ErrMissingResults is returned when any of the three game records is absent.
var ErrMissingResults = errors.New("missing game results data")

// Source tags the provenance of an analysis.
type Source string

const (
	SourceAI                 Source = "AI"
	SourceNoAPI              Source = "Fallback-No-API"
	SourceAPIError           Source = "Fallback-API-Error"
	SourceEmptyResponse      Source = "Fallback-Empty-Response"
	SourceParseError         Source = "Fallback-Parse-Error"
	SourceInvalidAIStructure Source = "Fallback-Invalid-AI-Structure"
)

// IsFallback reports whether s names a fallback path.
func (s Source) IsFallback() bool { return s != SourceAI }

// Request carries the three game records submitted for analysis.
type Request struct {
	CosmicResults    *domain.CosmicResults    `json:"cosmicResults"`
	MemoryResults    *domain.MemoryResults    `json:"memoryResults"`
	NarrativeResults *domain.NarrativeResults `json:"narrativeResults"`
}

// Complete reports whether all three records are present.
func (r Request) Complete() bool {
	return r.CosmicResults != nil && r.MemoryResults != nil && r.NarrativeResults != nil
}

// Outcome is an analysis plus its provenance.
type Outcome struct {
	Analysis domain.FinalAnalysis
	Source   Source
	Cached   bool
}

const DefaultTimeout = 30 * time.Second

// Analyzer produces analyses. It is safe for concurrent use.
type Analyzer struct {
	client  llm.Client
	logger  logging.Logger
	metrics *observability.Metrics
	timeout time.Duration
	parse   ParseOptions
	cache   *lru.Cache[string, domain.FinalAnalysis]
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the analyzer logger.
func WithLogger(logger logging.Logger) Option {
	return func(a *Analyzer) { a.logger = logging.OrNop(logger) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithTimeout bounds each collaborator call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithJSONRepair enables jsonrepair on collaborator output.
func WithJSONRepair(enabled bool) Option {
	return func(a *Analyzer) { a.parse.RepairJSON = enabled }
}

// WithCacheSize keeps up to size AI-sourced analyses. Zero disables caching.
func WithCacheSize(size int) Option {
	return func(a *Analyzer) {
		if size <= 0 {
			a.cache = nil
			return
		}
		cache, err := lru.New[string, domain.FinalAnalysis](size)
		if err == nil {
			a.cache = cache
		}
	}
}

// NewAnalyzer builds an Analyzer. A nil client always takes the fallback path.
func NewAnalyzer(client llm.Client, opts ...Option) *Analyzer {
	a := &Analyzer{
		client:  client,
		logger:  logging.Nop(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze validates req and produces an analysis. The only error is
// ErrMissingResults; collaborator failures degrade to the fallback heuristic.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Outcome, error) {
	if !req.Complete() {
		return Outcome{}, ErrMissingResults
	}

	out := a.analyze(ctx, req)
	a.metrics.IncAnalysis(string(out.Source))
	return out, nil
}

func (a *Analyzer) analyze(ctx context.Context, req Request) Outcome {
	if a.client == nil {
		a.logger.Info("No LLM provider configured; using fallback analysis")
		return a.fallback(req, SourceNoAPI)
	}

	key, keyErr := cacheKey(req)
	if a.cache != nil && keyErr == nil {
		if cached, ok := a.cache.Get(key); ok {
			return Outcome{Analysis: cloneAnalysis(cached), Source: SourceAI, Cached: true}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	started := time.Now()
	content, err := a.client.Complete(callCtx, BuildPrompt(req))
	a.metrics.ObserveProvider(a.client.Name(), err, time.Since(started))
	if err != nil {
		if errors.Is(err, llm.ErrEmptyContent) {
			a.logger.Warn("%s returned empty content; using fallback", a.client.Name())
			return a.fallback(req, SourceEmptyResponse)
		}
		if llm.IsResponseTooLarge(err) {
			a.logger.Warn("%s response exceeded the size limit; using fallback: %v", a.client.Name(), err)
			return a.fallback(req, SourceAPIError)
		}
		a.logger.Warn("%s call failed; using fallback: %v", a.client.Name(), err)
		return a.fallback(req, SourceAPIError)
	}

	res := ParseAnalysis(content, a.parse)
	switch res.Failure {
	case FailureNone:
	case FailureEmpty:
		a.logger.Warn("%s returned empty content; using fallback", a.client.Name())
		return a.fallback(req, SourceEmptyResponse)
	case FailureParse:
		a.logger.Warn("Failed to parse %s response; using fallback: %v", a.client.Name(), res.Err)
		return a.fallback(req, SourceParseError)
	default:
		a.logger.Warn("Invalid %s analysis structure; using fallback: %v", a.client.Name(), res.Err)
		return a.fallback(req, SourceInvalidAIStructure)
	}

	if a.cache != nil && keyErr == nil {
		a.cache.Add(key, cloneAnalysis(res.Analysis))
	}
	return Outcome{Analysis: res.Analysis, Source: SourceAI}
}

func (a *Analyzer) fallback(req Request, source Source) Outcome {
	return Outcome{
		Analysis: Fallback(req.CosmicResults, req.MemoryResults, req.NarrativeResults),
		Source:   source,
	}
}

func cacheKey(req Request) (string, error) {
	raw, err := jsonx.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func cloneAnalysis(a domain.FinalAnalysis) domain.FinalAnalysis {
	a.StressAreas = slices.Clone(a.StressAreas)
	a.Strengths = slices.Clone(a.Strengths)
	a.Recommendations = slices.Clone(a.Recommendations)
	return a
}
