package analysis

import (
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"stressoscope/internal/domain"
	"stressoscope/internal/jsonx"
)

// FailureKind classifies why collaborator output was rejected.
type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureEmpty     FailureKind = "empty"
	FailureParse     FailureKind = "parse"
	FailureStructure FailureKind = "structure"
)

// ParseOptions tunes ParseAnalysis.
type ParseOptions struct {
	// RepairJSON runs the content through jsonrepair before decoding.
	RepairJSON bool
}

// ParseResult is the tagged outcome of validating collaborator output.
// Exactly one of Analysis (Failure == FailureNone) or Err is meaningful.
type ParseResult struct {
	Analysis domain.FinalAnalysis
	Failure  FailureKind
	Err      error
}

// OK reports whether the content was accepted.
func (r ParseResult) OK() bool { return r.Failure == FailureNone }

func failed(kind FailureKind, err error) ParseResult {
	return ParseResult{Failure: kind, Err: err}
}

// ParseAnalysis decodes collaborator output and checks it carries all six
// FinalAnalysis fields with the right JSON types. An accepted stress level is
// rounded and clamped into [1,10].
func ParseAnalysis(content string, opts ParseOptions) ParseResult {
	body := stripCodeFence(strings.TrimSpace(content))
	if body == "" {
		return failed(FailureEmpty, fmt.Errorf("empty content"))
	}
	if opts.RepairJSON {
		if repaired, err := jsonrepair.JSONRepair(body); err == nil {
			body = repaired
		}
	}

	var decoded any
	if err := jsonx.Unmarshal([]byte(body), &decoded); err != nil {
		return failed(FailureParse, fmt.Errorf("decode analysis: %w", err))
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return failed(FailureStructure, fmt.Errorf("analysis is %T, want object", decoded))
	}

	level, ok := obj["stressLevel"].(float64)
	if !ok {
		return failed(FailureStructure, fieldError("stressLevel", "number", obj["stressLevel"]))
	}
	var out domain.FinalAnalysis
	out.StressLevel = ClampStressLevel(level)

	lists := []struct {
		name string
		dst  *[]string
	}{
		{"stressAreas", &out.StressAreas},
		{"strengths", &out.Strengths},
		{"recommendations", &out.Recommendations},
	}
	for _, l := range lists {
		values, err := stringList(l.name, obj[l.name])
		if err != nil {
			return failed(FailureStructure, err)
		}
		*l.dst = values
	}

	texts := []struct {
		name string
		dst  *string
	}{
		{"cosmicHoroscope", &out.CosmicHoroscope},
		{"summary", &out.Summary},
	}
	for _, tf := range texts {
		s, ok := obj[tf.name].(string)
		if !ok {
			return failed(FailureStructure, fieldError(tf.name, "string", obj[tf.name]))
		}
		*tf.dst = s
	}

	return ParseResult{Analysis: out}
}

func stringList(name string, raw any) ([]string, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fieldError(name, "array", raw)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("field %s[%d]: want string, got %T", name, i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func fieldError(name, want string, got any) error {
	if got == nil {
		return fmt.Errorf("field %s: missing or null, want %s", name, want)
	}
	return fmt.Errorf("field %s: want %s, got %T", name, want, got)
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		lang := strings.TrimSpace(inner[:nl])
		if lang == "" || strings.EqualFold(lang, "json") {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}
