package narrative

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"stressoscope/internal/domain"
)

// OptionsPerSegment is the fixed number of choices offered by every segment.
const OptionsPerSegment = 4

// Option is one choice within a segment.
type Option struct {
	Text    string              `json:"text" yaml:"text"`
	Effects domain.PsychProfile `json:"effects" yaml:"effects"`
}

// Segment is one step of the story.
type Segment struct {
	ID      int      `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`
	Options []Option `json:"options" yaml:"options"`
}

//go:embed script.yaml
var defaultScriptYAML []byte

var loadDefault = sync.OnceValues(func() ([]Segment, error) {
	return ParseScript(defaultScriptYAML)
})

// DefaultScript returns the built-in six-segment story.
func DefaultScript() []Segment {
	segments, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("narrative: embedded script is invalid: %v", err))
	}
	return cloneSegments(segments)
}

// ParseScript decodes and validates a YAML story script.
func ParseScript(data []byte) ([]Segment, error) {
	var doc struct {
		Segments []Segment `yaml:"segments"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	if len(doc.Segments) == 0 {
		return nil, fmt.Errorf("script has no segments")
	}
	for _, seg := range doc.Segments {
		if len(seg.Options) != OptionsPerSegment {
			return nil, fmt.Errorf("segment %d: expected %d options, got %d", seg.ID, OptionsPerSegment, len(seg.Options))
		}
		for _, opt := range seg.Options {
			for _, v := range opt.Effects.Scores() {
				if v != 0 && v != 1 {
					return nil, fmt.Errorf("segment %d option %q: effect weights must be 0 or 1", seg.ID, opt.Text)
				}
			}
		}
	}
	return doc.Segments, nil
}

func cloneSegments(in []Segment) []Segment {
	out := make([]Segment, len(in))
	for i, seg := range in {
		seg.Options = append([]Option(nil), seg.Options...)
		out[i] = seg
	}
	return out
}
