package analysis

import (
	"math"

	"stressoscope/internal/domain"
)

// Stress areas reported by the heuristic.
const (
	AreaCognitive = "cognitive"
	AreaEmotional = "emotivo"
	AreaGeneral   = "general"
)

const (
	neutralStressLevel = 5
	minStressLevel     = 1
	maxStressLevel     = 10

	memoryErrorThreshold       = 2
	memorySlowReactionMs       = 1500
	memoryShortSequence        = 4
	memoryCompletedAll         = "completed_all"
	breathingStrongSyncPercent = 60
	breathingWeakSyncPercent   = 30
	profileAnxietyThreshold    = 2
	profileControlThreshold    = 3
	profileStrengthThreshold   = 2
	narrativeSlowDecisionMs    = 15000
)

// Fixed strings used by the fallback heuristic.
const (
	RecBreathe        = "Take a few deep breaths when you feel overwhelmed."
	RecSleep          = "Ensure you get adequate sleep to support cognitive function."
	RecConnect        = "Connect with a friend or loved one today."
	RecBreathFocus    = "Try focusing on your breath during tasks to improve concentration."
	RecLetGo          = "Consider moments where letting go of control might be beneficial."
	RecDecisiveness   = "Practice making timely decisions to reduce potential overthinking."
	RecStructure      = "Channel your creativity; perhaps find structure in your imaginative ideas."
	StrengthBreathing = "Good focus under pressure (based on breathing sync)."
	StrengthPlanning  = "Strong planning and methodical approach."
	StrengthSocial    = "Socially oriented and collaborative."
	StrengthCuriosity = "Curious and open to new experiences."
	StrengthExploring = "Enjoys exploration and adventure."
	StrengthCentered  = "Focused and centered approach (based on constellation)."
	StrengthDiscovery = "Potential for self-discovery through these games."
	FallbackHoroscope = "The universe is vast and full of possibilities. Even small steps forward are progress. Stay curious!"
	FallbackSummary   = "Fallback analysis indicates a need for general stress management techniques. Detailed insights require AI connection."
)

// Fallback derives an analysis from game results using fixed heuristics. It
// accepts any combination of nil inputs and never fails.
func Fallback(cosmic *domain.CosmicResults, memory *domain.MemoryResults, narrative *domain.NarrativeResults) domain.FinalAnalysis {
	h := heuristic{
		level:           neutralStressLevel,
		areas:           []string{},
		strengths:       []string{},
		recommendations: []string{RecBreathe, RecSleep, RecConnect},
	}

	if memory != nil {
		h.applyMemory(memory)
	}
	if narrative != nil {
		h.applyNarrative(narrative)
	}
	if cosmic != nil {
		h.applyCosmic(cosmic)
	}

	if len(h.areas) == 0 {
		h.areas = append(h.areas, AreaGeneral)
	}
	if len(h.strengths) == 0 {
		h.strengths = append(h.strengths, StrengthDiscovery)
	}

	return domain.FinalAnalysis{
		StressLevel:     ClampStressLevel(h.level),
		StressAreas:     h.areas,
		Strengths:       h.strengths,
		Recommendations: h.recommendations,
		CosmicHoroscope: FallbackHoroscope,
		Summary:         FallbackSummary,
	}
}

// ClampStressLevel rounds to the nearest integer and clamps into [1,10].
func ClampStressLevel(level float64) int {
	if math.IsNaN(level) {
		return neutralStressLevel
	}
	rounded := math.Round(level)
	if rounded < minStressLevel {
		return minStressLevel
	}
	if rounded > maxStressLevel {
		return maxStressLevel
	}
	return int(rounded)
}

type heuristic struct {
	level           float64
	areas           []string
	strengths       []string
	recommendations []string
}

func (h *heuristic) tag(area string) {
	for _, a := range h.areas {
		if a == area {
			return
		}
	}
	h.areas = append(h.areas, area)
}

func (h *heuristic) raise(by float64) {
	h.level = math.Min(maxStressLevel, h.level+by)
}

func (h *heuristic) applyMemory(m *domain.MemoryResults) {
	if m.TotalErrors > memoryErrorThreshold {
		h.raise(2)
		h.tag(AreaCognitive)
	}
	if m.AverageReactionTime > memorySlowReactionMs {
		h.raise(1)
		h.tag(AreaCognitive)
	}
	if m.MaxSequenceLength < memoryShortSequence && m.FailurePoint != memoryCompletedAll {
		h.raise(1)
	}
	switch {
	case m.BreathingSyncRate > breathingStrongSyncPercent:
		h.strengths = append(h.strengths, StrengthBreathing)
	case m.BreathingSyncRate < breathingWeakSyncPercent && m.BreathingSyncRate != 0:
		h.recommendations = append(h.recommendations, RecBreathFocus)
	}
}

func (h *heuristic) applyNarrative(n *domain.NarrativeResults) {
	p := n.PsychProfile
	if p.Anxiety > profileAnxietyThreshold {
		h.raise(float64(p.Anxiety))
		h.tag(AreaEmotional)
	}
	if p.Control > profileControlThreshold {
		h.recommendations = append(h.recommendations, RecLetGo)
	}
	if p.Planning > profileStrengthThreshold {
		h.strengths = append(h.strengths, StrengthPlanning)
	}
	if p.Social > profileStrengthThreshold {
		h.strengths = append(h.strengths, StrengthSocial)
	}
	if p.Curiosity > profileStrengthThreshold {
		h.strengths = append(h.strengths, StrengthCuriosity)
	}
	if p.Exploration > profileStrengthThreshold {
		h.strengths = append(h.strengths, StrengthExploring)
	}

	if len(n.DecisionSpeed) > 0 {
		sum := 0
		for _, ms := range n.DecisionSpeed {
			sum += ms
		}
		if float64(sum)/float64(len(n.DecisionSpeed)) > narrativeSlowDecisionMs {
			h.raise(1)
			h.tag(AreaCognitive)
			h.recommendations = append(h.recommendations, RecDecisiveness)
		}
	}
}

func (h *heuristic) applyCosmic(c *domain.CosmicResults) {
	switch c.ConstellationPattern {
	case domain.PatternScattered:
		h.recommendations = append(h.recommendations, RecStructure)
	case domain.PatternCentered:
		h.strengths = append(h.strengths, StrengthCentered)
	}
}
