package domain

// Point is a canvas coordinate recorded by a constellation click.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ConstellationPattern classifies the shape of a user's constellation.
type ConstellationPattern string

const (
	PatternOrganized ConstellationPattern = "organized"
	PatternScattered ConstellationPattern = "scattered"
	PatternCentered  ConstellationPattern = "centered"
)

// Valid reports whether p is one of the known patterns.
func (p ConstellationPattern) Valid() bool {
	switch p {
	case PatternOrganized, PatternScattered, PatternCentered:
		return true
	default:
		return false
	}
}

// CosmicResults is produced once when the Cosmic Calm game finishes.
type CosmicResults struct {
	InitialElement       string               `json:"initialElement"`
	ConstellationPattern ConstellationPattern `json:"constellationPattern"`
	ResponseTime         []int                `json:"responseTime"`
	ChoicePattern        []string             `json:"choicePattern"`
	TotalTime            int                  `json:"totalTime"`
	ConstellationPoints  []Point              `json:"constellationPoints"`
}

// MemoryResults is produced once when the Stellar Memory game ends.
type MemoryResults struct {
	MaxSequenceLength   int     `json:"maxSequenceLength"`
	TotalErrors         int     `json:"totalErrors"`
	AverageReactionTime float64 `json:"averageReactionTime"`
	BreathingSyncRate   float64 `json:"breathingSyncRate"`
	FailurePoint        string  `json:"failurePoint"`
	// StressProgression is always empty; no per-level stress sampling exists.
	StressProgression []float64 `json:"stressProgression"`
	ReactionTimes     []int     `json:"reactionTimes"`
}

// PsychProfile accumulates narrative choice effects over six fixed dimensions.
type PsychProfile struct {
	Planning    int `json:"planning" yaml:"planning"`
	Control     int `json:"control" yaml:"control"`
	Social      int `json:"social" yaml:"social"`
	Curiosity   int `json:"curiosity" yaml:"curiosity"`
	Anxiety     int `json:"anxiety" yaml:"anxiety"`
	Exploration int `json:"exploration" yaml:"exploration"`
}

// Add returns the dimension-wise sum of p and other.
func (p PsychProfile) Add(other PsychProfile) PsychProfile {
	return PsychProfile{
		Planning:    p.Planning + other.Planning,
		Control:     p.Control + other.Control,
		Social:      p.Social + other.Social,
		Curiosity:   p.Curiosity + other.Curiosity,
		Anxiety:     p.Anxiety + other.Anxiety,
		Exploration: p.Exploration + other.Exploration,
	}
}

// Scores lists the six dimensions in declaration order.
func (p PsychProfile) Scores() []int {
	return []int{p.Planning, p.Control, p.Social, p.Curiosity, p.Anxiety, p.Exploration}
}

// NarrativeResults is produced once after the final narrative segment.
type NarrativeResults struct {
	DecisionSpeed     []int        `json:"decisionSpeed"`
	PsychProfile      PsychProfile `json:"psychProfile"`
	ChoiceConsistency float64      `json:"choiceConsistency"`
	TotalTime         int          `json:"totalTime"`
	StoryPath         []string     `json:"storyPath"`
}

// FinalAnalysis is the shared output shape of the AI collaborator and the
// local fallback heuristic.
type FinalAnalysis struct {
	StressLevel     int      `json:"stressLevel"`
	StressAreas     []string `json:"stressAreas"`
	Strengths       []string `json:"strengths"`
	Recommendations []string `json:"recommendations"`
	CosmicHoroscope string   `json:"cosmicHoroscope"`
	Summary         string   `json:"summary"`
}
