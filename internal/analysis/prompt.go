package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"stressoscope/internal/domain"
)

const notAvailable = "N/A"

const promptPreamble = `You are a digital psychologist specialised in stress management and behavioural analysis.
Analyse the following results from three interactive stress tests.`

const promptInstructions = `IMPORTANT: reply ONLY with valid JSON and no additional text.
Consider reaction and decision times, behavioural patterns and consistency,
ability to handle cognitive load, anxiety and control levels, resilience.

Reply EXCLUSIVELY with this JSON shape:
{
  "stressLevel": number from 1 to 10,
  "stressAreas": ["cognitivo", "emotivo", "comportamentale"],
  "strengths": ["detected strengths"],
  "recommendations": ["3-5 practical, personalised stress-management tips"],
  "cosmicHoroscope": "motivational personalised horoscope (2-3 sentences)",
  "summary": "stress profile summary (1-2 sentences)"
}

Values must reflect the data provided.`

// BuildPrompt renders the collaborator prompt for req. Nil records render
// as "N/A" sections.
func BuildPrompt(req Request) string {
	sections := []string{
		promptPreamble,
		cosmicSection(req.CosmicResults),
		memorySection(req.MemoryResults),
		narrativeSection(req.NarrativeResults),
		promptInstructions,
	}
	return strings.Join(sections, "\n\n")
}

func cosmicSection(c *domain.CosmicResults) string {
	lines := []string{"Game 1: Cosmic Calm"}
	if c == nil {
		return strings.Join(append(lines, "- "+notAvailable), "\n")
	}
	points := make([]string, 0, len(c.ConstellationPoints))
	for _, p := range c.ConstellationPoints {
		points = append(points, fmt.Sprintf("(%.0f, %.0f)", p.X, p.Y))
	}
	lines = append(lines,
		"- Initial element chosen: "+orNA(c.InitialElement),
		"- Constellation pattern: "+orNA(string(c.ConstellationPattern)),
		fmt.Sprintf("- Constellation points: %d (%s)", len(c.ConstellationPoints), joinOrNA(points)),
		"- Question response times (ms): "+joinOrNA(intStrings(c.ResponseTime)),
		"- Question choices: "+joinOrNA(c.ChoicePattern),
		"- Total time (ms): "+positiveOrNA(c.TotalTime),
	)
	return strings.Join(lines, "\n")
}

func memorySection(m *domain.MemoryResults) string {
	lines := []string{"Game 2: Stellar Memory"}
	if m == nil {
		return strings.Join(append(lines, "- "+notAvailable), "\n")
	}
	lines = append(lines,
		"- Max sequence length reached: "+positiveOrNA(m.MaxSequenceLength),
		fmt.Sprintf("- Total errors: %d", m.TotalErrors),
		"- Average reaction time (ms): "+positiveOrNA(int(m.AverageReactionTime)),
		"- Reaction times (ms): "+joinOrNA(intStrings(m.ReactionTimes)),
		fmt.Sprintf("- Breathing sync rate (%%): %.1f", m.BreathingSyncRate),
		"- Failure point: "+orNA(m.FailurePoint),
	)
	return strings.Join(lines, "\n")
}

func narrativeSection(n *domain.NarrativeResults) string {
	lines := []string{"Game 3: Narrative Waves"}
	if n == nil {
		return strings.Join(append(lines, "- "+notAvailable), "\n")
	}
	p := n.PsychProfile
	lines = append(lines,
		"- Decision speed (ms): "+joinOrNA(intStrings(n.DecisionSpeed)),
		fmt.Sprintf("- Psychological profile: planning=%d control=%d social=%d curiosity=%d anxiety=%d exploration=%d",
			p.Planning, p.Control, p.Social, p.Curiosity, p.Anxiety, p.Exploration),
		fmt.Sprintf("- Choice consistency: %.2f", n.ChoiceConsistency),
		"- Total time (ms): "+positiveOrNA(n.TotalTime),
	)
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func positiveOrNA(v int) string {
	if v <= 0 {
		return notAvailable
	}
	return strconv.Itoa(v)
}

func joinOrNA(items []string) string {
	if len(items) == 0 {
		return notAvailable
	}
	return strings.Join(items, ", ")
}

func intStrings(values []int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strconv.Itoa(v))
	}
	return out
}
