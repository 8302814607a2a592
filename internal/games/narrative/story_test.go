package narrative

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stressoscope/internal/domain"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func (c *stepClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestDefaultScriptShape(t *testing.T) {
	script := DefaultScript()
	require.Len(t, script, 6)
	for i, seg := range script {
		assert.Equal(t, i+1, seg.ID)
		assert.Len(t, seg.Options, OptionsPerSegment)
		for _, opt := range seg.Options {
			total := 0
			for _, v := range opt.Effects.Scores() {
				total += v
			}
			assert.GreaterOrEqual(t, total, 1, "option %q has no effect", opt.Text)
		}
	}
}

func TestParseScriptRejectsBadWeights(t *testing.T) {
	_, err := ParseScript([]byte(`
segments:
  - id: 1
    text: x
    options:
      - {text: a, effects: {planning: 2}}
      - {text: b, effects: {social: 1}}
      - {text: c, effects: {social: 1}}
      - {text: d, effects: {social: 1}}
`))
	assert.Error(t, err)

	_, err = ParseScript([]byte(`segments: [{id: 1, text: x, options: [{text: a}]}]`))
	assert.Error(t, err)

	_, err = ParseScript([]byte(`segments: []`))
	assert.Error(t, err)
}

func TestStoryAccumulatesProfile(t *testing.T) {
	clock := &stepClock{now: time.Unix(1_700_000_000, 0)}
	story := NewStory(WithClock(clock.Now))

	// Always the first option: planning+control, curiosity+social, planning+control,
	// planning+social, planning+control, control+anxiety.
	for i := 0; i < 6; i++ {
		clock.Advance(time.Duration(i+1) * time.Second)
		d, err := story.Select(0)
		require.NoError(t, err)
		assert.Equal(t, i+1, d.SegmentID)
	}
	require.True(t, story.Finished())

	_, err := story.Select(0)
	assert.ErrorIs(t, err, ErrFinished)

	results, err := story.Results()
	require.NoError(t, err)
	assert.Equal(t, domain.PsychProfile{Planning: 4, Control: 4, Social: 2, Curiosity: 1, Anxiety: 1}, results.PsychProfile)
	assert.Equal(t, []int{1000, 2000, 3000, 4000, 5000, 6000}, results.DecisionSpeed)
	assert.Equal(t, 21000, results.TotalTime)
	assert.Len(t, results.StoryPath, 6)
	assert.Equal(t, "Methodically explore each room", results.StoryPath[0])
	// mean 2, variance (4+4+0+1+1+4)/6 = 2.333..., 1-0.4667 = 0.53
	assert.Equal(t, 0.53, results.ChoiceConsistency)
}

func TestStoryGuards(t *testing.T) {
	story := NewStory()
	_, err := story.Results()
	assert.ErrorIs(t, err, ErrNotFinished)
	_, err = story.Select(4)
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = story.Select(-1)
	assert.ErrorIs(t, err, ErrInvalidOption)
	n, total := story.Progress()
	assert.Equal(t, 1, n)
	assert.Equal(t, 6, total)
}

func TestConsistencyBounds(t *testing.T) {
	assert.Equal(t, 1.0, Consistency(domain.PsychProfile{}))
	assert.Equal(t, 1.0, Consistency(domain.PsychProfile{Planning: 2, Control: 2, Social: 2, Curiosity: 2, Anxiety: 2, Exploration: 2}))
	assert.Equal(t, 0.0, Consistency(domain.PsychProfile{Planning: 6}))
	assert.Equal(t, 0.0, Consistency(domain.PsychProfile{Anxiety: 12}))

	for a := 0; a <= 6; a++ {
		for b := 0; b <= 6; b++ {
			for c := 0; c <= 6; c++ {
				v := Consistency(domain.PsychProfile{Planning: a, Social: b, Anxiety: c, Curiosity: a})
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
				assert.InDelta(t, v, math.Round(v*100)/100, 1e-12)
			}
		}
	}
}
