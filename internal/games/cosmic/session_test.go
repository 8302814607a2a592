package cosmic

import (
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

func TestSessionFullPlayThrough(t *testing.T) {
	clock := &stepClock{now: time.Unix(1_700_000_000, 0)}
	s := NewSession(800, 600, WithClock(clock.Now))

	require.NoError(t, s.SelectElement("nebula"))
	assert.Equal(t, PhaseConstellation, s.Phase())

	for _, p := range []domain.Point{{X: 390, Y: 290}, {X: 410, Y: 290}, {X: 400, Y: 310}, {X: 395, Y: 305}, {X: 405, Y: 295}} {
		require.True(t, s.AddPoint(p.X, p.Y))
	}
	require.NoError(t, s.CompleteConstellation())

	for i, q := range Questions() {
		clock.Advance(time.Duration(i+1) * time.Second)
		require.NoError(t, s.Answer(q.Options[i%len(q.Options)]))
	}
	assert.Equal(t, PhaseFinished, s.Phase())

	results, err := s.Results()
	require.NoError(t, err)
	assert.Equal(t, "nebula", results.InitialElement)
	assert.Equal(t, domain.PatternCentered, results.ConstellationPattern)
	assert.Equal(t, []int{1000, 2000, 3000, 4000, 5000}, results.ResponseTime)
	assert.Len(t, results.ChoicePattern, 5)
	assert.Equal(t, 15000, results.TotalTime)
	assert.Len(t, results.ConstellationPoints, 5)

	clock.Advance(time.Minute)
	again, err := s.Results()
	require.NoError(t, err)
	assert.Equal(t, results, again)
}

func TestSessionRejectsOutOfCanvasAndExtraPoints(t *testing.T) {
	s := NewSession(100, 100)
	assert.False(t, s.AddPoint(10, 10), "points before element selection are ignored")
	require.NoError(t, s.SelectElement("star"))

	assert.False(t, s.AddPoint(-1, 10))
	assert.False(t, s.AddPoint(10, 101))
	for i := 0; i < MaxConstellationPoints; i++ {
		assert.True(t, s.AddPoint(float64(i), float64(i)))
	}
	assert.False(t, s.AddPoint(50, 50))
	assert.Len(t, s.Points(), MaxConstellationPoints)
}

func TestSessionGuards(t *testing.T) {
	s := NewSession(100, 100)
	assert.ErrorIs(t, s.SelectElement("asteroid"), ErrUnknownElement)
	assert.ErrorIs(t, s.CompleteConstellation(), ErrWrongPhase)
	assert.ErrorIs(t, s.Answer("Calm and serene"), ErrWrongPhase)

	require.NoError(t, s.SelectElement("comet"))
	assert.ErrorIs(t, s.SelectElement("star"), ErrWrongPhase)
	s.AddPoint(1, 1)
	assert.ErrorIs(t, s.CompleteConstellation(), ErrTooFewPoints)

	for i := 0; i < 4; i++ {
		s.AddPoint(float64(i*10), 5)
	}
	require.NoError(t, s.CompleteConstellation())
	assert.ErrorIs(t, s.Answer("not an option"), ErrUnknownOption)

	_, err := s.Results()
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestQuestionsReturnsCopy(t *testing.T) {
	qs := Questions()
	qs[0].Options[0] = "mutated"
	assert.NotEqual(t, "mutated", Questions()[0].Options[0])
}
