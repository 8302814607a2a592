package memory

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"stressoscope/internal/domain"
)

// Phase is the state of a Stellar Memory game.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseShowingSequence Phase = "showingSequence"
	PhaseListening       Phase = "listening"
	PhaseFeedback        Phase = "feedback"
	PhaseGameOver        Phase = "gameOver"
)

// Outcome describes the effect of a single player input.
type Outcome int

const (
	// OutcomeProgress means the input matched and more are expected.
	OutcomeProgress Outcome = iota
	// OutcomeLevelComplete means the whole sequence was reproduced.
	OutcomeLevelComplete
	// OutcomeRetry means the input was wrong and the sequence will be replayed.
	OutcomeRetry
	// OutcomeGameOver means the input was wrong and no lives remain.
	OutcomeGameOver
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProgress:
		return "progress"
	case OutcomeLevelComplete:
		return "level_complete"
	case OutcomeRetry:
		return "retry"
	case OutcomeGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

const (
	MaxLives = 3
	// FocusBuffer is added to the focal circle radius when sampling pointer focus.
	FocusBuffer = 20.0
)

var ErrWrongPhase = errors.New("memory: operation not allowed in current phase")

// FocusCircle is the on-screen breathing circle pointer samples are measured against.
type FocusCircle struct {
	Center domain.Point
	Radius float64
}

// Contains reports whether p lies within the circle radius plus FocusBuffer.
func (c FocusCircle) Contains(p domain.Point) bool {
	return math.Hypot(p.X-c.Center.X, p.Y-c.Center.Y) < c.Radius+FocusBuffer
}

// Round is the sequence the player must reproduce at a level.
type Round struct {
	Level    int
	Config   LevelConfig
	Sequence []string
}

// Game is the Stellar Memory state machine. It is not safe for concurrent use.
type Game struct {
	now func() time.Time
	rng *rand.Rand

	phase           Phase
	level           int
	maxLevel        int
	lives           int
	sequence        []string
	input           []string
	awaitingAdvance bool

	totalErrors     int
	reactionTimes   []int
	focusSamples    int
	focusedSamples  int
	lastInteraction time.Time
}

// Option configures a Game.
type Option func(*Game)

// WithClock overrides the wall clock used for reaction times.
func WithClock(now func() time.Time) Option {
	return func(g *Game) {
		if now != nil {
			g.now = now
		}
	}
}

// WithRand overrides the random source used for sequences.
func WithRand(rng *rand.Rand) Option {
	return func(g *Game) {
		if rng != nil {
			g.rng = rng
		}
	}
}

// NewGame returns an idle game.
func NewGame(opts ...Option) *Game {
	g := &Game{
		now:   time.Now,
		phase: PhaseIdle,
		lives: MaxLives,
		level: 1,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(g.now().UnixNano()))
	}
	return g
}

func (g *Game) Phase() Phase { return g.phase }
func (g *Game) Level() int   { return g.level }
func (g *Game) Lives() int   { return g.lives }

// Sequence returns a copy of the sequence for the current level.
func (g *Game) Sequence() []string { return append([]string(nil), g.sequence...) }

// Start resets all counters and begins level 1.
func (g *Game) Start() (Round, error) {
	if g.phase != PhaseIdle && g.phase != PhaseGameOver {
		return Round{}, fmt.Errorf("start: %w", ErrWrongPhase)
	}
	g.level = 1
	g.maxLevel = 0
	g.lives = MaxLives
	g.totalErrors = 0
	g.reactionTimes = nil
	g.focusSamples = 0
	g.focusedSamples = 0
	return g.beginLevel(), nil
}

func (g *Game) beginLevel() Round {
	cfg := Level(g.level)
	g.sequence = GenerateSequence(g.rng, cfg.SequenceLength)
	g.input = nil
	g.awaitingAdvance = false
	if g.level > g.maxLevel {
		g.maxLevel = g.level
	}
	g.phase = PhaseShowingSequence
	return g.round()
}

func (g *Game) round() Round {
	return Round{Level: g.level, Config: Level(g.level), Sequence: g.Sequence()}
}

// PlaybackFinished marks the end of sequence playback; reaction timing starts now.
func (g *Game) PlaybackFinished() error {
	if g.phase != PhaseShowingSequence {
		return fmt.Errorf("playback finished: %w", ErrWrongPhase)
	}
	g.phase = PhaseListening
	g.lastInteraction = g.now()
	return nil
}

// Input handles one player selection while listening.
func (g *Game) Input(elementID string) (Outcome, error) {
	if g.phase != PhaseListening {
		return 0, fmt.Errorf("input: %w", ErrWrongPhase)
	}
	now := g.now()
	g.reactionTimes = append(g.reactionTimes, int(now.Sub(g.lastInteraction).Milliseconds()))
	g.lastInteraction = now

	g.input = append(g.input, elementID)
	pos := len(g.input) - 1
	if g.sequence[pos] == elementID {
		if len(g.input) < len(g.sequence) {
			return OutcomeProgress, nil
		}
		g.phase = PhaseFeedback
		g.awaitingAdvance = true
		return OutcomeLevelComplete, nil
	}

	g.totalErrors++
	g.lives--
	if g.lives <= 0 {
		g.phase = PhaseGameOver
		return OutcomeGameOver, nil
	}
	g.input = nil
	g.phase = PhaseFeedback
	return OutcomeRetry, nil
}

// Advance moves to the next level after a completed sequence.
func (g *Game) Advance() (Round, error) {
	if g.phase != PhaseFeedback || !g.awaitingAdvance {
		return Round{}, fmt.Errorf("advance: %w", ErrWrongPhase)
	}
	g.level++
	return g.beginLevel(), nil
}

// Replay shows the same sequence again after a mistake.
func (g *Game) Replay() (Round, error) {
	if g.phase != PhaseFeedback || g.awaitingAdvance {
		return Round{}, fmt.Errorf("replay: %w", ErrWrongPhase)
	}
	g.input = nil
	g.phase = PhaseShowingSequence
	return g.round(), nil
}

// SamplePointer records whether the pointer is within the focus circle.
// Samples outside the listening phase are ignored.
func (g *Game) SamplePointer(pointer domain.Point, circle FocusCircle) bool {
	if g.phase != PhaseListening {
		return false
	}
	g.focusSamples++
	if circle.Contains(pointer) {
		g.focusedSamples++
	}
	return true
}

// Stop ends the game while lives remain. A game that was never started has
// nothing to report and cannot be stopped.
func (g *Game) Stop() error {
	if g.phase == PhaseIdle {
		return fmt.Errorf("stop: %w", ErrWrongPhase)
	}
	g.phase = PhaseGameOver
	return nil
}

// Results computes the final metrics once the game is over.
func (g *Game) Results() (domain.MemoryResults, error) {
	if g.phase != PhaseGameOver {
		return domain.MemoryResults{}, fmt.Errorf("results: %w", ErrWrongPhase)
	}
	failurePoint := fmt.Sprintf("completed_level_%d", g.maxLevel)
	if g.lives <= 0 {
		failurePoint = fmt.Sprintf("level_%d", g.level)
	}
	return domain.MemoryResults{
		MaxSequenceLength:   Level(g.maxLevel).SequenceLength,
		TotalErrors:         g.totalErrors,
		AverageReactionTime: math.Round(mean(g.reactionTimes)),
		BreathingSyncRate:   SyncRate(g.focusedSamples, g.focusSamples),
		FailurePoint:        failurePoint,
		StressProgression:   []float64{},
		ReactionTimes:       append([]int{}, g.reactionTimes...),
	}, nil
}

// SyncRate converts focus samples into a percentage rounded to one decimal.
func SyncRate(focused, total int) float64 {
	if total <= 0 {
		return 0
	}
	rate := 100 * float64(focused) / float64(total)
	return math.Round(rate*10) / 10
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
