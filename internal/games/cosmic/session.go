package cosmic

import (
	"errors"
	"fmt"
	"time"

	"stressoscope/internal/domain"
)

// Phase is the current step of a Cosmic Calm session.
type Phase string

const (
	PhaseElementSelection Phase = "elementSelection"
	PhaseConstellation    Phase = "constellation"
	PhaseQuestions        Phase = "questions"
	PhaseFinished         Phase = "finished"
)

const (
	MaxConstellationPoints = 7
	MinConstellationPoints = 5
)

var (
	ErrWrongPhase     = errors.New("cosmic: operation not allowed in current phase")
	ErrUnknownElement = errors.New("cosmic: unknown element")
	ErrTooFewPoints   = errors.New("cosmic: not enough constellation points")
	ErrUnknownOption  = errors.New("cosmic: unknown option")
)

// Element is a selectable cosmic element.
type Element struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Question is a multiple-choice question asked after the constellation.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// Answer records one question response.
type Answer struct {
	QuestionID int    `json:"questionId"`
	Choice     string `json:"choice"`
	TimeMs     int    `json:"time"`
}

var elements = []Element{
	{ID: "star", Name: "Bright Star", Description: "Luminous and guiding"},
	{ID: "planet", Name: "Mystic Planet", Description: "Stable and protective"},
	{ID: "comet", Name: "Swift Comet", Description: "Dynamic and transformative"},
	{ID: "nebula", Name: "Infinite Nebula", Description: "Mysterious and creative"},
}

var questions = []Question{
	{ID: 1, Text: "If you were a planet, what atmosphere would you have?", Options: []string{
		"Calm and serene", "Electric and stormy", "Warm and gaseous", "Icy and thin",
	}},
	{ID: 2, Text: "Which celestial phenomenon describes your week?", Options: []string{
		"A supernova (explosive, transformative)", "A black hole (absorbs everything)",
		"A meteor shower (many small events)", "A stable orbit (predictable, calm)",
	}},
	{ID: 3, Text: "How do you prefer to travel through space (through life)?", Options: []string{
		"Warp speed, focused on the destination", "Slow cruise, enjoying the view",
		"Teleportation, instant changes", "Following gravitational forces",
	}},
	{ID: 4, Text: "What are you looking for in the vast universe?", Options: []string{
		"Knowledge and truth", "Peace and quiet", "Connection and company", "Adventure and new experiences",
	}},
	{ID: 5, Text: "Which cosmic energy are you most drawn to?", Options: []string{
		"The birth of a star (creation)", "The silence of deep space (introspection)",
		"The dance of galaxies (harmony)", "The unknown beyond the observable (mystery)",
	}},
}

// Elements returns the selectable elements.
func Elements() []Element {
	return append([]Element(nil), elements...)
}

// Questions returns the fixed question list.
func Questions() []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

// Session tracks a single Cosmic Calm play-through.
type Session struct {
	now    func() time.Time
	width  float64
	height float64

	phase         Phase
	element       string
	points        []domain.Point
	answers       []Answer
	questionIndex int

	startedAt      time.Time
	phaseStartedAt time.Time
	finishedAt     time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the wall clock used for response times.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSession starts a session on a canvas of the given size.
func NewSession(width, height float64, opts ...Option) *Session {
	s := &Session{
		now:    time.Now,
		width:  width,
		height: height,
		phase:  PhaseElementSelection,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	s.phaseStartedAt = s.startedAt
	return s
}

// Phase reports the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Points returns a copy of the recorded constellation points.
func (s *Session) Points() []domain.Point {
	return append([]domain.Point(nil), s.points...)
}

// CurrentQuestion returns the question being asked, if any.
func (s *Session) CurrentQuestion() (Question, bool) {
	if s.phase != PhaseQuestions || s.questionIndex >= len(questions) {
		return Question{}, false
	}
	return questions[s.questionIndex], true
}

// SelectElement picks the initial element and opens the constellation canvas.
func (s *Session) SelectElement(id string) error {
	if s.phase != PhaseElementSelection {
		return fmt.Errorf("select element: %w", ErrWrongPhase)
	}
	if !knownElement(id) {
		return fmt.Errorf("%w: %q", ErrUnknownElement, id)
	}
	s.element = id
	s.phase = PhaseConstellation
	s.phaseStartedAt = s.now()
	return nil
}

// AddPoint records a click. It reports false when the click was ignored
// because the canvas is full, the point is outside it, or the phase is wrong.
func (s *Session) AddPoint(x, y float64) bool {
	if s.phase != PhaseConstellation || len(s.points) >= MaxConstellationPoints {
		return false
	}
	if x < 0 || y < 0 || x > s.width || y > s.height {
		return false
	}
	s.points = append(s.points, domain.Point{X: x, Y: y})
	return true
}

// CompleteConstellation closes the canvas and starts the questions.
func (s *Session) CompleteConstellation() error {
	if s.phase != PhaseConstellation {
		return fmt.Errorf("complete constellation: %w", ErrWrongPhase)
	}
	if len(s.points) < MinConstellationPoints {
		return fmt.Errorf("%w: have %d, need %d", ErrTooFewPoints, len(s.points), MinConstellationPoints)
	}
	s.phase = PhaseQuestions
	s.questionIndex = 0
	s.phaseStartedAt = s.now()
	return nil
}

// Answer records the chosen option text for the current question.
func (s *Session) Answer(option string) error {
	q, ok := s.CurrentQuestion()
	if !ok {
		return fmt.Errorf("answer: %w", ErrWrongPhase)
	}
	if !containsString(q.Options, option) {
		return fmt.Errorf("%w: %q", ErrUnknownOption, option)
	}
	now := s.now()
	s.answers = append(s.answers, Answer{
		QuestionID: q.ID,
		Choice:     option,
		TimeMs:     int(now.Sub(s.phaseStartedAt).Milliseconds()),
	})
	if s.questionIndex < len(questions)-1 {
		s.questionIndex++
		s.phaseStartedAt = now
		return nil
	}
	s.phase = PhaseFinished
	s.finishedAt = now
	return nil
}

// Results assembles the final record. It is only available once finished.
func (s *Session) Results() (domain.CosmicResults, error) {
	if s.phase != PhaseFinished {
		return domain.CosmicResults{}, fmt.Errorf("results: %w", ErrWrongPhase)
	}
	pattern := domain.PatternScattered
	if len(s.points) > 0 {
		pattern = Classify(s.points, s.width, s.height)
	}
	responseTimes := make([]int, len(s.answers))
	choices := make([]string, len(s.answers))
	for i, a := range s.answers {
		responseTimes[i] = a.TimeMs
		choices[i] = a.Choice
	}
	return domain.CosmicResults{
		InitialElement:       s.element,
		ConstellationPattern: pattern,
		ResponseTime:         responseTimes,
		ChoicePattern:        choices,
		TotalTime:            int(s.finishedAt.Sub(s.startedAt).Milliseconds()),
		ConstellationPoints:  s.Points(),
	}, nil
}

func knownElement(id string) bool {
	for _, e := range elements {
		if e.ID == id {
			return true
		}
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
