package narrative

import (
	"errors"
	"fmt"
	"math"
	"time"

	"stressoscope/internal/domain"
)

// consistencyVarianceCeiling normalises profile variance into [0,1]. It is
// the variance of a profile with one dimension at 6 and the rest at 0.
const consistencyVarianceCeiling = 5.0

var (
	ErrFinished      = errors.New("narrative: story already finished")
	ErrNotFinished   = errors.New("narrative: story not finished")
	ErrInvalidOption = errors.New("narrative: invalid option")
)

// Decision records one selection.
type Decision struct {
	SegmentID  int    `json:"segmentId"`
	ChoiceText string `json:"choiceText"`
	TimeMs     int    `json:"timeTaken"`
}

// Story accumulates a psych profile while the player walks the script.
type Story struct {
	now     func() time.Time
	script  []Segment
	index   int
	profile domain.PsychProfile
	path    []string
	records []Decision

	startedAt        time.Time
	segmentStartedAt time.Time
	finishedAt       time.Time
}

// StoryOption configures a Story.
type StoryOption func(*Story)

// WithClock overrides the wall clock used for decision timing.
func WithClock(now func() time.Time) StoryOption {
	return func(s *Story) {
		if now != nil {
			s.now = now
		}
	}
}

// WithScript replaces the default script.
func WithScript(script []Segment) StoryOption {
	return func(s *Story) {
		if len(script) > 0 {
			s.script = cloneSegments(script)
		}
	}
}

// NewStory shows the first segment and starts the clock.
func NewStory(opts ...StoryOption) *Story {
	s := &Story{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.script == nil {
		s.script = DefaultScript()
	}
	s.startedAt = s.now()
	s.segmentStartedAt = s.startedAt
	return s
}

// Finished reports whether every segment has been answered.
func (s *Story) Finished() bool { return s.index >= len(s.script) }

// Current returns the segment awaiting a choice.
func (s *Story) Current() (Segment, bool) {
	if s.Finished() {
		return Segment{}, false
	}
	return s.script[s.index], true
}

// Progress returns the 1-based segment number and the total.
func (s *Story) Progress() (int, int) {
	return s.index + 1, len(s.script)
}

// Profile returns the running profile.
func (s *Story) Profile() domain.PsychProfile { return s.profile }

// Decisions returns a copy of the recorded decisions.
func (s *Story) Decisions() []Decision { return append([]Decision(nil), s.records...) }

// Select applies the option at optionIndex of the current segment.
func (s *Story) Select(optionIndex int) (Decision, error) {
	seg, ok := s.Current()
	if !ok {
		return Decision{}, ErrFinished
	}
	if optionIndex < 0 || optionIndex >= len(seg.Options) {
		return Decision{}, fmt.Errorf("%w: %d", ErrInvalidOption, optionIndex)
	}
	opt := seg.Options[optionIndex]
	now := s.now()
	d := Decision{
		SegmentID:  seg.ID,
		ChoiceText: opt.Text,
		TimeMs:     int(now.Sub(s.segmentStartedAt).Milliseconds()),
	}
	s.records = append(s.records, d)
	s.path = append(s.path, opt.Text)
	s.profile = s.profile.Add(opt.Effects)
	s.index++
	s.segmentStartedAt = now
	if s.Finished() {
		s.finishedAt = now
	}
	return d, nil
}

// Results returns the final record after the last segment.
func (s *Story) Results() (domain.NarrativeResults, error) {
	if !s.Finished() {
		return domain.NarrativeResults{}, ErrNotFinished
	}
	speeds := make([]int, len(s.records))
	for i, r := range s.records {
		speeds[i] = r.TimeMs
	}
	return domain.NarrativeResults{
		DecisionSpeed:     speeds,
		PsychProfile:      s.profile,
		ChoiceConsistency: Consistency(s.profile),
		TotalTime:         int(s.finishedAt.Sub(s.startedAt).Milliseconds()),
		StoryPath:         append([]string(nil), s.path...),
	}, nil
}

// Consistency maps the population variance of the six profile scores into
// [0,1], rounded to two decimals. A flat profile scores 1.
func Consistency(p domain.PsychProfile) float64 {
	scores := p.Scores()
	n := float64(len(scores))
	var sum float64
	for _, v := range scores {
		sum += float64(v)
	}
	mean := sum / n
	var variance float64
	for _, v := range scores {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= n
	consistency := 1 - math.Min(variance/consistencyVarianceCeiling, 1)
	return math.Round(consistency*100) / 100
}
