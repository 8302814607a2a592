// Package session models a player's progress through the three games as an
// immutable State advanced by a reducer, plus snapshot persistence.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stressoscope/internal/domain"
	"stressoscope/internal/jsonx"
)

// Game indices for State.CurrentGame.
const (
	GameIntro     = 0
	GameCosmic    = 1
	GameMemory    = 2
	GameNarrative = 3
	GameResults   = 4
)

// State is the per-player session. Values are treated as immutable; Reduce
// always returns a new State.
type State struct {
	CurrentGame      int                      `json:"currentGame"`
	IsComplete       bool                     `json:"isComplete"`
	CosmicResults    *domain.CosmicResults    `json:"cosmicResults"`
	MemoryResults    *domain.MemoryResults    `json:"memoryResults"`
	NarrativeResults *domain.NarrativeResults `json:"narrativeResults"`
	FinalAnalysis    *domain.FinalAnalysis    `json:"finalAnalysis"`
	AnalysisLoading  bool                     `json:"analysisLoading"`
	AnalysisError    string                   `json:"analysisError,omitempty"`
	SessionID        string                   `json:"sessionId"`
	// StartTime is epoch milliseconds.
	StartTime int64 `json:"startTime"`
}

// ReadyForAnalysis reports whether all three game results are present.
func (s State) ReadyForAnalysis() bool {
	return s.CosmicResults != nil && s.MemoryResults != nil && s.NarrativeResults != nil
}

// ActionType names a reducer transition.
type ActionType string

const (
	ActionNextGame            ActionType = "NEXT_GAME"
	ActionSetCosmicResults    ActionType = "SET_COSMIC_RESULTS"
	ActionSetMemoryResults    ActionType = "SET_MEMORY_RESULTS"
	ActionSetNarrativeResults ActionType = "SET_NARRATIVE_RESULTS"
	ActionTriggerAnalysis     ActionType = "TRIGGER_ANALYSIS"
	ActionSetAnalysisComplete ActionType = "SET_ANALYSIS_COMPLETE"
	ActionSetAnalysisError    ActionType = "SET_ANALYSIS_ERROR"
	ActionResetSession        ActionType = "RESET_SESSION"
)

// Action is a reducer input. Only the payload field matching Type is read.
type Action struct {
	Type      ActionType
	Cosmic    *domain.CosmicResults
	Memory    *domain.MemoryResults
	Narrative *domain.NarrativeResults
	Analysis  *domain.FinalAnalysis
	Error     string
}

// ErrInvalidAction reports an action whose payload does not decode.
var ErrInvalidAction = errors.New("invalid session action")

type wireAction struct {
	Type    ActionType       `json:"type"`
	Payload jsonx.RawMessage `json:"payload"`
}

// DecodeAction parses the {"type": ..., "payload": ...} wire form. Unknown
// types decode successfully and are ignored by Reduce.
func DecodeAction(data []byte) (Action, error) {
	var w wireAction
	if err := jsonx.Unmarshal(data, &w); err != nil {
		return Action{}, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	a := Action{Type: w.Type}
	var target any
	switch w.Type {
	case ActionSetCosmicResults:
		a.Cosmic = &domain.CosmicResults{}
		target = a.Cosmic
	case ActionSetMemoryResults:
		a.Memory = &domain.MemoryResults{}
		target = a.Memory
	case ActionSetNarrativeResults:
		a.Narrative = &domain.NarrativeResults{}
		target = a.Narrative
	case ActionSetAnalysisComplete:
		a.Analysis = &domain.FinalAnalysis{}
		target = a.Analysis
	case ActionSetAnalysisError:
		target = &a.Error
	default:
		return a, nil
	}
	if len(w.Payload) == 0 || string(w.Payload) == "null" {
		return Action{}, fmt.Errorf("%w: %s requires a payload", ErrInvalidAction, w.Type)
	}
	if err := jsonx.Unmarshal(w.Payload, target); err != nil {
		return Action{}, fmt.Errorf("%w: %s payload: %v", ErrInvalidAction, w.Type, err)
	}
	return a, nil
}

// Machine owns the side inputs of the reducer: the clock and the session ID
// generator. The zero value uses time.Now and random UUIDs.
type Machine struct {
	Now   func() time.Time
	NewID func() string
}

func (m Machine) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m Machine) newID() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return uuid.NewString()
}

// New returns a fresh session at the intro screen.
func (m Machine) New() State {
	return State{
		CurrentGame: GameIntro,
		SessionID:   m.newID(),
		StartTime:   m.now().UnixMilli(),
	}
}

// Reduce applies a to s. Unknown actions return s unchanged.
func (m Machine) Reduce(s State, a Action) State {
	switch a.Type {
	case ActionNextGame:
		s.CurrentGame++
		s.IsComplete = s.IsComplete || s.CurrentGame == GameResults
	case ActionSetCosmicResults:
		s.CosmicResults = a.Cosmic
	case ActionSetMemoryResults:
		s.MemoryResults = a.Memory
	case ActionSetNarrativeResults:
		s.NarrativeResults = a.Narrative
	case ActionTriggerAnalysis:
		s.AnalysisLoading = true
		s.AnalysisError = ""
		s.FinalAnalysis = nil
	case ActionSetAnalysisComplete:
		s.FinalAnalysis = a.Analysis
		s.AnalysisLoading = false
	case ActionSetAnalysisError:
		s.AnalysisError = a.Error
		s.AnalysisLoading = false
	case ActionResetSession:
		return m.New()
	}
	return s
}
