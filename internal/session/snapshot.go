package session

import (
	"errors"
	"fmt"

	"stressoscope/internal/domain"
	"stressoscope/internal/jsonx"
)

// ErrInvalidSnapshot is returned by DecodeSnapshot for data that must be
// discarded.
var ErrInvalidSnapshot = errors.New("invalid session snapshot")

// Snapshot is the persisted subset of State. Loading and error flags are
// transient and never stored.
type Snapshot struct {
	CurrentGame      int                      `json:"currentGame"`
	IsComplete       bool                     `json:"isComplete"`
	CosmicResults    *domain.CosmicResults    `json:"cosmicResults"`
	MemoryResults    *domain.MemoryResults    `json:"memoryResults"`
	NarrativeResults *domain.NarrativeResults `json:"narrativeResults"`
	FinalAnalysis    *domain.FinalAnalysis    `json:"finalAnalysis"`
	SessionID        string                   `json:"sessionId"`
	StartTime        int64                    `json:"startTime"`
}

// Snapshot extracts the persisted subset of s.
func (s State) Snapshot() Snapshot {
	return Snapshot{
		CurrentGame:      s.CurrentGame,
		IsComplete:       s.IsComplete,
		CosmicResults:    s.CosmicResults,
		MemoryResults:    s.MemoryResults,
		NarrativeResults: s.NarrativeResults,
		FinalAnalysis:    s.FinalAnalysis,
		SessionID:        s.SessionID,
		StartTime:        s.StartTime,
	}
}

// Restore rebuilds a State from snap. A missing session ID or start time is
// regenerated, as for a fresh session.
func (m Machine) Restore(snap Snapshot) State {
	s := State{
		CurrentGame:      snap.CurrentGame,
		IsComplete:       snap.IsComplete,
		CosmicResults:    snap.CosmicResults,
		MemoryResults:    snap.MemoryResults,
		NarrativeResults: snap.NarrativeResults,
		FinalAnalysis:    snap.FinalAnalysis,
		SessionID:        snap.SessionID,
		StartTime:        snap.StartTime,
	}
	if s.SessionID == "" {
		s.SessionID = m.newID()
	}
	if s.StartTime == 0 {
		s.StartTime = m.now().UnixMilli()
	}
	return s
}

// EncodeSnapshot serialises snap.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	return jsonx.Marshal(snap)
}

// DecodeSnapshot parses data. It rejects malformed JSON and documents whose
// currentGame is missing or not an integer.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var fields map[string]jsonx.RawMessage
	if err := jsonx.Unmarshal(data, &fields); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	raw, ok := fields["currentGame"]
	if !ok || string(raw) == "null" {
		return Snapshot{}, fmt.Errorf("%w: currentGame missing", ErrInvalidSnapshot)
	}
	var game int
	if err := jsonx.Unmarshal(raw, &game); err != nil {
		return Snapshot{}, fmt.Errorf("%w: currentGame is not an integer", ErrInvalidSnapshot)
	}

	var snap Snapshot
	if err := jsonx.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return snap, nil
}
