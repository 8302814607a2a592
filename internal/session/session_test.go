package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stressoscope/internal/domain"
)

func testMachine() Machine {
	n := 0
	return Machine{
		Now: func() time.Time { return time.UnixMilli(1_700_000_000_000) },
		NewID: func() string {
			n++
			return fmt.Sprintf("session-%d", n)
		},
	}
}

func TestNewSession(t *testing.T) {
	m := testMachine()
	s := m.New()
	assert.Equal(t, GameIntro, s.CurrentGame)
	assert.False(t, s.IsComplete)
	assert.Equal(t, "session-1", s.SessionID)
	assert.Equal(t, int64(1_700_000_000_000), s.StartTime)
	assert.False(t, s.ReadyForAnalysis())

	zero := Machine{}.New()
	assert.Len(t, zero.SessionID, 36)
	assert.NotZero(t, zero.StartTime)
}

func TestReduceNextGameCompletesAtResults(t *testing.T) {
	m := testMachine()
	s := m.New()
	for i := 1; i <= 3; i++ {
		s = m.Reduce(s, Action{Type: ActionNextGame})
		assert.Equal(t, i, s.CurrentGame)
		assert.False(t, s.IsComplete)
	}
	s = m.Reduce(s, Action{Type: ActionNextGame})
	assert.Equal(t, GameResults, s.CurrentGame)
	assert.True(t, s.IsComplete)

	s = m.Reduce(s, Action{Type: ActionNextGame})
	assert.True(t, s.IsComplete, "completion is sticky")
}

func TestReduceResultsAndAnalysis(t *testing.T) {
	m := testMachine()
	s := m.New()

	s = m.Reduce(s, Action{Type: ActionSetCosmicResults, Cosmic: &domain.CosmicResults{InitialElement: "star"}})
	s = m.Reduce(s, Action{Type: ActionSetMemoryResults, Memory: &domain.MemoryResults{TotalErrors: 2}})
	s = m.Reduce(s, Action{Type: ActionSetNarrativeResults, Narrative: &domain.NarrativeResults{TotalTime: 10}})
	require.True(t, s.ReadyForAnalysis())

	s = m.Reduce(s, Action{Type: ActionSetAnalysisError, Error: "boom"})
	assert.Equal(t, "boom", s.AnalysisError)

	s = m.Reduce(s, Action{Type: ActionTriggerAnalysis})
	assert.True(t, s.AnalysisLoading)
	assert.Empty(t, s.AnalysisError)
	assert.Nil(t, s.FinalAnalysis)

	s = m.Reduce(s, Action{Type: ActionSetAnalysisComplete, Analysis: &domain.FinalAnalysis{StressLevel: 4}})
	assert.False(t, s.AnalysisLoading)
	require.NotNil(t, s.FinalAnalysis)
	assert.Equal(t, 4, s.FinalAnalysis.StressLevel)
}

func TestReduceResetAndUnknown(t *testing.T) {
	m := testMachine()
	s := m.New()
	s = m.Reduce(s, Action{Type: ActionNextGame})
	s = m.Reduce(s, Action{Type: ActionSetCosmicResults, Cosmic: &domain.CosmicResults{}})

	same := m.Reduce(s, Action{Type: "DANCE"})
	if diff := cmp.Diff(s, same); diff != "" {
		t.Fatalf("unknown action changed state (-want +got):\n%s", diff)
	}

	reset := m.Reduce(s, Action{Type: ActionResetSession})
	assert.Equal(t, "session-2", reset.SessionID)
	assert.Equal(t, GameIntro, reset.CurrentGame)
	assert.Nil(t, reset.CosmicResults)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	m := testMachine()
	s := m.New()
	_ = m.Reduce(s, Action{Type: ActionNextGame})
	assert.Equal(t, GameIntro, s.CurrentGame)
}

func TestDecodeAction(t *testing.T) {
	a, err := DecodeAction([]byte(`{"type":"SET_MEMORY_RESULTS","payload":{"totalErrors":3,"failurePoint":"level_2"}}`))
	require.NoError(t, err)
	assert.Equal(t, ActionSetMemoryResults, a.Type)
	require.NotNil(t, a.Memory)
	assert.Equal(t, 3, a.Memory.TotalErrors)

	a, err = DecodeAction([]byte(`{"type":"SET_ANALYSIS_ERROR","payload":"network down"}`))
	require.NoError(t, err)
	assert.Equal(t, "network down", a.Error)

	a, err = DecodeAction([]byte(`{"type":"NEXT_GAME"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionNextGame, a.Type)

	_, err = DecodeAction([]byte(`{"type":"SET_COSMIC_RESULTS"}`))
	assert.ErrorIs(t, err, ErrInvalidAction)
	_, err = DecodeAction([]byte(`{"type":"SET_COSMIC_RESULTS","payload":[1]}`))
	assert.ErrorIs(t, err, ErrInvalidAction)
	_, err = DecodeAction([]byte(`{"type":`))
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := testMachine()
	s := m.New()
	s = m.Reduce(s, Action{Type: ActionNextGame})
	s = m.Reduce(s, Action{Type: ActionNextGame})
	s = m.Reduce(s, Action{Type: ActionSetMemoryResults, Memory: &domain.MemoryResults{
		MaxSequenceLength: 4, StressProgression: []float64{}, ReactionTimes: []int{900},
	}})
	s = m.Reduce(s, Action{Type: ActionTriggerAnalysis})

	data, err := EncodeSnapshot(s.Snapshot())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "analysisLoading")

	snap, err := DecodeSnapshot(data)
	require.NoError(t, err)
	restored := m.Restore(snap)
	assert.Equal(t, 2, restored.CurrentGame)
	assert.Equal(t, s.SessionID, restored.SessionID)
	assert.Equal(t, s.StartTime, restored.StartTime)
	assert.Equal(t, s.MemoryResults, restored.MemoryResults)
	assert.False(t, restored.AnalysisLoading)
}

func TestDecodeSnapshotRejects(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`[]`,
		`{}`,
		`{"currentGame":null}`,
		`{"currentGame":"2"}`,
		`{"currentGame":1.5}`,
	} {
		_, err := DecodeSnapshot([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidSnapshot, body)
	}
}

func TestRestoreFillsMissingIdentity(t *testing.T) {
	m := testMachine()
	s := m.Restore(Snapshot{CurrentGame: 3})
	assert.Equal(t, 3, s.CurrentGame)
	assert.Equal(t, "session-1", s.SessionID)
	assert.Equal(t, int64(1_700_000_000_000), s.StartTime)
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(2, testMachine())
	require.NoError(t, err)

	created, err := store.Create(ctx)
	require.NoError(t, err)

	next, err := store.Apply(ctx, created.SessionID, Action{Type: ActionNextGame})
	require.NoError(t, err)
	assert.Equal(t, 1, next.CurrentGame)

	got, err := store.Get(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentGame)

	put, err := store.Put(ctx, created.SessionID, Snapshot{CurrentGame: 3, SessionID: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, created.SessionID, put.SessionID)
	assert.Equal(t, 3, put.CurrentGame)

	reset, err := store.Apply(ctx, created.SessionID, Action{Type: ActionResetSession})
	require.NoError(t, err)
	assert.NotEqual(t, created.SessionID, reset.SessionID)
	_, err = store.Get(ctx, created.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, reset.SessionID)
	assert.NoError(t, err)

	removed, err := store.Delete(ctx, reset.SessionID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = store.Delete(ctx, reset.SessionID)
	require.NoError(t, err)
	assert.False(t, removed)
	_, err = store.Apply(ctx, reset.SessionID, Action{Type: ActionNextGame})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(2, testMachine())
	require.NoError(t, err)

	a, _ := store.Create(ctx)
	b, _ := store.Create(ctx)
	_, err = store.Get(ctx, a.SessionID)
	require.NoError(t, err)
	c, _ := store.Create(ctx)

	assert.Equal(t, 2, store.Len())
	_, err = store.Get(ctx, b.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, a.SessionID)
	assert.NoError(t, err)
	_, err = store.Get(ctx, c.SessionID)
	assert.NoError(t, err)
}

func TestStoreKeepsAnalysisFlagsBetweenRequests(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(4, testMachine())
	require.NoError(t, err)
	created, err := store.Create(ctx)
	require.NoError(t, err)

	_, err = store.Apply(ctx, created.SessionID, Action{Type: ActionTriggerAnalysis})
	require.NoError(t, err)
	got, err := store.Get(ctx, created.SessionID)
	require.NoError(t, err)
	assert.True(t, got.AnalysisLoading)

	_, err = store.Apply(ctx, created.SessionID, Action{Type: ActionSetAnalysisError, Error: "boom"})
	require.NoError(t, err)
	got, err = store.Get(ctx, created.SessionID)
	require.NoError(t, err)
	assert.False(t, got.AnalysisLoading)
	assert.Equal(t, "boom", got.AnalysisError)

	snap, err := EncodeSnapshot(got.Snapshot())
	require.NoError(t, err)
	assert.NotContains(t, string(snap), "analysisError")

	put, err := store.Put(ctx, created.SessionID, got.Snapshot())
	require.NoError(t, err)
	assert.Empty(t, put.AnalysisError)
	got, err = store.Get(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Empty(t, got.AnalysisError)
}
