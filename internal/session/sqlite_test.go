package session

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLitePersister {
	t.Helper()
	p, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestSQLitePersisterCRUD(t *testing.T) {
	ctx := context.Background()
	p := openTestSQLite(t)

	_, err := p.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, p.Save(ctx, "a", []byte(`{"currentGame":1}`)))
	require.NoError(t, p.Save(ctx, "a", []byte(`{"currentGame":2}`)))
	data, err := p.Load(ctx, "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"currentGame":2}`, string(data))

	ok, err := p.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = p.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLitePersisterPrune(t *testing.T) {
	ctx := context.Background()
	p := openTestSQLite(t)
	clock := time.UnixMilli(1_700_000_000_000)
	p.now = func() time.Time { return clock }

	require.NoError(t, p.Save(ctx, "old", []byte(`{}`)))
	clock = clock.Add(48 * time.Hour)
	require.NoError(t, p.Save(ctx, "fresh", []byte(`{}`)))

	n, err := p.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = p.Load(ctx, "old")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = p.Load(ctx, "fresh")
	assert.NoError(t, err)
}

func TestOpenSQLiteReportsOpenFailure(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("no driver") }

	_, err := OpenSQLite(filepath.Join(t.TempDir(), "x.db"))
	assert.ErrorContains(t, err, "no driver")
}

func TestStoreReadsThroughPersister(t *testing.T) {
	ctx := context.Background()
	p := openTestSQLite(t)

	first, err := NewStore(1, testMachine(), WithPersister(p))
	require.NoError(t, err)
	a, err := first.Create(ctx)
	require.NoError(t, err)
	_, err = first.Apply(ctx, a.SessionID, Action{Type: ActionNextGame})
	require.NoError(t, err)
	b, err := first.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Len())

	// Evicted from the cache but still on disk.
	got, err := first.Get(ctx, a.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentGame)

	// A fresh store over the same database sees both sessions.
	second, err := NewStore(4, Machine{NewID: func() string { return "restored-1" }}, WithPersister(p))
	require.NoError(t, err)
	_, err = second.Get(ctx, b.SessionID)
	require.NoError(t, err)

	reset, err := second.Apply(ctx, a.SessionID, Action{Type: ActionResetSession})
	require.NoError(t, err)
	_, err = p.Load(ctx, a.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = p.Load(ctx, reset.SessionID)
	assert.NoError(t, err)

	removed, err := second.Delete(ctx, b.SessionID)
	require.NoError(t, err)
	assert.True(t, removed)
	_, err = first.Get(ctx, b.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)
}
