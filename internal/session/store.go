package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrNotFound is returned when no snapshot is stored for a session ID.
var ErrNotFound = errors.New("session not found")

const DefaultCapacity = 1024

// Persister durably stores encoded snapshots behind the in-memory cache.
// Load returns ErrNotFound for unknown IDs.
type Persister interface {
	Save(ctx context.Context, id string, data []byte) error
	Load(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Store keeps the most recently used session snapshots in memory. Entries are
// kept in encoded form so stored state cannot alias caller memory. With a
// Persister every write goes through to it and cache misses are read back.
// The analysis loading and error flags live only in the cached entry.
type Store struct {
	mu        sync.Mutex
	machine   Machine
	entries   *lru.Cache[string, entry]
	persister Persister
}

type entry struct {
	data     []byte
	loading  bool
	errorMsg string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPersister backs the cache with p.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) { s.persister = p }
}

// NewStore creates a store caching up to capacity sessions.
func NewStore(capacity int, machine Machine, opts ...StoreOption) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	s := &Store{machine: machine, entries: entries}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Len reports the number of cached sessions.
func (s *Store) Len() int {
	return s.entries.Len()
}

// Create starts and stores a fresh session.
func (s *Store) Create(ctx context.Context) (State, error) {
	state := s.machine.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.putLocked(ctx, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Get restores the stored session id.
func (s *Store) Get(ctx context.Context, id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx, id)
}

// Put replaces the snapshot for id and clears its analysis flags. The
// snapshot's session ID is forced to id.
func (s *Store) Put(ctx context.Context, id string, snap Snapshot) (State, error) {
	if id == "" {
		return State{}, ErrNotFound
	}
	snap.SessionID = id
	state := s.machine.Restore(snap)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.putLocked(ctx, state); err != nil {
		return State{}, err
	}
	return state, nil
}

// Apply reduces action over the stored session and persists the result. A
// reset stores the new session under its new ID and drops the old one.
func (s *Store) Apply(ctx context.Context, id string, action Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.getLocked(ctx, id)
	if err != nil {
		return State{}, err
	}
	next := s.machine.Reduce(current, action)
	if next.SessionID != id {
		if _, err := s.deleteLocked(ctx, id); err != nil {
			return State{}, err
		}
	}
	if err := s.putLocked(ctx, next); err != nil {
		return State{}, err
	}
	return next, nil
}

// Delete forgets id. It reports whether a session was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(ctx, id)
}

func (s *Store) getLocked(ctx context.Context, id string) (State, error) {
	e, ok := s.entries.Get(id)
	if !ok {
		if s.persister == nil {
			return State{}, ErrNotFound
		}
		loaded, err := s.persister.Load(ctx, id)
		if err != nil {
			return State{}, err
		}
		e = entry{data: loaded}
	}
	snap, err := DecodeSnapshot(e.data)
	if err != nil {
		if _, derr := s.deleteLocked(ctx, id); derr != nil {
			return State{}, derr
		}
		return State{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if !ok {
		s.entries.Add(id, e)
	}
	state := s.machine.Restore(snap)
	state.AnalysisLoading = e.loading
	state.AnalysisError = e.errorMsg
	return state, nil
}

func (s *Store) putLocked(ctx context.Context, state State) error {
	id := state.SessionID
	data, err := EncodeSnapshot(state.Snapshot())
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	if s.persister != nil {
		if err := s.persister.Save(ctx, id, data); err != nil {
			return fmt.Errorf("persist session %s: %w", id, err)
		}
	}
	s.entries.Add(id, entry{data: data, loading: state.AnalysisLoading, errorMsg: state.AnalysisError})
	return nil
}

func (s *Store) deleteLocked(ctx context.Context, id string) (bool, error) {
	removed := s.entries.Remove(id)
	if s.persister == nil {
		return removed, nil
	}
	ok, err := s.persister.Delete(ctx, id)
	if err != nil {
		return removed, fmt.Errorf("delete session %s: %w", id, err)
	}
	return removed || ok, nil
}
