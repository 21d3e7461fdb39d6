package game

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store used by tests and the simulator.
// Games are deep-copied on every read and write so callers never share
// state with the store, mirroring the isolation a real database gives.
type MemStore struct {
	mu      sync.RWMutex
	games   map[string]*Game
	byRoom  map[string]string
	actions map[string][]ActionRecord
	nextID  int64
}

// NewMemStore builds an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		games:   make(map[string]*Game),
		byRoom:  make(map[string]string),
		actions: make(map[string][]ActionRecord),
	}
}

func (s *MemStore) CreateGame(_ context.Context, g *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[g.ID]; ok {
		return Errorf(KindConflict, "game %s already exists", g.ID)
	}
	if g.RoomID != "" {
		if _, ok := s.byRoom[g.RoomID]; ok {
			return Errorf(KindConflict, "room %s already has a game", g.RoomID)
		}
		s.byRoom[g.RoomID] = g.ID
	}
	s.games[g.ID] = g.Clone()
	return nil
}

func (s *MemStore) LoadGame(_ context.Context, id string) (*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[id]
	if !ok {
		return nil, Errorf(KindNotFound, "game %s not found", id)
	}
	return g.Clone(), nil
}

func (s *MemStore) LoadGameByRoom(_ context.Context, roomID string) (*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRoom[roomID]
	if !ok {
		return nil, Errorf(KindNotFound, "no game for room %s", roomID)
	}
	g, ok := s.games[id]
	if !ok {
		return nil, Errorf(KindNotFound, "game %s not found", id)
	}
	return g.Clone(), nil
}

func (s *MemStore) SaveGame(_ context.Context, g *Game, rec *ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[g.ID]; !ok {
		return Errorf(KindNotFound, "game %s not found", g.ID)
	}
	s.games[g.ID] = g.Clone()
	if rec != nil {
		s.nextID++
		rec.ID = s.nextID
		s.actions[g.ID] = append(s.actions[g.ID], *rec)
	}
	return nil
}

// Actions returns the append-only log for a game in commit order.
func (s *MemStore) Actions(gameID string) []ActionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]ActionRecord(nil), s.actions[gameID]...)
}
