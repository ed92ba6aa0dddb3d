package memory

import (
	"context"
	"sync"

	"ladder-quiz-service/internal/domain"
)

// GameStore is an in-memory implementation of app.GameRepository and
// app.BalanceRepository. A single mutex serializes every write.
type GameStore struct {
	mu       sync.Mutex
	games    map[string]domain.GameRecord
	active   map[string]string
	byUser   map[string][]string
	balances map[string]int
}

func NewGameStore() *GameStore {
	return &GameStore{
		games:    make(map[string]domain.GameRecord),
		active:   make(map[string]string),
		byUser:   make(map[string][]string),
		balances: make(map[string]int),
	}
}

func (s *GameStore) Create(_ context.Context, rec domain.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[rec.UserID]; ok && !rec.Finished() {
		return domain.ErrDuplicateActiveGame
	}
	s.games[rec.ID] = rec.Clone()
	s.byUser[rec.UserID] = append(s.byUser[rec.UserID], rec.ID)
	if !rec.Finished() {
		s.active[rec.UserID] = rec.ID
	}
	return nil
}

func (s *GameStore) Get(_ context.Context, gameID string) (domain.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.games[gameID]
	if !ok {
		return domain.GameRecord{}, domain.ErrGameNotFound
	}
	return rec.Clone(), nil
}

func (s *GameStore) ActiveForUser(_ context.Context, userID string) (domain.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gameID, ok := s.active[userID]
	if !ok {
		return domain.GameRecord{}, domain.ErrNoActiveGame
	}
	return s.games[gameID].Clone(), nil
}

// ListByUser returns the user's games, newest first.
func (s *GameStore) ListByUser(_ context.Context, userID string) ([]domain.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byUser[userID]
	out := make([]domain.GameRecord, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, s.games[ids[i]].Clone())
	}
	return out, nil
}

func (s *GameStore) Update(_ context.Context, gameID string, fn func(*domain.GameRecord) error) (domain.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.games[gameID]
	if !ok {
		return domain.GameRecord{}, domain.ErrGameNotFound
	}
	rec := stored.Clone()
	if err := fn(&rec); err != nil {
		return domain.GameRecord{}, err
	}
	s.games[gameID] = rec.Clone()
	if rec.Finished() && s.active[rec.UserID] == gameID {
		delete(s.active, rec.UserID)
	}
	return rec, nil
}

func (s *GameStore) AddBalance(_ context.Context, userID string, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] += amount
	return s.balances[userID], nil
}

func (s *GameStore) Balance(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID], nil
}
