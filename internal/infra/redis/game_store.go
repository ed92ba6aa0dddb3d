package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"ladder-quiz-service/internal/domain"
)

const maxUpdateRetries = 5

// releaseMarker deletes the active marker only while it still names the game.
var releaseMarker = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// GameStore keeps games in Redis as JSON and implements app.GameRepository and
// app.BalanceRepository.
//
//	game:{id}              JSON record
//	game:active:{userID}   id of the user's unfinished game
//	user:{userID}:games    sorted set of game ids by creation time
//	balance:{userID}       accumulated winnings
//
// Updates run in WATCH/MULTI transactions and retry on conflicting writes.
type GameStore struct {
	client *redis.Client
}

func NewGameStore(client *redis.Client) *GameStore {
	return &GameStore{client: client}
}

// Create stores the record and, for an unfinished game, claims the user's
// active marker in the same MULTI so a failed write never leaves the marker
// behind.
func (s *GameStore) Create(ctx context.Context, rec domain.GameRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	activeKey := s.activeKey(rec.UserID)

	txf := func(tx *redis.Tx) error {
		if !rec.Finished() {
			n, err := tx.Exists(ctx, activeKey).Result()
			if err != nil {
				return fmt.Errorf("check active game: %w", err)
			}
			if n > 0 {
				return domain.ErrDuplicateActiveGame
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.gameKey(rec.ID), data, 0)
			pipe.ZAdd(ctx, s.userGamesKey(rec.UserID), redis.Z{
				Score:  float64(rec.CreatedAt.UnixNano()),
				Member: rec.ID,
			})
			if !rec.Finished() {
				pipe.Set(ctx, activeKey, rec.ID, 0)
			}
			return nil
		})
		return err
	}

	err = s.client.Watch(ctx, txf, activeKey)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		// someone else claimed or released the marker concurrently
		return domain.ErrDuplicateActiveGame
	case errors.Is(err, domain.ErrDuplicateActiveGame):
		return err
	case err != nil:
		return fmt.Errorf("store game: %w", err)
	}
	return nil
}

func (s *GameStore) Get(ctx context.Context, gameID string) (domain.GameRecord, error) {
	return s.load(ctx, s.client, gameID)
}

func (s *GameStore) ActiveForUser(ctx context.Context, userID string) (domain.GameRecord, error) {
	gameID, err := s.client.Get(ctx, s.activeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.GameRecord{}, domain.ErrNoActiveGame
	}
	if err != nil {
		return domain.GameRecord{}, fmt.Errorf("load active game: %w", err)
	}
	rec, err := s.Get(ctx, gameID)
	if errors.Is(err, domain.ErrGameNotFound) {
		// Dangling marker: release it so the user can start over.
		if err := releaseMarker.Run(ctx, s.client, []string{s.activeKey(userID)}, gameID).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return domain.GameRecord{}, fmt.Errorf("release active game: %w", err)
		}
		return domain.GameRecord{}, domain.ErrNoActiveGame
	}
	return rec, err
}

// ListByUser returns the user's games, newest first.
func (s *GameStore) ListByUser(ctx context.Context, userID string) ([]domain.GameRecord, error) {
	ids, err := s.client.ZRevRange(ctx, s.userGamesKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	out := make([]domain.GameRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrGameNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *GameStore) Update(ctx context.Context, gameID string, fn func(*domain.GameRecord) error) (domain.GameRecord, error) {
	key := s.gameKey(gameID)
	var out domain.GameRecord

	txf := func(tx *redis.Tx) error {
		rec, err := s.load(ctx, tx, gameID)
		if err != nil {
			return err
		}
		if err := fn(&rec); err != nil {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal game: %w", err)
		}
		// Only this game can own the active marker while it is unfinished.
		active, err := tx.Get(ctx, s.activeKey(rec.UserID)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if rec.Finished() && active == gameID {
				pipe.Del(ctx, s.activeKey(rec.UserID))
			}
			return nil
		})
		if err != nil {
			return err
		}
		out = rec
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.GameRecord{}, err
		}
		return out, nil
	}
	return domain.GameRecord{}, fmt.Errorf("update game %s: %w", gameID, redis.TxFailedErr)
}

func (s *GameStore) AddBalance(ctx context.Context, userID string, amount int) (int, error) {
	total, err := s.client.IncrBy(ctx, s.balanceKey(userID), int64(amount)).Result()
	if err != nil {
		return 0, fmt.Errorf("add balance: %w", err)
	}
	return int(total), nil
}

func (s *GameStore) Balance(ctx context.Context, userID string) (int, error) {
	total, err := s.client.Get(ctx, s.balanceKey(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load balance: %w", err)
	}
	return total, nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *GameStore) load(ctx context.Context, c getter, gameID string) (domain.GameRecord, error) {
	data, err := c.Get(ctx, s.gameKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GameRecord{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.GameRecord{}, fmt.Errorf("load game: %w", err)
	}
	var rec domain.GameRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.GameRecord{}, fmt.Errorf("unmarshal game: %w", err)
	}
	return rec, nil
}

func (s *GameStore) gameKey(gameID string) string {
	return "game:" + gameID
}

func (s *GameStore) activeKey(userID string) string {
	return "game:active:" + userID
}

func (s *GameStore) userGamesKey(userID string) string {
	return "user:" + userID + ":games"
}

func (s *GameStore) balanceKey(userID string) string {
	return "balance:" + userID
}
