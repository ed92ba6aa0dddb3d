package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"ladder-quiz-service/internal/domain"
)

const activeGameIndex = "games_one_active_per_user"

// GameStore keeps games as JSONB rows and implements app.GameRepository and
// app.BalanceRepository. A partial unique index enforces one unfinished game
// per user; updates lock the row with SELECT ... FOR UPDATE.
type GameStore struct {
	pool *pgxpool.Pool
}

func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

func (s *GameStore) Create(ctx context.Context, rec domain.GameRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO games (id, user_id, data, created_at, finished_at) VALUES ($1, $2, $3::jsonb, $4, $5)`,
		rec.ID, rec.UserID, string(data), rec.CreatedAt, rec.FinishedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == activeGameIndex {
		return domain.ErrDuplicateActiveGame
	}
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *GameStore) Get(ctx context.Context, gameID string) (domain.GameRecord, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx, `SELECT data FROM games WHERE id=$1`, gameID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GameRecord{}, domain.ErrGameNotFound
	}
	return rec, err
}

func (s *GameStore) ActiveForUser(ctx context.Context, userID string) (domain.GameRecord, error) {
	rec, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT data FROM games WHERE user_id=$1 AND finished_at IS NULL`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GameRecord{}, domain.ErrNoActiveGame
	}
	return rec, err
}

// ListByUser returns the user's games, newest first.
func (s *GameStore) ListByUser(ctx context.Context, userID string) ([]domain.GameRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM games WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []domain.GameRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *GameStore) Update(ctx context.Context, gameID string, fn func(*domain.GameRecord) error) (domain.GameRecord, error) {
	var out domain.GameRecord
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		rec, err := scanRecord(tx.QueryRow(ctx, `SELECT data FROM games WHERE id=$1 FOR UPDATE`, gameID))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrGameNotFound
		}
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
		if _, err := tx.Exec(ctx,
			`UPDATE games SET data=$2::jsonb, finished_at=$3 WHERE id=$1`,
			gameID, string(data), rec.FinishedAt); err != nil {
			return fmt.Errorf("update game: %w", err)
		}
		out = rec
		return nil
	})
	if err != nil {
		return domain.GameRecord{}, err
	}
	return out, nil
}

func (s *GameStore) AddBalance(ctx context.Context, userID string, amount int) (int, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO player_balances (user_id, balance) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET balance = player_balances.balance + EXCLUDED.balance
		 RETURNING balance`, userID, int64(amount)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("add balance: %w", err)
	}
	return int(total), nil
}

func (s *GameStore) Balance(ctx context.Context, userID string) (int, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `SELECT balance FROM player_balances WHERE user_id=$1`, userID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load balance: %w", err)
	}
	return int(total), nil
}

func scanRecord(row pgx.Row) (domain.GameRecord, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return domain.GameRecord{}, err
	}
	var rec domain.GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.GameRecord{}, fmt.Errorf("unmarshal game: %w", err)
	}
	return rec, nil
}
