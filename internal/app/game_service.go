package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"ladder-quiz-service/internal/domain"
)

// QuestionBank supplies one question per level.
type QuestionBank interface {
	PickQuestion(ctx context.Context, level int) (domain.Question, error)
}

// GameRepository abstracts how games are stored (in-memory, Redis, Postgres).
// Implementations keep at most one unfinished game per user and serialize
// concurrent Update calls for the same game.
type GameRepository interface {
	Create(ctx context.Context, rec domain.GameRecord) error
	Get(ctx context.Context, gameID string) (domain.GameRecord, error)
	ActiveForUser(ctx context.Context, userID string) (domain.GameRecord, error)
	ListByUser(ctx context.Context, userID string) ([]domain.GameRecord, error)
	// Update loads the game, applies fn and saves the result unless fn fails.
	Update(ctx context.Context, gameID string, fn func(*domain.GameRecord) error) (domain.GameRecord, error)
}

// BalanceRepository keeps each player's accumulated winnings.
type BalanceRepository interface {
	AddBalance(ctx context.Context, userID string, amount int) (int, error)
	Balance(ctx context.Context, userID string) (int, error)
}

// GameService contains the ladder quiz use cases around the Game state machine.
type GameService struct {
	games     GameRepository
	questions QuestionBank
	balances  BalanceRepository
	updates   *Updates
	rules     Rules
	now       func() time.Time
	newRand   func() *rand.Rand
	newID     func() string
	log       *zap.Logger
}

// ServiceOption customizes a GameService.
type ServiceOption func(*GameService)

// WithServiceClock is test-only for deterministic timestamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *GameService) { s.now = now }
}

// WithRandFactory controls the random source handed to each game.
func WithRandFactory(f func() *rand.Rand) ServiceOption {
	return func(s *GameService) { s.newRand = f }
}

// WithIDGenerator replaces UUID game ids.
func WithIDGenerator(f func() string) ServiceOption {
	return func(s *GameService) { s.newID = f }
}

func WithLogger(log *zap.Logger) ServiceOption {
	return func(s *GameService) { s.log = log }
}

func WithUpdates(u *Updates) ServiceOption {
	return func(s *GameService) { s.updates = u }
}

func NewGameService(games GameRepository, questions QuestionBank, balances BalanceRepository, rules Rules, opts ...ServiceOption) *GameService {
	s := &GameService{
		games:     games,
		questions: questions,
		balances:  balances,
		rules:     rules,
		now:       time.Now,
		newRand:   newRand,
		newID:     uuid.NewString,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Updates exposes the fan-out used by transports; nil when not configured.
func (s *GameService) Updates() *Updates {
	return s.updates
}

// Rules returns the rules new games are played under.
func (s *GameService) Rules() Rules {
	return s.rules
}

// CreateGameForUser starts a new game. A user's unfinished game blocks creation
// unless its time limit has already run out, in which case it is closed first.
func (s *GameService) CreateGameForUser(ctx context.Context, userID string) (domain.GameView, error) {
	if _, err := s.games.ActiveForUser(ctx, userID); err == nil {
		_, err := s.mutate(ctx, userID, func(g *Game) error {
			if !g.Finished() && !g.ResolveTimeout() {
				return domain.ErrDuplicateActiveGame
			}
			return nil
		})
		if err != nil {
			return domain.GameView{}, err
		}
	} else if !errors.Is(err, domain.ErrNoActiveGame) {
		return domain.GameView{}, err
	}

	questions := make([]domain.Question, 0, s.rules.Prizes.Levels())
	for level := 0; level <= s.rules.Prizes.MaxLevel(); level++ {
		q, err := s.questions.PickQuestion(ctx, level)
		if err != nil {
			return domain.GameView{}, fmt.Errorf("pick question for level %d: %w", level, err)
		}
		questions = append(questions, q)
	}

	game, err := NewGame(s.newID(), userID, questions, s.rules, s.gameOptions()...)
	if err != nil {
		return domain.GameView{}, err
	}
	if err := s.games.Create(ctx, game.Record()); err != nil {
		return domain.GameView{}, err
	}
	s.log.Info("game created", zap.String("game_id", game.ID()), zap.String("user_id", userID))

	view := game.View()
	s.publish(view)
	return view, nil
}

// Status returns the user's unfinished game. A game whose time limit has run
// out is closed first and reported as timed out.
func (s *GameService) Status(ctx context.Context, userID string) (domain.GameView, error) {
	rec, err := s.games.ActiveForUser(ctx, userID)
	if err != nil {
		return domain.GameView{}, err
	}
	game := s.restore(rec)
	if !game.timedOut(s.now()) {
		return game.View(), nil
	}
	game, err = s.mutate(ctx, userID, func(g *Game) error {
		g.ResolveTimeout()
		return nil
	})
	if err != nil {
		return domain.GameView{}, err
	}
	return game.View(), nil
}

// Game returns any game by id.
func (s *GameService) Game(ctx context.Context, gameID string) (domain.GameView, error) {
	rec, err := s.games.Get(ctx, gameID)
	if err != nil {
		return domain.GameView{}, err
	}
	return s.restore(rec).View(), nil
}

// Games lists a user's games, newest first.
func (s *GameService) Games(ctx context.Context, userID string) ([]domain.GameView, error) {
	recs, err := s.games.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]domain.GameView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, s.restore(rec).View())
	}
	return views, nil
}

// Balance returns the user's total winnings.
func (s *GameService) Balance(ctx context.Context, userID string) (int, error) {
	return s.balances.Balance(ctx, userID)
}

// Answer submits an answer for the user's current question.
func (s *GameService) Answer(ctx context.Context, userID string, key domain.OptionKey) (domain.AnswerResult, error) {
	var result domain.AnswerResult
	game, err := s.mutate(ctx, userID, func(g *Game) error {
		q, ok := g.CurrentGameQuestion()
		if ok {
			result.CorrectAnswerKey = q.CorrectAnswerKey()
		}
		levelBefore := g.CurrentLevel()
		status, err := g.AnswerCurrentQuestion(key)
		if err != nil {
			return err
		}
		result.Status = status
		result.Correct = g.CurrentLevel() > levelBefore
		return nil
	})
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if !game.Finished() {
		// Do not leak the key while the game can still be played.
		result.CorrectAnswerKey = ""
	}
	result.Prize = game.Prize()
	result.Game = game.View()
	return result, nil
}

// UseHint reveals a hint for the user's current question.
func (s *GameService) UseHint(ctx context.Context, userID string, t domain.HintType) (domain.HintResult, error) {
	var hint domain.Hint
	game, err := s.mutate(ctx, userID, func(g *Game) error {
		var err error
		hint, err = g.UseHint(t)
		return err
	})
	if err != nil {
		return domain.HintResult{}, err
	}
	return domain.HintResult{Hint: hint, Game: game.View()}, nil
}

// CashOut ends the user's game, securing the prize of the last passed level.
func (s *GameService) CashOut(ctx context.Context, userID string) (domain.GameView, error) {
	game, err := s.mutate(ctx, userID, func(g *Game) error {
		_, err := g.CashOut()
		return err
	})
	if err != nil {
		return domain.GameView{}, err
	}
	return game.View(), nil
}

// mutate applies op to the user's active game inside a repository update. The
// record is saved even when op is rejected, since an expired game may have been
// closed before the rejection.
func (s *GameService) mutate(ctx context.Context, userID string, op func(*Game) error) (*Game, error) {
	active, err := s.games.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		game        *Game
		wasFinished bool
		opErr       error
	)
	_, err = s.games.Update(ctx, active.ID, func(rec *domain.GameRecord) error {
		game = s.restore(*rec)
		wasFinished = game.Status().Terminal()
		opErr = op(game)
		*rec = game.Record()
		return nil
	})
	if err != nil {
		return nil, err
	}

	finished := game.Status().Terminal()
	if !wasFinished && finished {
		s.settle(ctx, game)
	}
	if opErr != nil {
		if finished != wasFinished {
			s.publish(game.View())
		}
		return game, opErr
	}
	s.publish(game.View())
	return game, nil
}

// settle credits the final prize to the player's balance.
func (s *GameService) settle(ctx context.Context, game *Game) {
	fields := []zap.Field{
		zap.String("game_id", game.ID()),
		zap.String("user_id", game.UserID()),
		zap.String("status", string(game.Status())),
		zap.Int("level", game.CurrentLevel()),
		zap.Int("prize", game.Prize()),
		zap.Duration("played", game.FinishedAt().Sub(game.CreatedAt())),
	}
	s.log.Info("game finished", fields...)
	if game.Prize() == 0 {
		return
	}
	if _, err := s.balances.AddBalance(ctx, game.UserID(), game.Prize()); err != nil {
		s.log.Error("credit prize failed", append(fields, zap.Error(err))...)
	}
}

func (s *GameService) publish(view domain.GameView) {
	if s.updates != nil {
		s.updates.Publish(view)
	}
}

func (s *GameService) restore(rec domain.GameRecord) *Game {
	return RestoreGame(rec, s.rules, s.gameOptions()...)
}

func (s *GameService) gameOptions() []GameOption {
	return []GameOption{WithClock(s.now), WithRand(s.newRand())}
}
