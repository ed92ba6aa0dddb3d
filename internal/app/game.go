package app

import (
	"fmt"
	"math/rand"
	"time"

	"ladder-quiz-service/internal/domain"
)

// Game is the ladder state machine. It is not safe for concurrent use; callers
// serialize writers per game (see GameRepository.Update).
type Game struct {
	id           string
	userID       string
	currentLevel int
	prize        int
	isFailed     bool
	createdAt    time.Time
	finishedAt   *time.Time
	questions    []*GameQuestion
	usedHints    map[domain.HintType]bool

	rules Rules
	now   func() time.Time
	rnd   *rand.Rand
}

// GameOption customizes clocks and randomness, mostly for tests.
type GameOption func(*Game)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) GameOption {
	return func(g *Game) { g.now = now }
}

// WithRand replaces the game's random source.
func WithRand(rnd *rand.Rand) GameOption {
	return func(g *Game) { g.rnd = rnd }
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func newBareGame(rules Rules, opts []GameOption) *Game {
	g := &Game{
		rules:     rules,
		now:       time.Now,
		usedHints: make(map[domain.HintType]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rnd == nil {
		g.rnd = newRand()
	}
	return g
}

// NewGame starts a game for userID. questions must hold exactly one question per
// level, ordered by level.
func NewGame(id, userID string, questions []domain.Question, rules Rules, opts ...GameOption) (*Game, error) {
	if len(questions) != rules.Prizes.Levels() {
		return nil, fmt.Errorf("need %d questions, got %d", rules.Prizes.Levels(), len(questions))
	}
	g := newBareGame(rules, opts)
	g.id = id
	g.userID = userID
	g.createdAt = g.now()
	g.questions = make([]*GameQuestion, len(questions))
	for level, q := range questions {
		if len(q.Answers) != domain.AnswerCount {
			return nil, fmt.Errorf("level %d: %w", level, domain.ErrInvalidQuestion)
		}
		g.questions[level] = newGameQuestion(level, q, g.rnd)
	}
	return g, nil
}

// RestoreGame rebuilds a game from its persisted record.
func RestoreGame(rec domain.GameRecord, rules Rules, opts ...GameOption) *Game {
	g := newBareGame(rules, opts)
	g.id = rec.ID
	g.userID = rec.UserID
	g.currentLevel = rec.CurrentLevel
	g.prize = rec.Prize
	g.isFailed = rec.IsFailed
	g.createdAt = rec.CreatedAt
	if rec.FinishedAt != nil {
		finished := *rec.FinishedAt
		g.finishedAt = &finished
	}
	g.questions = make([]*GameQuestion, len(rec.Questions))
	for i, q := range rec.Questions {
		g.questions[i] = restoreGameQuestion(q)
	}
	for _, t := range rec.UsedHints {
		g.usedHints[t] = true
	}
	return g
}

// Record snapshots the game for persistence.
func (g *Game) Record() domain.GameRecord {
	rec := domain.GameRecord{
		ID:           g.id,
		UserID:       g.userID,
		CurrentLevel: g.currentLevel,
		Prize:        g.prize,
		IsFailed:     g.isFailed,
		UsedHints:    g.UsedHints(),
		CreatedAt:    g.createdAt,
		Questions:    make([]domain.GameQuestionRecord, len(g.questions)),
	}
	if g.finishedAt != nil {
		finished := *g.finishedAt
		rec.FinishedAt = &finished
	}
	for i, q := range g.questions {
		rec.Questions[i] = q.record()
	}
	return rec
}

func (g *Game) ID() string                 { return g.id }
func (g *Game) UserID() string             { return g.userID }
func (g *Game) CurrentLevel() int          { return g.currentLevel }
func (g *Game) Prize() int                 { return g.prize }
func (g *Game) IsFailed() bool             { return g.isFailed }
func (g *Game) CreatedAt() time.Time       { return g.createdAt }
func (g *Game) FinishedAt() *time.Time     { return g.finishedAt }
func (g *Game) Questions() []*GameQuestion { return g.questions }

// Finished reports whether the game reached a terminal state.
func (g *Game) Finished() bool {
	return g.finishedAt != nil
}

// PreviousLevel is the last level passed, -1 when none.
func (g *Game) PreviousLevel() int {
	return g.currentLevel - 1
}

// ExpiresAt is the moment the time limit runs out.
func (g *Game) ExpiresAt() time.Time {
	return g.createdAt.Add(g.rules.TimeLimit)
}

// UsedHints lists consumed hint types in a stable order.
func (g *Game) UsedHints() []domain.HintType {
	used := make([]domain.HintType, 0, len(g.usedHints))
	for _, t := range domain.HintTypes {
		if g.usedHints[t] {
			used = append(used, t)
		}
	}
	return used
}

// CurrentGameQuestion returns the question at the current level. It reports
// false once the player has passed the last level.
func (g *Game) CurrentGameQuestion() (*GameQuestion, bool) {
	if g.currentLevel < 0 || g.currentLevel >= len(g.questions) {
		return nil, false
	}
	return g.questions[g.currentLevel], true
}

// timedOut is the single place elapsed play time is compared to the limit.
func (g *Game) timedOut(at time.Time) bool {
	return at.Sub(g.createdAt) > g.rules.TimeLimit
}

// Status derives the game state. Won and cashed-out games are never reported
// as timed out.
func (g *Game) Status() domain.GameStatus {
	switch {
	case g.finishedAt == nil:
		return domain.StatusInProgress
	case g.currentLevel > g.rules.Prizes.MaxLevel():
		return domain.StatusWon
	case !g.isFailed:
		return domain.StatusMoney
	case g.timedOut(*g.finishedAt):
		return domain.StatusTimeout
	default:
		return domain.StatusFail
	}
}

// expire finishes a game whose time limit has run out.
func (g *Game) expire() bool {
	if !g.timedOut(g.now()) {
		return false
	}
	g.finish(g.rules.Prizes.FireproofPayoutForLevel(g.PreviousLevel()), true)
	return true
}

// ResolveTimeout closes an unfinished game whose time limit has passed and
// reports whether it did.
func (g *Game) ResolveTimeout() bool {
	if g.Finished() {
		return false
	}
	return g.expire()
}

func (g *Game) finish(prize int, failed bool) {
	finished := g.now()
	g.finishedAt = &finished
	g.isFailed = failed
	if prize > g.prize {
		g.prize = prize
	}
}

// AnswerCurrentQuestion submits key for the current question. An expired game
// finishes as timed out without evaluating the answer.
func (g *Game) AnswerCurrentQuestion(key domain.OptionKey) (domain.GameStatus, error) {
	if g.Finished() {
		return g.Status(), domain.ErrGameAlreadyFinished
	}
	if g.expire() {
		return g.Status(), nil
	}
	if !key.Valid() {
		return g.Status(), domain.ErrInvalidOptionKey
	}

	question, ok := g.CurrentGameQuestion()
	if !ok {
		return g.Status(), domain.ErrGameAlreadyFinished
	}
	if !question.AnswerCorrect(key) {
		g.finish(g.rules.Prizes.FireproofPayoutForLevel(g.PreviousLevel()), true)
		return g.Status(), nil
	}

	g.currentLevel++
	if g.currentLevel > g.rules.Prizes.MaxLevel() {
		g.finish(g.rules.Prizes.MaxPayout(), false)
	}
	return g.Status(), nil
}

// CashOut ends the game with the prize of the last passed level.
func (g *Game) CashOut() (domain.GameStatus, error) {
	if g.Finished() {
		return g.Status(), domain.ErrGameAlreadyFinished
	}
	if g.expire() {
		return g.Status(), nil
	}
	g.finish(g.rules.Prizes.PayoutForLevel(g.PreviousLevel()), false)
	return g.Status(), nil
}

// UseHint reveals a hint for the current question. Each hint type can be used
// once per game.
func (g *Game) UseHint(t domain.HintType) (domain.Hint, error) {
	if g.Finished() {
		return domain.Hint{}, domain.ErrGameAlreadyFinished
	}
	if g.expire() {
		return domain.Hint{}, domain.ErrGameAlreadyFinished
	}
	strategy, ok := hintStrategies[t]
	if !ok {
		return domain.Hint{}, domain.ErrUnknownHint
	}
	question, ok := g.CurrentGameQuestion()
	if !ok {
		return domain.Hint{}, domain.ErrGameAlreadyFinished
	}
	if _, revealed := question.Hint(t); revealed || g.usedHints[t] {
		return domain.Hint{}, domain.ErrHintAlreadyUsed
	}

	hint := strategy(question, g.rnd)
	question.reveal(hint)
	g.usedHints[t] = true
	return hint, nil
}

// View renders the game for clients.
func (g *Game) View() domain.GameView {
	v := domain.GameView{
		ID:           g.id,
		UserID:       g.userID,
		Status:       g.Status(),
		CurrentLevel: g.currentLevel,
		Prize:        g.prize,
		UsedHints:    g.UsedHints(),
		CreatedAt:    g.createdAt,
		FinishedAt:   g.finishedAt,
		ExpiresAt:    g.ExpiresAt(),
	}
	if !g.Finished() {
		if q, ok := g.CurrentGameQuestion(); ok {
			v.Question = q.view()
			v.Question.Fireproof = g.rules.Prizes.IsFireproof(g.currentLevel)
		}
	}
	return v
}
