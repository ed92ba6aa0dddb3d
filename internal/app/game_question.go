package app

import (
	"math/rand"

	"ladder-quiz-service/internal/domain"
)

// GameQuestion binds a bank question to one level of a game. The mapping from
// option keys to answer slots is fixed at construction; only hints change later.
type GameQuestion struct {
	level    int
	question domain.Question
	keyMap   map[domain.OptionKey]int
	hints    map[domain.HintType]domain.Hint
}

func newGameQuestion(level int, question domain.Question, rnd *rand.Rand) *GameQuestion {
	perm := rnd.Perm(domain.AnswerCount)
	keyMap := make(map[domain.OptionKey]int, domain.AnswerCount)
	for i, key := range domain.OptionKeys {
		keyMap[key] = perm[i]
	}
	return &GameQuestion{
		level:    level,
		question: question,
		keyMap:   keyMap,
		hints:    make(map[domain.HintType]domain.Hint),
	}
}

func restoreGameQuestion(rec domain.GameQuestionRecord) *GameQuestion {
	keyMap := make(map[domain.OptionKey]int, len(rec.KeyMap))
	for k, v := range rec.KeyMap {
		keyMap[k] = v
	}
	hints := make(map[domain.HintType]domain.Hint, len(rec.Hints))
	for k, v := range rec.Hints {
		hints[k] = v
	}
	return &GameQuestion{
		level:    rec.Level,
		question: rec.Question,
		keyMap:   keyMap,
		hints:    hints,
	}
}

func (q *GameQuestion) record() domain.GameQuestionRecord {
	rec := domain.GameQuestionRecord{
		Level:    q.level,
		Question: q.question,
		KeyMap:   make(map[domain.OptionKey]int, len(q.keyMap)),
	}
	for k, v := range q.keyMap {
		rec.KeyMap[k] = v
	}
	if len(q.hints) > 0 {
		rec.Hints = q.Hints()
	}
	return rec
}

// Level returns the question's position in the game.
func (q *GameQuestion) Level() int { return q.level }

// Text returns the question text.
func (q *GameQuestion) Text() string { return q.question.Text }

// AnswerCorrect reports whether key points at the correct answer.
func (q *GameQuestion) AnswerCorrect(key domain.OptionKey) bool {
	return key == q.CorrectAnswerKey()
}

// CorrectAnswerKey returns the option key mapped to the correct answer slot.
func (q *GameQuestion) CorrectAnswerKey() domain.OptionKey {
	for _, key := range domain.OptionKeys {
		if q.keyMap[key] == 0 {
			return key
		}
	}
	return ""
}

// Variants maps each option key to the answer text shown for it.
func (q *GameQuestion) Variants() map[domain.OptionKey]string {
	variants := make(map[domain.OptionKey]string, len(q.keyMap))
	for key, slot := range q.keyMap {
		if slot >= 0 && slot < len(q.question.Answers) {
			variants[key] = q.question.Answers[slot]
		}
	}
	return variants
}

// Hint returns the revealed hint of type t, if any.
func (q *GameQuestion) Hint(t domain.HintType) (domain.Hint, bool) {
	h, ok := q.hints[t]
	return h, ok
}

// Hints returns a copy of every revealed hint.
func (q *GameQuestion) Hints() map[domain.HintType]domain.Hint {
	out := make(map[domain.HintType]domain.Hint, len(q.hints))
	for k, v := range q.hints {
		out[k] = v
	}
	return out
}

// reveal stores h unless a hint of the same type is already present.
func (q *GameQuestion) reveal(h domain.Hint) bool {
	if _, ok := q.hints[h.Type]; ok {
		return false
	}
	q.hints[h.Type] = h
	return true
}

func (q *GameQuestion) wrongKeys() []domain.OptionKey {
	correct := q.CorrectAnswerKey()
	keys := make([]domain.OptionKey, 0, domain.AnswerCount-1)
	for _, key := range domain.OptionKeys {
		if key != correct {
			keys = append(keys, key)
		}
	}
	return keys
}

func (q *GameQuestion) view() *domain.QuestionView {
	v := &domain.QuestionView{
		Level:    q.level,
		Text:     q.question.Text,
		Variants: q.Variants(),
	}
	if len(q.hints) > 0 {
		v.Hints = q.Hints()
	}
	return v
}
