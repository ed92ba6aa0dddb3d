package domain

import "errors"

var (
	// ErrGameAlreadyFinished is returned for moves on a terminal game.
	ErrGameAlreadyFinished = errors.New("game already finished")
	// ErrHintAlreadyUsed is returned when a hint type was consumed earlier in the game.
	ErrHintAlreadyUsed = errors.New("hint already used")
	// ErrUnknownHint indicates a hint type outside the supported set.
	ErrUnknownHint = errors.New("unknown hint type")
	// ErrInvalidOptionKey indicates an answer key outside a, b, c, d.
	ErrInvalidOptionKey = errors.New("invalid option key")
	// ErrNoActiveGame is returned when a user acts without an unfinished game.
	ErrNoActiveGame = errors.New("no active game")
	// ErrDuplicateActiveGame is returned when a user already has an unfinished game.
	ErrDuplicateActiveGame = errors.New("user already has an active game")
	// ErrGameNotFound indicates the game id is unknown.
	ErrGameNotFound = errors.New("game not found")
	// ErrQuestionsExhausted indicates the bank has no question for a level.
	ErrQuestionsExhausted = errors.New("no questions available for level")
	// ErrInvalidQuestion indicates a question without exactly four answers.
	ErrInvalidQuestion = errors.New("question must have exactly four answers")
	// ErrInvalidPrizeTable indicates a misconfigured prize ladder.
	ErrInvalidPrizeTable = errors.New("invalid prize table")
)
