package http

import (
	"errors"
	"net/http"

	"ladder-quiz-service/internal/domain"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrGameAlreadyFinished, "game_finished", http.StatusConflict},
	{domain.ErrHintAlreadyUsed, "hint_used", http.StatusConflict},
	{domain.ErrUnknownHint, "unknown_hint", http.StatusBadRequest},
	{domain.ErrInvalidOptionKey, "invalid_key", http.StatusBadRequest},
	{domain.ErrNoActiveGame, "no_active_game", http.StatusNotFound},
	{domain.ErrDuplicateActiveGame, "active_game_exists", http.StatusConflict},
	{domain.ErrGameNotFound, "game_not_found", http.StatusNotFound},
	{domain.ErrQuestionsExhausted, "questions_exhausted", http.StatusServiceUnavailable},
}

// toErrorPayload maps sentinel errors to stable codes. Anything unknown is
// reported as internal without leaking the driver message.
func toErrorPayload(err error) (errorPayload, int) {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return errorPayload{Code: c.code, Message: c.err.Error()}, c.status
		}
	}
	return errorPayload{Code: "internal", Message: "internal error"}, http.StatusInternalServerError
}
