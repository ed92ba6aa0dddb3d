package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"ladder-quiz-service/internal/app"
	"ladder-quiz-service/internal/domain"
)

// GamesHandler serves read-only JSON views of games and balances.
type GamesHandler struct {
	service *app.GameService
	log     *zap.Logger
}

func NewGamesHandler(service *app.GameService, log *zap.Logger) *GamesHandler {
	return &GamesHandler{service: service, log: log}
}

// Register mounts the JSON routes on mux.
func (h *GamesHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /games/{id}", h.game)
	mux.HandleFunc("GET /users/{userId}/games", h.games)
	mux.HandleFunc("GET /users/{userId}/balance", h.balance)
}

// game serves a single game to its owner only; the caller identifies itself
// with the userId query parameter like the websocket endpoint does.
func (h *GamesHandler) game(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Code: "missing_user", Message: "missing userId"})
		return
	}
	view, err := h.service.Game(r.Context(), r.PathValue("id"))
	if err == nil && view.UserID != userID {
		err = domain.ErrGameNotFound
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *GamesHandler) games(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.Games(r.Context(), r.PathValue("userId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *GamesHandler) balance(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	balance, err := h.service.Balance(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userId": userID, "balance": balance})
}

func (h *GamesHandler) writeError(w http.ResponseWriter, err error) {
	body, status := toErrorPayload(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
