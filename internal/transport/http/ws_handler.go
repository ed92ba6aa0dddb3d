package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"ladder-quiz-service/internal/app"
	"ladder-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, log *zap.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Key domain.OptionKey `json:"key"`
}

type hintPayload struct {
	Type domain.HintType `json:"type"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	log := h.log.With(zap.String("user_id", userID))

	var (
		updates <-chan domain.GameView
		cancel  = func() {}
	)
	if hub := h.service.Updates(); hub != nil {
		updates, cancel = hub.Subscribe(userID)
		log.Debug("ws connected", zap.Int("connections", hub.Subscribers(userID)))
	}
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write failed", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: "game", Payload: view}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if view, err := h.service.Status(r.Context(), userID); err == nil {
		send <- outboundMessage{Type: "game", Payload: view}
	}

	h.readLoop(r, userID, conn, send, writerDone, log)

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

type jsonReader interface {
	ReadJSON(v any) error
}

// readLoop answers inbound intents until the peer goes away or the writer
// has stopped after a failed write.
func (h *WSHandler) readLoop(r *http.Request, userID string, conn jsonReader, send chan<- outboundMessage, writerDone <-chan struct{}, log *zap.Logger) {
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		select {
		case send <- h.handle(r, userID, inbound, log):
		case <-writerDone:
			return
		}
	}
}

func (h *WSHandler) handle(r *http.Request, userID string, inbound inboundMessage, log *zap.Logger) outboundMessage {
	ctx := r.Context()
	var (
		typ     string
		payload any
		err     error
	)
	switch inbound.Type {
	case "create":
		typ = "game"
		payload, err = h.service.CreateGameForUser(ctx, userID)
	case "status":
		typ = "game"
		payload, err = h.service.Status(ctx, userID)
	case "answer":
		var p answerPayload
		if json.Unmarshal(inbound.Payload, &p) != nil {
			return wsError("invalid_payload", "invalid answer payload")
		}
		typ = "answerResult"
		payload, err = h.service.Answer(ctx, userID, p.Key)
	case "hint":
		var p hintPayload
		if json.Unmarshal(inbound.Payload, &p) != nil {
			return wsError("invalid_payload", "invalid hint payload")
		}
		typ = "hint"
		payload, err = h.service.UseHint(ctx, userID, p.Type)
	case "cashOut":
		typ = "game"
		payload, err = h.service.CashOut(ctx, userID)
	default:
		return wsError("unsupported_type", "unsupported message type")
	}
	if err != nil {
		body, status := toErrorPayload(err)
		if status == http.StatusInternalServerError {
			log.Error("ws intent failed", zap.String("intent", inbound.Type), zap.Error(err))
		}
		return outboundMessage{Type: "error", Payload: body}
	}
	return outboundMessage{Type: typ, Payload: payload}
}

func wsError(code, message string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Code: code, Message: message}}
}
