package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"battle-quiz-service/internal/app"
	"battle-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler exposes the battle engine to external renderers over a websocket.
// One battle per connection; the renderer drives the tick source.
type WSHandler struct {
	service  *app.BattleService
	defaults app.StartConfig
	upgrader websocket.Upgrader
}

// NewWSHandler builds the handler; defaults fill in battle parameters the
// renderer does not override in its start message.
func NewWSHandler(service *app.BattleService, defaults app.StartConfig) *WSHandler {
	return &WSHandler{
		service:  service,
		defaults: defaults,
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

type tickPayload struct {
	DeltaSeconds float64 `json:"deltaSeconds"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request, starts a battle from the query parameters,
// and wires renderer messages into the battle use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	cfg := h.defaults
	cfg.PlayerID = r.URL.Query().Get("playerId")
	cfg.Topic = r.URL.Query().Get("topic")
	if tier, err := strconv.Atoi(r.URL.Query().Get("tier")); err == nil {
		cfg.Tier = tier
	}
	if cfg.Topic == "" || cfg.Tier < 1 {
		http.Error(w, "missing topic or tier", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	status, err := h.service.StartBattle(r.Context(), cfg)
	if err != nil {
		// Content failures route the player back to a safe menu client-side.
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	handle := status.Handle
	defer func() {
		_ = h.service.Abort(handle)
	}()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "battle", Payload: status}
	h.sendQuestion(send, handle)

	ended := false
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var answer domain.Answer
			if err := json.Unmarshal(inbound.Payload, &answer); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			result, err := h.service.SubmitAnswer(r.Context(), handle, answer)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: result}
			if result.Phase.Terminal() {
				if !ended {
					ended = true
					h.sendFinal(send, handle)
				}
			} else if result.Accepted {
				h.sendQuestion(send, handle)
			}
		case "tick":
			var payload tickPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid tick payload"}}
				continue
			}
			view, err := h.service.Tick(r.Context(), handle, payload.DeltaSeconds)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "timer", Payload: view}
			if status, err := h.service.Status(handle); err == nil && status.Phase.Terminal() && !ended {
				ended = true
				h.sendFinal(send, handle)
			}
		case "pause":
			if err := h.service.PauseForExternalUI(handle); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "resume":
			if err := h.service.ResumeFromExternalUI(handle); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "restart":
			status, err := h.service.Restart(handle)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			ended = false
			send <- outboundMessage[any]{Type: "battle", Payload: status}
			h.sendQuestion(send, handle)
		case "abort":
			_ = h.service.Abort(handle)
			close(send)
			<-writerDone
			return
		case "result":
			h.sendFinal(send, handle)
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) sendQuestion(send chan<- outboundMessage[any], handle string) {
	view, err := h.service.CurrentQuestion(handle)
	if err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		return
	}
	send <- outboundMessage[any]{Type: "question", Payload: view}
}

func (h *WSHandler) sendFinal(send chan<- outboundMessage[any], handle string) {
	result, err := h.service.FinalResult(handle)
	if err != nil {
		if errors.Is(err, domain.ErrBattleNotFinished) {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
		return
	}
	send <- outboundMessage[any]{Type: "battleEnded", Payload: result}
}
