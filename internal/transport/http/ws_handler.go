package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"quiz-session-service/internal/app"
)

// WSHandler runs the guest side of a session over a websocket: one
// connection per player, joined on upgrade, then a request/response message
// loop for answers, chat, and the player read views.
type WSHandler struct {
	players  *app.PlayerService
	upgrader websocket.Upgrader
}

func NewWSHandler(players *app.PlayerService) *WSHandler {
	return &WSHandler{
		players: players,
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
	QuestionPosition int   `json:"questionPosition"`
	AnswerIDs        []int `json:"answerIds"`
}

type positionPayload struct {
	QuestionPosition int `json:"questionPosition"`
}

type chatPayload struct {
	Message string `json:"message"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the connection, joins the player into the session named
// by the sessionId query parameter, and serves their message loop. An empty
// name gets a generated guest handle.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID, err := strconv.ParseInt(r.URL.Query().Get("sessionId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid sessionId", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	playerID, err := h.players.Join(ctx, sessionID, name)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := func(typ string, payload any) bool {
		if err := conn.WriteJSON(outboundMessage[any]{Type: typ, Payload: payload}); err != nil {
			log.Printf("ws write error: %v", err)
			return false
		}
		return true
	}
	sendErr := func(err error) bool {
		return send("error", errorPayload{Message: err.Error()})
	}

	if !send("joined", map[string]int64{"playerId": playerID}) {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !sendErr(errInvalidPayload) {
					return
				}
				continue
			}
			if err := h.players.SubmitAnswer(ctx, playerID, payload.QuestionPosition, payload.AnswerIDs); err != nil {
				if !sendErr(err) {
					return
				}
				continue
			}
			if !send("answerAccepted", positionPayload{QuestionPosition: payload.QuestionPosition}) {
				return
			}

		case "status":
			status, err := h.players.Status(ctx, playerID)
			if !h.reply(send, sendErr, "status", status, err) {
				return
			}

		case "question":
			var payload positionPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !sendErr(errInvalidPayload) {
					return
				}
				continue
			}
			info, err := h.players.QuestionInfo(ctx, playerID, payload.QuestionPosition)
			if !h.reply(send, sendErr, "question", info, err) {
				return
			}

		case "questionResults":
			var payload positionPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !sendErr(errInvalidPayload) {
					return
				}
				continue
			}
			results, err := h.players.QuestionResults(ctx, playerID, payload.QuestionPosition)
			if !h.reply(send, sendErr, "questionResults", results, err) {
				return
			}

		case "finalResults":
			results, err := h.players.FinalResults(ctx, playerID)
			if !h.reply(send, sendErr, "finalResults", results, err) {
				return
			}

		case "chat":
			var payload chatPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !sendErr(errInvalidPayload) {
					return
				}
				continue
			}
			if err := h.players.SendChat(ctx, playerID, payload.Message); err != nil {
				if !sendErr(err) {
					return
				}
				continue
			}
			if !send("chatSent", struct{}{}) {
				return
			}

		case "chatHistory":
			messages, err := h.players.Chat(ctx, playerID)
			if !h.reply(send, sendErr, "chatHistory", map[string]any{"messages": messages}, err) {
				return
			}

		default:
			if !sendErr(errUnsupportedType) {
				return
			}
		}
	}
}

func (h *WSHandler) reply(send func(string, any) bool, sendErr func(error) bool, typ string, payload any, err error) bool {
	if err != nil {
		return sendErr(err)
	}
	return send(typ, payload)
}

var (
	errInvalidPayload  = errors.New("invalid payload")
	errUnsupportedType = errors.New("unsupported message type")
)
