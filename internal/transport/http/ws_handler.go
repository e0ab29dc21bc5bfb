package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trivia-battle-service/internal/app"
	"trivia-battle-service/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Inbound message types.
const (
	msgJoinQueue    = "join_queue"
	msgLeaveQueue   = "leave_queue"
	msgSubmitAnswer = "submit_answer"
)

type WSHandler struct {
	service  *app.BattleService
	auth     *Authenticator
	upgrader websocket.Upgrader
	logger   *slog.Logger

	pongWait   time.Duration
	pingPeriod time.Duration
}

// NewWSHandler wires the battle service to websockets. With a nil authenticator the player
// identity is taken from the userId and name query parameters.
func NewWSHandler(service *app.BattleService, auth *Authenticator, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		auth:    auth,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pongWait:   pongWait,
		pingPeriod: pingPeriod,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinQueuePayload struct {
	Category string `json:"category"`
}

type submitAnswerPayload struct {
	BattleID    string `json:"battleId"`
	AnswerIndex *int   `json:"answerIndex"`
}

// client is the app.Notifier for one connection. Notify never blocks: a full buffer drops the event.
type client struct {
	player domain.Player
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	send   chan domain.Event
}

func newClient(player domain.Player, logger *slog.Logger) *client {
	return &client{player: player, logger: logger, send: make(chan domain.Event, sendBuffer)}
}

func (c *client) Notify(ev domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- ev:
	default:
		c.logger.Warn("dropping event for slow client", "player_id", c.player.ID, "type", ev.Type)
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ServeWS upgrades HTTP requests to websockets and wires them into the battle use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	player, err := h.identify(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrUnauthorized) {
			status = http.StatusUnauthorized
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := newClient(player, h.logger)
	writerDone := make(chan struct{})
	go h.writeLoop(conn, c, writerDone)

	h.logger.Debug("player connected", "player_id", player.ID)
	h.readLoop(r, conn, c)

	h.service.Disconnect(player.ID, c)
	c.close()
	<-writerDone
	h.logger.Debug("player disconnected", "player_id", player.ID)
}

func (h *WSHandler) identify(r *http.Request) (domain.Player, error) {
	if h.auth != nil {
		return h.auth.FromRequest(r)
	}
	userID := r.URL.Query().Get("userId")
	name := r.URL.Query().Get("name")
	if userID == "" || name == "" {
		return domain.Player{}, errors.New("missing userId or name")
	}
	return domain.Player{ID: userID, Name: name}, nil
}

func (h *WSHandler) readLoop(r *http.Request, conn *websocket.Conn, c *client) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		h.service.Heartbeat(c.player.ID)
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("ws read error", "player_id", c.player.ID, "error", err)
			}
			return
		}
		h.dispatch(r, c, inbound)
	}
}

func (h *WSHandler) dispatch(r *http.Request, c *client, inbound inboundMessage) {
	switch inbound.Type {
	case msgJoinQueue:
		var payload joinQueuePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Category == "" {
			c.Notify(domain.NewError(errors.New("category is required")))
			return
		}
		if _, err := h.service.JoinQueue(r.Context(), c.player, payload.Category, c); err != nil {
			c.Notify(domain.NewError(err))
		}
	case msgLeaveQueue:
		h.service.LeaveQueue(c.player.ID, c)
	case msgSubmitAnswer:
		var payload submitAnswerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.BattleID == "" {
			c.Notify(domain.NewError(errors.New("invalid answer payload")))
			return
		}
		answer := domain.NoAnswer
		if payload.AnswerIndex != nil {
			answer = *payload.AnswerIndex
		}
		if err := h.service.SubmitAnswer(r.Context(), c.player.ID, payload.BattleID, answer); err != nil {
			c.Notify(domain.NewError(err))
		}
	default:
		c.Notify(domain.NewError(errors.New("unsupported message type")))
	}
}

// writeLoop is the only writer on conn.
func (h *WSHandler) writeLoop(conn *websocket.Conn, c *client, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(h.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("ws write error", "player_id", c.player.ID, "error", err)
				// unblock the reader; it will run the disconnect path
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
