package websocket

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/rollcall/internal/app/models"
)

// Client actions
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionPing        = "ping"
)

const authorizeTimeout = 5 * time.Second

// ClientMessage is a control message sent by a client
type ClientMessage struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

// RoomAuthorizer decides whether a user may follow the events of a course
type RoomAuthorizer interface {
	AuthorizeCourseRoom(ctx context.Context, userID int64, role models.RoleType, courseID int64) error
}

// MessageHandler processes control messages coming from clients
type MessageHandler struct {
	hub        *Hub
	authorizer RoomAuthorizer
	logger     zerolog.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(hub *Hub, authorizer RoomAuthorizer, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		hub:        hub,
		authorizer: authorizer,
		logger:     logger,
	}
}

// Handle applies one client message
func (h *MessageHandler) Handle(c *Client, msg ClientMessage) {
	switch msg.Action {
	case ActionPing:
		h.reply(c, Event{Type: EventPong})

	case ActionSubscribe:
		courseID, ok := ParseCourseRoom(msg.Room)
		if !ok {
			h.reply(c, Event{Type: EventError, Room: msg.Room, Data: "unknown room"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), authorizeTimeout)
		defer cancel()
		if err := h.authorizer.AuthorizeCourseRoom(ctx, c.userID, c.role, courseID); err != nil {
			h.logger.Debug().Err(err).Int64("userID", c.userID).Str("room", msg.Room).Msg("Room subscription denied")
			h.reply(c, Event{Type: EventError, Room: msg.Room, Data: "not allowed to join this room"})
			return
		}
		h.subscribe(c, msg.Room, true)

	case ActionUnsubscribe:
		h.subscribe(c, msg.Room, false)

	default:
		h.reply(c, Event{Type: EventError, Data: "unknown action"})
	}
}

func (h *MessageHandler) subscribe(c *Client, room string, join bool) {
	select {
	case h.hub.subscribe <- subscription{client: c, room: room, join: join}:
	case <-h.hub.done:
	}
}

func (h *MessageHandler) reply(c *Client, e Event) {
	e.Timestamp = time.Now()
	h.hub.enqueue(&delivery{client: c, data: mustEncode(e)})
}
