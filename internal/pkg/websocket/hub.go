package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types pushed to clients
const (
	EventNotification  = "notification"
	EventSessionStatus = "session.status"
	EventSubscribed    = "subscribed"
	EventUnsubscribed  = "unsubscribed"
	EventPong          = "pong"
	EventError         = "error"
)

const courseRoomPrefix = "course:"

// Event is the envelope of every server to client message
type Event struct {
	Type      string      `json:"type"`
	Room      string      `json:"room,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientObserver is told when clients come and go
type ClientObserver interface {
	ClientConnected()
	ClientDisconnected()
}

// delivery is a serialized event and its recipients. Exactly one of the
// target fields is set.
type delivery struct {
	userIDs []int64
	room    string
	client  *Client
	data    []byte
}

type subscription struct {
	client *Client
	room   string
	join   bool
}

// Hub maintains the set of active clients and routes events to them
type Hub struct {
	// Connected clients indexed by user ID; a user may have several tabs open
	users map[int64]map[*Client]bool

	// Room members, e.g. "course:12"
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	deliver    chan *delivery
	done       chan struct{}

	// Guards reads of the maps from outside the Run goroutine
	mu sync.RWMutex

	observer ClientObserver
	logger   zerolog.Logger
}

// NewHub creates a new Hub instance. observer may be nil.
func NewHub(observer ClientObserver, logger zerolog.Logger) *Hub {
	return &Hub{
		users:      make(map[int64]map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		deliver:    make(chan *delivery, 256),
		done:       make(chan struct{}),
		observer:   observer,
		logger:     logger,
	}
}

// CourseRoom returns the room name of a course
func CourseRoom(courseID int64) string {
	return fmt.Sprintf("%s%d", courseRoomPrefix, courseID)
}

// ParseCourseRoom extracts the course ID from a room name
func ParseCourseRoom(room string) (int64, bool) {
	raw, ok := strings.CutPrefix(room, courseRoomPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Run handles registrations, subscriptions and deliveries until ctx is done.
// On exit every client connection is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case sub := <-h.subscribe:
			h.applySubscription(sub)

		case d := <-h.deliver:
			h.dispatch(d)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[client.userID]; !ok {
		h.users[client.userID] = make(map[*Client]bool)
	}
	h.users[client.userID][client] = true

	if h.observer != nil {
		h.observer.ClientConnected()
	}

	h.logger.Info().
		Int64("userID", client.userID).
		Str("clientID", client.id).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked drops a client from every index and closes its send channel.
// The caller holds h.mu.
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.users[client.userID]
	if !ok || !clients[client] {
		return
	}

	delete(clients, client)
	if len(clients) == 0 {
		delete(h.users, client.userID)
	}
	for room := range client.rooms {
		h.leaveLocked(client, room)
	}
	close(client.send)

	if h.observer != nil {
		h.observer.ClientDisconnected()
	}

	h.logger.Info().
		Int64("userID", client.userID).
		Str("clientID", client.id).
		Msg("Client unregistered")
}

func (h *Hub) leaveLocked(client *Client, room string) {
	delete(client.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) applySubscription(sub subscription) {
	h.mu.Lock()
	if !h.users[sub.client.userID][sub.client] {
		h.mu.Unlock()
		return
	}

	ack := EventUnsubscribed
	if sub.join {
		if _, ok := h.rooms[sub.room]; !ok {
			h.rooms[sub.room] = make(map[*Client]bool)
		}
		h.rooms[sub.room][sub.client] = true
		sub.client.rooms[sub.room] = true
		ack = EventSubscribed
	} else {
		h.leaveLocked(sub.client, sub.room)
	}
	h.mu.Unlock()

	h.dispatch(&delivery{client: sub.client, data: mustEncode(Event{Type: ack, Room: sub.room, Timestamp: time.Now()})})
}

// dispatch writes d to its recipients. Clients whose buffer is full are
// dropped rather than allowed to stall the hub.
func (h *Hub) dispatch(d *delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var targets []*Client
	switch {
	case d.client != nil:
		if h.users[d.client.userID][d.client] {
			targets = append(targets, d.client)
		}
	case d.room != "":
		for c := range h.rooms[d.room] {
			targets = append(targets, c)
		}
	default:
		for _, id := range d.userIDs {
			for c := range h.users[id] {
				targets = append(targets, c)
			}
		}
	}

	for _, c := range targets {
		select {
		case c.send <- d.data:
		default:
			h.logger.Warn().Int64("userID", c.userID).Str("clientID", c.id).Msg("Dropping slow websocket client")
			h.removeLocked(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.users {
		for c := range clients {
			h.removeLocked(c)
		}
	}
}

func (h *Hub) enqueue(d *delivery) {
	select {
	case h.deliver <- d:
	case <-h.done:
	}
}

// SendToUsers pushes an event to every connection of the given users
func (h *Hub) SendToUsers(userIDs []int64, eventType string, data interface{}) {
	if len(userIDs) == 0 {
		return
	}
	payload, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now()})
	if err != nil {
		h.logger.Error().Err(err).Str("type", eventType).Msg("Failed to marshal event")
		return
	}
	h.enqueue(&delivery{userIDs: userIDs, data: payload})
}

// BroadcastToRoom pushes an event to every client subscribed to room
func (h *Hub) BroadcastToRoom(room, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Room: room, Data: data, Timestamp: time.Now()})
	if err != nil {
		h.logger.Error().Err(err).Str("type", eventType).Str("room", room).Msg("Failed to marshal event")
		return
	}
	h.enqueue(&delivery{room: room, data: payload})
}

// ClientCount returns the number of open connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.users {
		n += len(clients)
	}
	return n
}

// RoomSize returns the number of clients subscribed to room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func mustEncode(e Event) []byte {
	data, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}
	return data
}
