package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/rollcall/internal/app/models"
)

type countingObserver struct {
	connected, disconnected chan struct{}
}

func newCountingObserver() *countingObserver {
	return &countingObserver{connected: make(chan struct{}, 10), disconnected: make(chan struct{}, 10)}
}

func (o *countingObserver) ClientConnected()    { o.connected <- struct{}{} }
func (o *countingObserver) ClientDisconnected() { o.disconnected <- struct{}{} }

type stubAuthorizer struct {
	allowed map[int64]bool
}

func (a stubAuthorizer) AuthorizeCourseRoom(_ context.Context, _ int64, _ models.RoleType, courseID int64) error {
	if a.allowed[courseID] {
		return nil
	}
	return errors.New("denied")
}

func startHub(t *testing.T, observer ClientObserver) *Hub {
	t.Helper()
	hub := NewHub(observer, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub
}

func readEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var e Event
		require.NoError(t, json.Unmarshal(data, &e))
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestParseCourseRoom(t *testing.T) {
	tests := []struct {
		room   string
		wantID int64
		wantOK bool
	}{
		{room: "course:12", wantID: 12, wantOK: true},
		{room: CourseRoom(7), wantID: 7, wantOK: true},
		{room: "course:", wantOK: false},
		{room: "course:-1", wantOK: false},
		{room: "course:abc", wantOK: false},
		{room: "user:3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.room, func(t *testing.T) {
			id, ok := ParseCourseRoom(tt.room)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestHubSendToUsers(t *testing.T) {
	observer := newCountingObserver()
	hub := startHub(t, observer)

	alice := newClient(hub, nil, 1, models.RoleStudent, nil, zerolog.Nop())
	aliceTab := newClient(hub, nil, 1, models.RoleStudent, nil, zerolog.Nop())
	bob := newClient(hub, nil, 2, models.RoleStudent, nil, zerolog.Nop())
	hub.register <- alice
	hub.register <- aliceTab
	hub.register <- bob

	hub.SendToUsers([]int64{1}, EventNotification, map[string]string{"title": "Week 3 class is open"})

	for _, c := range []*Client{alice, aliceTab} {
		e := readEvent(t, c)
		assert.Equal(t, EventNotification, e.Type)
		assert.Equal(t, map[string]interface{}{"title": "Week 3 class is open"}, e.Data)
	}
	assert.Len(t, bob.send, 0)
	assert.Equal(t, 3, hub.ClientCount())
	assert.Len(t, observer.connected, 3)

	hub.unregister <- bob
	select {
	case <-observer.disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("client was not unregistered")
	}
	_, open := <-bob.send
	assert.False(t, open)
}

func TestHubRooms(t *testing.T) {
	hub := startHub(t, nil)

	member := newClient(hub, nil, 1, models.RoleStudent, nil, zerolog.Nop())
	outsider := newClient(hub, nil, 2, models.RoleStudent, nil, zerolog.Nop())
	hub.register <- member
	hub.register <- outsider

	room := CourseRoom(5)
	hub.subscribe <- subscription{client: member, room: room, join: true}
	ack := readEvent(t, member)
	assert.Equal(t, EventSubscribed, ack.Type)
	assert.Equal(t, room, ack.Room)
	assert.Equal(t, 1, hub.RoomSize(room))

	hub.BroadcastToRoom(room, EventSessionStatus, map[string]bool{"isOpen": true})
	e := readEvent(t, member)
	assert.Equal(t, EventSessionStatus, e.Type)
	assert.Len(t, outsider.send, 0)

	hub.subscribe <- subscription{client: member, room: room, join: false}
	assert.Equal(t, EventUnsubscribed, readEvent(t, member).Type)
	assert.Equal(t, 0, hub.RoomSize(room))
}

func TestMessageHandlerSubscribe(t *testing.T) {
	hub := startHub(t, nil)
	handler := NewMessageHandler(hub, stubAuthorizer{allowed: map[int64]bool{5: true}}, zerolog.Nop())

	client := newClient(hub, nil, 1, models.RoleStudent, handler, zerolog.Nop())
	hub.register <- client

	tests := []struct {
		name     string
		msg      ClientMessage
		wantType string
	}{
		{name: "ping", msg: ClientMessage{Action: ActionPing}, wantType: EventPong},
		{name: "allowed course", msg: ClientMessage{Action: ActionSubscribe, Room: "course:5"}, wantType: EventSubscribed},
		{name: "foreign course", msg: ClientMessage{Action: ActionSubscribe, Room: "course:6"}, wantType: EventError},
		{name: "bad room", msg: ClientMessage{Action: ActionSubscribe, Room: "lobby"}, wantType: EventError},
		{name: "unknown action", msg: ClientMessage{Action: "shout"}, wantType: EventError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler.Handle(client, tt.msg)
			assert.Equal(t, tt.wantType, readEvent(t, client).Type)
		})
	}
}

func TestHandlerEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := startHub(t, nil)
	handler := NewHandler(hub, stubAuthorizer{allowed: map[int64]bool{9: true}}, []string{"*"}, zerolog.Nop())

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		c.Set("userID", int64(42))
		c.Set("roleType", models.RoleStudent)
		c.Next()
	}, handler.HandleConnection)

	server := httptest.NewServer(router)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: ActionSubscribe, Room: "course:9"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var ack Event
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, EventSubscribed, ack.Type)

	hub.SendToUsers([]int64{42}, EventNotification, "hello")
	var pushed Event
	require.NoError(t, conn.ReadJSON(&pushed))
	assert.Equal(t, EventNotification, pushed.Type)
	assert.Equal(t, "hello", pushed.Data)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://rollcall.example.edu"})

	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: true},
		{origin: "https://rollcall.example.edu", want: true},
		{origin: "https://evil.example.com", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, check(r))
		})
	}
}
