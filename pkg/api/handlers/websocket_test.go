package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/pkg/api/events"
)

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func waitForClients(t *testing.T, h *WebSocketHandler, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Count() == n }, 2*time.Second, 10*time.Millisecond)
}

type gaugeRecorder struct {
	mu   sync.Mutex
	last int
}

func (g *gaugeRecorder) SetWebSocketClients(n int) {
	g.mu.Lock()
	g.last = n
	g.mu.Unlock()
}

func (g *gaugeRecorder) value() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}

func TestWebSocketHandler_RejectsNonUpgrade(t *testing.T) {
	handler := NewWebSocketHandler(nil, WebSocketConfig{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws/events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebSocketHandler_DeliversSubscribedTag(t *testing.T) {
	gauge := &gaugeRecorder{}
	handler := NewWebSocketHandler(nil, WebSocketConfig{MaxConnections: 5}, gauge)
	server := httptest.NewServer(handler)
	defer server.Close()
	defer handler.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server.URL)+"?tag=alice", nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, handler, 1)
	assert.Equal(t, 1, gauge.value())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := make(chan events.Event, 2)
	go handler.Forward(ctx, sub)

	sub <- events.Event{Type: events.TypeMemoryCreated, ContainerTag: "bob", Payload: events.MemoryPayload{ID: "b-1"}}
	sub <- events.Event{Type: events.TypeMemoryCreated, ContainerTag: "alice", Payload: events.MemoryPayload{ID: "a-1"}}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got struct {
		Type         string         `json:"type"`
		ContainerTag string         `json:"containerTag"`
		Payload      map[string]any `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, events.TypeMemoryCreated, got.Type)
	assert.Equal(t, "alice", got.ContainerTag)
	assert.Equal(t, "a-1", got.Payload["id"])
}

func TestWebSocketHandler_SubscribeMessage(t *testing.T) {
	handler := NewWebSocketHandler(nil, WebSocketConfig{}, nil)
	server := httptest.NewServer(handler)
	defer server.Close()
	defer handler.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server.URL), nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, handler, 1)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe", "containerTag": "carol"}))

	// The subscribe message is handled asynchronously; keep sending until it lands.
	deadline := time.Now().Add(2 * time.Second)
	received := make(chan string, 1)
	go func() {
		var ev events.Event
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&ev); err == nil {
			received <- ev.Type
		}
	}()

	for time.Now().Before(deadline) {
		_ = handler.manager.Broadcast(events.Event{Type: events.TypeQuizAnswered, ContainerTag: "carol"})
		select {
		case typ := <-received:
			assert.Equal(t, events.TypeQuizAnswered, typ)
			return
		case <-time.After(20 * time.Millisecond):
		}
	}
	t.Fatal("subscribed client never received an event")
}

func TestWebSocketHandler_ConnectionLimit(t *testing.T) {
	handler := NewWebSocketHandler(nil, WebSocketConfig{MaxConnections: 1}, nil)
	server := httptest.NewServer(handler)
	defer server.Close()
	defer handler.Close()

	first, _, err := websocket.DefaultDialer.Dial(wsURL(server.URL), nil)
	require.NoError(t, err)
	defer first.Close()
	waitForClients(t, handler, 1)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server.URL), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWebSocketHandler_OriginCheck(t *testing.T) {
	handler := NewWebSocketHandler(nil, WebSocketConfig{
		AllowedOrigins: []string{"http://allowed.example"},
	}, nil)
	server := httptest.NewServer(handler)
	defer server.Close()
	defer handler.Close()

	headers := http.Header{}
	headers.Set("Origin", "http://blocked.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server.URL), headers)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	headers.Set("Origin", "http://allowed.example")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server.URL), headers)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestConnectionManager_TagScoping(t *testing.T) {
	manager := NewConnectionManager(3)
	alice := newWSClient(nil, "alice")
	bob := newWSClient(nil, "bob")
	nobody := newWSClient(nil)

	require.NoError(t, manager.Register(alice))
	require.NoError(t, manager.Register(bob))
	require.NoError(t, manager.Register(nobody))
	assert.Equal(t, 3, manager.Count())
	assert.False(t, manager.CanAccept())
	assert.ErrorIs(t, manager.Register(newWSClient(nil)), errConnectionLimit)

	require.NoError(t, manager.Broadcast(events.Event{Type: events.TypeMemoryDeleted, ContainerTag: "alice"}))
	assert.Len(t, alice.send, 1)
	assert.Len(t, bob.send, 0)
	assert.Len(t, nobody.send, 0)

	require.NoError(t, manager.Broadcast(events.Event{Type: events.TypeMemoryDeleted}))
	assert.Len(t, alice.send, 1, "untagged events go nowhere")

	manager.Unregister(alice)
	manager.Unregister(alice)
	assert.Equal(t, 2, manager.Count())
}

func TestConnectionManager_DropsSlowClients(t *testing.T) {
	manager := NewConnectionManager(1)
	slow := newWSClient(nil, "alice")
	require.NoError(t, manager.Register(slow))

	for i := 0; i < defaultSendBuffer+1; i++ {
		require.NoError(t, manager.Broadcast(events.Event{Type: events.TypeMemoryUpdated, ContainerTag: "alice"}))
	}
	assert.Equal(t, 0, manager.Count())
}

func TestWSClient_TagLimit(t *testing.T) {
	c := newWSClient(nil)
	for i := 0; i < maxTagsPerClient+5; i++ {
		c.subscribe(strings.Repeat("t", i+1))
	}
	assert.Len(t, c.tags, maxTagsPerClient)

	c.subscribe("  ")
	assert.Len(t, c.tags, maxTagsPerClient)

	c.unsubscribe("t")
	assert.False(t, c.wants("t"))
}
