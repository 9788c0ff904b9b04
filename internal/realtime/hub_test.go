package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserRoom(t *testing.T) {
	assert.Equal(t, "user:42", UserRoom(42))
}

func TestNewHub_Defaults(t *testing.T) {
	hub := NewHub(zap.NewNop(), 0, 0)

	assert.Equal(t, defaultClientBuffer, hub.clientBuffer)
	assert.Equal(t, defaultHeartbeatInterval, hub.heartbeatInterval)
	assert.Equal(t, defaultClientBuffer, cap(hub.NewClient(1).Outbound))
}

func TestHub_JoinLeave(t *testing.T) {
	hub := NewHub(zap.NewNop(), 4, time.Second)
	first := hub.NewClient(1)
	second := hub.NewClient(2)

	hub.Join(first, UserRoom(1))
	hub.Join(second, UserRoom(2))
	hub.Join(second, AdminRoom)
	hub.Join(second, "  ")

	assert.Equal(t, 1, hub.RoomSize(UserRoom(1)))
	assert.Equal(t, 1, hub.RoomSize(AdminRoom))

	hub.Leave(second, AdminRoom)
	assert.Equal(t, 0, hub.RoomSize(AdminRoom))
	assert.Equal(t, 1, hub.RoomSize(UserRoom(2)))
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub(zap.NewNop(), 1, time.Second)
	owner := hub.NewClient(1)
	stranger := hub.NewClient(2)
	hub.Join(owner, UserRoom(1))
	hub.Join(stranger, UserRoom(2))

	msg := Message{Room: UserRoom(1), Event: EventProgressUpdated, Data: map[string]int{"lessonId": 10}}

	assert.Equal(t, 1, hub.Broadcast(msg))
	assert.Equal(t, msg, <-owner.Outbound)
	assert.Empty(t, stranger.Outbound)

	// a full buffer drops the message instead of blocking
	assert.Equal(t, 1, hub.Broadcast(msg))
	assert.Equal(t, 0, hub.Broadcast(msg))

	assert.Equal(t, 0, hub.Broadcast(Message{Room: "user:999", Event: EventProgressUpdated}))
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub(zap.NewNop(), 1, time.Second)
	client := hub.NewClient(1)
	hub.Join(client, AdminRoom)

	err := hub.Publish(context.Background(), Message{Room: AdminRoom, Event: EventCourseProgressUpdated})

	require.NoError(t, err)
	assert.Len(t, client.Outbound, 1)
}

func TestHub_CloseClient(t *testing.T) {
	hub := NewHub(zap.NewNop(), 1, time.Second)
	client := hub.NewClient(1)
	hub.Join(client, UserRoom(1))
	hub.Join(client, AdminRoom)

	hub.CloseClient(client)
	hub.CloseClient(client)

	assert.Equal(t, 0, hub.RoomSize(UserRoom(1)))
	assert.Equal(t, 0, hub.RoomSize(AdminRoom))
	_, open := <-client.Outbound
	assert.False(t, open)
	assert.Equal(t, 0, hub.Broadcast(Message{Room: UserRoom(1)}))
}

func TestHub_ServeSSE(t *testing.T) {
	hub := NewHub(zap.NewNop(), 4, time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := hub.NewClient(7)
		hub.Join(client, UserRoom(7))
		defer hub.CloseClient(client)
		hub.ServeSSE(w, r, client)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	connected := readEvent(t, reader)
	assert.True(t, strings.HasPrefix(connected, "event: connected\ndata: {\"clientId\":"))

	require.Eventually(t, func() bool { return hub.RoomSize(UserRoom(7)) == 1 }, time.Second, 10*time.Millisecond)
	hub.Broadcast(Message{
		Room:  UserRoom(7),
		Event: EventProgressUpdated,
		Data:  map[string]int{"lessonId": 10},
	})

	assert.Equal(t, "event: progress:updated\ndata: {\"lessonId\":10}\n", readEvent(t, reader))

	cancel()
	require.Eventually(t, func() bool { return hub.RoomSize(UserRoom(7)) == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_ServeSSE_Heartbeat(t *testing.T) {
	hub := NewHub(zap.NewNop(), 4, 20*time.Millisecond)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := hub.NewClient(7)
		defer hub.CloseClient(client)
		hub.ServeSSE(w, r, client)
	}))
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readEvent(t, reader)
	assert.Equal(t, ": ping\n", readEvent(t, reader))
}

// readEvent reads one SSE frame up to the blank line that terminates it
func readEvent(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	var sb strings.Builder
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line == "\n" {
			return sb.String()
		}
		sb.WriteString(line)
	}
}
