// Package realtime delivers progress events to connected clients over server-sent events
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// AdminRoom is the room of the admin audience
	AdminRoom = "admin"

	// EventProgressUpdated is sent to a learner's room after each successful sync
	EventProgressUpdated = "progress:updated"

	// EventCourseProgressUpdated is sent to the admin room when a course aggregate was recomputed
	EventCourseProgressUpdated = "progress:course-updated"

	defaultClientBuffer      = 16
	defaultHeartbeatInterval = 15 * time.Second
)

// UserRoom returns the personal room of a user
func UserRoom(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}

// Message is an event addressed to every client of a room
type Message struct {
	Room  string `json:"room"`
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client is a single SSE connection
type Client struct {
	ID       uuid.UUID
	UserID   int
	Outbound chan Message
	rooms    map[string]bool
	done     chan struct{}
	once     sync.Once
}

// Hub keeps track of room subscriptions of the clients connected to this process
type Hub struct {
	mu                sync.RWMutex
	logger            *zap.Logger
	rooms             map[string]map[*Client]bool
	clientBuffer      int
	heartbeatInterval time.Duration
}

// NewHub creates a new hub
//
// Non-positive "clientBuffer" and "heartbeatInterval" fall back to defaults.
func NewHub(logger *zap.Logger, clientBuffer int, heartbeatInterval time.Duration) *Hub {
	if clientBuffer <= 0 {
		clientBuffer = defaultClientBuffer
	}
	if heartbeatInterval <= 0 {
		heartbeatInterval = defaultHeartbeatInterval
	}
	return &Hub{
		logger:            logger.With(zap.String("component", "realtime_hub")),
		rooms:             make(map[string]map[*Client]bool),
		clientBuffer:      clientBuffer,
		heartbeatInterval: heartbeatInterval,
	}
}

// NewClient creates a client for a user without subscribing it anywhere
func (h *Hub) NewClient(userID int) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Outbound: make(chan Message, h.clientBuffer),
		rooms:    make(map[string]bool),
		done:     make(chan struct{}),
	}
}

// Join subscribes a client to a room
func (h *Hub) Join(client *Client, room string) {
	room = strings.TrimSpace(room)
	if room == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	client.rooms[room] = true
	clients, ok := h.rooms[room]
	if !ok {
		clients = make(map[*Client]bool)
		h.rooms[room] = clients
	}
	clients[client] = true

	h.logger.Debug("client joined room", zap.String("client_id", client.ID.String()), zap.String("room", room))
}

// Leave unsubscribes a client from a room
func (h *Hub) Leave(client *Client, room string) {
	room = strings.TrimSpace(room)
	if room == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delete(client.rooms, room)
	h.removeFromRoom(client, room)
}

// RoomSize returns the number of clients subscribed to a room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast delivers a message to every client of its room and returns the number of clients reached.
// Clients whose buffer is full miss the message.
func (h *Hub) Broadcast(msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.rooms[msg.Room] {
		select {
		case client.Outbound <- msg:
			delivered++
		default:
			h.logger.Warn("dropping realtime message, client buffer full",
				zap.String("client_id", client.ID.String()),
				zap.String("room", msg.Room),
				zap.String("event", msg.Event),
			)
		}
	}
	return delivered
}

// Publish delivers a message to the clients of this process
func (h *Hub) Publish(_ context.Context, msg Message) error {
	h.Broadcast(msg)
	return nil
}

// CloseClient unsubscribes a client from all rooms and closes its outbound channel
func (h *Hub) CloseClient(client *Client) {
	client.once.Do(func() {
		close(client.done)

		h.mu.Lock()
		for room := range client.rooms {
			h.removeFromRoom(client, room)
		}
		client.rooms = make(map[string]bool)
		h.mu.Unlock()

		close(client.Outbound)
	})
}

// ServeSSE streams the client's messages until the request context ends or the client is closed
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request, client *Client) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: {\"clientId\":%q}\n\n", client.ID.String())
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-client.Outbound:
			if !ok {
				return
			}
			payload, err := json.Marshal(msg.Data)
			if err != nil {
				h.logger.Warn("failed to marshal realtime message", zap.String("event", msg.Event), zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, payload)
			flusher.Flush()
		}
	}
}

// removeFromRoom must be called with h.mu held
func (h *Hub) removeFromRoom(client *Client, room string) {
	clients, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.rooms, room)
	}
}
