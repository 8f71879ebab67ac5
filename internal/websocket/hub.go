package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/ingest-service/internal/types"
)

// Hub maintains the set of active clients and routes events to them. A user
// may have several connections open at once.
type Hub struct {
	// Registered clients grouped by user ID
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	// done is closed when Run returns
	done chan struct{}

	mu     sync.RWMutex
	logger *slog.Logger
}

// BroadcastMessage represents a message to be broadcast to specific users
type BroadcastMessage struct {
	UserIDs []string     `json:"user_ids"`
	Event   *types.Event `json:"event"`
}

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket")),
	}
}

// Run processes registrations and broadcasts until ctx is canceled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID] = conns
			}
			conns[client] = struct{}{}
			n := len(conns)
			h.mu.Unlock()
			h.logger.Info("WebSocket client connected", slog.String("user_id", client.userID), slog.Int("connections", n))

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			h.broadcastToUsers(message.UserIDs, message.Event)

		case <-ctx.Done():
			h.mu.Lock()
			for userID, conns := range h.clients {
				for c := range conns {
					close(c.send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	h.logger.Info("WebSocket client disconnected", slog.String("user_id", client.userID))
}

// RegisterClient registers a new client. It returns false if the hub has
// stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToUsers sends an event to specific users. It never blocks; when
// the queue is full the event is dropped.
func (h *Hub) BroadcastToUsers(userIDs []string, event *types.Event) {
	message := &BroadcastMessage{
		UserIDs: userIDs,
		Event:   event,
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Broadcast channel is full, dropping message", slog.String("event", string(event.Type)))
	}
}

// BroadcastToUser sends an event to a specific user
func (h *Hub) BroadcastToUser(userID string, event *types.Event) {
	h.BroadcastToUsers([]string{userID}, event)
}

func (h *Hub) broadcastToUsers(userIDs []string, event *types.Event) {
	var slow []*Client

	h.mu.RLock()
	for _, userID := range userIDs {
		for client := range h.clients[userID] {
			if err := client.SendEvent(event); err != nil {
				h.logger.Warn("Failed to send event to client",
					slog.String("user_id", userID),
					slog.String("error", err.Error()))
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.remove(c)
	}
}

// GetConnectedUsers returns a list of currently connected user IDs
func (h *Hub) GetConnectedUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[userID]) > 0
}

// GetClientCount returns the number of open connections
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}
