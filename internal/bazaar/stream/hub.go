package stream

import (
	"sync"
	"time"

	"bazaartrack/internal/bazaar"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Update is the message pushed to every connected client after a successful
// collection run.
type Update struct {
	Type       string            `json:"type"`
	RecordedAt time.Time         `json:"recorded_at"`
	Count      int               `json:"count"`
	Items      []bazaar.Snapshot `json:"items"`
}

// Hub fans a collection run's accepted batch out to live WebSocket clients.
// Clients that fail a write are dropped; they reconnect on their own.
type Hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Add registers a connection and starts a reader goroutine that discards
// inbound messages and removes the connection when it closes.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("websocket client connected", zap.Int("clients", h.Count()))

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast pushes one update to every client. Failed writes drop the client
// but never fail the broadcast.
func (h *Hub) Broadcast(batch []bazaar.Snapshot) {
	if len(batch) == 0 {
		return
	}

	update := Update{
		Type:       "bazaar_update",
		RecordedAt: batch[0].Timestamp,
		Count:      len(batch),
		Items:      batch,
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(update); err != nil {
			h.logger.Warn("dropping websocket client", zap.Error(err))
			h.remove(conn)
		}
	}
}
