// Package websocket pushes live engagement updates to story watchers.
// Connections are handled with github.com/coder/websocket.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/metrics"
	"go.uber.org/zap"
)

// Hub keeps one room per story and fans published messages out to the
// clients in that room.
type Hub struct {
	rooms map[string]map[*Client]struct{}
	mu    sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message

	stats *Stats

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Stats tracks connection counters
type Stats struct {
	TotalConnections   atomic.Int64
	ActiveConnections  atomic.Int64
	MessagesSent       atomic.Int64
	ConnectionsDropped atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	TotalConnections   int64 `json:"total_connections"`
	ActiveConnections  int64 `json:"active_connections"`
	MessagesSent       int64 `json:"messages_sent"`
	ConnectionsDropped int64 `json:"connections_dropped"`
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("connections=%d/%d sent=%d dropped=%d",
		s.ActiveConnections, s.TotalConnections, s.MessagesSent, s.ConnectionsDropped)
}

// NewHub creates a hub. Call Run in its own goroutine.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *Message, 256),
		stats:      &Stats{},
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop
func (h *Hub) Run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case m := <-h.broadcast:
			h.fanOut(m)
		}
	}
}

// Publish queues payload for everyone watching room. It never blocks the
// caller for long: when the hub is stopped the message is discarded.
func (h *Hub) Publish(room, msgType string, payload interface{}) {
	select {
	case h.broadcast <- NewMessage(msgType, room, payload):
	case <-h.ctx.Done():
	}
}

// Register adds a client to its room
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from its room
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// RoomSize returns the number of clients watching room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Stats returns current counters
func (h *Hub) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalConnections:   h.stats.TotalConnections.Load(),
		ActiveConnections:  h.stats.ActiveConnections.Load(),
		MessagesSent:       h.stats.MessagesSent.Load(),
		ConnectionsDropped: h.stats.ConnectionsDropped.Load(),
	}
}

// Shutdown stops the event loop and closes every client
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[c.Room] == nil {
		h.rooms[c.Room] = make(map[*Client]struct{})
	}
	h.rooms[c.Room][c] = struct{}{}

	h.stats.TotalConnections.Add(1)
	h.stats.ActiveConnections.Add(1)
	metrics.Get().WebsocketConnections.Inc()
	logger.L().Debug("Live client joined", logger.WithStoryID(c.Room), zap.Int64("active", h.stats.ActiveConnections.Load()))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[c.Room]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, c.Room)
	}
	close(c.send)

	h.stats.ActiveConnections.Add(-1)
	metrics.Get().WebsocketConnections.Dec()
}

// fanOut writes to each client's buffer. Clients whose buffer is full are
// dropped rather than slowing the room down.
func (h *Hub) fanOut(m *Message) {
	data, err := json.Marshal(m)
	if err != nil {
		logger.L().Error("Failed to marshal live message", zap.String("type", m.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	var slow []*Client
	for c := range h.rooms[m.Room] {
		select {
		case c.send <- data:
			h.stats.MessagesSent.Add(1)
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.stats.ConnectionsDropped.Add(1)
		logger.L().Info("Dropping slow live client", logger.WithStoryID(m.Room))
		h.remove(c)
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, _ := json.Marshal(NewMessage(MessageTypeSystem, "", SystemPayload{Event: "server_shutdown"}))
	closed := 0
	for _, clients := range h.rooms {
		for c := range clients {
			select {
			case c.send <- data:
			default:
			}
			close(c.send)
			closed++
			metrics.Get().WebsocketConnections.Dec()
		}
	}
	h.rooms = make(map[string]map[*Client]struct{})
	h.stats.ActiveConnections.Store(0)
	logger.L().Info("Live hub stopped", zap.Int("closed", closed))
}
