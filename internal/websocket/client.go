package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/logger"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Ping period; a peer that misses a pong is disconnected
	pingPeriod = 50 * time.Second

	// Watchers only receive, so inbound frames stay small
	maxMessageSize = 4 * 1024

	sendBufferSize = 32
)

// Client is one watcher of a story room. Watchers never send application
// messages; inbound frames are discarded.
type Client struct {
	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	Room        string
	RemoteAddr  string
	ConnectedAt time.Time
}

// NewClient creates a client for room
func NewClient(hub *Hub, conn *websocket.Conn, room string) *Client {
	return &Client{
		conn:        conn,
		hub:         hub,
		send:        make(chan []byte, sendBufferSize),
		Room:        room,
		ConnectedAt: time.Now(),
	}
}

// AcceptOptions configures the upgrade of a live connection
type AcceptOptions struct {
	// OriginPatterns lists allowed cross-origin hosts; empty allows same origin only
	OriginPatterns []string
	RemoteAddr     string
	// Snapshot, when set, is sent right after joining so the watcher starts
	// from current counts
	Snapshot func(ctx context.Context) (msgType string, payload interface{}, err error)
}

// ServeRoom upgrades the request, joins room and blocks until the
// connection ends.
func (h *Hub) ServeRoom(w http.ResponseWriter, r *http.Request, room string, opts AcceptOptions) error {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  opts.OriginPatterns,
		CompressionMode: websocket.CompressionContextTakeover,
	})
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	c := NewClient(h, conn, room)
	c.RemoteAddr = opts.RemoteAddr

	// register before the snapshot so no update between the two is lost
	h.Register(c)
	defer h.Unregister(c)

	ctx := conn.CloseRead(r.Context())

	if err := c.writeJSON(ctx, NewMessage(MessageTypeSystem, room, SystemPayload{Event: "connected"})); err != nil {
		return nil
	}
	if opts.Snapshot != nil {
		msgType, payload, err := opts.Snapshot(ctx)
		if err != nil {
			logger.L().Warn("Live snapshot failed", logger.WithStoryID(room), zap.Error(err))
		} else if err := c.writeJSON(ctx, NewMessage(msgType, room, payload)); err != nil {
			return nil
		}
	}

	c.writePump(ctx)
	return nil
}

// writePump drains the send buffer until the hub closes it or the peer
// goes away.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.conn.Close(websocket.StatusNormalClosure, "")
			return

		case data, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusGoingAway, "closing")
				return
			}
			if err := c.write(ctx, data); err != nil {
				logger.L().Debug("Live write failed", logger.WithStoryID(c.Room), zap.Error(err))
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.L().Debug("Live ping failed", logger.WithStoryID(c.Room), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) writeJSON(ctx context.Context, m *Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.write(ctx, data)
}

func (c *Client) write(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}
