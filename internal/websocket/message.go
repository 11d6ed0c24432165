package websocket

import "time"

// Message types sent to live story watchers
const (
	MessageTypeSystem = "system"
	MessageTypeError  = "error"
)

// Message is the envelope of every frame the server writes
type Message struct {
	Type      string      `json:"type"`
	Room      string      `json:"room,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SystemPayload carries connection lifecycle events
type SystemPayload struct {
	Event   string `json:"event"`
	Message string `json:"message,omitempty"`
}

// NewMessage stamps a message with the current time
func NewMessage(msgType, room string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Room:      room,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
