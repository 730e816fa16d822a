package ws

import "encoding/json"

// Message types pushed to clients.
const (
	// EventProjectUpdated carries a messagequeue.ProjectUpdatedPayload.
	EventProjectUpdated = "project.updated"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
