// Package chat defines the append-only project chat transcript.
package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/PMForge/internal/domain"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultMessageType tags ordinary conversational turns.
const DefaultMessageType = "message"

// Recent-page bounds for GET /chat/messages/recent.
const (
	DefaultRecentLimit = 50
	MaxRecentLimit     = 200
)

// Message is a single transcript entry. Messages are never mutated.
type Message struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	Role        Role            `json:"role"`
	Content     string          `json:"content"`
	MessageType string          `json:"message_type"`
	Metadata    json.RawMessage `json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateRequest is the body of POST /projects/{id}/chat/messages.
type CreateRequest struct {
	Role        Role            `json:"role"`
	Content     string          `json:"content"`
	MessageType string          `json:"message_type"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// EmptyMetadata is stored when a message carries no metadata.
var EmptyMetadata = json.RawMessage(`{}`)

// NormalizeCreate fills defaults and validates a create request.
func NormalizeCreate(req *CreateRequest) error {
	switch req.Role {
	case RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("%w: invalid role %q", domain.ErrValidation, req.Role)
	}
	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("%w: content is required", domain.ErrValidation)
	}
	if req.MessageType == "" {
		req.MessageType = DefaultMessageType
	}
	req.Metadata = NormalizeMetadata(req.Metadata)
	if !json.Valid(req.Metadata) {
		return fmt.Errorf("%w: metadata is not valid JSON", domain.ErrValidation)
	}
	return nil
}

// NormalizeMetadata maps absent or null metadata to an empty object.
func NormalizeMetadata(m json.RawMessage) json.RawMessage {
	if len(m) == 0 || string(m) == "null" {
		return EmptyMetadata
	}
	return m
}

// ClampRecentLimit applies the default and maximum page size.
func ClampRecentLimit(n int) int {
	if n <= 0 {
		return DefaultRecentLimit
	}
	if n > MaxRecentLimit {
		return MaxRecentLimit
	}
	return n
}

// Reverse flips a DESC-ordered page into ascending order in place.
func Reverse(msgs []Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
