// Package notifier defines the port for user-facing notifications raised by
// the client surfaces.
package notifier

import "context"

// Level is the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is the payload sent through a Notifier.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   Level  `json:"level"`
	Source  string `json:"source"` // e.g. "ai-agent", "refresh"
}

// Notifier delivers notifications to the user.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "terminal").
	Name() string

	// Send delivers a notification.
	Send(ctx context.Context, n Notification) error
}
