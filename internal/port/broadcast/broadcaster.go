// Package broadcast defines the port for pushing project events to
// connected clients.
package broadcast

import "context"

// Broadcaster delivers events to clients watching a project.
type Broadcaster interface {
	// BroadcastProjectEvent sends payload to every client subscribed to
	// projectID. Delivery is best-effort.
	BroadcastProjectEvent(ctx context.Context, projectID string, payload any)
}
