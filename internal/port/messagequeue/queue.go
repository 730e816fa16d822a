// Package messagequeue defines the message queue port (interface).
package messagequeue

import (
	"context"
	"strings"
)

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject, which
	// may contain wildcards. The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// SubjectProjectUpdated prefixes per-project change notifications:
// projects.updated.{project_id}.
const SubjectProjectUpdated = "projects.updated"

// SubjectProjectUpdatedAll matches change notifications for every project.
const SubjectProjectUpdatedAll = SubjectProjectUpdated + ".>"

// ProjectUpdatedSubject returns the subject for a project's notifications.
func ProjectUpdatedSubject(projectID string) string {
	return SubjectProjectUpdated + "." + projectID
}

// ProjectIDFromSubject extracts the project id from a projects.updated
// subject, or "" if the subject has another shape.
func ProjectIDFromSubject(subject string) string {
	id, ok := strings.CutPrefix(subject, SubjectProjectUpdated+".")
	if !ok || id == "" || strings.Contains(id, ".") {
		return ""
	}
	return id
}
