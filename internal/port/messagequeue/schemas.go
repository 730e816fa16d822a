package messagequeue

import "github.com/Strob0t/PMForge/internal/domain/update"

// ProjectUpdatedPayload is the schema for projects.updated.{id} messages:
// the update envelope carrying post-mutation entities, plus the request
// that caused it for log correlation.
type ProjectUpdatedPayload struct {
	update.Event
	RequestID string `json:"request_id,omitempty"`
}
