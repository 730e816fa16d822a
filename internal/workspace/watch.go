package workspace

import (
	"context"

	"github.com/Strob0t/PMForge/internal/adapter/ws"
	"github.com/Strob0t/PMForge/internal/eventbus"
	"github.com/Strob0t/PMForge/internal/port/messagequeue"
)

// Forward returns a push-channel callback that re-emits every server
// notification on bus.
func Forward(bus *eventbus.Bus) func(context.Context, messagequeue.ProjectUpdatedPayload) {
	return func(ctx context.Context, p messagequeue.ProjectUpdatedPayload) {
		if err := p.Validate(); err != nil {
			return
		}
		bus.Emit(ctx, p.Event)
	}
}

// Watch connects to the server push channel for projectID and forwards its
// notifications to bus until ctx ends or the connection drops. Refresh
// remains the way to catch up after a drop.
func Watch(ctx context.Context, apiBase, projectID string, bus *eventbus.Bus) error {
	return ws.Watch(ctx, apiBase, projectID, Forward(bus))
}
