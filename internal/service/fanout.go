package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Strob0t/PMForge/internal/port/broadcast"
	"github.com/Strob0t/PMForge/internal/port/messagequeue"
)

// LocalInvalidator drops entries from an instance-local cache tier.
type LocalInvalidator interface {
	DeleteLocal(ctx context.Context, key string) error
}

// Fanout relays project change notifications from the queue to connected
// push clients and evicts this instance's local cache entries, which peers
// cannot reach.
type Fanout struct {
	queue messagequeue.Queue
	hub   broadcast.Broadcaster
	local LocalInvalidator
}

// NewFanout creates a Fanout. local may be nil.
func NewFanout(queue messagequeue.Queue, hub broadcast.Broadcaster, local LocalInvalidator) *Fanout {
	return &Fanout{queue: queue, hub: hub, local: local}
}

// Start subscribes to every project's notifications. The returned function
// stops the subscription.
func (f *Fanout) Start(ctx context.Context) (func(), error) {
	stop, err := f.queue.Subscribe(ctx, messagequeue.SubjectProjectUpdatedAll, f.handle)
	if err != nil {
		return nil, fmt.Errorf("fanout subscribe: %w", err)
	}
	return stop, nil
}

func (f *Fanout) handle(ctx context.Context, subject string, data []byte) error {
	var payload messagequeue.ProjectUpdatedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode %s: %w", subject, err)
	}

	if f.local != nil {
		for _, key := range projectKeys(payload.ProjectID) {
			if err := f.local.DeleteLocal(ctx, key); err != nil {
				slog.WarnContext(ctx, "local cache invalidate failed", "key", key, "error", err)
			}
		}
	}

	f.hub.BroadcastProjectEvent(ctx, payload.ProjectID, json.RawMessage(data))
	return nil
}
