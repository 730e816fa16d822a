package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	pmotel "github.com/Strob0t/PMForge/internal/adapter/otel"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/logger"
	"github.com/Strob0t/PMForge/internal/port/cache"
	"github.com/Strob0t/PMForge/internal/port/messagequeue"
)

// ChangeNotifier publishes project change notifications after successful
// mutations and invalidates cached reads. Publishing is best-effort: the
// mutation has already been committed, so failures are logged and counted
// but never returned.
type ChangeNotifier struct {
	queue   messagequeue.Queue
	cache   cache.Cache
	metrics *pmotel.Metrics
	now     func() time.Time
}

// NewChangeNotifier creates a notifier. queue, cache and metrics may be nil.
func NewChangeNotifier(queue messagequeue.Queue, c cache.Cache, metrics *pmotel.Metrics) *ChangeNotifier {
	return &ChangeNotifier{queue: queue, cache: c, metrics: metrics, now: time.Now}
}

// Notify stamps ev with the source from ctx and the current time, drops the
// project's cache entries and publishes ev on projects.updated.{id}.
func (n *ChangeNotifier) Notify(ctx context.Context, ev update.Event) {
	if n == nil {
		return
	}
	ev.Source = SourceFrom(ctx)
	ev.Timestamp = n.now().UTC()

	n.Invalidate(ctx, ev.ProjectID)

	if n.queue == nil {
		return
	}

	ctx, span := pmotel.StartNotifySpan(ctx, ev.ProjectID, string(ev.Type))
	data, err := json.Marshal(messagequeue.ProjectUpdatedPayload{
		Event:     ev,
		RequestID: logger.RequestID(ctx),
	})
	if err == nil {
		err = n.queue.Publish(ctx, messagequeue.ProjectUpdatedSubject(ev.ProjectID), data)
	}
	pmotel.EndSpan(span, err)

	attrs := metric.WithAttributes(attribute.String("update_type", string(ev.Type)))
	if err != nil {
		slog.ErrorContext(ctx, "publish project update failed",
			"project_id", ev.ProjectID, "update_type", ev.Type, "error", err)
		if n.metrics != nil {
			n.metrics.NotifyFailures.Add(ctx, 1, attrs)
		}
		return
	}
	if n.metrics != nil {
		n.metrics.Notifications.Add(ctx, 1, attrs)
	}
	slog.DebugContext(ctx, "project update published",
		"project_id", ev.ProjectID, "update_type", ev.Type, "source", ev.Source)
}

// Invalidate drops every cached read derived from projectID.
func (n *ChangeNotifier) Invalidate(ctx context.Context, projectID string) {
	if n == nil || n.cache == nil {
		return
	}
	for _, key := range projectKeys(projectID) {
		if err := n.cache.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "cache invalidate failed", "key", key, "error", err)
		}
	}
}
