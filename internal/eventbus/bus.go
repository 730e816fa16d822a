// Package eventbus is the in-process publish/subscribe channel that carries
// project update events from producers (refresh, push channel, direct saves)
// to the client surfaces. Delivery is synchronous and in registration order;
// nothing is persisted or replayed.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Strob0t/PMForge/internal/adapter/otel"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
	"github.com/Strob0t/PMForge/internal/domain/update"
)

// Listener receives update events. A returned error is logged and counted;
// it never reaches the emitter or the other listeners.
type Listener func(ctx context.Context, ev update.Event) error

type registration struct {
	id uint64
	fn Listener
}

// Bus is a project update event bus. The zero value is not usable; call New.
type Bus struct {
	mu        sync.Mutex
	listeners []registration
	nextID    uint64

	metrics *otel.Metrics
	now     func() time.Time
}

// Option configures a Bus.
type Option func(*Bus)

// WithMetrics counts emits and listener failures on m.
func WithMetrics(m *otel.Metrics) Option {
	return func(b *Bus) { b.metrics = m }
}

// WithClock sets the timestamp source of the convenience emitters.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) { b.now = now }
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Subscribe registers l and returns a function that removes exactly this
// registration. Calling it more than once is a no-op. Registering the same
// listener twice yields two independent registrations.
func (b *Bus) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, registration{id: id, fn: l})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, r := range b.listeners {
		if r.id == id {
			// Copy so snapshots taken by in-flight emits stay intact.
			next := make([]registration, 0, len(b.listeners)-1)
			next = append(next, b.listeners[:i]...)
			b.listeners = append(next, b.listeners[i+1:]...)
			return
		}
	}
}

// Len returns the number of current registrations.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Emit delivers ev to every listener registered when Emit began, in
// registration order. Listeners added or removed during delivery do not
// affect it.
func (b *Bus) Emit(ctx context.Context, ev update.Event) {
	b.mu.Lock()
	snapshot := b.listeners
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.BusEmits.Add(ctx, 1, metric.WithAttributes(attribute.String("update.type", string(ev.Type))))
	}

	for _, r := range snapshot {
		if err := b.deliver(ctx, r.fn, ev); err != nil {
			slog.ErrorContext(ctx, "event listener failed",
				"project_id", ev.ProjectID,
				"update_type", ev.Type,
				"error", err,
			)
			if b.metrics != nil {
				b.metrics.ListenerFailures.Add(ctx, 1)
			}
		}
	}
}

// deliver calls fn, converting a panic into an error.
func (b *Bus) deliver(ctx context.Context, fn Listener, ev update.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return fn(ctx, ev)
}

func (b *Bus) envelope(projectID string, t update.Type, src update.Source) update.Event {
	return update.Event{
		ProjectID: projectID,
		Type:      t,
		Source:    src,
		Timestamp: b.now().UTC(),
	}
}

// EmitProject announces a changed project.
func (b *Bus) EmitProject(ctx context.Context, p *project.Project, src update.Source) {
	if p == nil {
		return
	}
	ev := b.envelope(p.ID, update.TypeProject, src)
	ev.Project = p
	b.Emit(ctx, ev)
}

// EmitPRD announces a changed PRD.
func (b *Bus) EmitPRD(ctx context.Context, projectID string, prd *document.PRD, src update.Source) {
	ev := b.envelope(projectID, update.TypePRD, src)
	ev.PRD = prd
	b.Emit(ctx, ev)
}

// EmitSpec announces a changed Spec.
func (b *Bus) EmitSpec(ctx context.Context, projectID string, spec *document.Spec, src update.Source) {
	ev := b.envelope(projectID, update.TypeSpec, src)
	ev.Spec = spec
	b.Emit(ctx, ev)
}

// EmitAll announces a full refresh. Nil payloads mean "not fetched".
func (b *Bus) EmitAll(ctx context.Context, projectID string, p *project.Project, prd *document.PRD, spec *document.Spec, src update.Source) {
	ev := b.envelope(projectID, update.TypeAll, src)
	ev.Project = p
	ev.PRD = prd
	ev.Spec = spec
	b.Emit(ctx, ev)
}

// EmitRoadmap announces the full task list of a project. A nil slice is
// sent as an empty list, meaning the roadmap is empty.
func (b *Bus) EmitRoadmap(ctx context.Context, projectID string, tasks []roadmap.Task, src update.Source) {
	if tasks == nil {
		tasks = []roadmap.Task{}
	}
	ev := b.envelope(projectID, update.TypeRoadmap, src)
	ev.Roadmap = &update.RoadmapPayload{Tasks: tasks}
	b.Emit(ctx, ev)
}
