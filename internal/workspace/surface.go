package workspace

import (
	"context"

	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/eventbus"
	"github.com/Strob0t/PMForge/internal/port/notifier"
)

// Surface is anything that reconciles its local copy of project state from
// update events.
type Surface interface {
	Apply(ev update.Event)
}

// Attach subscribes s to bus and returns the detach function.
func Attach(bus *eventbus.Bus, s Surface) (detach func()) {
	return bus.Subscribe(func(_ context.Context, ev update.Event) error {
		s.Apply(ev)
		return nil
	})
}

// Alerter accepts user notifications without blocking. *AsyncNotifier
// implements it.
type Alerter interface {
	Notify(n notifier.Notification) bool
}

type discardAlerter struct{}

func (discardAlerter) Notify(notifier.Notification) bool { return false }

func alerterOrDiscard(a Alerter) Alerter {
	if a == nil {
		return discardAlerter{}
	}
	return a
}

// belongs reports whether a payload's own project id is compatible with the
// event's. Payloads without an id are accepted.
func belongs(payloadProjectID, projectID string) bool {
	return payloadProjectID == "" || payloadProjectID == projectID
}
