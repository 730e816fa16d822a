package workspace

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Strob0t/PMForge/internal/port/notifier"
)

// AsyncNotifier hands notifications to a background goroutine that delivers
// them to every registered notifier. Notify never blocks: when the buffer
// is full the notification is dropped and counted.
type AsyncNotifier struct {
	notifiers []notifier.Notifier

	mu      sync.RWMutex
	closed  bool
	ch      chan notifier.Notification
	done    chan struct{}
	dropped atomic.Int64
}

// NewAsyncNotifier starts a notifier with the given buffer size.
func NewAsyncNotifier(bufSize int, notifiers ...notifier.Notifier) *AsyncNotifier {
	if bufSize < 1 {
		bufSize = 1
	}
	a := &AsyncNotifier{
		notifiers: notifiers,
		ch:        make(chan notifier.Notification, bufSize),
		done:      make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncNotifier) run() {
	defer close(a.done)
	for n := range a.ch {
		for _, p := range a.notifiers {
			if err := p.Send(context.Background(), n); err != nil {
				slog.Warn("notification send failed",
					"provider", p.Name(),
					"title", n.Title,
					"error", err,
				)
			}
		}
	}
}

// Notify enqueues n and reports whether it was accepted.
func (a *AsyncNotifier) Notify(n notifier.Notification) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		a.dropped.Add(1)
		return false
	}
	select {
	case a.ch <- n:
		return true
	default:
		a.dropped.Add(1)
		return false
	}
}

// Dropped returns the number of notifications discarded.
func (a *AsyncNotifier) Dropped() int64 {
	return a.dropped.Load()
}

// Close delivers pending notifications and stops the worker. Safe to call
// twice.
func (a *AsyncNotifier) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()
	<-a.done
}
