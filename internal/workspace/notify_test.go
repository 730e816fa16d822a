package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Strob0t/PMForge/internal/port/notifier"
)

type mockNotifier struct {
	name    string
	mu      sync.Mutex
	sent    []notifier.Notification
	sendErr error
	block   chan struct{}
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Send(_ context.Context, n notifier.Notification) error {
	if m.block != nil {
		<-m.block
	}
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
	return nil
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestAsyncNotifier_DeliversToAll(t *testing.T) {
	failer := &mockNotifier{name: "fail", sendErr: errors.New("closed pipe")}
	ok := &mockNotifier{name: "ok"}
	a := NewAsyncNotifier(4, failer, ok)

	a.Notify(notifier.Notification{Title: "one"})
	a.Notify(notifier.Notification{Title: "two"})
	a.Close()

	if ok.count() != 2 {
		t.Errorf("expected 2 deliveries despite failing notifier, got %d", ok.count())
	}
}

func TestAsyncNotifier_DropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	slow := &mockNotifier{name: "slow", block: block}
	a := NewAsyncNotifier(1, slow)

	accepted := 0
	for range 10 {
		if a.Notify(notifier.Notification{Title: "x"}) {
			accepted++
		}
	}
	// At most one in flight plus one buffered.
	if accepted > 2 {
		t.Errorf("expected at most 2 accepted, got %d", accepted)
	}
	if a.Dropped() != int64(10-accepted) {
		t.Errorf("dropped = %d, want %d", a.Dropped(), 10-accepted)
	}

	close(block)
	a.Close()
	a.Close()
	if a.Notify(notifier.Notification{Title: "late"}) {
		t.Error("notify after close should be rejected")
	}
}
