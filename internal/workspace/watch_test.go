package workspace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Strob0t/PMForge/internal/adapter/ws"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/eventbus"
	"github.com/Strob0t/PMForge/internal/port/messagequeue"
)

func TestForward_DropsInvalidPayloads(t *testing.T) {
	bus := eventbus.New()
	events := captureEvents(bus)
	fwd := Forward(bus)

	fwd(context.Background(), messagequeue.ProjectUpdatedPayload{Event: update.Event{ProjectID: testProject, Type: "bogus"}})
	fwd(context.Background(), messagequeue.ProjectUpdatedPayload{Event: update.Event{
		ProjectID: testProject, Type: update.TypePRD, Source: update.SourceAgent,
		PRD: &document.PRD{ProjectID: testProject},
	}})

	if len(*events) != 1 || (*events)[0].Type != update.TypePRD {
		t.Fatalf("expected only the valid event, got %+v", *events)
	}
}

func TestWatch_ForwardsPushedEvents(t *testing.T) {
	hub := ws.NewHub()
	defer hub.Close()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	bus := eventbus.New()
	w := NewDocumentWorkspace(testProject, &fakeRemote{}, nil)
	defer Attach(bus, w)()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, srv.URL, testProject, bus) }()

	deadline := time.Now().Add(5 * time.Second)
	for hub.ConnectionCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ConnectionCount() == 0 {
		t.Fatal("watcher never connected")
	}

	hub.BroadcastProjectEvent(ctx, testProject, messagequeue.ProjectUpdatedPayload{Event: update.Event{
		ProjectID: testProject, Type: update.TypePRD, Source: update.SourceAgent,
		PRD: &document.PRD{ID: "d1", ProjectID: testProject, Content: "pushed"},
	}})

	for time.Now().Before(deadline) {
		if st := w.State(); st.PRD != nil {
			if st.PRD.Content != "pushed" {
				t.Errorf("unexpected content %q", st.PRD.Content)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Watch returned %v after cancel", err)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	t.Fatal("pushed event never reached the workspace")
}
