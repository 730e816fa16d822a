package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Strob0t/PMForge/internal/port/notifier"
)

var _ notifier.Notifier = (*Notifier)(nil)

func TestSendNotConfigured(t *testing.T) {
	err := NewNotifier("").Send(context.Background(), notifier.Notification{Title: "PRD updated"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSendPostsBlocks(t *testing.T) {
	var got message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL).Send(context.Background(), notifier.Notification{
		Title:   "PRD and Spec updated",
		Message: "The agent rewrote both documents.",
		Level:   notifier.LevelSuccess,
		Source:  "ai-agent",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(got.Blocks))
	}
	if got.Blocks[0].Text.Text != "[OK] PRD and Spec updated" {
		t.Errorf("header = %q", got.Blocks[0].Text.Text)
	}
	if got.Blocks[2].Type != "context" || !strings.Contains(got.Blocks[2].Elements[0].Text, "ai-agent") {
		t.Errorf("context block = %+v", got.Blocks[2])
	}
	if !strings.HasPrefix(got.Text, "[OK] PRD and Spec updated: ") {
		t.Errorf("fallback text = %q", got.Text)
	}
}

func TestBuildMessageOmitsEmptyParts(t *testing.T) {
	msg := buildMessage(notifier.Notification{Title: "Roadmap updated"})
	if len(msg.Blocks) != 1 {
		t.Fatalf("expected header only, got %d blocks", len(msg.Blocks))
	}
	if msg.Text != "[INFO] Roadmap updated" {
		t.Errorf("text = %q", msg.Text)
	}
}

func TestSendWebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no_service"))
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL).Send(context.Background(), notifier.Notification{Title: "x", Level: notifier.LevelError})
	if err == nil || !strings.Contains(err.Error(), "no_service") {
		t.Fatalf("expected webhook error with body, got %v", err)
	}
}
