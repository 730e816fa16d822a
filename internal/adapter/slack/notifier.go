// Package slack forwards pmctl notifications to a Slack incoming webhook,
// so a team channel sees when the agent rewrites a document.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Strob0t/PMForge/internal/adapter/otel"
	"github.com/Strob0t/PMForge/internal/port/notifier"
)

// ErrNotConfigured is returned by Send when no webhook URL is set.
var ErrNotConfigured = errors.New("slack: webhook url not configured")

const sendTimeout = 10 * time.Second

// Notifier posts Block Kit messages to one webhook.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewNotifier returns a Notifier for webhookURL.
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: sendTimeout, Transport: otel.Transport(nil)},
	}
}

// Name implements notifier.Notifier.
func (n *Notifier) Name() string { return "slack" }

type message struct {
	Text   string  `json:"text"`
	Blocks []block `json:"blocks"`
}

type block struct {
	Type     string `json:"type"`
	Text     *text  `json:"text,omitempty"`
	Elements []text `json:"elements,omitempty"`
}

type text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send implements notifier.Notifier.
func (n *Notifier) Send(ctx context.Context, note notifier.Notification) error {
	if n.webhookURL == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(buildMessage(note))
	if err != nil {
		return fmt.Errorf("slack marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req) //nolint:gosec // webhook URL from trusted config
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}

// buildMessage renders a notification as a header, an optional body section
// and a context line naming the source. Text is the fallback shown in
// mobile push notifications.
func buildMessage(note notifier.Notification) message {
	header := fmt.Sprintf("%s %s", levelTag(note.Level), note.Title)
	msg := message{
		Text:   header,
		Blocks: []block{{Type: "header", Text: &text{Type: "plain_text", Text: header}}},
	}
	if note.Message != "" {
		msg.Text += ": " + note.Message
		msg.Blocks = append(msg.Blocks, block{Type: "section", Text: &text{Type: "mrkdwn", Text: note.Message}})
	}
	if note.Source != "" {
		msg.Blocks = append(msg.Blocks, block{
			Type:     "context",
			Elements: []text{{Type: "mrkdwn", Text: "_Source: " + note.Source + "_"}},
		})
	}
	return msg
}

func levelTag(l notifier.Level) string {
	switch l {
	case notifier.LevelSuccess:
		return "[OK]"
	case notifier.LevelError:
		return "[ERROR]"
	case notifier.LevelWarning:
		return "[WARN]"
	default:
		return "[INFO]"
	}
}
