package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Strob0t/PMForge/internal/port/messagequeue"
)

// MaxMessageBytes bounds one pushed frame. A frame carries full documents or
// the full task list of a project, so it must exceed the server's NATS
// max_payload (1 MiB by default) with room for operators who raise it.
const MaxMessageBytes int64 = 8 << 20

// URL derives the hub endpoint from the REST base URL.
func URL(apiBase, projectID string) (string, error) {
	u, err := url.Parse(strings.TrimRight(apiBase, "/"))
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	u.RawQuery = url.Values{"project_id": {projectID}}.Encode()
	return u.String(), nil
}

// Watch dials the hub for projectID and calls fn for every change
// notification until ctx is done or the connection drops. Unknown message
// types and payloads for other projects are skipped. A nil return means ctx
// ended; any other error means the connection was lost.
func Watch(ctx context.Context, apiBase, projectID string, fn func(context.Context, messagequeue.ProjectUpdatedPayload)) error {
	endpoint, err := URL(apiBase, projectID)
	if err != nil {
		return err
	}

	c, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer func() { _ = c.Close(websocket.StatusNormalClosure, "") }()
	c.SetReadLimit(MaxMessageBytes)

	for {
		var msg Message
		if err := wsjson.Read(ctx, c, &msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if msg.Type != EventProjectUpdated {
			continue
		}
		var p messagequeue.ProjectUpdatedPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			continue
		}
		if p.ProjectID != projectID {
			continue
		}
		fn(ctx, p)
	}
}
