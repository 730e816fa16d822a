// Package terminal renders notifications and surface state on a terminal
// using ANSI colors.
package terminal

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/Strob0t/PMForge/internal/port/notifier"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Notifier prints notifications to a writer, one line each.
type Notifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewNotifier returns a Notifier writing to w.
func NewNotifier(w io.Writer) *Notifier {
	return &Notifier{w: w}
}

// Name implements notifier.Notifier.
func (n *Notifier) Name() string { return "terminal" }

// Send implements notifier.Notifier.
func (n *Notifier) Send(_ context.Context, note notifier.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	c, mark := levelStyle(note.Level)
	if _, err := c.Fprintf(n.w, "%s %s", mark, note.Title); err != nil {
		return fmt.Errorf("terminal notify: %w", err)
	}
	if note.Message != "" {
		fmt.Fprintf(n.w, ": %s", note.Message)
	}
	if note.Source != "" {
		faint.Fprintf(n.w, " (%s)", note.Source)
	}
	_, err := fmt.Fprintln(n.w)
	return err
}

func levelStyle(l notifier.Level) (c *color.Color, mark string) {
	switch l {
	case notifier.LevelSuccess:
		return green, "✓"
	case notifier.LevelWarning:
		return yellow, "!"
	case notifier.LevelError:
		return red, "✗"
	default:
		return cyan, "•"
	}
}
