package workspace

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/port/notifier"
)

// Column is one quarter of the board.
type Column struct {
	Quarter string
	Tasks   []roadmap.Task
}

// RoadmapBoard groups a project's roadmap tasks by quarter. Tasks whose
// quarter is not in the board's enumeration are kept but never displayed.
type RoadmapBoard struct {
	mu        sync.Mutex
	projectID string
	project   *project.Project
	quarters  []string
	tasks     []roadmap.Task

	client RoadmapClient
	alert  Alerter
}

// NewRoadmapBoard creates a board showing the given quarter labels.
func NewRoadmapBoard(projectID string, quarters []string, client RoadmapClient, alert Alerter) *RoadmapBoard {
	qs := make([]string, len(quarters))
	for i, q := range quarters {
		qs[i] = canonicalQuarter(q)
	}
	return &RoadmapBoard{
		projectID: projectID,
		quarters:  qs,
		client:    client,
		alert:     alerterOrDiscard(alert),
	}
}

// canonicalQuarter normalizes parseable labels ("q1  2025" → "Q1 2025") and
// leaves anything else trimmed.
func canonicalQuarter(label string) string {
	if q, err := roadmap.ParseQuarter(label); err == nil {
		return q.String()
	}
	return strings.TrimSpace(label)
}

// Apply reconciles project and roadmap payloads. A roadmap payload replaces
// the whole task list.
func (b *RoadmapBoard) Apply(ev update.Event) {
	b.mu.Lock()
	if ev.ProjectID != b.projectID {
		b.mu.Unlock()
		return
	}
	if ev.Project != nil && belongs(ev.Project.ID, b.projectID) {
		p := *ev.Project
		b.project = &p
	}
	replaced := false
	if ev.Roadmap != nil {
		b.tasks = b.tasks[:0:0]
		for _, t := range ev.Roadmap.Tasks {
			if belongs(t.ProjectID, b.projectID) {
				b.tasks = append(b.tasks, t)
			}
		}
		replaced = true
	}
	n := len(b.tasks)
	b.mu.Unlock()

	if replaced && ev.Source == update.SourceAgent {
		b.alert.Notify(notifier.Notification{
			Title:   "Roadmap updated",
			Message: fmt.Sprintf("The AI agent updated the roadmap (%d tasks).", n),
			Level:   notifier.LevelSuccess,
			Source:  string(update.SourceAgent),
		})
	}
}

// Columns returns the tasks of each known quarter, ordered by sort order
// then title.
func (b *RoadmapBoard) Columns() []Column {
	b.mu.Lock()
	defer b.mu.Unlock()
	cols := make([]Column, len(b.quarters))
	index := make(map[string]int, len(b.quarters))
	for i, q := range b.quarters {
		cols[i] = Column{Quarter: q, Tasks: []roadmap.Task{}}
		index[q] = i
	}
	for _, t := range b.tasks {
		if i, ok := index[canonicalQuarter(t.Quarter)]; ok {
			cols[i].Tasks = append(cols[i].Tasks, t)
		}
	}
	for i := range cols {
		sort.SliceStable(cols[i].Tasks, func(a, c int) bool {
			ta, tc := cols[i].Tasks[a], cols[i].Tasks[c]
			if ta.SortOrder != tc.SortOrder {
				return ta.SortOrder < tc.SortOrder
			}
			return ta.Title < tc.Title
		})
	}
	return cols
}

// Tasks returns every task, including those in unknown quarters.
func (b *RoadmapBoard) Tasks() []roadmap.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]roadmap.Task(nil), b.tasks...)
}

// AddTask creates a task and places it on the board.
func (b *RoadmapBoard) AddTask(ctx context.Context, req roadmap.CreateTaskRequest) (*roadmap.Task, error) {
	t, err := b.client.CreateRoadmapTask(ctx, b.ProjectID(), req)
	if err != nil {
		return nil, fmt.Errorf("add task: %w", err)
	}
	b.upsert(*t)
	return t, nil
}

// UpdateTask edits a task and applies the result.
func (b *RoadmapBoard) UpdateTask(ctx context.Context, id string, req roadmap.UpdateTaskRequest) (*roadmap.Task, error) {
	t, err := b.client.UpdateRoadmapTask(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	b.upsert(*t)
	return t, nil
}

// MoveTask moves a task to another quarter and, when status is non-nil,
// another status column.
func (b *RoadmapBoard) MoveTask(ctx context.Context, id, quarter string, status *roadmap.Status) (*roadmap.Task, error) {
	q := canonicalQuarter(quarter)
	return b.UpdateTask(ctx, id, roadmap.UpdateTaskRequest{Quarter: &q, Status: status})
}

// DeleteTask removes a task.
func (b *RoadmapBoard) DeleteTask(ctx context.Context, id string) error {
	if err := b.client.DeleteRoadmapTask(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			b.tasks = append(b.tasks[:i:i], b.tasks[i+1:]...)
			break
		}
	}
	return nil
}

// ProjectID returns the board's project.
func (b *RoadmapBoard) ProjectID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.projectID
}

func (b *RoadmapBoard) upsert(t roadmap.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t.ProjectID != "" && t.ProjectID != b.projectID {
		return
	}
	for i := range b.tasks {
		if b.tasks[i].ID == t.ID {
			b.tasks[i] = t
			return
		}
	}
	b.tasks = append(b.tasks, t)
}
