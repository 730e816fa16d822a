// Package roadmap contains the roadmap task model: quarter-scoped,
// prioritized work items belonging to a project.
package roadmap

import (
	"encoding/json"
	"strings"
	"time"
)

// Priority ranks a task from P0 (critical) to P3 (low).
type Priority string

const (
	PriorityP0 Priority = "P0"
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Task is a single roadmap item placed in a quarter.
type Task struct {
	ID              string       `json:"id"`
	ProjectID       string       `json:"project_id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Priority        Priority     `json:"priority"`
	Status          Status       `json:"status"`
	Quarter         string       `json:"quarter"`
	EstimatedEffort string       `json:"estimated_effort"`
	Dependencies    Dependencies `json:"dependencies"`
	SortOrder       int          `json:"sort_order"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// CreateTaskRequest is the input for creating a task.
type CreateTaskRequest struct {
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Priority        Priority     `json:"priority"`
	Status          Status       `json:"status"`
	Quarter         string       `json:"quarter"`
	EstimatedEffort string       `json:"estimated_effort"`
	Dependencies    Dependencies `json:"dependencies"`
	SortOrder       int          `json:"sort_order"`
}

// UpdateTaskRequest holds partial task updates. Nil fields are kept.
type UpdateTaskRequest struct {
	Title           *string       `json:"title,omitempty"`
	Description     *string       `json:"description,omitempty"`
	Priority        *Priority     `json:"priority,omitempty"`
	Status          *Status       `json:"status,omitempty"`
	Quarter         *string       `json:"quarter,omitempty"`
	EstimatedEffort *string       `json:"estimated_effort,omitempty"`
	Dependencies    *Dependencies `json:"dependencies,omitempty"`
	SortOrder       *int          `json:"sort_order,omitempty"`
}

// BulkCreateRequest is the body of POST /projects/{id}/roadmap/bulk.
type BulkCreateRequest struct {
	Tasks []CreateTaskRequest `json:"tasks"`
}

// Apply merges the non-nil fields of req into t.
func (req *UpdateTaskRequest) Apply(t *Task) {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Quarter != nil {
		t.Quarter = strings.TrimSpace(*req.Quarter)
	}
	if req.EstimatedEffort != nil {
		t.EstimatedEffort = *req.EstimatedEffort
	}
	if req.Dependencies != nil {
		t.Dependencies = *req.Dependencies
	}
	if req.SortOrder != nil {
		t.SortOrder = *req.SortOrder
	}
}

// Dependencies is the list of task references a task depends on. On the
// wire it is normally a JSON array, but agents also send it as a string that
// itself holds a JSON array, or as a single free-text reference.
type Dependencies []string

// UnmarshalJSON accepts an array, a JSON-encoded array string, a plain
// string, or null.
func (d *Dependencies) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*d = list
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = ParseDependencies(s)
	return nil
}

// MarshalJSON always encodes an array, never null.
func (d Dependencies) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(d))
}

// ParseDependencies decodes the storage form of a dependency list. Empty
// input yields an empty list; non-JSON text is treated as one reference.
func ParseDependencies(s string) Dependencies {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dependencies{}
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		if list == nil {
			return Dependencies{}
		}
		return list
	}
	return Dependencies{s}
}

// String encodes the list for storage as a JSON array.
func (d Dependencies) String() string {
	data, err := d.MarshalJSON()
	if err != nil {
		return "[]"
	}
	return string(data)
}
