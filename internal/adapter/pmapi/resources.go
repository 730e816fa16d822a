package pmapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/PMForge/internal/domain"
	"github.com/Strob0t/PMForge/internal/domain/chat"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
)

// --- Projects ---

// ListProjects returns all projects.
func (c *Client) ListProjects(ctx context.Context) ([]project.Project, error) {
	var out []project.Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// GetProject returns a project by ID.
func (c *Client) GetProject(ctx context.Context, id string) (*project.Project, error) {
	var out project.Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+escape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return &out, nil
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, req project.CreateRequest) (*project.Project, error) {
	var out project.Project
	if err := c.do(ctx, http.MethodPost, "/projects", req, &out); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &out, nil
}

// UpdateProject applies a partial update to a project.
func (c *Client) UpdateProject(ctx context.Context, id string, req project.UpdateRequest) (*project.Project, error) {
	var out project.Project
	if err := c.do(ctx, http.MethodPut, "/projects/"+escape(id), req, &out); err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}
	return &out, nil
}

// DeleteProject removes a project and everything it owns.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/projects/"+escape(id), nil, nil); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

// --- PRD ---

// GetPRD returns the project's PRD. A project without one yields an error
// matching domain.ErrNotFound.
func (c *Client) GetPRD(ctx context.Context, projectID string) (*document.PRD, error) {
	var out document.PRD
	if err := c.do(ctx, http.MethodGet, "/projects/"+escape(projectID)+"/prd", nil, &out); err != nil {
		return nil, fmt.Errorf("get prd: %w", err)
	}
	return &out, nil
}

// CreatePRD creates the project's PRD.
func (c *Client) CreatePRD(ctx context.Context, projectID string, req document.CreatePRDRequest) (*document.PRD, error) {
	var out document.PRD
	if err := c.do(ctx, http.MethodPost, "/projects/"+escape(projectID)+"/prd", req, &out); err != nil {
		return nil, fmt.Errorf("create prd: %w", err)
	}
	return &out, nil
}

// UpdatePRD updates the existing PRD.
func (c *Client) UpdatePRD(ctx context.Context, projectID string, req document.UpdatePRDRequest) (*document.PRD, error) {
	var out document.PRD
	if err := c.do(ctx, http.MethodPut, "/projects/"+escape(projectID)+"/prd", req, &out); err != nil {
		return nil, fmt.Errorf("update prd: %w", err)
	}
	return &out, nil
}

// UpsertPRD updates the PRD, creating it when the project has none. A
// create that loses a race to another writer falls back to one more update.
func (c *Client) UpsertPRD(ctx context.Context, projectID string, req document.UpdatePRDRequest) (*document.PRD, error) {
	prd, err := c.UpdatePRD(ctx, projectID, req)
	if !errors.Is(err, domain.ErrNotFound) {
		return prd, err
	}
	create := document.CreatePRDRequest{}
	if req.Title != nil {
		create.Title = *req.Title
	}
	if req.Content != nil {
		create.Content = *req.Content
	}
	if req.Status != nil {
		create.Status = *req.Status
	}
	prd, err = c.CreatePRD(ctx, projectID, create)
	if errors.Is(err, domain.ErrConflict) {
		return c.UpdatePRD(ctx, projectID, req)
	}
	return prd, err
}

// --- Spec ---

// GetSpec returns the project's Spec. A project without one yields an error
// matching domain.ErrNotFound.
func (c *Client) GetSpec(ctx context.Context, projectID string) (*document.Spec, error) {
	var out document.Spec
	if err := c.do(ctx, http.MethodGet, "/projects/"+escape(projectID)+"/spec", nil, &out); err != nil {
		return nil, fmt.Errorf("get spec: %w", err)
	}
	return &out, nil
}

// CreateSpec creates the project's Spec.
func (c *Client) CreateSpec(ctx context.Context, projectID string, req document.CreateSpecRequest) (*document.Spec, error) {
	var out document.Spec
	if err := c.do(ctx, http.MethodPost, "/projects/"+escape(projectID)+"/spec", req, &out); err != nil {
		return nil, fmt.Errorf("create spec: %w", err)
	}
	return &out, nil
}

// UpdateSpec updates the existing Spec.
func (c *Client) UpdateSpec(ctx context.Context, projectID string, req document.UpdateSpecRequest) (*document.Spec, error) {
	var out document.Spec
	if err := c.do(ctx, http.MethodPut, "/projects/"+escape(projectID)+"/spec", req, &out); err != nil {
		return nil, fmt.Errorf("update spec: %w", err)
	}
	return &out, nil
}

// UpsertSpec updates the Spec, creating it when the project has none.
func (c *Client) UpsertSpec(ctx context.Context, projectID string, req document.UpdateSpecRequest) (*document.Spec, error) {
	spec, err := c.UpdateSpec(ctx, projectID, req)
	if !errors.Is(err, domain.ErrNotFound) {
		return spec, err
	}
	create := document.CreateSpecRequest{}
	if req.Title != nil {
		create.Title = *req.Title
	}
	if req.Content != nil {
		create.Content = *req.Content
	}
	if req.TechnicalDetails != nil {
		create.TechnicalDetails = *req.TechnicalDetails
	}
	if req.Status != nil {
		create.Status = *req.Status
	}
	spec, err = c.CreateSpec(ctx, projectID, create)
	if errors.Is(err, domain.ErrConflict) {
		return c.UpdateSpec(ctx, projectID, req)
	}
	return spec, err
}

// --- Roadmap ---

// ListRoadmap returns every task of a project.
func (c *Client) ListRoadmap(ctx context.Context, projectID string) ([]roadmap.Task, error) {
	return c.listTasks(ctx, "/projects/"+escape(projectID)+"/roadmap")
}

// ListRoadmapByQuarter returns the tasks placed in quarter.
func (c *Client) ListRoadmapByQuarter(ctx context.Context, projectID, quarter string) ([]roadmap.Task, error) {
	return c.listTasks(ctx, "/projects/"+escape(projectID)+"/roadmap/quarter/"+escape(quarter))
}

// ListRoadmapByStatus returns the tasks with status.
func (c *Client) ListRoadmapByStatus(ctx context.Context, projectID string, status roadmap.Status) ([]roadmap.Task, error) {
	return c.listTasks(ctx, "/projects/"+escape(projectID)+"/roadmap/status/"+escape(string(status)))
}

func (c *Client) listTasks(ctx context.Context, path string) ([]roadmap.Task, error) {
	var out []roadmap.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list roadmap: %w", err)
	}
	return out, nil
}

// GetRoadmapTask returns a single task.
func (c *Client) GetRoadmapTask(ctx context.Context, id string) (*roadmap.Task, error) {
	var out roadmap.Task
	if err := c.do(ctx, http.MethodGet, "/roadmap/"+escape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("get roadmap task %s: %w", id, err)
	}
	return &out, nil
}

// CreateRoadmapTask adds one task.
func (c *Client) CreateRoadmapTask(ctx context.Context, projectID string, req roadmap.CreateTaskRequest) (*roadmap.Task, error) {
	var out roadmap.Task
	if err := c.do(ctx, http.MethodPost, "/projects/"+escape(projectID)+"/roadmap", req, &out); err != nil {
		return nil, fmt.Errorf("create roadmap task: %w", err)
	}
	return &out, nil
}

// BulkCreateRoadmap adds all tasks or none.
func (c *Client) BulkCreateRoadmap(ctx context.Context, projectID string, req roadmap.BulkCreateRequest) ([]roadmap.Task, error) {
	var out []roadmap.Task
	if err := c.do(ctx, http.MethodPost, "/projects/"+escape(projectID)+"/roadmap/bulk", req, &out); err != nil {
		return nil, fmt.Errorf("bulk create roadmap tasks: %w", err)
	}
	return out, nil
}

// UpdateRoadmapTask applies a partial update to a task.
func (c *Client) UpdateRoadmapTask(ctx context.Context, id string, req roadmap.UpdateTaskRequest) (*roadmap.Task, error) {
	var out roadmap.Task
	if err := c.do(ctx, http.MethodPut, "/roadmap/"+escape(id), req, &out); err != nil {
		return nil, fmt.Errorf("update roadmap task %s: %w", id, err)
	}
	return &out, nil
}

// DeleteRoadmapTask removes a task.
func (c *Client) DeleteRoadmapTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/roadmap/"+escape(id), nil, nil); err != nil {
		return fmt.Errorf("delete roadmap task %s: %w", id, err)
	}
	return nil
}

// ClearRoadmap removes every task of a project.
func (c *Client) ClearRoadmap(ctx context.Context, projectID string) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/projects/"+escape(projectID)+"/roadmap", nil, &out); err != nil {
		return 0, fmt.Errorf("clear roadmap: %w", err)
	}
	return out.Deleted, nil
}

// --- Chat ---

// ListMessages returns the full transcript in ascending order.
func (c *Client) ListMessages(ctx context.Context, projectID string) ([]chat.Message, error) {
	var out []chat.Message
	if err := c.do(ctx, http.MethodGet, "/projects/"+escape(projectID)+"/chat/messages", nil, &out); err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return out, nil
}

// RecentMessages returns the newest limit messages in ascending order.
func (c *Client) RecentMessages(ctx context.Context, projectID string, limit int) ([]chat.Message, error) {
	var out []chat.Message
	path := fmt.Sprintf("/projects/%s/chat/messages/recent?limit=%d", escape(projectID), limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("recent chat messages: %w", err)
	}
	return out, nil
}

// CreateMessage appends a message to the transcript. The idempotency key
// makes a retried create return the original message instead of appending
// a duplicate; an empty key gets a fresh one.
func (c *Client) CreateMessage(ctx context.Context, projectID string, req chat.CreateRequest, idempotencyKey string) (*chat.Message, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	var out chat.Message
	err := c.do(ctx, http.MethodPost, "/projects/"+escape(projectID)+"/chat/messages", req, &out,
		withHeader("Idempotency-Key", idempotencyKey))
	if err != nil {
		return nil, fmt.Errorf("create chat message: %w", err)
	}
	return &out, nil
}

// DeleteMessage removes one message.
func (c *Client) DeleteMessage(ctx context.Context, projectID, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/projects/"+escape(projectID)+"/chat/messages/"+escape(id), nil, nil); err != nil {
		return fmt.Errorf("delete chat message %s: %w", id, err)
	}
	return nil
}

// ClearMessages removes the whole transcript.
func (c *Client) ClearMessages(ctx context.Context, projectID string) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/projects/"+escape(projectID)+"/chat/messages", nil, &out); err != nil {
		return 0, fmt.Errorf("clear chat messages: %w", err)
	}
	return out.Deleted, nil
}
