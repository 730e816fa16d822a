package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/PMForge/internal/domain"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/port/database"
)

// RoadmapService manages a project's roadmap tasks.
type RoadmapService struct {
	store  database.Store
	notify *ChangeNotifier
}

// NewRoadmapService creates a new RoadmapService.
func NewRoadmapService(store database.Store, notify *ChangeNotifier) *RoadmapService {
	return &RoadmapService{store: store, notify: notify}
}

// List returns every task of a project ordered by quarter and sort order.
func (s *RoadmapService) List(ctx context.Context, projectID string) ([]roadmap.Task, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	return s.store.ListRoadmapTasks(ctx, projectID)
}

// ListByQuarter returns the tasks placed in quarter.
func (s *RoadmapService) ListByQuarter(ctx context.Context, projectID, quarter string) ([]roadmap.Task, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	if quarter == "" {
		return nil, fmt.Errorf("%w: quarter is required", domain.ErrValidation)
	}
	return s.store.ListRoadmapTasksByQuarter(ctx, projectID, quarter)
}

// ListByStatus returns the tasks with the given status.
func (s *RoadmapService) ListByStatus(ctx context.Context, projectID string, status roadmap.Status) ([]roadmap.Task, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	if err := roadmap.ValidateStatus(status); err != nil {
		return nil, err
	}
	return s.store.ListRoadmapTasksByStatus(ctx, projectID, status)
}

// Get returns a single task.
func (s *RoadmapService) Get(ctx context.Context, id string) (*roadmap.Task, error) {
	if err := domain.ValidateID("task id", id); err != nil {
		return nil, err
	}
	return s.store.GetRoadmapTask(ctx, id)
}

// Create adds one task to a project's roadmap.
func (s *RoadmapService) Create(ctx context.Context, projectID string, req roadmap.CreateTaskRequest) (*roadmap.Task, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	if err := roadmap.NormalizeCreateTask(&req); err != nil {
		return nil, err
	}
	tasks, err := s.store.CreateRoadmapTasks(ctx, projectID, []roadmap.CreateTaskRequest{req})
	if err != nil {
		return nil, fmt.Errorf("create roadmap task: %w", err)
	}
	s.notifyRoadmap(ctx, projectID)
	return &tasks[0], nil
}

// BulkCreate adds all tasks atomically: either every task is stored or none.
func (s *RoadmapService) BulkCreate(ctx context.Context, projectID string, req roadmap.BulkCreateRequest) ([]roadmap.Task, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	if err := roadmap.NormalizeBulkCreate(&req); err != nil {
		return nil, err
	}
	tasks, err := s.store.CreateRoadmapTasks(ctx, projectID, req.Tasks)
	if err != nil {
		return nil, fmt.Errorf("bulk create roadmap tasks: %w", err)
	}
	slog.InfoContext(ctx, "roadmap tasks created", "project_id", projectID, "count", len(tasks))
	s.notifyRoadmap(ctx, projectID)
	return tasks, nil
}

// Update applies the non-nil fields of req to a task.
func (s *RoadmapService) Update(ctx context.Context, id string, req roadmap.UpdateTaskRequest) (*roadmap.Task, error) {
	if err := domain.ValidateID("task id", id); err != nil {
		return nil, err
	}
	if err := roadmap.ValidateUpdateTask(&req); err != nil {
		return nil, err
	}

	t, err := s.store.GetRoadmapTask(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(t)

	updated, err := s.store.UpdateRoadmapTask(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("update roadmap task %s: %w", id, err)
	}
	s.notifyRoadmap(ctx, updated.ProjectID)
	return updated, nil
}

// Delete removes a task.
func (s *RoadmapService) Delete(ctx context.Context, id string) error {
	if err := domain.ValidateID("task id", id); err != nil {
		return err
	}
	t, err := s.store.GetRoadmapTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRoadmapTask(ctx, id); err != nil {
		return err
	}
	s.notifyRoadmap(ctx, t.ProjectID)
	return nil
}

// Clear removes every task of a project and returns how many were deleted.
func (s *RoadmapService) Clear(ctx context.Context, projectID string) (int64, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return 0, err
	}
	n, err := s.store.ClearRoadmap(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("clear roadmap: %w", err)
	}
	s.notify.Notify(ctx, update.Event{
		ProjectID: projectID,
		Type:      update.TypeRoadmap,
		Roadmap:   &update.RoadmapPayload{Tasks: []roadmap.Task{}},
	})
	return n, nil
}

// notifyRoadmap publishes the project's full task list. Listeners replace
// their board instead of patching it, so concurrent edits converge.
func (s *RoadmapService) notifyRoadmap(ctx context.Context, projectID string) {
	tasks, err := s.store.ListRoadmapTasks(ctx, projectID)
	if err != nil {
		slog.WarnContext(ctx, "roadmap reload for notification failed", "project_id", projectID, "error", err)
		return
	}
	if tasks == nil {
		tasks = []roadmap.Task{}
	}
	s.notify.Notify(ctx, update.Event{
		ProjectID: projectID,
		Type:      update.TypeRoadmap,
		Roadmap:   &update.RoadmapPayload{Tasks: tasks},
	})
}
