package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/PMForge/internal/domain"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/port/cache"
	"github.com/Strob0t/PMForge/internal/port/database"
)

// ProjectService handles project business logic.
type ProjectService struct {
	store  database.Store
	cache  cache.Cache
	notify *ChangeNotifier
}

// NewProjectService creates a new ProjectService. c may be nil to disable
// read caching.
func NewProjectService(store database.Store, c cache.Cache, notify *ChangeNotifier) *ProjectService {
	return &ProjectService{store: store, cache: c, notify: notify}
}

// List returns all projects.
func (s *ProjectService) List(ctx context.Context) ([]project.Project, error) {
	return s.store.ListProjects(ctx)
}

// Get returns a project by ID.
func (s *ProjectService) Get(ctx context.Context, id string) (*project.Project, error) {
	if err := domain.ValidateID("project id", id); err != nil {
		return nil, err
	}
	return cachedGet(ctx, s.cache, projectKey(id), func(ctx context.Context) (*project.Project, error) {
		return s.store.GetProject(ctx, id)
	})
}

// Create creates a new project.
func (s *ProjectService) Create(ctx context.Context, req project.CreateRequest) (*project.Project, error) {
	if err := project.ValidateCreateRequest(&req); err != nil {
		return nil, err
	}
	p, err := s.store.CreateProject(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	slog.InfoContext(ctx, "project created", "project_id", p.ID)
	return p, nil
}

// Update applies the non-nil fields of req to the project.
func (s *ProjectService) Update(ctx context.Context, id string, req project.UpdateRequest) (*project.Project, error) {
	if err := domain.ValidateID("project id", id); err != nil {
		return nil, err
	}
	if err := project.ValidateUpdateRequest(&req); err != nil {
		return nil, err
	}

	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}

	updated, err := s.store.UpdateProject(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}
	s.notify.Notify(ctx, update.Event{ProjectID: id, Type: update.TypeProject, Project: updated})
	return updated, nil
}

// Delete removes a project and everything it owns.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := domain.ValidateID("project id", id); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.notify.Invalidate(ctx, id)
	slog.InfoContext(ctx, "project deleted", "project_id", id)
	return nil
}
