package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/PMForge/internal/domain"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/port/cache"
	"github.com/Strob0t/PMForge/internal/port/database"
)

// DocumentService manages the singleton PRD and Spec of each project.
type DocumentService struct {
	store  database.Store
	cache  cache.Cache
	notify *ChangeNotifier
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(store database.Store, c cache.Cache, notify *ChangeNotifier) *DocumentService {
	return &DocumentService{store: store, cache: c, notify: notify}
}

// --- PRD ---

// GetPRD returns the project's PRD or domain.ErrNotFound.
func (s *DocumentService) GetPRD(ctx context.Context, projectID string) (*document.PRD, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	return cachedGet(ctx, s.cache, prdKey(projectID), func(ctx context.Context) (*document.PRD, error) {
		return s.store.GetPRD(ctx, projectID)
	})
}

// CreatePRD creates the project's PRD. A project that already has one
// yields domain.ErrConflict; the storage constraint decides concurrent races.
func (s *DocumentService) CreatePRD(ctx context.Context, projectID string, req document.CreatePRDRequest) (*document.PRD, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	if err := document.NormalizeCreatePRD(&req); err != nil {
		return nil, err
	}
	if err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}

	if _, err := s.store.GetPRD(ctx, projectID); err == nil {
		return nil, fmt.Errorf("%w: PRD already exists for this project", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	prd, err := s.store.CreatePRD(ctx, projectID, req)
	if err != nil {
		return nil, fmt.Errorf("create prd: %w", err)
	}
	s.notify.Notify(ctx, update.Event{ProjectID: projectID, Type: update.TypePRD, PRD: prd})
	return prd, nil
}

// UpdatePRD applies the non-nil fields of req to the existing PRD.
func (s *DocumentService) UpdatePRD(ctx context.Context, projectID string, req document.UpdatePRDRequest) (*document.PRD, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	if err := document.ValidateUpdatePRD(&req); err != nil {
		return nil, err
	}

	prd, err := s.store.GetPRD(ctx, projectID)
	if err != nil {
		return nil, err
	}
	req.Apply(prd)

	updated, err := s.store.UpdatePRD(ctx, prd)
	if err != nil {
		return nil, fmt.Errorf("update prd: %w", err)
	}
	s.notify.Notify(ctx, update.Event{ProjectID: projectID, Type: update.TypePRD, PRD: updated})
	return updated, nil
}

// UpsertPRD updates the PRD if one exists and creates it otherwise. If a
// concurrent writer creates it first, the update is retried once.
func (s *DocumentService) UpsertPRD(ctx context.Context, projectID string, req document.UpdatePRDRequest) (*document.PRD, error) {
	prd, err := s.UpdatePRD(ctx, projectID, req)
	if !errors.Is(err, domain.ErrNotFound) {
		return prd, err
	}

	create := document.CreatePRDRequest{Title: deref(req.Title), Content: deref(req.Content)}
	if req.Status != nil {
		create.Status = *req.Status
	}
	prd, err = s.CreatePRD(ctx, projectID, create)
	if errors.Is(err, domain.ErrConflict) {
		slog.DebugContext(ctx, "prd created concurrently, retrying update", "project_id", projectID)
		return s.UpdatePRD(ctx, projectID, req)
	}
	return prd, err
}

// --- Spec ---

// GetSpec returns the project's Spec or domain.ErrNotFound.
func (s *DocumentService) GetSpec(ctx context.Context, projectID string) (*document.Spec, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	return cachedGet(ctx, s.cache, specKey(projectID), func(ctx context.Context) (*document.Spec, error) {
		return s.store.GetSpec(ctx, projectID)
	})
}

// CreateSpec creates the project's Spec. See CreatePRD for conflict rules.
func (s *DocumentService) CreateSpec(ctx context.Context, projectID string, req document.CreateSpecRequest) (*document.Spec, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	if err := document.NormalizeCreateSpec(&req); err != nil {
		return nil, err
	}
	if err := s.requireProject(ctx, projectID); err != nil {
		return nil, err
	}

	if _, err := s.store.GetSpec(ctx, projectID); err == nil {
		return nil, fmt.Errorf("%w: Spec already exists for this project", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	spec, err := s.store.CreateSpec(ctx, projectID, req)
	if err != nil {
		return nil, fmt.Errorf("create spec: %w", err)
	}
	s.notify.Notify(ctx, update.Event{ProjectID: projectID, Type: update.TypeSpec, Spec: spec})
	return spec, nil
}

// UpdateSpec applies the non-nil fields of req to the existing Spec.
func (s *DocumentService) UpdateSpec(ctx context.Context, projectID string, req document.UpdateSpecRequest) (*document.Spec, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	if err := document.ValidateUpdateSpec(&req); err != nil {
		return nil, err
	}

	spec, err := s.store.GetSpec(ctx, projectID)
	if err != nil {
		return nil, err
	}
	req.Apply(spec)

	updated, err := s.store.UpdateSpec(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("update spec: %w", err)
	}
	s.notify.Notify(ctx, update.Event{ProjectID: projectID, Type: update.TypeSpec, Spec: updated})
	return updated, nil
}

// UpsertSpec updates the Spec if one exists and creates it otherwise.
func (s *DocumentService) UpsertSpec(ctx context.Context, projectID string, req document.UpdateSpecRequest) (*document.Spec, error) {
	spec, err := s.UpdateSpec(ctx, projectID, req)
	if !errors.Is(err, domain.ErrNotFound) {
		return spec, err
	}

	create := document.CreateSpecRequest{
		Title:            deref(req.Title),
		Content:          deref(req.Content),
		TechnicalDetails: deref(req.TechnicalDetails),
	}
	if req.Status != nil {
		create.Status = *req.Status
	}
	spec, err = s.CreateSpec(ctx, projectID, create)
	if errors.Is(err, domain.ErrConflict) {
		slog.DebugContext(ctx, "spec created concurrently, retrying update", "project_id", projectID)
		return s.UpdateSpec(ctx, projectID, req)
	}
	return spec, err
}

// requireProject reports domain.ErrNotFound for an unknown project so a
// missing parent is not mistaken for a missing document.
func (s *DocumentService) requireProject(ctx context.Context, projectID string) error {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return fmt.Errorf("project %s: %w", projectID, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
