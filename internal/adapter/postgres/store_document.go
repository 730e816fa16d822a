package postgres

import (
	"context"

	"github.com/Strob0t/PMForge/internal/domain/document"
)

// PRD and Spec rows are unique per project (prds_project_id_key,
// specs_project_id_key). A concurrent second create surfaces as
// domain.ErrConflict.

const prdColumns = `id, project_id, title, content, status, created_at, updated_at`

func scanPRD(row scannable) (document.PRD, error) {
	var (
		p       document.PRD
		content *string
	)
	err := row.Scan(&p.ID, &p.ProjectID, &p.Title, &content, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	p.Content = deref(content)
	return p, err
}

func (s *Store) GetPRD(ctx context.Context, projectID string) (*document.PRD, error) {
	p, err := scanPRD(s.pool.QueryRow(ctx,
		`SELECT `+prdColumns+` FROM prds WHERE project_id = $1`, projectID))
	if err != nil {
		return nil, wrapErr(err, "get prd for project %s", projectID)
	}
	return &p, nil
}

func (s *Store) CreatePRD(ctx context.Context, projectID string, req document.CreatePRDRequest) (*document.PRD, error) {
	p, err := scanPRD(s.pool.QueryRow(ctx,
		`INSERT INTO prds (project_id, title, content, status) VALUES ($1, $2, $3, $4)
		 RETURNING `+prdColumns,
		projectID, req.Title, nullIfEmpty(req.Content), req.Status))
	if err != nil {
		return nil, wrapErr(err, "create prd for project %s", projectID)
	}
	return &p, nil
}

func (s *Store) UpdatePRD(ctx context.Context, in *document.PRD) (*document.PRD, error) {
	p, err := scanPRD(s.pool.QueryRow(ctx,
		`UPDATE prds SET title = $2, content = $3, status = $4, updated_at = NOW()
		 WHERE project_id = $1
		 RETURNING `+prdColumns,
		in.ProjectID, in.Title, nullIfEmpty(in.Content), in.Status))
	if err != nil {
		return nil, wrapErr(err, "update prd for project %s", in.ProjectID)
	}
	return &p, nil
}

const specColumns = `id, project_id, title, content, technical_details, status, created_at, updated_at`

func scanSpec(row scannable) (document.Spec, error) {
	var (
		sp            document.Spec
		content, tech *string
	)
	err := row.Scan(&sp.ID, &sp.ProjectID, &sp.Title, &content, &tech, &sp.Status, &sp.CreatedAt, &sp.UpdatedAt)
	sp.Content = deref(content)
	sp.TechnicalDetails = deref(tech)
	return sp, err
}

func (s *Store) GetSpec(ctx context.Context, projectID string) (*document.Spec, error) {
	sp, err := scanSpec(s.pool.QueryRow(ctx,
		`SELECT `+specColumns+` FROM specs WHERE project_id = $1`, projectID))
	if err != nil {
		return nil, wrapErr(err, "get spec for project %s", projectID)
	}
	return &sp, nil
}

func (s *Store) CreateSpec(ctx context.Context, projectID string, req document.CreateSpecRequest) (*document.Spec, error) {
	sp, err := scanSpec(s.pool.QueryRow(ctx,
		`INSERT INTO specs (project_id, title, content, technical_details, status) VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+specColumns,
		projectID, req.Title, nullIfEmpty(req.Content), nullIfEmpty(req.TechnicalDetails), req.Status))
	if err != nil {
		return nil, wrapErr(err, "create spec for project %s", projectID)
	}
	return &sp, nil
}

func (s *Store) UpdateSpec(ctx context.Context, in *document.Spec) (*document.Spec, error) {
	sp, err := scanSpec(s.pool.QueryRow(ctx,
		`UPDATE specs SET title = $2, content = $3, technical_details = $4, status = $5, updated_at = NOW()
		 WHERE project_id = $1
		 RETURNING `+specColumns,
		in.ProjectID, in.Title, nullIfEmpty(in.Content), nullIfEmpty(in.TechnicalDetails), in.Status))
	if err != nil {
		return nil, wrapErr(err, "update spec for project %s", in.ProjectID)
	}
	return &sp, nil
}
