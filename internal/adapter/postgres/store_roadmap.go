package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/PMForge/internal/domain/roadmap"
)

const taskColumns = `id, project_id, title, description, priority, status, quarter,
	estimated_effort, dependencies, sort_order, created_at, updated_at`

const taskOrder = ` ORDER BY sort_order, created_at, id`

func scanTask(row scannable) (roadmap.Task, error) {
	var (
		t    roadmap.Task
		deps string
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Priority, &t.Status, &t.Quarter,
		&t.EstimatedEffort, &deps, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt)
	t.Dependencies = roadmap.ParseDependencies(deps)
	return t, err
}

func (s *Store) listTasks(ctx context.Context, where string, args ...any) ([]roadmap.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM roadmap_tasks WHERE `+where+taskOrder, args...)
	if err != nil {
		return nil, wrapErr(err, "list roadmap tasks")
	}
	defer rows.Close()

	var tasks []roadmap.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan roadmap task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return orEmpty(tasks), rows.Err()
}

func (s *Store) ListRoadmapTasks(ctx context.Context, projectID string) ([]roadmap.Task, error) {
	return s.listTasks(ctx, `project_id = $1`, projectID)
}

func (s *Store) ListRoadmapTasksByQuarter(ctx context.Context, projectID, quarter string) ([]roadmap.Task, error) {
	return s.listTasks(ctx, `project_id = $1 AND quarter = $2`, projectID, quarter)
}

func (s *Store) ListRoadmapTasksByStatus(ctx context.Context, projectID string, status roadmap.Status) ([]roadmap.Task, error) {
	return s.listTasks(ctx, `project_id = $1 AND status = $2`, projectID, status)
}

func (s *Store) GetRoadmapTask(ctx context.Context, id string) (*roadmap.Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM roadmap_tasks WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, "get roadmap task %s", id)
	}
	return &t, nil
}

// CreateRoadmapTasks inserts all tasks in one transaction. A zero sort_order
// is replaced by the task's position after the project's current last task.
func (s *Store) CreateRoadmapTasks(ctx context.Context, projectID string, reqs []roadmap.CreateTaskRequest) ([]roadmap.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var next int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM roadmap_tasks WHERE project_id = $1`, projectID,
	).Scan(&next); err != nil {
		return nil, wrapErr(err, "next sort order for project %s", projectID)
	}

	created := make([]roadmap.Task, 0, len(reqs))
	for i := range reqs {
		req := &reqs[i]
		order := req.SortOrder
		if order == 0 {
			order = next
			next++
		}
		t, err := scanTask(tx.QueryRow(ctx,
			`INSERT INTO roadmap_tasks
			   (project_id, title, description, priority, status, quarter, estimated_effort, dependencies, sort_order)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING `+taskColumns,
			projectID, req.Title, req.Description, req.Priority, req.Status, req.Quarter,
			req.EstimatedEffort, req.Dependencies.String(), order))
		if err != nil {
			return nil, wrapErr(err, "create roadmap task %d for project %s", i, projectID)
		}
		created = append(created, t)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit roadmap tasks: %w", err)
	}
	return created, nil
}

func (s *Store) UpdateRoadmapTask(ctx context.Context, in *roadmap.Task) (*roadmap.Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx,
		`UPDATE roadmap_tasks SET title = $2, description = $3, priority = $4, status = $5, quarter = $6,
		   estimated_effort = $7, dependencies = $8, sort_order = $9, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+taskColumns,
		in.ID, in.Title, in.Description, in.Priority, in.Status, in.Quarter,
		in.EstimatedEffort, in.Dependencies.String(), in.SortOrder))
	if err != nil {
		return nil, wrapErr(err, "update roadmap task %s", in.ID)
	}
	return &t, nil
}

func (s *Store) DeleteRoadmapTask(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM roadmap_tasks WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete roadmap task %s", id)
}

func (s *Store) ClearRoadmap(ctx context.Context, projectID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM roadmap_tasks WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, wrapErr(err, "clear roadmap for project %s", projectID)
	}
	return tag.RowsAffected(), nil
}
