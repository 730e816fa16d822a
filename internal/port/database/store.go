// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/PMForge/internal/domain/chat"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
)

// Store is the port interface for database operations. Lookups of missing
// rows return domain.ErrNotFound; unique violations return domain.ErrConflict.
type Store interface {
	ProjectStore
	DocumentStore
	RoadmapStore
	ChatStore

	Ping(ctx context.Context) error
}

// ProjectStore persists projects. Deleting a project cascades to every row
// it owns.
type ProjectStore interface {
	ListProjects(ctx context.Context) ([]project.Project, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	CreateProject(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	UpdateProject(ctx context.Context, p *project.Project) (*project.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

// DocumentStore persists the singleton PRD and Spec of each project.
type DocumentStore interface {
	GetPRD(ctx context.Context, projectID string) (*document.PRD, error)
	CreatePRD(ctx context.Context, projectID string, req document.CreatePRDRequest) (*document.PRD, error)
	UpdatePRD(ctx context.Context, prd *document.PRD) (*document.PRD, error)

	GetSpec(ctx context.Context, projectID string) (*document.Spec, error)
	CreateSpec(ctx context.Context, projectID string, req document.CreateSpecRequest) (*document.Spec, error)
	UpdateSpec(ctx context.Context, spec *document.Spec) (*document.Spec, error)
}

// RoadmapStore persists roadmap tasks.
type RoadmapStore interface {
	ListRoadmapTasks(ctx context.Context, projectID string) ([]roadmap.Task, error)
	ListRoadmapTasksByQuarter(ctx context.Context, projectID, quarter string) ([]roadmap.Task, error)
	ListRoadmapTasksByStatus(ctx context.Context, projectID string, status roadmap.Status) ([]roadmap.Task, error)
	GetRoadmapTask(ctx context.Context, id string) (*roadmap.Task, error)
	// CreateRoadmapTasks inserts all tasks in one transaction.
	CreateRoadmapTasks(ctx context.Context, projectID string, reqs []roadmap.CreateTaskRequest) ([]roadmap.Task, error)
	UpdateRoadmapTask(ctx context.Context, t *roadmap.Task) (*roadmap.Task, error)
	DeleteRoadmapTask(ctx context.Context, id string) error
	ClearRoadmap(ctx context.Context, projectID string) (int64, error)
}

// ChatStore persists the append-only chat transcript.
type ChatStore interface {
	ListChatMessages(ctx context.Context, projectID string) ([]chat.Message, error)
	// RecentChatMessages returns the newest limit messages in ascending order.
	RecentChatMessages(ctx context.Context, projectID string, limit int) ([]chat.Message, error)
	CreateChatMessage(ctx context.Context, projectID string, req chat.CreateRequest) (*chat.Message, error)
	DeleteChatMessage(ctx context.Context, projectID, id string) error
	ClearChatMessages(ctx context.Context, projectID string) (int64, error)
}
