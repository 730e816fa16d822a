// Package workspace holds the client-side surfaces of a project (chat panel,
// document workspace, roadmap board), the refresh orchestrator that pulls
// authoritative state after out-of-band changes, and the chat session that
// ties the agent bridge to both.
package workspace

import (
	"context"

	"github.com/Strob0t/PMForge/internal/domain/agent"
	"github.com/Strob0t/PMForge/internal/domain/chat"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
)

// ProjectReader fetches the authoritative project state. Missing singleton
// documents are reported as errors matching domain.ErrNotFound.
type ProjectReader interface {
	GetProject(ctx context.Context, id string) (*project.Project, error)
	GetPRD(ctx context.Context, projectID string) (*document.PRD, error)
	GetSpec(ctx context.Context, projectID string) (*document.Spec, error)
}

// DocumentWriter saves singleton documents, creating them on first save.
type DocumentWriter interface {
	UpsertPRD(ctx context.Context, projectID string, req document.UpdatePRDRequest) (*document.PRD, error)
	UpsertSpec(ctx context.Context, projectID string, req document.UpdateSpecRequest) (*document.Spec, error)
}

// RoadmapClient reads and edits roadmap tasks.
type RoadmapClient interface {
	ListRoadmap(ctx context.Context, projectID string) ([]roadmap.Task, error)
	CreateRoadmapTask(ctx context.Context, projectID string, req roadmap.CreateTaskRequest) (*roadmap.Task, error)
	UpdateRoadmapTask(ctx context.Context, id string, req roadmap.UpdateTaskRequest) (*roadmap.Task, error)
	DeleteRoadmapTask(ctx context.Context, id string) error
}

// TranscriptStore persists chat messages. The idempotency key lets a
// retried create return the original row.
type TranscriptStore interface {
	RecentMessages(ctx context.Context, projectID string, limit int) ([]chat.Message, error)
	CreateMessage(ctx context.Context, projectID string, req chat.CreateRequest, idempotencyKey string) (*chat.Message, error)
}

// Bridge is the agent service. Any call may change stored documents as a
// side effect; callers refresh afterwards.
type Bridge interface {
	Chat(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error)
	GeneratePRD(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error)
	GenerateSpec(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error)
	GenerateRoadmap(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error)
	RoadmapChat(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error)

	// Conversation and ClearConversation reach the agent's own memory,
	// which is separate from the persisted transcript.
	Conversation(ctx context.Context, agentType agent.Type) ([]agent.ConversationEntry, error)
	ClearConversation(ctx context.Context, agentType agent.Type) error
}

// Remote is everything a workspace needs from the PMForge API.
type Remote interface {
	ProjectReader
	DocumentWriter
	RoadmapClient
	TranscriptStore
}
