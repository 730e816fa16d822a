package service

import (
	"context"
	"fmt"

	"github.com/Strob0t/PMForge/internal/domain"
	"github.com/Strob0t/PMForge/internal/domain/chat"
	"github.com/Strob0t/PMForge/internal/port/database"
)

// ChatService manages the append-only chat transcript of each project.
type ChatService struct {
	store database.Store
}

// NewChatService creates a new ChatService.
func NewChatService(store database.Store) *ChatService {
	return &ChatService{store: store}
}

// List returns the full transcript in ascending order.
func (s *ChatService) List(ctx context.Context, projectID string) ([]chat.Message, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	return s.store.ListChatMessages(ctx, projectID)
}

// Recent returns the newest limit messages in ascending order. limit is
// clamped to chat.MaxRecentLimit; zero or negative means the default.
func (s *ChatService) Recent(ctx context.Context, projectID string, limit int) ([]chat.Message, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	return s.store.RecentChatMessages(ctx, projectID, chat.ClampRecentLimit(limit))
}

// Create appends a message to the transcript.
func (s *ChatService) Create(ctx context.Context, projectID string, req chat.CreateRequest) (*chat.Message, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return nil, err
	}
	if err := chat.NormalizeCreate(&req); err != nil {
		return nil, err
	}
	m, err := s.store.CreateChatMessage(ctx, projectID, req)
	if err != nil {
		return nil, fmt.Errorf("create chat message: %w", err)
	}
	return m, nil
}

// Delete removes a single message of the project.
func (s *ChatService) Delete(ctx context.Context, projectID, id string) error {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return err
	}
	if err := domain.ValidateID("message id", id); err != nil {
		return err
	}
	return s.store.DeleteChatMessage(ctx, projectID, id)
}

// Clear removes the whole transcript and returns how many messages were deleted.
func (s *ChatService) Clear(ctx context.Context, projectID string) (int64, error) {
	if err := domain.ValidateID("project id", projectID); err != nil {
		return 0, err
	}
	return s.store.ClearChatMessages(ctx, projectID)
}
