package postgres

import (
	"context"
	"fmt"

	"github.com/Strob0t/PMForge/internal/domain/chat"
)

const messageColumns = `id, project_id, role, content, message_type, metadata, created_at`

func scanMessage(row scannable) (chat.Message, error) {
	var (
		m    chat.Message
		meta []byte
	)
	err := row.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &m.MessageType, &meta, &m.CreatedAt)
	m.Metadata = chat.NormalizeMetadata(meta)
	return m, err
}

func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]chat.Message, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err, "list chat messages")
	}
	defer rows.Close()

	var result []chat.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		result = append(result, m)
	}
	return orEmpty(result), rows.Err()
}

func (s *Store) ListChatMessages(ctx context.Context, projectID string) ([]chat.Message, error) {
	return s.queryMessages(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE project_id = $1 ORDER BY created_at, seq`,
		projectID)
}

// RecentChatMessages reads the newest page in DESC order and flips it.
func (s *Store) RecentChatMessages(ctx context.Context, projectID string, limit int) ([]chat.Message, error) {
	msgs, err := s.queryMessages(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE project_id = $1
		 ORDER BY created_at DESC, seq DESC LIMIT $2`,
		projectID, limit)
	if err != nil {
		return nil, err
	}
	chat.Reverse(msgs)
	return msgs, nil
}

func (s *Store) CreateChatMessage(ctx context.Context, projectID string, req chat.CreateRequest) (*chat.Message, error) {
	m, err := scanMessage(s.pool.QueryRow(ctx,
		`INSERT INTO chat_messages (project_id, role, content, message_type, metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+messageColumns,
		projectID, req.Role, req.Content, req.MessageType, []byte(chat.NormalizeMetadata(req.Metadata))))
	if err != nil {
		return nil, wrapErr(err, "create chat message for project %s", projectID)
	}
	return &m, nil
}

func (s *Store) DeleteChatMessage(ctx context.Context, projectID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM chat_messages WHERE id = $1 AND project_id = $2`, id, projectID)
	return execExpectOne(tag, err, "delete chat message %s", id)
}

func (s *Store) ClearChatMessages(ctx context.Context, projectID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM chat_messages WHERE project_id = $1`, projectID)
	if err != nil {
		return 0, wrapErr(err, "clear chat messages for project %s", projectID)
	}
	return tag.RowsAffected(), nil
}
