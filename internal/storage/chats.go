package storage

import (
	"context"
	"fmt"

	"github.com/lexserve/lexserve-backend/internal/models"
)

// AppendChatMessage дописывает сообщение в журнал чата и возвращает его id.
func (s *Storage) AppendChatMessage(ctx context.Context, m models.ChatMessage) (int64, error) {
	const op = "storage.AppendChatMessage"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO chat_messages (chat_id, user_uid, role, content)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query, m.ChatID, m.UserUID, m.Role, m.Content).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListChatMessages возвращает последние limit сообщений чата в порядке добавления.
func (s *Storage) ListChatMessages(ctx context.Context, chatID string, limit int) ([]*models.ChatMessage, error) {
	const op = "storage.ListChatMessages"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, chat_id, user_uid, role, content, created_at
			  FROM (SELECT id, chat_id, user_uid, role, content, created_at
			        FROM chat_messages
			        WHERE chat_id = $1
			        ORDER BY id DESC
			        LIMIT $2) AS tail
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ChatMessage
	for rows.Next() {
		var item models.ChatMessage
		if err := rows.Scan(&item.ID, &item.ChatID, &item.UserUID, &item.Role,
			&item.Content, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
