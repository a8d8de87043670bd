package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kyberwheel/backend/internal/models"
)

// ErrChatEntryNotFound возвращается, если запись не найдена или принадлежит другому пользователю.
var ErrChatEntryNotFound = errors.New("chat entry not found")

// ChatHistoryRepository работает с таблицей chat_history.
type ChatHistoryRepository struct {
	db *sqlx.DB
}

// NewChatHistoryRepository создаёт экземпляр репозитория.
func NewChatHistoryRepository(db *sqlx.DB) *ChatHistoryRepository {
	return &ChatHistoryRepository{db: db}
}

// ListByUser возвращает последние записи пользователя, новые первыми.
func (r *ChatHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.ChatEntry, error) {
	entries := []models.ChatEntry{}
	query := `
		SELECT id, user_id, user_message, assistant_message, created_at
		FROM chat_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("chat history repository: list %w", err)
	}
	return entries, nil
}

// Create сохраняет запись.
func (r *ChatHistoryRepository) Create(ctx context.Context, entry *models.ChatEntry) error {
	query := `
		INSERT INTO chat_history (id, user_id, user_message, assistant_message, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		entry.ID, entry.UserID, entry.UserMessage, entry.AssistantMessage,
	).Scan(&entry.CreatedAt); err != nil {
		return fmt.Errorf("chat history repository: create %w", err)
	}
	return nil
}

// Delete удаляет запись, только если она принадлежит userID.
func (r *ChatHistoryRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_history WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("chat history repository: delete %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("chat history repository: delete rows affected %w", err)
	}
	if n == 0 {
		return ErrChatEntryNotFound
	}
	return nil
}
