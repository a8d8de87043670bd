package service

import (
	"context"
	"errors"
	"strings"

	"github.com/kyberwheel/backend/internal/models"
	"github.com/kyberwheel/backend/internal/pkg/apperror"
	"github.com/kyberwheel/backend/internal/repository"
	"github.com/kyberwheel/backend/internal/validation"
)

// ChatHistoryLimit сколько последних записей отдаётся пользователю.
const ChatHistoryLimit = 100

// ChatHistoryStore хранилище истории чата.
type ChatHistoryStore interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.ChatEntry, error)
	Create(ctx context.Context, entry *models.ChatEntry) error
	Delete(ctx context.Context, id, userID string) error
}

// ChatHistoryService управляет историей чата пользователя.
type ChatHistoryService struct {
	store ChatHistoryStore
}

// NewChatHistoryService создаёт сервис.
func NewChatHistoryService(store ChatHistoryStore) *ChatHistoryService {
	return &ChatHistoryService{store: store}
}

// List возвращает последние записи пользователя, новые первыми.
func (s *ChatHistoryService) List(ctx context.Context, userID string) ([]models.ChatEntry, error) {
	entries, err := s.store.ListByUser(ctx, userID, ChatHistoryLimit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return entries, nil
}

// Create сохраняет пару сообщений. Ответ ассистента может быть пустым.
func (s *ChatHistoryService) Create(ctx context.Context, userID, userMessage, assistantMessage string) (*models.ChatEntry, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return nil, apperror.Validation("Сообщение не может быть пустым")
	}
	if err := validation.ValidateMessageContent(userMessage); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	entry := &models.ChatEntry{
		ID:               newID(),
		UserID:           userID,
		UserMessage:      userMessage,
		AssistantMessage: strings.TrimSpace(assistantMessage),
	}
	if err := s.store.Create(ctx, entry); err != nil {
		return nil, apperror.Internal(err)
	}
	return entry, nil
}

// Delete удаляет запись пользователя. Чужая запись неотличима от отсутствующей.
func (s *ChatHistoryService) Delete(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.Validation("ID не указан")
	}
	if err := s.store.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrChatEntryNotFound) {
			return apperror.ErrChatEntryNotFound
		}
		return apperror.Internal(err)
	}
	return nil
}
