package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/kyberwheel/backend/internal/ai"
	"github.com/kyberwheel/backend/internal/logger"
	"github.com/kyberwheel/backend/internal/models"
	"github.com/kyberwheel/backend/internal/pkg/apperror"
	"github.com/kyberwheel/backend/internal/validation"
)

// Completer получает ответ модели на диалог.
type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// AssistantService проксирует диалог к языковой модели и сохраняет обмен в историю.
type AssistantService struct {
	completer Completer
	history   ChatHistoryStore
}

// NewAssistantService создаёт сервис ассистента.
func NewAssistantService(completer Completer, history ChatHistoryStore) *AssistantService {
	return &AssistantService{completer: completer, history: history}
}

// Chat отправляет сообщения пользователя модели и возвращает ответ.
// Ошибка сохранения истории не влияет на ответ.
func (s *AssistantService) Chat(ctx context.Context, userID string, messages []models.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", apperror.Validation("список сообщений обязателен")
	}
	if len(messages) > validation.MaxChatMessagesCount {
		return "", apperror.Validation(fmt.Sprintf("не более %d сообщений", validation.MaxChatMessagesCount))
	}
	for _, m := range messages {
		if m.Role != models.ChatRoleUser && m.Role != models.ChatRoleAssistant {
			return "", apperror.Validation("недопустимая роль сообщения")
		}
		if err := validation.ValidateMessageContent(m.Content); err != nil {
			return "", apperror.Validation(err.Error())
		}
	}

	content, err := s.completer.Complete(ctx, ai.WithSystemPrompt(messages))
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"user_id": userID,
			"error":   err.Error(),
		}).Error("assistant service: ошибка ИИ-провайдера")

		if errors.Is(err, ai.ErrRateLimited) {
			return "", apperror.Wrap(err, apperror.ErrCodeAIRateLimited, "слишком много запросов, попробуйте позже")
		}
		return "", apperror.Wrap(err, apperror.ErrCodeAI, "ИИ-ассистент временно недоступен")
	}

	entry := &models.ChatEntry{
		ID:               newID(),
		UserID:           userID,
		UserMessage:      messages[len(messages)-1].Content,
		AssistantMessage: content,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("assistant service: не удалось сохранить историю")
	}

	return content, nil
}
