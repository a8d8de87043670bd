package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kyberwheel/backend/internal/http/handlers/common"
	"github.com/kyberwheel/backend/internal/models"
)

// AssistantUseCase диалог с ИИ-ассистентом.
type AssistantUseCase interface {
	Chat(ctx context.Context, userID string, messages []models.ChatMessage) (string, error)
}

// AIChatHandler HTTP слой ИИ-чата.
type AIChatHandler struct {
	assistant AssistantUseCase
}

// NewAIChatHandler создаёт хэндлер.
func NewAIChatHandler(assistant AssistantUseCase) *AIChatHandler {
	return &AIChatHandler{assistant: assistant}
}

// Chat обрабатывает POST /api/ai/chat.
func (h *AIChatHandler) Chat(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	content, err := h.assistant.Chat(c.Request.Context(), userID, req.Messages)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": content})
}
