package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kyberwheel/backend/internal/http/handlers/common"
	"github.com/kyberwheel/backend/internal/models"
)

// ChatHistoryUseCase операции с историей чата.
type ChatHistoryUseCase interface {
	List(ctx context.Context, userID string) ([]models.ChatEntry, error)
	Create(ctx context.Context, userID, userMessage, assistantMessage string) (*models.ChatEntry, error)
	Delete(ctx context.Context, userID, id string) error
}

// ChatHistoryHandler HTTP слой истории чата. Все маршруты требуют авторизации.
type ChatHistoryHandler struct {
	history ChatHistoryUseCase
}

// NewChatHistoryHandler создаёт хэндлер.
func NewChatHistoryHandler(history ChatHistoryUseCase) *ChatHistoryHandler {
	return &ChatHistoryHandler{history: history}
}

// List обрабатывает GET /api/chat-history.
func (h *ChatHistoryHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	entries, err := h.history.List(c.Request.Context(), userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// Create обрабатывает POST /api/chat-history.
func (h *ChatHistoryHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req struct {
		UserMessage      string `json:"user_message"`
		AssistantMessage string `json:"assistant_message"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	entry, err := h.history.Create(c.Request.Context(), userID, req.UserMessage, req.AssistantMessage)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": entry.ID, "success": true})
}

// Delete обрабатывает DELETE /api/chat-history/:id.
func (h *ChatHistoryHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	if err := h.history.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
