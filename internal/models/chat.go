package models

import "time"

// ChatEntry пара вопрос пользователя и ответ ассистента в истории чата.
type ChatEntry struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"-"`
	UserMessage      string    `db:"user_message" json:"user_message"`
	AssistantMessage string    `db:"assistant_message" json:"assistant_message"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// ChatMessage сообщение в формате OpenAI-совместимого API.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)
