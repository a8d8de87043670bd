package ai

import "github.com/kyberwheel/backend/internal/models"

// SystemPrompt задаёт роль ассистента компании.
const SystemPrompt = `Ты — ИИ-ассистент компании КИБЕРВИЛЛ. Ты помогаешь пользователям с вопросами о:
- Мониторинге строительства и промышленных объектов
- Платёжных системах и финансовой автоматизации
- Цифровизации образования и VR-обучении
- Мониторинге территорий и городской среды
- Станкостроении и импортозамещении
- Разработке программного обеспечения

Отвечай кратко, по делу, на русском языке. Будь дружелюбным и профессиональным.
Если вопрос не связан с деятельностью компании, всё равно постарайся помочь.`

// WithSystemPrompt возвращает новый срез с системным сообщением в начале.
func WithSystemPrompt(messages []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(messages)+1)
	out = append(out, models.ChatMessage{Role: models.ChatRoleSystem, Content: SystemPrompt})
	return append(out, messages...)
}
