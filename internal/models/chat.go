package models

import "time"

// Роли сообщений в чате с ассистентом.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage — одно сообщение диалога с юридическим ассистентом.
// Журнал только дописывается, сообщения не изменяются.
type ChatMessage struct {
	ID        int64     `json:"id"`
	ChatID    string    `json:"chat_id"`
	UserUID   string    `json:"user_uid"`
	Role      string    `json:"role"` // user или assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
