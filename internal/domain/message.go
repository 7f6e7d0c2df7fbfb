// File: internal/domain/message.go
package domain

import "time"

// MessageRole identifies the author of a message within a chat.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// ValidRole reports whether r is one of the known message roles.
func ValidRole(r MessageRole) bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// Message represents a single message within a chat.
type Message struct {
	ID        uint        `json:"id" gorm:"primarykey"`
	ChatID    uint        `json:"chat_id" gorm:"not null;index"`
	Role      MessageRole `json:"role" gorm:"not null"`
	Content   string      `json:"content" gorm:"not null;type:text"`
	Metadata  string      `json:"metadata,omitempty" gorm:"type:text"`
	CreatedAt time.Time   `json:"created_at"`
}

// Preview returns the message content truncated for list views.
func (m *Message) Preview(maxLen int) string {
	content := []rune(m.Content)
	if len(content) <= maxLen {
		return m.Content
	}
	return string(content[:maxLen]) + "..."
}
