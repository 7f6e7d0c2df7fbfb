// File: internal/domain/admin_message.go
package domain

import "time"

// AdminMessageType distinguishes one-way notices from support-chat traffic.
type AdminMessageType string

const (
	AdminMessageNotice  AdminMessageType = "notice"
	AdminMessageSupport AdminMessageType = "support"
)

// AdminMessage is a message relayed between staff and a user. Support-chat
// messages from a user carry a nil ToUserID until a support agent picks
// them up.
type AdminMessage struct {
	ID          uint             `json:"id" gorm:"primarykey"`
	FromUserID  *uint            `json:"from_user_id,omitempty"`
	ToUserID    *uint            `json:"to_user_id,omitempty" gorm:"index"`
	Subject     string           `json:"subject" gorm:"size:200"`
	Content     string           `json:"content" gorm:"not null;type:text"`
	MessageType AdminMessageType `json:"message_type" gorm:"not null;default:notice"`
	IsRead      bool             `json:"is_read" gorm:"not null;default:false"`
	CreatedAt   time.Time        `json:"created_at"`
}
