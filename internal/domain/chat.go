// File: internal/domain/chat.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Modality is the fixed category of AI interaction a chat represents.
type Modality string

const (
	ModalityTextToText   Modality = "text_to_text"
	ModalityTextToImage  Modality = "text_to_image"
	ModalityImageToText  Modality = "image_to_text"
	ModalityImageToImage Modality = "image_to_image"
	ModalityTextTo3D     Modality = "text_to_3d"
	ModalityTextToVideo  Modality = "text_to_video"
)

// Modalities lists every valid modality value.
var Modalities = []Modality{
	ModalityTextToText,
	ModalityTextToImage,
	ModalityImageToText,
	ModalityImageToImage,
	ModalityTextTo3D,
	ModalityTextToVideo,
}

// ParseModality parses a modality string. Clients send the dashed form
// ("text-to-image"); the stored form uses underscores, so both are accepted.
func ParseModality(s string) (Modality, error) {
	normalized := Modality(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for _, m := range Modalities {
		if m == normalized {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown modality %q", s)
}

// Chat represents a single conversation thread owned by one user.
type Chat struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	UserID       uint      `json:"user_id" gorm:"not null;index"`
	Title        string    `json:"title" gorm:"size:500"`
	Modality     Modality  `json:"modality" gorm:"not null;default:text_to_text"`
	IsFavorite   bool      `json:"is_favorite" gorm:"not null;default:false"`
	IsProtected  bool      `json:"is_protected" gorm:"not null;default:false"`
	MessageCount int       `json:"message_count" gorm:"not null;default:0"`
	LastActivity time.Time `json:"last_activity" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayTitle falls back to a generated placeholder when the title is blank.
func (c *Chat) DisplayTitle() string {
	if strings.TrimSpace(c.Title) != "" {
		return c.Title
	}
	return fmt.Sprintf("%s - %s", c.Modality, c.CreatedAt.Format("2006-01-02"))
}

// BelongsToUser reports whether the chat is owned by the given user.
func (c *Chat) BelongsToUser(userID uint) bool {
	return c.UserID != 0 && c.UserID == userID
}
