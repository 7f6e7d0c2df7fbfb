package adminmessage

import (
	"context"

	"github.com/aiplatform/chat-backend/internal/domain"
)

// AdminMessageRepository handles staff-to-user message rows.
type AdminMessageRepository interface {
	Create(ctx context.Context, msg *domain.AdminMessage) (*domain.AdminMessage, error)
	FindByID(ctx context.Context, id uint) (*domain.AdminMessage, error)
	FindByRecipient(ctx context.Context, userID uint, limit, offset int) ([]domain.AdminMessage, int64, error)
	FindSupportThread(ctx context.Context, userID uint) ([]domain.AdminMessage, error)
	MarkRead(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}
