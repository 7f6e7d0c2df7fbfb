package message

import (
	"context"

	"github.com/aiplatform/chat-backend/internal/domain"
)

// MessageRepository handles message data operations.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (*domain.Message, error)
	FindByChatID(ctx context.Context, chatID uint) ([]domain.Message, error)
	CountByChatID(ctx context.Context, chatID uint) (int64, error)
	CountByUserID(ctx context.Context, userID uint) (int64, error)
	DeleteByChatID(ctx context.Context, chatID uint) (int64, error)
}
