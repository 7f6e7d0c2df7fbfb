package chat

import (
	"context"
	"time"

	"github.com/aiplatform/chat-backend/internal/domain"
)

// Filter holds the independently optional predicates for listing chats.
// Zero values mean "no filter"; predicates are only ever AND-combined.
type Filter struct {
	Keyword      string
	Modality     domain.Modality
	FavoriteOnly bool
	Since        *time.Time
}

// ChatRepository handles chat data operations.
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error)
	FindByID(ctx context.Context, id uint) (*domain.Chat, error)
	FindByIDAndUserID(ctx context.Context, chatID, userID uint) (*domain.Chat, error)
	FindAllByUserID(ctx context.Context, userID uint) ([]domain.Chat, error)
	ListWithFilters(ctx context.Context, userID uint, filter Filter, limit, offset int) ([]domain.Chat, int64, error)
	SearchTitles(ctx context.Context, userID uint, query string, limit int) ([]domain.Chat, error)
	Update(ctx context.Context, chat *domain.Chat) error
	RecordActivity(ctx context.Context, chatID uint, at time.Time) error
	DeleteWithMessages(ctx context.Context, chatID uint) error
	FindCleanupCandidates(ctx context.Context, userID uint, cutoff time.Time) ([]domain.Chat, error)
	FindUnprotected(ctx context.Context, userID uint) ([]domain.Chat, error)
	CountByUserID(ctx context.Context, userID uint) (int64, error)
	CountFavorites(ctx context.Context, userID uint) (int64, error)
	CountProtected(ctx context.Context, userID uint) (int64, error)
	CountOlderThan(ctx context.Context, userID uint, cutoff time.Time) (int64, error)
}
