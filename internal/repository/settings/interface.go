package settings

import (
	"context"

	"github.com/aiplatform/chat-backend/internal/domain"
)

// SettingsRepository handles retention-policy rows, one per user.
type SettingsRepository interface {
	FindByUserID(ctx context.Context, userID uint) (*domain.RetentionSettings, error)
	Create(ctx context.Context, settings *domain.RetentionSettings) (*domain.RetentionSettings, error)
	Save(ctx context.Context, settings *domain.RetentionSettings) error
	FindAutoCleanupEnabled(ctx context.Context) ([]domain.RetentionSettings, error)
}
