// File: internal/services/retention/settings_service.go
package retention

import (
	"context"
	"errors"
	"fmt"

	"github.com/aiplatform/chat-backend/internal/domain"
	"github.com/aiplatform/chat-backend/internal/repository/settings"
	"github.com/aiplatform/chat-backend/internal/services"
)

// SettingsUpdate carries a partial policy update. Nil fields keep the
// stored value.
type SettingsUpdate struct {
	AutoCleanupEnabled *bool   `json:"auto_delete"`
	RetentionDays      *int    `json:"retention_days"`
	MaxChats           *int    `json:"max_chat_count"`
	ProtectedLimit     *int    `json:"protected_chats"`
	CleanupFrequency   *string `json:"cleanup_frequency"`
}

// SettingsService owns per-user retention policies. A user who has never
// touched their settings gets the defaults materialized on first read.
type SettingsService struct {
	settingsRepo settings.SettingsRepository
	logger       services.Logger
}

func NewSettingsService(settingsRepo settings.SettingsRepository, logger services.Logger) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo, logger: logger}
}

// GetOrCreate returns the user's policy, creating the default row if none
// exists yet.
func (s *SettingsService) GetOrCreate(ctx context.Context, userID uint) (*domain.RetentionSettings, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}

	existing, err := s.settingsRepo.FindByUserID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, settings.ErrSettingsNotFound) {
		return nil, err
	}

	defaults := domain.DefaultRetentionSettings(userID)
	created, err := s.settingsRepo.Create(ctx, defaults)
	if err != nil {
		// A concurrent first read may have won the insert race.
		if again, findErr := s.settingsRepo.FindByUserID(ctx, userID); findErr == nil {
			return again, nil
		}
		return nil, err
	}

	s.logger.Info("Created default retention settings", "user_id", userID)
	return created, nil
}

// Update applies a partial policy change and returns the stored result.
func (s *SettingsService) Update(ctx context.Context, userID uint, update SettingsUpdate) (*domain.RetentionSettings, error) {
	current, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.AutoCleanupEnabled != nil {
		current.AutoCleanupEnabled = *update.AutoCleanupEnabled
	}
	if update.RetentionDays != nil {
		if *update.RetentionDays < 1 {
			return nil, errors.New("retention days must be at least 1")
		}
		current.RetentionDays = *update.RetentionDays
	}
	if update.MaxChats != nil {
		if *update.MaxChats < 1 {
			return nil, errors.New("max chat count must be at least 1")
		}
		current.MaxChats = *update.MaxChats
	}
	if update.ProtectedLimit != nil {
		if *update.ProtectedLimit < 0 {
			return nil, errors.New("protected chat limit cannot be negative")
		}
		current.ProtectedLimit = *update.ProtectedLimit
	}
	if update.CleanupFrequency != nil {
		freq, err := domain.ParseCleanupFrequency(*update.CleanupFrequency)
		if err != nil {
			return nil, fmt.Errorf("invalid cleanup frequency: %w", err)
		}
		current.CleanupFrequency = freq
	}

	if err := s.settingsRepo.Save(ctx, current); err != nil {
		return nil, err
	}

	s.logger.Info("Updated retention settings", "user_id", userID,
		"auto_cleanup", current.AutoCleanupEnabled, "retention_days", current.RetentionDays)
	return current, nil
}
