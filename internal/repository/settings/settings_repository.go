// File: internal/repository/settings/settings_repository.go
package settings

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/aiplatform/chat-backend/internal/domain"
)

var ErrSettingsNotFound = errors.New("retention settings not found")

type gormSettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &gormSettingsRepository{db: db}
}

func (r *gormSettingsRepository) FindByUserID(ctx context.Context, userID uint) (*domain.RetentionSettings, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}

	var settings domain.RetentionSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		log.Printf("[SettingsRepository] Database error finding settings for user ID %d: %v", userID, err)
		return nil, errors.New("database error fetching settings")
	}
	return &settings, nil
}

func (r *gormSettingsRepository) Create(ctx context.Context, settings *domain.RetentionSettings) (*domain.RetentionSettings, error) {
	if settings == nil || settings.UserID == 0 {
		return nil, errors.New("invalid settings")
	}

	if err := r.db.WithContext(ctx).Create(settings).Error; err != nil {
		log.Printf("[SettingsRepository] Database error creating settings for user ID %d: %v", settings.UserID, err)
		return nil, errors.New("database error creating settings")
	}
	return settings, nil
}

func (r *gormSettingsRepository) Save(ctx context.Context, settings *domain.RetentionSettings) error {
	if settings == nil || settings.ID == 0 {
		return errors.New("invalid settings")
	}

	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		log.Printf("[SettingsRepository] Database error saving settings for user ID %d: %v", settings.UserID, err)
		return errors.New("database error saving settings")
	}
	return nil
}

// FindAutoCleanupEnabled returns every policy with automatic cleanup
// switched on; the scheduled sweep iterates this set.
func (r *gormSettingsRepository) FindAutoCleanupEnabled(ctx context.Context) ([]domain.RetentionSettings, error) {
	var rows []domain.RetentionSettings
	err := r.db.WithContext(ctx).Where("auto_cleanup_enabled = ?", true).Find(&rows).Error
	if err != nil {
		log.Printf("[SettingsRepository] Database error listing auto-cleanup policies: %v", err)
		return nil, errors.New("database error listing settings")
	}
	return rows, nil
}
