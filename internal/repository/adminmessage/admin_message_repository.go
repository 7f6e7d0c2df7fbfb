// File: internal/repository/adminmessage/admin_message_repository.go
package adminmessage

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/aiplatform/chat-backend/internal/domain"
)

var ErrAdminMessageNotFound = errors.New("admin message not found")

type gormAdminMessageRepository struct {
	db *gorm.DB
}

func NewAdminMessageRepository(db *gorm.DB) AdminMessageRepository {
	return &gormAdminMessageRepository{db: db}
}

func (r *gormAdminMessageRepository) Create(ctx context.Context, msg *domain.AdminMessage) (*domain.AdminMessage, error) {
	if msg == nil || msg.Content == "" {
		return nil, errors.New("invalid admin message")
	}

	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		log.Printf("[AdminMessageRepository] Database error creating message: %v", err)
		return nil, errors.New("database error creating admin message")
	}
	return msg, nil
}

func (r *gormAdminMessageRepository) FindByID(ctx context.Context, id uint) (*domain.AdminMessage, error) {
	if id == 0 {
		return nil, errors.New("invalid message ID")
	}

	var msg domain.AdminMessage
	err := r.db.WithContext(ctx).First(&msg, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminMessageNotFound
		}
		log.Printf("[AdminMessageRepository] Database error finding message ID %d: %v", id, err)
		return nil, errors.New("database query failed")
	}
	return &msg, nil
}

func (r *gormAdminMessageRepository) FindByRecipient(ctx context.Context, userID uint, limit, offset int) ([]domain.AdminMessage, int64, error) {
	if userID == 0 {
		return nil, 0, errors.New("invalid user ID")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := r.db.WithContext(ctx).Model(&domain.AdminMessage{}).Where("to_user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("[AdminMessageRepository] Database error counting messages for user ID %d: %v", userID, err)
		return nil, 0, errors.New("database error counting admin messages")
	}

	var msgs []domain.AdminMessage
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	if err != nil {
		log.Printf("[AdminMessageRepository] Database error listing messages for user ID %d: %v", userID, err)
		return nil, 0, errors.New("database error listing admin messages")
	}
	return msgs, total, nil
}

// FindSupportThread returns the full support conversation for a user in
// chronological order, both directions included.
func (r *gormAdminMessageRepository) FindSupportThread(ctx context.Context, userID uint) ([]domain.AdminMessage, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}

	var msgs []domain.AdminMessage
	err := r.db.WithContext(ctx).
		Where("message_type = ? AND (to_user_id = ? OR from_user_id = ?)", domain.AdminMessageSupport, userID, userID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		log.Printf("[AdminMessageRepository] Database error fetching support thread for user ID %d: %v", userID, err)
		return nil, errors.New("database error fetching support thread")
	}
	return msgs, nil
}

func (r *gormAdminMessageRepository) MarkRead(ctx context.Context, id uint) error {
	if id == 0 {
		return errors.New("invalid message ID")
	}

	result := r.db.WithContext(ctx).
		Model(&domain.AdminMessage{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		log.Printf("[AdminMessageRepository] Database error marking message ID %d read: %v", id, result.Error)
		return errors.New("database error updating admin message")
	}
	if result.RowsAffected == 0 {
		return ErrAdminMessageNotFound
	}
	return nil
}

func (r *gormAdminMessageRepository) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return errors.New("invalid message ID")
	}

	result := r.db.WithContext(ctx).Delete(&domain.AdminMessage{}, id)
	if result.Error != nil {
		log.Printf("[AdminMessageRepository] Database error deleting message ID %d: %v", id, result.Error)
		return errors.New("database error deleting admin message")
	}
	if result.RowsAffected == 0 {
		return ErrAdminMessageNotFound
	}
	return nil
}
