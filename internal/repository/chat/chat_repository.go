// File: internal/repository/chat/chat_repository.go
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aiplatform/chat-backend/internal/domain"
)

var ErrChatNotFound = errors.New("chat not found")

// likeEscaper neutralizes LIKE wildcards in user-supplied search text.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type gormChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &gormChatRepository{db: db}
}

func (r *gormChatRepository) Create(ctx context.Context, chat *domain.Chat) (*domain.Chat, error) {
	if err := r.validateChatInput(chat); err != nil {
		log.Printf("[ChatRepository] Validation failed: %v", err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(chat).Error; err != nil {
		log.Printf("[ChatRepository] Database error during chat creation for user ID %d: %v", chat.UserID, err)
		return nil, errors.New("database error creating chat")
	}
	return chat, nil
}

func (r *gormChatRepository) FindByID(ctx context.Context, chatID uint) (*domain.Chat, error) {
	if chatID == 0 {
		return nil, errors.New("invalid chat ID")
	}

	var chat domain.Chat
	err := r.db.WithContext(ctx).First(&chat, chatID).Error
	return r.handleFindError(err, &chat, "FindByID")
}

func (r *gormChatRepository) FindByIDAndUserID(ctx context.Context, chatID, userID uint) (*domain.Chat, error) {
	if chatID == 0 || userID == 0 {
		return nil, errors.New("invalid chat ID or user ID")
	}

	var chat domain.Chat
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", chatID, userID).
		First(&chat).Error
	return r.handleFindError(err, &chat, "FindByIDAndUserID")
}

func (r *gormChatRepository) FindAllByUserID(ctx context.Context, userID uint) ([]domain.Chat, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}

	var chats []domain.Chat
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_activity DESC, id DESC").
		Find(&chats).Error
	if err != nil {
		log.Printf("[ChatRepository] Database error finding chats for user ID %d: %v", userID, err)
		return nil, errors.New("database error fetching chats")
	}
	return chats, nil
}

// ListWithFilters runs the compound predicate query backing the history
// list. Absent filter fields contribute no condition; the ordering is
// always last_activity DESC with id DESC as tie-break so pagination is
// deterministic.
func (r *gormChatRepository) ListWithFilters(ctx context.Context, userID uint, filter Filter, limit, offset int) ([]domain.Chat, int64, error) {
	if userID == 0 {
		return nil, 0, errors.New("invalid user ID")
	}
	if limit <= 0 || limit > 1000 {
		return nil, 0, errors.New("invalid limit: must be between 1 and 1000")
	}
	if offset < 0 {
		return nil, 0, errors.New("invalid offset: must be >= 0")
	}

	query := r.db.WithContext(ctx).Model(&domain.Chat{}).Where("user_id = ?", userID)
	if filter.Keyword != "" {
		pattern := "%" + likeEscaper.Replace(filter.Keyword) + "%"
		query = query.Where(`LOWER(title) LIKE LOWER(?) ESCAPE '\'`, pattern)
	}
	if filter.Modality != "" {
		query = query.Where("modality = ?", filter.Modality)
	}
	if filter.FavoriteOnly {
		query = query.Where("is_favorite = ?", true)
	}
	if filter.Since != nil {
		query = query.Where("last_activity >= ?", *filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		log.Printf("[ChatRepository] Database error counting filtered chats for user ID %d: %v", userID, err)
		return nil, 0, errors.New("database error counting chats")
	}

	var chats []domain.Chat
	err := query.
		Order("last_activity DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&chats).Error
	if err != nil {
		log.Printf("[ChatRepository] Database error in filtered query for user ID %d: %v", userID, err)
		return nil, 0, errors.New("database error retrieving filtered chats")
	}

	return chats, total, nil
}

func (r *gormChatRepository) SearchTitles(ctx context.Context, userID uint, query string, limit int) ([]domain.Chat, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}
	if limit <= 0 || limit > 100 {
		limit = 5
	}

	pattern := "%" + likeEscaper.Replace(query) + "%"
	var chats []domain.Chat
	err := r.db.WithContext(ctx).
		Where(`user_id = ? AND LOWER(title) LIKE LOWER(?) ESCAPE '\'`, userID, pattern).
		Order("last_activity DESC, id DESC").
		Limit(limit).
		Find(&chats).Error
	if err != nil {
		log.Printf("[ChatRepository] Database error searching titles for user ID %d: %v", userID, err)
		return nil, errors.New("database error searching chats")
	}
	return chats, nil
}

func (r *gormChatRepository) Update(ctx context.Context, chat *domain.Chat) error {
	if chat == nil || chat.ID == 0 {
		return errors.New("invalid chat")
	}
	if err := r.validateChatInput(chat); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := r.db.WithContext(ctx).Save(chat).Error; err != nil {
		log.Printf("[ChatRepository] Database error updating chat ID %d: %v", chat.ID, err)
		return errors.New("database error updating chat")
	}
	return nil
}

// RecordActivity bumps the message counter and refreshes last_activity in
// one statement so concurrent sends never lose an increment.
func (r *gormChatRepository) RecordActivity(ctx context.Context, chatID uint, at time.Time) error {
	if chatID == 0 {
		return errors.New("invalid chat ID")
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"message_count": gorm.Expr("message_count + 1"),
			"last_activity": at,
		})
	if result.Error != nil {
		log.Printf("[ChatRepository] Database error recording activity for chat ID %d: %v", chatID, result.Error)
		return errors.New("database error recording chat activity")
	}
	if result.RowsAffected == 0 {
		return ErrChatNotFound
	}
	return nil
}

// DeleteWithMessages removes a chat and all its messages in one
// transaction so no orphan messages survive a partial failure.
func (r *gormChatRepository) DeleteWithMessages(ctx context.Context, chatID uint) error {
	if chatID == 0 {
		return errors.New("invalid chat ID")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Chat{}, chatID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrChatNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrChatNotFound) {
			return ErrChatNotFound
		}
		log.Printf("[ChatRepository] Database error deleting chat ID %d with messages: %v", chatID, err)
		return errors.New("database error deleting chat")
	}
	return nil
}

// FindCleanupCandidates returns the user's non-protected chats whose last
// activity is strictly before the cutoff. Protected chats are excluded
// here, at the query level, so no caller can delete one by accident.
func (r *gormChatRepository) FindCleanupCandidates(ctx context.Context, userID uint, cutoff time.Time) ([]domain.Chat, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}

	var chats []domain.Chat
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_protected = ? AND last_activity < ?", userID, false, cutoff).
		Order("last_activity ASC").
		Find(&chats).Error
	if err != nil {
		log.Printf("[ChatRepository] Database error finding cleanup candidates for user ID %d: %v", userID, err)
		return nil, errors.New("database error finding cleanup candidates")
	}
	return chats, nil
}

func (r *gormChatRepository) FindUnprotected(ctx context.Context, userID uint) ([]domain.Chat, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}

	var chats []domain.Chat
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_protected = ?", userID, false).
		Find(&chats).Error
	if err != nil {
		log.Printf("[ChatRepository] Database error finding unprotected chats for user ID %d: %v", userID, err)
		return nil, errors.New("database error finding unprotected chats")
	}
	return chats, nil
}

func (r *gormChatRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	return r.countWhere(ctx, "user_id = ?", userID)
}

func (r *gormChatRepository) CountFavorites(ctx context.Context, userID uint) (int64, error) {
	return r.countWhere(ctx, "user_id = ? AND is_favorite = ?", userID, true)
}

func (r *gormChatRepository) CountProtected(ctx context.Context, userID uint) (int64, error) {
	return r.countWhere(ctx, "user_id = ? AND is_protected = ?", userID, true)
}

func (r *gormChatRepository) CountOlderThan(ctx context.Context, userID uint, cutoff time.Time) (int64, error) {
	return r.countWhere(ctx, "user_id = ? AND is_protected = ? AND last_activity < ?", userID, false, cutoff)
}

func (r *gormChatRepository) countWhere(ctx context.Context, cond string, args ...interface{}) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Chat{}).Where(cond, args...).Count(&count).Error
	if err != nil {
		log.Printf("[ChatRepository] Database error counting chats (%s): %v", cond, err)
		return 0, errors.New("database error counting chats")
	}
	return count, nil
}

func (r *gormChatRepository) validateChatInput(chat *domain.Chat) error {
	if chat == nil {
		return errors.New("chat cannot be nil")
	}
	if chat.UserID == 0 {
		return errors.New("user ID is required")
	}
	if len(chat.Title) > 500 {
		return errors.New("title must be 500 characters or less")
	}
	return nil
}

func (r *gormChatRepository) handleFindError(err error, chat *domain.Chat, operation string) (*domain.Chat, error) {
	if err == nil {
		return chat, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChatNotFound
	}
	log.Printf("[ChatRepository] %s database error: %v", operation, err)
	return nil, errors.New("database query failed")
}
