// File: internal/services/user_services/user_service.go
package user_services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/aiplatform/chat-backend/internal/domain"
	"github.com/aiplatform/chat-backend/internal/repository/adminmessage"
	"github.com/aiplatform/chat-backend/internal/repository/user"
)

// ProfileUpdate carries a partial profile change. Nil fields keep the
// stored value.
type ProfileUpdate struct {
	Email       *string `json:"email"`
	NewPassword *string `json:"new_password"`
	OldPassword *string `json:"old_password"`
}

// UserService covers the account-facing routine operations: profile
// reads and edits, the notice inbox, and the support-chat relay.
type UserService struct {
	userRepo    user.UserRepository
	messageRepo adminmessage.AdminMessageRepository
	logger      Logger
}

func NewUserService(userRepo user.UserRepository, messageRepo adminmessage.AdminMessageRepository, logger Logger) *UserService {
	return &UserService{
		userRepo:    userRepo,
		messageRepo: messageRepo,
		logger:      logger,
	}
}

// GetProfile returns the user's account record.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// UpdateProfile applies a partial profile edit. Changing the password
// requires the current one.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*domain.User, error) {
	account, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if !emailRegex.MatchString(email) {
			return nil, errors.New("invalid email address")
		}
		if email != account.Email {
			if existing, err := s.userRepo.FindByEmail(ctx, email); err == nil && existing != nil && existing.ID != userID {
				return nil, errors.New("email already in use")
			}
			account.Email = email
		}
	}

	if update.NewPassword != nil {
		if update.OldPassword == nil {
			return nil, errors.New("current password is required to change password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(*update.OldPassword)); err != nil {
			s.logger.Warn("password change rejected - wrong current password", "user_id", userID)
			return nil, errors.New("current password is incorrect")
		}
		if err := account.HashPassword(*update.NewPassword); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", "user_id", userID)
	return account, nil
}

// Inbox returns a page of notices addressed to the user, newest first.
func (s *UserService) Inbox(ctx context.Context, userID uint, limit, offset int) ([]domain.AdminMessage, int64, error) {
	return s.messageRepo.FindByRecipient(ctx, userID, limit, offset)
}

// MarkMessageRead marks an inbox message read, checking it is actually
// addressed to the caller first.
func (s *UserService) MarkMessageRead(ctx context.Context, userID, messageID uint) error {
	msg, err := s.messageRepo.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ToUserID == nil || *msg.ToUserID != userID {
		return adminmessage.ErrAdminMessageNotFound
	}
	return s.messageRepo.MarkRead(ctx, messageID)
}

// SendSupportMessage relays a message from the user to the support queue.
func (s *UserService) SendSupportMessage(ctx context.Context, userID uint, content string) (*domain.AdminMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("message content is required")
	}

	msg := &domain.AdminMessage{
		FromUserID:  &userID,
		Content:     content,
		MessageType: domain.AdminMessageSupport,
	}
	created, err := s.messageRepo.Create(ctx, msg)
	if err != nil {
		return nil, err
	}

	s.logger.Info("support message received", "user_id", userID, "message_id", created.ID)
	return created, nil
}

// SupportThread returns the user's support conversation, oldest first.
func (s *UserService) SupportThread(ctx context.Context, userID uint) ([]domain.AdminMessage, error) {
	return s.messageRepo.FindSupportThread(ctx, userID)
}
