// File: internal/services/admin_services/admin_service.go
package admin_services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aiplatform/chat-backend/internal/domain"
	"github.com/aiplatform/chat-backend/internal/repository/adminmessage"
	"github.com/aiplatform/chat-backend/internal/repository/user"
)

// AdminService provides functionalities for administrative tasks: user
// management, broadcast notices and the staff side of support chat.
type AdminService struct {
	userRepo    user.UserRepository
	messageRepo adminmessage.AdminMessageRepository
}

// NewAdminService creates a new instance of AdminService.
func NewAdminService(userRepo user.UserRepository, messageRepo adminmessage.AdminMessageRepository) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		messageRepo: messageRepo,
	}
}

// GetAllUsers retrieves a list of all users in the system.
func (s *AdminService) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

// SetUserStatus activates or bans an account.
func (s *AdminService) SetUserStatus(ctx context.Context, userID uint, status domain.UserStatus) error {
	if status != domain.UserStatusActive && status != domain.UserStatusBanned {
		return fmt.Errorf("invalid user status: %s", status)
	}

	account, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user with ID %d: %w", userID, err)
	}

	account.Status = status
	if err := s.userRepo.Update(ctx, account); err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return nil
}

// SendNotice delivers a one-way message from staff to a user's inbox.
func (s *AdminService) SendNotice(ctx context.Context, fromUserID, toUserID uint, subject, content string) (*domain.AdminMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("notice content is required")
	}
	if _, err := s.userRepo.FindByID(ctx, toUserID); err != nil {
		return nil, fmt.Errorf("recipient lookup failed: %w", err)
	}

	msg := &domain.AdminMessage{
		FromUserID:  &fromUserID,
		ToUserID:    &toUserID,
		Subject:     strings.TrimSpace(subject),
		Content:     content,
		MessageType: domain.AdminMessageNotice,
	}
	return s.messageRepo.Create(ctx, msg)
}

// ReplySupport sends a staff reply into a user's support thread.
func (s *AdminService) ReplySupport(ctx context.Context, staffUserID, toUserID uint, content string) (*domain.AdminMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("reply content is required")
	}
	if _, err := s.userRepo.FindByID(ctx, toUserID); err != nil {
		return nil, fmt.Errorf("recipient lookup failed: %w", err)
	}

	msg := &domain.AdminMessage{
		FromUserID:  &staffUserID,
		ToUserID:    &toUserID,
		Content:     content,
		MessageType: domain.AdminMessageSupport,
	}
	return s.messageRepo.Create(ctx, msg)
}

// GetSupportThread returns a user's full support conversation for staff review.
func (s *AdminService) GetSupportThread(ctx context.Context, userID uint) ([]domain.AdminMessage, error) {
	return s.messageRepo.FindSupportThread(ctx, userID)
}
