// File: internal/services/chat_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aiplatform/chat-backend/internal/domain"
	"github.com/aiplatform/chat-backend/internal/repository/chat"
	"github.com/aiplatform/chat-backend/internal/repository/message"
)

var (
	ErrChatLimitReached      = errors.New("chat limit reached")
	ErrProtectedLimitReached = errors.New("protected chat limit reached")
	ErrUnknownBatchOperation = errors.New("unknown batch operation")
)

// PolicyReader exposes the retention settings a chat operation needs for
// its advisory limits.
type PolicyReader interface {
	GetOrCreate(ctx context.Context, userID uint) (*domain.RetentionSettings, error)
}

// ChatService owns the lifecycle of chats and their messages: creation,
// the message exchange, flag toggles, batch edits and export. The policy
// caps (max chats, protected slots) are enforced here at write time only;
// existing rows are never removed to satisfy a lowered cap.
type ChatService struct {
	chatRepo    chat.ChatRepository
	messageRepo message.MessageRepository
	policies    PolicyReader
	responder   Responder
	logger      Logger
}

func NewChatService(
	chatRepo chat.ChatRepository,
	messageRepo message.MessageRepository,
	policies PolicyReader,
	responder Responder,
	logger Logger,
) *ChatService {
	return &ChatService{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		policies:    policies,
		responder:   responder,
		logger:      logger,
	}
}

// CreateChat opens a new conversation. A blank title is allowed; list
// views substitute a generated one. Creation fails once the user's chat
// count has reached the policy cap.
func (s *ChatService) CreateChat(ctx context.Context, userID uint, title, modality string) (*domain.Chat, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}

	mod := domain.ModalityTextToText
	if strings.TrimSpace(modality) != "" {
		parsed, err := domain.ParseModality(modality)
		if err != nil {
			return nil, err
		}
		mod = parsed
	}

	policy, err := s.policies.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := s.chatRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= int64(policy.MaxChats) {
		return nil, ErrChatLimitReached
	}

	newChat := &domain.Chat{
		UserID:       userID,
		Title:        strings.TrimSpace(title),
		Modality:     mod,
		LastActivity: time.Now().UTC(),
	}
	created, err := s.chatRepo.Create(ctx, newChat)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Chat created", "user_id", userID, "chat_id", created.ID, "modality", string(mod))
	return created, nil
}

// SendMessage stores the user's message, bumps the chat's activity, and
// appends the assistant reply. The first message also titles an untitled
// chat.
func (s *ChatService) SendMessage(ctx context.Context, userID, chatID uint, content string) (*domain.Message, *domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil, errors.New("message content is required")
	}

	chatRow, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID)
	if err != nil {
		return nil, nil, err
	}

	userMsg, err := s.messageRepo.Create(ctx, &domain.Message{
		ChatID:  chatID,
		Role:    domain.RoleUser,
		Content: content,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := s.chatRepo.RecordActivity(ctx, chatID, time.Now().UTC()); err != nil {
		s.logger.Warn("Failed to record chat activity", "chat_id", chatID, "error", err.Error())
	}

	if chatRow.Title == "" {
		chatRow.Title = titleFromContent(content)
		if err := s.chatRepo.Update(ctx, chatRow); err != nil {
			s.logger.Warn("Failed to set chat title from first message", "chat_id", chatID, "error", err.Error())
		}
	}

	replyText, err := s.responder.Reply(ctx, chatRow, content)
	if err != nil {
		// The user's message is already stored; surface the reply failure.
		return userMsg, nil, fmt.Errorf("assistant reply failed: %w", err)
	}

	assistantMsg, err := s.messageRepo.Create(ctx, &domain.Message{
		ChatID:  chatID,
		Role:    domain.RoleAssistant,
		Content: replyText,
	})
	if err != nil {
		return userMsg, nil, err
	}
	if err := s.chatRepo.RecordActivity(ctx, chatID, time.Now().UTC()); err != nil {
		s.logger.Warn("Failed to record chat activity", "chat_id", chatID, "error", err.Error())
	}

	return userMsg, assistantMsg, nil
}

// GetChat returns a chat owned by the user.
func (s *ChatService) GetChat(ctx context.Context, userID, chatID uint) (*domain.Chat, error) {
	return s.chatRepo.FindByIDAndUserID(ctx, chatID, userID)
}

// GetChatMessages returns the full message history of a chat, oldest first.
func (s *ChatService) GetChatMessages(ctx context.Context, userID, chatID uint) ([]domain.Message, error) {
	if _, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.messageRepo.FindByChatID(ctx, chatID)
}

// RenameChat sets a new title on a chat the user owns.
func (s *ChatService) RenameChat(ctx context.Context, userID, chatID uint, title string) (*domain.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title is required")
	}

	chatRow, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	chatRow.Title = title
	if err := s.chatRepo.Update(ctx, chatRow); err != nil {
		return nil, err
	}
	return chatRow, nil
}

// ToggleFavorite flips the favorite flag and returns the updated chat.
func (s *ChatService) ToggleFavorite(ctx context.Context, userID, chatID uint) (*domain.Chat, error) {
	chatRow, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	chatRow.IsFavorite = !chatRow.IsFavorite
	if err := s.chatRepo.Update(ctx, chatRow); err != nil {
		return nil, err
	}
	return chatRow, nil
}

// ToggleProtected flips the protection flag. Turning protection on is
// refused once the policy's protected-slot cap is full; turning it off
// always succeeds.
func (s *ChatService) ToggleProtected(ctx context.Context, userID, chatID uint) (*domain.Chat, error) {
	chatRow, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	if !chatRow.IsProtected {
		policy, err := s.policies.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}
		protected, err := s.chatRepo.CountProtected(ctx, userID)
		if err != nil {
			return nil, err
		}
		if protected >= int64(policy.ProtectedLimit) {
			return nil, ErrProtectedLimitReached
		}
	}

	chatRow.IsProtected = !chatRow.IsProtected
	if err := s.chatRepo.Update(ctx, chatRow); err != nil {
		return nil, err
	}
	return chatRow, nil
}

// DeleteChat removes a chat and its messages. Protection does not block a
// direct, explicit delete; it only shields chats from cleanup.
func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID uint) error {
	if _, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID); err != nil {
		return err
	}
	if err := s.chatRepo.DeleteWithMessages(ctx, chatID); err != nil {
		return err
	}
	s.logger.Info("Chat deleted", "user_id", userID, "chat_id", chatID)
	return nil
}

// Batch operations supported by BatchOperation.
const (
	BatchDelete    = "delete"
	BatchFavorite  = "favorite"
	BatchProtect   = "protect"
	BatchUnprotect = "unprotect"
)

// BatchResult reports the per-id outcome of a batch edit.
type BatchResult struct {
	Succeeded int    `json:"succeeded"`
	Failed    []uint `json:"failed,omitempty"`
}

// BatchOperation applies one operation to a set of chats. A failing id is
// recorded and the batch continues; ownership is checked per chat.
func (s *ChatService) BatchOperation(ctx context.Context, userID uint, chatIDs []uint, operation string) (*BatchResult, error) {
	if len(chatIDs) == 0 {
		return nil, errors.New("no chat IDs given")
	}

	switch operation {
	case BatchDelete, BatchFavorite, BatchProtect, BatchUnprotect:
	default:
		return nil, ErrUnknownBatchOperation
	}

	result := &BatchResult{}
	for _, id := range chatIDs {
		if err := s.applyBatchOp(ctx, userID, id, operation); err != nil {
			s.logger.Warn("Batch operation failed for chat",
				"user_id", userID, "chat_id", id, "operation", operation, "error", err.Error())
			result.Failed = append(result.Failed, id)
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

func (s *ChatService) applyBatchOp(ctx context.Context, userID, chatID uint, operation string) error {
	switch operation {
	case BatchDelete:
		return s.DeleteChat(ctx, userID, chatID)
	case BatchFavorite:
		chatRow, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID)
		if err != nil {
			return err
		}
		chatRow.IsFavorite = true
		return s.chatRepo.Update(ctx, chatRow)
	case BatchProtect:
		chatRow, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID)
		if err != nil {
			return err
		}
		if chatRow.IsProtected {
			return nil
		}
		_, err = s.ToggleProtected(ctx, userID, chatID)
		return err
	case BatchUnprotect:
		chatRow, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID)
		if err != nil {
			return err
		}
		chatRow.IsProtected = false
		return s.chatRepo.Update(ctx, chatRow)
	}
	return ErrUnknownBatchOperation
}

// ChatExport bundles a chat and its messages for download.
type ChatExport struct {
	Chat       *domain.Chat     `json:"chat"`
	Messages   []domain.Message `json:"messages"`
	ExportedAt time.Time        `json:"exported_at"`
}

// Export returns the full contents of one chat.
func (s *ChatService) Export(ctx context.Context, userID, chatID uint) (*ChatExport, error) {
	chatRow, err := s.chatRepo.FindByIDAndUserID(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return &ChatExport{
		Chat:       chatRow,
		Messages:   messages,
		ExportedAt: time.Now().UTC(),
	}, nil
}

// AccountExportEntry is one chat with its full message history inside a
// whole-account export.
type AccountExportEntry struct {
	Chat     domain.Chat      `json:"chat"`
	Messages []domain.Message `json:"messages"`
}

// AccountExport bundles every chat the user owns for download.
type AccountExport struct {
	Chats         []AccountExportEntry `json:"chats"`
	TotalChats    int                  `json:"total_chats"`
	TotalMessages int                  `json:"total_messages"`
	ExportedAt    time.Time            `json:"exported_at"`
}

// ExportAll returns the user's entire history, protected chats included.
func (s *ChatService) ExportAll(ctx context.Context, userID uint) (*AccountExport, error) {
	chats, err := s.chatRepo.FindAllByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	export := &AccountExport{
		Chats:      make([]AccountExportEntry, 0, len(chats)),
		TotalChats: len(chats),
		ExportedAt: time.Now().UTC(),
	}
	for i := range chats {
		messages, err := s.messageRepo.FindByChatID(ctx, chats[i].ID)
		if err != nil {
			return nil, err
		}
		export.Chats = append(export.Chats, AccountExportEntry{
			Chat:     chats[i],
			Messages: messages,
		})
		export.TotalMessages += len(messages)
	}

	s.logger.Info("Account exported", "user_id", userID, "chats", export.TotalChats, "messages", export.TotalMessages)
	return export, nil
}

func titleFromContent(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return content
}
