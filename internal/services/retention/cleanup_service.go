// File: internal/services/retention/cleanup_service.go
package retention

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aiplatform/chat-backend/internal/repository/chat"
	"github.com/aiplatform/chat-backend/internal/services"
	"github.com/aiplatform/chat-backend/internal/services/metrics"
)

// DeleteAllConfirmation must be sent verbatim to wipe a user's history.
const DeleteAllConfirmation = "CONFIRM_DELETE"

// Per-chat size estimate used for the freed-space figure shown to users.
const estimatedChatSizeMB = 0.5

var ErrInvalidConfirmation = errors.New("confirmation text does not match")

// Trigger sources recorded on cleanup runs.
const (
	TriggerManual    = "manual"
	TriggerLogin     = "login"
	TriggerScheduled = "scheduled"
)

// CleanupResult summarizes one cleanup run.
type CleanupResult struct {
	DeletedChats int    `json:"deleted_chats"`
	FreedSpace   string `json:"freed_space"`
	Skipped      bool   `json:"skipped"`
}

// CleanupService deletes chats that a user's retention policy has aged
// out. At most one run per user is in flight at a time; a second caller
// gets a skipped result instead of a duplicate pass.
type CleanupService struct {
	chatRepo        chat.ChatRepository
	settingsService *SettingsService
	evaluator       *Evaluator
	metrics         *metrics.Metrics
	logger          services.Logger

	mu      sync.Mutex
	running map[uint]bool
}

func NewCleanupService(
	chatRepo chat.ChatRepository,
	settingsService *SettingsService,
	evaluator *Evaluator,
	m *metrics.Metrics,
	logger services.Logger,
) *CleanupService {
	return &CleanupService{
		chatRepo:        chatRepo,
		settingsService: settingsService,
		evaluator:       evaluator,
		metrics:         m,
		logger:          logger,
		running:         make(map[uint]bool),
	}
}

func (s *CleanupService) tryAcquire(userID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[userID] {
		return false
	}
	s.running[userID] = true
	return true
}

func (s *CleanupService) release(userID uint) {
	s.mu.Lock()
	delete(s.running, userID)
	s.mu.Unlock()
}

// RunCleanup deletes every chat the user's policy marks eligible and
// reports how many went away. A failure on one chat is logged and the run
// moves on to the next. Manual runs ignore the auto-cleanup switch.
func (s *CleanupService) RunCleanup(ctx context.Context, userID uint, trigger string) (*CleanupResult, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}

	if !s.tryAcquire(userID) {
		s.logger.Info("Cleanup already in progress, skipping", "user_id", userID, "trigger", trigger)
		s.metrics.CleanupSkipped.Inc()
		return &CleanupResult{Skipped: true, FreedSpace: formatFreedSpace(0)}, nil
	}
	defer s.release(userID)

	policy, err := s.settingsService.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.evaluator.FindEligible(ctx, userID, policy, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.metrics.CleanupRuns.WithLabelValues(trigger).Inc()

	deleted := 0
	for _, c := range candidates {
		if err := s.chatRepo.DeleteWithMessages(ctx, c.ID); err != nil {
			s.logger.Error("Failed to delete chat during cleanup",
				"user_id", userID, "chat_id", c.ID, "error", err.Error())
			s.metrics.CleanupErrors.Inc()
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.metrics.ChatsDeleted.Add(float64(deleted))
	}
	s.logger.Info("Cleanup run finished", "user_id", userID, "trigger", trigger,
		"candidates", len(candidates), "deleted", deleted)

	return &CleanupResult{
		DeletedChats: deleted,
		FreedSpace:   formatFreedSpace(deleted),
	}, nil
}

// TriggerLoginCleanup starts a background cleanup run after a successful
// login. It honors the user's auto-cleanup switch and never reports back
// to the login path; failures are logged and dropped.
func (s *CleanupService) TriggerLoginCleanup(userID uint) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		policy, err := s.settingsService.GetOrCreate(ctx, userID)
		if err != nil {
			s.logger.Error("Login cleanup could not load settings", "user_id", userID, "error", err.Error())
			return
		}
		if !policy.AutoCleanupEnabled {
			return
		}

		if _, err := s.RunCleanup(ctx, userID, TriggerLogin); err != nil {
			s.logger.Error("Login cleanup failed", "user_id", userID, "error", err.Error())
		}
	}()
}

// DeleteAllUnprotected wipes every unprotected chat for the user. The
// caller must echo DeleteAllConfirmation exactly; anything else is
// rejected before any row is touched.
func (s *CleanupService) DeleteAllUnprotected(ctx context.Context, userID uint, confirmText string) (*CleanupResult, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}
	if confirmText != DeleteAllConfirmation {
		return nil, ErrInvalidConfirmation
	}

	if !s.tryAcquire(userID) {
		s.metrics.CleanupSkipped.Inc()
		return &CleanupResult{Skipped: true, FreedSpace: formatFreedSpace(0)}, nil
	}
	defer s.release(userID)

	chats, err := s.chatRepo.FindUnprotected(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.metrics.CleanupRuns.WithLabelValues(TriggerManual).Inc()

	deleted := 0
	for _, c := range chats {
		if err := s.chatRepo.DeleteWithMessages(ctx, c.ID); err != nil {
			s.logger.Error("Failed to delete chat during bulk delete",
				"user_id", userID, "chat_id", c.ID, "error", err.Error())
			s.metrics.CleanupErrors.Inc()
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.metrics.ChatsDeleted.Add(float64(deleted))
	}
	s.logger.Info("Bulk delete finished", "user_id", userID, "deleted", deleted)

	return &CleanupResult{
		DeletedChats: deleted,
		FreedSpace:   formatFreedSpace(deleted),
	}, nil
}

func formatFreedSpace(deletedChats int) string {
	return fmt.Sprintf("%.1f MB", float64(deletedChats)*estimatedChatSizeMB)
}
