// File: internal/services/retention/evaluator.go
package retention

import (
	"context"
	"errors"
	"time"

	"github.com/aiplatform/chat-backend/internal/domain"
	"github.com/aiplatform/chat-backend/internal/repository/chat"
)

// Evaluator decides which chats a user's retention policy makes eligible
// for deletion. Protected chats never qualify, whatever their age. The
// per-chat and protected-count limits are advisory caps enforced at
// creation/toggle time, not grounds for retroactive deletion.
type Evaluator struct {
	chatRepo chat.ChatRepository
}

func NewEvaluator(chatRepo chat.ChatRepository) *Evaluator {
	return &Evaluator{chatRepo: chatRepo}
}

// FindEligible returns the unprotected chats whose last activity is
// strictly before the policy cutoff, oldest first. A chat last active
// exactly at the cutoff instant is kept.
func (e *Evaluator) FindEligible(ctx context.Context, userID uint, policy *domain.RetentionSettings, asOf time.Time) ([]domain.Chat, error) {
	if policy == nil {
		return nil, errors.New("retention policy is required")
	}
	if policy.UserID != userID {
		return nil, errors.New("policy does not belong to user")
	}

	cutoff := policy.CutoffFor(asOf)
	return e.chatRepo.FindCleanupCandidates(ctx, userID, cutoff)
}
