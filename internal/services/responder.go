package services

import (
	"context"
	"fmt"

	"github.com/aiplatform/chat-backend/internal/domain"
)

// Responder produces the assistant reply for a user message.
type Responder interface {
	Reply(ctx context.Context, chat *domain.Chat, userContent string) (string, error)
}

// CannedResponder returns a fixed acknowledgement per modality. It stands
// in for a model backend so the message pipeline works end to end without
// external calls.
type CannedResponder struct{}

func NewCannedResponder() *CannedResponder {
	return &CannedResponder{}
}

func (r *CannedResponder) Reply(ctx context.Context, chat *domain.Chat, userContent string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	switch chat.Modality {
	case domain.ModalityTextToImage, domain.ModalityImageToImage:
		return "Image generation request received. Your result will appear here.", nil
	case domain.ModalityTextTo3D:
		return "3D generation request received. Your result will appear here.", nil
	case domain.ModalityTextToVideo:
		return "Video generation request received. Your result will appear here.", nil
	default:
		return fmt.Sprintf("Received your message (%d characters). A full response pipeline is not connected in this deployment.", len([]rune(userContent))), nil
	}
}
