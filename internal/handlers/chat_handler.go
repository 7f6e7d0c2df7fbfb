// File: internal/handlers/chat_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aiplatform/chat-backend/internal/domain"
	chatrepo "github.com/aiplatform/chat-backend/internal/repository/chat"
	"github.com/aiplatform/chat-backend/internal/services"
)

type ChatHandler struct {
	ChatService *services.ChatService
}

func NewChatHandler(cs *services.ChatService) *ChatHandler {
	return &ChatHandler{ChatService: cs}
}

// CreateChat opens a new conversation for the authenticated user.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Title    string `json:"title"`
		Modality string `json:"modality"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	chat, err := h.ChatService.CreateChat(r.Context(), userID, req.Title, req.Modality)
	if err != nil {
		if errors.Is(err, services.ErrChatLimitReached) {
			writeError(w, "Chat limit reached", http.StatusConflict)
			return
		}
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

// SendMessage appends a user message and the assistant reply.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, "Message is required", http.StatusBadRequest)
		return
	}

	userMsg, assistantMsg, err := h.ChatService.SendMessage(r.Context(), userID, chatID, req.Message)
	if err != nil {
		if errors.Is(err, chatrepo.ErrChatNotFound) {
			writeError(w, "Chat not found", http.StatusNotFound)
			return
		}
		writeError(w, "Error processing chat: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": userMsg,
		"reply":   assistantMsg,
	})
}

// GetChatMessages returns the full message history of a chat.
func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	messages, err := h.ChatService.GetChatMessages(r.Context(), userID, chatID)
	if err != nil {
		if errors.Is(err, chatrepo.ErrChatNotFound) {
			writeError(w, "Chat not found", http.StatusNotFound)
			return
		}
		writeError(w, "Could not retrieve messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// RenameChat sets a new title.
func (h *ChatHandler) RenameChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	chat, err := h.ChatService.RenameChat(r.Context(), userID, chatID, req.Title)
	if err != nil {
		if errors.Is(err, chatrepo.ErrChatNotFound) {
			writeError(w, "Chat not found", http.StatusNotFound)
			return
		}
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// ToggleFavorite flips the favorite flag.
func (h *ChatHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.ChatService.ToggleFavorite)
}

// ToggleProtected flips the protection flag.
func (h *ChatHandler) ToggleProtected(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.ChatService.ToggleProtected)
}

func (h *ChatHandler) toggle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, chatID uint) (*domain.Chat, error)) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	chat, err := op(r.Context(), userID, chatID)
	if err != nil {
		switch {
		case errors.Is(err, chatrepo.ErrChatNotFound):
			writeError(w, "Chat not found", http.StatusNotFound)
		case errors.Is(err, services.ErrProtectedLimitReached):
			writeError(w, "Protected chat limit reached", http.StatusConflict)
		default:
			writeError(w, "Could not update chat", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// DeleteChat removes a chat and its messages.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.ChatService.DeleteChat(r.Context(), userID, chatID); err != nil {
		if errors.Is(err, chatrepo.ErrChatNotFound) {
			writeError(w, "Chat not found", http.StatusNotFound)
			return
		}
		writeError(w, "Could not delete chat", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchOperation applies one operation to a set of chats.
func (h *ChatHandler) BatchOperation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		ChatIDs   []uint `json:"chat_ids"`
		Operation string `json:"operation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.ChatService.BatchOperation(r.Context(), userID, req.ChatIDs, req.Operation)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ExportChat returns the full contents of one chat as a download.
func (h *ChatHandler) ExportChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	chatID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	export, err := h.ChatService.Export(r.Context(), userID, chatID)
	if err != nil {
		if errors.Is(err, chatrepo.ErrChatNotFound) {
			writeError(w, "Chat not found", http.StatusNotFound)
			return
		}
		writeError(w, "Could not export chat", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=chat-export.json")
	writeJSON(w, http.StatusOK, export)
}
