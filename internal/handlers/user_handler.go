// File: internal/handlers/user_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aiplatform/chat-backend/internal/repository/adminmessage"
	"github.com/aiplatform/chat-backend/internal/services/user_services"
)

type UserHandler struct {
	UserService *user_services.UserService
}

func NewUserHandler(us *user_services.UserService) *UserHandler {
	return &UserHandler{UserService: us}
}

// GetProfile returns the authenticated user's account record.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	account, err := h.UserService.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, "Could not load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// UpdateProfile applies a partial profile edit.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var update user_services.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.UserService.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Inbox returns a page of notices addressed to the user.
func (h *UserHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	messages, total, err := h.UserService.Inbox(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, "Could not load inbox", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"total":    total,
	})
}

// MarkMessageRead marks one inbox message read.
func (h *UserHandler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	messageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.UserService.MarkMessageRead(r.Context(), userID, messageID); err != nil {
		if errors.Is(err, adminmessage.ErrAdminMessageNotFound) {
			writeError(w, "Message not found", http.StatusNotFound)
			return
		}
		writeError(w, "Could not update message", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendSupportMessage relays a message into the support queue.
func (h *UserHandler) SendSupportMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.UserService.SendSupportMessage(r.Context(), userID, req.Content)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// SupportThread returns the user's support conversation.
func (h *UserHandler) SupportThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	thread, err := h.UserService.SupportThread(r.Context(), userID)
	if err != nil {
		writeError(w, "Could not load support thread", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}
