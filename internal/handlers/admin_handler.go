// File: internal/handlers/admin_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aiplatform/chat-backend/internal/domain"
	"github.com/aiplatform/chat-backend/internal/middleware"
	"github.com/aiplatform/chat-backend/internal/services/admin_services"
)

type AdminHandler struct {
	AdminService *admin_services.AdminService
}

func NewAdminHandler(as *admin_services.AdminService) *AdminHandler {
	return &AdminHandler{AdminService: as}
}

// ListUsers returns every account in the system.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.AdminService.GetAllUsers(r.Context())
	if err != nil {
		writeError(w, "Could not list users", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// SetUserStatus activates or bans an account.
func (h *AdminHandler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.AdminService.SetUserStatus(r.Context(), targetID, domain.UserStatus(req.Status)); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendNotice delivers a staff notice to a user's inbox.
func (h *AdminHandler) SendNotice(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	targetID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req struct {
		Subject string `json:"subject"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.AdminService.SendNotice(r.Context(), staffID, targetID, req.Subject, req.Content)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// ReplySupport sends a staff reply into a user's support thread.
func (h *AdminHandler) ReplySupport(w http.ResponseWriter, r *http.Request) {
	staffID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	targetID, ok := pathID(w, r, "id")
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

	msg, err := h.AdminService.ReplySupport(r.Context(), staffID, targetID, req.Content)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// GetSupportThread returns a user's support conversation for staff review.
func (h *AdminHandler) GetSupportThread(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	thread, err := h.AdminService.GetSupportThread(r.Context(), targetID)
	if err != nil {
		writeError(w, "Could not load support thread", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}
