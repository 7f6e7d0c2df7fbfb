// File: internal/handlers/data_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aiplatform/chat-backend/internal/services"
	"github.com/aiplatform/chat-backend/internal/services/retention"
)

// DataHandler exposes the retention policy, the cleanup operations and
// the whole-account export.
type DataHandler struct {
	SettingsService *retention.SettingsService
	CleanupService  *retention.CleanupService
	ChatService     *services.ChatService
}

func NewDataHandler(ss *retention.SettingsService, cs *retention.CleanupService, chats *services.ChatService) *DataHandler {
	return &DataHandler{SettingsService: ss, CleanupService: cs, ChatService: chats}
}

// GetSettings returns the user's retention policy, materializing the
// defaults on first read.
func (h *DataHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	settings, err := h.SettingsService.GetOrCreate(r.Context(), userID)
	if err != nil {
		writeError(w, "Could not load settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings applies a partial policy change.
func (h *DataHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var update retention.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	settings, err := h.SettingsService.Update(r.Context(), userID, update)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// RunCleanup triggers a synchronous cleanup run for the caller.
func (h *DataHandler) RunCleanup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	result, err := h.CleanupService.RunCleanup(r.Context(), userID, retention.TriggerManual)
	if err != nil {
		writeError(w, "Cleanup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ExportAllChats returns the user's entire history as a download.
func (h *DataHandler) ExportAllChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	export, err := h.ChatService.ExportAll(r.Context(), userID)
	if err != nil {
		writeError(w, "Could not export chat history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=chat-history-export.json")
	writeJSON(w, http.StatusOK, export)
}

// DeleteAllChats wipes every unprotected chat after an explicit
// confirmation echo.
func (h *DataHandler) DeleteAllChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		ConfirmText string `json:"confirm_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.CleanupService.DeleteAllUnprotected(r.Context(), userID, req.ConfirmText)
	if err != nil {
		if errors.Is(err, retention.ErrInvalidConfirmation) {
			writeError(w, "Confirmation text does not match", http.StatusBadRequest)
			return
		}
		writeError(w, "Bulk delete failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
