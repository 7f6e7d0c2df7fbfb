// File: internal/handlers/history_handler.go
package handlers

import (
	"net/http"

	"github.com/aiplatform/chat-backend/internal/services"
)

type HistoryHandler struct {
	HistoryService *services.HistoryService
}

func NewHistoryHandler(hs *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{HistoryService: hs}
}

// ListChats returns one page of the user's chat list. Filters arrive as
// query parameters and are all optional.
func (h *HistoryHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	query := services.HistoryQuery{
		Keyword:      q.Get("keyword"),
		Modality:     q.Get("modality"),
		FavoriteOnly: q.Get("favorites") == "true",
		TimeFilter:   q.Get("time_filter"),
		Page:         queryInt(r, "page", 0),
		PageSize:     queryInt(r, "page_size", 0),
	}

	page, err := h.HistoryService.ListChats(r.Context(), userID, query)
	if err != nil {
		writeError(w, "Could not retrieve chats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// SuggestTitles returns up to five title completions for a prefix.
func (h *HistoryHandler) SuggestTitles(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	titles, err := h.HistoryService.SuggestTitles(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "Could not retrieve suggestions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": titles})
}

// Statistics returns the user's aggregate history figures.
func (h *HistoryHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.HistoryService.Statistics(r.Context(), userID)
	if err != nil {
		writeError(w, "Could not compute statistics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
