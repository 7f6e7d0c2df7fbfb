// File: internal/services/history_service.go
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

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxSuggestions  = 5
)

// HistoryQuery carries the raw, client-supplied list parameters. Every
// field is optional; blanks mean "no filter".
type HistoryQuery struct {
	Keyword      string
	Modality     string
	FavoriteOnly bool
	TimeFilter   string
	Page         int
	PageSize     int
}

// HistoryPage is one page of a user's chat list.
type HistoryPage struct {
	Chats      []ChatSummary `json:"chats"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalItems int64         `json:"total_items"`
	TotalPages int           `json:"total_pages"`
}

// ChatSummary is the list-view projection of a chat.
type ChatSummary struct {
	ID           uint            `json:"id"`
	Title        string          `json:"title"`
	Modality     domain.Modality `json:"modality"`
	IsFavorite   bool            `json:"is_favorite"`
	IsProtected  bool            `json:"is_protected"`
	MessageCount int             `json:"message_count"`
	LastActivity time.Time       `json:"last_activity"`
	CreatedAt    time.Time       `json:"created_at"`
}

// HistoryStatistics summarizes a user's stored history. OldChats counts
// the unprotected chats already past the user's retention window, i.e.
// what the next cleanup run would remove.
type HistoryStatistics struct {
	TotalChats     int64  `json:"total_chats"`
	TotalMessages  int64  `json:"total_messages"`
	FavoriteChats  int64  `json:"favorite_chats"`
	ProtectedChats int64  `json:"protected_chats"`
	OldChats       int64  `json:"old_chats"`
	EstimatedSize  string `json:"estimated_size"`
}

// HistoryService composes chat-list queries. Unrecognized filter values
// are dropped with a warning rather than failing the whole request, so a
// stale client still gets its list back.
type HistoryService struct {
	chatRepo    chat.ChatRepository
	messageRepo message.MessageRepository
	policies    PolicyReader
	logger      Logger
	now         func() time.Time
}

func NewHistoryService(chatRepo chat.ChatRepository, messageRepo message.MessageRepository, policies PolicyReader, logger Logger) *HistoryService {
	return &HistoryService{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		policies:    policies,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListChats returns one page of the user's chats, newest activity first.
// Pages are zero-based; a page past the end comes back empty with the
// totals still accurate.
func (s *HistoryService) ListChats(ctx context.Context, userID uint, query HistoryQuery) (*HistoryPage, error) {
	if userID == 0 {
		return nil, errors.New("invalid user ID")
	}

	filter := s.buildFilter(userID, query)

	page := query.Page
	if page < 0 {
		page = 0
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	chats, total, err := s.chatRepo.ListWithFilters(ctx, userID, filter, pageSize, page*pageSize)
	if err != nil {
		return nil, err
	}

	summaries := make([]ChatSummary, 0, len(chats))
	for i := range chats {
		summaries = append(summaries, summarize(&chats[i]))
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}

	return &HistoryPage{
		Chats:      summaries,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func (s *HistoryService) buildFilter(userID uint, query HistoryQuery) chat.Filter {
	filter := chat.Filter{
		Keyword:      strings.TrimSpace(query.Keyword),
		FavoriteOnly: query.FavoriteOnly,
	}

	if raw := strings.TrimSpace(query.Modality); raw != "" {
		modality, err := domain.ParseModality(raw)
		if err != nil {
			s.logger.Warn("Dropping unknown modality filter", "user_id", userID, "modality", raw)
		} else {
			filter.Modality = modality
		}
	}

	if raw := strings.TrimSpace(query.TimeFilter); raw != "" {
		since, ok := s.sinceFor(raw)
		if !ok {
			s.logger.Warn("Dropping unknown time filter", "user_id", userID, "time_filter", raw)
		} else {
			filter.Since = &since
		}
	}

	return filter
}

func (s *HistoryService) sinceFor(timeFilter string) (time.Time, bool) {
	now := s.now()
	switch strings.ToLower(timeFilter) {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), true
	case "week":
		return now.AddDate(0, 0, -7), true
	case "month":
		return now.AddDate(0, 0, -30), true
	}
	return time.Time{}, false
}

// SuggestTitles returns up to five title completions for a prefix,
// matched case-insensitively against the user's own chats.
func (s *HistoryService) SuggestTitles(ctx context.Context, userID uint, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return []string{}, nil
	}

	chats, err := s.chatRepo.SearchTitles(ctx, userID, prefix, maxSuggestions)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(chats))
	for i := range chats {
		titles = append(titles, chats[i].DisplayTitle())
	}
	return titles, nil
}

// Statistics computes a user's aggregate history figures. The size is an
// estimate based on an average message footprint, not a byte count.
func (s *HistoryService) Statistics(ctx context.Context, userID uint) (*HistoryStatistics, error) {
	totalChats, err := s.chatRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	totalMessages, err := s.messageRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	favorites, err := s.chatRepo.CountFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	protected, err := s.chatRepo.CountProtected(ctx, userID)
	if err != nil {
		return nil, err
	}

	policy, err := s.policies.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldChats, err := s.chatRepo.CountOlderThan(ctx, userID, policy.CutoffFor(s.now()))
	if err != nil {
		return nil, err
	}

	return &HistoryStatistics{
		TotalChats:     totalChats,
		TotalMessages:  totalMessages,
		FavoriteChats:  favorites,
		ProtectedChats: protected,
		OldChats:       oldChats,
		EstimatedSize:  fmt.Sprintf("%.1f MB", float64(totalMessages)*0.5/1024),
	}, nil
}

func summarize(c *domain.Chat) ChatSummary {
	return ChatSummary{
		ID:           c.ID,
		Title:        c.DisplayTitle(),
		Modality:     c.Modality,
		IsFavorite:   c.IsFavorite,
		IsProtected:  c.IsProtected,
		MessageCount: c.MessageCount,
		LastActivity: c.LastActivity,
		CreatedAt:    c.CreatedAt,
	}
}
