// File: internal/services/history_service_test.go
package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aiplatform/chat-backend/internal/domain"
	chatrepo "github.com/aiplatform/chat-backend/internal/repository/chat"
	messagerepo "github.com/aiplatform/chat-backend/internal/repository/message"
)

type historyFixture struct {
	db      *gorm.DB
	service *HistoryService
}

func newHistoryFixture(t *testing.T) *historyFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Chat{}, &domain.Message{}))

	service := NewHistoryService(
		chatrepo.NewChatRepository(db),
		messagerepo.NewMessageRepository(db),
		&stubPolicies{policy: domain.RetentionSettings{
			RetentionDays:    domain.DefaultRetentionDays,
			MaxChats:         domain.DefaultMaxChats,
			ProtectedLimit:   domain.DefaultProtectedLimit,
			CleanupFrequency: domain.FrequencyWeekly,
		}},
		&NoOpLogger{},
	)
	return &historyFixture{db: db, service: service}
}

func (f *historyFixture) seed(t *testing.T, c domain.Chat) domain.Chat {
	t.Helper()
	if c.UserID == 0 {
		c.UserID = 1
	}
	if c.Modality == "" {
		c.Modality = domain.ModalityTextToText
	}
	require.NoError(t, f.db.Create(&c).Error)
	return c
}

func TestListChatsOrderingAndPagination(t *testing.T) {
	f := newHistoryFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		f.seed(t, domain.Chat{
			Title:        fmt.Sprintf("chat %d", i),
			LastActivity: base.Add(time.Duration(i) * time.Hour),
		})
	}

	page, err := f.service.ListChats(ctx, 1, HistoryQuery{Page: 0, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Chats, 2)
	// Newest activity first.
	assert.Equal(t, "chat 4", page.Chats[0].Title)
	assert.Equal(t, "chat 3", page.Chats[1].Title)

	last, err := f.service.ListChats(ctx, 1, HistoryQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, last.Chats, 1)
	assert.Equal(t, "chat 0", last.Chats[0].Title)

	// A page past the end is empty but the totals stay accurate.
	beyond, err := f.service.ListChats(ctx, 1, HistoryQuery{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Chats)
	assert.Equal(t, int64(5), beyond.TotalItems)
	assert.Equal(t, 3, beyond.TotalPages)

	// Negative page clamps to the first.
	clamped, err := f.service.ListChats(ctx, 1, HistoryQuery{Page: -3, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, clamped.Page)
	assert.Len(t, clamped.Chats, 2)
}

func TestListChatsKeywordFilter(t *testing.T) {
	f := newHistoryFixture(t)
	ctx := context.Background()

	f.seed(t, domain.Chat{Title: "Kidney Function Basics"})
	f.seed(t, domain.Chat{Title: "Liver enzymes"})
	f.seed(t, domain.Chat{Title: "100% effort plan"})

	page, err := f.service.ListChats(ctx, 1, HistoryQuery{Keyword: "kidney"})
	require.NoError(t, err)
	require.Len(t, page.Chats, 1)
	assert.Equal(t, "Kidney Function Basics", page.Chats[0].Title)

	// LIKE wildcards in the keyword are treated literally.
	escaped, err := f.service.ListChats(ctx, 1, HistoryQuery{Keyword: "100%"})
	require.NoError(t, err)
	require.Len(t, escaped.Chats, 1)
	assert.Equal(t, "100% effort plan", escaped.Chats[0].Title)

	wild, err := f.service.ListChats(ctx, 1, HistoryQuery{Keyword: "%"})
	require.NoError(t, err)
	assert.Len(t, wild.Chats, 1)
}

func TestListChatsDropsUnknownFilters(t *testing.T) {
	f := newHistoryFixture(t)
	ctx := context.Background()

	f.seed(t, domain.Chat{Title: "a", Modality: domain.ModalityTextToText})
	f.seed(t, domain.Chat{Title: "b", Modality: domain.ModalityTextToImage})

	// Unknown modality and time filter degrade to an unfiltered list.
	page, err := f.service.ListChats(ctx, 1, HistoryQuery{Modality: "telepathy", TimeFilter: "fortnight"})
	require.NoError(t, err)
	assert.Len(t, page.Chats, 2)

	// A valid dashed modality still filters.
	filtered, err := f.service.ListChats(ctx, 1, HistoryQuery{Modality: "text-to-image"})
	require.NoError(t, err)
	require.Len(t, filtered.Chats, 1)
	assert.Equal(t, "b", filtered.Chats[0].Title)
}

func TestListChatsTimeAndFavoriteFilters(t *testing.T) {
	f := newHistoryFixture(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	f.seed(t, domain.Chat{Title: "this morning", LastActivity: now.Add(-2 * time.Hour), IsFavorite: true})
	f.seed(t, domain.Chat{Title: "three days ago", LastActivity: now.AddDate(0, 0, -3)})
	f.seed(t, domain.Chat{Title: "three weeks ago", LastActivity: now.AddDate(0, 0, -21)})

	today, err := f.service.ListChats(ctx, 1, HistoryQuery{TimeFilter: "today"})
	require.NoError(t, err)
	require.Len(t, today.Chats, 1)
	assert.Equal(t, "this morning", today.Chats[0].Title)

	week, err := f.service.ListChats(ctx, 1, HistoryQuery{TimeFilter: "week"})
	require.NoError(t, err)
	assert.Len(t, week.Chats, 2)

	month, err := f.service.ListChats(ctx, 1, HistoryQuery{TimeFilter: "month"})
	require.NoError(t, err)
	assert.Len(t, month.Chats, 3)

	favorites, err := f.service.ListChats(ctx, 1, HistoryQuery{FavoriteOnly: true})
	require.NoError(t, err)
	require.Len(t, favorites.Chats, 1)
	assert.Equal(t, "this morning", favorites.Chats[0].Title)
}

func TestListChatsUsesPlaceholderTitles(t *testing.T) {
	f := newHistoryFixture(t)
	ctx := context.Background()

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.seed(t, domain.Chat{Modality: domain.ModalityTextToImage, CreatedAt: created})

	page, err := f.service.ListChats(ctx, 1, HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, page.Chats, 1)
	assert.Equal(t, "text_to_image - 2025-03-01", page.Chats[0].Title)
}

func TestSuggestTitles(t *testing.T) {
	f := newHistoryFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		f.seed(t, domain.Chat{
			Title:        fmt.Sprintf("Protein shake %d", i),
			LastActivity: base.Add(time.Duration(i) * time.Hour),
		})
	}
	f.seed(t, domain.Chat{Title: "Unrelated", LastActivity: base})
	f.seed(t, domain.Chat{UserID: 2, Title: "Protein for someone else", LastActivity: base})

	titles, err := f.service.SuggestTitles(ctx, 1, "protein")
	require.NoError(t, err)
	assert.Len(t, titles, 5)
	// Most recently active first.
	assert.Equal(t, "Protein shake 6", titles[0])

	empty, err := f.service.SuggestTitles(ctx, 1, "   ")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStatistics(t *testing.T) {
	f := newHistoryFixture(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	a := f.seed(t, domain.Chat{Title: "a", IsFavorite: true, LastActivity: now})
	b := f.seed(t, domain.Chat{Title: "b", IsProtected: true, LastActivity: now})
	f.seed(t, domain.Chat{UserID: 2, Title: "other", LastActivity: now})

	for i := 0; i < 3; i++ {
		require.NoError(t, f.db.Create(&domain.Message{ChatID: a.ID, Role: domain.RoleUser, Content: "m"}).Error)
	}
	require.NoError(t, f.db.Create(&domain.Message{ChatID: b.ID, Role: domain.RoleUser, Content: "m"}).Error)

	stats, err := f.service.Statistics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalChats)
	assert.Equal(t, int64(4), stats.TotalMessages)
	assert.Equal(t, int64(1), stats.FavoriteChats)
	assert.Equal(t, int64(1), stats.ProtectedChats)
	assert.Equal(t, int64(0), stats.OldChats)
	assert.Equal(t, "0.0 MB", stats.EstimatedSize)
}

func TestStatisticsCountsChatsPastRetention(t *testing.T) {
	f := newHistoryFixture(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	f.seed(t, domain.Chat{Title: "fresh", LastActivity: now.AddDate(0, 0, -5)})
	f.seed(t, domain.Chat{Title: "stale", LastActivity: now.AddDate(0, 0, -40)})
	f.seed(t, domain.Chat{Title: "stale but protected", IsProtected: true, LastActivity: now.AddDate(0, 0, -40)})
	// Exactly at the 30-day cutoff is not yet old.
	f.seed(t, domain.Chat{Title: "boundary", LastActivity: now.AddDate(0, 0, -30)})

	stats, err := f.service.Statistics(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalChats)
	assert.Equal(t, int64(1), stats.OldChats)
}
