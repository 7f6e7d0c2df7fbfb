// File: internal/repository/chat/chat_repository_test.go
package chat

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aiplatform/chat-backend/internal/domain"
)

func newTestRepo(t *testing.T) (*gorm.DB, ChatRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Chat{}, &domain.Message{}))
	return db, NewChatRepository(db)
}

func seedChat(t *testing.T, db *gorm.DB, c domain.Chat) domain.Chat {
	t.Helper()
	if c.UserID == 0 {
		c.UserID = 1
	}
	if c.Modality == "" {
		c.Modality = domain.ModalityTextToText
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func TestRecordActivity(t *testing.T) {
	db, repo := newTestRepo(t)
	ctx := context.Background()

	c := seedChat(t, db, domain.Chat{Title: "active"})
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.RecordActivity(ctx, c.ID, at))
	require.NoError(t, repo.RecordActivity(ctx, c.ID, at.Add(time.Minute)))

	stored, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.MessageCount)
	assert.Equal(t, at.Add(time.Minute), stored.LastActivity.UTC())

	assert.ErrorIs(t, repo.RecordActivity(ctx, 9999, at), ErrChatNotFound)
}

func TestDeleteWithMessages(t *testing.T) {
	db, repo := newTestRepo(t)
	ctx := context.Background()

	c := seedChat(t, db, domain.Chat{Title: "doomed"})
	keep := seedChat(t, db, domain.Chat{Title: "bystander"})
	require.NoError(t, db.Create(&domain.Message{ChatID: c.ID, Role: domain.RoleUser, Content: "m"}).Error)
	require.NoError(t, db.Create(&domain.Message{ChatID: keep.ID, Role: domain.RoleUser, Content: "m"}).Error)

	require.NoError(t, repo.DeleteWithMessages(ctx, c.ID))

	_, err := repo.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, ErrChatNotFound)

	var count int64
	require.NoError(t, db.Model(&domain.Message{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, repo.DeleteWithMessages(ctx, c.ID), ErrChatNotFound)
}

func TestFindCleanupCandidatesOrdering(t *testing.T) {
	db, repo := newTestRepo(t)
	ctx := context.Background()
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	newest := seedChat(t, db, domain.Chat{Title: "newest old", LastActivity: cutoff.Add(-time.Hour)})
	oldest := seedChat(t, db, domain.Chat{Title: "oldest", LastActivity: cutoff.AddDate(0, -1, 0)})
	seedChat(t, db, domain.Chat{Title: "protected", LastActivity: cutoff.AddDate(0, -1, 0), IsProtected: true})
	seedChat(t, db, domain.Chat{Title: "at cutoff", LastActivity: cutoff})

	candidates, err := repo.FindCleanupCandidates(ctx, 1, cutoff)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, oldest.ID, candidates[0].ID)
	assert.Equal(t, newest.ID, candidates[1].ID)
}

func TestListWithFiltersValidation(t *testing.T) {
	_, repo := newTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.ListWithFilters(ctx, 0, Filter{}, 10, 0)
	assert.Error(t, err)

	_, _, err = repo.ListWithFilters(ctx, 1, Filter{}, 0, 0)
	assert.Error(t, err)

	_, _, err = repo.ListWithFilters(ctx, 1, Filter{}, 10, -1)
	assert.Error(t, err)
}

func TestCounts(t *testing.T) {
	db, repo := newTestRepo(t)
	ctx := context.Background()
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	seedChat(t, db, domain.Chat{Title: "a", IsFavorite: true, LastActivity: cutoff.Add(-time.Hour)})
	seedChat(t, db, domain.Chat{Title: "b", IsProtected: true, LastActivity: cutoff.Add(time.Hour)})
	seedChat(t, db, domain.Chat{UserID: 2, Title: "c"})

	total, err := repo.CountByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	favorites, err := repo.CountFavorites(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), favorites)

	protected, err := repo.CountProtected(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), protected)

	older, err := repo.CountOlderThan(ctx, 1, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), older)
}
