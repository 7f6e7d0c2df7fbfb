// File: internal/services/retention/retention_test.go
package retention

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aiplatform/chat-backend/internal/domain"
	chatrepo "github.com/aiplatform/chat-backend/internal/repository/chat"
	settingsrepo "github.com/aiplatform/chat-backend/internal/repository/settings"
	"github.com/aiplatform/chat-backend/internal/services"
	"github.com/aiplatform/chat-backend/internal/services/metrics"
)

type fixture struct {
	db        *gorm.DB
	chats     chatrepo.ChatRepository
	settings  *SettingsService
	evaluator *Evaluator
	cleanup   *CleanupService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// A second pool connection would see its own empty in-memory database,
	// so keep every goroutine on the same one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Chat{}, &domain.Message{}, &domain.RetentionSettings{}))

	chats := chatrepo.NewChatRepository(db)
	settingsService := NewSettingsService(settingsrepo.NewSettingsRepository(db), &services.NoOpLogger{})
	evaluator := NewEvaluator(chats)
	cleanup := NewCleanupService(chats, settingsService, evaluator,
		metrics.New(prometheus.NewRegistry()), &services.NoOpLogger{})

	return &fixture{
		db:        db,
		chats:     chats,
		settings:  settingsService,
		evaluator: evaluator,
		cleanup:   cleanup,
	}
}

func (f *fixture) seedChat(t *testing.T, userID uint, lastActivity time.Time, protected bool) *domain.Chat {
	t.Helper()
	c := &domain.Chat{
		UserID:       userID,
		Title:        "seeded",
		Modality:     domain.ModalityTextToText,
		IsProtected:  protected,
		LastActivity: lastActivity,
	}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func TestGetOrCreateSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.settings.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 30, first.RetentionDays)
	assert.False(t, first.AutoCleanupEnabled)

	// A second read returns the same row, not another default.
	second, err := f.settings.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, f.db.Model(&domain.RetentionSettings{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	enabled := true
	days := 7
	freq := "daily"
	updated, err := f.settings.Update(ctx, 1, SettingsUpdate{
		AutoCleanupEnabled: &enabled,
		RetentionDays:      &days,
		CleanupFrequency:   &freq,
	})
	require.NoError(t, err)
	assert.True(t, updated.AutoCleanupEnabled)
	assert.Equal(t, 7, updated.RetentionDays)
	assert.Equal(t, domain.FrequencyDaily, updated.CleanupFrequency)
	// Untouched fields keep their defaults.
	assert.Equal(t, 100, updated.MaxChats)
	assert.Equal(t, 10, updated.ProtectedLimit)
}

func TestUpdateSettingsRejectsBadValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	zero := 0
	_, err := f.settings.Update(ctx, 1, SettingsUpdate{RetentionDays: &zero})
	assert.Error(t, err)

	_, err = f.settings.Update(ctx, 1, SettingsUpdate{MaxChats: &zero})
	assert.Error(t, err)

	negative := -1
	_, err = f.settings.Update(ctx, 1, SettingsUpdate{ProtectedLimit: &negative})
	assert.Error(t, err)

	bad := "hourly"
	_, err = f.settings.Update(ctx, 1, SettingsUpdate{CleanupFrequency: &bad})
	assert.Error(t, err)
}

func TestEvaluatorBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	asOf := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	policy := domain.DefaultRetentionSettings(1)
	cutoff := policy.CutoffFor(asOf)

	old := f.seedChat(t, 1, cutoff.Add(-time.Second), false)
	f.seedChat(t, 1, cutoff, false)               // exactly at cutoff: kept
	f.seedChat(t, 1, cutoff.Add(-time.Hour), true) // protected: kept
	f.seedChat(t, 1, asOf.Add(-time.Hour), false)  // recent: kept
	f.seedChat(t, 2, cutoff.Add(-time.Hour), false) // other user

	eligible, err := f.evaluator.FindEligible(ctx, 1, policy, asOf)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, old.ID, eligible[0].ID)
}

func TestEvaluatorRejectsForeignPolicy(t *testing.T) {
	f := newFixture(t)

	policy := domain.DefaultRetentionSettings(2)
	_, err := f.evaluator.FindEligible(context.Background(), 1, policy, time.Now())
	assert.Error(t, err)
}

func TestRunCleanupDeletesAgedChats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	aged := f.seedChat(t, 1, now.AddDate(0, 0, -40), false)
	protected := f.seedChat(t, 1, now.AddDate(0, 0, -40), true)
	recent := f.seedChat(t, 1, now.AddDate(0, 0, -5), false)
	require.NoError(t, f.db.Create(&domain.Message{ChatID: aged.ID, Role: domain.RoleUser, Content: "old"}).Error)

	result, err := f.cleanup.RunCleanup(ctx, 1, TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DeletedChats)
	assert.Equal(t, "0.5 MB", result.FreedSpace)
	assert.False(t, result.Skipped)

	var remaining []domain.Chat
	require.NoError(t, f.db.Where("user_id = ?", 1).Find(&remaining).Error)
	require.Len(t, remaining, 2)
	ids := []uint{remaining[0].ID, remaining[1].ID}
	assert.ElementsMatch(t, []uint{protected.ID, recent.ID}, ids)

	// Messages of the deleted chat are gone too.
	var msgCount int64
	require.NoError(t, f.db.Model(&domain.Message{}).Where("chat_id = ?", aged.ID).Count(&msgCount).Error)
	assert.Equal(t, int64(0), msgCount)
}

func TestRunCleanupSkipsWhenAlreadyRunning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedChat(t, 1, time.Now().UTC().AddDate(0, 0, -40), false)

	f.cleanup.mu.Lock()
	f.cleanup.running[1] = true
	f.cleanup.mu.Unlock()

	result, err := f.cleanup.RunCleanup(ctx, 1, TriggerManual)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, 0, result.DeletedChats)

	// Releasing the slot lets the next run proceed.
	f.cleanup.release(1)
	result, err = f.cleanup.RunCleanup(ctx, 1, TriggerManual)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 1, result.DeletedChats)
}

func TestTriggerLoginCleanupHonorsAutoCleanupSwitch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	aged := f.seedChat(t, 1, time.Now().UTC().AddDate(0, 0, -40), false)

	chatCount := func() int64 {
		var n int64
		require.NoError(t, f.db.Model(&domain.Chat{}).Where("id = ?", aged.ID).Count(&n).Error)
		return n
	}

	// Auto-cleanup is off by default, so a login must not touch the chat.
	_, err := f.settings.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	f.cleanup.TriggerLoginCleanup(1)
	assert.Never(t, func() bool { return chatCount() == 0 }, 300*time.Millisecond, 25*time.Millisecond)

	on := true
	_, err = f.settings.Update(ctx, 1, SettingsUpdate{AutoCleanupEnabled: &on})
	require.NoError(t, err)

	f.cleanup.TriggerLoginCleanup(1)
	assert.Eventually(t, func() bool { return chatCount() == 0 }, 2*time.Second, 25*time.Millisecond)
}

func TestDeleteAllUnprotected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	f.seedChat(t, 1, now, false)
	f.seedChat(t, 1, now, false)
	kept := f.seedChat(t, 1, now, true)

	_, err := f.cleanup.DeleteAllUnprotected(ctx, 1, "DELETE")
	assert.ErrorIs(t, err, ErrInvalidConfirmation)

	result, err := f.cleanup.DeleteAllUnprotected(ctx, 1, DeleteAllConfirmation)
	require.NoError(t, err)
	assert.Equal(t, 2, result.DeletedChats)
	assert.Equal(t, "1.0 MB", result.FreedSpace)

	var remaining []domain.Chat
	require.NoError(t, f.db.Where("user_id = ?", 1).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ID)
}

func TestSchedulerSweepHonorsFrequency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	enable := func(userID uint, freq string) {
		on := true
		_, err := f.settings.Update(ctx, userID, SettingsUpdate{
			AutoCleanupEnabled: &on,
			CleanupFrequency:   &freq,
		})
		require.NoError(t, err)
	}
	enable(1, "daily")
	enable(2, "weekly")
	enable(3, "monthly")

	old := time.Now().UTC().AddDate(0, 0, -40)
	f.seedChat(t, 1, old, false)
	f.seedChat(t, 2, old, false)
	f.seedChat(t, 3, old, false)

	scheduler := NewScheduler(settingsrepo.NewSettingsRepository(f.db), f.cleanup, "0 3 * * *", &services.NoOpLogger{})

	// A Tuesday that is not the first of the month: only daily runs.
	tuesday := time.Date(2025, 7, 8, 3, 0, 0, 0, time.UTC)
	scheduler.Sweep(ctx, tuesday)

	counts := func(userID uint) int64 {
		var n int64
		require.NoError(t, f.db.Model(&domain.Chat{}).Where("user_id = ?", userID).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(0), counts(1))
	assert.Equal(t, int64(1), counts(2))
	assert.Equal(t, int64(1), counts(3))

	// Monday the 1st: weekly and monthly run too.
	monday := time.Date(2025, 9, 1, 3, 0, 0, 0, time.UTC)
	scheduler.Sweep(ctx, monday)
	assert.Equal(t, int64(0), counts(2))
	assert.Equal(t, int64(0), counts(3))
}

func TestFrequencyDue(t *testing.T) {
	monday1st := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, frequencyDue(domain.FrequencyDaily, tuesday))
	assert.True(t, frequencyDue(domain.FrequencyWeekly, monday1st))
	assert.False(t, frequencyDue(domain.FrequencyWeekly, tuesday))
	assert.True(t, frequencyDue(domain.FrequencyMonthly, monday1st))
	assert.False(t, frequencyDue(domain.FrequencyMonthly, tuesday))
	assert.False(t, frequencyDue(domain.CleanupFrequency("hourly"), tuesday))
}
