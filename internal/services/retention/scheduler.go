// File: internal/services/retention/scheduler.go
package retention

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aiplatform/chat-backend/internal/domain"
	"github.com/aiplatform/chat-backend/internal/repository/settings"
	"github.com/aiplatform/chat-backend/internal/services"
)

// Scheduler runs a daily sweep over every policy with auto-cleanup
// enabled. The sweep itself decides per user whether the configured
// frequency makes today a cleanup day: daily always, weekly on Mondays,
// monthly on the first of the month.
type Scheduler struct {
	settingsRepo settings.SettingsRepository
	cleanup      *CleanupService
	logger       services.Logger
	cron         *cron.Cron
	spec         string
}

// NewScheduler wires the sweep onto the given cron spec, typically
// "0 3 * * *" for a nightly run.
func NewScheduler(settingsRepo settings.SettingsRepository, cleanup *CleanupService, spec string, logger services.Logger) *Scheduler {
	return &Scheduler{
		settingsRepo: settingsRepo,
		cleanup:      cleanup,
		logger:       logger,
		cron:         cron.New(),
		spec:         spec,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		s.Sweep(context.Background(), time.Now().UTC())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("Cleanup scheduler started", "spec", s.spec)
	return nil
}

// Stop halts the cron loop and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cleanup scheduler stopped")
}

// Sweep runs cleanup for every user whose policy is due at the given
// time. Errors are per-user; one failing user does not stop the sweep.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) {
	policies, err := s.settingsRepo.FindAutoCleanupEnabled(ctx)
	if err != nil {
		s.logger.Error("Scheduled sweep could not list policies", "error", err.Error())
		return
	}

	ran := 0
	for _, policy := range policies {
		if !frequencyDue(policy.CleanupFrequency, now) {
			continue
		}
		if _, err := s.cleanup.RunCleanup(ctx, policy.UserID, TriggerScheduled); err != nil {
			s.logger.Error("Scheduled cleanup failed", "user_id", policy.UserID, "error", err.Error())
			continue
		}
		ran++
	}

	s.logger.Info("Scheduled sweep finished", "eligible_policies", len(policies), "runs", ran)
}

func frequencyDue(freq domain.CleanupFrequency, now time.Time) bool {
	switch freq {
	case domain.FrequencyDaily:
		return true
	case domain.FrequencyWeekly:
		return now.Weekday() == time.Monday
	case domain.FrequencyMonthly:
		return now.Day() == 1
	default:
		return false
	}
}
