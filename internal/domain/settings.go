// File: internal/domain/settings.go
package domain

import (
	"fmt"
	"strings"
	"time"
)

// CleanupFrequency is the cadence a scheduler should use when sweeping a
// user's history. It is informational for the cleanup engine itself: only
// the retention window decides what gets deleted.
type CleanupFrequency string

const (
	FrequencyDaily   CleanupFrequency = "daily"
	FrequencyWeekly  CleanupFrequency = "weekly"
	FrequencyMonthly CleanupFrequency = "monthly"
)

// ParseCleanupFrequency parses a cadence string.
func ParseCleanupFrequency(s string) (CleanupFrequency, error) {
	switch CleanupFrequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	}
	return "", fmt.Errorf("unknown cleanup frequency %q", s)
}

// Default retention policy values, materialized for users without a
// stored settings row.
const (
	DefaultRetentionDays  = 30
	DefaultMaxChats       = 100
	DefaultProtectedLimit = 10
)

// RetentionSettings holds one retention policy per user.
type RetentionSettings struct {
	ID                 uint             `json:"-" gorm:"primarykey"`
	UserID             uint             `json:"user_id" gorm:"uniqueIndex;not null"`
	AutoCleanupEnabled bool             `json:"auto_delete" gorm:"not null;default:false"`
	RetentionDays      int              `json:"retention_days" gorm:"not null;default:30"`
	MaxChats           int              `json:"max_chat_count" gorm:"not null;default:100"`
	ProtectedLimit     int              `json:"protected_chats" gorm:"not null;default:10"`
	CleanupFrequency   CleanupFrequency `json:"cleanup_frequency" gorm:"not null;default:weekly"`
	CreatedAt          time.Time        `json:"-"`
	UpdatedAt          time.Time        `json:"-"`
}

// DefaultRetentionSettings returns the policy materialized on first access
// for a user with no stored row.
func DefaultRetentionSettings(userID uint) *RetentionSettings {
	return &RetentionSettings{
		UserID:             userID,
		AutoCleanupEnabled: false,
		RetentionDays:      DefaultRetentionDays,
		MaxChats:           DefaultMaxChats,
		ProtectedLimit:     DefaultProtectedLimit,
		CleanupFrequency:   FrequencyWeekly,
	}
}

// CutoffFor returns the last-activity cutoff below which a non-protected
// chat becomes eligible for cleanup.
func (s *RetentionSettings) CutoffFor(asOf time.Time) time.Time {
	return asOf.AddDate(0, 0, -s.RetentionDays)
}
