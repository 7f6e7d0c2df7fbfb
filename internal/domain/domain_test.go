// File: internal/domain/domain_test.go
package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModality(t *testing.T) {
	tests := []struct {
		input   string
		want    Modality
		wantErr bool
	}{
		{"text_to_text", ModalityTextToText, false},
		{"text-to-image", ModalityTextToImage, false},
		{"  text-to-3d ", ModalityTextTo3D, false},
		{"image_to_text", ModalityImageToText, false},
		{"text_to_video", ModalityTextToVideo, false},
		{"speech_to_text", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseModality(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseCleanupFrequency(t *testing.T) {
	got, err := ParseCleanupFrequency(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, got)

	_, err = ParseCleanupFrequency("hourly")
	assert.Error(t, err)
}

func TestDefaultRetentionSettings(t *testing.T) {
	s := DefaultRetentionSettings(42)

	assert.Equal(t, uint(42), s.UserID)
	assert.False(t, s.AutoCleanupEnabled)
	assert.Equal(t, 30, s.RetentionDays)
	assert.Equal(t, 100, s.MaxChats)
	assert.Equal(t, 10, s.ProtectedLimit)
	assert.Equal(t, FrequencyWeekly, s.CleanupFrequency)
}

func TestCutoffFor(t *testing.T) {
	s := &RetentionSettings{RetentionDays: 30}
	asOf := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 5, 31, 12, 0, 0, 0, time.UTC), s.CutoffFor(asOf))
}

func TestChatDisplayTitle(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	titled := &Chat{Title: "Kidney function", Modality: ModalityTextToText, CreatedAt: created}
	assert.Equal(t, "Kidney function", titled.DisplayTitle())

	untitled := &Chat{Modality: ModalityTextToImage, CreatedAt: created}
	assert.Equal(t, "text_to_image - 2025-03-01", untitled.DisplayTitle())

	blank := &Chat{Title: "   ", Modality: ModalityTextToText, CreatedAt: created}
	assert.Equal(t, "text_to_text - 2025-03-01", blank.DisplayTitle())
}

func TestMessagePreview(t *testing.T) {
	short := &Message{Content: "hello"}
	assert.Equal(t, "hello", short.Preview(10))

	long := &Message{Content: "0123456789abcdef"}
	assert.Equal(t, "0123456789...", long.Preview(10))
}

func TestUserPasswordRoundTrip(t *testing.T) {
	u := &User{}
	require.Error(t, u.HashPassword("short"))

	require.NoError(t, u.HashPassword("correct-horse"))
	assert.NoError(t, u.ValidatePassword("correct-horse"))
	assert.Error(t, u.ValidatePassword("wrong-horse"))
}
