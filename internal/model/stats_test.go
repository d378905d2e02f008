package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStats_Empty(t *testing.T) {
	s := NewStats(nil)
	assert.Zero(t, s.TotalOperations)
	assert.Zero(t, s.SuccessRate)
	assert.NotNil(t, s.RecentOperations)
}

func TestNewStats(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var history []History
	for i := 0; i < 7; i++ {
		history = append(history, History{
			ID:        int64(i + 1),
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Success:   i%3 != 0,
		})
	}

	s := NewStats(history)
	assert.Equal(t, 7, s.TotalOperations)
	assert.Equal(t, 4, s.SuccessfulOperations)
	assert.Equal(t, 57.14, s.SuccessRate)

	if assert.Len(t, s.RecentOperations, RecentLimit) {
		assert.Equal(t, int64(7), s.RecentOperations[0].ID)
		assert.Equal(t, int64(3), s.RecentOperations[4].ID)
	}
	assert.Equal(t, int64(1), history[0].ID, "input must not be reordered")
}

func TestDefaultPreference(t *testing.T) {
	p := DefaultPreference(3)
	assert.Equal(t, "light", p.Theme)
	assert.True(t, p.NotificationsEnabled)
	assert.Equal(t, int64(3), p.UserID)
}
