package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysSinceReview(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	s := &MemoryState{LastReviewDate: now.AddDate(0, 0, -3)}

	assert.InDelta(t, 3.0, s.DaysSinceReview(now), 1e-9)
}

func TestDaysSinceReview_ClampsClockSkew(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	s := &MemoryState{LastReviewDate: now.Add(time.Hour)}

	assert.Equal(t, 0.0, s.DaysSinceReview(now))
}

func TestDaysSinceReview_NeverReviewed(t *testing.T) {
	s := &MemoryState{}

	assert.Equal(t, 0.0, s.DaysSinceReview(time.Now()))
}

func TestRetrievabilityAt(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	s := &MemoryState{
		Retrievability: 0.8,
		Stability:      4,
		LastReviewDate: now.AddDate(0, 0, -2),
	}

	want := 0.8 * math.Exp(-2.0/4.0)
	assert.InDelta(t, want, s.RetrievabilityAt(now), 1e-9)
}

func TestRetrievabilityAt_ZeroStabilityUsesFloor(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	s := &MemoryState{
		Retrievability: 1.0,
		Stability:      0,
		LastReviewDate: now.AddDate(0, 0, -1),
	}

	got := s.RetrievabilityAt(now)
	require.False(t, math.IsNaN(got))
	assert.Less(t, got, 0.001)
}

func TestIsDue(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	s := &MemoryState{Stability: 2, LastReviewDate: now.AddDate(0, 0, -3)}

	assert.True(t, s.IsDue(now))
	assert.InDelta(t, 1.0, s.OverdueAmount(now), 1e-9)

	s.LastReviewDate = now.AddDate(0, 0, -1)
	assert.False(t, s.IsDue(now))
	assert.Less(t, s.OverdueAmount(now), 0.0)
}

func TestIsMastered(t *testing.T) {
	s := &MemoryState{ReviewCount: 5, MemoryStrength: 0.85, Stability: 40}

	assert.True(t, s.IsMastered(nil))

	item := &LearningItem{MasteryThreshold: 0.9}
	assert.False(t, s.IsMastered(item))

	s.ReviewCount = 4
	assert.False(t, s.IsMastered(nil))
}

func TestClamp(t *testing.T) {
	s := &MemoryState{
		MemoryStrength: 1.4,
		Retrievability: -0.2,
		Difficulty:     2.0,
		Stability:      0.01,
		ReviewCount:    -1,
	}
	s.Clamp()

	assert.Equal(t, 1.0, s.MemoryStrength)
	assert.Equal(t, 0.0, s.Retrievability)
	assert.Equal(t, 1.0, s.Difficulty)
	assert.Equal(t, MinStability, s.Stability)
	assert.Equal(t, 0, s.ReviewCount)
}
