package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallengine/pkg/models"
)

func TestPolicyFor(t *testing.T) {
	for _, kind := range []models.PolicyKind{models.PolicyDefault, models.PolicyLeitner, models.PolicySuperMemo} {
		p, err := PolicyFor(kind, IntervalConfig{})
		require.NoError(t, err)
		assert.Equal(t, kind, p.Kind())
	}

	_, err := PolicyFor("anki", IntervalConfig{})
	assert.Error(t, err)
}

func TestLeitnerPromotion(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	p := NewLeitnerPolicy()
	ps := &models.PolicyState{Box: 1}

	next := p.Update(nil, ps, 0.8, now)

	assert.Equal(t, 2, ps.Box)
	assert.Equal(t, 3, ps.IntervalDays)
	assert.Equal(t, now.AddDate(0, 0, 3), next)
}

func TestLeitnerTopBoxStaysPut(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	p := NewLeitnerPolicy()
	ps := &models.PolicyState{Box: 5}

	next := p.Update(nil, ps, 0.9, now)

	assert.Equal(t, 5, ps.Box)
	assert.Equal(t, now.AddDate(0, 0, 30), next)
}

func TestLeitnerFailureDemotesToBoxOne(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	p := NewLeitnerPolicy()
	ps := &models.PolicyState{Box: 4}

	next := p.Update(nil, ps, 0.2, now)

	assert.Equal(t, 1, ps.Box)
	assert.Equal(t, now.AddDate(0, 0, 1), next)
}

func TestSuperMemoGrade(t *testing.T) {
	p := NewSuperMemoPolicy()

	assert.Equal(t, 0, p.Grade(0))
	assert.Equal(t, 3, p.Grade(0.6))
	assert.Equal(t, 5, p.Grade(1))
}

func TestSuperMemoProgression(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	p := NewSuperMemoPolicy()
	ps := &models.PolicyState{}

	// Grade 5 keeps EF at 2.6 after the first perfect answer.
	next := p.Update(nil, ps, 1.0, now)
	assert.Equal(t, 1, ps.Repetitions)
	assert.Equal(t, 1, ps.IntervalDays)
	assert.InDelta(t, 2.6, ps.EasinessFactor, 1e-9)
	assert.Equal(t, now.AddDate(0, 0, 1), next)

	next = p.Update(nil, ps, 1.0, next)
	assert.Equal(t, 2, ps.Repetitions)
	assert.Equal(t, 2, ps.IntervalDays)
}

func TestSuperMemoFailureResets(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	p := NewSuperMemoPolicy()
	ps := &models.PolicyState{EasinessFactor: 2.5, Repetitions: 4, IntervalDays: 15}

	next := p.Update(nil, ps, 0.2, now)

	assert.Equal(t, 0, ps.Repetitions)
	assert.Equal(t, 1, ps.IntervalDays)
	assert.Equal(t, now.AddDate(0, 0, 1), next)
	assert.Less(t, ps.EasinessFactor, 2.5, "poor answers lower the easiness factor")
}

func TestSuperMemoEasinessFloor(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	p := NewSuperMemoPolicy()
	ps := &models.PolicyState{EasinessFactor: 1.3}

	for i := 0; i < 5; i++ {
		p.Update(nil, ps, 0.0, now)
	}

	assert.InDelta(t, 1.3, ps.EasinessFactor, 1e-9)
}

func TestSeedPolicyState_Leitner(t *testing.T) {
	now := time.Now()
	tests := []struct {
		stability float64
		wantBox   int
	}{
		{0.5, 1},
		{1, 2},
		{2.9, 2},
		{3, 3},
		{7, 4},
		{14, 5},
		{100, 5},
	}
	for _, tt := range tests {
		state := &models.MemoryState{LearnerID: "l1", ItemID: "i1", Stability: tt.stability}
		ps := SeedPolicyState(models.PolicyLeitner, state, now)
		assert.Equal(t, tt.wantBox, ps.Box, "stability %.1f", tt.stability)
		assert.Equal(t, models.PolicyLeitner, ps.Kind)
	}
}

func TestSeedPolicyState_SuperMemo(t *testing.T) {
	now := time.Now()
	state := &models.MemoryState{
		LearnerID:            "l1",
		ItemID:               "i1",
		Stability:            6.4,
		Difficulty:           0.5,
		ConsecutiveSuccesses: 3,
	}

	ps := SeedPolicyState(models.PolicySuperMemo, state, now)

	assert.InDelta(t, 2.5-1.2*0.5, ps.EasinessFactor, 1e-9)
	assert.Equal(t, 3, ps.Repetitions)
	assert.Equal(t, 6, ps.IntervalDays)
}

func TestSeedPolicyState_SuperMemoEasinessFloor(t *testing.T) {
	state := &models.MemoryState{Difficulty: 1.0, Stability: 0.2}

	ps := SeedPolicyState(models.PolicySuperMemo, state, time.Now())

	assert.InDelta(t, 1.3, ps.EasinessFactor, 1e-9)
	assert.Equal(t, 1, ps.IntervalDays, "interval never seeds below one day")
}
