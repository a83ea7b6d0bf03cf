package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallengine/pkg/models"
)

type fakeStates map[string][]models.MemoryState

func (f fakeStates) ListStates(_ context.Context, learnerID string) ([]models.MemoryState, error) {
	return f[learnerID], nil
}

type fakeItems map[string]*models.LearningItem

func (f fakeItems) GetItem(_ context.Context, id string) (*models.LearningItem, error) {
	return f[id], nil
}

func stateAt(itemID string, stability float64, lastReview time.Time) models.MemoryState {
	return models.MemoryState{
		LearnerID:      "l1",
		ItemID:         itemID,
		Stability:      stability,
		Retrievability: 0.8,
		LastReviewDate: lastReview,
	}
}

func TestGenerateAt_DueItemsFirst(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	states := fakeStates{"l1": {
		stateAt("fresh", 10, now.AddDate(0, 0, -1)),   // due in 9 days
		stateAt("overdue", 2, now.AddDate(0, 0, -5)),  // 3 days overdue
		stateAt("due", 3, now.AddDate(0, 0, -3)),      // due today
	}}
	gen := NewGenerator(states, nil, Config{}, nil)

	sched, err := gen.GenerateAt(context.Background(), "l1", now, 1, 10)
	require.NoError(t, err)
	require.Len(t, sched.Days, 1)

	reviews := sched.Days[0].Reviews
	require.Len(t, reviews, 3)
	assert.Equal(t, "overdue", reviews[0].ItemID)
	assert.Equal(t, models.ReasonOverdue, reviews[0].Reason)
	assert.Equal(t, "due", reviews[1].ItemID)
	assert.Equal(t, "fresh", reviews[2].ItemID, "look-ahead fills spare capacity")
}

func TestGenerateAt_CapacityLimit(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	states := fakeStates{"l1": {
		stateAt("a", 1, now.AddDate(0, 0, -5)),
		stateAt("b", 1, now.AddDate(0, 0, -4)),
		stateAt("c", 1, now.AddDate(0, 0, -3)),
	}}
	gen := NewGenerator(states, nil, Config{}, nil)

	sched, err := gen.GenerateAt(context.Background(), "l1", now, 1, 2)
	require.NoError(t, err)

	assert.Len(t, sched.Days[0].Reviews, 2)
	assert.Equal(t, 0, sched.Days[0].Metrics.NewItemCapacity)
}

func TestGenerateAt_ZeroCapacity(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	states := fakeStates{"l1": {stateAt("a", 1, now.AddDate(0, 0, -5))}}
	gen := NewGenerator(states, nil, Config{}, nil)

	sched, err := gen.GenerateAt(context.Background(), "l1", now, 7, 0)
	require.NoError(t, err)

	require.Len(t, sched.Days, 7)
	for _, day := range sched.Days {
		assert.Empty(t, day.Reviews)
	}
	assert.Equal(t, 0, sched.TotalReviews())
}

func TestGenerateAt_ItemPlacedOncePerHorizon(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	states := fakeStates{"l1": {
		stateAt("a", 1, now.AddDate(0, 0, -3)),
		stateAt("b", 2, now.AddDate(0, 0, -1)),
		stateAt("c", 5, now.AddDate(0, 0, -1)),
	}}
	gen := NewGenerator(states, nil, Config{}, nil)

	sched, err := gen.GenerateAt(context.Background(), "l1", now, 7, 1)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, day := range sched.Days {
		for _, r := range day.Reviews {
			seen[r.ItemID]++
		}
	}
	for itemID, count := range seen {
		assert.Equal(t, 1, count, "item %s placed more than once", itemID)
	}
	assert.Len(t, seen, 3)
}

func TestGenerateAt_Deterministic(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	// Identical states force the id tie-break.
	states := fakeStates{"l1": {
		stateAt("bb", 2, now.AddDate(0, 0, -4)),
		stateAt("aa", 2, now.AddDate(0, 0, -4)),
		stateAt("cc", 2, now.AddDate(0, 0, -4)),
	}}
	gen := NewGenerator(states, nil, Config{}, nil)

	first, err := gen.GenerateAt(context.Background(), "l1", now, 3, 10)
	require.NoError(t, err)
	second, err := gen.GenerateAt(context.Background(), "l1", now, 3, 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	reviews := first.Days[0].Reviews
	require.Len(t, reviews, 3)
	assert.Equal(t, "aa", reviews[0].ItemID)
	assert.Equal(t, "bb", reviews[1].ItemID)
	assert.Equal(t, "cc", reviews[2].ItemID)
}

func TestGenerateAt_PriorityScore(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	s := stateAt("a", 2, now.AddDate(0, 0, -5))
	states := fakeStates{"l1": {s}}
	gen := NewGenerator(states, nil, Config{}, nil)

	sched, err := gen.GenerateAt(context.Background(), "l1", now, 1, 10)
	require.NoError(t, err)

	want := s.OverdueAmount(now)*10 + (1-s.RetrievabilityAt(now))*5
	require.Len(t, sched.Days[0].Reviews, 1)
	assert.InDelta(t, want, sched.Days[0].Reviews[0].Priority, 1e-9)
}

func TestGenerateAt_Metrics(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	s := stateAt("a", 1, now.AddDate(0, 0, -3))
	s.Difficulty = 0.5
	states := fakeStates{"l1": {s}}
	items := fakeItems{"a": {ID: "a", CognitiveLoad: 4}}
	gen := NewGenerator(states, items, Config{}, nil)

	sched, err := gen.GenerateAt(context.Background(), "l1", now, 1, 10)
	require.NoError(t, err)

	m := sched.Days[0].Metrics
	assert.InDelta(t, 5+0.5*10, m.TotalReviewMinutes, 1e-9)
	assert.InDelta(t, 4.0, m.MeanCognitiveLoad, 1e-9)
	assert.Equal(t, 1, m.PriorityItems)
	assert.Equal(t, 9, m.NewItemCapacity)
}

func TestGenerateAt_MissingItemMetadataUsesDefaultLoad(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	states := fakeStates{"l1": {stateAt("a", 1, now.AddDate(0, 0, -3))}}
	gen := NewGenerator(states, fakeItems{}, Config{}, nil)

	sched, err := gen.GenerateAt(context.Background(), "l1", now, 1, 10)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, sched.Days[0].Metrics.MeanCognitiveLoad, 1e-9)
}
