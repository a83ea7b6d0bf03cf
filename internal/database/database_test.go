package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallengine/internal/engine"
	"github.com/example/recallengine/pkg/models"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "test.db"))

	db, err := Connect()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConnect_UnsupportedType(t *testing.T) {
	t.Setenv("DB_TYPE", "oracle")
	_, err := Connect()
	assert.Error(t, err)
}

func TestMemoryStateRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewMemoryStateRepository(db)
	ctx := context.Background()

	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	state := &models.MemoryState{
		LearnerID:            "l1",
		ItemID:               "i1",
		MemoryStrength:       0.62,
		Stability:            4.2,
		Retrievability:       0.71,
		Difficulty:           0.4,
		LastReviewDate:       now.AddDate(0, 0, -2),
		NextReviewDate:       now.AddDate(0, 0, 3),
		ReviewCount:          5,
		ConsecutiveSuccesses: 2,
		Phase:                models.PhaseConsolidation,
		CurveParams: models.ForgettingCurveParams{
			InitialStrength: 0.9,
			DecayRate:       0.25,
			Asymptote:       0.2,
		},
		Personalization: models.PersonalizationFactors{AbilityEstimate: 0.8},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	require.NoError(t, repo.SaveState(ctx, state))

	got, err := repo.GetState(ctx, "l1", "i1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, state.MemoryStrength, got.MemoryStrength)
	assert.Equal(t, state.Stability, got.Stability)
	assert.Equal(t, state.ReviewCount, got.ReviewCount)
	assert.Equal(t, models.PhaseConsolidation, got.Phase)
	assert.Equal(t, state.CurveParams.DecayRate, got.CurveParams.DecayRate)
	assert.Equal(t, 0.8, got.Personalization.AbilityEstimate)
	assert.True(t, got.LastReviewDate.Equal(state.LastReviewDate))
	assert.True(t, got.NextReviewDate.Equal(state.NextReviewDate))
}

func TestMemoryStateUpsert(t *testing.T) {
	db := testDB(t)
	repo := NewMemoryStateRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	state := &models.MemoryState{
		LearnerID: "l1", ItemID: "i1",
		Stability: 1.0, Phase: models.PhaseAcquisition,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.SaveState(ctx, state))

	state.Stability = 1.3
	state.ReviewCount = 1
	require.NoError(t, repo.SaveState(ctx, state))

	got, err := repo.GetState(ctx, "l1", "i1")
	require.NoError(t, err)
	assert.Equal(t, 1.3, got.Stability)
	assert.Equal(t, 1, got.ReviewCount)
}

func TestGetState_Missing(t *testing.T) {
	db := testDB(t)
	repo := NewMemoryStateRepository(db)

	got, err := repo.GetState(context.Background(), "nobody", "nothing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListStates_OrderedByItem(t *testing.T) {
	db := testDB(t)
	repo := NewMemoryStateRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, itemID := range []string{"c", "a", "b"} {
		require.NoError(t, repo.SaveState(ctx, &models.MemoryState{
			LearnerID: "l1", ItemID: itemID,
			Stability: 1, Phase: models.PhaseAcquisition,
			CreatedAt: now, UpdatedAt: now,
		}))
	}
	require.NoError(t, repo.SaveState(ctx, &models.MemoryState{
		LearnerID: "other", ItemID: "z",
		Stability: 1, Phase: models.PhaseAcquisition,
		CreatedAt: now, UpdatedAt: now,
	}))

	states, err := repo.ListStates(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.Equal(t, "a", states[0].ItemID)
	assert.Equal(t, "b", states[1].ItemID)
	assert.Equal(t, "c", states[2].ItemID)
}

func TestGetLearnerStatistics(t *testing.T) {
	db := testDB(t)
	repo := NewMemoryStateRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	save := func(itemID string, strength, stability float64, reviews int, next time.Time) {
		require.NoError(t, repo.SaveState(ctx, &models.MemoryState{
			LearnerID: "l1", ItemID: itemID,
			MemoryStrength: strength, Stability: stability,
			ReviewCount:    reviews,
			NextReviewDate: next, Phase: models.PhaseAcquisition,
			CreatedAt: now, UpdatedAt: now,
		}))
	}
	save("a", 0.4, 2, 1, now)                   // due
	save("b", 0.6, 4, 2, now.AddDate(0, 0, 5))  // not due
	save("c", 0.9, 60, 8, now.AddDate(0, 0, 9)) // mastered, no item row so threshold defaults to 0.8

	stats, err := repo.GetLearnerStatistics(ctx, "l1", now)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, 1, stats.DueToday)
	assert.Equal(t, 1, stats.Mastered)
	assert.InDelta(t, 22.0, stats.MeanStability, 1e-9)
	assert.InDelta(t, 0.6333333, stats.MeanStrength, 1e-6)
}

func TestReviewSessionAppendAndHistory(t *testing.T) {
	db := testDB(t)
	repo := NewReviewSessionRepository(db)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"s2", "s1", "s3"} {
		require.NoError(t, repo.AppendSession(ctx, models.ReviewSession{
			ID:        id,
			LearnerID: "l1",
			ItemID:    "i1",
			Timestamp: t0.AddDate(0, 0, []int{2, 0, 4}[i]),
			Type:      models.ReviewScheduled,
			Performance: models.PerformanceData{
				ResponseQuality: 0.8,
				ResponseTime:    4 * time.Second,
				Completed:       true,
			},
			CreatedAt: t0,
		}))
	}

	exists, err := repo.SessionExists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SessionExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)

	history, err := repo.History(ctx, "l1", "i1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "s1", history[0].ID, "chronological order")
	assert.Equal(t, "s2", history[1].ID)
	assert.Equal(t, "s3", history[2].ID)
	assert.Equal(t, 0.8, history[0].Performance.ResponseQuality)
	assert.Equal(t, 4*time.Second, history[0].Performance.ResponseTime)
}

func TestAppendSession_ReplayedIDAcrossPairs(t *testing.T) {
	db := testDB(t)
	repo := NewReviewSessionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	session := models.ReviewSession{
		ID: "s1", LearnerID: "l1", ItemID: "i1",
		Timestamp: now, Type: models.ReviewScheduled, CreatedAt: now,
	}
	require.NoError(t, repo.AppendSession(ctx, session))

	// Same id submitted for a different pair must hit the primary key and
	// surface as a duplicate, not a raw driver error.
	session.ItemID = "i2"
	err := repo.AppendSession(ctx, session)
	assert.ErrorIs(t, err, engine.ErrDuplicateSession)

	history, err := repo.History(ctx, "l1", "i2")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLearnerRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewLearnerRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	learner := &models.Learner{
		ID:                  "l1",
		Name:                "Ada",
		Policy:              models.PolicyLeitner,
		MaxDailyReviews:     15,
		NotificationEnabled: true,
		NotificationHour:    8,
		TelegramChatID:      424242,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	require.NoError(t, repo.SaveLearner(ctx, learner))

	got, err := repo.GetLearner(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, models.PolicyLeitner, got.Policy)
	assert.Equal(t, int64(424242), got.TelegramChatID)

	learner.Policy = models.PolicySuperMemo
	require.NoError(t, repo.SaveLearner(ctx, learner))
	got, err = repo.GetLearner(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, models.PolicySuperMemo, got.Policy)

	missing, err := repo.GetLearner(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := repo.ListLearners(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestItemRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	item := &models.LearningItem{
		ID:               "alg-1",
		Title:            "Binary search",
		ContentType:      models.ContentProcedure,
		Domain:           "algorithms",
		Difficulty:       4,
		CognitiveLoad:    2,
		Prerequisites:    []string{"alg-0"},
		ImportanceWeight: 0.7,
		MasteryThreshold: 0.85,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, repo.SaveItem(ctx, item))

	got, err := repo.GetItem(ctx, "alg-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Binary search", got.Title)
	assert.Equal(t, models.ContentProcedure, got.ContentType)
	assert.Equal(t, []string{"alg-0"}, got.Prerequisites)
	assert.Equal(t, 0.85, got.MasteryThreshold)

	require.NoError(t, repo.SaveItem(ctx, &models.LearningItem{
		ID: "math-1", Title: "Chain rule", ContentType: models.ContentConcept,
		Domain: "calculus", Difficulty: 7,
		CreatedAt: now, UpdatedAt: now,
	}))

	algorithms, err := repo.ListItems(ctx, "algorithms")
	require.NoError(t, err)
	require.Len(t, algorithms, 1)
	assert.Equal(t, "alg-1", algorithms[0].ID)

	all, err := repo.ListItems(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPolicyStateRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewPolicyStateRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	ps := &models.PolicyState{
		LearnerID:      "l1",
		ItemID:         "i1",
		Kind:           models.PolicySuperMemo,
		EasinessFactor: 2.3,
		Repetitions:    4,
		IntervalDays:   15,
		UpdatedAt:      now,
	}
	require.NoError(t, repo.SavePolicyState(ctx, ps))

	got, err := repo.GetPolicyState(ctx, "l1", "i1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.PolicySuperMemo, got.Kind)
	assert.Equal(t, 2.3, got.EasinessFactor)
	assert.Equal(t, 4, got.Repetitions)

	ps.Repetitions = 5
	require.NoError(t, repo.SavePolicyState(ctx, ps))
	got, err = repo.GetPolicyState(ctx, "l1", "i1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.Repetitions)

	require.NoError(t, repo.DeletePolicyStates(ctx, "l1"))
	got, err = repo.GetPolicyState(ctx, "l1", "i1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
