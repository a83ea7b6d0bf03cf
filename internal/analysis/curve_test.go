package analysis

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallengine/pkg/models"
)

type fakeSessions map[string][]models.ReviewSession

func (f fakeSessions) History(_ context.Context, learnerID, itemID string) ([]models.ReviewSession, error) {
	return f[learnerID+"/"+itemID], nil
}

type fakeStates struct {
	state *models.MemoryState
	saved *models.MemoryState
}

func (f *fakeStates) GetState(_ context.Context, _, _ string) (*models.MemoryState, error) {
	return f.state, nil
}

func (f *fakeStates) SaveState(_ context.Context, state *models.MemoryState) error {
	f.saved = state
	return nil
}

func sessionAt(id string, t time.Time, quality float64) models.ReviewSession {
	return models.ReviewSession{
		ID:          id,
		LearnerID:   "l1",
		ItemID:      "i1",
		Timestamp:   t,
		Performance: models.PerformanceData{ResponseQuality: quality},
	}
}

// decayHistory builds sessions whose retention follows the model exactly.
func decayHistory(t0 time.Time, initial, asym, halfLife float64, days []float64) []models.ReviewSession {
	out := make([]models.ReviewSession, 0, len(days))
	for i, d := range days {
		retention := asym + (initial-asym)*math.Exp(-d/halfLife)
		out = append(out, sessionAt(
			string(rune('a'+i)),
			t0.Add(time.Duration(d*24*float64(time.Hour))),
			retention,
		))
	}
	return out
}

func TestAnalyze_InsufficientData(t *testing.T) {
	sessions := fakeSessions{"l1/i1": {sessionAt("a", time.Now(), 0.9)}}
	analyzer := NewAnalyzer(sessions, nil, Config{}, nil)

	_, err := analyzer.Analyze(context.Background(), "l1", "i1")
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = analyzer.Analyze(context.Background(), "l1", "missing")
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestAnalyze_RecoversHalfLife(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	history := decayHistory(t0, 0.95, 0.2, 5.0, []float64{0, 1, 3, 7, 14})
	analyzer := NewAnalyzer(fakeSessions{"l1/i1": history}, nil, Config{}, nil)

	fit, err := analyzer.Analyze(context.Background(), "l1", "i1")
	require.NoError(t, err)

	assert.InDelta(t, 5.0, fit.HalfLife, 0.5)
	assert.Greater(t, fit.RSquared, 0.95)
	assert.Equal(t, 0.2, fit.Asymptote)
	assert.Len(t, fit.Points, 5)
}

func TestAnalyze_Deterministic(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	history := decayHistory(t0, 0.9, 0.2, 3.0, []float64{0, 2, 5, 9})
	analyzer := NewAnalyzer(fakeSessions{"l1/i1": history}, nil, Config{}, nil)

	first, err := analyzer.Analyze(context.Background(), "l1", "i1")
	require.NoError(t, err)
	second, err := analyzer.Analyze(context.Background(), "l1", "i1")
	require.NoError(t, err)

	assert.Equal(t, first.HalfLife, second.HalfLife)
	assert.Equal(t, first.RSquared, second.RSquared)
	assert.Equal(t, first.Predictions, second.Predictions)
}

func TestAnalyze_OrderIndependent(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	history := decayHistory(t0, 0.9, 0.2, 4.0, []float64{0, 1, 4, 10})
	reversed := make([]models.ReviewSession, len(history))
	for i, s := range history {
		reversed[len(history)-1-i] = s
	}

	a := NewAnalyzer(fakeSessions{"l1/i1": history}, nil, Config{}, nil)
	b := NewAnalyzer(fakeSessions{"l1/i1": reversed}, nil, Config{}, nil)

	fitA, err := a.Analyze(context.Background(), "l1", "i1")
	require.NoError(t, err)
	fitB, err := b.Analyze(context.Background(), "l1", "i1")
	require.NoError(t, err)

	assert.Equal(t, fitA.HalfLife, fitB.HalfLife)
}

func TestAnalyze_ImprovingHistoryFallsBack(t *testing.T) {
	// Retention going up over time cannot produce a decay fit; the half-life
	// pins to the maximum with a zero fit quality.
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	history := []models.ReviewSession{
		sessionAt("a", t0, 0.3),
		sessionAt("b", t0.AddDate(0, 0, 3), 0.6),
		sessionAt("c", t0.AddDate(0, 0, 6), 0.9),
	}
	analyzer := NewAnalyzer(fakeSessions{"l1/i1": history}, nil, Config{}, nil)

	fit, err := analyzer.Analyze(context.Background(), "l1", "i1")
	require.NoError(t, err)

	assert.Equal(t, 365.0, fit.HalfLife)
	assert.Equal(t, 0.0, fit.RSquared)
}

func TestAnalyze_PredictionUrgencies(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	history := decayHistory(t0, 0.95, 0.2, 2.0, []float64{0, 1, 3, 6})
	analyzer := NewAnalyzer(fakeSessions{"l1/i1": history}, nil, Config{}, nil)

	fit, err := analyzer.Analyze(context.Background(), "l1", "i1")
	require.NoError(t, err)

	require.Len(t, fit.Predictions, 7)
	// With a two-day half-life the far horizons decay to the asymptote.
	last := fit.Predictions[len(fit.Predictions)-1]
	assert.Equal(t, 64.0, last.Days)
	assert.InDelta(t, 0.2, last.Retention, 0.01)
	assert.Equal(t, models.UrgencyHigh, last.Urgency)

	first := fit.Predictions[0]
	assert.Equal(t, 1.0, first.Days)
	assert.Greater(t, first.Retention, last.Retention)
}

func TestRefresh_WritesBackCurveParams(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	history := decayHistory(t0, 0.9, 0.2, 4.0, []float64{0, 2, 6})
	states := &fakeStates{state: &models.MemoryState{LearnerID: "l1", ItemID: "i1"}}
	analyzer := NewAnalyzer(fakeSessions{"l1/i1": history}, states, Config{}, nil)

	fit, err := analyzer.Refresh(context.Background(), "l1", "i1")
	require.NoError(t, err)
	require.NotNil(t, states.saved)

	assert.InDelta(t, 1/fit.HalfLife, states.saved.CurveParams.DecayRate, 1e-9)
	assert.Equal(t, fit.Asymptote, states.saved.CurveParams.Asymptote)
	assert.False(t, states.saved.CurveParams.LastCalculated.IsZero())
	assert.Greater(t, states.saved.Personalization.AbilityEstimate, 0.0)
}

func TestRefresh_NoStateSkipsWrite(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	history := decayHistory(t0, 0.9, 0.2, 4.0, []float64{0, 2})
	states := &fakeStates{}
	analyzer := NewAnalyzer(fakeSessions{"l1/i1": history}, states, Config{}, nil)

	_, err := analyzer.Refresh(context.Background(), "l1", "i1")
	require.NoError(t, err)
	assert.Nil(t, states.saved)
}
