// Package analysis fits forgetting curves to review history and feeds the
// refined decay estimates back into the memory model.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/example/recallengine/pkg/models"
)

// ErrInsufficientData is returned when a curve fit is requested with fewer
// than two recorded review sessions.
var ErrInsufficientData = errors.New("analysis: insufficient review history for curve fit")

// SessionSource supplies the append-only review history for a pair.
type SessionSource interface {
	History(ctx context.Context, learnerID, itemID string) ([]models.ReviewSession, error)
}

// StateSink lets the analyzer write refined curve parameters back into the
// memory model. GetState returns (nil, nil) for unknown pairs.
type StateSink interface {
	GetState(ctx context.Context, learnerID, itemID string) (*models.MemoryState, error)
	SaveState(ctx context.Context, state *models.MemoryState) error
}

// Config tunes the curve fit. Zero values produce the documented defaults.
type Config struct {
	Asymptote          float64   // zero → 0.2; floor the curve decays toward
	MinHalfLife        float64   // zero → 0.1 days
	MaxHalfLife        float64   // zero → 365 days
	PredictionHorizons []float64 // nil → doubling intervals 1..64 days
}

func (c Config) withDefaults() Config {
	if c.Asymptote == 0 {
		c.Asymptote = 0.2
	}
	if c.MinHalfLife == 0 {
		c.MinHalfLife = 0.1
	}
	if c.MaxHalfLife == 0 {
		c.MaxHalfLife = 365
	}
	if c.PredictionHorizons == nil {
		c.PredictionHorizons = []float64{1, 2, 4, 8, 16, 32, 64}
	}
	return c
}

// Analyzer fits exponential retention-decay curves per (learner, item) pair.
// It runs offline over immutable history; no locking is required.
type Analyzer struct {
	sessions SessionSource
	states   StateSink
	cfg      Config
	log      *slog.Logger
}

// NewAnalyzer creates an Analyzer. states may be nil if curve parameters are
// never written back.
func NewAnalyzer(sessions SessionSource, states StateSink, cfg Config, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{sessions: sessions, states: states, cfg: cfg.withDefaults(), log: log}
}

// Analyze fits retention(t) = asymptote + (initial − asymptote)·e^(−t/halfLife)
// to the pair's review history. The fit is an ordinary least-squares
// regression through the origin on the log-transformed points, so identical
// history always produces an identical fit. Requires at least two sessions;
// otherwise ErrInsufficientData.
func (a *Analyzer) Analyze(ctx context.Context, learnerID, itemID string) (*models.ForgettingCurveAnalysis, error) {
	history, err := a.sessions.History(ctx, learnerID, itemID)
	if err != nil {
		return nil, err
	}
	if len(history) < 2 {
		return nil, fmt.Errorf("%w: learner %s, item %s has %d sessions, need 2",
			ErrInsufficientData, learnerID, itemID, len(history))
	}

	// Stable chronological order regardless of storage ordering.
	sort.Slice(history, func(i, j int) bool {
		if !history[i].Timestamp.Equal(history[j].Timestamp) {
			return history[i].Timestamp.Before(history[j].Timestamp)
		}
		return history[i].ID < history[j].ID
	})

	t0 := history[0].Timestamp
	points := make([]models.CurvePoint, len(history))
	for i, s := range history {
		points[i] = models.CurvePoint{
			DaysSinceLearning: s.Timestamp.Sub(t0).Hours() / 24.0,
			Retention:         s.Performance.ResponseQuality,
		}
	}

	asym := a.cfg.Asymptote
	initial := points[0].Retention
	if initial <= asym+0.05 {
		initial = asym + 0.05
	}
	if initial > 1 {
		initial = 1
	}

	// Log-linearize: y = ln((r − a)/(i − a)) decays as −t/halfLife.
	ts := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	for _, p := range points {
		r := p.Retention
		if r <= asym {
			r = asym + 1e-3
		}
		if r > initial {
			r = initial
		}
		ts = append(ts, p.DaysSinceLearning)
		ys = append(ys, math.Log((r-asym)/(initial-asym)))
	}

	_, beta := stat.LinearRegression(ts, ys, nil, true)

	halfLife := a.cfg.MaxHalfLife
	rsq := 0.0
	if beta < 0 && !math.IsNaN(beta) && !math.IsInf(beta, 0) {
		halfLife = -1 / beta
		if halfLife < a.cfg.MinHalfLife {
			halfLife = a.cfg.MinHalfLife
		}
		if halfLife > a.cfg.MaxHalfLife {
			halfLife = a.cfg.MaxHalfLife
		}
		rsq = stat.RSquared(ts, ys, nil, 0, beta)
		if math.IsNaN(rsq) || rsq < 0 {
			rsq = 0
		}
	}

	analysis := &models.ForgettingCurveAnalysis{
		LearnerID:       learnerID,
		ItemID:          itemID,
		InitialStrength: initial,
		HalfLife:        halfLife,
		Asymptote:       asym,
		RSquared:        rsq,
		Points:          points,
		Predictions:     a.predict(initial, asym, halfLife),
		AnalyzedAt:      time.Now().UTC(),
	}
	analysis.Insights = a.insights(history, analysis)
	return analysis, nil
}

// predict projects the fitted curve forward at the configured horizons.
func (a *Analyzer) predict(initial, asym, halfLife float64) []models.RetentionPrediction {
	out := make([]models.RetentionPrediction, 0, len(a.cfg.PredictionHorizons))
	for _, days := range a.cfg.PredictionHorizons {
		retention := asym + (initial-asym)*math.Exp(-days/halfLife)
		out = append(out, models.RetentionPrediction{
			Days:      days,
			Retention: retention,
			Urgency:   urgencyFor(retention),
		})
	}
	return out
}

func urgencyFor(retention float64) models.ReviewUrgency {
	switch {
	case retention < 0.5:
		return models.UrgencyHigh
	case retention < 0.7:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

// insights derives personalization observations from the history and fit.
func (a *Analyzer) insights(history []models.ReviewSession, fit *models.ForgettingCurveAnalysis) []string {
	qualities := make([]float64, len(history))
	for i, s := range history {
		qualities[i] = s.Performance.ResponseQuality
	}
	ability := stat.Mean(qualities, nil)

	var out []string
	out = append(out, fmt.Sprintf("estimated ability for this item: %.2f", ability))
	switch {
	case fit.HalfLife < 2:
		out = append(out, "retention decays quickly; short intervals recommended")
	case fit.HalfLife > 30:
		out = append(out, "retention is highly stable; intervals can stretch")
	}
	if interference(qualities) > 0.3 {
		out = append(out, "failures follow successes often; possible interference from similar items")
	}
	return out
}

// interference measures how often a failure directly follows a success, a
// rough proxy for interference susceptibility.
func interference(qualities []float64) float64 {
	if len(qualities) < 2 {
		return 0
	}
	drops := 0
	for i := 1; i < len(qualities); i++ {
		if qualities[i-1] > 0.7 && qualities[i] < 0.3 {
			drops++
		}
	}
	return float64(drops) / float64(len(qualities)-1)
}

// Refresh runs Analyze and writes the fitted parameters back into the pair's
// memory state, completing the asynchronous feedback loop into the memory
// model. The write is skipped when no state exists for the pair.
func (a *Analyzer) Refresh(ctx context.Context, learnerID, itemID string) (*models.ForgettingCurveAnalysis, error) {
	fit, err := a.Analyze(ctx, learnerID, itemID)
	if err != nil {
		return nil, err
	}
	if a.states == nil {
		return fit, nil
	}

	state, err := a.states.GetState(ctx, learnerID, itemID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return fit, nil
	}

	history, err := a.sessions.History(ctx, learnerID, itemID)
	if err != nil {
		return nil, err
	}
	qualities := make([]float64, len(history))
	for i, s := range history {
		qualities[i] = s.Performance.ResponseQuality
	}

	state.CurveParams = models.ForgettingCurveParams{
		InitialStrength: fit.InitialStrength,
		DecayRate:       1 / fit.HalfLife,
		Asymptote:       fit.Asymptote,
		LastCalculated:  fit.AnalyzedAt,
	}
	state.Personalization.AbilityEstimate = stat.Mean(qualities, nil)
	state.Personalization.InterferenceSusceptibility = interference(qualities)
	state.UpdatedAt = fit.AnalyzedAt

	if err := a.states.SaveState(ctx, state); err != nil {
		return nil, err
	}
	a.log.Debug("curve parameters refreshed",
		"learner", learnerID, "item", itemID,
		"half_life", fit.HalfLife, "r_squared", fit.RSquared)
	return fit, nil
}
