package advisory

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/example/recallengine/internal/spaced_repetition"
	"github.com/example/recallengine/pkg/models"
)

// DefaultTimeout bounds every advisory call.
const DefaultTimeout = 5 * time.Second

// Service is the engine-facing advisory entry point. The deterministic path
// is the primary implementation; the wrapped Advisor is a strictly optional
// refinement. Neither method can fail: any advisor error, timeout, or
// malformed response is logged and converted to the fallback output.
type Service struct {
	advisor  Advisor // nil → fallback only
	timeout  time.Duration
	interval spaced_repetition.IntervalConfig
	log      *slog.Logger
}

// NewService wraps an optional Advisor. advisor may be nil.
func NewService(advisor Advisor, interval spaced_repetition.IntervalConfig, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		advisor:  advisor,
		timeout:  DefaultTimeout,
		interval: interval.WithDefaults(),
		log:      log,
	}
}

// WithTimeout overrides the per-call advisory timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// Intervals returns a recommendation per state, consulting the advisor when
// present and falling back to the stability-based formula otherwise.
func (s *Service) Intervals(ctx context.Context, states []models.MemoryState) []IntervalRecommendation {
	if s.advisor != nil {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		recs, err := s.advisor.SuggestIntervals(callCtx, states)
		cancel()
		if err == nil {
			return recs
		}
		s.log.Warn("interval advisory failed, using deterministic fallback", "error", err)
	}
	return s.fallbackIntervals(states)
}

// fallbackIntervals applies the interval calculator's clamping to each
// state's current stability.
func (s *Service) fallbackIntervals(states []models.MemoryState) []IntervalRecommendation {
	minDays := s.interval.MinInterval.Hours() / 24.0
	recs := make([]IntervalRecommendation, 0, len(states))
	for _, st := range states {
		days := math.Round(st.Stability)
		if days < minDays {
			days = minDays
		}
		if days > float64(s.interval.MaxIntervalDays) {
			days = float64(s.interval.MaxIntervalDays)
		}
		recs = append(recs, IntervalRecommendation{
			ItemID:       st.ItemID,
			IntervalDays: days,
			Rationale:    "stability-based interval",
		})
	}
	return recs
}

// ReviewWindows returns suggested daily review windows for a learner,
// consulting the advisor when present.
func (s *Service) ReviewWindows(ctx context.Context, profile LearnerProfile) []TimeWindow {
	if s.advisor != nil {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		windows, err := s.advisor.SuggestReviewWindows(callCtx, profile)
		cancel()
		if err == nil {
			return windows
		}
		s.log.Warn("window advisory failed, using deterministic fallback", "error", err)
	}
	return fallbackWindows(profile)
}

// fallbackWindows yields a morning and an evening window, shifting the
// morning one to the learner's preferred hour when it is set.
func fallbackWindows(profile LearnerProfile) []TimeWindow {
	morning := TimeWindow{StartHour: 8, EndHour: 10, Label: "morning"}
	if h := profile.PreferredHour; h > 0 && h < 22 {
		morning = TimeWindow{StartHour: h, EndHour: h + 2, Label: "preferred"}
	}
	return []TimeWindow{
		morning,
		{StartHour: 19, EndHour: 21, Label: "evening"},
	}
}
