package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/recallengine/pkg/models"
)

// IntervalConfig tunes the default interval calculator.
// Zero values produce the documented defaults.
type IntervalConfig struct {
	MinInterval      time.Duration // zero → 4h
	MaxIntervalDays  int           // zero → 365
	SuccessThreshold float64       // zero → 0.7; quality above this counts as success
	FailureThreshold float64       // zero → 0.3; quality below this counts as failure
}

// WithDefaults fills zero-valued fields with defaults.
func (c IntervalConfig) WithDefaults() IntervalConfig {
	if c.MinInterval == 0 {
		c.MinInterval = 4 * time.Hour
	}
	if c.MaxIntervalDays == 0 {
		c.MaxIntervalDays = 365
	}
	if c.SuccessThreshold == 0 {
		c.SuccessThreshold = 0.7
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 0.3
	}
	return c
}

// Adjustment returns the interval multiplier for a response quality:
// 1.3 for success, 0.7 for failure, 1.0 in between.
func Adjustment(quality float64, cfg IntervalConfig) float64 {
	cfg = cfg.WithDefaults()
	switch {
	case quality > cfg.SuccessThreshold:
		return 1.3
	case quality < cfg.FailureThreshold:
		return 0.7
	default:
		return 1.0
	}
}

// NextReviewDate computes when the item should next be reviewed, from the
// post-update memory state and the review's response quality. Pure function:
// base interval is the state's stability in days, scaled by the quality
// adjustment, rounded to whole days, and clamped between MinInterval and
// MaxIntervalDays.
func NextReviewDate(state *models.MemoryState, quality float64, now time.Time, cfg IntervalConfig) time.Time {
	cfg = cfg.WithDefaults()

	days := math.Round(state.Stability * Adjustment(quality, cfg))
	interval := time.Duration(days) * 24 * time.Hour

	if interval < cfg.MinInterval {
		interval = cfg.MinInterval
	}
	if max := time.Duration(cfg.MaxIntervalDays) * 24 * time.Hour; interval > max {
		interval = max
	}
	return now.Add(interval)
}
