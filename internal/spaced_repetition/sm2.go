package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/recallengine/pkg/models"
)

// minEasinessFactor is the SM-2 lower bound for the easiness factor.
const minEasinessFactor = 1.3

// SuperMemoPolicy implements the SuperMemo-2 algorithm as an alternative
// scheduling policy. State is the easiness factor plus the repetition count,
// kept on PolicyState.
type SuperMemoPolicy struct {
	// PassThreshold is the 0-5 grade at which a response counts as correct.
	PassThreshold int
	// MaxIntervalDays caps the computed interval.
	MaxIntervalDays int
	// InitialIntervals are the fixed intervals in days for the first
	// repetitions; later repetitions use interval·EF.
	InitialIntervals []int
}

// NewSuperMemoPolicy returns an SM-2 policy with default settings.
func NewSuperMemoPolicy() *SuperMemoPolicy {
	return &SuperMemoPolicy{
		PassThreshold:    3,
		MaxIntervalDays:  365,
		InitialIntervals: []int{1, 2, 3, 7, 10, 15, 20, 30},
	}
}

// Kind implements ReviewPolicy.
func (p *SuperMemoPolicy) Kind() models.PolicyKind { return models.PolicySuperMemo }

// Grade maps a 0-1 response quality onto the SM-2 0-5 grade scale.
func (p *SuperMemoPolicy) Grade(quality float64) int {
	g := int(math.Round(quality * 5))
	if g < 0 {
		g = 0
	}
	if g > 5 {
		g = 5
	}
	return g
}

// Update implements ReviewPolicy. It applies the SM-2 easiness-factor update
// and interval progression to ps and returns the next review date.
func (p *SuperMemoPolicy) Update(_ *models.MemoryState, ps *models.PolicyState, quality float64, now time.Time) time.Time {
	ps.Kind = models.PolicySuperMemo
	if ps.EasinessFactor == 0 {
		ps.EasinessFactor = 2.5
	}

	grade := p.Grade(quality)

	// EF' = EF + (0.1 − (5−g)·(0.08 + (5−g)·0.02)), floored at 1.3.
	g := float64(grade)
	ef := ps.EasinessFactor + (0.1 - (5.0-g)*(0.08+(5.0-g)*0.02))
	if ef < minEasinessFactor {
		ef = minEasinessFactor
	}
	ps.EasinessFactor = ef

	if grade >= p.PassThreshold {
		ps.Repetitions++
		if ps.Repetitions <= len(p.InitialIntervals) {
			ps.IntervalDays = p.InitialIntervals[ps.Repetitions-1]
		} else {
			ps.IntervalDays = int(float64(ps.IntervalDays) * ps.EasinessFactor)
		}
		if ps.IntervalDays > p.MaxIntervalDays {
			ps.IntervalDays = p.MaxIntervalDays
		}
	} else {
		// Incorrect response: restart the repetition ladder the next day.
		ps.Repetitions = 0
		ps.IntervalDays = 1
	}

	ps.UpdatedAt = now
	return now.AddDate(0, 0, ps.IntervalDays)
}
