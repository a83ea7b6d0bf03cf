package spaced_repetition

import (
	"time"

	"github.com/example/recallengine/pkg/models"
)

// defaultBoxIntervals are the review intervals in days for boxes 1..5.
var defaultBoxIntervals = []int{1, 3, 7, 14, 30}

// LeitnerPolicy implements the classic Leitner box system: a correct answer
// promotes the item one box up, a failure demotes it all the way back to
// box 1. Each box has a fixed review interval.
type LeitnerPolicy struct {
	Intervals        []int   // days per box, box 1 first
	PromoteThreshold float64 // quality at or above this promotes
}

// NewLeitnerPolicy returns a Leitner policy with five boxes and the
// 1/3/7/14/30-day interval ladder.
func NewLeitnerPolicy() *LeitnerPolicy {
	return &LeitnerPolicy{
		Intervals:        defaultBoxIntervals,
		PromoteThreshold: 0.6,
	}
}

// Kind implements ReviewPolicy.
func (p *LeitnerPolicy) Kind() models.PolicyKind { return models.PolicyLeitner }

// Update implements ReviewPolicy. It mutates ps's box assignment and returns
// the next review date.
func (p *LeitnerPolicy) Update(_ *models.MemoryState, ps *models.PolicyState, quality float64, now time.Time) time.Time {
	ps.Kind = models.PolicyLeitner
	if ps.Box < 1 {
		ps.Box = 1
	}

	if quality >= p.PromoteThreshold {
		if ps.Box < len(p.Intervals) {
			ps.Box++
		}
	} else {
		// Any failure sends the item back to the first box.
		ps.Box = 1
	}

	ps.IntervalDays = p.Intervals[ps.Box-1]
	ps.UpdatedAt = now
	return now.AddDate(0, 0, ps.IntervalDays)
}
