package engine

import (
	"fmt"
	"math"

	"github.com/example/recallengine/pkg/models"
)

// ValidateOutcome rejects malformed review outcomes before they reach the
// update rule. The deterministic computations downstream cannot fail on
// valid input, so all rejection happens here.
func ValidateOutcome(o models.ReviewOutcome) error {
	p := o.Performance
	if math.IsNaN(p.ResponseQuality) || p.ResponseQuality < 0 || p.ResponseQuality > 1 {
		return fmt.Errorf("%w: response quality %v out of [0,1]", ErrInvalidOutcome, p.ResponseQuality)
	}
	if p.ResponseTime < 0 {
		return fmt.Errorf("%w: negative response time %v", ErrInvalidOutcome, p.ResponseTime)
	}
	if math.IsNaN(p.Confidence) || p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v out of [0,1]", ErrInvalidOutcome, p.Confidence)
	}
	if math.IsNaN(p.Effort) || p.Effort < 0 || p.Effort > 1 {
		return fmt.Errorf("%w: effort %v out of [0,1]", ErrInvalidOutcome, p.Effort)
	}
	if p.HintsUsed < 0 || p.Errors < 0 {
		return fmt.Errorf("%w: negative hint or error count", ErrInvalidOutcome)
	}
	if o.Type != "" && !validReviewType(o.Type) {
		return fmt.Errorf("%w: unknown review type %q", ErrInvalidOutcome, o.Type)
	}
	return nil
}

func validReviewType(t models.ReviewType) bool {
	switch t {
	case models.ReviewInitialLearning, models.ReviewScheduled, models.ReviewCramming,
		models.ReviewReinforcement, models.ReviewAssessment:
		return true
	}
	return false
}
