package engine

import "errors"

// Sentinel errors for the engine package.
// Use errors.Is to check: errors.Is(err, engine.ErrNotFound)
var (
	// ErrNotFound means no memory state exists for the (learner, item) pair;
	// the item must be added before it can be reviewed.
	ErrNotFound = errors.New("engine: no memory state for learner/item pair")

	// ErrDuplicateSession means a review with the same session id was
	// already recorded. Replays are rejected, not merged.
	ErrDuplicateSession = errors.New("engine: review session already recorded")

	// ErrInvalidOutcome means the submitted review outcome failed boundary
	// validation (NaN, out-of-range quality, negative duration).
	ErrInvalidOutcome = errors.New("engine: invalid review outcome")

	// ErrUnknownPolicy means a learner is bound to a policy kind the engine
	// does not implement.
	ErrUnknownPolicy = errors.New("engine: unknown scheduling policy")
)
