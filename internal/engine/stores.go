package engine

import (
	"context"

	"github.com/example/recallengine/pkg/models"
)

// StateStore is the persistence boundary for memory states. Load methods
// return (nil, nil) when no row exists; storage failures propagate untouched.
type StateStore interface {
	GetState(ctx context.Context, learnerID, itemID string) (*models.MemoryState, error)
	SaveState(ctx context.Context, state *models.MemoryState) error
	ListStates(ctx context.Context, learnerID string) ([]models.MemoryState, error)
}

// SessionStore is the append-only review history. AppendSession returns
// ErrDuplicateSession when the session id is already recorded, including
// replays the recorder's per-pair check cannot see.
type SessionStore interface {
	AppendSession(ctx context.Context, session models.ReviewSession) error
	SessionExists(ctx context.Context, sessionID string) (bool, error)
	History(ctx context.Context, learnerID, itemID string) ([]models.ReviewSession, error)
}

// LearnerStore resolves learner settings, including the active policy
// binding. GetLearner returns (nil, nil) when the learner is unknown.
type LearnerStore interface {
	GetLearner(ctx context.Context, id string) (*models.Learner, error)
	SaveLearner(ctx context.Context, learner *models.Learner) error
}

// PolicyStateStore persists the parallel state of alternative scheduling
// policies (Leitner boxes, SM-2 easiness factors).
type PolicyStateStore interface {
	GetPolicyState(ctx context.Context, learnerID, itemID string) (*models.PolicyState, error)
	SavePolicyState(ctx context.Context, ps *models.PolicyState) error
	DeletePolicyStates(ctx context.Context, learnerID string) error
}

// Stores bundles the persistence collaborators the engine needs.
type Stores struct {
	States   StateStore
	Sessions SessionStore
	Learners LearnerStore
	Policies PolicyStateStore
}
