package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/recallengine/internal/spaced_repetition"
	"github.com/example/recallengine/pkg/models"
)

// Engine is the review recorder: it owns all mutations of memory states.
// Updates to the same (learner, item) pair are serialized through a per-key
// lock; different pairs proceed concurrently.
type Engine struct {
	cfg      Config
	interval spaced_repetition.IntervalConfig
	stores   Stores
	log      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig overrides the update-rule tuning.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithIntervalConfig overrides the default interval calculator tuning.
func WithIntervalConfig(cfg spaced_repetition.IntervalConfig) Option {
	return func(e *Engine) { e.interval = cfg }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an Engine over the given stores.
func New(stores Stores, opts ...Option) *Engine {
	e := &Engine{
		stores: stores,
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cfg = e.cfg.withDefaults()
	e.interval = e.interval.WithDefaults()
	if e.log == nil {
		e.log = slog.Default()
	}
	return e
}

// lockFor returns the mutex serializing updates for one (learner, item) pair.
func (e *Engine) lockFor(learnerID, itemID string) *sync.Mutex {
	key := learnerID + "\x00" + itemID
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	return l
}

// AddItem creates the memory state for a learner's first exposure to an item,
// optionally seeded from an initial performance sample. Adding an item that
// already has a state returns the existing state unchanged.
func (e *Engine) AddItem(ctx context.Context, learnerID string, item *models.LearningItem, initial *models.PerformanceData) (*models.MemoryState, error) {
	lock := e.lockFor(learnerID, item.ID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := e.stores.States.GetState(ctx, learnerID, item.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	state := &models.MemoryState{
		LearnerID:      learnerID,
		ItemID:         item.ID,
		MemoryStrength: 0.3,
		Stability:      1.0,
		Retrievability: 0.5,
		Difficulty:     item.NormalizedDifficulty(),
		NextReviewDate: now, // immediately reviewable
		Phase:          models.PhaseAcquisition,
		CurveParams: models.ForgettingCurveParams{
			InitialStrength: 0.3,
			DecayRate:       1.0,
			Asymptote:       0.2,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if initial != nil {
		q := initial.ResponseQuality
		state.MemoryStrength = q
		state.Retrievability = q
		state.Stability = 1.0 + q
		state.CurveParams.InitialStrength = q
	}

	if err := e.stores.States.SaveState(ctx, state); err != nil {
		return nil, err
	}
	e.log.Debug("memory state created",
		"learner", learnerID, "item", item.ID, "stability", state.Stability)
	return state, nil
}

// RecordResult is what a successful Record call returns.
type RecordResult struct {
	State      models.MemoryState
	NextReview time.Time
	Insights   []string
}

// Record ingests a completed review: it validates the outcome, runs the
// update rule on the pair's memory state, asks the learner's active policy
// for the next review date, persists the state, and appends the immutable
// session record.
//
// A missing state returns ErrNotFound; a replayed session id returns
// ErrDuplicateSession. Storage failures propagate untouched.
func (e *Engine) Record(ctx context.Context, learnerID, itemID string, outcome models.ReviewOutcome) (*RecordResult, error) {
	if err := ValidateOutcome(outcome); err != nil {
		return nil, err
	}

	now := outcome.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	lock := e.lockFor(learnerID, itemID)
	lock.Lock()
	defer lock.Unlock()

	state, err := e.stores.States.GetState(ctx, learnerID, itemID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("%w: learner %s, item %s", ErrNotFound, learnerID, itemID)
	}

	sessionID := outcome.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else {
		exists, err := e.stores.Sessions.SessionExists(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: session %s", ErrDuplicateSession, sessionID)
		}
	}

	prev := *state
	quality := outcome.Performance.ResponseQuality
	ApplyReview(state, quality, now, e.cfg)

	next, err := e.nextReview(ctx, state, quality, now)
	if err != nil {
		return nil, err
	}
	state.NextReviewDate = next

	if err := e.stores.States.SaveState(ctx, state); err != nil {
		return nil, err
	}

	reviewType := outcome.Type
	if reviewType == "" {
		reviewType = models.ReviewScheduled
	}
	session := models.ReviewSession{
		ID:          sessionID,
		LearnerID:   learnerID,
		ItemID:      itemID,
		Timestamp:   now,
		Type:        reviewType,
		Performance: outcome.Performance,
		Context:     outcome.Context,
		CreatedAt:   now,
	}
	if err := e.stores.Sessions.AppendSession(ctx, session); err != nil {
		return nil, err
	}

	e.log.Debug("review recorded",
		"learner", learnerID, "item", itemID, "quality", quality,
		"phase", state.Phase.String(), "next_review", next)

	return &RecordResult{
		State:      *state,
		NextReview: next,
		Insights:   insightsFor(prev, *state),
	}, nil
}

// nextReview resolves the learner's active policy and asks it for the next
// review date, persisting variant state when the policy keeps any.
func (e *Engine) nextReview(ctx context.Context, state *models.MemoryState, quality float64, now time.Time) (time.Time, error) {
	kind := models.PolicyDefault
	learner, err := e.stores.Learners.GetLearner(ctx, state.LearnerID)
	if err != nil {
		return time.Time{}, err
	}
	if learner != nil && learner.Policy != "" {
		kind = learner.Policy
	}

	policy, err := spaced_repetition.PolicyFor(kind, e.interval)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, kind)
	}

	if kind == models.PolicyDefault {
		return policy.Update(state, nil, quality, now), nil
	}

	ps, err := e.stores.Policies.GetPolicyState(ctx, state.LearnerID, state.ItemID)
	if err != nil {
		return time.Time{}, err
	}
	if ps == nil {
		ps = spaced_repetition.SeedPolicyState(kind, state, now)
	}
	next := policy.Update(state, ps, quality, now)
	if err := e.stores.Policies.SavePolicyState(ctx, ps); err != nil {
		return time.Time{}, err
	}
	return next, nil
}

// SwitchPolicy rebinds a learner to a different scheduling policy. The
// variant state is migrated eagerly: every memory state is converted through
// the documented one-time seed, and the previous policy's state is discarded.
func (e *Engine) SwitchPolicy(ctx context.Context, learnerID string, kind models.PolicyKind) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, kind)
	}
	learner, err := e.stores.Learners.GetLearner(ctx, learnerID)
	if err != nil {
		return err
	}
	if learner == nil {
		return fmt.Errorf("%w: learner %s", ErrNotFound, learnerID)
	}
	if learner.Policy == kind {
		return nil
	}

	if err := e.stores.Policies.DeletePolicyStates(ctx, learnerID); err != nil {
		return err
	}

	now := time.Now().UTC()
	if kind != models.PolicyDefault {
		states, err := e.stores.States.ListStates(ctx, learnerID)
		if err != nil {
			return err
		}
		for i := range states {
			ps := spaced_repetition.SeedPolicyState(kind, &states[i], now)
			if err := e.stores.Policies.SavePolicyState(ctx, ps); err != nil {
				return err
			}
		}
	}

	learner.Policy = kind
	learner.UpdatedAt = now
	if err := e.stores.Learners.SaveLearner(ctx, learner); err != nil {
		return err
	}
	e.log.Info("scheduling policy switched", "learner", learnerID, "policy", string(kind))
	return nil
}

// insightsFor derives short human-readable observations from a state
// transition.
func insightsFor(prev, cur models.MemoryState) []string {
	var out []string
	if prev.Phase != cur.Phase {
		out = append(out, fmt.Sprintf("learning phase changed from %s to %s", prev.Phase, cur.Phase))
	}
	if cur.ConsecutiveSuccesses > 0 && cur.ConsecutiveSuccesses%5 == 0 {
		out = append(out, fmt.Sprintf("success streak reached %d reviews", cur.ConsecutiveSuccesses))
	}
	if cur.Stability < prev.Stability {
		out = append(out, "stability declining; review interval tightened")
	}
	if cur.MemoryStrength >= 0.9 {
		out = append(out, "recall is near ceiling; intervals can stretch")
	}
	return out
}
