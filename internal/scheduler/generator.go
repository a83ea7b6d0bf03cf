package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/example/recallengine/pkg/models"
)

// StateSource supplies a consistent snapshot of a learner's memory states.
// The generator only reads; it never holds locks across the snapshot.
type StateSource interface {
	ListStates(ctx context.Context, learnerID string) ([]models.MemoryState, error)
}

// ItemSource resolves learning-item metadata (cognitive load, difficulty).
// GetItem returns (nil, nil) for unknown items.
type ItemSource interface {
	GetItem(ctx context.Context, id string) (*models.LearningItem, error)
}

// Config tunes the schedule generator. Zero values produce the documented
// defaults; the weights are empirical and deliberately configurable.
type Config struct {
	OverdueWeight        float64 // zero → 10
	RetrievabilityWeight float64 // zero → 5
	PriorityThreshold    float64 // zero → 5; scores above count as priority items
	BaseReviewMinutes    float64 // zero → 5
	DifficultyMinutes    float64 // zero → 10; added minutes at difficulty 1.0
	TimeWindow           string  // zero → "morning"
	DefaultCognitiveLoad float64 // zero → 3; used when item metadata is missing
}

func (c Config) withDefaults() Config {
	if c.OverdueWeight == 0 {
		c.OverdueWeight = 10
	}
	if c.RetrievabilityWeight == 0 {
		c.RetrievabilityWeight = 5
	}
	if c.PriorityThreshold == 0 {
		c.PriorityThreshold = 5
	}
	if c.BaseReviewMinutes == 0 {
		c.BaseReviewMinutes = 5
	}
	if c.DifficultyMinutes == 0 {
		c.DifficultyMinutes = 10
	}
	if c.TimeWindow == "" {
		c.TimeWindow = "morning"
	}
	if c.DefaultCognitiveLoad == 0 {
		c.DefaultCognitiveLoad = 3
	}
	return c
}

// Generator produces day-by-day review schedules from a memory-state
// snapshot. Generation is a pure projection: the same snapshot and reference
// time always yield the same schedule, including ordering.
type Generator struct {
	states StateSource
	items  ItemSource
	cfg    Config
	log    *slog.Logger
}

// NewGenerator creates a schedule generator. items may be nil, in which case
// cognitive-load metrics fall back to the configured default.
func NewGenerator(states StateSource, items ItemSource, cfg Config, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{states: states, items: items, cfg: cfg.withDefaults(), log: log}
}

// Generate builds a schedule starting now.
func (g *Generator) Generate(ctx context.Context, learnerID string, horizonDays, maxDailyReviews int) (*models.Schedule, error) {
	return g.GenerateAt(ctx, learnerID, time.Now().UTC(), horizonDays, maxDailyReviews)
}

// GenerateAt builds a schedule for the given reference time. Exposed
// separately so schedules are reproducible in tests.
//
// Each day selects from the items not yet placed on an earlier day of the
// horizon. Items whose elapsed time has caught up with their stability are
// due; when fewer due items exist than the daily capacity, not-yet-due items
// fill the remainder (look-ahead), sorting after the due ones by the same
// priority score. Ties break by item id so the output is deterministic.
func (g *Generator) GenerateAt(ctx context.Context, learnerID string, now time.Time, horizonDays, maxDailyReviews int) (*models.Schedule, error) {
	snapshot, err := g.states.ListStates(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	schedule := &models.Schedule{
		LearnerID:   learnerID,
		GeneratedAt: now,
		HorizonDays: horizonDays,
		Days:        make([]models.DailySchedule, 0, horizonDays),
	}

	scheduled := make(map[string]bool, len(snapshot))
	for d := 0; d < horizonDays; d++ {
		day := now.AddDate(0, 0, d)
		daily := g.buildDay(ctx, snapshot, scheduled, day, maxDailyReviews)
		schedule.Days = append(schedule.Days, daily)
	}

	g.log.Debug("schedule generated",
		"learner", learnerID, "horizon_days", horizonDays,
		"total_reviews", schedule.TotalReviews())
	return schedule, nil
}

// candidate pairs a state with its priority evaluation for one day.
type candidate struct {
	state    *models.MemoryState
	priority float64
	overdue  float64
}

func (g *Generator) buildDay(ctx context.Context, snapshot []models.MemoryState, scheduled map[string]bool, day time.Time, capacity int) models.DailySchedule {
	daily := models.DailySchedule{Date: day, Reviews: []models.ScheduledReview{}}
	if capacity <= 0 {
		daily.Metrics = models.DailyMetrics{}
		return daily
	}

	var due, upcoming []candidate
	for i := range snapshot {
		s := &snapshot[i]
		if scheduled[s.ItemID] {
			continue
		}
		overdue := s.OverdueAmount(day)
		c := candidate{
			state:    s,
			overdue:  overdue,
			priority: overdue*g.cfg.OverdueWeight + (1-s.RetrievabilityAt(day))*g.cfg.RetrievabilityWeight,
		}
		if overdue >= 0 {
			due = append(due, c)
		} else {
			upcoming = append(upcoming, c)
		}
	}

	byPriority := func(cs []candidate) {
		sort.Slice(cs, func(i, j int) bool {
			if cs[i].priority != cs[j].priority {
				return cs[i].priority > cs[j].priority
			}
			return cs[i].state.ItemID < cs[j].state.ItemID
		})
	}
	byPriority(due)
	byPriority(upcoming)

	picked := due
	if len(picked) < capacity {
		// Look-ahead: fill spare capacity with not-yet-due items.
		picked = append(picked, upcoming[:min(capacity-len(picked), len(upcoming))]...)
	}
	if len(picked) > capacity {
		picked = picked[:capacity]
	}

	var totalMinutes, loadSum float64
	priorityCount := 0
	for _, c := range picked {
		s := c.state
		scheduled[s.ItemID] = true

		reason := models.ReasonDueReview
		if c.overdue > 0 {
			reason = models.ReasonOverdue
		}
		minutes := g.cfg.BaseReviewMinutes + s.Difficulty*g.cfg.DifficultyMinutes

		daily.Reviews = append(daily.Reviews, models.ScheduledReview{
			ItemID:             s.ItemID,
			Priority:           c.priority,
			EstimatedMinutes:   minutes,
			TimeWindow:         g.cfg.TimeWindow,
			Reason:             reason,
			ExpectedDifficulty: s.Difficulty,
		})

		totalMinutes += minutes
		loadSum += g.cognitiveLoad(ctx, s.ItemID)
		if c.priority > g.cfg.PriorityThreshold {
			priorityCount++
		}
	}

	meanLoad := 0.0
	if len(picked) > 0 {
		meanLoad = loadSum / float64(len(picked))
	}
	daily.Metrics = models.DailyMetrics{
		TotalReviewMinutes: totalMinutes,
		MeanCognitiveLoad:  meanLoad,
		PriorityItems:      priorityCount,
		NewItemCapacity:    capacity - len(picked),
	}
	return daily
}

func (g *Generator) cognitiveLoad(ctx context.Context, itemID string) float64 {
	if g.items == nil {
		return g.cfg.DefaultCognitiveLoad
	}
	item, err := g.items.GetItem(ctx, itemID)
	if err != nil || item == nil || item.CognitiveLoad == 0 {
		return g.cfg.DefaultCognitiveLoad
	}
	return float64(item.CognitiveLoad)
}
