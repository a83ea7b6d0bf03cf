package scheduler

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/recallengine/pkg/models"
)

// Default notification window. Digests are only sent between these hours;
// both can be overridden through NOTIFICATION_START_HOUR / NOTIFICATION_END_HOUR.
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// DefaultHorizonDays is the horizon for the nightly schedule regeneration.
const DefaultHorizonDays = 7

// Notifier delivers review reminders to a learner.
type Notifier interface {
	SendDigest(learner models.Learner, dueCount int) error
}

// LearnerSource lists the learners the background jobs iterate over.
type LearnerSource interface {
	ListLearners(ctx context.Context) ([]models.Learner, error)
}

// Scheduler runs the engine's background jobs: nightly schedule regeneration
// and hourly reminder digests. Generated schedules are cached per learner;
// the cache is a convenience view and is invalidated whenever a contributing
// memory state changes.
type Scheduler struct {
	cron     *gocron.Scheduler
	gen      *Generator
	learners LearnerSource
	notifier Notifier
	log      *slog.Logger

	mu    sync.RWMutex
	cache map[string]*models.Schedule
}

// New creates a Scheduler. notifier may be nil; digests are skipped then.
func New(gen *Generator, learners LearnerSource, notifier Notifier, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cron:     gocron.NewScheduler(time.UTC),
		gen:      gen,
		learners: learners,
		notifier: notifier,
		log:      log,
		cache:    make(map[string]*models.Schedule),
	}
}

// Start registers and launches the background jobs without blocking.
func (s *Scheduler) Start() {
	s.cron.Every(1).Day().At("03:00").Do(s.regenerateAll)
	s.cron.Every(1).Hour().Do(s.checkAndSendDigests)
	s.cron.StartAsync()
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// Latest returns the cached schedule for a learner, or nil if none has been
// generated since the last invalidation.
func (s *Scheduler) Latest(learnerID string) *models.Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache[learnerID]
}

// Invalidate drops the cached schedule for a learner. Call after any of the
// learner's memory states change.
func (s *Scheduler) Invalidate(learnerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, learnerID)
}

// regenerateAll rebuilds every learner's schedule for the default horizon.
func (s *Scheduler) regenerateAll() {
	ctx := context.Background()
	learners, err := s.learners.ListLearners(ctx)
	if err != nil {
		s.log.Error("listing learners for schedule regeneration", "error", err)
		return
	}

	for _, learner := range learners {
		sched, err := s.gen.Generate(ctx, learner.ID, DefaultHorizonDays, learner.MaxDailyReviews)
		if err != nil {
			s.log.Error("regenerating schedule", "learner", learner.ID, "error", err)
			continue
		}
		s.mu.Lock()
		s.cache[learner.ID] = sched
		s.mu.Unlock()
	}
	s.log.Info("schedules regenerated", "learners", len(learners))
}

// notificationWindow returns the configured digest window, falling back to
// the defaults when the environment overrides are absent or invalid.
func notificationWindow() (start, end int) {
	start, end = DefaultNotificationStartHour, DefaultNotificationEndHour
	if v := os.Getenv("NOTIFICATION_START_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			start = h
		}
	}
	if v := os.Getenv("NOTIFICATION_END_HOUR"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h >= 0 && h <= 23 {
			end = h
		}
	}
	return start, end
}

// checkAndSendDigests sends a due-review digest to every learner whose
// notification hour matches the current hour.
func (s *Scheduler) checkAndSendDigests() {
	if s.notifier == nil {
		return
	}

	currentHour := time.Now().UTC().Hour()
	start, end := notificationWindow()
	if currentHour < start || currentHour > end {
		s.log.Debug("outside notification window, skipping digests",
			"hour", currentHour, "start", start, "end", end)
		return
	}

	ctx := context.Background()
	learners, err := s.learners.ListLearners(ctx)
	if err != nil {
		s.log.Error("listing learners for digests", "error", err)
		return
	}

	for _, learner := range learners {
		if !learner.NotificationEnabled || learner.NotificationHour != currentHour {
			continue
		}
		if err := s.sendDigest(ctx, learner); err != nil {
			s.log.Error("sending digest", "learner", learner.ID, "error", err)
		}
	}
}

// RunManualCheck forces a digest for one learner regardless of the window.
func (s *Scheduler) RunManualCheck(ctx context.Context, learner models.Learner) error {
	return s.sendDigest(ctx, learner)
}

func (s *Scheduler) sendDigest(ctx context.Context, learner models.Learner) error {
	states, err := s.gen.states.ListStates(ctx, learner.ID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	due := 0
	for i := range states {
		if states[i].IsDue(now) {
			due++
		}
	}
	if due == 0 {
		return nil
	}
	if learner.MaxDailyReviews > 0 && due > learner.MaxDailyReviews {
		due = learner.MaxDailyReviews
	}
	return s.notifier.SendDigest(learner, due)
}
