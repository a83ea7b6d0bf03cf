package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/recallengine/pkg/models"
)

type fakeLearners []models.Learner

func (f fakeLearners) ListLearners(_ context.Context) ([]models.Learner, error) {
	return f, nil
}

type captureNotifier struct {
	learnerIDs []string
	dueCounts  []int
}

func (c *captureNotifier) SendDigest(learner models.Learner, dueCount int) error {
	c.learnerIDs = append(c.learnerIDs, learner.ID)
	c.dueCounts = append(c.dueCounts, dueCount)
	return nil
}

func TestLatestAndInvalidate(t *testing.T) {
	now := time.Now().UTC()
	states := fakeStates{"l1": {stateAt("a", 1, now.AddDate(0, 0, -3))}}
	gen := NewGenerator(states, nil, Config{}, nil)
	learners := fakeLearners{{ID: "l1", MaxDailyReviews: 10}}
	s := New(gen, learners, nil, nil)

	assert.Nil(t, s.Latest("l1"))

	s.regenerateAll()
	sched := s.Latest("l1")
	require.NotNil(t, sched)
	assert.Equal(t, "l1", sched.LearnerID)
	assert.Equal(t, DefaultHorizonDays, sched.HorizonDays)

	s.Invalidate("l1")
	assert.Nil(t, s.Latest("l1"))
}

func TestRunManualCheck(t *testing.T) {
	now := time.Now().UTC()
	states := fakeStates{"l1": {
		stateAt("a", 1, now.AddDate(0, 0, -3)),
		stateAt("b", 1, now.AddDate(0, 0, -2)),
		stateAt("c", 100, now.AddDate(0, 0, -1)), // not due
	}}
	gen := NewGenerator(states, nil, Config{}, nil)
	notifier := &captureNotifier{}
	s := New(gen, nil, notifier, nil)

	err := s.RunManualCheck(context.Background(), models.Learner{ID: "l1", MaxDailyReviews: 10})
	require.NoError(t, err)

	require.Len(t, notifier.dueCounts, 1)
	assert.Equal(t, 2, notifier.dueCounts[0])
}

func TestRunManualCheck_NothingDue(t *testing.T) {
	now := time.Now().UTC()
	states := fakeStates{"l1": {stateAt("a", 100, now.AddDate(0, 0, -1))}}
	gen := NewGenerator(states, nil, Config{}, nil)
	notifier := &captureNotifier{}
	s := New(gen, nil, notifier, nil)

	err := s.RunManualCheck(context.Background(), models.Learner{ID: "l1"})
	require.NoError(t, err)

	assert.Empty(t, notifier.dueCounts, "no digest when nothing is due")
}

func TestRunManualCheck_CapsAtDailyLimit(t *testing.T) {
	now := time.Now().UTC()
	var due []models.MemoryState
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		due = append(due, stateAt(id, 1, now.AddDate(0, 0, -3)))
	}
	gen := NewGenerator(fakeStates{"l1": due}, nil, Config{}, nil)
	notifier := &captureNotifier{}
	s := New(gen, nil, notifier, nil)

	err := s.RunManualCheck(context.Background(), models.Learner{ID: "l1", MaxDailyReviews: 3})
	require.NoError(t, err)

	require.Len(t, notifier.dueCounts, 1)
	assert.Equal(t, 3, notifier.dueCounts[0])
}

func TestNotificationWindow(t *testing.T) {
	start, end := notificationWindow()
	assert.Equal(t, DefaultNotificationStartHour, start)
	assert.Equal(t, DefaultNotificationEndHour, end)

	t.Setenv("NOTIFICATION_START_HOUR", "10")
	t.Setenv("NOTIFICATION_END_HOUR", "20")
	start, end = notificationWindow()
	assert.Equal(t, 10, start)
	assert.Equal(t, 20, end)

	t.Setenv("NOTIFICATION_START_HOUR", "not-a-number")
	t.Setenv("NOTIFICATION_END_HOUR", "99")
	start, end = notificationWindow()
	assert.Equal(t, DefaultNotificationStartHour, start)
	assert.Equal(t, DefaultNotificationEndHour, end)
}
