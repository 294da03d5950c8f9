package learner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluator_Evaluate(t *testing.T) {
	l := newTestLearner(t)
	l.Stats.CoursesStarted = 1
	l.Stats.CoursesCompleted = 1

	ev := NewEvaluator()
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	earned, failures := ev.Evaluate(l, now)
	assert.Empty(t, failures)
	require.Len(t, earned, 2)
	assert.Equal(t, "Quick Starter", earned[0].Title)
	assert.Equal(t, "Course Champion", earned[1].Title)
	assert.Equal(t, now, earned[0].EarnedAt)
}

func TestEvaluator_Idempotent(t *testing.T) {
	l := newTestLearner(t)
	l.Stats.CoursesStarted = 1

	ev := NewEvaluator()
	now := time.Now().UTC()

	earned, _ := ev.Evaluate(l, now)
	require.Len(t, earned, 1)
	for _, a := range earned {
		require.NoError(t, l.Award(a))
	}

	// The rule still matches, but the title is already on the record.
	earned, _ = ev.Evaluate(l, now)
	assert.Empty(t, earned)
}

func TestEvaluator_RuleErrorsAreCollected(t *testing.T) {
	boom := errors.New("stats unavailable")
	ev := NewEvaluator(
		Rule{Title: "Broken", Check: func(*Learner) (bool, error) { return false, boom }},
		Rule{Title: "Fine", Check: func(*Learner) (bool, error) { return true, nil }},
	)

	l := newTestLearner(t)
	earned, failures := ev.Evaluate(l, time.Now().UTC())

	require.Len(t, failures, 1)
	assert.Equal(t, "Broken", failures[0].Title)
	assert.ErrorIs(t, failures[0].Err, boom)

	// A failing rule never blocks the rest of the pass.
	require.Len(t, earned, 1)
	assert.Equal(t, "Fine", earned[0].Title)
}

func TestDefaultRules_Thresholds(t *testing.T) {
	l := newTestLearner(t)
	l.Stats = Stats{
		CoursesStarted:   2,
		CoursesCompleted: 5,
		TotalTimeSpent:   60 * 3600,
		Streak:           5,
	}

	earned, failures := NewEvaluator().Evaluate(l, time.Now().UTC())
	assert.Empty(t, failures)
	assert.Len(t, earned, len(DefaultRules()), "all catalog thresholds are met")
}
