package learner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

const testLearnerID = shared.LearnerID("7ed99bd0-87b2-4dbb-a97b-596c3f29c49b")

func newTestLearner(t *testing.T) *Learner {
	t.Helper()
	l, err := NewLearner(NewLearnerParams{
		ID:    testLearnerID,
		Name:  "Aigerim Bekova",
		Email: "aigerim@example.com",
	})
	require.NoError(t, err)
	return l
}

func TestNewLearner(t *testing.T) {
	l := newTestLearner(t)

	assert.Equal(t, testLearnerID, l.ID)
	assert.Equal(t, shared.StyleUnset, l.AnalyzedStyle.Style)
	assert.False(t, l.AnalyzedStyle.IsSet())
	assert.Empty(t, l.Achievements)
	assert.Zero(t, l.Engagement.TotalActivities)
}

func TestNewLearner_Validation(t *testing.T) {
	_, err := NewLearner(NewLearnerParams{ID: "bad-id", Name: "A", Email: "a@b.c"})
	assert.ErrorIs(t, err, shared.ErrInvalidLearner)

	_, err = NewLearner(NewLearnerParams{ID: testLearnerID, Name: "   ", Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewLearner(NewLearnerParams{ID: testLearnerID, Name: "A", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestEngagement_Add(t *testing.T) {
	e := Engagement{}

	e = e.Add(shared.StyleVisual, 10)
	e = e.Add(shared.StyleVisual, 5)
	e = e.Add(shared.StyleReading, 3)

	assert.Equal(t, 15, e.Visual)
	assert.Equal(t, 3, e.Reading)
	assert.Equal(t, 3, e.TotalActivities)
	assert.Equal(t, 18, e.Sum())
}

func TestEngagement_AddZeroScoreStillCounts(t *testing.T) {
	e := Engagement{}.Add(shared.StyleAuditory, 0)
	assert.Equal(t, 0, e.Auditory)
	assert.Equal(t, 1, e.TotalActivities, "every event counts as one activity regardless of score")
}

func TestEngagement_ShouldClassify(t *testing.T) {
	e := Engagement{}
	assert.False(t, e.ShouldClassify(), "never at zero")

	for i := 1; i <= 30; i++ {
		e = e.Add(shared.StyleVisual, 1)
		want := i%ClassificationCadence == 0
		assert.Equal(t, want, e.ShouldClassify(), "at activity %d", i)
	}
}

func TestLearner_RecordActivity(t *testing.T) {
	l := newTestLearner(t)

	for i := 0; i < 9; i++ {
		due, err := l.RecordActivity(shared.ActivityVideo, 5)
		require.NoError(t, err)
		assert.False(t, due, "cadence must not fire before the 10th event")
	}

	due, err := l.RecordActivity(shared.ActivityAudio, 5)
	require.NoError(t, err)
	assert.True(t, due, "cadence fires exactly at the 10th event")

	assert.Equal(t, 45, l.Engagement.Visual)
	assert.Equal(t, 5, l.Engagement.Auditory)
	assert.Equal(t, 10, l.Engagement.TotalActivities)
}

func TestLearner_RecordActivity_UnknownType(t *testing.T) {
	l := newTestLearner(t)
	_, err := l.RecordActivity("podcast", 5)
	assert.ErrorIs(t, err, shared.ErrUnknownContentType)
	assert.Zero(t, l.Engagement.TotalActivities, "rejected events leave the counters untouched")
}

func TestLearner_Reclassify(t *testing.T) {
	l := newTestLearner(t)
	l.Engagement = Engagement{Visual: 5, Auditory: 40, Kinesthetic: 2, Reading: 1, TotalActivities: 10}

	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)
	previous, next := l.Reclassify(now)

	assert.Equal(t, shared.StyleUnset, previous)
	assert.Equal(t, shared.StyleAuditory, next)
	assert.Equal(t, shared.StyleAuditory, l.AnalyzedStyle.Style)
	assert.Equal(t, now, l.AnalyzedStyle.LastAnalyzedAt)

	// Counters survive classification untouched.
	assert.Equal(t, 40, l.Engagement.Auditory)
	assert.Equal(t, 10, l.Engagement.TotalActivities)

	// A later run reports the previous snapshot.
	l.Engagement = l.Engagement.Add(shared.StyleVisual, 100)
	previous, next = l.Reclassify(now.Add(time.Hour))
	assert.Equal(t, shared.StyleAuditory, previous)
	assert.Equal(t, shared.StyleVisual, next)
}

func TestLearner_Award(t *testing.T) {
	l := newTestLearner(t)

	err := l.Award(Achievement{Title: "Quick Starter", Icon: "🌟"})
	require.NoError(t, err)
	require.Len(t, l.Achievements, 1)
	assert.False(t, l.Achievements[0].EarnedAt.IsZero())

	err = l.Award(Achievement{Title: "Quick Starter"})
	assert.ErrorIs(t, err, shared.ErrAchievementAlreadyEarned)
	assert.Len(t, l.Achievements, 1, "duplicate titles never re-append")
}

func TestLearner_ResetEngagement(t *testing.T) {
	l := newTestLearner(t)
	l.Engagement = Engagement{Visual: 10, TotalActivities: 4}

	l.ResetEngagement()
	assert.Equal(t, Engagement{}, l.Engagement)
}
