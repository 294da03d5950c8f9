package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

func classifiedLearner() *learner.Learner {
	l := seededLearner(learnerA)
	l.Engagement = learner.Engagement{Visual: 60, Auditory: 20, Kinesthetic: 10, Reading: 10, TotalActivities: 10}
	l.AnalyzedStyle = learner.AnalyzedStyle{Style: shared.StyleVisual, LastAnalyzedAt: time.Now().UTC()}
	l.Achievements = []learner.Achievement{{Title: "Quick Starter", EarnedAt: time.Now().UTC()}}
	l.Stats = learner.Stats{CoursesStarted: 2, CoursesCompleted: 1}
	return l
}

func TestAnalyticsSnapshot(t *testing.T) {
	h := NewGetAnalyticsSnapshotHandler(newFakeLearnerRepo(classifiedLearner()), nil, testLogger)

	snap, err := h.Handle(context.Background(), GetAnalyticsSnapshotQuery{LearnerID: learnerA})
	require.NoError(t, err)

	assert.Equal(t, shared.LearnerID(learnerA), snap.LearnerID)
	assert.Equal(t, shared.StyleVisual, snap.AnalyzedStyle)
	assert.Equal(t, 1, snap.AchievementCount)
	assert.Equal(t, 2, snap.Stats.CoursesStarted)
	assert.InDelta(t, 60.0, snap.Breakdown[shared.StyleVisual], 0.001)
	assert.False(t, snap.GeneratedAt.IsZero())
}

func TestAnalyticsSnapshot_NoEngagement(t *testing.T) {
	h := NewGetAnalyticsSnapshotHandler(newFakeLearnerRepo(seededLearner(learnerA)), nil, testLogger)

	snap, err := h.Handle(context.Background(), GetAnalyticsSnapshotQuery{LearnerID: learnerA})
	require.NoError(t, err)

	assert.Nil(t, snap.Breakdown, "no synthetic distribution before any engagement")
	assert.Equal(t, shared.StyleUnset, snap.AnalyzedStyle)
}

func TestAnalyticsSnapshot_CacheHit(t *testing.T) {
	repo := newFakeLearnerRepo(classifiedLearner())
	cache := newFakeSnapshotCache()
	h := NewGetAnalyticsSnapshotHandler(repo, cache, testLogger)

	first, err := h.Handle(context.Background(), GetAnalyticsSnapshotQuery{LearnerID: learnerA})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Second read is served from cache, not recomputed.
	repo.getErr = errors.New("storage must not be hit")
	second, err := h.Handle(context.Background(), GetAnalyticsSnapshotQuery{LearnerID: learnerA})
	require.NoError(t, err)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
}

func TestAnalyticsSnapshot_BypassCache(t *testing.T) {
	cache := newFakeSnapshotCache()
	h := NewGetAnalyticsSnapshotHandler(newFakeLearnerRepo(classifiedLearner()), cache, testLogger)

	_, err := h.Handle(context.Background(), GetAnalyticsSnapshotQuery{LearnerID: learnerA})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), GetAnalyticsSnapshotQuery{LearnerID: learnerA, BypassCache: true})
	require.NoError(t, err)

	assert.Equal(t, 1, cache.gets, "bypass skips the cache read")
	assert.Equal(t, 2, cache.sets, "recomputation refreshes the cache")
}

func TestAnalyticsSnapshot_CacheFailureFallsThrough(t *testing.T) {
	cache := newFakeSnapshotCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	h := NewGetAnalyticsSnapshotHandler(newFakeLearnerRepo(classifiedLearner()), cache, testLogger)

	snap, err := h.Handle(context.Background(), GetAnalyticsSnapshotQuery{LearnerID: learnerA})
	require.NoError(t, err, "the repository is always the source of truth")
	assert.Equal(t, shared.StyleVisual, snap.AnalyzedStyle)
}

func TestAnalyticsSnapshot_UnknownLearner(t *testing.T) {
	h := NewGetAnalyticsSnapshotHandler(newFakeLearnerRepo(), nil, testLogger)

	_, err := h.Handle(context.Background(), GetAnalyticsSnapshotQuery{LearnerID: learnerA})
	assert.True(t, shared.IsNotFound(err))
}
