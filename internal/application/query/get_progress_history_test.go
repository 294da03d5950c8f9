package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arlearn/arlearn-engine/internal/domain/progress"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"
)

func TestProgressHistory_Buckets(t *testing.T) {
	// Fixed reference time so the window is deterministic: 2026-04-04 .. 2026-04-10.
	ref := time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)

	recA := progress.NewRecord(shared.LearnerID(learnerA), shared.CourseID(courseA), ref.AddDate(0, 0, -30))
	recA.ApplyCompletion(100, time.Date(2026, 4, 8, 9, 30, 0, 0, time.UTC))

	recB := progress.NewRecord(shared.LearnerID(learnerA), shared.CourseID(courseB), ref.AddDate(0, 0, -30))
	recB.ApplyCompletion(40, time.Date(2026, 4, 8, 22, 0, 0, 0, time.UTC))

	// Touched outside the window: contributes nothing.
	recC := progress.NewRecord(shared.LearnerID(learnerA), shared.CourseID(courseC), ref.AddDate(0, 0, -30))
	recC.ApplyCompletion(10, time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC))

	h := NewGetProgressHistoryHandler(&fakeProgressRepo{records: []*progress.Record{recA, recB, recC}})
	h.now = func() time.Time { return ref }

	result, err := h.Handle(context.Background(), GetProgressHistoryQuery{LearnerID: learnerA})
	require.NoError(t, err)
	require.Len(t, result.Days, HistoryDays)

	assert.Equal(t, "2026-04-04", result.Days[0].Date, "oldest first")
	assert.Equal(t, "2026-04-10", result.Days[6].Date)

	byDate := map[string]HistoryDay{}
	for _, day := range result.Days {
		byDate[day.Date] = day
	}

	apr8 := byDate["2026-04-08"]
	assert.Equal(t, 2, apr8.CoursesTouched, "both records were last accessed on the 8th")
	assert.Equal(t, 1, apr8.CoursesCompleted, "only one completed on the 8th")

	// Days without activity appear with zero counts, never omitted.
	apr5 := byDate["2026-04-05"]
	assert.Zero(t, apr5.CoursesTouched)
	assert.Zero(t, apr5.CoursesCompleted)
}

func TestProgressHistory_EmptyLedger(t *testing.T) {
	h := NewGetProgressHistoryHandler(&fakeProgressRepo{})
	h.now = func() time.Time { return time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC) }

	result, err := h.Handle(context.Background(), GetProgressHistoryQuery{LearnerID: learnerA})
	require.NoError(t, err)
	require.Len(t, result.Days, HistoryDays, "the window is always full length")
	for _, day := range result.Days {
		assert.Zero(t, day.CoursesTouched)
		assert.Zero(t, day.CoursesCompleted)
	}
}

func TestProgressHistory_Validation(t *testing.T) {
	h := NewGetProgressHistoryHandler(&fakeProgressRepo{})
	_, err := h.Handle(context.Background(), GetProgressHistoryQuery{LearnerID: "nope"})
	assert.True(t, shared.IsValidation(err))
}
